package montage

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
)

// Shape is the size and colour layout of one image
type Shape struct {
	Width  int
	Height int
	Layout string
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%d %s", s.Width, s.Height, s.Layout)
}

// ShapeOf returns the shape of img
func ShapeOf(img image.Image) Shape {
	b := img.Bounds()
	return Shape{Width: b.Dx(), Height: b.Dy(), Layout: colorLayout(img)}
}

// colorLayout classifies decoded images by channel layout; single channel
// images cannot share a sheet with colour ones
func colorLayout(img image.Image) string {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return "gray"
	default:
		return "color"
	}
}

// ShapeMismatchError reports an image whose shape differs from the first
// image of its sheet
type ShapeMismatchError struct {
	Chunk int
	Index int
	Want  Shape
	Got   Shape
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("non-uniform image shape in chunk %d at image %d: got %s, want %s", e.Chunk, e.Index, e.Got, e.Want)
}

// Compose tiles images row-major into a grid sized from the first image.
// Cells past the last image are filled with bg. All images must share one
// shape; the first offender is reported as a *ShapeMismatchError with Index
// relative to images.
func Compose(images []image.Image, grid Grid, bg color.Color) (*image.RGBA, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("no images to compose")
	}
	if len(images) > grid.Cells() {
		return nil, fmt.Errorf("%d images do not fit a %s grid", len(images), grid)
	}

	want := ShapeOf(images[0])
	for i, img := range images[1:] {
		if got := ShapeOf(img); got != want {
			return nil, &ShapeMismatchError{Index: i + 1, Want: want, Got: got}
		}
	}

	canvas := image.NewRGBA(image.Rect(0, 0, grid.Cols*want.Width, grid.Rows*want.Height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	for i, img := range images {
		x := (i % grid.Cols) * want.Width
		y := (i / grid.Cols) * want.Height
		cell := image.Rect(x, y, x+want.Width, y+want.Height)
		draw.Draw(canvas, cell, img, img.Bounds().Min, draw.Src)
	}

	return canvas, nil
}
