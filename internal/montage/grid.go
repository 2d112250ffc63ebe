// Package montage packs ordered collections of equally sized images into
// fixed rows×columns sheets and writes each sheet as a JPEG.
//
// A collection of N images with an effective per-sheet capacity C produces
// ceil(N/C) sheets. Images keep their order: sheet k holds images
// [k*C, min((k+1)*C, N)) laid out row-major. When the blank cell is reserved
// the capacity is rows*cols-1, so the last cell of every sheet stays empty.
//
// Sheet files are named <name>.jpg when a collection fits on one sheet and
// carry a zero-based index otherwise, either after the name (<name>_0.jpg)
// or before it (0_<name>.jpg).
package montage

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Ext is the extension of every sheet written
const Ext = ".jpg"

// ErrInvalidGrid is returned for grids that cannot hold a single image
var ErrInvalidGrid = errors.New("invalid montage grid")

// Grid is the rows×columns shape of one sheet
type Grid struct {
	Rows int
	Cols int
}

// DefaultGrid is the 7×10 layout accepted by the tabletop deck importer
var DefaultGrid = Grid{Rows: 7, Cols: 10}

// Cells returns rows*cols
func (g Grid) Cells() int {
	return g.Rows * g.Cols
}

// Capacity returns how many images one sheet holds
func (g Grid) Capacity(reserveBlankCell bool) int {
	if reserveBlankCell {
		return g.Cells() - 1
	}
	return g.Cells()
}

func (g Grid) String() string {
	return fmt.Sprintf("%dx%d", g.Rows, g.Cols)
}

// SuffixPosition selects where the sheet index goes in multi-sheet names
type SuffixPosition string

const (
	// SuffixAfter names sheets <name>_<index>.jpg
	SuffixAfter SuffixPosition = "after"
	// SuffixBefore names sheets <index>_<name>.jpg
	SuffixBefore SuffixPosition = "before"
)

// ParseSuffixPosition accepts "after" or "before"
func ParseSuffixPosition(s string) (SuffixPosition, error) {
	switch p := SuffixPosition(s); p {
	case SuffixAfter, SuffixBefore:
		return p, nil
	default:
		return "", fmt.Errorf("unknown suffix position %q", s)
	}
}

// SheetName returns the file name of sheet index out of total
func SheetName(name string, index, total int, pos SuffixPosition) string {
	if total <= 1 {
		return name + Ext
	}
	if pos == SuffixBefore {
		return fmt.Sprintf("%d_%s%s", index, name, Ext)
	}
	return fmt.Sprintf("%s_%d%s", name, index, Ext)
}

// Sheet is one planned or written montage file. Start and End delimit the
// half-open range of the input collection placed on it.
type Sheet struct {
	Index int    `yaml:"index"`
	Path  string `yaml:"path"`
	Start int    `yaml:"start"`
	End   int    `yaml:"end"`
}

// Count returns the number of images on the sheet
func (s Sheet) Count() int {
	return s.End - s.Start
}

// Plan partitions n images into sheets of at most the effective capacity,
// preserving order, and names each sheet inside folder. An empty collection
// yields no sheets.
func Plan(n int, grid Grid, reserveBlankCell bool, pos SuffixPosition, folder, name string) ([]Sheet, error) {
	if grid.Rows < 1 || grid.Cols < 1 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidGrid, grid)
	}
	capacity := grid.Capacity(reserveBlankCell)
	if capacity < 1 {
		return nil, fmt.Errorf("%w: %s has no cell left after reserving the blank cell", ErrInvalidGrid, grid)
	}
	if n <= 0 {
		return nil, nil
	}

	total := (n + capacity - 1) / capacity
	sheets := make([]Sheet, 0, total)
	for i := range total {
		start := i * capacity
		sheets = append(sheets, Sheet{
			Index: i,
			Path:  filepath.Join(folder, SheetName(name, i, total, pos)),
			Start: start,
			End:   min(start+capacity, n),
		})
	}
	return sheets, nil
}
