package montage

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"
)

// Options configures a Builder
type Options struct {
	Grid             Grid
	ReserveBlankCell bool
	Suffix           SuffixPosition
	Quality          int
	Background       color.Color
	Workers          int // groups rendered at once by BuildGrouped
}

// DefaultOptions returns a 7×10 grid with the blank cell reserved
func DefaultOptions() Options {
	return Options{
		Grid:             DefaultGrid,
		ReserveBlankCell: true,
		Suffix:           SuffixAfter,
		Quality:          95,
		Background:       color.Black,
		Workers:          1,
	}
}

// Builder renders collections into montage sheets
type Builder struct {
	opts Options
}

// NewBuilder creates a Builder, filling unset options from DefaultOptions
func NewBuilder(opts Options) *Builder {
	def := DefaultOptions()
	if opts.Grid == (Grid{}) {
		opts.Grid = def.Grid
	}
	if opts.Suffix == "" {
		opts.Suffix = def.Suffix
	}
	if opts.Quality == 0 {
		opts.Quality = def.Quality
	}
	if opts.Background == nil {
		opts.Background = def.Background
	}
	opts.Workers = max(opts.Workers, 1)
	return &Builder{opts: opts}
}

// Options returns the effective options
func (b *Builder) Options() Options {
	return b.opts
}

// Result lists the sheets written by one build and the chunks that were
// rejected for mixing image shapes
type Result struct {
	Planned int
	Sheets  []Sheet
	Errors  []error
}

// Err joins the per-chunk errors, nil when every chunk rendered
func (r *Result) Err() error {
	return errors.Join(r.Errors...)
}

// Build packs images into sheets written to folder under name. A chunk with
// mixed shapes is skipped and recorded in Result.Errors; filesystem failures
// stop the build and are returned.
func (b *Builder) Build(images []image.Image, folder, name string) (*Result, error) {
	sheets, err := Plan(len(images), b.opts.Grid, b.opts.ReserveBlankCell, b.opts.Suffix, folder, name)
	if err != nil {
		return nil, err
	}

	result := &Result{Planned: len(sheets)}
	if len(sheets) == 0 {
		slog.Debug("No images to montage", "folder", folder, "name", name)
		return result, nil
	}

	if err := os.MkdirAll(folder, 0755); err != nil {
		return result, fmt.Errorf("failed to create montage directory: %w", err)
	}

	for _, sheet := range sheets {
		canvas, err := Compose(images[sheet.Start:sheet.End], b.opts.Grid, b.opts.Background)
		if err != nil {
			var mismatch *ShapeMismatchError
			if errors.As(err, &mismatch) {
				mismatch.Chunk = sheet.Index
				mismatch.Index += sheet.Start
				slog.Warn("Skipping montage sheet", "path", sheet.Path, "error", mismatch)
				result.Errors = append(result.Errors, mismatch)
				continue
			}
			return result, fmt.Errorf("failed to compose %s: %w", sheet.Path, err)
		}

		if err := imaging.Save(canvas, sheet.Path, imaging.JPEGQuality(b.opts.Quality)); err != nil {
			return result, fmt.Errorf("failed to write montage sheet: %w", err)
		}

		slog.Info("Wrote montage sheet", "path", sheet.Path, "images", sheet.Count(), "grid", b.opts.Grid.String())
		result.Sheets = append(result.Sheets, sheet)
	}

	return result, nil
}

// Collection is the decoded content of one folder, in directory order
type Collection struct {
	Images     []image.Image
	Paths      []string
	Unreadable []string
}

// LoadFolder decodes every regular file of folder that has an image
// extension. Entries come in os.ReadDir order, which is sorted by name.
// Files that fail to decode are listed in Unreadable and left out.
func LoadFolder(folder string) (*Collection, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("failed to read image folder: %w", err)
	}

	c := &Collection{}
	for _, entry := range entries {
		path := filepath.Join(folder, entry.Name())

		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if _, err := imaging.FormatFromFilename(path); err != nil {
			slog.Debug("Ignoring non-image file", "path", path)
			continue
		}

		img, err := imaging.Open(path, imaging.AutoOrientation(true))
		if err != nil {
			slog.Warn("Failed to decode image", "path", path, "error", err)
			c.Unreadable = append(c.Unreadable, path)
			continue
		}
		c.Images = append(c.Images, img)
		c.Paths = append(c.Paths, path)
	}

	return c, nil
}

// BuildFolder loads folder and builds its sheets into outputFolder under name
func (b *Builder) BuildFolder(folder, outputFolder, name string) (*Collection, *Result, error) {
	collection, err := LoadFolder(folder)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("Loaded images", "folder", folder, "images", len(collection.Images), "unreadable", len(collection.Unreadable))

	result, err := b.Build(collection.Images, outputFolder, name)
	return collection, result, err
}

// GroupResult is the outcome of building one subfolder
type GroupResult struct {
	Group      string
	Images     int
	Unreadable []string
	Result     *Result
}

// BuildGrouped builds every subfolder of root into root, naming sheets
// {setCode}_{group}. Non-directory entries are ignored. Groups are rendered
// by up to Options.Workers goroutines and reported in directory order.
func (b *Builder) BuildGrouped(ctx context.Context, root, setCode string) ([]GroupResult, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read montage root: %w", err)
	}

	var groups []string
	for _, entry := range entries {
		if entry.IsDir() {
			groups = append(groups, entry.Name())
		}
	}

	results := make([]GroupResult, len(groups))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Workers)
	for i, group := range groups {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			collection, result, err := b.BuildFolder(filepath.Join(root, group), root, setCode+"_"+group)
			results[i] = GroupResult{Group: group, Result: result}
			if collection != nil {
				results[i].Images = len(collection.Images)
				results[i].Unreadable = collection.Unreadable
			}
			if err != nil {
				return fmt.Errorf("group %s: %w", group, err)
			}
			return nil
		})
	}

	err = g.Wait()
	return results, err
}
