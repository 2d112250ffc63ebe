// Package manifest records which cards a fetch run resolved and where their
// images ended up, as a parquet file stored next to the art.
package manifest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/lehigh-university-libraries/ttsmontage/internal/images"
	"github.com/lehigh-university-libraries/ttsmontage/internal/models"
	"github.com/parquet-go/parquet-go"
)

// FileName is the manifest name inside a set directory
const FileName = "cards.parquet"

// Row is one card of the manifest
type Row struct {
	Name     string `parquet:"name"`
	Rarity   string `parquet:"rarity"`
	SetCode  string `parquet:"set_code"`
	ImageURL string `parquet:"image_url"`
	Path     string `parquet:"path"`
	Outcome  string `parquet:"outcome"`
	Status   int32  `parquet:"status"`
	Bytes    int64  `parquet:"bytes"`
	Error    string `parquet:"error"`
}

// IsMissing reports whether the card's image could not be fetched.
// Images kept from an earlier run are not missing.
func (r Row) IsMissing() bool {
	switch r.Outcome {
	case models.OutcomeSuccess.String(), models.OutcomeExisting.String():
		return false
	}
	return true
}

// FromSummary converts download entries into manifest rows, keeping order
func FromSummary(summary *images.Summary) []Row {
	rows := make([]Row, 0, len(summary.Entries))
	for _, e := range summary.Entries {
		row := Row{
			Name:     e.Record.Name,
			Rarity:   e.Record.Rarity,
			SetCode:  e.Record.SetCode,
			ImageURL: e.Record.ImageURL,
			Path:     e.Path,
			Outcome:  e.Result.Outcome.String(),
			Status:   int32(e.Result.Status),
			Bytes:    e.Result.Bytes,
		}
		if e.Result.Err != nil {
			row.Error = e.Result.Err.Error()
		}
		rows = append(rows, row)
	}
	return rows
}

// Write stores rows at path, replacing any previous manifest
func Write(path string, rows []Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create manifest: %w", err)
	}

	writer := parquet.NewGenericWriter[Row](file)
	if _, err := writer.Write(rows); err != nil {
		file.Close()
		return fmt.Errorf("failed to write manifest rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		file.Close()
		return fmt.Errorf("failed to finish manifest: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close manifest: %w", err)
	}

	return nil
}

// Read loads every row of the manifest at path
func Read(path string) ([]Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[Row](pf)
	defer reader.Close()

	rows := make([]Row, 0, pf.NumRows())
	batch := make([]Row, 128)
	for {
		n, err := reader.Read(batch)
		rows = append(rows, batch[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read manifest rows: %w", err)
		}
	}

	return rows, nil
}
