package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/lehigh-university-libraries/ttsmontage/internal/catalog"
	"github.com/lehigh-university-libraries/ttsmontage/internal/images"
	"github.com/lehigh-university-libraries/ttsmontage/internal/montage"
	"gopkg.in/yaml.v3"
)

// Report summarises one pipeline run
type Report struct {
	SetCode   string          `yaml:"setcode"`
	Timestamp string          `yaml:"timestamp"`
	Fetch     *FetchSection   `yaml:"fetch,omitempty"`
	Montage   *MontageSection `yaml:"montage,omitempty"`
}

// FetchSection covers the catalog query and downloads
type FetchSection struct {
	Tiers        []catalog.TierResult `yaml:"tiers"`
	TiersSkipped int                  `yaml:"tiersskipped"`
	Cards        int                  `yaml:"cards"`
	Downloaded   int                  `yaml:"downloaded"`
	Existing     int                  `yaml:"existing"`
	Missing      int                  `yaml:"missing"`
	Skipped      int                  `yaml:"skipped"`
	Failed       int                  `yaml:"failed"`
	Manifest     string               `yaml:"manifest,omitempty"`
}

// MontageSection covers the sheets built
type MontageSection struct {
	Grid             string         `yaml:"grid"`
	ReserveBlankCell bool           `yaml:"reserveblankcell"`
	Suffix           string         `yaml:"suffix"`
	Groups           []GroupSection `yaml:"groups"`
}

// GroupSection is one montage build
type GroupSection struct {
	Name       string          `yaml:"name"`
	Images     int             `yaml:"images"`
	Unreadable []string        `yaml:"unreadable,omitempty"`
	Sheets     []montage.Sheet `yaml:"sheets"`
	Errors     []string        `yaml:"errors,omitempty"`
}

// New starts a report for setCode
func New(setCode string) *Report {
	return &Report{
		SetCode:   setCode,
		Timestamp: time.Now().Format("2006-01-02_15-04-05"),
	}
}

// AddFetch records the catalog query and download summary
func (r *Report) AddFetch(set *catalog.SetCards, summary *images.Summary) {
	f := &FetchSection{
		Tiers:        set.Tiers,
		TiersSkipped: set.Skipped(),
	}
	if summary != nil {
		f.Cards = len(summary.Entries)
		f.Downloaded = summary.Downloaded
		f.Existing = summary.Existing
		f.Missing = summary.Missing()
		f.Skipped = summary.Skipped
		f.Failed = summary.Failed
	}
	r.Fetch = f
}

// StartMontage records the sheet layout used for the builds that follow
func (r *Report) StartMontage(opts montage.Options) {
	r.Montage = &MontageSection{
		Grid:             opts.Grid.String(),
		ReserveBlankCell: opts.ReserveBlankCell,
		Suffix:           string(opts.Suffix),
	}
}

// AddGroup records one montage build
func (r *Report) AddGroup(name string, count int, unreadable []string, result *montage.Result) {
	if r.Montage == nil {
		r.Montage = &MontageSection{}
	}
	g := GroupSection{Name: name, Images: count, Unreadable: unreadable}
	if result != nil {
		g.Sheets = result.Sheets
		for _, err := range result.Errors {
			g.Errors = append(g.Errors, err.Error())
		}
	}
	r.Montage.Groups = append(r.Montage.Groups, g)
}

// SheetsWritten counts sheets across all groups
func (r *Report) SheetsWritten() int {
	if r.Montage == nil {
		return 0
	}
	n := 0
	for _, g := range r.Montage.Groups {
		n += len(g.Sheets)
	}
	return n
}

// ShapeErrors counts chunks rejected for mixed image shapes
func (r *Report) ShapeErrors() int {
	if r.Montage == nil {
		return 0
	}
	n := 0
	for _, g := range r.Montage.Groups {
		n += len(g.Errors)
	}
	return n
}

// SaveToYAML writes the report to path
func (r *Report) SaveToYAML(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write YAML file: %w", err)
	}

	return nil
}

// Print writes a human readable summary
func (r *Report) Print(w io.Writer) {
	fmt.Fprintf(w, "\nRun complete for set %s\n", r.SetCode)
	if f := r.Fetch; f != nil {
		fmt.Fprintf(w, "  Rarity tiers skipped: %d of %d\n", f.TiersSkipped, len(f.Tiers))
		fmt.Fprintf(w, "  Card images downloaded: %d of %d\n", f.Downloaded, f.Cards)
		if f.Existing > 0 {
			fmt.Fprintf(w, "  Card images already on disk: %d\n", f.Existing)
		}
		fmt.Fprintf(w, "  Card images missing: %d (skipped %d, failed %d)\n", f.Missing, f.Skipped, f.Failed)
		if f.Manifest != "" {
			fmt.Fprintf(w, "  Manifest: %s\n", f.Manifest)
		}
	}
	if m := r.Montage; m != nil {
		fmt.Fprintf(w, "  Montage grid: %s (blank cell reserved: %v)\n", m.Grid, m.ReserveBlankCell)
		for _, g := range m.Groups {
			fmt.Fprintf(w, "  %s: %d images -> %d sheets\n", g.Name, g.Images, len(g.Sheets))
			for _, s := range g.Sheets {
				fmt.Fprintf(w, "    - %s (%d images)\n", s.Path, s.Count())
			}
			for _, e := range g.Errors {
				fmt.Fprintf(w, "    ! %s\n", e)
			}
		}
	}
}
