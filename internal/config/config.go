package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Suffix positions accepted by MONTAGE_SUFFIX_POSITION
const (
	SuffixAfter  = "after"
	SuffixBefore = "before"
)

// DefaultCatalogAPIURL is the public card catalog queried when no URL is configured
const DefaultCatalogAPIURL = "https://api.scryfall.com"

// Config holds every setting of a pipeline run. It is built once at startup
// and passed down; no package below cmd reads the environment itself.
type Config struct {
	SetCode         string
	OutputRootDir   string
	SourceImages    bool
	GenerateMontage bool
	CatalogAPIURL   string

	MontageInputDir  string
	MontageOutputDir string

	Montage MontageConfig
	Fetch   FetchConfig

	ReportPath string
}

// MontageConfig holds the sheet layout settings
type MontageConfig struct {
	Rows             int
	Columns          int
	ReserveBlankCell bool
	SuffixPosition   string
	JPEGQuality      int
	Workers          int
}

// FetchConfig holds the catalog and download settings
type FetchConfig struct {
	Workers       int
	RateLimit     float64 // catalog requests per second, 0 disables pacing
	DownloadRate  float64 // image downloads per second, 0 disables pacing
	HTTPTimeout   time.Duration
	SkipExisting  bool
	WriteManifest bool
}

// MissingKeyError reports a required setting that was not provided
type MissingKeyError struct {
	Key    string
	Reason string
}

func (e *MissingKeyError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("missing required configuration value %s", e.Key)
	}
	return fmt.Sprintf("missing required configuration value %s (%s)", e.Key, e.Reason)
}

// SetDir is the per-set directory holding downloaded art and grouped sheets
func (c *Config) SetDir() string {
	return filepath.Join(c.OutputRootDir, c.SetCode)
}

// SingleCollection reports whether the montage stage runs over one configured
// folder instead of the per-rarity tree
func (c *Config) SingleCollection() bool {
	return c.MontageInputDir != ""
}

// Validate checks required keys and value ranges
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SetCode) == "" {
		return &MissingKeyError{Key: "SET_CODE"}
	}

	if c.SourceImages {
		if c.OutputRootDir == "" {
			return &MissingKeyError{Key: "OUTPUT_ROOT_DIR", Reason: "needed when SOURCE_IMAGES is true"}
		}
		if c.CatalogAPIURL == "" {
			return &MissingKeyError{Key: "CATALOG_API_URL", Reason: "needed when SOURCE_IMAGES is true"}
		}
	}

	if c.GenerateMontage {
		if c.SingleCollection() && c.MontageOutputDir == "" {
			return &MissingKeyError{Key: "MONTAGE_IMAGE_OUTPUT_DIR", Reason: "needed when MONTAGE_IMAGE_INPUT_DIR is set"}
		}
		if !c.SingleCollection() && c.OutputRootDir == "" {
			return &MissingKeyError{Key: "OUTPUT_ROOT_DIR", Reason: "needed for the per-rarity montage"}
		}
	}

	if c.Montage.Rows < 1 || c.Montage.Columns < 1 {
		return fmt.Errorf("montage grid must be at least 1x1, got %dx%d", c.Montage.Rows, c.Montage.Columns)
	}
	if c.Montage.ReserveBlankCell && c.Montage.Rows*c.Montage.Columns < 2 {
		return fmt.Errorf("a 1x1 montage grid leaves no cell once the blank cell is reserved")
	}
	switch c.Montage.SuffixPosition {
	case SuffixAfter, SuffixBefore:
	default:
		return fmt.Errorf("MONTAGE_SUFFIX_POSITION must be %q or %q, got %q", SuffixAfter, SuffixBefore, c.Montage.SuffixPosition)
	}
	if c.Montage.JPEGQuality < 1 || c.Montage.JPEGQuality > 100 {
		return fmt.Errorf("MONTAGE_JPEG_QUALITY must be between 1 and 100, got %d", c.Montage.JPEGQuality)
	}
	if c.Montage.Workers < 1 {
		return fmt.Errorf("MONTAGE_WORKERS must be at least 1")
	}
	if c.Fetch.Workers < 1 {
		return fmt.Errorf("DOWNLOAD_WORKERS must be at least 1")
	}
	if c.Fetch.RateLimit < 0 {
		return fmt.Errorf("CATALOG_RATE_LIMIT cannot be negative")
	}
	if c.Fetch.DownloadRate < 0 {
		return fmt.Errorf("DOWNLOAD_RATE_LIMIT cannot be negative")
	}
	if c.Fetch.HTTPTimeout < 0 {
		return fmt.Errorf("HTTP_TIMEOUT cannot be negative")
	}

	return nil
}
