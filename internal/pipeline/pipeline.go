// Package pipeline runs the fetch and montage stages for one set.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/lehigh-university-libraries/ttsmontage/internal/catalog"
	"github.com/lehigh-university-libraries/ttsmontage/internal/config"
	"github.com/lehigh-university-libraries/ttsmontage/internal/images"
	"github.com/lehigh-university-libraries/ttsmontage/internal/manifest"
	"github.com/lehigh-university-libraries/ttsmontage/internal/montage"
	"github.com/lehigh-university-libraries/ttsmontage/internal/report"
)

// UserAgent is sent with every catalog and image request
var UserAgent = "ttsmontage/dev"

// Run executes the stages enabled in cfg. Per-card and per-chunk misses are
// recorded in the report; configuration and filesystem errors stop the run.
// The report is saved even when a stage fails, covering the work done so far.
func Run(ctx context.Context, cfg *config.Config) (*report.Report, error) {
	rep := report.New(cfg.SetCode)

	err := runStages(ctx, cfg, rep)

	if cfg.ReportPath != "" {
		if saveErr := rep.SaveToYAML(cfg.ReportPath); saveErr != nil {
			return rep, errors.Join(err, saveErr)
		}
		slog.Info("Report saved", "path", cfg.ReportPath)
	}

	return rep, err
}

func runStages(ctx context.Context, cfg *config.Config, rep *report.Report) error {
	if cfg.SourceImages {
		if err := sourceImages(ctx, cfg, rep); err != nil {
			return err
		}
	}

	if cfg.GenerateMontage {
		if err := generateMontage(ctx, cfg, rep); err != nil {
			return err
		}
	}

	return nil
}

func httpClient(cfg *config.Config) *http.Client {
	return &http.Client{Timeout: cfg.Fetch.HTTPTimeout}
}

func sourceImages(ctx context.Context, cfg *config.Config, rep *report.Report) error {
	client := catalog.NewClient(cfg.CatalogAPIURL,
		catalog.WithHTTPClient(httpClient(cfg)),
		catalog.WithRateLimit(cfg.Fetch.RateLimit),
		catalog.WithUserAgent(UserAgent),
	)

	slog.Info("Fetching card list", "set", cfg.SetCode, "catalog", client.BaseURL)
	set, err := client.FetchCardsBySet(ctx, cfg.SetCode)
	if err != nil {
		return fmt.Errorf("failed to fetch card list: %w", err)
	}

	downloader := images.NewDownloader(
		images.WithHTTPClient(httpClient(cfg)),
		images.WithUserAgent(UserAgent),
		images.WithRateLimit(cfg.Fetch.DownloadRate),
		images.WithSkipExisting(cfg.Fetch.SkipExisting),
		images.WithWorkers(cfg.Fetch.Workers),
	)

	summary, err := downloader.DownloadAllBySet(ctx, set.Groups, cfg.SetDir())
	rep.AddFetch(set, summary)
	if err != nil {
		return fmt.Errorf("failed to download card images: %w", err)
	}
	slog.Info("Downloaded card images", "set", cfg.SetCode,
		"downloaded", summary.Downloaded, "existing", summary.Existing,
		"skipped", summary.Skipped, "failed", summary.Failed)

	if cfg.Fetch.WriteManifest && len(summary.Entries) > 0 {
		path := filepath.Join(cfg.SetDir(), manifest.FileName)
		if err := manifest.Write(path, manifest.FromSummary(summary)); err != nil {
			return err
		}
		rep.Fetch.Manifest = path
		slog.Info("Manifest written", "path", path, "rows", len(summary.Entries))
	}

	return nil
}

func builderOptions(cfg *config.Config) (montage.Options, error) {
	suffix, err := montage.ParseSuffixPosition(cfg.Montage.SuffixPosition)
	if err != nil {
		return montage.Options{}, err
	}
	opts := montage.DefaultOptions()
	opts.Grid = montage.Grid{Rows: cfg.Montage.Rows, Cols: cfg.Montage.Columns}
	opts.ReserveBlankCell = cfg.Montage.ReserveBlankCell
	opts.Suffix = suffix
	opts.Quality = cfg.Montage.JPEGQuality
	opts.Workers = cfg.Montage.Workers
	return opts, nil
}

func generateMontage(ctx context.Context, cfg *config.Config, rep *report.Report) error {
	opts, err := builderOptions(cfg)
	if err != nil {
		return err
	}
	builder := montage.NewBuilder(opts)
	rep.StartMontage(builder.Options())

	if cfg.SingleCollection() {
		slog.Info("Building montage", "input", cfg.MontageInputDir, "output", cfg.MontageOutputDir, "grid", opts.Grid)
		collection, result, err := builder.BuildFolder(cfg.MontageInputDir, cfg.MontageOutputDir, cfg.SetCode)
		if collection != nil {
			rep.AddGroup(cfg.SetCode, len(collection.Images), collection.Unreadable, result)
		}
		if err != nil {
			return fmt.Errorf("failed to build montage: %w", err)
		}
		logResult(cfg.SetCode, result)
		return nil
	}

	root := cfg.SetDir()
	slog.Info("Building montages per rarity", "root", root, "grid", opts.Grid)
	groups, err := builder.BuildGrouped(ctx, root, cfg.SetCode)
	for _, g := range groups {
		if g.Result == nil {
			continue
		}
		rep.AddGroup(g.Group, g.Images, g.Unreadable, g.Result)
		logResult(g.Group, g.Result)
	}
	if err != nil {
		return fmt.Errorf("failed to build montages: %w", err)
	}
	return nil
}

func logResult(name string, result *montage.Result) {
	if result == nil {
		return
	}
	slog.Info("Montage complete", "name", name, "planned", result.Planned, "written", len(result.Sheets))
	for _, err := range result.Errors {
		slog.Warn("Montage sheet skipped", "name", name, "error", err)
	}
}
