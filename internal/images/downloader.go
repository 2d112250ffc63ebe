package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/lehigh-university-libraries/ttsmontage/internal/models"
	"github.com/lehigh-university-libraries/ttsmontage/internal/slug"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Downloader retrieves card images and stores them on disk
type Downloader struct {
	httpClient   *http.Client
	limiter      *rate.Limiter
	userAgent    string
	skipExisting bool
	workers      int
}

// Option configures a Downloader
type Option func(*Downloader)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(d *Downloader) { d.httpClient = hc }
}

// WithRateLimit paces downloads to perSecond; zero or less disables pacing
func WithRateLimit(perSecond float64) Option {
	return func(d *Downloader) {
		if perSecond <= 0 {
			d.limiter = nil
			return
		}
		d.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithUserAgent sets the User-Agent header sent with every request
func WithUserAgent(ua string) Option {
	return func(d *Downloader) { d.userAgent = ua }
}

// WithSkipExisting leaves images that are already on disk untouched
func WithSkipExisting(skip bool) Option {
	return func(d *Downloader) { d.skipExisting = skip }
}

// WithWorkers sets how many images download at once
func WithWorkers(n int) Option {
	return func(d *Downloader) { d.workers = max(n, 1) }
}

// NewDownloader creates a new image downloader
func NewDownloader(opts ...Option) *Downloader {
	d := &Downloader{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		userAgent: "ttsmontage",
		workers:   1,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Result describes what happened to one image download
type Result struct {
	Outcome  models.Outcome
	Status   int
	Bytes    int64
	Existing bool
	Err      error
}

// DownloadCardImage streams imageURL to dest, creating missing parent
// directories. A non-success status or a transport failure is reported in
// the Result and leaves nothing on disk. The returned error is reserved for
// filesystem failures and cancellation.
func (d *Downloader) DownloadCardImage(ctx context.Context, imageURL, dest string) (Result, error) {
	if d.skipExisting {
		if info, err := os.Stat(dest); err == nil && info.Mode().IsRegular() {
			return Result{Outcome: models.OutcomeExisting, Existing: true}, nil
		}
	}

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return Result{Outcome: models.OutcomeFailed, Err: err}, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return Result{Outcome: models.OutcomeFailed, Err: fmt.Errorf("failed to create request: %w", err)}, nil
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{Outcome: models.OutcomeFailed, Err: ctxErr}, ctxErr
		}
		return Result{Outcome: models.OutcomeFailed, Err: fmt.Errorf("failed to fetch image: %w", err)}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{Outcome: models.OutcomeSkipped, Status: resp.StatusCode}, nil
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Result{Outcome: models.OutcomeFailed, Status: resp.StatusCode, Err: err}, fmt.Errorf("failed to create image directory: %w", err)
	}

	out, err := os.CreateTemp(dir, filepath.Base(dest)+".*.tmp")
	if err != nil {
		return Result{Outcome: models.OutcomeFailed, Status: resp.StatusCode, Err: err}, fmt.Errorf("failed to create file: %w", err)
	}
	tempPath := out.Name()

	body := &readRecorder{r: resp.Body}
	n, copyErr := io.Copy(out, body)
	closeErr := out.Close()

	if copyErr != nil || closeErr != nil {
		os.Remove(tempPath)
		switch {
		case ctx.Err() != nil:
			return Result{Outcome: models.OutcomeFailed, Err: ctx.Err()}, ctx.Err()
		case body.err != nil:
			return Result{Outcome: models.OutcomeFailed, Status: resp.StatusCode, Err: fmt.Errorf("failed to read image data: %w", body.err)}, nil
		default:
			err := errors.Join(copyErr, closeErr)
			return Result{Outcome: models.OutcomeFailed, Status: resp.StatusCode, Err: err}, fmt.Errorf("failed to write image file: %w", err)
		}
	}

	if err := os.Rename(tempPath, dest); err != nil {
		os.Remove(tempPath)
		return Result{Outcome: models.OutcomeFailed, Status: resp.StatusCode, Err: err}, fmt.Errorf("failed to move file: %w", err)
	}

	return Result{Outcome: models.OutcomeSuccess, Status: resp.StatusCode, Bytes: n}, nil
}

// readRecorder remembers the last read error so transport failures can be
// told apart from write failures after io.Copy
type readRecorder struct {
	r   io.Reader
	err error
}

func (rr *readRecorder) Read(p []byte) (int, error) {
	n, err := rr.r.Read(p)
	if err != nil && err != io.EOF {
		rr.err = err
	}
	return n, err
}

// Entry is one card of a batch download
type Entry struct {
	Record models.CardRecord
	Path   string
	Result Result
}

// Summary aggregates a batch download
type Summary struct {
	Downloaded int
	Existing   int
	Skipped    int
	Failed     int
	Entries    []Entry
}

// Missing counts cards the remote could not supply. Images kept from an
// earlier run are not missing.
func (s *Summary) Missing() int {
	return s.Skipped + s.Failed
}

// CardPath returns outputRoot/group/<slug>.jpg for record
func CardPath(outputRoot, group string, record models.CardRecord) string {
	name := slug.Make(record.Name)
	if name == "" {
		name = "card"
	}
	return filepath.Join(outputRoot, group, name+".jpg")
}

// DownloadAllBySet downloads every record of every group into
// outputRoot/<group>/<slug>.jpg. Groups are processed in name order and
// records in input order. Per-card misses are counted, filesystem errors
// stop the batch.
func (d *Downloader) DownloadAllBySet(ctx context.Context, groups map[string][]models.CardRecord, outputRoot string) (*Summary, error) {
	summary := &Summary{}
	for _, group := range slices.Sorted(maps.Keys(groups)) {
		for _, record := range groups[group] {
			summary.Entries = append(summary.Entries, Entry{
				Record: record,
				Path:   CardPath(outputRoot, group, record),
			})
		}
	}

	// Cards sharing a path run in one task so each file has a single writer;
	// the last record in input order wins, as with sequential downloads.
	var paths []string
	byPath := make(map[string][]int)
	for i, e := range summary.Entries {
		if _, ok := byPath[e.Path]; !ok {
			paths = append(paths, e.Path)
		}
		byPath[e.Path] = append(byPath[e.Path], i)
	}

	slog.Info("Downloading card images", "cards", len(summary.Entries), "files", len(paths), "workers", d.workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for _, path := range paths {
		indexes := byPath[path]
		g.Go(func() error {
			for _, i := range indexes {
				e := &summary.Entries[i]
				res, err := d.DownloadCardImage(gctx, e.Record.ImageURL, e.Path)
				e.Result = res
				if err != nil {
					return fmt.Errorf("download %q: %w", e.Record.Name, err)
				}
				logResult(e)
			}
			return nil
		})
	}
	err := g.Wait()

	for _, e := range summary.Entries {
		switch e.Result.Outcome {
		case models.OutcomeSuccess:
			summary.Downloaded++
		case models.OutcomeExisting:
			summary.Existing++
		case models.OutcomeSkipped:
			summary.Skipped++
		case models.OutcomeFailed:
			summary.Failed++
		}
	}

	return summary, err
}

func logResult(e *Entry) {
	switch e.Result.Outcome {
	case models.OutcomeSuccess:
		slog.Debug("Downloaded card image", "name", e.Record.Name, "path", e.Path, "bytes", e.Result.Bytes)
	case models.OutcomeExisting:
		slog.Debug("Card image already exists, skipping", "name", e.Record.Name, "path", e.Path)
	case models.OutcomeSkipped:
		slog.Warn("Card image not available", "name", e.Record.Name, "url", e.Record.ImageURL, "status", e.Result.Status)
	default:
		slog.Warn("Failed to download card image", "name", e.Record.Name, "url", e.Record.ImageURL, "error", e.Result.Err)
	}
}
