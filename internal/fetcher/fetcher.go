package fetcher

import (
	"context"
	"io"
	"time"

	"assetfetch/pkg/catalog"
	errs "assetfetch/pkg/errors"
	"assetfetch/pkg/logger"
	"assetfetch/pkg/storage"
)

const (
	DefaultPrimaryFormat  = "jpg"
	DefaultFallbackFormat = "gif"
	DefaultExtension      = "gif"
)

// AssetSource retrieves raw asset bodies
type AssetSource interface {
	AssetURL(remoteID, ext string) string
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

// AssetSink persists asset bodies under a local id
type AssetSink interface {
	AssetPath(localID string) string
	SaveAsset(r io.Reader, localID string) (int64, error)
}

// Reporter is notified around every entry
type Reporter interface {
	Start(entry catalog.Entry)
	Done(outcome Outcome)
}

// Attempt is a single retrieval try for one format
type Attempt struct {
	Format string
	URL    string
	Err    error
}

// Outcome is the result of processing one table entry
type Outcome struct {
	Entry     catalog.Entry
	Succeeded bool
	// Format is the format that was written, empty on failure
	Format   string
	Path     string
	Bytes    int64
	Attempts []Attempt
	Duration time.Duration
}

// Summary holds the counters of one run.
// Succeeded + Failed always equals len(Outcomes).
type Summary struct {
	Succeeded int
	Failed    int
	Outcomes  []Outcome
}

// Total returns the number of processed entries
func (s Summary) Total() int {
	return s.Succeeded + s.Failed
}

// FailedEntries returns the entries for which every attempt failed
func (s Summary) FailedEntries() []catalog.Entry {
	var failed []catalog.Entry
	for _, o := range s.Outcomes {
		if !o.Succeeded {
			failed = append(failed, o.Entry)
		}
	}
	return failed
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithFormats sets the preferred and fallback formats
func WithFormats(primary, fallback string) Option {
	return func(f *Fetcher) {
		f.formats = []string{primary, fallback}
	}
}

// WithReporter attaches a progress reporter
func WithReporter(r Reporter) Option {
	return func(f *Fetcher) {
		f.reporter = r
	}
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(f *Fetcher) {
		f.logger = l
	}
}

// Fetcher walks a table and downloads one asset per entry, falling back to a
// second format when the first one cannot be retrieved or written
type Fetcher struct {
	source   AssetSource
	sink     AssetSink
	formats  []string
	reporter Reporter
	logger   logger.Logger
}

// New creates a Fetcher
func New(source AssetSource, sink AssetSink, opts ...Option) *Fetcher {
	f := &Fetcher{
		source:  source,
		sink:    sink,
		formats: []string{DefaultPrimaryFormat, DefaultFallbackFormat},
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = logger.GetLogger()
	}
	return f
}

// FetchAll processes every entry of table in order. It never fails: every
// entry ends up counted as either succeeded or failed.
func (f *Fetcher) FetchAll(ctx context.Context, table *catalog.Table) Summary {
	entries := table.Entries()
	summary := Summary{
		Outcomes: make([]Outcome, 0, len(entries)),
	}

	logger.LogComponentStart(f.logger, "fetcher", map[string]interface{}{
		"entries": len(entries),
		"formats": f.formats,
	})

	for _, entry := range entries {
		if f.reporter != nil {
			f.reporter.Start(entry)
		}

		outcome := f.fetchEntry(ctx, entry)
		if outcome.Succeeded {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
		summary.Outcomes = append(summary.Outcomes, outcome)

		if f.reporter != nil {
			f.reporter.Done(outcome)
		}
	}

	return summary
}

// fetchEntry tries each format in turn and stops at the first success
func (f *Fetcher) fetchEntry(ctx context.Context, entry catalog.Entry) Outcome {
	start := time.Now()
	outcome := Outcome{
		Entry: entry,
		Path:  f.sink.AssetPath(entry.LocalID),
	}

	log := f.logger.WithFields(map[string]interface{}{
		"local_id":  entry.LocalID,
		"remote_id": entry.RemoteID,
	})

	for _, format := range f.formats {
		attempt, written := f.attempt(ctx, entry, format)
		outcome.Attempts = append(outcome.Attempts, attempt)

		if attempt.Err == nil {
			outcome.Succeeded = true
			outcome.Format = format
			outcome.Bytes = written
			break
		}

		errType := errs.TypeOf(attempt.Err)
		log.DebugWithFields("attempt failed", map[string]interface{}{
			"format":     format,
			"url":        attempt.URL,
			"error":      attempt.Err.Error(),
			"error_type": string(errType),
			"transient":  errs.IsTransient(errType),
		})
	}

	outcome.Duration = time.Since(start)

	if outcome.Succeeded {
		log.DebugWithFields("asset saved", map[string]interface{}{
			"format":   outcome.Format,
			"path":     outcome.Path,
			"size":     outcome.Bytes,
			"duration": outcome.Duration,
		})
	} else {
		log.InfoWithFields("asset unavailable", map[string]interface{}{
			"attempts": len(outcome.Attempts),
			"duration": outcome.Duration,
		})
	}

	return outcome
}

// attempt performs one GET and, on success, streams the body to the sink
func (f *Fetcher) attempt(ctx context.Context, entry catalog.Entry, format string) (Attempt, int64) {
	a := Attempt{
		Format: format,
		URL:    f.source.AssetURL(entry.RemoteID, format),
	}

	if err := ctx.Err(); err != nil {
		a.Err = err
		return a, 0
	}

	body, err := f.source.Fetch(ctx, a.URL)
	if err != nil {
		a.Err = err
		return a, 0
	}
	defer body.Close()

	written, err := f.sink.SaveAsset(body, entry.LocalID)
	if err != nil {
		a.Err = err
		return a, 0
	}

	return a, written
}

// FetchAll downloads every entry of table into dir, naming files
// <local_id>.gif. The directory and its parents are created if needed; that
// is the only error returned.
func FetchAll(ctx context.Context, source AssetSource, table *catalog.Table, dir string, opts ...Option) (Summary, error) {
	sink, err := storage.NewManager(dir, DefaultExtension)
	if err != nil {
		return Summary{}, err
	}
	return New(source, sink, opts...).FetchAll(ctx, table), nil
}
