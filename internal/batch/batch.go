// Package batch computes reports for many CSV exports concurrently.
package batch

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/matsen/bix/internal/normalize"
	"github.com/matsen/bix/internal/report"
)

// DefaultConcurrency bounds the number of files processed at once.
const DefaultConcurrency = 4

// Result is the outcome for one input file. Exactly one of Report and
// Error is set.
type Result struct {
	Path    string                 `json:"path"`
	Name    string                 `json:"name"`
	Report  *report.Report         `json:"report,omitempty"`
	Dropped []normalize.DroppedRow `json:"dropped,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// Options configures a batch run.
type Options struct {
	CurrentYear int
	Concurrency int
	Logger      *slog.Logger
}

// Run normalizes and reports every path. Results keep the order of paths.
// Files not started before ctx is done are reported with the context error.
func Run(ctx context.Context, paths []string, opts Options) []Result {
	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	results := make([]Result, len(paths))
	var wg sync.WaitGroup
	sem := make(chan struct{}, limit)

	for i, path := range paths {
		wg.Add(1)
		go func(idx int, p string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[idx] = Result{Path: p, Name: name(p), Error: ctx.Err().Error()}
				return
			}
			defer func() { <-sem }()
			results[idx] = processFile(ctx, p, opts.CurrentYear, logger)
		}(i, path)
	}

	wg.Wait()
	return results
}

func processFile(ctx context.Context, path string, currentYear int, logger *slog.Logger) Result {
	res := Result{Path: path, Name: name(path)}
	if err := ctx.Err(); err != nil {
		res.Error = err.Error()
		return res
	}

	parsed, err := normalize.ParseFile(path)
	if err != nil {
		logger.Warn("skipping file", "path", path, "err", err)
		res.Error = err.Error()
		return res
	}

	r := report.Assemble(parsed.Dataset, currentYear)
	res.Report = &r
	res.Dropped = parsed.Dropped
	logger.Info("computed report", "path", path, "publications", r.Publications, "h_index", r.HIndex, "dropped", len(parsed.Dropped))
	return res
}

// name derives a display name from a file path.
func name(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}
