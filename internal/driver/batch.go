package driver

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"docprofile/internal/observ"
	"docprofile/internal/progress"
	"docprofile/internal/source"
	"docprofile/internal/trace"
)

// BatchOptions configures ValidateFiles. Options.File and Options.Timer are
// set per document.
type BatchOptions struct {
	Options
	Jobs         int
	Cache        *ReportCache
	ConfigDigest Digest
	BaseDir      string // display paths are relative to it
	PathMode     source.PathMode
}

// FileResult is the outcome for one file of a batch.
type FileResult struct {
	Path    string // as given
	Display string // as shown in reports
	Result  *Result
	Cached  bool
	ReadErr error
}

// Failed reports whether the file could not be read or has errors.
func (r FileResult) Failed() bool { return r.ReadErr != nil || r.Result.Failed() }

// ListDocuments returns the sorted *.xml files below dir.
func ListDocuments(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".xml") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// ValidateFiles validates files in parallel. Every document gets its own
// collector. Unreadable files are reported in their FileResult; only
// cancellation fails the batch.
func ValidateFiles(ctx context.Context, files []string, opts BatchOptions) ([]FileResult, error) {
	results := make([]FileResult, len(files))
	if len(files) == 0 {
		return results, nil
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	ctx, span := trace.Start(ctx, trace.ScopeRun, "batch")
	defer span.WithExtra("files", fmt.Sprint(len(files))).End("")

	display := make([]string, len(files))
	for i, path := range files {
		display[i] = source.DisplayPath(path, opts.PathMode, opts.BaseDir)
	}
	progress.EmitQueued(opts.Progress, display)

	timers := make([]*observ.Timer, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			// index i is owned by this goroutine
			results[i] = FileResult{Path: path, Display: display[i]}

			raw, err := os.ReadFile(path)
			if err != nil {
				results[i].ReadErr = fmt.Errorf("failed to read %s: %w", display[i], err)
				progress.Emit(opts.Progress, progress.Event{File: display[i], Stage: progress.StageLoad, Status: progress.StatusError, Err: err})
				return nil
			}

			var key Digest
			if opts.Cache != nil {
				key = CacheKey(raw, opts.ConfigDigest)
				cached, hit, err := opts.Cache.Get(key)
				if err != nil {
					trace.Error(trace.FromContext(gctx), "cache", err, trace.CurrentSpan(gctx))
				}
				if hit {
					trace.Point(trace.FromContext(gctx), trace.ScopeDocument, "cache-hit", display[i], trace.CurrentSpan(gctx))
					res := cached.Result(display[i])
					results[i].Result = res
					results[i].Cached = true
					errs, warns := reportTotals(res.Report)
					progress.Emit(opts.Progress, progress.Event{
						File:     display[i],
						Stage:    progress.StageReport,
						Status:   progress.StatusCached,
						Errors:   errs,
						Warnings: warns,
					})
					return nil
				}
			}

			docOpts := opts.Options
			docOpts.File = display[i]
			if opts.Timer != nil {
				timers[i] = observ.NewTimer()
				docOpts.Timer = timers[i]
			}
			res := Validate(gctx, raw, docOpts)
			results[i].Result = res

			if opts.Cache != nil {
				if err := opts.Cache.Put(key, newCachedReport(res)); err != nil {
					trace.Error(trace.FromContext(gctx), "cache", err, trace.CurrentSpan(gctx))
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	for _, t := range timers {
		opts.Timer.Merge(t)
	}
	return results, nil
}
