// Package runner drives the pipeline over a file or directory tree with a
// pool of workers, one pipeline invocation per image.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"

	"squeeze/internal/logging"
	"squeeze/internal/pipeline"
	"squeeze/internal/sink"
	"squeeze/pkg/imgutil"
)

func Run(ctx context.Context, optimizer *pipeline.Optimizer, root string, opts Options, updates chan<- Update) (Summary, []Report, error) {
	summary := Summary{}
	var reports []Report

	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}

	info, err := os.Stat(root)
	if err != nil {
		return summary, nil, err
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return summary, nil, err
	}

	var outputAbs string
	var outputInsideRoot bool
	if opts.OutputDir != "" {
		if absOut, outErr := filepath.Abs(opts.OutputDir); outErr == nil {
			outputAbs = absOut
			absRootClean := filepath.Clean(absRoot)
			outputClean := filepath.Clean(outputAbs)
			if outputClean != absRootClean && isWithin(outputClean, absRootClean) {
				outputInsideRoot = true
			}
		}
	}

	jobs := make(chan Job)
	results := make(chan Report)

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			worker(ctx, optimizer, jobs, results, opts, updates)
		}()
	}

	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for res := range results {
			summary.Total++
			summary.Processed++
			delta := Update{File: res.Display, ProcessedDelta: 1}
			switch {
			case res.Err != nil:
				summary.Errors++
				delta.ErrorDelta = 1
			case res.Skipped:
				summary.Skipped++
				delta.SkippedDelta = 1
			case res.Provenance != pipeline.ProvenanceOriginal:
				summary.Optimized++
				delta.OptimizedDelta = 1
			}
			if saved := res.Saved(); saved != 0 {
				summary.BytesSaved += saved
				delta.BytesSavedDelta = saved
			}
			if updates != nil {
				updates <- delta
			}
			reports = append(reports, res)
		}
	}()

	producerErr := make(chan error, 1)
	go func() {
		defer close(jobs)

		sendJob := func(job Job) error {
			select {
			case jobs <- job:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if !info.IsDir() {
			producerErr <- sendJob(Job{
				Path:    absRoot,
				RelPath: filepath.Base(absRoot),
				Display: filepath.Base(absRoot),
			})
			return
		}

		fsys := os.DirFS(absRoot)
		err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				if outputInsideRoot && isWithin(filepath.Join(absRoot, path), outputAbs) {
					return fs.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}

			return sendJob(Job{
				Path:    filepath.Join(absRoot, path),
				RelPath: filepath.FromSlash(path),
				Display: path,
			})
		})
		producerErr <- err
	}()

	wg.Wait()
	close(results)
	<-collectorDone

	slices.SortFunc(reports, func(a, b Report) int { return strings.Compare(a.Display, b.Display) })

	if err := <-producerErr; err != nil {
		return summary, reports, err
	}
	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return summary, reports, err
	}

	return summary, reports, nil
}

func worker(ctx context.Context, optimizer *pipeline.Optimizer, jobs <-chan Job, results chan<- Report, opts Options, updates chan<- Update) {
	for job := range jobs {
		if err := ctx.Err(); err != nil {
			return
		}

		kind, err := imgutil.SniffFile(job.Path)
		if errors.Is(err, imgutil.ErrShortHeader) || (err == nil && kind == imgutil.KindUnknown) {
			// Not an image we handle; the walk is not limited by extension.
			continue
		}

		if updates != nil {
			updates <- Update{File: job.Display, TotalDelta: 1}
		}
		if err != nil {
			opts.Logger.Warn("read failed", "file", job.Display, "error", err)
			results <- Report{Display: job.Display, Err: err}
			continue
		}
		results <- process(ctx, optimizer, job, opts, updates)
	}
}

func process(ctx context.Context, optimizer *pipeline.Optimizer, job Job, opts Options, updates chan<- Update) Report {
	log := opts.Logger.With("file", job.Display)
	report := Report{Display: job.Display}

	data, err := os.ReadFile(job.Path)
	if err != nil {
		report.Err = err
		return report
	}
	report.OriginalSize = int64(len(data))

	progress := make(chan pipeline.ProgressUpdate, 8)
	forwarded := make(chan struct{})
	go func() {
		defer close(forwarded)
		for u := range progress {
			if updates != nil {
				updates <- Update{File: job.Display, Percent: u.Percent}
			}
		}
	}()

	pipeOpts := opts.Pipeline
	pipeOpts.Progress = progress
	res, err := optimizer.OptimizeBytes(ctx, filepath.Base(job.Path), data, "", pipeOpts)
	close(progress)
	<-forwarded

	if err != nil {
		log.Warn("optimize failed", "error", err)
		report.Err = err
		return report
	}

	report.MIME = res.MIME
	report.Provenance = res.Provenance
	report.Skipped = slices.Contains(res.Trace, pipeline.StateSkip)
	report.Size = res.Size()

	if opts.Sink != nil {
		dest, err := opts.Sink.Put(ctx, sink.Source{Path: job.Path, RelPath: job.RelPath}, res)
		if err != nil {
			log.Warn("store failed", "error", err)
			report.Err = fmt.Errorf("store %s: %w", job.Display, err)
			return report
		}
		report.Dest = dest
	}

	log.Debug("processed",
		slog.String("invocation", res.ID),
		slog.String("provenance", res.Provenance.String()),
		slog.String("mime", res.MIME),
		slog.String("saved", humanize.Bytes(uint64(max(res.Saved(), 0)))),
	)
	return report
}

func isWithin(path string, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
