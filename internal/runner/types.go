package runner

import (
	"log/slog"

	"squeeze/internal/pipeline"
	"squeeze/internal/sink"
)

type Options struct {
	// Pipeline is applied to every file. Its Progress field is ignored;
	// each file gets its own channel.
	Pipeline pipeline.Options
	// Workers defaults to runtime.NumCPU().
	Workers int
	// Sink receives every result. Nil runs without writing anything.
	Sink sink.Sink
	// OutputDir is skipped while walking when it sits inside the root.
	OutputDir string
	Logger    *slog.Logger
}

type Job struct {
	Path    string
	RelPath string
	Display string
}

// Report describes what happened to one supported file.
type Report struct {
	Display      string
	Dest         string
	MIME         string
	Provenance   pipeline.Provenance
	Skipped      bool
	OriginalSize int64
	Size         int64
	Err          error
}

// Saved returns the bytes removed from this file.
func (r Report) Saved() int64 {
	if r.Err != nil {
		return 0
	}
	return r.OriginalSize - r.Size
}

type Summary struct {
	Total      int
	Processed  int
	Optimized  int
	Skipped    int
	Errors     int
	BytesSaved int64
}

// Update is sent on the caller's channel. Counters are deltas; File and
// Percent carry per-file pipeline progress.
type Update struct {
	File    string
	Percent int

	TotalDelta      int
	ProcessedDelta  int
	OptimizedDelta  int
	SkippedDelta    int
	ErrorDelta      int
	BytesSavedDelta int64
}
