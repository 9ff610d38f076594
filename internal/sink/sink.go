// Package sink stores optimized images once the pipeline hands them over.
package sink

import (
	"context"

	"squeeze/internal/pipeline"
)

// Source identifies the input a result was produced from.
type Source struct {
	// Path is the absolute path of the input file.
	Path string
	// RelPath is Path relative to the walked root.
	RelPath string
}

// Sink persists one result and returns where it went.
type Sink interface {
	Put(ctx context.Context, src Source, res *pipeline.Result) (string, error)
}
