// Package codec owns image decoding and the encoder registry the pipeline
// queries for capability checks.
//
// A Registry maps MIME types to Codec implementations. Default wires the
// JPEG and PNG encoders from the standard library and, when the binary is
// built with cgo, the libwebp-backed WebP encoder. Callers that need a
// different capability surface (tests, restricted runtimes) build their own
// Registry and register only what they support.
package codec

import (
	"errors"
	"image"
	"io"
	"sync"

	"squeeze/pkg/imgutil"
)

var (
	// ErrUnsupportedFormat is returned when no codec is registered for a MIME type.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrEmptyEncode is returned when an encoder finished without writing bytes.
	ErrEmptyEncode = errors.New("encoder produced no output")
)

// Codec encodes rasters into a single container format. Quality is in
// (0,1]; lossless codecs ignore it.
type Codec interface {
	MIME() string
	Encode(w io.Writer, img image.Image, quality float64) error
}

// Registry is a set of encoders keyed by MIME type.
type Registry struct {
	mu     sync.RWMutex
	codecs map[string]Codec
}

// NewRegistry returns a registry holding the given codecs.
func NewRegistry(codecs ...Codec) *Registry {
	r := &Registry{codecs: make(map[string]Codec, len(codecs))}
	for _, c := range codecs {
		r.Register(c)
	}
	return r
}

// Default returns the registry for the current build.
func Default() *Registry {
	r := NewRegistry(JPEG{}, PNG{})
	if c, ok := webpCodec(); ok {
		r.Register(c)
	}
	return r
}

// Register adds or replaces the codec for c.MIME().
func (r *Registry) Register(c Codec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[c.MIME()] = c
}

// Lookup returns the codec registered for mime.
func (r *Registry) Lookup(mime string) (Codec, bool) {
	if r == nil {
		return nil, false
	}
	kind := imgutil.KindFromMIME(mime)
	if kind != imgutil.KindUnknown {
		mime = kind.MIME()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.codecs[mime]
	return c, ok
}

// CanEncode reports whether an encoder for mime is available.
func (r *Registry) CanEncode(mime string) bool {
	_, ok := r.Lookup(mime)
	return ok
}
