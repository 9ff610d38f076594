package pipeline

import (
	"bytes"
	"fmt"
	"image"
	"sync"

	"squeeze/internal/codec"
	"squeeze/pkg/imgutil"
)

// SourceImage is the immutable uploaded image for one invocation.
type SourceImage struct {
	name         string
	declaredMIME string
	kind         imgutil.Kind
	data         []byte

	dimsOnce sync.Once
	dims     image.Point
	dimsErr  error
}

// NewSourceImage sniffs data and rejects anything that is not a supported
// image. The buffer is copied; the sniffed type wins over declaredMIME.
func NewSourceImage(name string, data []byte, declaredMIME string) (*SourceImage, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s: empty input", ErrInvalidImage, name)
	}

	kind, err := imgutil.SniffBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidImage, name, err)
	}
	if kind == imgutil.KindUnknown {
		return nil, fmt.Errorf("%w: %s: unrecognized format", ErrInvalidImage, name)
	}

	return &SourceImage{
		name:         name,
		declaredMIME: declaredMIME,
		kind:         kind,
		data:         bytes.Clone(data),
	}, nil
}

// Name returns the display name given at construction.
func (s *SourceImage) Name() string { return s.name }

// Kind returns the sniffed image kind.
func (s *SourceImage) Kind() imgutil.Kind { return s.kind }

// MIME returns the sniffed MIME type, which wins over the declared one.
func (s *SourceImage) MIME() string { return s.kind.MIME() }

// DeclaredMIME returns the caller-supplied MIME type, kept for diagnostics.
func (s *SourceImage) DeclaredMIME() string { return s.declaredMIME }

// Size returns the byte length of the source buffer.
func (s *SourceImage) Size() int64 { return int64(len(s.data)) }

// Bytes returns the source buffer. Callers must not modify it.
func (s *SourceImage) Bytes() []byte { return s.data }

// Dimensions probes the pixel size from the header on first use.
func (s *SourceImage) Dimensions() (image.Point, error) {
	s.dimsOnce.Do(func() {
		cfg, _, err := codec.DecodeConfig(s.data)
		if err != nil {
			s.dimsErr = err
			return
		}
		s.dims = image.Pt(cfg.Width, cfg.Height)
	})
	return s.dims, s.dimsErr
}

func (s *SourceImage) original() Candidate {
	return Candidate{Data: s.data, MIME: s.MIME(), Provenance: ProvenanceOriginal}
}

// Orientation returns the EXIF orientation (1-8). Formats that do not carry
// EXIF report 1.
func (s *SourceImage) Orientation() int {
	switch s.kind {
	case imgutil.KindJPEG, imgutil.KindTIFF:
		return readOrientation(s.data)
	default:
		return orientNormal
	}
}
