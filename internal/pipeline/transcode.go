package pipeline

import (
	"errors"
	"fmt"

	"squeeze/internal/codec"
	"squeeze/pkg/imgutil"
)

// FormatNegotiator transcodes the current best candidate into Target,
// falling back to a baseline JPEG encode when the target encoder yields
// nothing.
type FormatNegotiator struct {
	Codecs *codec.Registry
	Target string
}

// NewFormatNegotiator targets WebP.
func NewFormatNegotiator(codecs *codec.Registry) FormatNegotiator {
	return FormatNegotiator{Codecs: codecs, Target: imgutil.MIMEWebP}
}

// ShouldAttempt reports whether the transcode stage runs. canEncode is the
// capability probe result for Target.
func (n FormatNegotiator) ShouldAttempt(enabled, canEncode bool, best Candidate) bool {
	if !enabled || !canEncode {
		return false
	}
	return imgutil.KindFromMIME(best.MIME) != imgutil.KindFromMIME(n.Target)
}

// Transcode decodes best, draws it on an opaque white canvas and encodes
// the canvas. The original still carries its EXIF block, which encoding
// drops, so it is rotated upright by orientation first; compressed
// candidates are already upright. drawn is called once the canvas is ready.
func (n FormatNegotiator) Transcode(best Candidate, orientation int, quality float64, drawn func()) (Candidate, error) {
	img, _, err := codec.Decode(best.Data)
	if err != nil {
		return Candidate{}, err
	}
	if best.Provenance == ProvenanceOriginal {
		img = applyOrientation(img, orientation)
	}
	canvas := codec.Flatten(img)
	if drawn != nil {
		drawn()
	}

	target, ok := n.Codecs.Lookup(n.Target)
	if !ok {
		return Candidate{}, fmt.Errorf("%w: %s", codec.ErrUnsupportedFormat, n.Target)
	}

	data, targetErr := encode(target, canvas, quality)
	if targetErr == nil && len(data) > 0 {
		return Candidate{Data: data, MIME: target.MIME(), Provenance: ProvenanceTranscoded}, nil
	}
	if targetErr == nil {
		targetErr = codec.ErrEmptyEncode
	}

	fallback, ok := n.Codecs.Lookup(imgutil.MIMEJPEG)
	if !ok {
		return Candidate{}, fmt.Errorf("encode %s: %w", target.MIME(), targetErr)
	}
	data, err = encode(fallback, canvas, quality)
	if err == nil && len(data) == 0 {
		err = codec.ErrEmptyEncode
	}
	if err != nil {
		return Candidate{}, errors.Join(
			fmt.Errorf("encode %s: %w", target.MIME(), targetErr),
			fmt.Errorf("encode %s: %w", fallback.MIME(), err),
		)
	}
	return Candidate{Data: data, MIME: fallback.MIME(), Provenance: ProvenanceTranscoded}, nil
}
