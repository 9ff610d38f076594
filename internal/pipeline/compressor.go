package pipeline

import (
	"bytes"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"squeeze/internal/codec"
	"squeeze/pkg/imgutil"
)

// CompressOptions is the slice of Options the compressor consumes.
type CompressOptions struct {
	MaxWidthOrHeight int
	MaxSizeBytes     int64
	Quality          float64
	// UseWebP allows WebP output. When false, WebP input is re-encoded
	// as PNG if it has transparency and as JPEG otherwise.
	UseWebP bool
}

// Compressor performs bounded lossy recompression plus dimension capping.
// progress receives internal values in 0-100 and must only be called
// before Compress returns.
type Compressor interface {
	Compress(src *SourceImage, opts CompressOptions, progress func(int)) (Candidate, error)
}

const (
	defaultMaxIterations = 10
	qualityStep          = 0.9
	dimensionStep        = 0.9
	minQuality           = 0.05
)

// RasterCompressor decodes, orients, caps and re-encodes, stepping quality
// and dimensions down while the encode is above the size budget.
type RasterCompressor struct {
	Codecs        *codec.Registry
	MaxIterations int
}

// NewRasterCompressor returns a compressor that encodes with codecs.
func NewRasterCompressor(codecs *codec.Registry) *RasterCompressor {
	return &RasterCompressor{Codecs: codecs, MaxIterations: defaultMaxIterations}
}

func (c *RasterCompressor) Compress(src *SourceImage, opts CompressOptions, progress func(int)) (Candidate, error) {
	report := func(p int) {
		if progress != nil {
			progress(p)
		}
	}

	report(0)
	img, _, err := codec.Decode(src.Bytes())
	if err != nil {
		return Candidate{}, err
	}
	report(10)

	img = applyOrientation(img, src.Orientation())
	report(20)

	img = fit(img, opts.MaxWidthOrHeight)
	report(30)

	out, err := c.outputCodec(src.Kind(), opts.UseWebP, img)
	if err != nil {
		return Candidate{}, err
	}

	iterations := c.MaxIterations
	if iterations <= 0 {
		iterations = defaultMaxIterations
	}

	quality := opts.Quality
	var best []byte
	for i := 0; i < iterations; i++ {
		data, err := encode(out, img, quality)
		if err != nil {
			return Candidate{}, fmt.Errorf("encode %s: %w", out.MIME(), err)
		}
		if best == nil || len(data) < len(best) {
			best = data
		}
		report(30 + 70*(i+1)/iterations)

		if opts.MaxSizeBytes <= 0 || int64(len(best)) <= opts.MaxSizeBytes {
			break
		}
		quality = math.Max(quality*qualityStep, minQuality)
		next, ok := shrink(img, dimensionStep)
		if !ok && quality == minQuality {
			break
		}
		img = next
	}
	report(100)

	if len(best) == 0 {
		return Candidate{}, codec.ErrEmptyEncode
	}
	return Candidate{Data: best, MIME: out.MIME(), Provenance: ProvenanceCompressed}, nil
}

// outputCodec keeps the source container where it can be encoded and falls
// back to JPEG otherwise. WebP is only kept when allowed; disallowed WebP
// with transparency goes to PNG.
func (c *RasterCompressor) outputCodec(kind imgutil.Kind, allowWebP bool, img image.Image) (codec.Codec, error) {
	mime := imgutil.MIMEJPEG
	switch kind {
	case imgutil.KindPNG:
		if c.Codecs.CanEncode(imgutil.MIMEPNG) {
			mime = imgutil.MIMEPNG
		}
	case imgutil.KindWebP:
		switch {
		case allowWebP && c.Codecs.CanEncode(imgutil.MIMEWebP):
			mime = imgutil.MIMEWebP
		case !codec.IsOpaque(img) && c.Codecs.CanEncode(imgutil.MIMEPNG):
			mime = imgutil.MIMEPNG
		}
	}
	out, ok := c.Codecs.Lookup(mime)
	if !ok {
		return nil, fmt.Errorf("%w: %s", codec.ErrUnsupportedFormat, mime)
	}
	return out, nil
}

func encode(c codec.Codec, img image.Image, quality float64) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Encode(&buf, img, quality); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fit caps the longest side at limit, preserving aspect ratio.
func fit(img image.Image, limit int) image.Image {
	b := img.Bounds()
	if limit <= 0 || (b.Dx() <= limit && b.Dy() <= limit) {
		return img
	}
	return imaging.Fit(img, limit, limit, imaging.Lanczos)
}

// shrink scales both sides by factor. It reports false when the image is
// already a single pixel and cannot get smaller.
func shrink(img image.Image, factor float64) (image.Image, bool) {
	b := img.Bounds()
	w := int(math.Max(1, math.Round(float64(b.Dx())*factor)))
	h := int(math.Max(1, math.Round(float64(b.Dy())*factor)))
	if w == b.Dx() && h == b.Dy() {
		return img, false
	}
	return imaging.Resize(img, w, h, imaging.Lanczos), true
}
