//go:build cgo

package pipeline

import (
	"bytes"
	"image"
	"math/rand"
	"slices"
	"testing"

	"squeeze/internal/codec"
	"squeeze/pkg/imgutil"
)

func noiseWebP(t *testing.T, w, h int) []byte {
	t.Helper()

	rng := rand.New(rand.NewSource(11))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}

	var buf bytes.Buffer
	if err := (codec.WebP{}).Encode(&buf, img, 0.95); err != nil {
		t.Fatalf("webp: %v", err)
	}
	return buf.Bytes()
}

func TestOptimizeWebPSourceWithWebPDisabled(t *testing.T) {
	data := noiseWebP(t, 400, 400)
	if int64(len(data)) <= SkipThreshold {
		t.Fatalf("fixture below skip threshold: %d", len(data))
	}

	src := mustSource(t, "noise.webp", data)
	c := NewRasterCompressor(codec.Default())
	got, err := c.Compress(src, CompressOptions{MaxWidthOrHeight: 1920, MaxSizeBytes: 1 << 20, Quality: 0.8}, nil)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if got.MIME != imgutil.MIMEJPEG {
		t.Fatalf("compressor mime = %s, want jpeg", got.MIME)
	}

	opts := DefaultOptions()
	opts.UseWebP = false
	res, progress := run(t, New(), "noise.webp", data, opts)
	if res.Provenance != ProvenanceOriginal && res.MIME == imgutil.MIMEWebP {
		t.Fatalf("produced a webp candidate with webp disabled")
	}
	if !slices.Contains(res.Trace, StateTranscodeSkipped) {
		t.Fatalf("trace = %v", res.Trace)
	}
	checkProgress(t, progress)
}
