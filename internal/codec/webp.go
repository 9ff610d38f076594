//go:build cgo

package codec

import (
	"image"
	"io"

	"github.com/chai2010/webp"

	"squeeze/pkg/imgutil"
)

// WebP encodes lossy WebP through libwebp.
type WebP struct{}

func (WebP) MIME() string { return imgutil.MIMEWebP }

func (WebP) Encode(w io.Writer, img image.Image, quality float64) error {
	return webp.Encode(w, img, &webp.Options{Quality: float32(quality * 100)})
}

func webpCodec() (Codec, bool) {
	return WebP{}, true
}
