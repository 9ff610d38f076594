package codec

import (
	"image"
	"image/jpeg"
	"io"
	"math"

	"squeeze/pkg/imgutil"
)

// JPEG is the baseline lossy raster codec. Transparent input is flattened
// onto white because the container has no alpha channel.
type JPEG struct{}

func (JPEG) MIME() string { return imgutil.MIMEJPEG }

func (JPEG) Encode(w io.Writer, img image.Image, quality float64) error {
	if !IsOpaque(img) {
		img = Flatten(img)
	}
	return jpeg.Encode(w, img, &jpeg.Options{Quality: JPEGQuality(quality)})
}

// JPEGQuality maps a (0,1] quality onto libjpeg's 1..100 scale.
func JPEGQuality(quality float64) int {
	q := int(math.Round(quality * 100))
	if q < 1 {
		return 1
	}
	if q > 100 {
		return 100
	}
	return q
}
