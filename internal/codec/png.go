package codec

import (
	"image"
	"image/png"
	"io"

	"github.com/disintegration/imaging"

	"squeeze/pkg/imgutil"
)

// PNG re-encodes losslessly at best compression, reducing to a palette or
// grayscale when the pixels allow it.
type PNG struct{}

func (PNG) MIME() string { return imgutil.MIMEPNG }

func (PNG) Encode(w io.Writer, img image.Image, _ float64) error {
	encoder := png.Encoder{CompressionLevel: png.BestCompression}
	src := imaging.Clone(img)

	if isGrayscale(src) {
		return encoder.Encode(w, toGray(src))
	}
	if paletted := tryPalettize(src, 256); paletted != nil {
		return encoder.Encode(w, paletted)
	}
	return encoder.Encode(w, src)
}
