package pipeline

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"math/rand"
	"testing"
)

// noiseJPEG encodes random pixels, which compress poorly and so land well
// above the skip threshold at modest dimensions.
func noiseJPEG(t *testing.T, w, h int) []byte {
	t.Helper()

	rng := rand.New(rand.NewSource(int64(w*h + 1)))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100}); err != nil {
		t.Fatalf("jpeg: %v", err)
	}
	return buf.Bytes()
}

func smallPNG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: uint8(x ^ y), A: 0xff})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png: %v", err)
	}
	return buf.Bytes()
}

// withOrientation splices an APP1 EXIF segment carrying orientation right
// after the SOI marker of a JPEG.
func withOrientation(t *testing.T, data []byte, orientation uint16) []byte {
	t.Helper()

	if len(data) < 2 || data[0] != 0xff || data[1] != 0xd8 {
		t.Fatal("not a jpeg")
	}

	var tiff bytes.Buffer
	tiff.Write([]byte{0x49, 0x49, 0x2a, 0x00})
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(8))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(1))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(0x0112))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(3))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(1))
	_ = binary.Write(&tiff, binary.LittleEndian, orientation)
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(0))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(0))
	payload := append([]byte("Exif\x00\x00"), tiff.Bytes()...)

	var out bytes.Buffer
	out.Write(data[:2])
	out.Write([]byte{0xff, 0xe1})
	_ = binary.Write(&out, binary.BigEndian, uint16(len(payload)+2))
	out.Write(payload)
	out.Write(data[2:])
	return out.Bytes()
}

func mustSource(t *testing.T, name string, data []byte) *SourceImage {
	t.Helper()

	src, err := NewSourceImage(name, data, "")
	if err != nil {
		t.Fatalf("source: %v", err)
	}
	return src
}

func drain(ch <-chan ProgressUpdate) []int {
	var got []int
	for u := range ch {
		got = append(got, u.Percent)
	}
	return got
}

// fixedCodec writes size bytes for every encode.
type fixedCodec struct {
	mime string
	size int
}

func (c fixedCodec) MIME() string { return c.mime }

func (c fixedCodec) Encode(w io.Writer, _ image.Image, _ float64) error {
	_, err := w.Write(bytes.Repeat([]byte{0x42}, c.size))
	return err
}

// recordingCodec stores the bounds of the last image it encoded.
type recordingCodec struct {
	mime   string
	bounds *image.Rectangle
}

func (c recordingCodec) MIME() string { return c.mime }

func (c recordingCodec) Encode(w io.Writer, img image.Image, _ float64) error {
	*c.bounds = img.Bounds()
	_, err := w.Write([]byte{0x42})
	return err
}

// fixedCompressor returns a copy of its candidate.
type fixedCompressor struct {
	candidate Candidate
}

func (c fixedCompressor) Compress(_ *SourceImage, _ CompressOptions, progress func(int)) (Candidate, error) {
	progress(100)
	return Candidate{Data: bytes.Clone(c.candidate.Data), MIME: c.candidate.MIME}, nil
}

type failingCompressor struct {
	err   error
	panic bool
}

func (c failingCompressor) Compress(_ *SourceImage, _ CompressOptions, progress func(int)) (Candidate, error) {
	progress(10)
	if c.panic {
		panic("decoder exploded")
	}
	return Candidate{}, c.err
}
