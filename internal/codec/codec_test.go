package codec

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"

	"squeeze/pkg/imgutil"
)

type stubCodec struct {
	mime string
}

func (s stubCodec) MIME() string { return s.mime }

func (s stubCodec) Encode(w io.Writer, _ image.Image, _ float64) error {
	_, err := w.Write([]byte("stub"))
	return err
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry(JPEG{})

	if !reg.CanEncode(imgutil.MIMEJPEG) {
		t.Fatal("expected jpeg to be encodable")
	}
	if !reg.CanEncode("image/jpg") {
		t.Fatal("expected jpeg alias to resolve")
	}
	if reg.CanEncode(imgutil.MIMEWebP) {
		t.Fatal("webp should not be registered")
	}

	reg.Register(stubCodec{mime: imgutil.MIMEWebP})
	c, ok := reg.Lookup(imgutil.MIMEWebP)
	if !ok || c.MIME() != imgutil.MIMEWebP {
		t.Fatalf("lookup after register: %v %v", c, ok)
	}

	var nilReg *Registry
	if nilReg.CanEncode(imgutil.MIMEJPEG) {
		t.Fatal("nil registry must not report capabilities")
	}
}

func TestDefaultRegistry(t *testing.T) {
	reg := Default()
	if !reg.CanEncode(imgutil.MIMEJPEG) || !reg.CanEncode(imgutil.MIMEPNG) {
		t.Fatal("default registry must encode jpeg and png")
	}
}

func TestFlattenFillsWhite(t *testing.T) {
	img := image.NewNRGBA(image.Rect(10, 10, 12, 12))
	img.SetNRGBA(10, 10, color.NRGBA{R: 0xff, A: 0xff})

	flat := Flatten(img)
	if flat.Bounds() != image.Rect(0, 0, 2, 2) {
		t.Fatalf("unexpected bounds %v", flat.Bounds())
	}
	if got := flat.NRGBAAt(0, 0); got != (color.NRGBA{R: 0xff, A: 0xff}) {
		t.Fatalf("opaque pixel changed: %v", got)
	}
	if got := flat.NRGBAAt(1, 1); got != (color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}) {
		t.Fatalf("transparent pixel not white: %v", got)
	}
	if !IsOpaque(flat) {
		t.Fatal("flattened image must be opaque")
	}
}

func TestJPEGEncodesTransparentInput(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))

	var buf bytes.Buffer
	if err := (JPEG{}).Encode(&buf, img, 0.8); err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded, format, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if format != "jpeg" {
		t.Fatalf("format = %q", format)
	}
	r, g, b, _ := decoded.At(8, 8).RGBA()
	if r>>8 < 0xf0 || g>>8 < 0xf0 || b>>8 < 0xf0 {
		t.Fatalf("expected near-white pixel, got %d %d %d", r>>8, g>>8, b>>8)
	}
}

func TestJPEGQualityClamps(t *testing.T) {
	tests := map[float64]int{0: 1, 0.004: 1, 0.8: 80, 1: 100, 1.5: 100}
	for in, want := range tests {
		if got := JPEGQuality(in); got != want {
			t.Errorf("JPEGQuality(%v) = %d, want %d", in, got, want)
		}
	}
}

func TestPNGPalettizesFewColours(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			c := color.NRGBA{R: uint8(x % 4 * 60), G: 0x20, B: 0x40, A: 0xff}
			img.SetNRGBA(x, y, c)
		}
	}

	var out bytes.Buffer
	if err := (PNG{}).Encode(&out, img, 1); err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded, err := png.Decode(bytes.NewReader(out.Bytes()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := decoded.(*image.Paletted); !ok {
		t.Fatalf("expected paletted output, got %T", decoded)
	}
	if decoded.Bounds().Dx() != 64 {
		t.Fatalf("width changed: %d", decoded.Bounds().Dx())
	}
}

func TestPNGGrayscale(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			v := uint8((x*32 + y) % 256)
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 0xff})
		}
	}

	var out bytes.Buffer
	if err := (PNG{}).Encode(&out, img, 1); err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(out.Bytes()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := decoded.(*image.Gray); !ok {
		t.Fatalf("expected gray output, got %T", decoded)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, _, err := Decode([]byte("not an image at all")); err == nil {
		t.Fatal("expected decode error")
	}
}
