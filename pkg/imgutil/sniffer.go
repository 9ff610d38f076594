package imgutil

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/h2non/filetype"
)

// Kind identifies a supported image type.
type Kind int

const (
	KindUnknown Kind = iota
	KindJPEG
	KindPNG
	KindTIFF
	KindGIF
	KindWebP
	KindBMP
)

const (
	MIMEJPEG = "image/jpeg"
	MIMEPNG  = "image/png"
	MIMETIFF = "image/tiff"
	MIMEGIF  = "image/gif"
	MIMEWebP = "image/webp"
	MIMEBMP  = "image/bmp"
)

// HeaderSize is the number of leading bytes the sniffer looks at.
const HeaderSize = 262

// ErrShortHeader is returned for input too short to carry any signature.
var ErrShortHeader = errors.New("header too short")

func (k Kind) String() string {
	switch k {
	case KindJPEG:
		return "jpeg"
	case KindPNG:
		return "png"
	case KindTIFF:
		return "tiff"
	case KindGIF:
		return "gif"
	case KindWebP:
		return "webp"
	case KindBMP:
		return "bmp"
	default:
		return "unknown"
	}
}

// MIME returns the canonical MIME type, or "" for KindUnknown.
func (k Kind) MIME() string {
	switch k {
	case KindJPEG:
		return MIMEJPEG
	case KindPNG:
		return MIMEPNG
	case KindTIFF:
		return MIMETIFF
	case KindGIF:
		return MIMEGIF
	case KindWebP:
		return MIMEWebP
	case KindBMP:
		return MIMEBMP
	default:
		return ""
	}
}

// Extension returns the preferred file extension including the dot.
func (k Kind) Extension() string {
	switch k {
	case KindJPEG:
		return ".jpg"
	case KindUnknown:
		return ""
	default:
		return "." + k.String()
	}
}

// KindFromMIME maps a MIME type (parameters allowed) to a Kind.
func KindFromMIME(mime string) Kind {
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = mime[:i]
	}
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case MIMEJPEG, "image/jpg", "image/pjpeg":
		return KindJPEG
	case MIMEPNG:
		return KindPNG
	case MIMETIFF:
		return KindTIFF
	case MIMEGIF:
		return KindGIF
	case MIMEWebP:
		return KindWebP
	case MIMEBMP, "image/x-ms-bmp":
		return KindBMP
	default:
		return KindUnknown
	}
}

// DetectHeader inspects the leading bytes of a file for known signatures.
func DetectHeader(header []byte) (Kind, error) {
	if len(header) < 8 {
		return KindUnknown, ErrShortHeader
	}

	kind, err := filetype.Match(header)
	if err != nil {
		return KindUnknown, err
	}
	if kind == filetype.Unknown {
		return KindUnknown, nil
	}

	return KindFromMIME(kind.MIME.Value), nil
}

// SniffFile reads the leading bytes of a file to determine its type.
func SniffFile(path string) (Kind, error) {
	f, err := os.Open(path)
	if err != nil {
		return KindUnknown, err
	}
	defer f.Close()

	return SniffReader(f)
}

// SniffReader reads up to HeaderSize bytes from r and determines its type.
func SniffReader(r io.Reader) (Kind, error) {
	header := make([]byte, HeaderSize)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return KindUnknown, err
	}

	return DetectHeader(header[:n])
}

// SniffBytes determines the type of an in-memory buffer.
func SniffBytes(data []byte) (Kind, error) {
	if len(data) > HeaderSize {
		data = data[:HeaderSize]
	}
	return DetectHeader(data)
}
