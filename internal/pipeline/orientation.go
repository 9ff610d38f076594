package pipeline

import (
	"bytes"
	"image"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	exif "github.com/dsoprea/go-exif/v3"
)

// EXIF orientation values.
const (
	orientNormal     = 1
	orientFlipH      = 2
	orientRotate180  = 3
	orientFlipV      = 4
	orientTranspose  = 5
	orientRotate270  = 6
	orientTransverse = 7
	orientRotate90   = 8
)

// readOrientation returns the EXIF orientation of data, or orientNormal
// when there is no EXIF block or no usable tag.
func readOrientation(data []byte) int {
	tags, _, err := exif.GetFlatExifDataUniversalSearchWithReadSeeker(bytes.NewReader(data), nil, true)
	if err != nil {
		return orientNormal
	}

	for _, tag := range tags {
		if tag.TagName != "Orientation" {
			continue
		}
		if v := orientationValue(tag); v >= orientNormal && v <= orientRotate90 {
			return v
		}
	}
	return orientNormal
}

func orientationValue(tag exif.ExifTag) int {
	switch v := tag.Value.(type) {
	case []uint16:
		if len(v) > 0 {
			return int(v[0])
		}
	case uint16:
		return int(v)
	}
	n, err := strconv.Atoi(strings.TrimSpace(tag.FormattedFirst))
	if err != nil {
		return 0
	}
	return n
}

// applyOrientation rotates and flips img so it displays upright once the
// EXIF block is gone.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case orientFlipH:
		return imaging.FlipH(img)
	case orientRotate180:
		return imaging.Rotate180(img)
	case orientFlipV:
		return imaging.FlipV(img)
	case orientTranspose:
		return imaging.Transpose(img)
	case orientRotate270:
		return imaging.Rotate270(img)
	case orientTransverse:
		return imaging.Transverse(img)
	case orientRotate90:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
