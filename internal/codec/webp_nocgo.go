//go:build !cgo

package codec

// WebP encoding needs libwebp; pure-Go builds only decode WebP.
func webpCodec() (Codec, bool) {
	return nil, false
}
