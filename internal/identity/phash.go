package identity

import (
	"bytes"
	"fmt"
	"image"
	"io"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/corona10/goimagehash"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// PerceptualHash computes the DCT perception hash of a decoded image and
// renders it as a fixed-width 16-character lowercase hex string.
func PerceptualHash(img image.Image) (string, error) {
	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return "", fmt.Errorf("perception hash: %w", err)
	}
	return fmt.Sprintf("%016x", hash.GetHash()), nil
}

// PerceptualHashFromReader decodes an image from the reader and hashes it.
// All registered formats (JPEG, PNG, GIF, WebP, TIFF, BMP) are accepted.
func PerceptualHashFromReader(r io.Reader) (string, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	return PerceptualHash(img)
}

// PerceptualHashFromBytes hashes an encoded image held in memory, typically a
// frame extracted from a video.
func PerceptualHashFromBytes(data []byte) (string, error) {
	return PerceptualHashFromReader(bytes.NewReader(data))
}
