// Package texture decodes and caches the images referenced by SOD meshes.
package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

// ErrUnsupportedFormat is returned for extensions with no decoder.
var ErrUnsupportedFormat = errors.New("unsupported texture format")

// Decode decodes image data, choosing the decoder from name's extension.
// Names without a known extension are sniffed with image.Decode.
func Decode(name string, data []byte) (*image.NRGBA, error) {
	r := bytes.NewReader(data)

	var (
		img image.Image
		err error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".tga":
		img, err = tga.Decode(r)
	case ".bmp":
		img, err = bmp.Decode(r)
	case ".png":
		img, err = png.Decode(r)
	case ".webp":
		img, err = webp.Decode(r)
	case ".jpg", ".jpeg", "":
		img, _, err = image.Decode(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	return ToNRGBA(img), nil
}

// ToNRGBA converts any image to NRGBA with its origin at (0, 0).
func ToNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// Placeholder returns a blank opaque white 2x2 image.
func Placeholder() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}
	return img
}
