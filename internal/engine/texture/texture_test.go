package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"testing"

	"golang.org/x/image/bmp"
)

// makeTGA builds an uncompressed 24-bit top-left origin TGA.
func makeTGA(w, h int, c color.RGBA) []byte {
	header := []byte{
		0, 0, 2, // id length, no color map, true-color
		0, 0, 0, 0, 0,
		0, 0, 0, 0, // origin
		byte(w), byte(w >> 8),
		byte(h), byte(h >> 8),
		24,
		0x20, // top-left
	}
	var buf bytes.Buffer
	buf.Write(header)
	for i := 0; i < w*h; i++ {
		buf.Write([]byte{c.B, c.G, c.R})
	}
	return buf.Bytes()
}

func encode(t *testing.T, img image.Image, enc func(*bytes.Buffer, image.Image) error) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := enc(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestDecode(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	pngData := encode(t, solid(3, 2, red), func(b *bytes.Buffer, i image.Image) error { return png.Encode(b, i) })
	bmpData := encode(t, solid(3, 2, red), func(b *bytes.Buffer, i image.Image) error { return bmp.Encode(b, i) })

	tests := []struct {
		name string
		data []byte
		w, h int
	}{
		{"hull.tga", makeTGA(4, 2, red), 4, 2},
		{"hull.TGA", makeTGA(1, 1, red), 1, 1},
		{"hull.png", pngData, 3, 2},
		{"hull.bmp", bmpData, 3, 2},
		{"noext", pngData, 3, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := Decode(tt.name, tt.data)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if img.Bounds().Dx() != tt.w || img.Bounds().Dy() != tt.h {
				t.Errorf("size = %v, want %dx%d", img.Bounds(), tt.w, tt.h)
			}
			if got := img.NRGBAAt(0, 0); got.R != 255 || got.G != 0 || got.A != 255 {
				t.Errorf("pixel = %+v", got)
			}
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	if _, err := Decode("hull.dds", []byte{1, 2, 3}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("dds: got %v", err)
	}
	if _, err := Decode("hull.tga", []byte{1, 2}); err == nil {
		t.Error("expected error for truncated TGA")
	}
}

func TestToNRGBA_Rebases(t *testing.T) {
	src := image.NewRGBA(image.Rect(5, 5, 7, 8))
	dst := ToNRGBA(src)
	if dst.Rect.Min != (image.Point{}) || dst.Rect.Dx() != 2 || dst.Rect.Dy() != 3 {
		t.Errorf("Rect = %v", dst.Rect)
	}
}

func TestPlaceholder(t *testing.T) {
	p := Placeholder()
	if p.Bounds().Dx() != 2 || p.Bounds().Dy() != 2 {
		t.Fatalf("size = %v", p.Bounds())
	}
	if got := p.NRGBAAt(1, 1); got != (color.NRGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("pixel = %+v", got)
	}
}

type mapSource struct {
	files map[string][]byte
	loads int
}

func (s *mapSource) Load(name string) ([]byte, error) {
	s.loads++
	data, ok := s.files[name]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", name, fs.ErrNotExist)
	}
	return data, nil
}

func TestCache_Load(t *testing.T) {
	src := &mapSource{files: map[string][]byte{
		"hull.tga": makeTGA(2, 2, color.RGBA{G: 255, A: 255}),
		"bad.tga":  {0, 0, 99},
	}}
	c := NewCache(src)

	first, err := c.Load("hull.tga")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	second, _ := c.Load("hull.tga")
	if first != second {
		t.Error("second load should return the cached image")
	}

	if _, err := c.Load("missing.tga"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing: got %v", err)
	}
	if _, err := c.Load("missing.tga"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing (cached): got %v", err)
	}

	_, err = c.Load("bad.tga")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("bad: got %v", err)
	}

	if src.loads != 3 {
		t.Errorf("source loads = %d, want 3", src.loads)
	}
	hits, misses := c.Stats()
	if hits != 2 || misses != 3 {
		t.Errorf("Stats = %d/%d, want 2/3", hits, misses)
	}
	if c.Len() != 3 {
		t.Errorf("Len = %d", c.Len())
	}

	c.Clear()
	if c.Len() != 0 {
		t.Error("Clear should empty the cache")
	}
}

func TestCache_NilSource(t *testing.T) {
	c := NewCache(nil)
	if _, err := c.Load("hull.tga"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v", err)
	}
}
