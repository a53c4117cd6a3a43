package assets

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/hubastard/quadpick/engine/picking"
	"golang.org/x/image/draw"
)

// PickImage wraps a pick buffer as an image without copying. Row 0 is the
// top row, matching image.RGBA.
func PickImage(b *picking.Buffer) *image.RGBA {
	return &image.RGBA{
		Pix:    b.Pix,
		Stride: b.Stride(),
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

// Upscale enlarges img by an integer factor with nearest-neighbour sampling,
// so every output pixel still holds an exact colour ID.
func Upscale(img image.Image, zoom int) image.Image {
	if zoom <= 1 {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*zoom, b.Dy()*zoom))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// SavePNG writes img to path, creating parent directories.
func SavePNG(path string, img image.Image, zoom int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("save png %q: %w", path, err)
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("save png %q: %w", path, err)
	}
	if err := png.Encode(f, Upscale(img, zoom)); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode png %q: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LoadPNG reads an image back as tightly packed RGBA8, top row first.
func LoadPNG(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode png %q: %w", path, err)
	}
	if m, ok := img.(*image.RGBA); ok && m.Stride == m.Rect.Dx()*4 && m.Rect.Min == (image.Point{}) {
		return m, nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
	draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
	return dst, nil
}
