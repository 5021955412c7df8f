// Package imaging prepares face images for liveness scoring.
package imaging

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ErrEmptyImage is returned for images with no pixels.
var ErrEmptyImage = errors.New("imaging: empty image")

// Decode reads and decodes an image file (jpeg, png, bmp, webp).
func Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// Gray converts img to 8-bit luma (0.299R + 0.587G + 0.114B), rebased to (0,0).
func Gray(img image.Image) *image.Gray {
	b := img.Bounds()
	if g, ok := img.(*image.Gray); ok && b.Min == (image.Point{}) {
		return g
	}
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(g, g.Bounds(), img, b.Min, draw.Src)
	return g
}

// BrightestWindow returns a w×h window centred on the brightest pixel, clipped
// to the image. The first maximum in row-major order wins.
func BrightestWindow(img image.Image, w, h int) (image.Rectangle, error) {
	b := img.Bounds()
	if b.Empty() {
		return image.Rectangle{}, ErrEmptyImage
	}

	g := Gray(img)
	var best uint8
	var bx, by int
	for y := 0; y < b.Dy(); y++ {
		row := g.Pix[y*g.Stride : y*g.Stride+b.Dx()]
		for x, v := range row {
			if v > best {
				best, bx, by = v, x, y
			}
		}
	}

	x0 := max(0, bx-w/2)
	y0 := max(0, by-h/2)
	width := min(w, b.Dx()-x0)
	height := min(h, b.Dy()-y0)
	if width <= 0 || height <= 0 {
		return image.Rectangle{}, ErrEmptyImage
	}

	return image.Rect(x0, y0, x0+width, y0+height).Add(b.Min), nil
}

// Crop returns the part of img inside r.
func Crop(img image.Image, r image.Rectangle) image.Image {
	r = r.Intersect(img.Bounds())
	if s, ok := img.(interface {
		SubImage(image.Rectangle) image.Image
	}); ok {
		return s.SubImage(r)
	}
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), img, r.Min, draw.Src)
	return dst
}
