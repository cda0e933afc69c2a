package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"

	"glyphocr/pkg/colorutil"
	"glyphocr/pkg/geometry"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// DefaultThreshold is the luminance below which a pixel counts as ink.
const DefaultThreshold = 128

// FromImage binarizes img: pixels darker than threshold (0-255 luminance,
// composited over white) become foreground.
func FromImage(img image.Image, threshold float64) *Grid {
	b := img.Bounds()
	g := MustNew(b.Dx(), b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if colorutil.IsInk(img.At(x, y), threshold) {
				g.pix[(y-b.Min.Y)*g.width+(x-b.Min.X)] = true
			}
		}
	}
	return g
}

// ToImage renders g as black ink on white paper at the given pixel scale,
// outlining each box.
func ToImage(g *Grid, scale int, boxes []geometry.RectInt) *image.RGBA {
	scale = max(scale, 1)
	img := image.NewRGBA(image.Rect(0, 0, g.width*scale, g.height*scale))
	draw.Draw(img, img.Bounds(), image.NewUniform(colorutil.Paper), image.Point{}, draw.Src)
	ink := image.NewUniform(colorutil.Ink)
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			if g.pix[y*g.width+x] {
				r := image.Rect(x*scale, y*scale, (x+1)*scale, (y+1)*scale)
				draw.Draw(img, r, ink, image.Point{}, draw.Src)
			}
		}
	}
	for _, box := range boxes {
		DrawBox(img, box, scale, colorutil.Box)
	}
	return img
}

// DrawBox outlines the pixels covered by box on an image drawn at scale.
func DrawBox(img *image.RGBA, box geometry.RectInt, scale int, c color.RGBA) {
	r := box.Pixels()
	x0, y0 := r.Min.X*scale, r.Min.Y*scale
	x1, y1 := r.Max.X*scale-1, r.Max.Y*scale-1
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y0, c)
		img.SetRGBA(x, y1, c)
	}
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x0, y, c)
		img.SetRGBA(x1, y, c)
	}
}

// LoadImage decodes a PNG, JPEG, GIF, TIFF or BMP file.
func LoadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// Load decodes an image file and binarizes it at threshold.
func Load(path string, threshold float64) (*Grid, error) {
	img, err := LoadImage(path)
	if err != nil {
		return nil, err
	}
	return FromImage(img, threshold), nil
}

// SavePNG writes img to path.
func SavePNG(path string, img image.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return file.Close()
}
