// Package colorutil provides shared colors and luminance helpers for glyph
// rendering and binarization.
package colorutil

import (
	"image/color"
)

// Colors used when rendering canvases and segment overlays.
var (
	Ink      = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	Paper    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Box      = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	Skeleton = color.RGBA{R: 0, G: 160, B: 255, A: 255}
	Grid     = color.RGBA{R: 220, G: 220, B: 220, A: 255}
)

// Luminance returns the Rec. 601 luma of c in 0-255, composited over white
// so transparent pixels read as paper.
func Luminance(c color.Color) float64 {
	r, g, b, a := c.RGBA()
	if a == 0 {
		return 255
	}
	// RGBA() is alpha-premultiplied in 0-65535.
	white := float64(0xffff - a)
	rf := (float64(r) + white) / 257.0
	gf := (float64(g) + white) / 257.0
	bf := (float64(b) + white) / 257.0
	return 0.299*rf + 0.587*gf + 0.114*bf
}

// IsInk reports whether c is darker than threshold (0-255).
func IsInk(c color.Color, threshold float64) bool {
	return Luminance(c) < threshold
}
