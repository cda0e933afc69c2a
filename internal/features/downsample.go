// Package features turns a glyph raster into the fixed-size occupancy
// vector the classifier consumes.
package features

import (
	"errors"
	"fmt"
	"strings"

	"glyphocr/internal/raster"
)

// Occupancy values emitted per cell.
const (
	On  = 0.5
	Off = -0.5
)

// ErrInvalidSize is returned for non-positive target dimensions.
var ErrInvalidSize = errors.New("features: invalid size")

// Sample is a Width x Height grid of On/Off values.
type Sample struct {
	Width  int
	Height int
	values []float64
}

// At returns the value of cell (x, y).
func (s Sample) At(x, y int) float64 {
	return s.values[y*s.Width+x]
}

// Vector returns a copy of the values flattened row by row (y outer, x
// inner).
func (s Sample) Vector() []float64 {
	v := make([]float64, len(s.values))
	copy(v, s.values)
	return v
}

// Len returns Width*Height.
func (s Sample) Len() int {
	return len(s.values)
}

// String renders the sample as rows of '#' (On) and '.' (Off).
func (s Sample) String() string {
	var sb strings.Builder
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			if s.At(x, y) == On {
				sb.WriteByte(raster.InkRune)
			} else {
				sb.WriteByte(raster.PaperRune)
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Grid returns the sample as a raster, one pixel per cell.
func (s Sample) Grid() *raster.Grid {
	g := raster.MustNew(s.Width, s.Height)
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			g.Set(x, y, s.At(x, y) == On)
		}
	}
	return g
}

// Downsample tiles the tight foreground box of g into w x h cells and
// marks each cell On if any pixel inside it is foreground. Cell (x, y)
// spans source columns floor(left+x*rx) through floor(start+rx) inclusive,
// where rx is the box's max-min width divided by w; rows likewise. A blank
// grid yields all Off.
func Downsample(g *raster.Grid, w, h int) (Sample, error) {
	if w <= 0 || h <= 0 {
		return Sample{}, fmt.Errorf("%w: %dx%d", ErrInvalidSize, w, h)
	}
	s := Sample{Width: w, Height: h, values: make([]float64, w*h)}
	for i := range s.values {
		s.values[i] = Off
	}

	box, ok := g.Bounds()
	if !ok {
		return s, nil
	}
	ratioX := float64(box.Width) / float64(w)
	ratioY := float64(box.Height) / float64(h)

	for y := 0; y < h; y++ {
		startY := int(float64(box.Y) + float64(y)*ratioY)
		endY := min(int(float64(startY)+ratioY), g.Height()-1)
		for x := 0; x < w; x++ {
			startX := int(float64(box.X) + float64(x)*ratioX)
			endX := min(int(float64(startX)+ratioX), g.Width()-1)
			if anyInk(g, startX, startY, endX, endY) {
				s.values[y*w+x] = On
			}
		}
	}
	return s, nil
}

func anyInk(g *raster.Grid, x0, y0, x1, y1 int) bool {
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if g.At(x, y) {
				return true
			}
		}
	}
	return false
}
