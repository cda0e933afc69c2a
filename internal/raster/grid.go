// Package raster provides the binary pixel grid the recognition pipeline
// operates on, plus conversion to and from images.
package raster

import (
	"errors"
	"fmt"
	"strings"

	"glyphocr/pkg/geometry"
)

var (
	// ErrInvalidSize is returned for negative grid dimensions.
	ErrInvalidSize = errors.New("raster: invalid size")
	// ErrParse is returned when a textual grid is malformed.
	ErrParse = errors.New("raster: parse error")
)

// Characters used by String and Parse.
const (
	InkRune   = '#'
	PaperRune = '.'
)

// Grid is a width x height binary raster. Reads outside the grid return
// background and writes outside it are ignored.
type Grid struct {
	width  int
	height int
	pix    []bool
}

// New creates a blank grid.
func New(width, height int) (*Grid, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	return &Grid{width: width, height: height, pix: make([]bool, width*height)}, nil
}

// MustNew is like New but panics on invalid dimensions.
func MustNew(width, height int) *Grid {
	g, err := New(width, height)
	if err != nil {
		panic(err)
	}
	return g
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// In reports whether (x, y) lies inside the grid.
func (g *Grid) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.width && y < g.height
}

// At returns true if (x, y) is foreground.
func (g *Grid) At(x, y int) bool {
	if !g.In(x, y) {
		return false
	}
	return g.pix[y*g.width+x]
}

// Set sets the state of (x, y).
func (g *Grid) Set(x, y int, on bool) {
	if !g.In(x, y) {
		return
	}
	g.pix[y*g.width+x] = on
}

// Fill sets every pixel of the inclusive box r.
func (g *Grid) Fill(r geometry.RectInt, on bool) {
	for y := r.Y; y <= r.Bottom(); y++ {
		for x := r.X; x <= r.Right(); x++ {
			g.Set(x, y, on)
		}
	}
}

// Clear resets every pixel to background.
func (g *Grid) Clear() {
	clear(g.pix)
}

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	c := &Grid{width: g.width, height: g.height, pix: make([]bool, len(g.pix))}
	copy(c.pix, g.pix)
	return c
}

// Sub returns a copy of the inclusive box r, clipped to the grid.
func (g *Grid) Sub(r geometry.RectInt) *Grid {
	x0, y0 := max(r.X, 0), max(r.Y, 0)
	x1, y1 := min(r.Right(), g.width-1), min(r.Bottom(), g.height-1)
	if x1 < x0 || y1 < y0 {
		return &Grid{}
	}
	sub := MustNew(x1-x0+1, y1-y0+1)
	for y := y0; y <= y1; y++ {
		copy(sub.pix[(y-y0)*sub.width:(y-y0+1)*sub.width], g.pix[y*g.width+x0:y*g.width+x1+1])
	}
	return sub
}

// Pad returns a copy of g with n background pixels added on every side.
func (g *Grid) Pad(n int) *Grid {
	n = max(n, 0)
	p := MustNew(g.width+2*n, g.height+2*n)
	for y := 0; y < g.height; y++ {
		copy(p.pix[(y+n)*p.width+n:], g.pix[y*g.width:(y+1)*g.width])
	}
	return p
}

// Count returns the number of foreground pixels.
func (g *Grid) Count() int {
	n := 0
	for _, on := range g.pix {
		if on {
			n++
		}
	}
	return n
}

// Equal reports whether both grids have the same size and pixels.
func (g *Grid) Equal(other *Grid) bool {
	if g.width != other.width || g.height != other.height {
		return false
	}
	for i, on := range g.pix {
		if other.pix[i] != on {
			return false
		}
	}
	return true
}

// Bounds returns the tight box around the foreground, or false if the grid
// is blank.
func (g *Grid) Bounds() (geometry.RectInt, bool) {
	minX, minY := g.width, g.height
	maxX, maxY := -1, -1
	for y := 0; y < g.height; y++ {
		row := g.pix[y*g.width : (y+1)*g.width]
		for x, on := range row {
			if !on {
				continue
			}
			minX = min(minX, x)
			maxX = max(maxX, x)
			minY = min(minY, y)
			maxY = max(maxY, y)
		}
	}
	if maxX < 0 {
		return geometry.RectInt{}, false
	}
	return geometry.RectInt{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}, true
}

// Points returns the foreground pixels in row-major order.
func (g *Grid) Points() []geometry.PointInt {
	var pts []geometry.PointInt
	for i, on := range g.pix {
		if on {
			pts = append(pts, geometry.PointInt{X: i % g.width, Y: i / g.width})
		}
	}
	return pts
}

// String renders the grid as rows of '#' and '.'.
func (g *Grid) String() string {
	var sb strings.Builder
	sb.Grow((g.width + 1) * g.height)
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			if g.pix[y*g.width+x] {
				sb.WriteByte(InkRune)
			} else {
				sb.WriteByte(PaperRune)
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Rows returns the grid as one string per row.
func (g *Grid) Rows() []string {
	return strings.Split(strings.TrimSuffix(g.String(), "\n"), "\n")
}

// Parse reads a grid written by String. Surrounding whitespace on each
// line and blank lines are ignored so indented literals work.
func Parse(s string) (*Grid, error) {
	var rows []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		rows = append(rows, line)
	}
	return ParseRows(rows)
}

// ParseRows builds a grid from '#'/'.' rows of equal length.
func ParseRows(rows []string) (*Grid, error) {
	if len(rows) == 0 {
		return MustNew(0, 0), nil
	}
	width := len(rows[0])
	g := MustNew(width, len(rows))
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrParse, y, len(row), width)
		}
		for x := 0; x < width; x++ {
			switch row[x] {
			case InkRune:
				g.pix[y*width+x] = true
			case PaperRune:
			default:
				return nil, fmt.Errorf("%w: unexpected %q at %d,%d", ErrParse, row[x], x, y)
			}
		}
	}
	return g, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) *Grid {
	g, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return g
}
