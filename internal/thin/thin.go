// Package thin reduces glyph strokes to one-pixel-wide skeletons using the
// Zhang-Suen thinning algorithm.
package thin

import (
	"glyphocr/internal/raster"
	"glyphocr/pkg/geometry"
)

// ring lists the neighbor offsets P2..P9 clockwise from north.
var ring = [8]geometry.PointInt{
	{X: 0, Y: -1},  // P2 N
	{X: 1, Y: -1},  // P3 NE
	{X: 1, Y: 0},   // P4 E
	{X: 1, Y: 1},   // P5 SE
	{X: 0, Y: 1},   // P6 S
	{X: -1, Y: 1},  // P7 SW
	{X: -1, Y: 0},  // P8 W
	{X: -1, Y: -1}, // P9 NW
}

const (
	p2 = iota
	p3
	p4
	p5
	p6
	p7
	p8
	p9
)

// Neighbors returns the states of P2..P9 around (x, y).
func Neighbors(g *raster.Grid, x, y int) [8]bool {
	var n [8]bool
	for i, d := range ring {
		n[i] = g.At(x+d.X, y+d.Y)
	}
	return n
}

// NeighborCount returns B(P1), the number of foreground neighbors.
func NeighborCount(n [8]bool) int {
	count := 0
	for _, on := range n {
		if on {
			count++
		}
	}
	return count
}

// Transitions returns A(P1), the number of background to foreground
// transitions walking P2..P9 and back to P2.
func Transitions(n [8]bool) int {
	count := 0
	for i := range n {
		if !n[i] && n[(i+1)%len(n)] {
			count++
		}
	}
	return count
}

// removable reports whether a foreground pixel with neighborhood n may be
// deleted in the given subiteration (0 or 1).
func removable(n [8]bool, step int) bool {
	if b := NeighborCount(n); b < 2 || b > 6 {
		return false
	}
	if Transitions(n) != 1 {
		return false
	}
	if step == 0 {
		return !(n[p2] && n[p4] && n[p6]) && !(n[p4] && n[p6] && n[p8])
	}
	return !(n[p2] && n[p4] && n[p8]) && !(n[p2] && n[p6] && n[p8])
}

// subiteration marks every removable pixel in one full scan, then clears
// them all. Border rows and columns are never touched.
func subiteration(g *raster.Grid, step int, marked []geometry.PointInt) ([]geometry.PointInt, int) {
	marked = marked[:0]
	for y := 1; y < g.Height()-1; y++ {
		for x := 1; x < g.Width()-1; x++ {
			if g.At(x, y) && removable(Neighbors(g, x, y), step) {
				marked = append(marked, geometry.PointInt{X: x, Y: y})
			}
		}
	}
	for _, p := range marked {
		g.Set(p.X, p.Y, false)
	}
	return marked, len(marked)
}

// Thin skeletonizes g in place and returns the number of pixels removed.
// Running it on an already thinned grid removes nothing.
func Thin(g *raster.Grid) int {
	var marked []geometry.PointInt
	total := 0
	for {
		var first, second int
		marked, first = subiteration(g, 0, marked)
		marked, second = subiteration(g, 1, marked)
		total += first + second
		if first+second == 0 {
			return total
		}
	}
}

// Skeleton returns a thinned copy of g.
func Skeleton(g *raster.Grid) *raster.Grid {
	s := g.Clone()
	Thin(s)
	return s
}
