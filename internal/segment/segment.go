// Package segment splits a binary canvas into glyph regions: 8-connected
// components found by flood fill, then merged horizontally so multi-stroke
// characters such as "i" and "j" come out as one box.
package segment

import (
	"sort"

	"glyphocr/internal/raster"
	"glyphocr/pkg/geometry"
)

// DefaultMergeThreshold is the horizontal slack, in pixels, within which two
// boxes are considered the same glyph.
const DefaultMergeThreshold = 5

// Flood fill visiting order.
var neighborOffsets = [8][2]int{
	{1, -1}, {-1, 1}, {-1, -1}, {1, 1},
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
}

// Component is one 8-connected foreground region.
type Component struct {
	Box    geometry.RectInt
	Pixels []geometry.PointInt
}

// Components labels the 8-connected foreground regions of g in row-major
// discovery order. Each region's pixels are listed in breadth-first order
// from its seed.
func Components(g *raster.Grid) []Component {
	w, h := g.Width(), g.Height()
	seen := make([]bool, w*h)
	var comps []Component

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !g.At(x, y) || seen[y*w+x] {
				continue
			}
			queue := []geometry.PointInt{{X: x, Y: y}}
			seen[y*w+x] = true

			for qi := 0; qi < len(queue); qi++ {
				p := queue[qi]
				for _, d := range neighborOffsets {
					vx, vy := p.X+d[0], p.Y+d[1]
					if !g.At(vx, vy) || seen[vy*w+vx] {
						continue
					}
					seen[vy*w+vx] = true
					queue = append(queue, geometry.PointInt{X: vx, Y: vy})
				}
			}
			comps = append(comps, Component{
				Box:    geometry.RectFromPoints(queue),
				Pixels: queue,
			})
		}
	}
	return comps
}

// Segment returns the glyph boxes of g ordered left to right by horizontal
// center. Components whose column spans come within threshold pixels of
// each other are merged into their union until no pair qualifies.
func Segment(g *raster.Grid, threshold int) []geometry.RectInt {
	comps := Components(g)
	boxes := make([]geometry.RectInt, len(comps))
	for i, c := range comps {
		boxes[i] = c.Box
	}
	return Merge(boxes, threshold)
}

// Merge collapses boxes to a fixed point under the horizontal overlap rule
// and returns them sorted. The input slice is not modified.
func Merge(boxes []geometry.RectInt, threshold int) []geometry.RectInt {
	out := make([]geometry.RectInt, len(boxes))
	copy(out, boxes)
	sortBoxes(out)

	for merged := true; merged; {
		merged = false
	scan:
		for i := 0; i < len(out); i++ {
			for j := i + 1; j < len(out); j++ {
				if !Overlaps(out[i], out[j], threshold) {
					continue
				}
				out[i] = out[i].Union(out[j])
				out = append(out[:j], out[j+1:]...)
				merged = true
				break scan
			}
		}
	}

	sortBoxes(out)
	return out
}

// Overlaps reports whether a's column span, widened by threshold on both
// sides, intersects b's column span. The relation is symmetric.
func Overlaps(a, b geometry.RectInt, threshold int) bool {
	return a.X-threshold <= b.Right() && b.X <= a.Right()+threshold
}

func sortBoxes(boxes []geometry.RectInt) {
	sort.SliceStable(boxes, func(i, j int) bool {
		a, b := boxes[i], boxes[j]
		if a.CenterX() != b.CenterX() {
			return a.CenterX() < b.CenterX()
		}
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Y < b.Y
	})
}
