// Package geometry provides the integer point and rectangle types shared by
// the segmentation, feature and rendering code.
package geometry

import (
	"fmt"
	"image"
)

// PointInt represents a pixel coordinate.
type PointInt struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns the sum of two points.
func (p PointInt) Add(other PointInt) PointInt {
	return PointInt{X: p.X + other.X, Y: p.Y + other.Y}
}

// RectInt is a pixel box. Width and Height are max-min extents, so the box
// covers columns X..X+Width and rows Y..Y+Height inclusive; a single pixel
// has zero width and height.
type RectInt struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// NewRectInt creates a new RectInt.
func NewRectInt(x, y, width, height int) RectInt {
	return RectInt{X: x, Y: y, Width: width, Height: height}
}

// RectFromPoints returns the tight box around the given pixels.
func RectFromPoints(points []PointInt) RectInt {
	if len(points) == 0 {
		return RectInt{}
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return RectInt{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Right returns the last covered column.
func (r RectInt) Right() int {
	return r.X + r.Width
}

// Bottom returns the last covered row.
func (r RectInt) Bottom() int {
	return r.Y + r.Height
}

// CenterX returns the horizontal center.
func (r RectInt) CenterX() float64 {
	return float64(r.X) + float64(r.Width)/2
}

// ContainsPoint returns true if the pixel lies inside the box.
func (r RectInt) ContainsPoint(p PointInt) bool {
	return p.X >= r.X && p.X <= r.Right() &&
		p.Y >= r.Y && p.Y <= r.Bottom()
}

// Union returns the smallest box containing both boxes.
func (r RectInt) Union(other RectInt) RectInt {
	x := min(r.X, other.X)
	y := min(r.Y, other.Y)
	x2 := max(r.Right(), other.Right())
	y2 := max(r.Bottom(), other.Bottom())
	return RectInt{X: x, Y: y, Width: x2 - x, Height: y2 - y}
}

// Pixels returns the covered pixels as a half-open image.Rectangle.
func (r RectInt) Pixels() image.Rectangle {
	return image.Rect(r.X, r.Y, r.Right()+1, r.Bottom()+1)
}

// Area returns the number of covered pixels.
func (r RectInt) Area() int {
	return (r.Width + 1) * (r.Height + 1)
}

func (r RectInt) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", r.X, r.Y, r.Width, r.Height)
}

// Size represents a pixel size.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}
