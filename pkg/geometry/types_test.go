package geometry

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRectFromPoints(t *testing.T) {
	r := RectFromPoints([]PointInt{{3, 4}, {1, 7}, {5, 5}})
	assert.Equal(t, RectInt{X: 1, Y: 4, Width: 4, Height: 3}, r)
	assert.Equal(t, 5, r.Right())
	assert.Equal(t, 7, r.Bottom())

	single := RectFromPoints([]PointInt{{2, 2}})
	assert.Equal(t, RectInt{X: 2, Y: 2}, single)
	assert.Equal(t, 1, single.Area())

	assert.Equal(t, RectInt{}, RectFromPoints(nil))
}

func TestRectIntUnion(t *testing.T) {
	a := NewRectInt(0, 2, 5, 3)
	b := NewRectInt(6, 0, 4, 2)
	assert.Equal(t, RectInt{X: 0, Y: 0, Width: 10, Height: 5}, a.Union(b))
	assert.Equal(t, a.Union(b), b.Union(a))
}

func TestRectIntContainsAndPixels(t *testing.T) {
	r := NewRectInt(1, 1, 2, 0)
	assert.True(t, r.ContainsPoint(PointInt{1, 1}))
	assert.True(t, r.ContainsPoint(PointInt{3, 1}))
	assert.False(t, r.ContainsPoint(PointInt{4, 1}))
	assert.False(t, r.ContainsPoint(PointInt{2, 2}))
	assert.Equal(t, image.Rect(1, 1, 4, 2), r.Pixels())
	assert.InDelta(t, 2.0, r.CenterX(), 1e-12)
}
