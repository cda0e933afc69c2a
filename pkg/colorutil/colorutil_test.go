package colorutil

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLuminance(t *testing.T) {
	assert.InDelta(t, 0, Luminance(Ink), 1e-9)
	assert.InDelta(t, 255, Luminance(Paper), 1e-9)
	assert.InDelta(t, 255, Luminance(color.RGBA{}), 1e-9)
	assert.InDelta(t, 128, Luminance(color.Gray{Y: 128}), 1e-9)
}

func TestIsInk(t *testing.T) {
	assert.True(t, IsInk(color.Gray{Y: 10}, 128))
	assert.False(t, IsInk(color.Gray{Y: 200}, 128))
	// Half-transparent black composites to mid gray.
	assert.True(t, IsInk(color.NRGBA{A: 200}, 128))
	assert.False(t, IsInk(color.NRGBA{A: 40}, 128))
}
