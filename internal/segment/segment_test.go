package segment

import (
	"math/rand"
	"testing"

	"glyphocr/internal/raster"
	"glyphocr/pkg/geometry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentEmptyGrid(t *testing.T) {
	assert.Empty(t, Segment(raster.MustNew(10, 10), DefaultMergeThreshold))
	assert.Empty(t, Segment(raster.MustNew(0, 0), DefaultMergeThreshold))
}

func TestSegmentSinglePixel(t *testing.T) {
	g := raster.MustNew(5, 5)
	g.Set(2, 3, true)
	boxes := Segment(g, DefaultMergeThreshold)
	require.Len(t, boxes, 1)
	assert.Equal(t, geometry.RectInt{X: 2, Y: 3}, boxes[0])
}

func TestComponentsDiagonalConnectivity(t *testing.T) {
	g := raster.MustParse(`
		#...#
		.#.#.
		..#..
		.#.#.
		#...#
	`)
	comps := Components(g)
	require.Len(t, comps, 1)
	assert.Len(t, comps[0].Pixels, 9)
	assert.Equal(t, geometry.RectInt{X: 0, Y: 0, Width: 4, Height: 4}, comps[0].Box)
}

func TestComponentsSeparateRegions(t *testing.T) {
	g := raster.MustParse(`
		##.......
		##....#..
		......#..
		.......##
	`)
	comps := Components(g)
	require.Len(t, comps, 2)
	assert.Equal(t, geometry.RectInt{X: 0, Y: 0, Width: 1, Height: 1}, comps[0].Box)
	assert.Equal(t, geometry.RectInt{X: 6, Y: 1, Width: 2, Height: 2}, comps[1].Box)
}

func TestMergeThresholdScenario(t *testing.T) {
	a := geometry.RectInt{X: 0, Y: 0, Width: 5, Height: 4}
	b := geometry.RectInt{X: 6, Y: 2, Width: 4, Height: 4}

	merged := Merge([]geometry.RectInt{a, b}, 5)
	assert.Equal(t, []geometry.RectInt{{X: 0, Y: 0, Width: 10, Height: 6}}, merged)

	separate := Merge([]geometry.RectInt{b, a}, 0)
	assert.Equal(t, []geometry.RectInt{a, b}, separate)
}

func TestOverlapsIsSymmetric(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 500; i++ {
		a := geometry.RectInt{X: rng.Intn(40), Width: rng.Intn(10)}
		b := geometry.RectInt{X: rng.Intn(40), Width: rng.Intn(10)}
		th := rng.Intn(6)
		assert.Equal(t, Overlaps(a, b, th), Overlaps(b, a, th), "a=%v b=%v t=%d", a, b, th)
	}
}

func TestSegmentMergesDottedLetter(t *testing.T) {
	// "i" next to an "l" far enough away to stay separate.
	g := raster.MustParse(`
		.#..........#.
		............#.
		.#..........#.
		.#..........#.
		.#..........#.
	`)
	boxes := Segment(g, 0)
	want := []geometry.RectInt{
		{X: 1, Y: 0, Width: 0, Height: 4},
		{X: 12, Y: 0, Width: 0, Height: 4},
	}
	if diff := cmp.Diff(want, boxes); diff != "" {
		t.Errorf("boxes mismatch (-want +got):\n%s", diff)
	}
}

func TestSegmentOrderedByCenter(t *testing.T) {
	g := raster.MustNew(60, 10)
	g.Fill(geometry.RectInt{X: 40, Y: 1, Width: 3, Height: 3}, true)
	g.Fill(geometry.RectInt{X: 2, Y: 5, Width: 4, Height: 4}, true)
	g.Fill(geometry.RectInt{X: 20, Y: 0, Width: 2, Height: 8}, true)

	boxes := Segment(g, DefaultMergeThreshold)
	require.Len(t, boxes, 3)
	for i := 1; i < len(boxes); i++ {
		assert.Less(t, boxes[i-1].CenterX(), boxes[i].CenterX())
	}
}

func TestSegmentDeterministicAndComplete(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for trial := 0; trial < 20; trial++ {
		g := raster.MustNew(40, 12)
		for i := 0; i < 60; i++ {
			g.Set(rng.Intn(40), rng.Intn(12), true)
		}
		th := rng.Intn(4)

		first := Segment(g, th)
		second := Segment(g, th)
		require.Equal(t, first, second)

		for _, p := range g.Points() {
			hits := 0
			for _, box := range first {
				if box.ContainsPoint(p) {
					hits++
				}
			}
			assert.Equal(t, 1, hits, "pixel %v", p)
		}
	}
}
