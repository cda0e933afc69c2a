package thin

import (
	"math/rand"
	"testing"

	"glyphocr/internal/raster"
	"glyphocr/internal/segment"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertGrid(t *testing.T, want string, got *raster.Grid) {
	t.Helper()
	w := raster.MustParse(want)
	if diff := cmp.Diff(w.Rows(), got.Rows()); diff != "" {
		t.Errorf("grid mismatch (-want +got):\n%s", diff)
	}
}

func TestNeighborsOrder(t *testing.T) {
	g := raster.MustParse(`
		#..
		.#.
		..#
	`)
	n := Neighbors(g, 1, 1)
	// Only P5 (SE) and P9 (NW) are set.
	assert.Equal(t, [8]bool{false, false, false, true, false, false, false, true}, n)
	assert.Equal(t, 2, NeighborCount(n))
	assert.Equal(t, 2, Transitions(n))
}

func TestTransitionsWrapAround(t *testing.T) {
	// P9 and P2 set: the P9->P2 step is not a new transition.
	n := [8]bool{true, false, false, false, false, false, false, true}
	assert.Equal(t, 1, Transitions(n))
}

func TestThinFilledSquare(t *testing.T) {
	g := raster.MustParse(`
		.......
		.#####.
		.#####.
		.#####.
		.#####.
		.#####.
		.......
	`)
	removed := Thin(g)
	assert.Equal(t, 24, removed)
	require.Equal(t, 1, g.Count())
	assert.True(t, g.At(3, 3))
}

func TestThinBar(t *testing.T) {
	g := raster.MustParse(`
		.........
		.#######.
		.#######.
		.#######.
		.........
	`)
	assert.Equal(t, 17, Thin(g))
	assertGrid(t, `
		.........
		.........
		..####...
		.........
		.........
	`, g)
}

func TestThinThickL(t *testing.T) {
	g := raster.MustParse(`
		........
		.##.....
		.##.....
		.##.....
		.##.....
		.######.
		.######.
		........
	`)
	assert.Equal(t, 12, Thin(g))
	assertGrid(t, `
		........
		........
		.#......
		.#......
		.#......
		.#####..
		........
		........
	`, g)
	assert.Len(t, segment.Components(g), 1)
}

func TestThinPreservesHole(t *testing.T) {
	g := raster.MustParse(`
		..........
		.########.
		.########.
		.##....##.
		.##....##.
		.##....##.
		.########.
		.########.
		..........
	`)
	assert.Equal(t, 22, Thin(g))
	assertGrid(t, `
		..........
		..######..
		.##....#..
		.#.....#..
		.#.....#..
		.#.....#..
		.#######..
		..........
		..........
	`, g)
}

func TestThinIgnoresBorder(t *testing.T) {
	g := raster.MustParse(`
		###
		###
		###
	`)
	// Only the center is evaluated and it has eight neighbors.
	assert.Equal(t, 0, Thin(g))
	assert.Equal(t, 9, g.Count())
}

func TestThinIdempotentAndConnected(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for trial := 0; trial < 25; trial++ {
		g := raster.MustNew(24, 24)
		// A few overlapping blobs form one thick stroke.
		x, y := 4+rng.Intn(4), 4+rng.Intn(4)
		for i := 0; i < 6; i++ {
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 4; dx++ {
					g.Set(x+dx, y+dy, true)
				}
			}
			x = min(max(x+rng.Intn(5)-2, 1), 18)
			y = min(max(y+rng.Intn(5)-2, 1), 18)
		}
		before := len(segment.Components(g))

		Thin(g)
		// Even-sided solid squares erode away entirely; anything left
		// keeps its connectivity.
		if g.Count() > 0 {
			assert.Equal(t, before, len(segment.Components(g)))
		}

		again := g.Clone()
		assert.Equal(t, 0, Thin(again))
		assert.True(t, g.Equal(again))
	}
}

func TestSkeletonLeavesInputAlone(t *testing.T) {
	g := raster.MustParse(`
		.....
		.###.
		.###.
		.###.
		.....
	`)
	s := Skeleton(g)
	assert.Equal(t, 9, g.Count())
	assert.Less(t, s.Count(), 9)
}
