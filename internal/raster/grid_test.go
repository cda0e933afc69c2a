package raster

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"glyphocr/pkg/colorutil"
	"glyphocr/pkg/geometry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const letterT = `
#####
..#..
..#..
..#..
`

func TestParseStringRoundTrip(t *testing.T) {
	g, err := Parse(letterT)
	require.NoError(t, err)
	assert.Equal(t, 5, g.Width())
	assert.Equal(t, 4, g.Height())
	assert.Equal(t, 8, g.Count())

	want := []string{"#####", "..#..", "..#..", "..#.."}
	if diff := cmp.Diff(want, g.Rows()); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}

	again, err := Parse(g.String())
	require.NoError(t, err)
	assert.True(t, g.Equal(again))
}

func TestParseErrors(t *testing.T) {
	_, err := Parse("##\n#")
	assert.ErrorIs(t, err, ErrParse)
	_, err = Parse("#x")
	assert.ErrorIs(t, err, ErrParse)
	_, err = New(-1, 2)
	assert.ErrorIs(t, err, ErrInvalidSize)

	empty, err := Parse("")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Width())
}

func TestOutOfBoundsAccess(t *testing.T) {
	g := MustNew(3, 3)
	g.Set(-1, 0, true)
	g.Set(3, 3, true)
	assert.Equal(t, 0, g.Count())
	assert.False(t, g.At(-5, 1))
	assert.False(t, g.At(1, 9))
}

func TestBoundsAndSub(t *testing.T) {
	g := MustParse(`
		.......
		..##...
		...#...
		.......
	`)
	box, ok := g.Bounds()
	require.True(t, ok)
	assert.Equal(t, geometry.RectInt{X: 2, Y: 1, Width: 1, Height: 1}, box)

	sub := g.Sub(box)
	assert.Equal(t, []string{"##", ".#"}, sub.Rows())

	clipped := g.Sub(geometry.RectInt{X: 5, Y: 2, Width: 10, Height: 10})
	assert.Equal(t, 2, clipped.Width())
	assert.Equal(t, 2, clipped.Height())

	_, ok = MustNew(4, 4).Bounds()
	assert.False(t, ok)
}

func TestPad(t *testing.T) {
	g := MustParse("#.\n.#")
	p := g.Pad(1)
	assert.Equal(t, []string{"....", ".#..", "..#.", "...."}, p.Rows())
	assert.True(t, g.Equal(g.Pad(0)))
}

func TestCloneIsIndependent(t *testing.T) {
	g := MustParse(letterT)
	c := g.Clone()
	c.Set(0, 0, false)
	assert.True(t, g.At(0, 0))
	assert.False(t, g.Equal(c))
}

func TestFromImageAndToImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 2))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.SetGray(1, 0, color.Gray{Y: 0})
	img.SetGray(3, 1, color.Gray{Y: 100})

	g := FromImage(img, DefaultThreshold)
	assert.Equal(t, []string{".#..", "...#"}, g.Rows())

	out := ToImage(g, 2, nil)
	assert.Equal(t, image.Rect(0, 0, 8, 4), out.Bounds())
	assert.Equal(t, colorutil.Ink, out.RGBAAt(2, 0))
	assert.Equal(t, colorutil.Paper, out.RGBAAt(0, 0))

	back := FromImage(out, DefaultThreshold)
	assert.Equal(t, 8, back.Count())
}

func TestSaveAndLoad(t *testing.T) {
	g := MustParse(letterT)
	path := filepath.Join(t.TempDir(), "t.png")
	require.NoError(t, SavePNG(path, ToImage(g, 1, nil)))

	loaded, err := Load(path, DefaultThreshold)
	require.NoError(t, err)
	assert.True(t, g.Equal(loaded))

	_, err = Load(filepath.Join(t.TempDir(), "missing.png"), DefaultThreshold)
	assert.Error(t, err)
}
