package ocr

import (
	"fmt"
	"io"
	"math/rand"
	"testing"

	"glyphocr/internal/features"
	"glyphocr/internal/kohonen"
	"glyphocr/internal/raster"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var shapes = map[string]string{
	"O": `
		.#######.
		#########
		##.....##
		##.....##
		##.....##
		##.....##
		##.....##
		#########
		.#######.`,
	"X": `
		##.....##
		###...###
		.###.###.
		..#####..
		...###...
		..#####..
		.###.###.
		###...###
		##.....##`,
	"L": `
		##.......
		##.......
		##.......
		##.......
		##.......
		##.......
		##.......
		#########
		#########`,
	"T": `
		#########
		#########
		...###...
		...###...
		...###...
		...###...
		...###...
		...###...
		...###...`,
}

func shapeGlyphs() map[string]*raster.Grid {
	glyphs := make(map[string]*raster.Grid, len(shapes))
	for label, s := range shapes {
		glyphs[label] = raster.MustParse(s)
	}
	return glyphs
}

// drawCanvas lays the shapes for text out left to right, 15 pixels apart.
func drawCanvas(text string) *raster.Grid {
	glyphs := shapeGlyphs()
	canvas := raster.MustNew(2+15*len(text), 13)
	for i, r := range text {
		g := glyphs[string(r)]
		for y := 0; y < g.Height(); y++ {
			for x := 0; x < g.Width(); x++ {
				if g.At(x, y) {
					canvas.Set(2+15*i+x, 2+y, true)
				}
			}
		}
	}
	return canvas
}

func newTestRecognizer(t *testing.T, seed int64) *Recognizer {
	t.Helper()
	logger := log.New()
	logger.SetOutput(io.Discard)
	r, err := NewRecognizer(DefaultParams(), WithRand(rand.New(rand.NewSource(seed))), WithLogger(logger))
	require.NoError(t, err)
	return r
}

func TestNewRecognizerValidates(t *testing.T) {
	p := DefaultParams()
	p.GridWidth = 0
	_, err := NewRecognizer(p)
	assert.ErrorIs(t, err, features.ErrInvalidSize)

	p = DefaultParams()
	p.MergeThreshold = -1
	_, err = NewRecognizer(p)
	assert.Error(t, err)
}

func TestRecognizeBeforeTraining(t *testing.T) {
	r := newTestRecognizer(t, 1)
	_, _, err := r.Recognize(drawCanvas("LO"))
	assert.ErrorIs(t, err, kohonen.ErrNotTrained)
	_, err = r.RecognizeGlyph(raster.MustParse(shapes["L"]))
	assert.ErrorIs(t, err, kohonen.ErrNotTrained)
	assert.False(t, r.Trained())
	assert.Nil(t, r.Labels())
}

func TestTrainWithoutGlyphs(t *testing.T) {
	r := newTestRecognizer(t, 1)
	_, err := r.Train(nil)
	assert.ErrorIs(t, err, ErrNoGlyphs)
}

func TestRecognizeSyntheticCanvas(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		t.Run(fmt.Sprint(seed), func(t *testing.T) {
			r := newTestRecognizer(t, seed)
			res, err := r.Train(shapeGlyphs())
			require.NoError(t, err)
			require.True(t, res.Converged, "%+v", res)
			assert.True(t, r.Trained())
			assert.Equal(t, []string{"L", "O", "T", "X"}, r.Labels())

			for label, g := range shapeGlyphs() {
				got, err := r.RecognizeGlyph(g)
				require.NoError(t, err)
				assert.Equal(t, label, got)
			}

			text, boxes, err := r.Recognize(drawCanvas("LOXT"))
			require.NoError(t, err)
			assert.Equal(t, "LOXT", text)
			require.Len(t, boxes, 4)
			for i := 1; i < len(boxes); i++ {
				assert.Less(t, boxes[i-1].CenterX(), boxes[i].CenterX())
			}
		})
	}
}

func TestRecognizeBlankCanvas(t *testing.T) {
	r := newTestRecognizer(t, 2)
	_, err := r.Train(shapeGlyphs())
	require.NoError(t, err)

	text, boxes, err := r.Recognize(raster.MustNew(30, 10))
	require.NoError(t, err)
	assert.Equal(t, "", text)
	assert.Empty(t, boxes)
}

func TestLabelBoxes(t *testing.T) {
	r := newTestRecognizer(t, 3)
	canvas := drawCanvas("LOXT")

	glyphs, ignored := r.LabelBoxes(canvas, "L O X T")
	assert.Equal(t, 0, ignored)
	assert.Len(t, glyphs, 4)

	glyphs, ignored = r.LabelBoxes(canvas, "LOX")
	assert.Equal(t, 1, ignored)
	assert.Len(t, glyphs, 3)
	assert.NotContains(t, glyphs, "T")

	glyphs, ignored = r.LabelBoxes(canvas, "LOXTQZ")
	assert.Equal(t, 2, ignored)
	assert.Len(t, glyphs, 4)
}

func TestTrainFromLabeledCanvas(t *testing.T) {
	r := newTestRecognizer(t, 4)
	glyphs, ignored := r.LabelBoxes(drawCanvas("TXOL"), "TXOL")
	require.Equal(t, 0, ignored)

	res, err := r.Train(glyphs)
	require.NoError(t, err)
	require.True(t, res.Converged, "%+v", res)

	text, _, err := r.Recognize(drawCanvas("LOXT"))
	require.NoError(t, err)
	assert.Equal(t, "LOXT", text)
}

func TestFeaturesLeavesGlyphAlone(t *testing.T) {
	r := newTestRecognizer(t, 1)
	g := raster.MustParse(shapes["O"])
	before := g.Clone()
	s, err := r.Features(g)
	require.NoError(t, err)
	assert.True(t, before.Equal(g))
	assert.Equal(t, 49, s.Len())
}

func TestFeaturesFallsBackWhenThinningErases(t *testing.T) {
	// A 2x2 block thins away completely.
	r := newTestRecognizer(t, 1)
	s, err := r.Features(raster.MustParse("##\n##"))
	require.NoError(t, err)
	for _, v := range s.Vector() {
		assert.Equal(t, features.On, v)
	}
}

func TestRecognizeKeepsGlyphsThatThinAway(t *testing.T) {
	dot := raster.MustParse("##\n##")
	glyphs := shapeGlyphs()
	glyphs["."] = dot

	canvas := drawCanvas("L")
	wide := raster.MustNew(22, canvas.Height())
	for _, p := range canvas.Points() {
		wide.Set(p.X, p.Y, true)
	}
	for _, p := range dot.Points() {
		wide.Set(18+p.X, 9+p.Y, true)
	}

	r := newTestRecognizer(t, 1)
	boxes := r.Segment(wide)
	require.Len(t, boxes, 2)
	assert.Equal(t, 18, boxes[1].X)

	for seed := int64(1); seed <= 3; seed++ {
		t.Run(fmt.Sprint(seed), func(t *testing.T) {
			r := newTestRecognizer(t, seed)
			res, err := r.Train(glyphs)
			require.NoError(t, err)
			require.True(t, res.Converged, "%+v", res)

			text, boxes, err := r.Recognize(wide)
			require.NoError(t, err)
			assert.Len(t, boxes, 2)
			assert.Equal(t, "L.", text)
		})
	}
}

func TestGraphemes(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c", "é"}, Graphemes(" a b\tc\né "))
	assert.Empty(t, Graphemes("   "))
}
