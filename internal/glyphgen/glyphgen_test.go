package glyphgen

import (
	"io"
	"math/rand"
	"testing"
	"unicode/utf8"

	"glyphocr/internal/ocr"
	"glyphocr/internal/segment"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New([]byte("not a font"), 12)
	assert.Error(t, err)

	_, err = New(nil, 0)
	assert.Error(t, err)
}

func TestTrainingSetCoversAlphabet(t *testing.T) {
	set := Default().TrainingSet("")
	assert.Len(t, set, utf8.RuneCountInString(DefaultAlphabet))
	for label, g := range set {
		box, ok := g.Bounds()
		require.True(t, ok, label)
		assert.Equal(t, 0, box.X, label)
		assert.Equal(t, 0, box.Y, label)
	}
}

func TestRenderGlyphBlank(t *testing.T) {
	r := Default()
	assert.Equal(t, 0, r.RenderGlyph(' ').Count())
	assert.NotContains(t, r.TrainingSet("a b"), " ")
}

func TestRenderTextSeparatesGlyphs(t *testing.T) {
	g := Default().RenderText("lo x")
	boxes := segment.Segment(g, segment.DefaultMergeThreshold)
	assert.Len(t, boxes, 3)
}

func TestDottedGlyphIsOneSegment(t *testing.T) {
	g := Default().RenderGlyph('i')
	assert.Len(t, segment.Segment(g, segment.DefaultMergeThreshold), 1)
}

func TestGlyphRasterIsPositionIndependent(t *testing.T) {
	r := Default()
	canvas := r.RenderText("ox")
	boxes := segment.Segment(canvas, segment.DefaultMergeThreshold)
	require.Len(t, boxes, 2)
	assert.True(t, canvas.Sub(boxes[1]).Equal(r.RenderGlyph('x')))
}

func TestRecognizeRenderedText(t *testing.T) {
	logger := log.New()
	logger.SetOutput(io.Discard)

	r := Default()
	for seed := int64(1); seed <= 3; seed++ {
		rec, err := ocr.NewRecognizer(ocr.DefaultParams(),
			ocr.WithRand(rand.New(rand.NewSource(seed))), ocr.WithLogger(logger))
		require.NoError(t, err)

		res, err := rec.Train(r.TrainingSet("lox"))
		require.NoError(t, err)
		require.True(t, res.Converged, "%+v", res)

		text, boxes, err := rec.Recognize(r.RenderText("xol"))
		require.NoError(t, err)
		assert.Equal(t, "xol", text)
		assert.Len(t, boxes, 3)
	}
}
