package app

import (
	"io"
	"math/rand"
	"path/filepath"
	"testing"

	"glyphocr/internal/config"
	"glyphocr/internal/glyphgen"
	"glyphocr/internal/kohonen"
	"glyphocr/internal/ocr"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState(t *testing.T) *State {
	t.Helper()
	logger := log.New()
	logger.SetOutput(io.Discard)

	cfg := config.Default()
	cfg.SamplesPath = filepath.Join(t.TempDir(), "samples.json")
	s, err := NewState(cfg, logger, ocr.WithRand(rand.New(rand.NewSource(7))))
	require.NoError(t, err)
	return s
}

func TestNewStateRejectsBadConfig(t *testing.T) {
	cfg := config.Default()
	cfg.GridWidth = 0
	_, err := NewState(cfg, nil)
	assert.Error(t, err)
}

func TestPaintAndClear(t *testing.T) {
	s := newTestState(t)
	changes := 0
	s.On(EventCanvasChanged, func(interface{}) { changes++ })

	s.Paint(10, 10, 1, true)
	assert.Equal(t, 9, s.Canvas().Count())

	s.Paint(0, 0, 2, true) // clipped to the corner
	assert.Equal(t, 18, s.Canvas().Count())

	s.Paint(10, 10, 0, false)
	assert.Equal(t, 17, s.Canvas().Count())

	s.ClearCanvas()
	assert.Equal(t, 0, s.Canvas().Count())
	assert.Equal(t, 4, changes)
}

func TestCanvasIsACopy(t *testing.T) {
	s := newTestState(t)
	c := s.Canvas()
	c.Set(1, 1, true)
	assert.Equal(t, 0, s.Canvas().Count())
}

func TestRecognizeUntrained(t *testing.T) {
	s := newTestState(t)
	assert.False(t, s.Trained())
	_, err := s.Recognize()
	assert.ErrorIs(t, err, kohonen.ErrNotTrained)

	_, err = s.Train()
	assert.ErrorIs(t, err, ocr.ErrNoGlyphs)
}

func TestLearnTrainRecognize(t *testing.T) {
	s := newTestState(t)
	font := glyphgen.Default()

	var modified []bool
	s.On(EventModified, func(d interface{}) { modified = append(modified, d.(bool)) })
	var recognized Recognition
	s.On(EventRecognized, func(d interface{}) { recognized = d.(Recognition) })

	s.SetCanvas(font.RenderText("lox"))
	assert.Len(t, s.Boxes(), 3)

	added, ignored := s.LearnCanvas("l o x")
	assert.Equal(t, 3, added)
	assert.Equal(t, 0, ignored)
	assert.True(t, s.Modified())
	assert.Equal(t, []string{"l", "o", "x"}, s.Samples().Labels())

	res, err := s.Train()
	require.NoError(t, err)
	require.True(t, res.Converged, "%+v", res)
	assert.True(t, s.Trained())

	s.SetCanvas(font.RenderText("xlo"))
	got, err := s.Recognize()
	require.NoError(t, err)
	assert.Equal(t, "xlo", got.Text)
	assert.Len(t, got.Boxes, 3)
	assert.Equal(t, got, recognized)
	assert.Equal(t, got, s.LastRecognition())

	s.ClearCanvas()
	assert.Empty(t, s.LastRecognition().Text)

	require.NoError(t, s.SaveSamples())
	assert.False(t, s.Modified())
	assert.Equal(t, []bool{true, false}, modified)
}

func TestLoadSamples(t *testing.T) {
	s := newTestState(t)
	assert.Equal(t, 2, s.AddFontSamples(glyphgen.Default(), "ab"))
	require.NoError(t, s.SaveSamples())

	other := newTestState(t)
	require.NoError(t, other.LoadSamples(s.Samples().FilePath))
	assert.Equal(t, []string{"a", "b"}, other.Samples().Labels())
	assert.False(t, other.Modified())

	assert.True(t, other.RemoveSample("a"))
	assert.False(t, other.RemoveSample("a"))
	assert.Equal(t, []string{"b"}, other.Samples().Labels())
	assert.True(t, other.Modified())
}
