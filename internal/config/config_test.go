package config

import (
	"os"
	"path/filepath"
	"testing"

	"glyphocr/internal/kohonen"
	"glyphocr/internal/ocr"

	"github.com/google/go-cmp/cmp"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}

	p, err := cfg.OCRParams()
	require.NoError(t, err)
	assert.Equal(t, ocr.DefaultParams(), p)
	assert.Equal(t, log.InfoLevel, cfg.Level())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glyphocr.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
grid_height: 5
thin: false
train:
  method: subtractive
  max_retries: 3
binarize:
  use_otsu: false
  fixed_threshold: 90
log_level: debug
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.GridWidth)
	assert.Equal(t, 5, cfg.GridHeight)
	assert.False(t, cfg.Thin)
	assert.Equal(t, 3, cfg.Train.MaxRetries)
	assert.Equal(t, 0.4, cfg.Train.LearnRate)
	assert.False(t, cfg.Binarize.UseOtsu)
	assert.Equal(t, 90, cfg.Binarize.FixedThreshold)
	assert.Equal(t, 1024, cfg.Binarize.MaxDim)
	assert.Equal(t, log.DebugLevel, cfg.Level())

	p, err := cfg.OCRParams()
	require.NoError(t, err)
	assert.Equal(t, kohonen.Subtractive, p.Train.Method)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("GLYPHOCR_GRID_WIDTH", "9")
	t.Setenv("GLYPHOCR_TRAIN_LEARN_RATE", "0.25")
	t.Setenv("GLYPHOCR_BINARIZE_DILATE", "2")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.GridWidth)
	assert.Equal(t, 0.25, cfg.Train.LearnRate)
	assert.Equal(t, 2, cfg.Binarize.DilateIterations)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero grid", func(c *Config) { c.GridWidth = 0 }},
		{"negative merge threshold", func(c *Config) { c.MergeThreshold = -1 }},
		{"unknown method", func(c *Config) { c.Train.Method = "sideways" }},
		{"negative rate", func(c *Config) { c.Train.LearnRate = -0.1 }},
		{"font size", func(c *Config) { c.FontSize = 0 }},
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
	assert.NoError(t, Default().Validate())
}

func TestLoadRejectsInvalidEnv(t *testing.T) {
	t.Setenv("GLYPHOCR_TRAIN_METHOD", "sideways")
	_, err := Load("")
	assert.ErrorIs(t, err, ErrInvalid)
}
