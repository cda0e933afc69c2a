package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "preferences.json")
	p := LoadFrom(path)
	assert.Equal(t, 3, p.Int(KeyBrush, 3))
	assert.True(t, p.Bool(KeyShowSkeleton, true))

	p.SetInt(KeyBrush, 2)
	p.SetBool(KeyShowSkeleton, false)
	p.SetString(KeyLastDir, "/tmp/glyphs")
	require.NoError(t, p.Save())

	q := LoadFrom(path)
	assert.Equal(t, 2, q.Int(KeyBrush, 3))
	assert.False(t, q.Bool(KeyShowSkeleton, true))
	assert.Equal(t, "/tmp/glyphs", q.String(KeyLastDir))
	assert.Equal(t, "", q.String(KeySamplesPath))
}

func TestMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	p := LoadFrom(path)
	assert.Equal(t, 4, p.Int(KeyScale, 4))
	assert.Equal(t, path, p.Path())
}

func TestWrongType(t *testing.T) {
	p := LoadFrom(filepath.Join(t.TempDir(), "preferences.json"))
	p.SetString(KeyBrush, "big")
	assert.Equal(t, 1, p.Int(KeyBrush, 1))
	assert.False(t, p.Bool(KeyBrush, false))
}
