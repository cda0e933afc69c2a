package reference

import (
	"bytes"
	"image/png"
	"testing"

	"glyphocr/internal/raster"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	assert.Equal(t, "abc", cleanText(" a b\nc\t"))
	assert.Equal(t, "", cleanText("\n\n"))
}

func TestEncodeForOCRUpscales(t *testing.T) {
	g := raster.MustParse(`
		.#.
		###`)
	buf, err := encodeForOCR(g)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(buf))
	require.NoError(t, err)

	// 2 rows plus a margin on each side, scaled to at least minHeight.
	padded := 2 + 2*margin
	scale := (minHeight + padded - 1) / padded
	assert.Equal(t, padded*scale, img.Bounds().Dy())
	assert.Equal(t, (3+2*margin)*scale, img.Bounds().Dx())
	assert.GreaterOrEqual(t, img.Bounds().Dy(), minHeight)
}
