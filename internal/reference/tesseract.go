// Package reference reads glyph canvases with Tesseract. It bootstraps
// labels for unlabeled samples and serves as a baseline when evaluating
// the Kohonen recognizer.
package reference

import (
	"bytes"
	"fmt"
	"image/png"
	"strings"
	"unicode"

	"glyphocr/internal/raster"
	"glyphocr/pkg/geometry"

	"github.com/otiai10/gosseract/v2"
)

// GlyphChars is the default whitelist: the characters the recognizer is
// usually trained on.
const GlyphChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// minHeight is the rendered height Tesseract reads most reliably.
const minHeight = 150

// margin is the blank border added around a canvas before rendering.
const margin = 4

// Engine wraps a Tesseract client.
type Engine struct {
	client    *gosseract.Client
	whitelist string
}

// NewEngine creates an engine restricted to whitelist (GlyphChars when
// empty).
func NewEngine(whitelist string) (*Engine, error) {
	client := gosseract.NewClient()

	if err := client.SetLanguage("eng"); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}

	// Single glyphs aren't dictionary words.
	_ = client.SetVariable("load_system_dawg", "false")
	_ = client.SetVariable("load_freq_dawg", "false")

	if whitelist == "" {
		whitelist = GlyphChars
	}
	return &Engine{client: client, whitelist: whitelist}, nil
}

// Close releases the Tesseract client.
func (e *Engine) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// ReadLine reads the whole canvas as one line of text.
func (e *Engine) ReadLine(g *raster.Grid) (string, error) {
	return e.read(g, gosseract.PSM_SINGLE_LINE)
}

// ReadGlyph reads one glyph raster and returns its first character, or ""
// when Tesseract sees nothing.
func (e *Engine) ReadGlyph(g *raster.Grid) (string, error) {
	text, err := e.read(g, gosseract.PSM_SINGLE_CHAR)
	if err != nil {
		return "", err
	}
	for _, r := range text {
		return string(r), nil
	}
	return "", nil
}

// ReadBoxes reads each box of canvas as a single glyph.
func (e *Engine) ReadBoxes(canvas *raster.Grid, boxes []geometry.RectInt) ([]string, error) {
	out := make([]string, len(boxes))
	for i, box := range boxes {
		text, err := e.ReadGlyph(canvas.Sub(box))
		if err != nil {
			return nil, fmt.Errorf("failed to read glyph at %v: %w", box, err)
		}
		out[i] = text
	}
	return out, nil
}

func (e *Engine) read(g *raster.Grid, mode gosseract.PageSegMode) (string, error) {
	if g.Count() == 0 {
		return "", nil
	}

	buf, err := encodeForOCR(g)
	if err != nil {
		return "", err
	}

	if err := e.client.SetPageSegMode(mode); err != nil {
		return "", fmt.Errorf("failed to set PSM: %w", err)
	}
	if err := e.client.SetWhitelist(e.whitelist); err != nil {
		return "", fmt.Errorf("failed to set whitelist: %w", err)
	}
	if err := e.client.SetImageFromBytes(buf); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return cleanText(text), nil
}

// encodeForOCR renders g with a margin, upscaled to at least minHeight
// pixels tall, as PNG.
func encodeForOCR(g *raster.Grid) ([]byte, error) {
	padded := g.Pad(margin)
	scale := max(1, (minHeight+padded.Height()-1)/max(padded.Height(), 1))

	var buf bytes.Buffer
	if err := png.Encode(&buf, raster.ToImage(padded, scale, nil)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// cleanText removes whitespace from Tesseract output.
func cleanText(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
