// Package glyphgen renders TrueType text into glyph canvases. It provides
// a ready-made training set for the recognizer and synthetic canvases for
// evaluating it.
package glyphgen

import (
	"fmt"
	"image"
	"os"

	"glyphocr/internal/raster"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// DefaultAlphabet is the set of glyphs rendered by TrainingSet when no
// alphabet is given.
const DefaultAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DefaultSize is the default font size in pixels (72 DPI).
const DefaultSize = 32.0

// alphaThreshold keeps anti-aliased edge pixels of at least 25% coverage.
const alphaThreshold = 64

// Renderer draws text with one font at one size.
type Renderer struct {
	font    *truetype.Font
	face    font.Face
	size    float64
	spacing int
	margin  int
}

// New parses a TrueType font and returns a renderer at size pixels.
// Glyphs in RenderText are separated by at least half the size, so they
// never fall within a typical merge threshold of each other.
func New(ttf []byte, size float64) (*Renderer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("glyphgen: invalid font size %v", size)
	}
	f, err := freetype.ParseFont(ttf)
	if err != nil {
		return nil, fmt.Errorf("glyphgen: failed to parse font: %w", err)
	}
	return &Renderer{
		font: f,
		face: truetype.NewFace(f, &truetype.Options{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		}),
		size:    size,
		spacing: int(size/2) + 1,
		margin:  int(size / 4),
	}, nil
}

// Default returns a renderer for the Go Regular font at DefaultSize.
func Default() *Renderer {
	r, err := New(goregular.TTF, DefaultSize)
	if err != nil {
		panic(err)
	}
	return r
}

// Load reads a TrueType font file.
func Load(path string, size float64) (*Renderer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return New(data, size)
}

// Size returns the font size in pixels.
func (r *Renderer) Size() float64 { return r.size }

// RenderText draws text on a single line. Each rune starts on a whole
// pixel, so a glyph rasterizes identically wherever it appears. Whitespace
// advances the pen without drawing.
func (r *Renderer) RenderText(text string) *raster.Grid {
	runes := []rune(text)
	if len(runes) == 0 {
		return raster.MustNew(0, 0)
	}

	m := r.face.Metrics()
	ascent := m.Ascent.Ceil()
	height := ascent + m.Descent.Ceil() + 2*r.margin

	width := 2 * r.margin
	for i, ch := range runes {
		width += r.advance(ch)
		if i > 0 {
			width += r.spacing
		}
	}

	img := image.NewAlpha(image.Rect(0, 0, width, height))
	ctx := r.context(img)

	x := r.margin
	for _, ch := range runes {
		if ch != ' ' {
			_, _ = ctx.DrawString(string(ch), freetype.Pt(x, r.margin+ascent))
		}
		x += r.advance(ch) + r.spacing
	}
	return fromAlpha(img)
}

// RenderGlyph draws a single rune and crops it to its ink. A rune with no
// ink, such as a space, yields an empty grid.
func (r *Renderer) RenderGlyph(ch rune) *raster.Grid {
	g := r.RenderText(string(ch))
	box, ok := g.Bounds()
	if !ok {
		return raster.MustNew(0, 0)
	}
	return g.Sub(box)
}

// TrainingSet renders every rune of alphabet (DefaultAlphabet when empty)
// and returns label -> cropped glyph. Runes without ink are skipped.
func (r *Renderer) TrainingSet(alphabet string) map[string]*raster.Grid {
	if alphabet == "" {
		alphabet = DefaultAlphabet
	}
	out := make(map[string]*raster.Grid)
	for _, ch := range alphabet {
		g := r.RenderGlyph(ch)
		if g.Count() == 0 {
			continue
		}
		out[string(ch)] = g
	}
	return out
}

func (r *Renderer) advance(ch rune) int {
	adv, ok := r.face.GlyphAdvance(ch)
	if !ok {
		return int(r.size / 2)
	}
	return adv.Ceil()
}

func (r *Renderer) context(dst *image.Alpha) *freetype.Context {
	ctx := freetype.NewContext()
	ctx.SetDPI(72)
	ctx.SetFont(r.font)
	ctx.SetFontSize(r.size)
	ctx.SetClip(dst.Bounds())
	ctx.SetDst(dst)
	ctx.SetSrc(image.Opaque)
	ctx.SetHinting(font.HintingFull)
	return ctx
}

func fromAlpha(img *image.Alpha) *raster.Grid {
	b := img.Bounds()
	g := raster.MustNew(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if img.AlphaAt(x, y).A > alphaThreshold {
				g.Set(x, y, true)
			}
		}
	}
	return g
}
