package canvas

import (
	"image"
	"image/color"
	"sync"

	"glyphocr/internal/glyphgen"
	"glyphocr/internal/raster"

	"golang.org/x/image/font/gofont/goregular"
)

// labelSize is the font size of box labels before scaling.
const labelSize = 9

var (
	labelMu    sync.Mutex
	labelFont  *glyphgen.Renderer
	labelCache = make(map[string]*raster.Grid)
)

// labelGrid renders label cropped to its ink, or returns nil when it has
// none. Results are cached; the renderer is shared, so calls are serialized.
func labelGrid(label string) *raster.Grid {
	labelMu.Lock()
	defer labelMu.Unlock()

	if g, ok := labelCache[label]; ok {
		return g
	}
	if labelFont == nil {
		r, err := glyphgen.New(goregular.TTF, labelSize)
		if err != nil {
			return nil
		}
		labelFont = r
	}

	var g *raster.Grid
	rendered := labelFont.RenderText(label)
	if box, ok := rendered.Bounds(); ok {
		g = rendered.Sub(box)
	}
	labelCache[label] = g
	return g
}

// drawGrid paints the ink of g at scale with its top-left corner at x, y.
func drawGrid(output *image.RGBA, g *raster.Grid, x, y, scale int, col color.RGBA) {
	for _, p := range g.Points() {
		fillBlock(output, x+p.X*scale, y+p.Y*scale, scale, col)
	}
}

// fillBlock fills a size x size square with its top-left corner at x, y.
func fillBlock(output *image.RGBA, x, y, size int, col color.RGBA) {
	b := output.Bounds()
	for dy := 0; dy < size; dy++ {
		for dx := 0; dx < size; dx++ {
			if (image.Point{x + dx, y + dy}).In(b) {
				output.SetRGBA(x+dx, y+dy, col)
			}
		}
	}
}
