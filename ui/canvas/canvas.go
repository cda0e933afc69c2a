// Package canvas provides the drawing pane: a zoomed view of a glyph
// raster that turns mouse strokes into pixel edits and shows segment boxes
// and skeletons as overlays.
package canvas

import (
	"image"
	"sort"

	"glyphocr/internal/raster"
	"glyphocr/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

const (
	minScale = 1
	maxScale = 16
)

// GlyphCanvas displays a raster supplied by a source function and reports
// strokes in raster coordinates.
type GlyphCanvas struct {
	widget.BaseWidget

	source func() *raster.Grid
	width  int
	height int

	overlays map[string]*Overlay

	// Display state
	raster *fynecanvas.Raster
	scale  int

	// Interaction state
	brush    int
	erase    bool
	dragging bool
	last     geometry.PointInt

	// Last rendered output
	lastOutput *image.RGBA

	// Callbacks
	onPaint     func(x, y, radius int, on bool)
	onStrokeEnd func()
}

// NewGlyphCanvas creates a canvas for a width x height raster drawn at
// scale screen pixels per raster pixel.
func NewGlyphCanvas(width, height, scale int, source func() *raster.Grid) *GlyphCanvas {
	gc := &GlyphCanvas{
		source:   source,
		width:    width,
		height:   height,
		overlays: make(map[string]*Overlay),
		brush:    1,
	}
	gc.raster = fynecanvas.NewRaster(gc.draw)
	gc.raster.ScaleMode = fynecanvas.ImageScalePixels
	gc.SetScale(scale)

	gc.ExtendBaseWidget(gc)
	return gc
}

// CreateRenderer implements fyne.Widget.
func (gc *GlyphCanvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(gc.raster)
}

// MinSize keeps the whole raster visible at the current scale.
func (gc *GlyphCanvas) MinSize() fyne.Size {
	return gc.raster.MinSize()
}

// SetScale sets the zoom, clamped to [1, 16].
func (gc *GlyphCanvas) SetScale(scale int) {
	gc.scale = min(max(scale, minScale), maxScale)
	gc.raster.SetMinSize(fyne.NewSize(float32(gc.width*gc.scale), float32(gc.height*gc.scale)))
	gc.Refresh()
}

// SetRasterSize changes the raster dimensions, e.g. after an image import.
func (gc *GlyphCanvas) SetRasterSize(width, height int) {
	gc.width, gc.height = width, height
	gc.SetScale(gc.scale)
}

// Scale returns the zoom.
func (gc *GlyphCanvas) Scale() int { return gc.scale }

// SetBrush sets the brush radius in raster pixels.
func (gc *GlyphCanvas) SetBrush(radius int) { gc.brush = max(radius, 0) }

// Brush returns the brush radius.
func (gc *GlyphCanvas) Brush() int { return gc.brush }

// SetErase switches strokes between drawing and erasing.
func (gc *GlyphCanvas) SetErase(erase bool) { gc.erase = erase }

// SetOverlay sets an overlay with the given name.
func (gc *GlyphCanvas) SetOverlay(name string, overlay *Overlay) {
	gc.overlays[name] = overlay
	gc.Refresh()
}

// ClearOverlay removes an overlay by name.
func (gc *GlyphCanvas) ClearOverlay(name string) {
	delete(gc.overlays, name)
	gc.Refresh()
}

// ClearAllOverlays removes all overlays.
func (gc *GlyphCanvas) ClearAllOverlays() {
	gc.overlays = make(map[string]*Overlay)
	gc.Refresh()
}

// OnPaint sets the callback for brush dabs, in raster coordinates.
func (gc *GlyphCanvas) OnPaint(callback func(x, y, radius int, on bool)) {
	gc.onPaint = callback
}

// OnStrokeEnd sets the callback for the end of a drag stroke.
func (gc *GlyphCanvas) OnStrokeEnd(callback func()) {
	gc.onStrokeEnd = callback
}

// Refresh redraws the raster.
func (gc *GlyphCanvas) Refresh() {
	if gc.raster != nil {
		gc.raster.Refresh()
	}
	gc.BaseWidget.Refresh()
}

// RenderedOutput returns the last rendered image, or nil.
func (gc *GlyphCanvas) RenderedOutput() *image.RGBA {
	return gc.lastOutput
}

// Dragged paints along the stroke, filling gaps between events.
func (gc *GlyphCanvas) Dragged(ev *fyne.DragEvent) {
	p, ok := toRaster(ev.Position, gc.Size(), gc.width, gc.height)
	if !ok {
		gc.dragging = false
		return
	}
	from := p
	if gc.dragging {
		from = gc.last
	}
	for _, q := range strokePoints(from, p) {
		gc.paint(q)
	}
	gc.Refresh()
	gc.dragging = true
	gc.last = p
}

// DragEnd finishes a stroke.
func (gc *GlyphCanvas) DragEnd() {
	gc.dragging = false
	if gc.onStrokeEnd != nil {
		gc.onStrokeEnd()
	}
}

// Tapped paints a single dab, which counts as a whole stroke.
func (gc *GlyphCanvas) Tapped(ev *fyne.PointEvent) {
	if p, ok := toRaster(ev.Position, gc.Size(), gc.width, gc.height); ok {
		gc.paint(p)
		gc.Refresh()
		gc.DragEnd()
	}
}

// TappedSecondary erases a single dab.
func (gc *GlyphCanvas) TappedSecondary(ev *fyne.PointEvent) {
	p, ok := toRaster(ev.Position, gc.Size(), gc.width, gc.height)
	if !ok || gc.onPaint == nil {
		return
	}
	gc.onPaint(p.X, p.Y, gc.brush, false)
	gc.Refresh()
	gc.DragEnd()
}

func (gc *GlyphCanvas) paint(p geometry.PointInt) {
	if gc.onPaint == nil {
		return
	}
	gc.onPaint(p.X, p.Y, gc.brush, !gc.erase)
}

func (gc *GlyphCanvas) draw(w, h int) image.Image {
	g := gc.source()
	if g == nil {
		g = raster.MustNew(gc.width, gc.height)
	}

	names := make([]string, 0, len(gc.overlays))
	for name := range gc.overlays {
		names = append(names, name)
	}
	sort.Strings(names)
	overlays := make([]*Overlay, len(names))
	for i, name := range names {
		overlays[i] = gc.overlays[name]
	}

	gc.lastOutput = Render(g, gc.scale, overlays...)
	return gc.lastOutput
}

// toRaster converts a widget position into raster coordinates. The raster
// is stretched over the widget, so the widget size sets the ratio.
func toRaster(pos fyne.Position, size fyne.Size, width, height int) (geometry.PointInt, bool) {
	if size.Width <= 0 || size.Height <= 0 {
		return geometry.PointInt{}, false
	}
	if pos.X < 0 || pos.Y < 0 || pos.X >= size.Width || pos.Y >= size.Height {
		return geometry.PointInt{}, false
	}
	x := int(pos.X / size.Width * float32(width))
	y := int(pos.Y / size.Height * float32(height))
	return geometry.PointInt{X: min(x, width-1), Y: min(y, height-1)}, true
}

// strokePoints returns the 8-connected points from a to b inclusive.
func strokePoints(a, b geometry.PointInt) []geometry.PointInt {
	dx, dy := b.X-a.X, b.Y-a.Y
	steps := max(abs(dx), abs(dy))
	if steps == 0 {
		return []geometry.PointInt{a}
	}
	out := make([]geometry.PointInt, 0, steps+1)
	for i := 0; i <= steps; i++ {
		out = append(out, geometry.PointInt{
			X: a.X + roundDiv(dx*i, steps),
			Y: a.Y + roundDiv(dy*i, steps),
		})
	}
	return out
}

// roundDiv divides rounding half away from zero.
func roundDiv(n, d int) int {
	if n >= 0 {
		return (2*n + d) / (2 * d)
	}
	return -((-2*n + d) / (2 * d))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
