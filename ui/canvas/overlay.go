package canvas

import (
	"image"
	"image/color"

	"glyphocr/internal/raster"
	"glyphocr/pkg/colorutil"
	"glyphocr/pkg/geometry"
)

// Overlay is drawn on top of the glyph canvas.
type Overlay struct {
	// Boxes are outlined; Labels[i], when present, is drawn above Boxes[i].
	Boxes  []geometry.RectInt
	Labels []string

	// Pixels are filled, e.g. a skeleton.
	Pixels []geometry.PointInt

	Color color.RGBA
}

// BoxOverlay outlines boxes with their labels in the box color.
func BoxOverlay(boxes []geometry.RectInt, labels []string) *Overlay {
	return &Overlay{Boxes: boxes, Labels: labels, Color: colorutil.Box}
}

// SkeletonOverlay marks the foreground pixels of g in the skeleton color.
func SkeletonOverlay(g *raster.Grid) *Overlay {
	return &Overlay{Pixels: g.Points(), Color: colorutil.Skeleton}
}

// Render draws g at scale with the overlays in order.
func Render(g *raster.Grid, scale int, overlays ...*Overlay) *image.RGBA {
	if scale < 1 {
		scale = 1
	}
	out := raster.ToImage(g, scale, nil)
	for _, o := range overlays {
		if o == nil {
			continue
		}
		for _, p := range o.Pixels {
			fillBlock(out, p.X*scale, p.Y*scale, scale, o.Color)
		}
		labelScale := max(1, scale/2)
		for i, box := range o.Boxes {
			raster.DrawBox(out, box, scale, o.Color)
			if i >= len(o.Labels) || o.Labels[i] == "" {
				continue
			}
			label := labelGrid(o.Labels[i])
			if label == nil {
				continue
			}
			// Above the box, or below it at the top edge.
			top := box.Y*scale - (label.Height()+1)*labelScale
			if top < 0 {
				top = (box.Bottom()+1)*scale + labelScale
			}
			left := int(box.CenterX()*float64(scale)) + scale/2 - label.Width()*labelScale/2
			drawGrid(out, label, left, top, labelScale, o.Color)
		}
	}
	return out
}
