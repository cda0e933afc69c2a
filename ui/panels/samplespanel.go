// Package panels provides the side panels of the main window.
package panels

import (
	"fmt"

	"glyphocr/internal/app"
	"glyphocr/internal/samples"
	"glyphocr/ui/canvas"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// previewScale is the zoom of the selected glyph's preview.
const previewScale = 4

// SamplesPanel lists the stored samples and previews the selected one.
type SamplesPanel struct {
	state *app.State
	root  fyne.CanvasObject

	// Sample list
	list     *widget.List
	entries  []samples.Sample
	selected int

	// Detail
	preview   *fynecanvas.Image
	info      *widget.Label
	deleteBtn *widget.Button
}

// NewSamplesPanel creates a panel bound to state. It refreshes itself
// whenever the sample set changes.
func NewSamplesPanel(state *app.State) *SamplesPanel {
	sp := &SamplesPanel{state: state, selected: -1}

	sp.list = widget.NewList(
		func() int { return len(sp.entries) },
		func() fyne.CanvasObject { return widget.NewLabel("template") },
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if id < len(sp.entries) {
				e := sp.entries[id]
				obj.(*widget.Label).SetText(fmt.Sprintf("%s  (%s)", e.Label, e.Source))
			}
		},
	)
	sp.list.OnSelected = sp.selectSample
	sp.list.OnUnselected = func(widget.ListItemID) { sp.selectSample(-1) }

	sp.preview = fynecanvas.NewImageFromImage(nil)
	sp.preview.FillMode = fynecanvas.ImageFillContain
	sp.preview.ScaleMode = fynecanvas.ImageScalePixels
	sp.preview.SetMinSize(fyne.NewSize(96, 96))

	sp.info = widget.NewLabel("")
	sp.deleteBtn = widget.NewButton("Delete Sample", sp.onDelete)
	sp.deleteBtn.Disable()

	detail := container.NewVBox(sp.preview, sp.info, sp.deleteBtn)
	sp.root = container.NewBorder(widget.NewLabel("Samples"), detail, nil, nil, sp.list)

	state.On(app.EventSamplesChanged, func(interface{}) { sp.Refresh() })
	sp.Refresh()
	return sp
}

// Widget returns the panel's root object.
func (sp *SamplesPanel) Widget() fyne.CanvasObject { return sp.root }

// Refresh rebuilds the list from the sample set.
func (sp *SamplesPanel) Refresh() {
	sp.entries = sp.state.Samples().List()
	sp.list.UnselectAll()
	sp.list.Refresh()
	sp.selectSample(-1)
}

func (sp *SamplesPanel) selectSample(id widget.ListItemID) {
	if id < 0 || id >= len(sp.entries) {
		sp.selected = -1
		sp.preview.Image = nil
		sp.preview.Refresh()
		sp.info.SetText(fmt.Sprintf("%d samples", len(sp.entries)))
		sp.deleteBtn.Disable()
		return
	}

	sp.selected = id
	e := sp.entries[id]
	g, err := e.Grid()
	if err != nil {
		sp.info.SetText(err.Error())
		sp.deleteBtn.Enable()
		return
	}
	sp.preview.Image = canvas.Render(g, previewScale)
	sp.preview.Refresh()
	sp.info.SetText(fmt.Sprintf("%q: %dx%d, %s\n%s",
		e.Label, g.Width(), g.Height(), e.Source, e.Timestamp.Format("2006-01-02 15:04")))
	sp.deleteBtn.Enable()
}

// onDelete removes the selected sample.
func (sp *SamplesPanel) onDelete() {
	if sp.selected < 0 || sp.selected >= len(sp.entries) {
		return
	}
	sp.state.RemoveSample(sp.entries[sp.selected].Label)
}
