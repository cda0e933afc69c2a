// Package mainwindow provides the demo's main window: a drawing pane with
// controls to label, train and recognize.
package mainwindow

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"glyphocr/internal/app"
	"glyphocr/internal/binarize"
	"glyphocr/internal/glyphgen"
	"glyphocr/internal/kohonen"
	"glyphocr/internal/raster"
	"glyphocr/internal/reference"
	"glyphocr/internal/thin"
	"glyphocr/internal/version"
	"glyphocr/ui/canvas"
	"glyphocr/ui/panels"
	"glyphocr/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

const (
	appTitle     = "GlyphOCR"
	defaultScale = 5
	defaultBrush = 1
)

const (
	overlayBoxes    = "boxes"
	overlaySkeleton = "skeleton"
)

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app   fyne.App
	state *app.State
	prefs *prefs.Prefs

	canvas     *canvas.GlyphCanvas
	samples    *panels.SamplesPanel
	statusBar  *widget.Label
	result     *widget.Label
	labelEntry *widget.Entry
	trainBtn   *widget.Button

	showSkeleton bool
}

// New creates a new main window.
func New(fyneApp fyne.App, state *app.State, p *prefs.Prefs) *MainWindow {
	mw := &MainWindow{
		Window:       fyneApp.NewWindow(appTitle),
		app:          fyneApp,
		state:        state,
		prefs:        p,
		showSkeleton: p.Bool(prefs.KeyShowSkeleton, false),
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()
	mw.refreshOverlays()

	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	grid := mw.state.Canvas()
	mw.canvas = canvas.NewGlyphCanvas(grid.Width(), grid.Height(),
		mw.prefs.Int(prefs.KeyScale, defaultScale), mw.state.Canvas)
	mw.canvas.SetBrush(mw.prefs.Int(prefs.KeyBrush, defaultBrush))
	mw.canvas.OnPaint(mw.state.Paint)
	mw.canvas.OnStrokeEnd(mw.refreshOverlays)

	mw.statusBar = widget.NewLabel("Draw glyphs, type their labels and press Learn")
	mw.result = widget.NewLabel("")
	mw.result.TextStyle = fyne.TextStyle{Monospace: true, Bold: true}

	mw.labelEntry = widget.NewEntry()
	mw.labelEntry.SetPlaceHolder("labels, left to right")
	mw.labelEntry.OnSubmitted = func(string) { mw.onLearn() }

	mw.trainBtn = widget.NewButton("Train", mw.onTrain)

	brush := widget.NewSlider(0, 4)
	brush.Step = 1
	brush.SetValue(float64(mw.canvas.Brush()))
	brush.OnChanged = func(v float64) {
		mw.canvas.SetBrush(int(v))
		mw.prefs.SetInt(prefs.KeyBrush, int(v))
	}

	skeleton := widget.NewCheck("Show skeleton", func(on bool) {
		mw.showSkeleton = on
		mw.prefs.SetBool(prefs.KeyShowSkeleton, on)
		mw.refreshOverlays()
	})
	skeleton.SetChecked(mw.showSkeleton)

	erase := widget.NewCheck("Erase", mw.canvas.SetErase)

	controls := container.NewVBox(
		widget.NewButton("Recognize", mw.onRecognize),
		mw.result,
		widget.NewSeparator(),
		mw.labelEntry,
		widget.NewButton("Learn", mw.onLearn),
		mw.trainBtn,
		widget.NewSeparator(),
		widget.NewButton("Clear", mw.onClear),
		widget.NewLabel("Brush"),
		brush,
		erase,
		skeleton,
	)

	mw.samples = panels.NewSamplesPanel(mw.state)
	side := container.NewAppTabs(
		container.NewTabItem("Recognize", container.NewPadded(controls)),
		container.NewTabItem("Samples", mw.samples.Widget()),
	)

	split := container.NewHSplit(container.NewScroll(mw.canvas), side)
	split.SetOffset(0.75)

	mw.SetContent(container.NewBorder(nil, container.NewPadded(mw.statusBar), nil, nil, split))
	mw.Resize(fyne.NewSize(1100, 420))
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Samples...", mw.onOpenSamples),
		fyne.NewMenuItem("Save Samples", mw.onSaveSamples),
		fyne.NewMenuItem("Save Samples As...", mw.onSaveSamplesAs),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Import Image...", mw.onImportImage),
		fyne.NewMenuItem("Export Canvas...", mw.onExportCanvas),
	)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", func() { mw.setScale(mw.canvas.Scale() + 1) }),
		fyne.NewMenuItem("Zoom Out", func() { mw.setScale(mw.canvas.Scale() - 1) }),
	)

	toolsMenu := fyne.NewMenu("Tools",
		fyne.NewMenuItem("Add Font Glyphs", mw.onAddFontGlyphs),
		fyne.NewMenuItem("Label with Tesseract", mw.onAutoLabel),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, viewMenu, toolsMenu, helpMenu))
}

// setupEventHandlers registers for application events.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventCanvasChanged, func(interface{}) {
		mw.canvas.Refresh()
	})

	mw.state.On(app.EventRecognized, func(data interface{}) {
		res, ok := data.(app.Recognition)
		if !ok {
			return
		}
		mw.result.SetText(res.Text)
		mw.refreshOverlays()
		mw.updateStatus(fmt.Sprintf("Recognized %d glyphs", len(res.Boxes)))
	})

	mw.state.On(app.EventTrained, func(data interface{}) {
		if res, ok := data.(kohonen.TrainResult); ok {
			mw.updateStatus(trainStatus(res))
		}
	})

	mw.state.On(app.EventSamplesChanged, func(data interface{}) {
		if n, ok := data.(int); ok {
			mw.updateStatus(fmt.Sprintf("%d samples", n))
		}
	})

	mw.state.On(app.EventModified, func(data interface{}) {
		modified, _ := data.(bool)
		title := strings.TrimSuffix(mw.Title(), " *")
		if modified {
			title += " *"
		}
		mw.SetTitle(title)
	})
}

// refreshOverlays recomputes the segment boxes and, when enabled, the
// skeleton of the canvas.
func (mw *MainWindow) refreshOverlays() {
	grid := mw.state.Canvas()
	boxes := mw.state.Boxes()

	var labels []string
	if last := mw.state.LastRecognition(); len(last.Boxes) == len(boxes) {
		for _, r := range last.Text {
			labels = append(labels, string(r))
		}
	}
	mw.canvas.SetOverlay(overlayBoxes, canvas.BoxOverlay(boxes, labels))

	if mw.showSkeleton {
		mw.canvas.SetOverlay(overlaySkeleton, canvas.SkeletonOverlay(thin.Skeleton(grid)))
	} else {
		mw.canvas.ClearOverlay(overlaySkeleton)
	}
}

func (mw *MainWindow) setScale(scale int) {
	mw.canvas.SetScale(scale)
	mw.prefs.SetInt(prefs.KeyScale, mw.canvas.Scale())
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

func (mw *MainWindow) onRecognize() {
	if _, err := mw.state.Recognize(); err != nil {
		if errors.Is(err, kohonen.ErrNotTrained) {
			mw.updateStatus("Train the recognizer first")
			return
		}
		dialog.ShowError(err, mw.Window)
	}
}

func (mw *MainWindow) onClear() {
	mw.state.ClearCanvas()
	mw.result.SetText("")
	mw.refreshOverlays()
}

func (mw *MainWindow) onLearn() {
	text := mw.labelEntry.Text
	if strings.TrimSpace(text) == "" {
		mw.updateStatus("Type the labels of the drawn glyphs first")
		return
	}
	added, ignored := mw.state.LearnCanvas(text)
	msg := fmt.Sprintf("Learned %d glyphs (%d samples)", added, mw.state.Samples().Len())
	if ignored > 0 {
		msg += fmt.Sprintf(", %d labels or glyphs ignored", ignored)
	}
	mw.updateStatus(msg)
	mw.labelEntry.SetText("")
}

// onTrain trains in the background; the button stays disabled until it
// finishes.
func (mw *MainWindow) onTrain() {
	mw.trainBtn.Disable()
	mw.updateStatus(fmt.Sprintf("Training on %d samples...", mw.state.Samples().Len()))
	go func() {
		defer mw.trainBtn.Enable()
		if _, err := mw.state.Train(); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}()
}

func (mw *MainWindow) onAddFontGlyphs() {
	cfg := mw.state.Config()
	r := glyphgen.Default()
	if cfg.FontPath != "" {
		var err error
		if r, err = glyphgen.Load(cfg.FontPath, cfg.FontSize); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
	}
	n := mw.state.AddFontSamples(r, cfg.Alphabet)
	mw.updateStatus(fmt.Sprintf("Added %d font glyphs", n))
}

// onAutoLabel reads each glyph box with Tesseract and learns the result.
func (mw *MainWindow) onAutoLabel() {
	boxes := mw.state.Boxes()
	if len(boxes) == 0 {
		mw.updateStatus("Nothing to label")
		return
	}
	engine, err := reference.NewEngine(mw.state.Config().Alphabet)
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	defer engine.Close()

	labels, err := engine.ReadBoxes(mw.state.Canvas(), boxes)
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	for i, l := range labels {
		if l == "" {
			labels[i] = "?"
		}
	}
	mw.labelEntry.SetText(strings.Join(labels, ""))
	mw.updateStatus("Check the labels and press Learn")
}

func (mw *MainWindow) onOpenSamples() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)
		if err := mw.state.LoadSamples(path); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.prefs.SetString(prefs.KeySamplesPath, path)
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".json"}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onSaveSamples() {
	if mw.state.Samples().FilePath == "" {
		mw.onSaveSamplesAs()
		return
	}
	if err := mw.state.SaveSamples(); err != nil {
		dialog.ShowError(err, mw.Window)
	}
}

func (mw *MainWindow) onSaveSamplesAs() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if filepath.Ext(path) != ".json" {
			path += ".json"
		}
		mw.saveLastDir(path)
		mw.state.Samples().SetFilePath(path)
		if err := mw.state.SaveSamples(); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.prefs.SetString(prefs.KeySamplesPath, path)
	}, mw.Window)
	fd.SetFileName("samples.json")
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

// onImportImage binarizes a photo or scan and makes it the canvas.
func (mw *MainWindow) onImportImage() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)

		grid, err := binarize.File(path, mw.state.Config().Binarize)
		if err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.canvas.SetRasterSize(grid.Width(), grid.Height())
		mw.state.SetCanvas(grid)
		mw.refreshOverlays()
		mw.updateStatus(fmt.Sprintf("Imported %s (%dx%d)", filepath.Base(path), grid.Width(), grid.Height()))
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp"}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onExportCanvas() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if filepath.Ext(path) != ".png" {
			path += ".png"
		}
		mw.saveLastDir(path)
		img := mw.canvas.RenderedOutput()
		if img == nil {
			img = raster.ToImage(mw.state.Canvas(), mw.canvas.Scale(), mw.state.Boxes())
		}
		if err := raster.SavePNG(path, img); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFileName("canvas.png")
	fd.Show()
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About "+appTitle,
		fmt.Sprintf("%s v%s\n\n"+
			"Hand-drawn character recognition with a Kohonen network.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			appTitle, version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.prefs.String(prefs.KeyLastDir)
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}

// saveLastDir saves the directory of the given file path.
func (mw *MainWindow) saveLastDir(filePath string) {
	mw.prefs.SetString(prefs.KeyLastDir, filepath.Dir(filePath))
}

// SavePreferences writes the preferences file.
func (mw *MainWindow) SavePreferences() error {
	return mw.prefs.Save()
}

func trainStatus(res kohonen.TrainResult) string {
	state := "converged"
	if !res.Converged {
		state = "did not converge"
	}
	return fmt.Sprintf("Training %s: error %.4f after %d epochs (%d restarts, %d forced wins)",
		state, res.Error, res.Epochs, res.Restarts, res.ForcedWins)
}
