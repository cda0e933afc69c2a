// Package app holds the drawing demo's state: the canvas being drawn on,
// the labeled sample set and the recognizer trained from it.
package app

import (
	"fmt"
	"sync"

	"glyphocr/internal/config"
	"glyphocr/internal/glyphgen"
	"glyphocr/internal/kohonen"
	"glyphocr/internal/ocr"
	"glyphocr/internal/raster"
	"glyphocr/internal/samples"
	"glyphocr/pkg/geometry"

	log "github.com/sirupsen/logrus"
)

// Canvas size in glyph pixels.
const (
	CanvasWidth  = 160
	CanvasHeight = 48
)

// State holds the application state. All access goes through its methods.
type State struct {
	mu sync.RWMutex

	cfg    config.Config
	params ocr.Params
	opts   []ocr.Option
	log    log.FieldLogger

	canvas     *raster.Grid
	recognizer *ocr.Recognizer
	samples    *samples.Set

	// Last recognition
	text  string
	boxes []geometry.RectInt

	modified bool

	listeners map[EventType][]EventListener
}

// EventType identifies different application events.
type EventType int

const (
	EventCanvasChanged EventType = iota
	EventRecognized
	EventTrained
	EventSamplesChanged
	EventSamplesSaved
	EventModified
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// Recognition is the payload of EventRecognized.
type Recognition struct {
	Text  string
	Boxes []geometry.RectInt
}

// NewState creates the state for cfg. The options are passed to every
// recognizer the state builds.
func NewState(cfg config.Config, logger log.FieldLogger, opts ...ocr.Option) (*State, error) {
	params, err := cfg.OCRParams()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	opts = append([]ocr.Option{ocr.WithLogger(logger)}, opts...)

	rec, err := ocr.NewRecognizer(params, opts...)
	if err != nil {
		return nil, err
	}

	set := samples.NewSet()
	set.FilePath = cfg.SamplesPath

	return &State{
		cfg:        cfg,
		params:     params,
		opts:       opts,
		log:        logger,
		canvas:     raster.MustNew(CanvasWidth, CanvasHeight),
		recognizer: rec,
		samples:    set,
		listeners:  make(map[EventType][]EventListener),
	}, nil
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// SetModified marks the sample set as modified and emits an event.
func (s *State) SetModified(modified bool) {
	s.mu.Lock()
	s.modified = modified
	s.mu.Unlock()
	s.Emit(EventModified, modified)
}

// Modified reports whether the sample set has unsaved changes.
func (s *State) Modified() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modified
}

// Config returns the configuration the state was built from.
func (s *State) Config() config.Config { return s.cfg }

// Canvas returns a copy of the canvas.
func (s *State) Canvas() *raster.Grid {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.canvas.Clone()
}

// SetCanvas replaces the canvas with a copy of g.
func (s *State) SetCanvas(g *raster.Grid) {
	s.mu.Lock()
	s.canvas = g.Clone()
	s.text, s.boxes = "", nil
	s.mu.Unlock()
	s.Emit(EventCanvasChanged, nil)
}

// Paint sets (or erases) a square brush of the given radius at x, y.
// Pixels outside the canvas are ignored.
func (s *State) Paint(x, y, radius int, on bool) {
	s.mu.Lock()
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			s.canvas.Set(x+dx, y+dy, on)
		}
	}
	s.mu.Unlock()
	s.Emit(EventCanvasChanged, nil)
}

// ClearCanvas erases the canvas and the last recognition.
func (s *State) ClearCanvas() {
	s.mu.Lock()
	s.canvas.Clear()
	s.text, s.boxes = "", nil
	s.mu.Unlock()
	s.Emit(EventCanvasChanged, nil)
}

// Boxes returns the glyph boxes of the current canvas.
func (s *State) Boxes() []geometry.RectInt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recognizer.Segment(s.canvas)
}

// LastRecognition returns the result of the last Recognize call.
func (s *State) LastRecognition() Recognition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Recognition{Text: s.text, Boxes: append([]geometry.RectInt(nil), s.boxes...)}
}

// Trained reports whether the recognizer has been trained.
func (s *State) Trained() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recognizer.Trained()
}

// Recognize reads the canvas.
func (s *State) Recognize() (Recognition, error) {
	// Recall writes the network's activations.
	s.mu.Lock()
	text, boxes, err := s.recognizer.Recognize(s.canvas)
	if err != nil {
		s.mu.Unlock()
		return Recognition{}, err
	}
	s.text, s.boxes = text, boxes
	s.mu.Unlock()

	res := Recognition{Text: text, Boxes: boxes}
	s.log.WithFields(log.Fields{"text": text, "glyphs": len(boxes)}).Info("Recognized canvas")
	s.Emit(EventRecognized, res)
	return res, nil
}

// LearnCanvas labels the glyphs on the canvas with the characters of text,
// left to right, and stores them as samples. It returns how many samples
// were stored and how many boxes or characters were left over.
func (s *State) LearnCanvas(text string) (added, ignored int) {
	s.mu.RLock()
	glyphs, ignored := s.recognizer.LabelBoxes(s.canvas, text)
	s.mu.RUnlock()

	set := s.Samples()
	added = set.Merge(glyphs, samples.SourceDrawn)
	if added > 0 {
		s.SetModified(true)
		s.Emit(EventSamplesChanged, set.Len())
	}
	return added, ignored
}

// AddFontSamples renders alphabet with r and stores the glyphs.
func (s *State) AddFontSamples(r *glyphgen.Renderer, alphabet string) int {
	set := s.Samples()
	added := set.Merge(r.TrainingSet(alphabet), samples.SourceFont)
	if added > 0 {
		s.SetModified(true)
		s.Emit(EventSamplesChanged, set.Len())
	}
	return added
}

// RemoveSample deletes the sample stored under label.
func (s *State) RemoveSample(label string) bool {
	set := s.Samples()
	if !set.Remove(label) {
		return false
	}
	s.SetModified(true)
	s.Emit(EventSamplesChanged, set.Len())
	return true
}

// Samples returns the sample set.
func (s *State) Samples() *samples.Set {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.samples
}

// Train retrains the recognizer from the sample set. The new recognizer
// is trained outside the lock and swapped in when it finishes.
func (s *State) Train() (kohonen.TrainResult, error) {
	glyphs, err := s.Samples().Grids()
	if err != nil {
		return kohonen.TrainResult{}, err
	}
	if len(glyphs) == 0 {
		return kohonen.TrainResult{}, ocr.ErrNoGlyphs
	}

	rec, err := ocr.NewRecognizer(s.params, s.opts...)
	if err != nil {
		return kohonen.TrainResult{}, err
	}
	res, err := rec.Train(glyphs)
	if err != nil {
		return res, fmt.Errorf("training failed: %w", err)
	}

	s.mu.Lock()
	s.recognizer = rec
	s.mu.Unlock()

	s.log.WithFields(log.Fields{
		"labels":    len(glyphs),
		"error":     res.Error,
		"converged": res.Converged,
		"epochs":    res.Epochs,
		"restarts":  res.Restarts,
	}).Info("Trained recognizer")
	s.Emit(EventTrained, res)
	return res, nil
}

// LoadSamples replaces the sample set with the one stored at path.
func (s *State) LoadSamples(path string) error {
	set, err := samples.Load(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.samples = set
	s.modified = false
	s.mu.Unlock()

	s.log.WithFields(log.Fields{"path": path, "samples": set.Len()}).Info("Loaded samples")
	s.Emit(EventSamplesChanged, set.Len())
	return nil
}

// SaveSamples writes the sample set to its file.
func (s *State) SaveSamples() error {
	set := s.Samples()
	if err := set.Save(); err != nil {
		return err
	}
	s.SetModified(false)
	s.Emit(EventSamplesSaved, set.FilePath)
	return nil
}
