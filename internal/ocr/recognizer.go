// Package ocr strings the glyph pipeline together: segmentation, thinning,
// downsampling and the Kohonen classifier.
package ocr

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"unicode"

	"glyphocr/internal/features"
	"glyphocr/internal/kohonen"
	"glyphocr/internal/raster"
	"glyphocr/internal/segment"
	"glyphocr/internal/thin"
	"glyphocr/pkg/geometry"

	log "github.com/sirupsen/logrus"
)

// ErrNoGlyphs is returned when training with no labeled glyphs.
var ErrNoGlyphs = errors.New("ocr: no glyphs to train on")

// Params holds the recognizer settings.
type Params struct {
	// Feature grid size; each glyph becomes GridWidth*GridHeight inputs.
	GridWidth  int `json:"grid_width"`
	GridHeight int `json:"grid_height"`

	// Thin skeletonizes canvases and glyphs before feature extraction.
	Thin bool `json:"thin"`

	// MergeThreshold is the horizontal slack for joining strokes into one glyph.
	MergeThreshold int `json:"merge_threshold"`

	Train kohonen.TrainOptions `json:"train"`
}

// DefaultParams returns a 7x7 grid with thinning enabled.
func DefaultParams() Params {
	return Params{
		GridWidth:      7,
		GridHeight:     7,
		Thin:           true,
		MergeThreshold: segment.DefaultMergeThreshold,
		Train:          kohonen.DefaultTrainOptions(),
	}
}

// Validate checks the parameters.
func (p Params) Validate() error {
	if p.GridWidth <= 0 || p.GridHeight <= 0 {
		return fmt.Errorf("%w: grid %dx%d", features.ErrInvalidSize, p.GridWidth, p.GridHeight)
	}
	if p.MergeThreshold < 0 {
		return fmt.Errorf("ocr: negative merge threshold %d", p.MergeThreshold)
	}
	return nil
}

// Option configures a Recognizer.
type Option func(*Recognizer)

// WithRand sets the random source handed to each new network.
func WithRand(rng *rand.Rand) Option {
	return func(r *Recognizer) { r.rng = rng }
}

// WithLogger sets the logger for the recognizer and its networks.
func WithLogger(logger log.FieldLogger) Option {
	return func(r *Recognizer) {
		if logger != nil {
			r.log = logger
		}
	}
}

// Recognizer trains on labeled glyph rasters and reads canvases back as
// text. It is not safe for concurrent use.
type Recognizer struct {
	params Params
	net    *kohonen.Network
	rng    *rand.Rand
	log    log.FieldLogger
}

// NewRecognizer creates an untrained recognizer.
func NewRecognizer(params Params, opts ...Option) (*Recognizer, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	r := &Recognizer{params: params, log: log.StandardLogger()}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Params returns the recognizer settings.
func (r *Recognizer) Params() Params { return r.params }

// Network returns the trained network, or nil before Train.
func (r *Recognizer) Network() *kohonen.Network { return r.net }

// Trained reports whether a network has been trained.
func (r *Recognizer) Trained() bool { return r.net != nil && r.net.Trained() }

// Labels returns the labels of the current network in training order.
func (r *Recognizer) Labels() []string {
	if r.net == nil {
		return nil
	}
	return r.net.Labels()
}

// Features thins a padded copy of glyph (when enabled) and downsamples it.
// The input is never modified. A glyph that thins away entirely is
// downsampled unthinned.
func (r *Recognizer) Features(glyph *raster.Grid) (features.Sample, error) {
	g := glyph
	if r.params.Thin {
		g = glyph.Pad(1)
		if thin.Thin(g); g.Count() == 0 {
			g = glyph
		}
	}
	return features.Downsample(g, r.params.GridWidth, r.params.GridHeight)
}

// Train builds a fresh network with one output neuron per label and trains
// it on the given glyphs, queued in sorted label order.
func (r *Recognizer) Train(glyphs map[string]*raster.Grid) (kohonen.TrainResult, error) {
	if len(glyphs) == 0 {
		return kohonen.TrainResult{}, ErrNoGlyphs
	}

	opts := []kohonen.Option{kohonen.WithLogger(r.log)}
	if r.rng != nil {
		opts = append(opts, kohonen.WithRand(r.rng))
	}
	net, err := kohonen.New(r.params.GridWidth*r.params.GridHeight, len(glyphs), opts...)
	if err != nil {
		return kohonen.TrainResult{}, err
	}

	labels := make([]string, 0, len(glyphs))
	for label := range glyphs {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	for _, label := range labels {
		sample, err := r.Features(glyphs[label])
		if err != nil {
			return kohonen.TrainResult{}, fmt.Errorf("failed to extract features for %q: %w", label, err)
		}
		if err := net.QueueSample(label, sample.Vector()); err != nil {
			return kohonen.TrainResult{}, err
		}
	}

	res, err := net.Train(r.params.Train)
	if err != nil {
		return res, err
	}
	r.net = net

	r.log.WithFields(log.Fields{
		"glyphs":    len(labels),
		"error":     res.Error,
		"converged": res.Converged,
		"epochs":    res.Epochs,
	}).Debug("ocr: trained recognizer")
	return res, nil
}

// RecognizeGlyph classifies a single glyph raster.
func (r *Recognizer) RecognizeGlyph(glyph *raster.Grid) (string, error) {
	if r.net == nil {
		return "", kohonen.ErrNotTrained
	}
	sample, err := r.Features(glyph)
	if err != nil {
		return "", err
	}
	return r.net.Recall(sample.Vector())
}

// Segment returns the glyph boxes of canvas, left to right. Boxes come
// from the unthinned strokes so glyphs that thin away still get one.
func (r *Recognizer) Segment(canvas *raster.Grid) []geometry.RectInt {
	return segment.Segment(canvas, r.params.MergeThreshold)
}

// Recognize reads every glyph on canvas left to right and returns the
// concatenated labels with the boxes they came from. A blank canvas yields
// an empty string and no boxes.
func (r *Recognizer) Recognize(canvas *raster.Grid) (string, []geometry.RectInt, error) {
	if r.net == nil {
		return "", nil, kohonen.ErrNotTrained
	}
	boxes := r.Segment(canvas)

	var sb strings.Builder
	for _, box := range boxes {
		label, err := r.RecognizeGlyph(canvas.Sub(box))
		if err != nil {
			return "", nil, fmt.Errorf("failed to recognize glyph at %v: %w", box, err)
		}
		sb.WriteString(label)
	}
	return sb.String(), boxes, nil
}

// LabelBoxes pairs the non-space characters of text with the glyphs found
// on canvas, left to right, and returns label -> glyph as drawn. Extra
// boxes or characters are skipped and counted in the second result. A
// repeated character keeps its last glyph.
func (r *Recognizer) LabelBoxes(canvas *raster.Grid, text string) (map[string]*raster.Grid, int) {
	labels := Graphemes(text)
	boxes := r.Segment(canvas)

	n := min(len(labels), len(boxes))
	glyphs := make(map[string]*raster.Grid, n)
	for i := 0; i < n; i++ {
		glyphs[labels[i]] = canvas.Sub(boxes[i])
	}

	ignored := len(labels) + len(boxes) - 2*n
	if ignored > 0 {
		r.log.WithFields(log.Fields{
			"labels": len(labels),
			"boxes":  len(boxes),
		}).Warn("ocr: label count does not match glyph count")
	}
	return glyphs, ignored
}

// Graphemes splits text into single-character labels, dropping whitespace.
func Graphemes(text string) []string {
	var out []string
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		out = append(out, string(r))
	}
	return out
}
