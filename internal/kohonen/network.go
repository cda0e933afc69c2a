// Package kohonen implements a winner-take-all competitive learning network
// that maps feature vectors to labels.
//
// Each output neuron holds a unit weight vector with one extra trailing
// coordinate that never comes from input data. Training presents every
// queued sample, pulls each winning neuron toward the samples it won, and
// forces idle neurons onto poorly represented samples until every sample
// has a neuron of its own or the error drops below the quit threshold.
package kohonen

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"glyphocr/pkg/vecmath"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

type sample struct {
	label  string
	vector []float64
}

// Network is a Kohonen classifier. It is not safe for concurrent use.
type Network struct {
	inputs  int
	outputs int

	weights     *mat.Dense // outputs x (inputs+1)
	activations []float64

	samples []sample
	index   map[string]int

	neuronMap []string
	dirty     bool

	trained bool
	err     float64

	rng *rand.Rand
	log log.FieldLogger
}

// New creates an untrained network with the given neuron counts.
func New(inputs, outputs int, opts ...Option) (*Network, error) {
	if inputs <= 0 || outputs <= 0 {
		return nil, fmt.Errorf("%w: %d inputs, %d outputs", ErrInvalidSize, inputs, outputs)
	}
	n := &Network{
		inputs:      inputs,
		outputs:     outputs,
		weights:     mat.NewDense(outputs, inputs+1, nil),
		activations: make([]float64, outputs),
		index:       make(map[string]int),
		dirty:       true,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		log:         log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// InputCount returns the expected vector length.
func (n *Network) InputCount() int { return n.inputs }

// OutputCount returns the number of output neurons.
func (n *Network) OutputCount() int { return n.outputs }

// Trained reports whether Train has completed at least once.
func (n *Network) Trained() bool { return n.trained }

// Error returns the total error of the weights kept by the last Train.
func (n *Network) Error() float64 { return n.err }

// SampleCount returns the number of queued samples.
func (n *Network) SampleCount() int { return len(n.samples) }

// QueueSample adds or replaces the training vector for label. A replaced
// label keeps its original position.
func (n *Network) QueueSample(label string, vector []float64) error {
	if len(vector) != n.inputs {
		return fmt.Errorf("%w: got %d values, want %d", ErrDimensionMismatch, len(vector), n.inputs)
	}
	v := make([]float64, len(vector))
	copy(v, vector)

	if i, ok := n.index[label]; ok {
		n.samples[i].vector = v
	} else {
		n.index[label] = len(n.samples)
		n.samples = append(n.samples, sample{label: label, vector: v})
	}
	n.dirty = true
	return nil
}

// ClearSamples removes every queued sample.
func (n *Network) ClearSamples() {
	n.samples = nil
	n.index = make(map[string]int)
	n.dirty = true
}

// Labels returns the queued labels in insertion order.
func (n *Network) Labels() []string {
	labels := make([]string, len(n.samples))
	for i, s := range n.samples {
		labels[i] = s.label
	}
	return labels
}

// Sample returns a copy of the vector queued for label.
func (n *Network) Sample(label string) ([]float64, bool) {
	i, ok := n.index[label]
	if !ok {
		return nil, false
	}
	v := make([]float64, n.inputs)
	copy(v, n.samples[i].vector)
	return v, true
}

// Weights returns a copy of the weight matrix.
func (n *Network) Weights() *mat.Dense {
	return mat.DenseCopyOf(n.weights)
}

// Activations returns the clamped activations cached by the last winner
// computation.
func (n *Network) Activations() []float64 {
	a := make([]float64, len(n.activations))
	copy(a, n.activations)
	return a
}

// Winner returns the index of the neuron that responds most strongly to
// vector. Ties go to the lowest index.
func (n *Network) Winner(vector []float64) (int, error) {
	if len(vector) != n.inputs {
		return 0, fmt.Errorf("%w: got %d values, want %d", ErrDimensionMismatch, len(vector), n.inputs)
	}
	return n.winner(vector), nil
}

// winner scores each neuron as ((input . w_i)/|input| + 1)/2 over the
// first len(input) weight coordinates and caches the clamped score.
func (n *Network) winner(input []float64) int {
	f := 1 / vecmath.Magnitude(input)
	biggest := math.Inf(-1)
	winning := 0
	for i := 0; i < n.outputs; i++ {
		row := n.weights.RawRowView(i)
		act := vecmath.UnitInterval(vecmath.Dot(input, row[:len(input)]) * f)
		n.activations[i] = vecmath.Clamp(act, 0, 1)
		if act > biggest {
			biggest = act
			winning = i
		}
	}
	return winning
}

// NeuronMap returns, per neuron, the label of the last sample that neuron
// wins; neurons that win nothing map to "". The map is rebuilt whenever
// samples or weights have changed since it was last computed.
func (n *Network) NeuronMap() []string {
	m := n.neurons()
	out := make([]string, len(m))
	copy(out, m)
	return out
}

func (n *Network) neurons() []string {
	if n.dirty || n.neuronMap == nil {
		m := make([]string, n.outputs)
		for _, s := range n.samples {
			m[n.winner(s.vector)] = s.label
		}
		n.neuronMap = m
		n.dirty = false
	}
	return n.neuronMap
}

// Recall returns the label of the neuron that wins vector. A winning
// neuron with no sample yields "".
func (n *Network) Recall(vector []float64) (string, error) {
	if !n.trained || len(n.samples) == 0 {
		return "", ErrNotTrained
	}
	if len(vector) != n.inputs {
		return "", fmt.Errorf("%w: got %d values, want %d", ErrDimensionMismatch, len(vector), n.inputs)
	}
	labels := n.neurons()
	return labels[n.winner(vector)], nil
}

// randomize fills every weight uniformly from [-5, 5] and normalizes each
// neuron.
func (n *Network) randomize() {
	for i := 0; i < n.outputs; i++ {
		row := n.weights.RawRowView(i)
		for j := range row {
			row[j] = n.rng.Float64()*10 - 5
		}
		vecmath.Normalize(row)
	}
}
