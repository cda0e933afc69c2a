package kohonen

import "errors"

var (
	// ErrDimensionMismatch is returned when a vector's length differs from
	// the network's input count.
	ErrDimensionMismatch = errors.New("kohonen: dimension mismatch")

	// ErrNotTrained is returned by Recall before a successful Train or when
	// no samples are queued.
	ErrNotTrained = errors.New("kohonen: network not trained")

	// ErrNoSamples is returned by Train when nothing has been queued.
	ErrNoSamples = errors.New("kohonen: no training samples")

	// ErrInvalidSize is returned by New for non-positive neuron counts.
	ErrInvalidSize = errors.New("kohonen: invalid network size")
)
