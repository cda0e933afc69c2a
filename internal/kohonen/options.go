package kohonen

import (
	"fmt"
	"math/rand"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Option configures a Network.
type Option func(*Network)

// WithRand sets the random source used for weight initialization.
func WithRand(rng *rand.Rand) Option {
	return func(n *Network) {
		if rng != nil {
			n.rng = rng
		}
	}
}

// WithLogger sets the logger used for training diagnostics.
func WithLogger(logger log.FieldLogger) Option {
	return func(n *Network) {
		if logger != nil {
			n.log = logger
		}
	}
}

// LearnMethod selects how winning neurons are pulled toward their samples.
type LearnMethod int

const (
	// Additive blends the scaled sample into the weight and renormalizes.
	Additive LearnMethod = iota
	// Subtractive moves the weight along the residual sample-weight.
	Subtractive
)

func (m LearnMethod) String() string {
	switch m {
	case Additive:
		return "additive"
	case Subtractive:
		return "subtractive"
	default:
		return fmt.Sprintf("LearnMethod(%d)", int(m))
	}
}

// ParseLearnMethod parses "additive" or "subtractive", case-insensitively.
func ParseLearnMethod(s string) (LearnMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "additive":
		return Additive, nil
	case "subtractive":
		return Subtractive, nil
	default:
		return Additive, fmt.Errorf("kohonen: unknown learn method %q", s)
	}
}

// TrainOptions controls a training run. Zero fields take the defaults.
type TrainOptions struct {
	LearnRate float64     `json:"learn_rate"`
	QuitError float64     `json:"quit_error"`
	RateDecay float64     `json:"rate_decay"`
	Method    LearnMethod `json:"method"`

	// MaxRetries bounds how many times training may reinitialize after
	// stalling. Negative disables retries.
	MaxRetries int `json:"max_retries"`

	// MaxEpochs caps the total number of epochs across all retries.
	MaxEpochs int `json:"max_epochs"`
}

// DefaultTrainOptions returns the standard training parameters.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		LearnRate:  0.4,
		QuitError:  0.1,
		RateDecay:  0.99,
		MaxRetries: 10000,
		MaxEpochs:  1000000,
		Method:     Additive,
	}
}

func (o TrainOptions) withDefaults() TrainOptions {
	d := DefaultTrainOptions()
	if o.LearnRate <= 0 {
		o.LearnRate = d.LearnRate
	}
	if o.QuitError <= 0 {
		o.QuitError = d.QuitError
	}
	if o.RateDecay <= 0 {
		o.RateDecay = d.RateDecay
	}
	if o.MaxRetries == 0 {
		o.MaxRetries = d.MaxRetries
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.MaxEpochs <= 0 {
		o.MaxEpochs = d.MaxEpochs
	}
	return o
}

// TrainResult reports how a training run ended.
type TrainResult struct {
	// Error is the lowest total error seen; the network keeps those weights.
	Error float64
	// Converged is true when Error fell below QuitError.
	Converged  bool
	Epochs     int
	Restarts   int
	ForcedWins int
}
