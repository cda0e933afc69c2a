package kohonen

import (
	"math"

	"glyphocr/pkg/vecmath"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// stallThreshold is the correction size below which an epoch counts as
// making no progress.
const stallThreshold = 1e-5

// Train rebuilds the weights from scratch against the queued samples and
// keeps the lowest-error matrix seen. Training that exhausts its retry or
// epoch budget is not an error; check TrainResult.Converged.
func (n *Network) Train(opts TrainOptions) (TrainResult, error) {
	if len(n.samples) == 0 {
		return TrainResult{}, ErrNoSamples
	}
	opts = opts.withDefaults()

	var res TrainResult
	rate := opts.LearnRate
	n.randomize()

	best := mat.DenseCopyOf(n.weights)
	res.Error = math.Inf(1)

	won := make([]int, n.outputs)
	corrections := mat.NewDense(n.outputs, n.inputs+1, nil)
	need := min(n.outputs, len(n.samples))

	for res.Epochs < opts.MaxEpochs {
		res.Epochs++
		clear(won)
		corrections.Zero()

		total := n.evaluateErrors(rate, opts.Method, won, corrections)
		if total < res.Error {
			res.Error = total
			best.Copy(n.weights)
		}
		if total < opts.QuitError {
			res.Converged = true
			break
		}

		winners := 0
		for _, w := range won {
			if w != 0 {
				winners++
			}
		}
		if winners < need {
			n.forceWin(won)
			res.ForcedWins++
			continue
		}

		if n.adjustWeights(rate, opts.Method, won, corrections) < stallThreshold {
			res.Restarts++
			if res.Restarts > opts.MaxRetries {
				break
			}
			n.log.WithFields(log.Fields{
				"epoch":   res.Epochs,
				"restart": res.Restarts,
				"error":   total,
			}).Debug("kohonen: training stalled, reinitializing")
			n.randomize()
			rate = opts.LearnRate
			continue
		}

		if rate > 0.1 {
			rate *= opts.RateDecay
		}
	}

	n.weights.Copy(best)
	for i := 0; i < n.outputs; i++ {
		vecmath.Normalize(n.weights.RawRowView(i))
	}
	n.err = res.Error
	n.trained = true
	n.dirty = true

	n.log.WithFields(log.Fields{
		"samples":     len(n.samples),
		"error":       res.Error,
		"converged":   res.Converged,
		"epochs":      res.Epochs,
		"restarts":    res.Restarts,
		"forced_wins": res.ForcedWins,
		"method":      opts.Method.String(),
	}).Debug("kohonen: training finished")

	return res, nil
}

// evaluateErrors presents every sample, counts wins per neuron and
// accumulates each winner's correction. It returns the square root of the
// largest per-sample squared deviation.
func (n *Network) evaluateErrors(rate float64, method LearnMethod, won []int, corrections *mat.Dense) float64 {
	var blended []float64
	if method == Additive {
		blended = make([]float64, n.inputs+1)
	}

	largest := 0.0
	for _, s := range n.samples {
		best := n.winner(s.vector)
		won[best]++
		w := n.weights.RawRowView(best)
		c := corrections.RawRowView(best)
		f := 1 / vecmath.Magnitude(s.vector)

		length := 0.0
		for i := 0; i < n.inputs; i++ {
			diff := s.vector[i]*f - w[i]
			length += diff * diff
			if method == Subtractive {
				c[i] += diff
			} else {
				blended[i] = rate*s.vector[i]*f + w[i]
			}
		}
		// The trailing coordinate has no input; its target is zero.
		diff := w[n.inputs]
		length += diff * diff
		if method == Subtractive {
			c[n.inputs] -= diff
		} else {
			blended[n.inputs] = w[n.inputs]
		}

		largest = max(largest, length)

		if method == Additive {
			vecmath.Normalize(blended)
			for i := range c {
				c[i] += blended[i] - w[i]
			}
		}
	}
	return math.Sqrt(largest)
}

// adjustWeights applies each winner's correction averaged over its wins
// (and scaled by rate for Subtractive). It returns the largest correction
// length divided by rate.
func (n *Network) adjustWeights(rate float64, method LearnMethod, won []int, corrections *mat.Dense) float64 {
	largest := 0.0
	for i := 0; i < n.outputs; i++ {
		if won[i] == 0 {
			continue
		}
		f := 1 / float64(won[i])
		if method == Subtractive {
			f *= rate
		}

		w := n.weights.RawRowView(i)
		c := corrections.RawRowView(i)
		length := 0.0
		for j := range w {
			corr := f * c[j]
			w[j] += corr
			length += corr * corr
		}
		largest = max(largest, length)
	}
	return math.Sqrt(largest) / rate
}

// forceWin copies the sample whose winning activation is weakest onto the
// idle neuron with the highest activation, zeroing the trailing coordinate.
func (n *Network) forceWin(won []int) {
	worst := n.samples[0].vector
	dist := math.Inf(1)
	for _, s := range n.samples {
		win := n.winner(s.vector)
		if n.activations[win] < dist {
			dist = n.activations[win]
			worst = s.vector
		}
	}

	target := -1
	dist = math.Inf(-1)
	for i := 0; i < n.outputs; i++ {
		if won[i] != 0 {
			continue
		}
		if n.activations[i] > dist {
			dist = n.activations[i]
			target = i
		}
	}
	if target < 0 {
		return
	}

	w := n.weights.RawRowView(target)
	copy(w, worst)
	w[n.inputs] = 0
	vecmath.Normalize(w)
}
