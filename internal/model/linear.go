package model

import (
	"fmt"
	"math"
)

// Prediction is the output of one head.
type Prediction struct {
	Head string
	// Value is the raw regression output, or the argmax index for a classifier.
	Value float64
	// Class is the winning class name; empty for regression heads.
	Class string
	// Probabilities holds the softmax over classes in the artifact's scale.
	Probabilities []float64
	// Probability is the winning class probability in the artifact's scale.
	Probability float64
}

// Predict evaluates every head on x. The artifact must be valid.
func (a *Artifact) Predict(x []float64) (map[string]Prediction, error) {
	if want := a.Input.Size(); len(x) != want {
		return nil, fmt.Errorf("predict: %d features, want %d", len(x), want)
	}
	factor := 1.0
	if a.Scale() == ScalePercent {
		factor = 100
	}

	out := make(map[string]Prediction, len(a.Heads))
	for _, h := range a.Heads {
		logits := make([]float64, len(h.Weights))
		for i, row := range h.Weights {
			logits[i] = dot(row, x) + h.Bias[i]
		}
		if h.Regression() {
			out[h.Name] = Prediction{Head: h.Name, Value: logits[0]}
			continue
		}

		probs := softmax(logits)
		best := argmax(probs)
		for i := range probs {
			probs[i] *= factor
		}
		out[h.Name] = Prediction{
			Head:          h.Name,
			Value:         float64(best),
			Class:         h.Classes[best],
			Probabilities: probs,
			Probability:   probs[best],
		}
	}
	return out, nil
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func softmax(logits []float64) []float64 {
	maxLogit := math.Inf(-1)
	for _, l := range logits {
		maxLogit = max(maxLogit, l)
	}
	out := make([]float64, len(logits))
	var sum float64
	for i, l := range logits {
		out[i] = math.Exp(l - maxLogit)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// argmax returns the first index holding the largest value.
func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}
