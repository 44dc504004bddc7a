package features

import "github.com/abhisek/screenwise/internal/screening"

// TransitionSize is the length of the transition vector.
const TransitionSize = 4

// TransitionVector is the compact input shape some learned progression
// models are trained on: [domain_index, difficulty_index, correct, response_time_ms].
type TransitionVector [TransitionSize]float64

// freshTransition is used before any answer: reading, easy, correct, 2000ms.
var freshTransition = TransitionVector{0, 0, 1, 2000}

// ExtractTransition builds the transition vector for the last answered event.
func ExtractTransition(last *screening.ResponseEvent) TransitionVector {
	if last == nil {
		return freshTransition
	}
	domain := last.Domain.Index()
	if domain < 0 {
		domain = 0
	}
	diff := last.Difficulty.Index()
	if diff < 0 {
		diff = screening.DifficultyMedium.Index()
	}
	var correct float64
	if last.Correct {
		correct = 1
	}
	return TransitionVector{float64(domain), float64(diff), correct, float64(last.ResponseTimeMs)}
}

// Slice returns v as a plain slice for model inference.
func (v TransitionVector) Slice() []float64 {
	out := make([]float64, TransitionSize)
	copy(out, v[:])
	return out
}
