// Package features turns response histories into fixed-shape numeric
// vectors consumed by the progression policy and the risk engine.
package features

import "github.com/abhisek/screenwise/internal/screening"

// SelectionSize is the length of the question-selection vector.
const SelectionSize = 10

// Positions within a SelectionVector.
const (
	SelLastCorrect = iota
	SelLastResponseTime
	SelDiffEasy
	SelDiffMedium
	SelDiffHard
	SelSessionAccuracy
	SelReadingCount
	SelWritingCount
	SelMathCount
	SelAttentionCount
)

// SelectionVector is the question-selection feature schema:
// [last_correct, last_response_time_ms, one-hot(last_difficulty) x3,
// session_accuracy, per-domain answered counts x4].
type SelectionVector [SelectionSize]float64

// FreshStart is the vector used before any question has been answered.
var FreshStart = SelectionVector{1, 1000, 1, 0, 0, 1.0, 0, 0, 0, 0}

// emptyAccuracy is the session accuracy reported for an empty history.
const emptyAccuracy = 0.5

// ExtractSelection builds the selection vector from a session snapshot and
// the last answered event. A nil last event yields FreshStart.
func ExtractSelection(events []screening.ResponseEvent, last *screening.ResponseEvent) SelectionVector {
	if last == nil {
		return FreshStart
	}

	var v SelectionVector
	if last.Correct {
		v[SelLastCorrect] = 1
	}
	v[SelLastResponseTime] = float64(last.ResponseTimeMs)

	switch last.Difficulty {
	case screening.DifficultyEasy:
		v[SelDiffEasy] = 1
	case screening.DifficultyHard:
		v[SelDiffHard] = 1
	default:
		// Unknown difficulty is treated as medium.
		v[SelDiffMedium] = 1
	}

	v[SelSessionAccuracy] = emptyAccuracy
	if len(events) > 0 {
		correct := 0
		for _, e := range events {
			if e.Correct {
				correct++
			}
		}
		v[SelSessionAccuracy] = float64(correct) / float64(len(events))
	}

	counts := DomainCounts(events)
	for i := range screening.Domains {
		v[SelReadingCount+i] = float64(counts[i])
	}
	return v
}

// DomainCounts returns how many events were answered per domain, indexed
// like screening.Domains. Events in unknown domains are ignored.
func DomainCounts(events []screening.ResponseEvent) [4]int {
	var counts [4]int
	for _, e := range events {
		if i := e.Domain.Index(); i >= 0 {
			counts[i]++
		}
	}
	return counts
}

// LastDifficulty decodes the one-hot difficulty block of v.
// Hard wins only when neither easy nor medium is set.
func (v SelectionVector) LastDifficulty() screening.Difficulty {
	switch {
	case v[SelDiffEasy] != 0:
		return screening.DifficultyEasy
	case v[SelDiffMedium] != 0:
		return screening.DifficultyMedium
	default:
		return screening.DifficultyHard
	}
}

// Counts returns the per-domain counts block of v.
func (v SelectionVector) Counts() [4]float64 {
	return [4]float64{v[SelReadingCount], v[SelWritingCount], v[SelMathCount], v[SelAttentionCount]}
}

// Slice returns v as a plain slice for model inference.
func (v SelectionVector) Slice() []float64 {
	out := make([]float64, SelectionSize)
	copy(out, v[:])
	return out
}
