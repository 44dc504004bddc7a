// Package progression decides the domain and difficulty of the next
// question from the learner's last answer.
package progression

import (
	"fmt"

	"github.com/abhisek/screenwise/internal/screening"
)

// Thresholds are the response-time cutoffs driving difficulty changes.
// A correct answer faster than FastMs moves up a step; a wrong answer or
// one slower than SlowMs moves down a step.
type Thresholds struct {
	FastMs int `yaml:"fast_ms" validate:"gt=0"`
	SlowMs int `yaml:"slow_ms" validate:"gtfield=FastMs"`
}

// Named threshold profiles.
const (
	ProfileLenient = "lenient"
	ProfileStrict  = "strict"
)

var (
	// Lenient is the default deployment profile.
	Lenient = Thresholds{FastMs: 1500, SlowMs: 2000}
	// Strict is the tighter legacy profile.
	Strict = Thresholds{FastMs: 900, SlowMs: 1400}
)

// ProfileThresholds returns the thresholds for a named profile.
func ProfileThresholds(name string) (Thresholds, error) {
	switch name {
	case "", ProfileLenient:
		return Lenient, nil
	case ProfileStrict:
		return Strict, nil
	}
	return Thresholds{}, fmt.Errorf("unknown progression profile %q", name)
}

// NextDifficulty applies the step rule to the current difficulty. The
// result never leaves [easy, hard]. An unknown current difficulty is
// treated as medium.
func NextDifficulty(current screening.Difficulty, correct bool, responseTimeMs int, th Thresholds) screening.Difficulty {
	idx := current.Index()
	if idx < 0 {
		idx = screening.DifficultyMedium.Index()
	}
	switch {
	case correct && responseTimeMs < th.FastMs:
		idx = min(idx+1, len(screening.Difficulties)-1)
	case !correct || responseTimeMs > th.SlowMs:
		idx = max(idx-1, 0)
	}
	return screening.Difficulties[idx]
}

// NextDomain returns the least-asked domain. Ties go to the earliest
// domain in priority order.
func NextDomain(counts [4]float64) screening.Domain {
	best := 0
	for i := 1; i < len(counts); i++ {
		if counts[i] < counts[best] {
			best = i
		}
	}
	return screening.Domains[best]
}
