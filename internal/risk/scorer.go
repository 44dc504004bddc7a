package risk

import (
	"math"

	"github.com/abhisek/screenwise/internal/features"
	"github.com/abhisek/screenwise/internal/model"
	"github.com/abhisek/screenwise/internal/screening"
)

// Weights of the rule scorer. Each risk is a convex combination of
// (1 - overall accuracy), (1 - domain accuracy) and an error-type rate.
const (
	overallWeight   = 0.3
	domainWeight    = 0.4
	errorRateWeight = 0.3
)

// RuleScore computes the three elevated risk scores from the risk vector
// and the session's overall accuracy. Every score lies in [0,1].
func RuleScore(v features.RiskVector, overallAcc float64) screening.RiskScores {
	miss := 1 - overallAcc
	combine := func(domainAcc, rate float64) float64 {
		return clamp01(overallWeight*miss + domainWeight*(1-domainAcc) + errorRateWeight*rate)
	}
	return screening.RiskScores{
		screening.RiskDyslexia:    combine(v.ReadingAcc, v.RevRate),
		screening.RiskDyscalculia: combine(v.MathAcc, v.PVRate),
		screening.RiskAttention:   combine(v.FocusAcc, v.ImpulseRate),
	}
}

// SelectLabel picks the highest elevated score, ties going to the earlier
// label in screening.ElevatedLabels. A winning score below lowRisk yields
// low-risk. The winning score is returned either way.
func SelectLabel(scores screening.RiskScores, lowRisk float64) (screening.RiskLabel, float64) {
	best := screening.ElevatedLabels[0]
	for _, l := range screening.ElevatedLabels[1:] {
		if scores[l] > scores[best] {
			best = l
		}
	}
	if scores[best] < lowRisk {
		return screening.RiskLow, scores[best]
	}
	return best, scores[best]
}

// NormalizeProbability converts p from scale to a fraction in [0,1].
// Non-finite values normalize to 0.
func NormalizeProbability(p float64, scale model.Scale) float64 {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0
	}
	if scale == model.ScalePercent {
		p /= 100
	}
	return clamp01(p)
}

// Bucket maps a normalized probability to a confidence level.
func (c Calibration) Bucket(p float64) screening.ConfidenceLevel {
	switch {
	case p > c.HighConfidence:
		return screening.LevelHigh
	case p > c.ModerateConfidence:
		return screening.LevelModerate
	default:
		return screening.LevelLow
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
