package risk

import (
	"fmt"
	"math"

	"github.com/abhisek/screenwise/internal/features"
	"github.com/abhisek/screenwise/internal/screening"
)

// InsufficientData is the only insight reported for an empty session.
const InsufficientData = "insufficient data"

// Default insights used when no rule fires.
const (
	InsightNormal   = "Performance within normal range"
	InsightFollowUp = "Some areas may benefit from additional assessment"
)

// InsightInput is what insight rules evaluate.
type InsightInput struct {
	Vector features.RiskVector

	// Accuracy is correct/total over the whole session.
	Accuracy        float64
	ReversalCount   int
	PlaceValueCount int
	StdDevMs        float64
	Calibration     Calibration
}

// NewInsightInput derives counts and spread from the session events.
func NewInsightInput(events []screening.ResponseEvent, v features.RiskVector, cal Calibration) *InsightInput {
	in := &InsightInput{
		Vector:      v,
		Accuracy:    features.OverallAccuracy(events),
		StdDevMs:    features.ResponseTimeStdDev(events),
		Calibration: cal,
	}
	for _, e := range events {
		switch e.MistakeType {
		case screening.MistakeLetterReversal:
			in.ReversalCount++
		case screening.MistakeNumberReversal, screening.MistakeSubstitution:
			in.PlaceValueCount++
		}
	}
	return in
}

// InsightRule produces at most one insight.
// Returns "" if the rule doesn't apply.
type InsightRule interface {
	Name() string
	Evaluate(in *InsightInput) string
}

// insightFunc adapts a function into an InsightRule.
type insightFunc struct {
	name string
	fn   func(in *InsightInput) string
}

func (r insightFunc) Name() string                     { return r.name }
func (r insightFunc) Evaluate(in *InsightInput) string { return r.fn(in) }

// DefaultInsightRules returns the rules in priority order.
func DefaultInsightRules() []InsightRule {
	return []InsightRule{
		insightFunc{"letter-reversals", func(in *InsightInput) string {
			if in.ReversalCount >= in.Calibration.ReversalInstances {
				return fmt.Sprintf("Frequent letter reversals observed (%d instances)", in.ReversalCount)
			}
			return ""
		}},
		insightFunc{"number-reversals", func(in *InsightInput) string {
			if in.PlaceValueCount >= in.Calibration.ReversalInstances {
				return fmt.Sprintf("Frequent number reversals or substitutions observed (%d instances)", in.PlaceValueCount)
			}
			return ""
		}},
		insightFunc{"slow-responses", func(in *InsightInput) string {
			if in.Vector.AvgTimeMs > in.Calibration.SlowAvgTimeMs {
				return "Response speed slower than age norm"
			}
			return ""
		}},
		insightFunc{"impulsive-responses", func(in *InsightInput) string {
			if in.Vector.AvgTimeMs < in.Calibration.FastAvgTimeMs && in.Vector.ImpulseRate >= in.Calibration.ImpulseRate {
				return "Very fast responses with frequent errors suggest impulsive answering"
			}
			return ""
		}},
		insightFunc{"low-accuracy", func(in *InsightInput) string {
			if acc := in.Accuracy; acc < in.Calibration.LowAccuracy {
				return fmt.Sprintf("Overall accuracy below expected level (%.0f%%)", math.Round(acc*100))
			}
			return ""
		}},
		insightFunc{"reading-shortfall", func(in *InsightInput) string {
			v := in.Vector
			if v.ReadingAcc < in.Calibration.LowDomainAccuracy && v.ReadingAcc < v.MathAcc {
				return "Difficulty with reading-based tasks compared to math"
			}
			return ""
		}},
		insightFunc{"math-shortfall", func(in *InsightInput) string {
			v := in.Vector
			if v.MathAcc < in.Calibration.LowDomainAccuracy && v.MathAcc < v.ReadingAcc {
				return "Difficulty with math-based tasks compared to reading"
			}
			return ""
		}},
		insightFunc{"focus-shortfall", func(in *InsightInput) string {
			if in.Vector.FocusAcc < in.Calibration.LowDomainAccuracy {
				return "Difficulty sustaining focus on attention tasks"
			}
			return ""
		}},
		insightFunc{"response-variability", func(in *InsightInput) string {
			if in.StdDevMs > in.Calibration.VariabilityStdDevMs {
				return "High variability in response times may indicate attention difficulties"
			}
			return ""
		}},
	}
}

// RunInsights evaluates rules in order and returns at most limit insights.
// When nothing fires, exactly one default insight is returned.
func RunInsights(rules []InsightRule, in *InsightInput, limit int) []string {
	var out []string
	for _, r := range rules {
		if len(out) == limit {
			break
		}
		if s := r.Evaluate(in); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		if in.Accuracy > in.Calibration.NormalAccuracy {
			return []string{InsightNormal}
		}
		return []string{InsightFollowUp}
	}
	return out
}
