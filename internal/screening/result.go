package screening

import "fmt"

// RiskLabel is the final classification of a completed session.
type RiskLabel string

const (
	RiskLow         RiskLabel = "low-risk"
	RiskDyslexia    RiskLabel = "dyslexia-risk"
	RiskDyscalculia RiskLabel = "dyscalculia-risk"
	RiskAttention   RiskLabel = "attention-risk"
)

// ElevatedLabels lists the non-low labels in tie-break order.
var ElevatedLabels = []RiskLabel{RiskDyslexia, RiskDyscalculia, RiskAttention}

// ParseRiskLabel converts a raw label into a RiskLabel.
func ParseRiskLabel(s string) (RiskLabel, error) {
	switch RiskLabel(s) {
	case RiskLow, RiskDyslexia, RiskDyscalculia, RiskAttention:
		return RiskLabel(s), nil
	}
	return "", fmt.Errorf("unknown risk label %q", s)
}

// DisplayName returns the human-readable label shown on reports.
func (l RiskLabel) DisplayName() string {
	switch l {
	case RiskLow:
		return "Low Risk - No Significant Concerns"
	case RiskDyslexia:
		return "Possible Dyslexia-related Risk"
	case RiskDyscalculia:
		return "Possible Dyscalculia-related Risk"
	case RiskAttention:
		return "Possible Attention-related Risk"
	}
	return string(l)
}

// ConfidenceLevel buckets how sure the engine is about a label.
type ConfidenceLevel string

const (
	LevelLow      ConfidenceLevel = "low"
	LevelModerate ConfidenceLevel = "moderate"
	LevelHigh     ConfidenceLevel = "high"
)

// RiskScores maps each elevated label to a risk in [0,1].
type RiskScores map[RiskLabel]float64

// ZeroScores returns scores with every elevated label set to 0.
func ZeroScores() RiskScores {
	s := make(RiskScores, len(ElevatedLabels))
	for _, l := range ElevatedLabels {
		s[l] = 0
	}
	return s
}

// MaxInsights caps the number of insights in a RiskResult.
const MaxInsights = 5

// RiskResult is the outcome of a completed session.
type RiskResult struct {
	Label      RiskLabel
	Confidence ConfidenceLevel
	Scores     RiskScores
	Insights   []string
}
