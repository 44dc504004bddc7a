package risk

import (
	"context"

	"github.com/abhisek/screenwise/internal/fallback"
	"github.com/abhisek/screenwise/internal/features"
	"github.com/abhisek/screenwise/internal/screening"
)

// Engine infers a RiskResult from a completed session. It prefers the
// learned classifier and falls back to the rule scorer. Engine holds only
// immutable configuration and is safe for concurrent use.
type Engine struct {
	Calibration Calibration
	Learned     Classifier
	Resolver    fallback.Resolver
	Insights    []InsightRule
}

// NewEngine creates an engine. learned may be nil.
func NewEngine(cal Calibration, learned Classifier, r fallback.Resolver) *Engine {
	return &Engine{
		Calibration: cal,
		Learned:     learned,
		Resolver:    r,
		Insights:    DefaultInsightRules(),
	}
}

// Infer returns the risk result for the events.
func (e *Engine) Infer(ctx context.Context, events []screening.ResponseEvent) screening.RiskResult {
	return e.InferWithSource(ctx, events).Value
}

// InferWithSource is Infer plus which path produced the classification.
func (e *Engine) InferWithSource(ctx context.Context, events []screening.ResponseEvent) fallback.Outcome[screening.RiskResult] {
	if len(events) == 0 {
		return fallback.Outcome[screening.RiskResult]{
			Value: screening.RiskResult{
				Label:      screening.RiskLow,
				Confidence: screening.LevelLow,
				Scores:     screening.ZeroScores(),
				Insights:   []string{InsufficientData},
			},
			Source: fallback.SourceRules,
		}
	}

	v := features.ExtractRisk(events)
	acc := features.OverallAccuracy(events)

	var learned fallback.Learned[screening.RiskResult]
	if e.Learned != nil {
		learned = func(ctx context.Context) (screening.RiskResult, error) {
			a, err := e.Learned.Classify(ctx, v)
			if err != nil {
				return screening.RiskResult{}, err
			}
			if err := CheckAssessment(a); err != nil {
				return screening.RiskResult{}, err
			}
			return e.fromAssessment(a), nil
		}
	}

	out := fallback.Resolve(ctx, e.Resolver, fallback.SiteRisk, learned, func() screening.RiskResult {
		return e.fromRules(v, acc)
	})

	insights := e.Insights
	if insights == nil {
		insights = DefaultInsightRules()
	}
	out.Value.Insights = RunInsights(insights, NewInsightInput(events, v, e.Calibration), screening.MaxInsights)
	return out
}

func (e *Engine) fromRules(v features.RiskVector, acc float64) screening.RiskResult {
	scores := RuleScore(v, acc)
	label, top := SelectLabel(scores, e.Calibration.LowRiskThreshold)
	return screening.RiskResult{
		Label:      label,
		Confidence: e.Calibration.Bucket(top),
		Scores:     scores,
	}
}

// fromAssessment normalizes a checked classifier verdict and applies the
// low-risk override. The override looks at the largest elevated score, as
// on the rule path; without reported scores that is the winning
// probability. The classifier's label is kept otherwise.
func (e *Engine) fromAssessment(a *Assessment) screening.RiskResult {
	p := NormalizeProbability(a.Probability, a.Scale)

	scores := screening.ZeroScores()
	for _, l := range screening.ElevatedLabels {
		if s, ok := a.Scores[l]; ok {
			scores[l] = clamp01(s)
		}
	}
	if a.Scores == nil && a.Label != screening.RiskLow {
		scores[a.Label] = p
	}

	label := a.Label
	_, top := SelectLabel(scores, e.Calibration.LowRiskThreshold)
	if label != screening.RiskLow && top < e.Calibration.LowRiskThreshold {
		label = screening.RiskLow
	}
	return screening.RiskResult{
		Label:      label,
		Confidence: e.Calibration.Bucket(p),
		Scores:     scores,
	}
}
