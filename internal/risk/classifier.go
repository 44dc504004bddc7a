package risk

import (
	"context"
	"fmt"
	"math"

	"github.com/abhisek/screenwise/internal/fallback"
	"github.com/abhisek/screenwise/internal/features"
	"github.com/abhisek/screenwise/internal/model"
	"github.com/abhisek/screenwise/internal/screening"
)

// Assessment is a classifier's verdict before calibration is applied.
type Assessment struct {
	// Label is the classifier's winning label.
	Label screening.RiskLabel
	// Probability is the winning probability as reported, in Scale.
	Probability float64
	Scale       model.Scale
	// Scores holds per-label risks as fractions. Nil when the classifier
	// reports only a label.
	Scores screening.RiskScores
}

// Classifier is a learned risk classifier.
type Classifier interface {
	Name() string
	Classify(ctx context.Context, v features.RiskVector) (*Assessment, error)
}

// CheckAssessment validates a classifier verdict. Any violation wraps
// fallback.ErrMalformedOutput.
func CheckAssessment(a *Assessment) error {
	if a == nil {
		return fmt.Errorf("%w: nil assessment", fallback.ErrMalformedOutput)
	}
	if _, err := screening.ParseRiskLabel(string(a.Label)); err != nil {
		return fmt.Errorf("%w: %v", fallback.ErrMalformedOutput, err)
	}
	if !finite(a.Probability) || a.Probability < 0 {
		return fmt.Errorf("%w: probability %v", fallback.ErrMalformedOutput, a.Probability)
	}
	switch a.Scale {
	case model.ScaleFraction, model.ScalePercent:
	default:
		return fmt.Errorf("%w: unknown probability scale %q", fallback.ErrMalformedOutput, a.Scale)
	}
	for l, s := range a.Scores {
		if _, err := screening.ParseRiskLabel(string(l)); err != nil || l == screening.RiskLow {
			return fmt.Errorf("%w: unexpected score label %q", fallback.ErrMalformedOutput, l)
		}
		if !finite(s) {
			return fmt.Errorf("%w: non-finite score for %s", fallback.ErrMalformedOutput, l)
		}
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// ModelClassifier evaluates a learned risk artifact. The "risk" head must
// classify into risk labels; unknown class names are malformed output.
type ModelClassifier struct {
	Loader *model.Loader
	Path   string
}

var _ Classifier = (*ModelClassifier)(nil)

func (c *ModelClassifier) Name() string { return "model:" + c.Path }

func (c *ModelClassifier) Classify(_ context.Context, v features.RiskVector) (*Assessment, error) {
	if c.Loader == nil || c.Path == "" {
		return nil, fallback.ErrModelUnavailable
	}
	art, err := c.Loader.Load(c.Path, model.KindRisk)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", fallback.ErrModelUnavailable, err)
	}
	preds, err := art.Predict(v.Slice())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", fallback.ErrMalformedOutput, err)
	}
	p, ok := preds[model.HeadRisk]
	if !ok || len(p.Probabilities) == 0 {
		return nil, fmt.Errorf("%w: missing risk head", fallback.ErrMalformedOutput)
	}

	head, _ := art.Head(model.HeadRisk)
	scores := screening.ZeroScores()
	for i, class := range head.Classes {
		label, err := screening.ParseRiskLabel(class)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", fallback.ErrMalformedOutput, err)
		}
		if label != screening.RiskLow {
			scores[label] = NormalizeProbability(p.Probabilities[i], art.Scale())
		}
	}

	return &Assessment{
		Label:       screening.RiskLabel(p.Class),
		Probability: p.Probability,
		Scale:       art.Scale(),
		Scores:      scores,
	}, nil
}
