package progression

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/abhisek/screenwise/internal/fallback"
	"github.com/abhisek/screenwise/internal/features"
	"github.com/abhisek/screenwise/internal/logging"
	"github.com/abhisek/screenwise/internal/metrics"
	"github.com/abhisek/screenwise/internal/model"
	"github.com/abhisek/screenwise/internal/screening"
)

// Input carries both feature shapes a policy may consume.
type Input struct {
	Selection  features.SelectionVector
	Transition features.TransitionVector
}

// Decision is the cell the next question is drawn from.
type Decision struct {
	Domain     screening.Domain
	Difficulty screening.Difficulty
}

// Start is the cell every session opens with.
var Start = Decision{Domain: screening.DomainReading, Difficulty: screening.DifficultyEasy}

// Policy maps features to the next cell.
type Policy interface {
	// Name identifies the policy in logs.
	Name() string

	// Decide returns the next cell. Implementations must return values
	// inside the domain and difficulty enumerations.
	Decide(ctx context.Context, in Input) (Decision, error)
}

// RulePolicy is the reference policy. It never fails.
type RulePolicy struct {
	Thresholds Thresholds
}

var _ Policy = RulePolicy{}

func (RulePolicy) Name() string { return "rules" }

func (p RulePolicy) Decide(_ context.Context, in Input) (Decision, error) {
	return p.Next(in.Selection), nil
}

// Next decodes the selection vector and applies the step and rotation rules.
func (p RulePolicy) Next(v features.SelectionVector) Decision {
	correct := v[features.SelLastCorrect] != 0
	ms := int(v[features.SelLastResponseTime])
	return Decision{
		Domain:     NextDomain(v.Counts()),
		Difficulty: NextDifficulty(v.LastDifficulty(), correct, ms, p.Thresholds),
	}
}

// ModelPolicy evaluates a learned selection artifact. The artifact is
// loaded lazily through the shared loader, so a missing file surfaces as
// fallback.ErrModelUnavailable on every call.
type ModelPolicy struct {
	Loader  *model.Loader
	Path    string
	Logger  *zap.Logger
	Metrics *metrics.Registry
}

var _ Policy = (*ModelPolicy)(nil)

func (p *ModelPolicy) Name() string { return "model:" + p.Path }

func (p *ModelPolicy) Decide(_ context.Context, in Input) (Decision, error) {
	if p.Loader == nil || p.Path == "" {
		return Decision{}, fallback.ErrModelUnavailable
	}
	art, err := p.Loader.Load(p.Path, model.KindSelection)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", fallback.ErrModelUnavailable, err)
	}

	var x []float64
	if art.Input == model.InputTransition {
		x = in.Transition.Slice()
	} else {
		x = in.Selection.Slice()
	}
	preds, err := art.Predict(x)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", fallback.ErrMalformedOutput, err)
	}

	domainIdx, err := headIndex(preds[model.HeadDomain], func(s string) int {
		d, err := screening.ParseDomain(s)
		if err != nil {
			return -1
		}
		return d.Index()
	})
	if err != nil {
		return Decision{}, err
	}
	diffIdx, err := headIndex(preds[model.HeadDifficulty], func(s string) int {
		d, err := screening.ParseDifficulty(s)
		if err != nil {
			return -1
		}
		return d.Index()
	})
	if err != nil {
		return Decision{}, err
	}

	d, clamped := Clamp(domainIdx, diffIdx)
	if clamped {
		logging.OrNop(p.Logger).Warn("clamped out-of-range model output",
			zap.Bool("data_quality", true),
			zap.String("site", string(fallback.SiteSelection)),
			zap.Float64("domain_index", domainIdx),
			zap.Float64("difficulty_index", diffIdx),
		)
		p.Metrics.Clamped(string(fallback.SiteSelection))
	}
	return d, nil
}

// headIndex turns a prediction into an enumeration index. Classifier heads
// are resolved by class name; regression heads report their raw value.
func headIndex(p model.Prediction, parse func(string) int) (float64, error) {
	if p.Class != "" {
		idx := parse(p.Class)
		if idx < 0 {
			return 0, fmt.Errorf("%w: head %q emitted unknown class %q", fallback.ErrMalformedOutput, p.Head, p.Class)
		}
		return float64(idx), nil
	}
	if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
		return 0, fmt.Errorf("%w: head %q emitted non-finite value", fallback.ErrMalformedOutput, p.Head)
	}
	return p.Value, nil
}

// Clamp rounds raw indices to the nearest valid domain and difficulty and
// reports whether either value had to be moved into range.
func Clamp(domainIdx, difficultyIdx float64) (Decision, bool) {
	d, dc := clampIndex(domainIdx, len(screening.Domains))
	f, fc := clampIndex(difficultyIdx, len(screening.Difficulties))
	return Decision{Domain: screening.Domains[d], Difficulty: screening.Difficulties[f]}, dc || fc
}

func clampIndex(v float64, n int) (int, bool) {
	if math.IsNaN(v) {
		return 0, true
	}
	r := math.Round(v)
	switch {
	case r < 0:
		return 0, true
	case r > float64(n-1):
		return n - 1, true
	}
	return int(r), r != v
}
