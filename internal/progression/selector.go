package progression

import (
	"context"

	"github.com/abhisek/screenwise/internal/fallback"
	"github.com/abhisek/screenwise/internal/features"
	"github.com/abhisek/screenwise/internal/screening"
)

// Selector picks the next cell, preferring the learned policy and falling
// back to the rules. It holds only immutable configuration and is safe for
// concurrent use.
type Selector struct {
	Rules    RulePolicy
	Learned  Policy
	Resolver fallback.Resolver
}

// NewSelector creates a selector. learned may be nil.
func NewSelector(th Thresholds, learned Policy, r fallback.Resolver) *Selector {
	return &Selector{Rules: RulePolicy{Thresholds: th}, Learned: learned, Resolver: r}
}

// Next returns the cell for the next question given a snapshot of the
// session and its last event. The first turn always opens at Start.
func (s *Selector) Next(ctx context.Context, events []screening.ResponseEvent, last *screening.ResponseEvent) fallback.Outcome[Decision] {
	if last == nil {
		return fallback.Outcome[Decision]{Value: Start, Source: fallback.SourceRules}
	}

	in := Input{
		Selection:  features.ExtractSelection(events, last),
		Transition: features.ExtractTransition(last),
	}

	var learned fallback.Learned[Decision]
	if s.Learned != nil {
		learned = func(ctx context.Context) (Decision, error) {
			return s.Learned.Decide(ctx, in)
		}
	}
	return fallback.Resolve(ctx, s.Resolver, fallback.SiteSelection, learned, func() Decision {
		return s.Rules.Next(in.Selection)
	})
}
