// Package fallback decides, at a single point, whether a decision is served
// by a learned model or by the deterministic rule path.
//
// Both call sites (next-question selection and risk inference) go through
// Resolve so the fallback behaviour is identical for each of them: a
// missing model, an error or a panic inside the learned call always
// produces the rule result, never an error for the caller.
package fallback

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/screenwise/internal/logging"
	"github.com/abhisek/screenwise/internal/metrics"
)

// Site names a decision point.
type Site string

const (
	SiteSelection Site = "selection"
	SiteRisk      Site = "risk"
	SiteQuestion  Site = "question"
)

// Source records which path produced a value.
type Source string

const (
	SourceLearned Source = "learned"
	SourceRules   Source = "rules"
)

var (
	// ErrModelUnavailable means no learned model is configured or it failed to load.
	ErrModelUnavailable = errors.New("learned model unavailable")
	// ErrMalformedOutput means the learned model returned something unusable.
	ErrMalformedOutput = errors.New("malformed model output")
)

// Reason labels used for logging and the fallback counter.
const (
	ReasonUnavailable = "unavailable"
	ReasonMalformed   = "malformed"
	ReasonPanic       = "panic"
	ReasonError       = "error"
)

// Outcome is the resolved value plus where it came from. Callers use Value;
// Source exists for logging and persistence.
type Outcome[T any] struct {
	Value  T
	Source Source
}

// Resolver carries the logger and counters shared by every call site.
// The zero value is usable and discards logs and metrics.
type Resolver struct {
	Logger  *zap.Logger
	Metrics *metrics.Registry
}

// Learned is a learned-model invocation.
type Learned[T any] func(ctx context.Context) (T, error)

// Resolve runs learned first. When learned is nil, returns an error, or
// panics, the rule function is evaluated from scratch and its value is
// returned instead.
func Resolve[T any](ctx context.Context, r Resolver, site Site, learned Learned[T], rules func() T) Outcome[T] {
	log := logging.OrNop(r.Logger)

	if learned == nil {
		r.Metrics.Decision(string(site), string(SourceRules))
		return Outcome[T]{Value: rules(), Source: SourceRules}
	}

	v, err := callLearned(ctx, learned)
	if err == nil {
		r.Metrics.Decision(string(site), string(SourceLearned))
		return Outcome[T]{Value: v, Source: SourceLearned}
	}

	reason := Reason(err)
	log.Warn("learned model fell back to rules",
		zap.String("site", string(site)),
		zap.String("reason", reason),
		zap.Error(err),
	)
	r.Metrics.Fallback(string(site), reason)
	r.Metrics.Decision(string(site), string(SourceRules))
	return Outcome[T]{Value: rules(), Source: SourceRules}
}

// Reason classifies a learned-model error into a counter label.
func Reason(err error) string {
	var p *PanicError
	switch {
	case errors.As(err, &p):
		return ReasonPanic
	case errors.Is(err, ErrModelUnavailable):
		return ReasonUnavailable
	case errors.Is(err, ErrMalformedOutput):
		return ReasonMalformed
	default:
		return ReasonError
	}
}

// PanicError wraps a value recovered from a panicking learned call.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("learned model panicked: %v", e.Value)
}

func callLearned[T any](ctx context.Context, learned Learned[T]) (v T, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			var zero T
			v = zero
			err = &PanicError{Value: rec}
		}
	}()
	return learned(ctx)
}
