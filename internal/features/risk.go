package features

import (
	"math"

	"github.com/abhisek/screenwise/internal/screening"
)

// RiskSize is the length of the risk-assessment vector.
const RiskSize = 7

// Defaults used when a session has no events to measure.
const (
	DefaultBucketAccuracy = 0.5
	DefaultAvgTimeMs      = 2000
	impulseCutoffMs       = 1000
)

// RiskVector is the risk-assessment feature schema, computed once at
// session completion.
type RiskVector struct {
	ReadingAcc  float64 `json:"reading_acc" yaml:"reading_acc"`
	MathAcc     float64 `json:"math_acc" yaml:"math_acc"`
	FocusAcc    float64 `json:"focus_acc" yaml:"focus_acc"`
	AvgTimeMs   float64 `json:"avg_time_ms" yaml:"avg_time_ms"`
	RevRate     float64 `json:"rev_rate" yaml:"rev_rate"`
	PVRate      float64 `json:"pv_rate" yaml:"pv_rate"`
	ImpulseRate float64 `json:"impulse_rate" yaml:"impulse_rate"`
}

// RiskFeatureNames lists the vector fields in Slice order.
var RiskFeatureNames = []string{
	"reading_acc", "math_acc", "focus_acc", "avg_time_ms", "rev_rate", "pv_rate", "impulse_rate",
}

// Slice returns the vector in RiskFeatureNames order.
func (v RiskVector) Slice() []float64 {
	return []float64{v.ReadingAcc, v.MathAcc, v.FocusAcc, v.AvgTimeMs, v.RevRate, v.PVRate, v.ImpulseRate}
}

// OverallAccuracy returns correct/total across every event, or
// DefaultBucketAccuracy for an empty history. Unlike the bucket
// accuracies it is not smoothed by empty buckets.
func OverallAccuracy(events []screening.ResponseEvent) float64 {
	if len(events) == 0 {
		return DefaultBucketAccuracy
	}
	correct := 0
	for _, e := range events {
		if e.Correct {
			correct++
		}
	}
	return float64(correct) / float64(len(events))
}

type bucket struct{ total, correct int }

func (b bucket) accuracy() float64 {
	if b.total == 0 {
		return DefaultBucketAccuracy
	}
	return float64(b.correct) / float64(b.total)
}

// ExtractRisk builds the risk vector. Writing is merged into reading and
// attention into focus. Empty buckets report DefaultBucketAccuracy so the
// engine behaves predictably on sparse sessions.
func ExtractRisk(events []screening.ResponseEvent) RiskVector {
	var reading, arith, focus bucket
	var totalTime int64
	var reversals, placeValue, impulsive int

	for _, e := range events {
		var b *bucket
		switch e.Domain {
		case screening.DomainReading, screening.DomainWriting:
			b = &reading
		case screening.DomainMath:
			b = &arith
		case screening.DomainAttention:
			b = &focus
		}
		if b != nil {
			b.total++
			if e.Correct {
				b.correct++
			}
		}

		totalTime += int64(e.ResponseTimeMs)

		switch e.MistakeType {
		case screening.MistakeLetterReversal:
			reversals++
		case screening.MistakeNumberReversal, screening.MistakeSubstitution:
			placeValue++
		}
		if !e.Correct && e.ResponseTimeMs < impulseCutoffMs {
			impulsive++
		}
	}

	v := RiskVector{
		ReadingAcc: reading.accuracy(),
		MathAcc:    arith.accuracy(),
		FocusAcc:   focus.accuracy(),
		AvgTimeMs:  DefaultAvgTimeMs,
	}

	total := len(events)
	if total == 0 {
		return v
	}
	n := float64(total)
	v.AvgTimeMs = float64(totalTime) / n
	v.RevRate = float64(reversals) / n
	v.PVRate = float64(placeValue) / n
	v.ImpulseRate = float64(impulsive) / n
	return v
}

// ResponseTimeStdDev returns the population standard deviation of response
// times, or 0 when fewer than two events exist.
func ResponseTimeStdDev(events []screening.ResponseEvent) float64 {
	if len(events) < 2 {
		return 0
	}
	var sum float64
	for _, e := range events {
		sum += float64(e.ResponseTimeMs)
	}
	mean := sum / float64(len(events))

	var sq float64
	for _, e := range events {
		d := float64(e.ResponseTimeMs) - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(events)))
}
