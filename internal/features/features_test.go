package features

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/abhisek/screenwise/internal/screening"
)

func ev(d screening.Domain, diff screening.Difficulty, correct bool, ms int, m screening.MistakeType) screening.ResponseEvent {
	return screening.ResponseEvent{Domain: d, Difficulty: diff, Correct: correct, ResponseTimeMs: ms, MistakeType: m}
}

func TestExtractSelection_FreshStart(t *testing.T) {
	got := ExtractSelection(nil, nil)
	want := SelectionVector{1, 1000, 1, 0, 0, 1.0, 0, 0, 0, 0}
	if got != want {
		t.Errorf("fresh start = %v, want %v", got, want)
	}
}

func TestExtractSelection(t *testing.T) {
	events := []screening.ResponseEvent{
		ev(screening.DomainReading, screening.DifficultyEasy, true, 900, ""),
		ev(screening.DomainWriting, screening.DifficultyMedium, false, 2500, ""),
		ev(screening.DomainMath, screening.DifficultyMedium, true, 1200, ""),
		ev(screening.DomainReading, screening.DifficultyHard, true, 700, ""),
	}
	last := events[len(events)-1]

	got := ExtractSelection(events, &last)
	want := SelectionVector{1, 700, 0, 0, 1, 0.75, 2, 1, 1, 0}
	if got != want {
		t.Errorf("ExtractSelection = %v, want %v", got, want)
	}
	if got.LastDifficulty() != screening.DifficultyHard {
		t.Errorf("LastDifficulty = %q, want hard", got.LastDifficulty())
	}
}

func TestExtractSelection_EmptyHistoryWithLastEvent(t *testing.T) {
	last := ev(screening.DomainMath, screening.DifficultyMedium, false, 3000, "")
	got := ExtractSelection(nil, &last)
	if got[SelSessionAccuracy] != 0.5 {
		t.Errorf("session accuracy = %v, want 0.5 on empty history", got[SelSessionAccuracy])
	}
	if got[SelLastCorrect] != 0 || got[SelDiffMedium] != 1 {
		t.Errorf("unexpected vector %v", got)
	}
}

func TestExtractSelection_Idempotent(t *testing.T) {
	events := randomEvents(rand.New(rand.NewPCG(1, 2)), 12)
	last := events[len(events)-1]
	a := ExtractSelection(events, &last)
	b := ExtractSelection(events, &last)
	if a != b {
		t.Errorf("two calls differ: %v vs %v", a, b)
	}
}

func TestExtractTransition(t *testing.T) {
	if got := ExtractTransition(nil); got != (TransitionVector{0, 0, 1, 2000}) {
		t.Errorf("fresh transition = %v", got)
	}
	last := ev(screening.DomainAttention, screening.DifficultyHard, false, 640, "")
	if got := ExtractTransition(&last); got != (TransitionVector{3, 2, 0, 640}) {
		t.Errorf("transition = %v", got)
	}
}

func TestExtractRisk_Empty(t *testing.T) {
	got := ExtractRisk(nil)
	want := RiskVector{ReadingAcc: 0.5, MathAcc: 0.5, FocusAcc: 0.5, AvgTimeMs: 2000}
	if got != want {
		t.Errorf("ExtractRisk(nil) = %+v, want %+v", got, want)
	}
}

func TestExtractRisk_Buckets(t *testing.T) {
	events := []screening.ResponseEvent{
		ev(screening.DomainReading, screening.DifficultyEasy, true, 1000, ""),
		ev(screening.DomainWriting, screening.DifficultyEasy, false, 3000, screening.MistakeLetterReversal),
		ev(screening.DomainMath, screening.DifficultyEasy, false, 500, screening.MistakeNumberReversal),
		ev(screening.DomainMath, screening.DifficultyEasy, false, 1500, screening.MistakeSubstitution),
		ev(screening.DomainAttention, screening.DifficultyEasy, true, 4000, ""),
	}
	got := ExtractRisk(events)

	if got.ReadingAcc != 0.5 {
		t.Errorf("reading acc = %v, want 0.5 (writing merged into reading)", got.ReadingAcc)
	}
	if got.MathAcc != 0 {
		t.Errorf("math acc = %v, want 0", got.MathAcc)
	}
	if got.FocusAcc != 1 {
		t.Errorf("focus acc = %v, want 1", got.FocusAcc)
	}
	if got.AvgTimeMs != 2000 {
		t.Errorf("avg time = %v, want 2000", got.AvgTimeMs)
	}
	if got.RevRate != 0.2 {
		t.Errorf("rev rate = %v, want 0.2", got.RevRate)
	}
	if got.PVRate != 0.4 {
		t.Errorf("pv rate = %v, want 0.4", got.PVRate)
	}
	if got.ImpulseRate != 0.2 {
		t.Errorf("impulse rate = %v, want 0.2", got.ImpulseRate)
	}
}

func TestExtractRisk_Bounds(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for i := 0; i < 200; i++ {
		events := randomEvents(rng, rng.IntN(25))
		v := ExtractRisk(events)
		for name, f := range map[string]float64{
			"reading_acc": v.ReadingAcc, "math_acc": v.MathAcc, "focus_acc": v.FocusAcc,
			"rev_rate": v.RevRate, "pv_rate": v.PVRate, "impulse_rate": v.ImpulseRate,
		} {
			if f < 0 || f > 1 || math.IsNaN(f) {
				t.Fatalf("%s = %v out of [0,1] for %d events", name, f, len(events))
			}
		}
		if v.AvgTimeMs < 0 {
			t.Fatalf("avg time %v < 0", v.AvgTimeMs)
		}
	}
}

func TestResponseTimeStdDev(t *testing.T) {
	if got := ResponseTimeStdDev(nil); got != 0 {
		t.Errorf("stddev(nil) = %v", got)
	}
	events := []screening.ResponseEvent{
		ev(screening.DomainMath, screening.DifficultyEasy, true, 1000, ""),
		ev(screening.DomainMath, screening.DifficultyEasy, true, 3000, ""),
	}
	if got := ResponseTimeStdDev(events); got != 1000 {
		t.Errorf("stddev = %v, want 1000", got)
	}
}

func TestOverallAccuracy(t *testing.T) {
	if got := OverallAccuracy(nil); got != DefaultBucketAccuracy {
		t.Errorf("OverallAccuracy(nil) = %v", got)
	}
	// Only reading answered: bucket accuracies are smoothed, overall is not.
	events := []screening.ResponseEvent{
		ev(screening.DomainReading, screening.DifficultyEasy, true, 2000, ""),
		ev(screening.DomainReading, screening.DifficultyEasy, true, 2000, ""),
	}
	if got := OverallAccuracy(events); got != 1 {
		t.Errorf("OverallAccuracy = %v, want 1", got)
	}
	if v := ExtractRisk(events); v.MathAcc != DefaultBucketAccuracy || v.FocusAcc != DefaultBucketAccuracy {
		t.Errorf("empty buckets = %v/%v, want smoothed", v.MathAcc, v.FocusAcc)
	}
	events = append(events, ev(screening.DomainMath, screening.DifficultyEasy, false, 2000, ""))
	if got := OverallAccuracy(events); math.Abs(got-2.0/3) > 1e-9 {
		t.Errorf("OverallAccuracy = %v, want 2/3", got)
	}
}

func randomEvents(rng *rand.Rand, n int) []screening.ResponseEvent {
	mistakes := []screening.MistakeType{"", screening.MistakeLetterReversal, screening.MistakeNumberReversal, screening.MistakeSubstitution, screening.MistakeOmission}
	out := make([]screening.ResponseEvent, n)
	for i := range out {
		out[i] = screening.ResponseEvent{
			Domain:         screening.Domains[rng.IntN(len(screening.Domains))],
			Difficulty:     screening.Difficulties[rng.IntN(len(screening.Difficulties))],
			Correct:        rng.IntN(2) == 0,
			ResponseTimeMs: rng.IntN(10000),
			MistakeType:    mistakes[rng.IntN(len(mistakes))],
		}
	}
	return out
}
