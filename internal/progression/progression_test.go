package progression

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/abhisek/screenwise/internal/fallback"
	"github.com/abhisek/screenwise/internal/metrics"
	"github.com/abhisek/screenwise/internal/model"
	"github.com/abhisek/screenwise/internal/screening"
)

func TestNextDifficulty_Lenient(t *testing.T) {
	tests := []struct {
		name    string
		current screening.Difficulty
		correct bool
		ms      int
		want    screening.Difficulty
	}{
		{"correct fast medium goes hard", screening.DifficultyMedium, true, 500, screening.DifficultyHard},
		{"correct fast hard stays hard", screening.DifficultyHard, true, 200, screening.DifficultyHard},
		{"correct at fast cutoff stays", screening.DifficultyMedium, true, 1500, screening.DifficultyMedium},
		{"correct between cutoffs stays", screening.DifficultyEasy, true, 1800, screening.DifficultyEasy},
		{"correct at slow cutoff stays", screening.DifficultyMedium, true, 2000, screening.DifficultyMedium},
		{"correct slow goes down", screening.DifficultyHard, true, 2001, screening.DifficultyMedium},
		{"wrong fast goes down", screening.DifficultyMedium, false, 300, screening.DifficultyEasy},
		{"wrong easy stays easy", screening.DifficultyEasy, false, 5000, screening.DifficultyEasy},
		{"unknown difficulty treated as medium", screening.Difficulty("extreme"), true, 100, screening.DifficultyHard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextDifficulty(tt.current, tt.correct, tt.ms, Lenient)
			if got != tt.want {
				t.Errorf("NextDifficulty(%s, %v, %d) = %s, want %s", tt.current, tt.correct, tt.ms, got, tt.want)
			}
		})
	}
}

func TestNextDifficulty_Strict(t *testing.T) {
	if got := NextDifficulty(screening.DifficultyEasy, true, 1000, Strict); got != screening.DifficultyEasy {
		t.Errorf("strict 1000ms correct = %s, want easy", got)
	}
	if got := NextDifficulty(screening.DifficultyEasy, true, 899, Strict); got != screening.DifficultyMedium {
		t.Errorf("strict 899ms correct = %s, want medium", got)
	}
	if got := NextDifficulty(screening.DifficultyHard, true, 1401, Strict); got != screening.DifficultyMedium {
		t.Errorf("strict 1401ms correct = %s, want medium", got)
	}
}

func TestNextDifficulty_Bounded(t *testing.T) {
	d := screening.DifficultyEasy
	for i := 0; i < 10; i++ {
		d = NextDifficulty(d, true, 100, Lenient)
	}
	if d != screening.DifficultyHard {
		t.Errorf("after repeated fast correct answers = %s, want hard", d)
	}
	for i := 0; i < 10; i++ {
		d = NextDifficulty(d, false, 100, Lenient)
	}
	if d != screening.DifficultyEasy {
		t.Errorf("after repeated wrong answers = %s, want easy", d)
	}
}

func TestProfileThresholds(t *testing.T) {
	if th, err := ProfileThresholds(""); err != nil || th != Lenient {
		t.Errorf("default profile = %+v, %v", th, err)
	}
	if th, err := ProfileThresholds(ProfileStrict); err != nil || th != Strict {
		t.Errorf("strict profile = %+v, %v", th, err)
	}
	if _, err := ProfileThresholds("chaotic"); err == nil {
		t.Error("expected error for unknown profile")
	}
}

func TestNextDomain(t *testing.T) {
	tests := []struct {
		counts [4]float64
		want   screening.Domain
	}{
		{[4]float64{0, 0, 0, 0}, screening.DomainReading},
		{[4]float64{1, 0, 0, 0}, screening.DomainWriting},
		{[4]float64{1, 1, 0, 0}, screening.DomainMath},
		{[4]float64{2, 2, 2, 1}, screening.DomainAttention},
		{[4]float64{3, 2, 2, 2}, screening.DomainWriting},
	}
	for _, tt := range tests {
		if got := NextDomain(tt.counts); got != tt.want {
			t.Errorf("NextDomain(%v) = %s, want %s", tt.counts, got, tt.want)
		}
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name        string
		dom, diff   float64
		want        Decision
		wantClamped bool
	}{
		{"in range", 2, 1, Decision{screening.DomainMath, screening.DifficultyMedium}, false},
		{"rounds", 0.6, 1.4, Decision{screening.DomainWriting, screening.DifficultyMedium}, true},
		{"too high", 7, 5, Decision{screening.DomainAttention, screening.DifficultyHard}, true},
		{"negative", -3, -0.7, Decision{screening.DomainReading, screening.DifficultyEasy}, true},
		{"nan", math.NaN(), 0, Decision{screening.DomainReading, screening.DifficultyEasy}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, clamped := Clamp(tt.dom, tt.diff)
			if got != tt.want || clamped != tt.wantClamped {
				t.Errorf("Clamp(%v, %v) = %+v, %v; want %+v, %v", tt.dom, tt.diff, got, clamped, tt.want, tt.wantClamped)
			}
		})
	}
}

type stubPolicy struct {
	decision Decision
	err      error
	calls    int
}

func (s *stubPolicy) Name() string { return "stub" }

func (s *stubPolicy) Decide(context.Context, Input) (Decision, error) {
	s.calls++
	return s.decision, s.err
}

func TestSelector_FirstTurn(t *testing.T) {
	learned := &stubPolicy{decision: Decision{screening.DomainMath, screening.DifficultyHard}}
	s := NewSelector(Lenient, learned, fallback.Resolver{})

	got := s.Next(context.Background(), nil, nil)
	if got.Value != Start {
		t.Errorf("first turn = %+v, want %+v", got.Value, Start)
	}
	if learned.calls != 0 {
		t.Errorf("learned policy consulted %d times on first turn", learned.calls)
	}
}

func TestSelector_ScenarioFastCorrectMedium(t *testing.T) {
	events := []screening.ResponseEvent{
		{Domain: screening.DomainReading, Difficulty: screening.DifficultyMedium, Correct: true, ResponseTimeMs: 500},
	}
	last := events[0]
	s := NewSelector(Lenient, nil, fallback.Resolver{})

	got := s.Next(context.Background(), events, &last)
	want := Decision{Domain: screening.DomainWriting, Difficulty: screening.DifficultyHard}
	if got.Value != want {
		t.Errorf("Next = %+v, want %+v", got.Value, want)
	}
	if got.Source != fallback.SourceRules {
		t.Errorf("Source = %s, want rules", got.Source)
	}
}

func TestSelector_LearnedAndFallback(t *testing.T) {
	events := []screening.ResponseEvent{
		{Domain: screening.DomainReading, Difficulty: screening.DifficultyEasy, Correct: false, ResponseTimeMs: 2500},
	}
	last := events[0]
	rules := Decision{Domain: screening.DomainWriting, Difficulty: screening.DifficultyEasy}

	ok := &stubPolicy{decision: Decision{screening.DomainAttention, screening.DifficultyMedium}}
	got := NewSelector(Lenient, ok, fallback.Resolver{}).Next(context.Background(), events, &last)
	if got.Value != ok.decision || got.Source != fallback.SourceLearned {
		t.Errorf("learned path = %+v", got)
	}

	failing := &stubPolicy{err: errors.New("inference failed")}
	got = NewSelector(Lenient, failing, fallback.Resolver{}).Next(context.Background(), events, &last)
	if got.Value != rules || got.Source != fallback.SourceRules {
		t.Errorf("fallback path = %+v, want rules %+v", got, rules)
	}
}

const transitionModel = `format_version: 1.0.0
kind: selection
input: transition
heads:
  - name: domain
    classes: [reading, writing, math, attention]
    weights: [[0, 0, 0, 0], [0, 0, 0, 0], [0, 0, 0, 0], [0, 0, 0, 0]]
    bias: [0, 0, 0, 4]
  - name: difficulty
    classes: [easy, medium, hard]
    weights: [[0, 0, 0, 0], [0, 0, 0, 0], [0, 0, 0, 0]]
    bias: [0, 0, 4]
`

const regressionModel = `format_version: 1.0.0
kind: selection
input: selection
heads:
  - name: domain
    weights: [[0, 0, 0, 0, 0, 0, 0, 0, 0, 0]]
    bias: [9]
  - name: difficulty
    weights: [[0, 0, 0, 0, 0, 0, 0, 0, 0, 0]]
    bias: [-2]
`

func writeModel(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "selection.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestModelPolicy(t *testing.T) {
	events := []screening.ResponseEvent{
		{Domain: screening.DomainReading, Difficulty: screening.DifficultyEasy, Correct: true, ResponseTimeMs: 1700},
	}
	last := events[0]
	loader := model.NewLoader(nil, nil)

	t.Run("classifier", func(t *testing.T) {
		p := &ModelPolicy{Loader: loader, Path: writeModel(t, transitionModel)}
		got := NewSelector(Lenient, p, fallback.Resolver{}).Next(context.Background(), events, &last)
		want := Decision{screening.DomainAttention, screening.DifficultyHard}
		if got.Value != want || got.Source != fallback.SourceLearned {
			t.Errorf("Next = %+v, want learned %+v", got, want)
		}
	})

	t.Run("regression clamped", func(t *testing.T) {
		reg := metrics.New()
		p := &ModelPolicy{Loader: loader, Path: writeModel(t, regressionModel), Metrics: reg}
		got := NewSelector(Lenient, p, fallback.Resolver{Metrics: reg}).Next(context.Background(), events, &last)
		want := Decision{screening.DomainAttention, screening.DifficultyEasy}
		if got.Value != want || got.Source != fallback.SourceLearned {
			t.Errorf("Next = %+v, want clamped learned %+v", got, want)
		}
	})

	t.Run("missing artifact falls back", func(t *testing.T) {
		p := &ModelPolicy{Loader: loader, Path: filepath.Join(t.TempDir(), "absent.yaml")}
		_, err := p.Decide(context.Background(), Input{})
		if !errors.Is(err, fallback.ErrModelUnavailable) {
			t.Fatalf("Decide error = %v, want ErrModelUnavailable", err)
		}
		got := NewSelector(Lenient, p, fallback.Resolver{}).Next(context.Background(), events, &last)
		want := Decision{screening.DomainWriting, screening.DifficultyEasy}
		if got.Value != want || got.Source != fallback.SourceRules {
			t.Errorf("Next = %+v, want rules %+v", got, want)
		}
	})
}
