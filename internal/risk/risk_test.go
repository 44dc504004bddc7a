package risk

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/abhisek/screenwise/internal/fallback"
	"github.com/abhisek/screenwise/internal/features"
	"github.com/abhisek/screenwise/internal/llm"
	"github.com/abhisek/screenwise/internal/model"
	"github.com/abhisek/screenwise/internal/screening"
)

func readingEvents() []screening.ResponseEvent {
	// 10 reading events, 2 correct, 6 letter reversals, 6000ms each.
	var events []screening.ResponseEvent
	for i := range 10 {
		e := screening.ResponseEvent{
			Domain:         screening.DomainReading,
			Difficulty:     screening.DifficultyEasy,
			Correct:        i < 2,
			ResponseTimeMs: 6000,
		}
		if i >= 2 && i < 8 {
			e.MistakeType = screening.MistakeLetterReversal
		}
		events = append(events, e)
	}
	return events
}

func TestInfer_Empty(t *testing.T) {
	e := NewEngine(DefaultCalibration(), nil, fallback.Resolver{})
	got := e.Infer(context.Background(), nil)

	if got.Label != screening.RiskLow || got.Confidence != screening.LevelLow {
		t.Errorf("label/confidence = %s/%s, want low-risk/low", got.Label, got.Confidence)
	}
	if !slices.Equal(got.Insights, []string{InsufficientData}) {
		t.Errorf("insights = %v", got.Insights)
	}
	for _, l := range screening.ElevatedLabels {
		if s, ok := got.Scores[l]; !ok || s != 0 {
			t.Errorf("score[%s] = %v, %v; want 0", l, s, ok)
		}
	}
}

func TestInfer_DyslexiaScenario(t *testing.T) {
	e := NewEngine(DefaultCalibration(), nil, fallback.Resolver{})
	got := e.Infer(context.Background(), readingEvents())

	if got.Label != screening.RiskDyslexia {
		t.Fatalf("label = %s, want dyslexia-risk (scores %v)", got.Label, got.Scores)
	}
	if got.Confidence != screening.LevelModerate && got.Confidence != screening.LevelHigh {
		t.Errorf("confidence = %s, want at least moderate", got.Confidence)
	}
	// 0.3*(1-0.2) + 0.4*(1-0.2) + 0.3*0.6
	if math.Abs(got.Scores[screening.RiskDyslexia]-0.74) > 1e-9 {
		t.Errorf("dyslexia score = %v, want 0.74", got.Scores[screening.RiskDyslexia])
	}

	want := []string{
		"Frequent letter reversals observed (6 instances)",
		"Response speed slower than age norm",
		"Overall accuracy below expected level (20%)",
		"Difficulty with reading-based tasks compared to math",
	}
	if !slices.Equal(got.Insights, want) {
		t.Errorf("insights = %q\nwant %q", got.Insights, want)
	}
}

func TestInfer_SparseAllCorrect(t *testing.T) {
	// Empty math and focus buckets are smoothed to 0.5, but the overall
	// accuracy term sees a perfect session.
	var events []screening.ResponseEvent
	for range 5 {
		events = append(events, screening.ResponseEvent{
			Domain:         screening.DomainReading,
			Difficulty:     screening.DifficultyEasy,
			Correct:        true,
			ResponseTimeMs: 2000,
		})
	}

	got := NewEngine(DefaultCalibration(), nil, fallback.Resolver{}).Infer(context.Background(), events)
	if got.Label != screening.RiskLow || got.Confidence != screening.LevelLow {
		t.Errorf("label/confidence = %s/%s, want low-risk/low (scores %v)", got.Label, got.Confidence, got.Scores)
	}
	for l, want := range map[screening.RiskLabel]float64{
		screening.RiskDyslexia:    0,
		screening.RiskDyscalculia: 0.2,
		screening.RiskAttention:   0.2,
	} {
		if math.Abs(got.Scores[l]-want) > 1e-9 {
			t.Errorf("score[%s] = %v, want %v", l, got.Scores[l], want)
		}
	}
	if !slices.Equal(got.Insights, []string{InsightNormal}) {
		t.Errorf("insights = %q", got.Insights)
	}
}

func TestRuleScore_Bounds(t *testing.T) {
	worst := features.RiskVector{RevRate: 1, PVRate: 1, ImpulseRate: 1}
	best := features.RiskVector{ReadingAcc: 1, MathAcc: 1, FocusAcc: 1}
	for _, s := range RuleScore(worst, 0) {
		if s != 1 {
			t.Errorf("worst-case score = %v, want 1", s)
		}
	}
	for _, s := range RuleScore(best, 1) {
		if s != 0 {
			t.Errorf("best-case score = %v, want 0", s)
		}
	}
}

func TestSelectLabel(t *testing.T) {
	tests := []struct {
		name   string
		scores screening.RiskScores
		want   screening.RiskLabel
	}{
		{
			name:   "low-risk override at 0.29",
			scores: screening.RiskScores{screening.RiskDyslexia: 0.1, screening.RiskDyscalculia: 0.29, screening.RiskAttention: 0.2},
			want:   screening.RiskLow,
		},
		{
			name:   "at threshold is elevated",
			scores: screening.RiskScores{screening.RiskDyslexia: 0.1, screening.RiskDyscalculia: 0.3, screening.RiskAttention: 0.2},
			want:   screening.RiskDyscalculia,
		},
		{
			name:   "ties go to dyslexia",
			scores: screening.RiskScores{screening.RiskDyslexia: 0.5, screening.RiskDyscalculia: 0.5, screening.RiskAttention: 0.5},
			want:   screening.RiskDyslexia,
		},
		{
			name:   "attention max",
			scores: screening.RiskScores{screening.RiskDyslexia: 0.4, screening.RiskDyscalculia: 0.5, screening.RiskAttention: 0.9},
			want:   screening.RiskAttention,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, _ := SelectLabel(tt.scores, 0.3); got != tt.want {
				t.Errorf("SelectLabel = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNormalizeAndBucket(t *testing.T) {
	cal := DefaultCalibration()
	tests := []struct {
		p     float64
		scale model.Scale
		want  screening.ConfidenceLevel
	}{
		{0.71, model.ScaleFraction, screening.LevelHigh},
		{0.70, model.ScaleFraction, screening.LevelModerate},
		{0.41, model.ScaleFraction, screening.LevelModerate},
		{0.40, model.ScaleFraction, screening.LevelLow},
		{85, model.ScalePercent, screening.LevelHigh},
		{55, model.ScalePercent, screening.LevelModerate},
		{150, model.ScalePercent, screening.LevelHigh},
		{math.NaN(), model.ScaleFraction, screening.LevelLow},
	}
	for _, tt := range tests {
		if got := cal.Bucket(NormalizeProbability(tt.p, tt.scale)); got != tt.want {
			t.Errorf("Bucket(%v %s) = %s, want %s", tt.p, tt.scale, got, tt.want)
		}
	}

	legacy := cal.LegacyBands()
	if got := legacy.Bucket(0.75); got != screening.LevelModerate {
		t.Errorf("legacy Bucket(0.75) = %s, want moderate", got)
	}
	if got := NormalizeProbability(-3, model.ScaleFraction); got != 0 {
		t.Errorf("NormalizeProbability(-3) = %v", got)
	}
}

func TestRunInsights(t *testing.T) {
	cal := DefaultCalibration()
	rules := DefaultInsightRules()

	t.Run("truncated to five in priority order", func(t *testing.T) {
		in := &InsightInput{
			Vector:          features.RiskVector{ReadingAcc: 0.1, MathAcc: 0.3, FocusAcc: 0.2, AvgTimeMs: 4000},
			Accuracy:        0.2,
			ReversalCount:   3,
			PlaceValueCount: 2,
			StdDevMs:        2000,
			Calibration:     cal,
		}
		got := RunInsights(rules, in, screening.MaxInsights)
		want := []string{
			"Frequent letter reversals observed (3 instances)",
			"Frequent number reversals or substitutions observed (2 instances)",
			"Response speed slower than age norm",
			"Overall accuracy below expected level (20%)",
			"Difficulty with reading-based tasks compared to math",
		}
		if !slices.Equal(got, want) {
			t.Errorf("got %q\nwant %q", got, want)
		}
	})

	t.Run("impulsive", func(t *testing.T) {
		in := &InsightInput{
			Vector:      features.RiskVector{ReadingAcc: 0.8, MathAcc: 0.8, FocusAcc: 0.8, AvgTimeMs: 700, ImpulseRate: 0.3},
			Accuracy:    0.8,
			Calibration: cal,
		}
		got := RunInsights(rules, in, screening.MaxInsights)
		if len(got) != 1 || got[0] != "Very fast responses with frequent errors suggest impulsive answering" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("default normal", func(t *testing.T) {
		in := &InsightInput{Vector: features.RiskVector{ReadingAcc: 0.9, MathAcc: 0.8, FocusAcc: 0.8, AvgTimeMs: 2000}, Accuracy: 0.85, Calibration: cal}
		if got := RunInsights(rules, in, screening.MaxInsights); !slices.Equal(got, []string{InsightNormal}) {
			t.Errorf("got %q", got)
		}
	})

	t.Run("default follow-up", func(t *testing.T) {
		in := &InsightInput{Vector: features.RiskVector{ReadingAcc: 0.7, MathAcc: 0.6, FocusAcc: 0.7, AvgTimeMs: 2000}, Accuracy: 0.65, Calibration: cal}
		if got := RunInsights(rules, in, screening.MaxInsights); !slices.Equal(got, []string{InsightFollowUp}) {
			t.Errorf("got %q", got)
		}
	})
}

type stubClassifier struct {
	a   *Assessment
	err error
}

func (s *stubClassifier) Name() string { return "stub" }

func (s *stubClassifier) Classify(context.Context, features.RiskVector) (*Assessment, error) {
	return s.a, s.err
}

func TestInfer_FallbackTransparency(t *testing.T) {
	events := readingEvents()
	rulesOnly := NewEngine(DefaultCalibration(), nil, fallback.Resolver{}).Infer(context.Background(), events)

	failures := []Classifier{
		&stubClassifier{err: errors.New("model crashed")},
		&stubClassifier{a: &Assessment{Label: "banana", Probability: 0.9, Scale: model.ScaleFraction}},
		&stubClassifier{a: &Assessment{Label: screening.RiskDyslexia, Probability: math.Inf(1), Scale: model.ScaleFraction}},
		&stubClassifier{a: nil},
		&ModelClassifier{Loader: model.NewLoader(nil, nil), Path: "testdata/absent.json"},
	}
	for i, c := range failures {
		out := NewEngine(DefaultCalibration(), c, fallback.Resolver{}).InferWithSource(context.Background(), events)
		if out.Source != fallback.SourceRules {
			t.Errorf("case %d: source = %s, want rules", i, out.Source)
		}
		if out.Value.Label != rulesOnly.Label || out.Value.Confidence != rulesOnly.Confidence ||
			!slices.Equal(out.Value.Insights, rulesOnly.Insights) {
			t.Errorf("case %d: result %+v differs from rules-only %+v", i, out.Value, rulesOnly)
		}
	}
}

func TestInfer_LearnedLowRiskOverride(t *testing.T) {
	c := &stubClassifier{a: &Assessment{Label: screening.RiskAttention, Probability: 29, Scale: model.ScalePercent}}
	out := NewEngine(DefaultCalibration(), c, fallback.Resolver{}).InferWithSource(context.Background(), readingEvents())
	if out.Source != fallback.SourceLearned {
		t.Fatalf("source = %s, want learned", out.Source)
	}
	if out.Value.Label != screening.RiskLow || out.Value.Confidence != screening.LevelLow {
		t.Errorf("got %s/%s, want low-risk/low", out.Value.Label, out.Value.Confidence)
	}
	if out.Value.Scores[screening.RiskAttention] != 0.29 {
		t.Errorf("attention score = %v, want 0.29", out.Value.Scores[screening.RiskAttention])
	}
}

func TestInfer_LearnedOverrideUsesScores(t *testing.T) {
	tests := []struct {
		name string
		a    *Assessment
		want screening.RiskLabel
		conf screening.ConfidenceLevel
	}{
		{
			name: "confident label with low scores",
			a: &Assessment{Label: screening.RiskDyslexia, Probability: 0.9, Scale: model.ScaleFraction,
				Scores: screening.RiskScores{screening.RiskDyslexia: 0.1, screening.RiskDyscalculia: 0.2, screening.RiskAttention: 0.05}},
			want: screening.RiskLow,
			conf: screening.LevelHigh,
		},
		{
			name: "low probability with an elevated score",
			a: &Assessment{Label: screening.RiskDyslexia, Probability: 0.25, Scale: model.ScaleFraction,
				Scores: screening.RiskScores{screening.RiskDyslexia: 0.6}},
			want: screening.RiskDyslexia,
			conf: screening.LevelLow,
		},
		{
			name: "classifier low-risk is kept",
			a: &Assessment{Label: screening.RiskLow, Probability: 0.5, Scale: model.ScaleFraction,
				Scores: screening.RiskScores{screening.RiskAttention: 0.45}},
			want: screening.RiskLow,
			conf: screening.LevelModerate,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(DefaultCalibration(), &stubClassifier{a: tt.a}, fallback.Resolver{})
			out := e.InferWithSource(context.Background(), readingEvents())
			if out.Source != fallback.SourceLearned {
				t.Fatalf("source = %s, want learned", out.Source)
			}
			if out.Value.Label != tt.want || out.Value.Confidence != tt.conf {
				t.Errorf("got %s/%s, want %s/%s", out.Value.Label, out.Value.Confidence, tt.want, tt.conf)
			}
		})
	}
}

func TestModelClassifier(t *testing.T) {
	c := &ModelClassifier{Loader: model.NewLoader(nil, nil), Path: "testdata/risk.json"}
	out := NewEngine(DefaultCalibration(), c, fallback.Resolver{}).InferWithSource(context.Background(), readingEvents())

	if out.Source != fallback.SourceLearned {
		t.Fatalf("source = %s, want learned", out.Source)
	}
	if out.Value.Label != screening.RiskDyslexia {
		t.Errorf("label = %s, want dyslexia-risk", out.Value.Label)
	}
	for l, s := range out.Value.Scores {
		if s < 0 || s > 1 {
			t.Errorf("score[%s] = %v not normalized", l, s)
		}
	}
}

func TestLLMClassifier(t *testing.T) {
	content := json.RawMessage(`{"label":"dyscalculia-risk","probability":82,"scores":{"dyslexia-risk":0.1,"dyscalculia-risk":0.82,"attention-risk":0.2},"reasoning":"Math accuracy is low."}`)
	mock := llm.NewMockProvider(llm.MockResponse{Content: content})
	c := NewLLMClassifier(mock, DefaultLLMClassifierConfig())

	out := NewEngine(DefaultCalibration(), c, fallback.Resolver{}).InferWithSource(context.Background(), readingEvents())
	if out.Source != fallback.SourceLearned {
		t.Fatalf("source = %s", out.Source)
	}
	if out.Value.Label != screening.RiskDyscalculia || out.Value.Confidence != screening.LevelHigh {
		t.Errorf("got %s/%s, want dyscalculia-risk/high", out.Value.Label, out.Value.Confidence)
	}
	if mock.Calls[0].Schema != AssessmentSchema {
		t.Error("schema not attached")
	}

	// Queue exhausted: provider unavailable, engine falls back.
	out = NewEngine(DefaultCalibration(), c, fallback.Resolver{}).InferWithSource(context.Background(), readingEvents())
	if out.Source != fallback.SourceRules || out.Value.Label != screening.RiskDyslexia {
		t.Errorf("fallback result = %+v", out)
	}
}

func TestLLMClassifier_RejectsLabelBelowTopScore(t *testing.T) {
	inconsistent := json.RawMessage(`{"label":"dyslexia-risk","probability":70,"scores":{"dyslexia-risk":0.2,"dyscalculia-risk":0.8,"attention-risk":0.1},"reasoning":"Reading is weak."}`)
	mock := llm.NewMockProvider(llm.MockResponse{Content: inconsistent})
	c := NewLLMClassifier(mock, DefaultLLMClassifierConfig())

	_, err := c.Classify(context.Background(), features.RiskVector{})
	if kind, ok := llm.KindOf(err); !ok || kind != llm.KindInvalidOutput {
		t.Fatalf("err = %v, want invalid output", err)
	}

	tied := json.RawMessage(`{"label":"attention-risk","probability":55,"scores":{"dyslexia-risk":0.1,"dyscalculia-risk":0.55,"attention-risk":0.55},"reasoning":"Impulsive errors."}`)
	lowWithHighScore := json.RawMessage(`{"label":"low-risk","probability":60,"scores":{"dyslexia-risk":0.4,"dyscalculia-risk":0.1,"attention-risk":0.1},"reasoning":"Mostly fine."}`)
	for _, raw := range []json.RawMessage{tied, lowWithHighScore} {
		if err := checkAssessmentOutput(raw); err != nil {
			t.Errorf("checkAssessmentOutput(%s) = %v", raw, err)
		}
	}
}
