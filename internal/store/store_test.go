package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/screenwise/internal/screening"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestAutoMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)
	for _, table := range []string{"sessions", "questions", "response_events", "risk_results", "llm_request_events", "global_sequence"} {
		var name string
		err := s.DB().QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Sessions().Create(ctx, &Session{ID: "s1", UserID: "u1", StartedAt: time.Now()}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Sessions().Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, StatusActive, got.Status)
}

func TestSequenceCounter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var seqs []int64
	for i := 0; i < 5; i++ {
		seq, err := s.seq.Next(ctx)
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		seqs = append(seqs, seq)
	}

	// Should be monotonically increasing starting from 1.
	for i, seq := range seqs {
		expected := int64(i + 1)
		if seq != expected {
			t.Errorf("seq[%d] = %d, want %d", i, seq, expected)
		}
	}
}

func TestSessionRepo(t *testing.T) {
	s := openTestStore(t)
	repo := s.Sessions()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, &Session{ID: "b", UserID: "u1", AgeGroup: "6-7", StartedAt: base.Add(time.Hour)}))
	require.NoError(t, repo.Create(ctx, &Session{ID: "a", UserID: "u1", AgeGroup: "6-7", StartedAt: base}))
	require.NoError(t, repo.Create(ctx, &Session{ID: "c", UserID: "u2", StartedAt: base}))

	_, err := repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "b", list[1].ID)
	assert.True(t, list[0].EndedAt.IsZero())

	ended := base.Add(2 * time.Hour)
	require.NoError(t, repo.Complete(ctx, "a", ended))
	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.True(t, got.EndedAt.Equal(ended))
	assert.Equal(t, "6-7", got.AgeGroup)

	assert.ErrorIs(t, repo.Complete(ctx, "missing", ended), ErrNotFound)
}

func TestQuestionRepo(t *testing.T) {
	s := openTestStore(t)
	repo := s.Questions()
	ctx := context.Background()

	q := &Question{
		ID:        "Q_s1_1",
		SessionID: "s1",
		Position:  1,
		Source:    "templates",
		Spec: screening.QuestionSpec{
			Domain:        screening.DomainMath,
			Difficulty:    screening.DifficultyEasy,
			Text:          "What is 2 + 3?",
			Options:       []string{"4", "5", "6", "7"},
			CorrectOption: "5",
		},
	}
	require.NoError(t, repo.Save(ctx, q))

	got, err := repo.Get(ctx, "Q_s1_1")
	require.NoError(t, err)
	assert.Equal(t, q.Spec, got.Spec)
	assert.Equal(t, 1, got.Position)
	assert.Equal(t, "templates", got.Source)

	n, err := repo.Count(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Same position in the same session is rejected.
	q2 := *q
	q2.ID = "Q_s1_dup"
	assert.Error(t, repo.Save(ctx, &q2))

	_, err = repo.Get(ctx, "Q_s1_9")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResponseRepo(t *testing.T) {
	s := openTestStore(t)
	repo := s.Responses()
	ctx := context.Background()

	last, err := repo.LastResponse(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, last, "empty session has no last response")

	// Identical timestamps: order comes from the sequence.
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	events := []screening.ResponseEvent{
		{QuestionID: "Q_s1_1", Domain: screening.DomainReading, Difficulty: screening.DifficultyEasy, Correct: true, ResponseTimeMs: 1200, AnsweredAt: at},
		{QuestionID: "Q_s1_2", Domain: screening.DomainMath, Difficulty: screening.DifficultyMedium, ResponseTimeMs: 2500, MistakeType: screening.MistakeNumberReversal, AnsweredAt: at},
		{QuestionID: "Q_s1_3", Domain: screening.DomainAttention, Difficulty: screening.DifficultyEasy, Correct: true, ResponseTimeMs: 800, Confidence: screening.ConfidenceHigh, AnsweredAt: at},
	}
	for _, e := range events {
		require.NoError(t, repo.Append(ctx, "s1", e))
	}
	require.NoError(t, s.Responses().Append(ctx, "s2", screening.ResponseEvent{QuestionID: "Q_s2_1", Domain: screening.DomainMath, Difficulty: screening.DifficultyEasy, AnsweredAt: at}))

	got, err := repo.Responses(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, events, got)

	last, err = repo.LastResponse(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "Q_s1_3", last.QuestionID)

	n, err := repo.Count(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// Severity is derived from the mistake type.
	var severity string
	require.NoError(t, s.DB().QueryRow("SELECT severity FROM response_events WHERE question_id = ?", "Q_s1_2").Scan(&severity))
	assert.Equal(t, "high", severity)

	// A question is answered once.
	assert.Error(t, repo.Append(ctx, "s1", events[0]))
}

func TestRiskResultRepo(t *testing.T) {
	s := openTestStore(t)
	repo := s.RiskResults()
	ctx := context.Background()

	_, err := repo.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)

	want := screening.RiskResult{
		Label:      screening.RiskDyslexia,
		Confidence: screening.LevelModerate,
		Scores: screening.RiskScores{
			screening.RiskDyslexia:    0.68,
			screening.RiskDyscalculia: 0.38,
			screening.RiskAttention:   0.38,
		},
		Insights: []string{"Response speed slower than age norm"},
	}
	require.NoError(t, repo.Save(ctx, &StoredRisk{SessionID: "s1", Result: want, Source: "rules"}))

	got, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, want, got.Result)
	assert.Equal(t, "rules", got.Source)

	assert.Error(t, repo.Save(ctx, &StoredRisk{SessionID: "s1", Result: want}), "one result per session")
}

func TestLLMEventRepo(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	records := []LLMRequestEventData{
		{Provider: "mock", Model: "m1", Purpose: "question-gen", InputTokens: 100, OutputTokens: 20, LatencyMs: 300, Success: true, RequestBody: "[user]\nhi", ResponseBody: "{}"},
		{Provider: "mock", Model: "m1", Purpose: "risk-assessment", InputTokens: 50, OutputTokens: 10, LatencyMs: 100, Success: true},
		{Provider: "mock", Model: "m2", Purpose: "question-gen", LatencyMs: 500, ErrorMessage: "boom"},
	}
	for _, r := range records {
		require.NoError(t, repo.AppendLLMRequest(ctx, r))
	}

	events, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "m2", events[0].Model, "newest first")
	assert.False(t, events[0].Success)
	assert.Equal(t, "boom", events[0].ErrorMessage)

	limited, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 1, Purpose: "risk-assessment"})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, 50, limited[0].InputTokens)

	one, err := repo.GetLLMEvent(ctx, events[2].ID)
	require.NoError(t, err)
	require.NotNil(t, one)
	assert.Equal(t, "[user]\nhi", one.RequestBody)

	missing, err := repo.GetLLMEvent(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	require.NoError(t, err)
	require.Len(t, byPurpose, 2)
	assert.Equal(t, LLMUsageStats{Purpose: "question-gen", Calls: 2, InputTokens: 100, OutputTokens: 20, AvgLatencyMs: 400}, byPurpose[0])

	byModel, err := repo.LLMUsageByModel(ctx)
	require.NoError(t, err)
	require.Len(t, byModel, 2)
	assert.Equal(t, LLMModelUsage{Model: "m1", Calls: 2, InputTokens: 150, OutputTokens: 30}, byModel[0])
}
