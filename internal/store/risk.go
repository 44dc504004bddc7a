package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/screenwise/internal/screening"
)

type riskResultRepo struct {
	db *sql.DB
}

func (r *riskResultRepo) Save(ctx context.Context, sr *StoredRisk) error {
	scores, err := json.Marshal(sr.Result.Scores)
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}
	insights, err := json.Marshal(sr.Result.Insights)
	if err != nil {
		return fmt.Errorf("marshal insights: %w", err)
	}
	created := sr.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	ins := builder().Insert(tableRiskResults).
		Columns("session_id", "label", "confidence", "scores", "insights", "source", "created_at").
		Values(sr.SessionID, string(sr.Result.Label), string(sr.Result.Confidence),
			string(scores), string(insights), sr.Source, created.UnixMilli())
	if err := exec(ctx, r.db, ins); err != nil {
		return fmt.Errorf("save risk result: %w", err)
	}
	return nil
}

func (r *riskResultRepo) Get(ctx context.Context, sessionID string) (*StoredRisk, error) {
	b := builder()
	query, args := b.Select("session_id", "label", "confidence", "scores", "insights", "source", "created_at").
		From(b.Table(tableRiskResults)).
		Where(entsql.EQ("session_id", sessionID)).
		Query()

	var (
		sr                       StoredRisk
		label, confidence        string
		scoresJSON, insightsJSON string
		created                  int64
	)
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&sr.SessionID, &label, &confidence, &scoresJSON, &insightsJSON, &sr.Source, &created,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("risk result for %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query risk result: %w", err)
	}

	sr.Result.Label = screening.RiskLabel(label)
	sr.Result.Confidence = screening.ConfidenceLevel(confidence)
	if err := json.Unmarshal([]byte(scoresJSON), &sr.Result.Scores); err != nil {
		return nil, fmt.Errorf("decode scores: %w", err)
	}
	if err := json.Unmarshal([]byte(insightsJSON), &sr.Result.Insights); err != nil {
		return nil, fmt.Errorf("decode insights: %w", err)
	}
	sr.CreatedAt = time.UnixMilli(created).UTC()
	return &sr, nil
}
