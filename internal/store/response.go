package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/screenwise/internal/screening"
)

// responseRepo implements ResponseRepo backed by the global sequence counter.
type responseRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

var responseSelectColumns = []string{
	"question_id", "domain", "difficulty", "correct", "response_time_ms",
	"confidence", "mistake_type", "answered_at",
}

func (r *responseRepo) Append(ctx context.Context, sessionID string, e screening.ResponseEvent) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	answered := e.AnsweredAt
	if answered.IsZero() {
		answered = time.Now()
	}
	var severity string
	if e.MistakeType != screening.MistakeNone {
		severity = e.MistakeType.Severity()
	}

	ins := builder().Insert(tableResponses).
		Columns("sequence", "session_id", "question_id", "domain", "difficulty", "correct",
			"response_time_ms", "confidence", "mistake_type", "severity", "answered_at").
		Values(seqNum, sessionID, e.QuestionID, string(e.Domain), string(e.Difficulty), e.Correct,
			e.ResponseTimeMs, string(e.Confidence), string(e.MistakeType), severity, answered.UnixMilli())
	if err := exec(ctx, r.db, ins); err != nil {
		return fmt.Errorf("save response event: %w", err)
	}
	return nil
}

func (r *responseRepo) Responses(ctx context.Context, sessionID string) ([]screening.ResponseEvent, error) {
	b := builder()
	query, args := b.Select(responseSelectColumns...).
		From(b.Table(tableResponses)).
		Where(entsql.EQ("session_id", sessionID)).
		OrderBy(entsql.Asc("sequence")).
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query responses: %w", err)
	}
	defer rows.Close()

	var out []screening.ResponseEvent
	for rows.Next() {
		e, err := scanResponse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *responseRepo) LastResponse(ctx context.Context, sessionID string) (*screening.ResponseEvent, error) {
	b := builder()
	query, args := b.Select(responseSelectColumns...).
		From(b.Table(tableResponses)).
		Where(entsql.EQ("session_id", sessionID)).
		OrderBy(entsql.Desc("sequence")).
		Limit(1).
		Query()

	e, err := scanResponse(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query last response: %w", err)
	}
	return &e, nil
}

func (r *responseRepo) Count(ctx context.Context, sessionID string) (int, error) {
	return countWhere(ctx, r.db, tableResponses, entsql.EQ("session_id", sessionID))
}

func scanResponse(row rowScanner) (screening.ResponseEvent, error) {
	var (
		e                                    screening.ResponseEvent
		domain, difficulty, confidence, kind string
		answered                             int64
	)
	err := row.Scan(&e.QuestionID, &domain, &difficulty, &e.Correct, &e.ResponseTimeMs,
		&confidence, &kind, &answered)
	if err != nil {
		return e, err
	}
	e.Domain = screening.Domain(domain)
	e.Difficulty = screening.Difficulty(difficulty)
	e.Confidence = screening.Confidence(confidence)
	e.MistakeType = screening.MistakeType(kind)
	e.AnsweredAt = time.UnixMilli(answered).UTC()
	return e, nil
}
