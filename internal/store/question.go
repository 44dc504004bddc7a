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

type questionRepo struct {
	db *sql.DB
}

func (r *questionRepo) Save(ctx context.Context, q *Question) error {
	options, err := json.Marshal(q.Spec.Options)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}
	created := q.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	ins := builder().Insert(tableQuestions).
		Columns("id", "session_id", "position", "domain", "difficulty", "text", "options", "correct_option", "source", "created_at").
		Values(q.ID, q.SessionID, q.Position, string(q.Spec.Domain), string(q.Spec.Difficulty),
			q.Spec.Text, string(options), q.Spec.CorrectOption, q.Source, created.UnixMilli())
	if err := exec(ctx, r.db, ins); err != nil {
		return fmt.Errorf("save question: %w", err)
	}
	return nil
}

func (r *questionRepo) Get(ctx context.Context, id string) (*Question, error) {
	b := builder()
	query, args := b.Select("id", "session_id", "position", "domain", "difficulty", "text", "options", "correct_option", "source", "created_at").
		From(b.Table(tableQuestions)).
		Where(entsql.EQ("id", id)).
		Query()

	var (
		q                  Question
		domain, difficulty string
		options            string
		created            int64
	)
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&q.ID, &q.SessionID, &q.Position, &domain, &difficulty,
		&q.Spec.Text, &options, &q.Spec.CorrectOption, &q.Source, &created,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("question %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query question: %w", err)
	}
	if err := json.Unmarshal([]byte(options), &q.Spec.Options); err != nil {
		return nil, fmt.Errorf("decode options: %w", err)
	}
	q.Spec.Domain = screening.Domain(domain)
	q.Spec.Difficulty = screening.Difficulty(difficulty)
	q.CreatedAt = time.UnixMilli(created).UTC()
	return &q, nil
}

func (r *questionRepo) Count(ctx context.Context, sessionID string) (int, error) {
	return countWhere(ctx, r.db, tableQuestions, entsql.EQ("session_id", sessionID))
}

func countWhere(ctx context.Context, db *sql.DB, table string, p *entsql.Predicate) (int, error) {
	b := builder()
	query, args := b.Select(entsql.Count("*")).
		From(b.Table(table)).
		Where(p).
		Query()

	var n int
	if err := db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}
