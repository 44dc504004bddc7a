package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type sessionRepo struct {
	db *sql.DB
}

var sessionSelectColumns = []string{"id", "user_id", "age_group", "status", "started_at", "ended_at"}

func (r *sessionRepo) Create(ctx context.Context, s *Session) error {
	status := s.Status
	if status == "" {
		status = StatusActive
	}
	q := builder().Insert(tableSessions).
		Columns(sessionSelectColumns...).
		Values(s.ID, s.UserID, s.AgeGroup, string(status), s.StartedAt.UnixMilli(), millisOrZero(s.EndedAt))
	if err := exec(ctx, r.db, q); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *sessionRepo) Get(ctx context.Context, id string) (*Session, error) {
	b := builder()
	query, args := b.Select(sessionSelectColumns...).
		From(b.Table(tableSessions)).
		Where(entsql.EQ("id", id)).
		Query()

	s, err := scanSession(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}
	return s, nil
}

func (r *sessionRepo) Complete(ctx context.Context, id string, at time.Time) error {
	query, args := builder().Update(tableSessions).
		Set("status", string(StatusCompleted)).
		Set("ended_at", at.UnixMilli()).
		Where(entsql.EQ("id", id)).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *sessionRepo) ListByUser(ctx context.Context, userID string) ([]Session, error) {
	b := builder()
	query, args := b.Select(sessionSelectColumns...).
		From(b.Table(tableSessions)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy(entsql.Asc("started_at"), entsql.Asc("id")).
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	var (
		s                Session
		status           string
		started, endedAt int64
	)
	if err := row.Scan(&s.ID, &s.UserID, &s.AgeGroup, &status, &started, &endedAt); err != nil {
		return nil, err
	}
	s.Status = SessionStatus(status)
	s.StartedAt = time.UnixMilli(started).UTC()
	if endedAt > 0 {
		s.EndedAt = time.UnixMilli(endedAt).UTC()
	}
	return &s, nil
}

func millisOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
