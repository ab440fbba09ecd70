package store

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/vaughan-dsouza/goblog/internal/models"
)

var sessionColumns = []string{"token", "user_id", "csrf_token", "expires_at", "created_at"}

// SessionRepo keeps sessions in the sessions table.
type SessionRepo struct {
	q querier
}

func (r *SessionRepo) Create(ctx context.Context, s *models.Session) error {
	query, args, err := r.q.sb.Insert("sessions").
		Columns(sessionColumns...).
		Values(s.Token, s.UserID, s.CSRFToken, s.ExpiresAt.UTC(), s.CreatedAt.UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("store: build query: %w", err)
	}

	if _, err := r.q.db.ExecContext(ctx, query, args...); err != nil {
		return conflict(err)
	}
	return nil
}

func (r *SessionRepo) Get(ctx context.Context, token string) (*models.Session, error) {
	var s models.Session
	err := r.q.get(ctx, &s, r.q.sb.Select(sessionColumns...).From("sessions").Where(sq.Eq{"token": token}))
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	return r.q.exec(ctx, r.q.sb.Delete("sessions").Where(sq.Eq{"token": token}))
}

// DeleteExpired purges sessions that expired before now and reports how many.
func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query, args, err := r.q.sb.Delete("sessions").Where(sq.Lt{"expires_at": now.UTC()}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("store: build query: %w", err)
	}

	res, err := r.q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
