package store

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/vaughan-dsouza/goblog/internal/models"
)

var userColumns = []string{"id", "username", "email", "password_hash", "created_at"}

type UserRepo struct {
	q querier
}

// Create inserts u. A taken username or email yields ErrConflict.
func (r *UserRepo) Create(ctx context.Context, u *models.User) error {
	ts := now()
	id, err := r.q.insert(ctx, r.q.sb.Insert("users").
		Columns("username", "email", "password_hash", "created_at").
		Values(u.Username, u.Email, u.Password, ts))
	if err != nil {
		return err
	}

	u.ID = id
	u.CreatedAt = ts
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getBy(ctx, sq.Eq{"id": id})
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getBy(ctx, sq.Eq{"username": username})
}

func (r *UserRepo) getBy(ctx context.Context, where sq.Eq) (*models.User, error) {
	var u models.User
	if err := r.q.get(ctx, &u, r.q.sb.Select(userColumns...).From("users").Where(where)); err != nil {
		return nil, err
	}
	return &u, nil
}
