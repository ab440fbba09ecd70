// Package store implements the repositories behind the blog: books, posts,
// users and sessions. Queries are built with squirrel and scanned with sqlx.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

var (
	ErrNotFound = errors.New("store: not found")
	ErrConflict = errors.New("store: already exists")
)

type Store struct {
	db *sqlx.DB

	Books    *BookRepo
	Posts    *PostRepo
	Users    *UserRepo
	Sessions *SessionRepo
}

func New(db *sqlx.DB) *Store {
	q := querier{db: db, sb: builder(db)}
	return &Store{
		db:       db,
		Books:    &BookRepo{q},
		Posts:    &PostRepo{q},
		Users:    &UserRepo{q},
		Sessions: &SessionRepo{q},
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// builder picks the placeholder style sqlx associates with the driver.
func builder(db *sqlx.DB) sq.StatementBuilderType {
	if sqlx.BindType(db.DriverName()) == sqlx.DOLLAR {
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

type querier struct {
	db *sqlx.DB
	sb sq.StatementBuilderType
}

func (q querier) get(ctx context.Context, dest any, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("store: build query: %w", err)
	}
	if err := q.db.GetContext(ctx, dest, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (q querier) selectAll(ctx context.Context, dest any, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("store: build query: %w", err)
	}
	return q.db.SelectContext(ctx, dest, query, args...)
}

// insert runs an INSERT ... RETURNING id and returns the new id.
func (q querier) insert(ctx context.Context, b sq.InsertBuilder) (int64, error) {
	query, args, err := b.Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, fmt.Errorf("store: build query: %w", err)
	}

	var id int64
	if err := q.db.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, conflict(err)
	}
	return id, nil
}

// exec runs a statement that must touch at least one row.
func (q querier) exec(ctx context.Context, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("store: build query: %w", err)
	}

	res, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return conflict(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// conflict maps unique-constraint violations from either driver to ErrConflict.
func conflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) &&
		(liteErr.ExtendedCode == sqlite3.ErrConstraintUnique || liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey) {
		return fmt.Errorf("%w: %s", ErrConflict, liteErr.Error())
	}
	return err
}

// now is truncated to the precision postgres keeps.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
