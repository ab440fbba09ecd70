package store

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/vaughan-dsouza/goblog/internal/models"
)

var bookColumns = []string{"id", "title", "author"}

type BookRepo struct {
	q querier
}

// List returns every book ordered by id.
func (r *BookRepo) List(ctx context.Context) ([]models.Book, error) {
	books := []models.Book{}
	err := r.q.selectAll(ctx, &books, r.q.sb.Select(bookColumns...).From("books").OrderBy("id"))
	return books, err
}

func (r *BookRepo) Get(ctx context.Context, id int64) (*models.Book, error) {
	var b models.Book
	if err := r.q.get(ctx, &b, r.q.sb.Select(bookColumns...).From("books").Where(sq.Eq{"id": id})); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookRepo) Create(ctx context.Context, b *models.Book) error {
	id, err := r.q.insert(ctx, r.q.sb.Insert("books").
		Columns("title", "author").
		Values(b.Title, b.Author))
	if err != nil {
		return err
	}
	b.ID = id
	return nil
}
