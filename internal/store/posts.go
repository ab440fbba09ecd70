package store

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/vaughan-dsouza/goblog/internal/models"
)

var postColumns = []string{"id", "user_id", "title", "body", "created_at", "updated_at"}

type PostRepo struct {
	q querier
}

func (r *PostRepo) selectPosts() sq.SelectBuilder {
	return r.q.sb.Select(postColumns...).From("posts")
}

// List returns all posts, newest first.
func (r *PostRepo) List(ctx context.Context) ([]models.Post, error) {
	posts := []models.Post{}
	err := r.q.selectAll(ctx, &posts, r.selectPosts().OrderBy("created_at DESC", "id DESC"))
	return posts, err
}

func (r *PostRepo) Get(ctx context.Context, id int64) (*models.Post, error) {
	var p models.Post
	if err := r.q.get(ctx, &p, r.selectPosts().Where(sq.Eq{"id": id})); err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByTitle returns the most recent post with exactly this title.
func (r *PostRepo) FindByTitle(ctx context.Context, title string) (*models.Post, error) {
	var p models.Post
	b := r.selectPosts().Where(sq.Eq{"title": title}).OrderBy("id DESC").Limit(1)
	if err := r.q.get(ctx, &p, b); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts p and fills in its id and timestamps.
func (r *PostRepo) Create(ctx context.Context, p *models.Post) error {
	ts := now()
	id, err := r.q.insert(ctx, r.q.sb.Insert("posts").
		Columns("user_id", "title", "body", "created_at", "updated_at").
		Values(p.UserID, p.Title, p.Body, ts, ts))
	if err != nil {
		return err
	}

	p.ID = id
	p.CreatedAt = ts
	p.UpdatedAt = ts
	return nil
}

// Update overwrites title and body in place. The id never changes.
func (r *PostRepo) Update(ctx context.Context, p *models.Post) error {
	ts := now()
	err := r.q.exec(ctx, r.q.sb.Update("posts").
		Set("title", p.Title).
		Set("body", p.Body).
		Set("updated_at", ts).
		Where(sq.Eq{"id": p.ID}))
	if err != nil {
		return err
	}
	p.UpdatedAt = ts
	return nil
}

func (r *PostRepo) Delete(ctx context.Context, id int64) error {
	return r.q.exec(ctx, r.q.sb.Delete("posts").Where(sq.Eq{"id": id}))
}
