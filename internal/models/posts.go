package models

import "time"

const MaxPostTitle = 100

type Post struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Title     string    `db:"title"`
	Body      string    `db:"body"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (p *Post) Validate() error {
	return firstErr(
		required("title", p.Title),
		maxLen("title", p.Title, MaxPostTitle),
		required("body", p.Body),
	)
}

// OwnedBy reports whether userID may edit or delete the post.
func (p *Post) OwnedBy(userID int64) bool {
	return p.UserID == userID
}
