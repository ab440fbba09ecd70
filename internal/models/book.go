package models

const (
	MaxBookTitle  = 100
	MaxBookAuthor = 255
)

type Book struct {
	ID     int64  `db:"id"`
	Title  string `db:"title"`
	Author string `db:"author"`
}

func (b *Book) Validate() error {
	return firstErr(
		required("title", b.Title),
		maxLen("title", b.Title, MaxBookTitle),
		required("author", b.Author),
		maxLen("author", b.Author, MaxBookAuthor),
	)
}
