// Package views renders the HTML pages. Every page is parsed together with
// the shared layout once, at startup.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/vaughan-dsouza/goblog/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

const layout = "templates/layout.html"

// Page is the data every template receives.
type Page struct {
	Title       string
	Path        string
	CurrentUser *models.User
	CSRFToken   string

	FormError string
	Form      map[string]string
	Action    string

	Post    *models.Post
	Posts   []models.Post
	Books   []models.Book
	CanEdit bool

	Status  int
	Message string
}

var functions = template.FuncMap{
	"formatDate": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("02 Jan 2006, 15:04")
	},
	"edited": func(p *models.Post) bool {
		return p.UpdatedAt.After(p.CreatedAt)
	},
	"paragraphs": func(s string) []string {
		return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n\n")
	},
}

type Renderer struct {
	pages map[string]*template.Template
}

func New() (*Renderer, error) {
	return NewFromFS(templateFS)
}

// NewFromFS parses templates/layout.html plus every other templates/*.html in fsys.
func NewFromFS(fsys fs.FS) (*Renderer, error) {
	files, err := fs.Glob(fsys, "templates/*.html")
	if err != nil {
		return nil, err
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(files))}
	for _, file := range files {
		if file == layout {
			continue
		}

		name := path.Base(file)
		ts, err := template.New(name).Funcs(functions).ParseFS(fsys, layout, file)
		if err != nil {
			return nil, fmt.Errorf("views: parse %s: %w", name, err)
		}
		r.pages[name] = ts
	}
	return r, nil
}

// Render executes page into a buffer first so a failing template never
// leaves a half-written response.
func (r *Renderer) Render(w io.Writer, page string, data *Page) error {
	ts, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("views: unknown page %q", page)
	}

	buf := new(bytes.Buffer)
	if err := ts.ExecuteTemplate(buf, "layout", data); err != nil {
		return fmt.Errorf("views: render %s: %w", page, err)
	}

	_, err := buf.WriteTo(w)
	return err
}
