package handlers

import (
	"bytes"
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/vaughan-dsouza/goblog/internal/auth"
	"github.com/vaughan-dsouza/goblog/internal/metrics"
	"github.com/vaughan-dsouza/goblog/internal/middleware"
	"github.com/vaughan-dsouza/goblog/internal/models"
	"github.com/vaughan-dsouza/goblog/internal/store"
	"github.com/vaughan-dsouza/goblog/internal/utils"
	"github.com/vaughan-dsouza/goblog/internal/views"
)

type PostStore interface {
	List(ctx context.Context) ([]models.Post, error)
	Get(ctx context.Context, id int64) (*models.Post, error)
	Create(ctx context.Context, p *models.Post) error
	Update(ctx context.Context, p *models.Post) error
	Delete(ctx context.Context, id int64) error
}

type BookStore interface {
	List(ctx context.Context) ([]models.Book, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	Store        *store.Store
	Auth         *auth.Service
	Views        *views.Renderer
	Log          logrus.FieldLogger
	Metrics      *metrics.Metrics
	LoginLimiter *middleware.RateLimiter
	CookieSecure bool
	// TrustProxy honours X-Forwarded-For and X-Real-IP for the client address.
	TrustProxy   bool
}

type Handler struct {
	Auth   *AuthHandler
	Posts  *PostHandler
	Books  *BookHandler
	Health *HealthHandler

	auth         *auth.Service
	log          logrus.FieldLogger
	metrics      *metrics.Metrics
	loginLimiter *middleware.RateLimiter
	cookieSecure bool
	trustProxy   bool
}

func NewHandler(cfg Config) *Handler {
	b := base{views: cfg.Views, log: cfg.Log}

	return &Handler{
		Auth:   NewAuthHandler(b, cfg.Auth, cfg.CookieSecure),
		Posts:  NewPostHandler(b, cfg.Store.Posts),
		Books:  NewBookHandler(b, cfg.Store.Books),
		Health: NewHealthHandler(cfg.Store),

		auth:         cfg.Auth,
		log:          cfg.Log,
		metrics:      cfg.Metrics,
		loginLimiter: cfg.LoginLimiter,
		cookieSecure: cfg.CookieSecure,
		trustProxy:   cfg.TrustProxy,
	}
}

// base carries what every page handler needs to answer a request.
type base struct {
	views *views.Renderer
	log   logrus.FieldLogger
}

// page builds the template data shared by every page.
func (b base) page(r *http.Request, title string) *views.Page {
	p := &views.Page{
		Title:       title,
		Path:        r.URL.Path,
		CurrentUser: currentUser(r),
		Form:        map[string]string{},
	}
	if s := currentSession(r); s != nil {
		p.CSRFToken = s.CSRFToken
	}
	return p
}

func (b base) render(w http.ResponseWriter, r *http.Request, status int, name string, data *views.Page) {
	// the status line is only committed once the page rendered
	buf := new(bytes.Buffer)
	if err := b.views.Render(buf, name, data); err != nil {
		middleware.Logger(b.log, r).WithError(err).Error("render failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (b base) errorPage(w http.ResponseWriter, r *http.Request, status int, message string) {
	p := b.page(r, http.StatusText(status))
	p.Status = status
	p.Message = message
	b.render(w, r, status, "error.html", p)
}

func (b base) serverError(w http.ResponseWriter, r *http.Request, err error) {
	middleware.Logger(b.log, r).WithError(err).Error("internal server error")
	b.errorPage(w, r, http.StatusInternalServerError, "Something went wrong on our side.")
}

func (b base) notFound(w http.ResponseWriter, r *http.Request) {
	b.errorPage(w, r, http.StatusNotFound, "The page you are looking for does not exist.")
}

func (b base) forbidden(w http.ResponseWriter, r *http.Request) {
	b.errorPage(w, r, http.StatusForbidden, "You are not allowed to do that.")
}

func currentUser(r *http.Request) *models.User {
	return utils.CurrentUser(r.Context())
}

func currentSession(r *http.Request) *models.Session {
	return utils.CurrentSession(r.Context())
}
