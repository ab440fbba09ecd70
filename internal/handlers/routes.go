package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/vaughan-dsouza/goblog/internal/middleware"
)

// Routes builds the router. Reads are public; anything that changes state
// needs a session and a matching CSRF token.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	if h.trustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.RequestLogger(h.log))
	r.Use(chimw.Recoverer)
	if h.metrics != nil {
		r.Use(middleware.Metrics(h.metrics))
	}
	r.Use(middleware.LoadSession(h.auth, h.log, h.cookieSecure, h.Posts.errorPage))

	r.NotFound(h.Posts.notFound)
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		h.Posts.errorPage(w, r, http.StatusMethodNotAllowed, "That method is not supported here.")
	})

	r.Get("/healthz", h.Health.Healthz)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}

	// Public
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/posts", http.StatusFound)
	})
	r.Get("/books", h.Books.Index)
	r.Get("/posts", h.Posts.Index)
	r.Get("/posts/{id}", h.Posts.Show)

	r.Get("/login", h.Auth.LoginForm)
	r.Get("/signup", h.Auth.SignUpForm)
	r.Group(func(r chi.Router) {
		if h.loginLimiter != nil {
			r.Use(h.loginLimiter.Handler)
		}
		r.Post("/login", h.Auth.Login)
		r.Post("/signup", h.Auth.SignUp)
	})

	// Protected
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Use(middleware.CSRF(h.Posts.errorPage))

		r.Post("/logout", h.Auth.Logout)

		r.Get("/posts/create", h.Posts.CreateForm)
		r.Post("/posts/create", h.Posts.Create)
		r.Get("/posts/{id}/edit", h.Posts.EditForm)
		r.Post("/posts/{id}/edit", h.Posts.Update)
		r.Post("/posts/{id}/delete", h.Posts.Delete)
	})

	return r
}
