package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vaughan-dsouza/goblog/internal/auth"
	"github.com/vaughan-dsouza/goblog/internal/models"
	"github.com/vaughan-dsouza/goblog/internal/utils"
)

const SessionCookieName = "goblog_session"

type Authenticator interface {
	Authenticate(ctx context.Context, cookie string) (*models.Session, *models.User, error)
}

// ErrorPage writes an error response for status. A nil ErrorPage falls back
// to a plain-text body.
type ErrorPage func(w http.ResponseWriter, r *http.Request, status int, message string)

func (e ErrorPage) write(w http.ResponseWriter, r *http.Request, status int, message string) {
	if e == nil {
		http.Error(w, message, status)
		return
	}
	e(w, r, status, message)
}

func SetSessionCookie(w http.ResponseWriter, value string, expires time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// LoadSession puts the session and user behind the request's cookie on the
// context. Requests without a usable cookie continue anonymously.
func LoadSession(a Authenticator, log logrus.FieldLogger, secureCookie bool, onError ErrorPage) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(SessionCookieName)
			if err != nil || c.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			sess, user, err := a.Authenticate(r.Context(), c.Value)
			switch {
			case errors.Is(err, auth.ErrNoSession):
				ClearSessionCookie(w, secureCookie)
				next.ServeHTTP(w, r)
				return
			case err != nil:
				Logger(log, r).WithError(err).Error("session lookup failed")
				onError.write(w, r, http.StatusInternalServerError, "Something went wrong on our side.")
				return
			}

			setLogUser(r.Context(), user.ID)
			next.ServeHTTP(w, r.WithContext(utils.WithSession(r.Context(), sess, user)))
		})
	}
}

// RequireAuth sends anonymous requests to the login page.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.NoCache(w)

		if utils.CurrentUser(r.Context()) == nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CSRF rejects state-changing requests whose csrf_token form field does not
// match the session's token.
func CSRF(onError ErrorPage) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			sess := utils.CurrentSession(r.Context())
			token := r.PostFormValue("csrf_token")
			if sess == nil || token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(sess.CSRFToken)) != 1 {
				onError.write(w, r, http.StatusForbidden, "Invalid or missing CSRF token. Reload the page and try again.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
