package handlers

import (
	"errors"
	"net/http"

	"github.com/vaughan-dsouza/goblog/internal/auth"
	"github.com/vaughan-dsouza/goblog/internal/middleware"
	"github.com/vaughan-dsouza/goblog/internal/models"
	"github.com/vaughan-dsouza/goblog/internal/store"
	"github.com/vaughan-dsouza/goblog/internal/utils"
)

type AuthHandler struct {
	base
	auth         *auth.Service
	cookieSecure bool
}

func NewAuthHandler(b base, svc *auth.Service, cookieSecure bool) *AuthHandler {
	return &AuthHandler{base: b, auth: svc, cookieSecure: cookieSecure}
}

// -------------- LOGIN ------------------------

func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if currentUser(r) != nil {
		http.Redirect(w, r, "/posts", http.StatusSeeOther)
		return
	}
	utils.NoCache(w)
	h.render(w, r, http.StatusOK, "login.html", h.page(r, "Log in"))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	username := utils.FormValue(r, "username")
	password := r.PostFormValue("password")

	sess, user, err := h.auth.Login(r.Context(), username, password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		middleware.Logger(h.log, r).WithField("username", username).Info("login failed")

		p := h.page(r, "Log in")
		p.FormError = err.Error()
		p.Form["username"] = username
		h.render(w, r, http.StatusUnauthorized, "login.html", p)
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	if err := h.setCookie(w, sess); err != nil {
		h.serverError(w, r, err)
		return
	}

	middleware.Logger(h.log, r).WithField("user_id", user.ID).Info("login succeeded")
	http.Redirect(w, r, "/posts", http.StatusFound)
}

// -------------- SIGN UP ----------------------

func (h *AuthHandler) SignUpForm(w http.ResponseWriter, r *http.Request) {
	if currentUser(r) != nil {
		http.Redirect(w, r, "/posts", http.StatusSeeOther)
		return
	}
	utils.NoCache(w)
	h.render(w, r, http.StatusOK, "signup.html", h.page(r, "Sign up"))
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	username := utils.FormValue(r, "username")
	email := utils.FormValue(r, "email")
	password := r.PostFormValue("password")

	user, err := h.auth.Register(r.Context(), username, email, password)
	if err != nil {
		status := 0
		var verr *models.ValidationError
		switch {
		case errors.As(err, &verr):
			status = http.StatusUnprocessableEntity
		case errors.Is(err, store.ErrConflict):
			status = http.StatusConflict
			err = errors.New("username or email already taken")
		default:
			h.serverError(w, r, err)
			return
		}

		p := h.page(r, "Sign up")
		p.FormError = err.Error()
		p.Form["username"] = username
		p.Form["email"] = email
		h.render(w, r, status, "signup.html", p)
		return
	}

	sess, err := h.auth.Start(r.Context(), user)
	if err != nil {
		// the account exists, let them log in by hand
		middleware.Logger(h.log, r).WithError(err).WithField("user_id", user.ID).Error("session after signup failed")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if err := h.setCookie(w, sess); err != nil {
		h.serverError(w, r, err)
		return
	}

	middleware.Logger(h.log, r).WithField("user_id", user.ID).Info("user registered")
	http.Redirect(w, r, "/posts", http.StatusSeeOther)
}

// -------------- LOGOUT -----------------------

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess := currentSession(r); sess != nil {
		if err := h.auth.Logout(r.Context(), sess.Token); err != nil {
			h.serverError(w, r, err)
			return
		}
	}

	middleware.ClearSessionCookie(w, h.cookieSecure)
	http.Redirect(w, r, "/posts", http.StatusSeeOther)
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, sess *models.Session) error {
	value, err := h.auth.Cookie(sess)
	if err != nil {
		return err
	}
	middleware.SetSessionCookie(w, value, sess.ExpiresAt, h.cookieSecure)
	return nil
}
