package utils

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vaughan-dsouza/goblog/internal/models"
)

// context key
type ctxKey string

const (
	ctxUserKey    ctxKey = "user"
	ctxSessionKey ctxKey = "session"
)

var ErrTokenExpired = errors.New("token expired")

// SessionClaims is the payload of the session cookie. ID (jti) holds the
// server-side session token, Subject the user id.
type SessionClaims struct {
	jwt.RegisteredClaims
}

func (c *SessionClaims) SubjectInt() int64 {
	v, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// SignSession wraps a session token in an HS256 JWT.
func SignSession(sessionToken string, userID int64, secret string, expires time.Time) (string, error) {
	if secret == "" {
		return "", errors.New("secret not configured")
	}

	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionToken,
			Subject:   strconv.FormatInt(userID, 10),
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// VerifySession checks the signature and expiry of a session cookie.
func VerifySession(tokenStr, secret string) (*SessionClaims, error) {
	if secret == "" {
		return nil, errors.New("secret not configured")
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))

	var claims SessionClaims
	_, err := parser.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, err
	}

	if claims.ExpiresAt == nil || time.Until(claims.ExpiresAt.Time) <= 0 {
		return nil, ErrTokenExpired
	}
	if claims.ID == "" {
		return nil, errors.New("token has no session id")
	}

	return &claims, nil
}

// WithSession stores the authenticated session and its user on ctx.
func WithSession(ctx context.Context, s *models.Session, u *models.User) context.Context {
	ctx = context.WithValue(ctx, ctxSessionKey, s)
	return context.WithValue(ctx, ctxUserKey, u)
}

// CurrentUser returns the logged-in user, or nil for anonymous requests.
func CurrentUser(ctx context.Context) *models.User {
	u, _ := ctx.Value(ctxUserKey).(*models.User)
	return u
}

func CurrentSession(ctx context.Context) *models.Session {
	s, _ := ctx.Value(ctxSessionKey).(*models.Session)
	return s
}
