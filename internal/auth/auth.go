// Package auth verifies credentials and manages login sessions.
//
// A session lives in a SessionStore keyed by a random token. The browser
// holds that token inside a signed cookie, so forged cookies are rejected
// before the store is consulted and logout revokes the server-side record.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vaughan-dsouza/goblog/internal/models"
	"github.com/vaughan-dsouza/goblog/internal/store"
	"github.com/vaughan-dsouza/goblog/internal/utils"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNoSession          = errors.New("no valid session")
)

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

type SessionStore interface {
	Create(ctx context.Context, s *models.Session) error
	Get(ctx context.Context, token string) (*models.Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Options struct {
	Secret string
	TTL    time.Duration
	// Cost is the bcrypt cost; zero means bcrypt.DefaultCost.
	Cost int
	// Now overrides the clock in tests.
	Now func() time.Time
}

type Service struct {
	users    UserStore
	sessions SessionStore
	secret   string
	ttl      time.Duration
	cost     int
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

func NewService(users UserStore, sessions SessionStore, opts Options) *Service {
	s := &Service{
		users:    users,
		sessions: sessions,
		secret:   opts.Secret,
		ttl:      opts.TTL,
		cost:     opts.Cost,
		now:      opts.Now,
	}
	if s.cost == 0 {
		s.cost = bcrypt.DefaultCost
	}
	if s.ttl <= 0 {
		s.ttl = 24 * time.Hour
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(hash), nil
}

// Register validates and stores a new user with a hashed password.
func (s *Service) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	u := &models.User{Username: username, Email: email}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if err := models.ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u.Password = hash

	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Verify checks a username/password pair against the stored hash.
func (s *Service) Verify(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		// burn the same bcrypt time as a real comparison
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("auth: load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Login verifies credentials and opens a new session.
func (s *Service) Login(ctx context.Context, username, password string) (*models.Session, *models.User, error) {
	u, err := s.Verify(ctx, username, password)
	if err != nil {
		return nil, nil, err
	}

	sess, err := s.Start(ctx, u)
	if err != nil {
		return nil, nil, err
	}
	return sess, u, nil
}

// Start opens a session for an already authenticated user.
func (s *Service) Start(ctx context.Context, u *models.User) (*models.Session, error) {
	now := s.now().UTC()
	sess := &models.Session{
		Token:     uuid.NewString(),
		UserID:    u.ID,
		CSRFToken: uuid.NewString(),
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}

	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("auth: create session: %w", err)
	}
	return sess, nil
}

// Cookie returns the signed cookie value for sess.
func (s *Service) Cookie(sess *models.Session) (string, error) {
	return utils.SignSession(sess.Token, sess.UserID, s.secret, sess.ExpiresAt)
}

// Authenticate resolves a cookie value to its live session and user.
// Anything short of that yields ErrNoSession; store failures are returned as is.
func (s *Service) Authenticate(ctx context.Context, cookie string) (*models.Session, *models.User, error) {
	if cookie == "" {
		return nil, nil, ErrNoSession
	}

	claims, err := utils.VerifySession(cookie, s.secret)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrNoSession, err)
	}

	sess, err := s.sessions.Get(ctx, claims.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, ErrNoSession
	}
	if err != nil {
		return nil, nil, fmt.Errorf("auth: load session: %w", err)
	}

	if sess.Expired(s.now()) {
		if err := s.sessions.Delete(ctx, sess.Token); err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, nil, fmt.Errorf("auth: delete expired session: %w", err)
		}
		return nil, nil, fmt.Errorf("%w: expired", ErrNoSession)
	}

	if sess.UserID != claims.SubjectInt() {
		return nil, nil, fmt.Errorf("%w: subject mismatch", ErrNoSession)
	}

	u, err := s.users.GetByID(ctx, sess.UserID)
	if errors.Is(err, store.ErrNotFound) {
		if err := s.sessions.Delete(ctx, sess.Token); err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, nil, fmt.Errorf("auth: delete orphaned session: %w", err)
		}
		return nil, nil, ErrNoSession
	}
	if err != nil {
		return nil, nil, fmt.Errorf("auth: load user: %w", err)
	}

	return sess, u, nil
}

// Logout revokes the session. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Delete(ctx, token); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("auth: delete session: %w", err)
	}
	return nil
}

// PurgeExpired removes every expired session from the store.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, s.now().UTC())
}

func (s *Service) TTL() time.Duration {
	return s.ttl
}

func (s *Service) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.cost)
	})
	return s.dummyHash
}
