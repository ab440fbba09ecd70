package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vaughan-dsouza/goblog/internal/db"
	"github.com/vaughan-dsouza/goblog/internal/models"
	"github.com/vaughan-dsouza/goblog/internal/store"
	"github.com/vaughan-dsouza/goblog/internal/utils"
)

const testSecret = "0123456789abcdef0123"

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestService(t *testing.T) (*Service, *store.Store, *clock) {
	t.Helper()

	conn, err := db.Connect(context.Background(), db.Options{
		Driver: db.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "auth.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.Migrate(conn))

	st := store.New(conn)
	c := &clock{t: time.Now()}
	svc := NewService(st.Users, st.Sessions, Options{
		Secret: testSecret,
		TTL:    time.Hour,
		Cost:   bcrypt.MinCost,
		Now:    c.now,
	})
	return svc, st, c
}

func TestRegisterHashesPassword(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newTestService(t)

	u, err := svc.Register(ctx, "testUser", "testUser@codeup.com", "pass")
	require.NoError(t, err)
	require.NotZero(t, u.ID)

	stored, err := st.Users.GetByUsername(ctx, "testUser")
	require.NoError(t, err)
	assert.NotEqual(t, "pass", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("pass")))
}

func TestRegisterRejects(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	_, err := svc.Register(ctx, "", "a@b.c", "pass")
	var verr *models.ValidationError
	assert.True(t, errors.As(err, &verr))

	_, err = svc.Register(ctx, "short", "a@b.c", "abc")
	assert.True(t, errors.As(err, &verr))
	assert.Equal(t, "password", verr.Field)

	_, err = svc.Register(ctx, "testUser", "one@codeup.com", "pass")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "testUser", "two@codeup.com", "pass")
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestLoginAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	_, err := svc.Register(ctx, "testUser", "testUser@codeup.com", "pass")
	require.NoError(t, err)

	sess, u, err := svc.Login(ctx, "testUser", "pass")
	require.NoError(t, err)
	assert.Equal(t, "testUser", u.Username)
	assert.NotEmpty(t, sess.Token)
	assert.NotEmpty(t, sess.CSRFToken)
	assert.NotEqual(t, sess.Token, sess.CSRFToken)

	cookie, err := svc.Cookie(sess)
	require.NoError(t, err)

	gotSess, gotUser, err := svc.Authenticate(ctx, cookie)
	require.NoError(t, err)
	assert.Equal(t, sess.Token, gotSess.Token)
	assert.Equal(t, u.ID, gotUser.ID)

	// each login gets its own session
	other, _, err := svc.Login(ctx, "testUser", "pass")
	require.NoError(t, err)
	assert.NotEqual(t, sess.Token, other.Token)
	_, _, err = svc.Authenticate(ctx, cookie)
	assert.NoError(t, err)
}

func TestLoginInvalidCredentials(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	_, err := svc.Register(ctx, "testUser", "testUser@codeup.com", "pass")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "testUser", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody", "pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateRejects(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	u, err := svc.Register(ctx, "testUser", "testUser@codeup.com", "pass")
	require.NoError(t, err)

	_, _, err = svc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, ErrNoSession)

	_, _, err = svc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrNoSession)

	// validly signed, but no such session on the server
	forged, err := utils.SignSession("unknown", u.ID, testSecret, time.Now().Add(time.Hour))
	require.NoError(t, err)
	_, _, err = svc.Authenticate(ctx, forged)
	assert.ErrorIs(t, err, ErrNoSession)

	sess, err := svc.Start(ctx, u)
	require.NoError(t, err)
	tampered, err := utils.SignSession(sess.Token, u.ID+1, testSecret, sess.ExpiresAt)
	require.NoError(t, err)
	_, _, err = svc.Authenticate(ctx, tampered)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestAuthenticateExpiredSessionIsRemoved(t *testing.T) {
	ctx := context.Background()
	svc, st, c := newTestService(t)

	u, err := svc.Register(ctx, "testUser", "testUser@codeup.com", "pass")
	require.NoError(t, err)

	sess, err := svc.Start(ctx, u)
	require.NoError(t, err)
	cookie, err := svc.Cookie(sess)
	require.NoError(t, err)

	c.t = c.t.Add(2 * time.Hour)
	_, _, err = svc.Authenticate(ctx, cookie)
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = st.Sessions.Get(ctx, sess.Token)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	u, err := svc.Register(ctx, "testUser", "testUser@codeup.com", "pass")
	require.NoError(t, err)
	sess, err := svc.Start(ctx, u)
	require.NoError(t, err)
	cookie, err := svc.Cookie(sess)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, sess.Token))
	require.NoError(t, svc.Logout(ctx, sess.Token))

	_, _, err = svc.Authenticate(ctx, cookie)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestPurgeExpired(t *testing.T) {
	ctx := context.Background()
	svc, _, c := newTestService(t)

	u, err := svc.Register(ctx, "testUser", "testUser@codeup.com", "pass")
	require.NoError(t, err)
	_, err = svc.Start(ctx, u)
	require.NoError(t, err)

	n, err := svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	c.t = c.t.Add(2 * time.Hour)
	n, err = svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

// memSessions keeps sessions in a map and fails deletes with deleteErr.
type memSessions struct {
	sessions  map[string]*models.Session
	deleteErr error
}

func (m *memSessions) Create(_ context.Context, s *models.Session) error {
	m.sessions[s.Token] = s
	return nil
}

func (m *memSessions) Get(_ context.Context, token string) (*models.Session, error) {
	s, ok := m.sessions[token]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s, nil
}

func (m *memSessions) Delete(_ context.Context, token string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.sessions[token]; !ok {
		return store.ErrNotFound
	}
	delete(m.sessions, token)
	return nil
}

func (m *memSessions) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

// noUsers has lost every account, as a store without cascading deletes would.
type noUsers struct{}

func (noUsers) Create(context.Context, *models.User) error { return nil }

func (noUsers) GetByID(context.Context, int64) (*models.User, error) {
	return nil, store.ErrNotFound
}

func (noUsers) GetByUsername(context.Context, string) (*models.User, error) {
	return nil, store.ErrNotFound
}

func TestAuthenticateOrphanedSession(t *testing.T) {
	ctx := context.Background()
	sessions := &memSessions{sessions: map[string]*models.Session{}}
	svc := NewService(noUsers{}, sessions, Options{Secret: testSecret, TTL: time.Hour, Cost: bcrypt.MinCost})

	sess, err := svc.Start(ctx, &models.User{ID: 42})
	require.NoError(t, err)
	cookie, err := svc.Cookie(sess)
	require.NoError(t, err)

	_, _, err = svc.Authenticate(ctx, cookie)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Empty(t, sessions.sessions, "orphaned session removed")
}

func TestAuthenticateOrphanedSessionDeleteFailure(t *testing.T) {
	ctx := context.Background()
	sessions := &memSessions{sessions: map[string]*models.Session{}}
	svc := NewService(noUsers{}, sessions, Options{Secret: testSecret, TTL: time.Hour, Cost: bcrypt.MinCost})

	sess, err := svc.Start(ctx, &models.User{ID: 42})
	require.NoError(t, err)
	cookie, err := svc.Cookie(sess)
	require.NoError(t, err)

	sessions.deleteErr = errors.New("redis: connection refused")
	_, _, err = svc.Authenticate(ctx, cookie)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSession)
	assert.Contains(t, err.Error(), "connection refused")
}
