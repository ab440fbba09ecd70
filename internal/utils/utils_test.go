package utils

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaughan-dsouza/goblog/internal/models"
)

const secret = "0123456789abcdef0123"

func TestSignAndVerifySession(t *testing.T) {
	signed, err := SignSession("session-token", 42, secret, time.Now().Add(time.Hour))
	require.NoError(t, err)

	claims, err := VerifySession(signed, secret)
	require.NoError(t, err)
	assert.Equal(t, "session-token", claims.ID)
	assert.Equal(t, int64(42), claims.SubjectInt())
}

func TestVerifySessionRejects(t *testing.T) {
	valid, err := SignSession("tok", 1, secret, time.Now().Add(time.Hour))
	require.NoError(t, err)

	expired, err := SignSession("tok", 1, secret, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	_, err = VerifySession(valid, "another-secret-entirely")
	assert.Error(t, err)

	_, err = VerifySession(expired, secret)
	assert.ErrorIs(t, err, ErrTokenExpired)

	_, err = VerifySession("not.a.jwt", secret)
	assert.Error(t, err)

	_, err = VerifySession(valid, "")
	assert.Error(t, err)

	noID, err := SignSession("", 1, secret, time.Now().Add(time.Hour))
	require.NoError(t, err)
	_, err = VerifySession(noID, secret)
	assert.Error(t, err)
}

func TestSubjectIntInvalid(t *testing.T) {
	c := SessionClaims{}
	c.Subject = "abc"
	assert.Equal(t, int64(0), c.SubjectInt())
}

func TestSessionContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, CurrentUser(ctx))
	assert.Nil(t, CurrentSession(ctx))

	s := &models.Session{Token: "t"}
	u := &models.User{ID: 3}
	ctx = WithSession(ctx, s, u)
	assert.Same(t, u, CurrentUser(ctx))
	assert.Same(t, s, CurrentSession(ctx))
}

func TestParseID(t *testing.T) {
	tests := map[string]bool{"12": true, "0": false, "-3": false, "abc": false, "": false}

	for raw, ok := range tests {
		r := httptest.NewRequest(http.MethodGet, "/posts/"+raw, nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", raw)
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))

		id, err := ParseID(r, "id")
		if ok {
			require.NoError(t, err, raw)
			assert.Equal(t, int64(12), id)
		} else {
			assert.ErrorIs(t, err, ErrBadID, raw)
		}
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", ClientIP(r))

	r.RemoteAddr = "10.0.0.2"
	assert.Equal(t, "10.0.0.2", ClientIP(r))
}
