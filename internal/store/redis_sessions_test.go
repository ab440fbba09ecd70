package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaughan-dsouza/goblog/internal/models"
)

func TestRedisSessions(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.Ping(ctx).Err())

	rs := NewRedisSessions(client)
	s := &models.Session{
		Token:     uuid.NewString(),
		UserID:    7,
		CSRFToken: "csrf",
		ExpiresAt: time.Now().Add(time.Minute),
		CreatedAt: time.Now(),
	}

	require.NoError(t, rs.Create(ctx, s))
	assert.ErrorIs(t, rs.Create(ctx, s), ErrConflict)

	ttl, err := client.TTL(ctx, sessionKey(s.Token)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	got, err := rs.Get(ctx, s.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.UserID)
	assert.Equal(t, "csrf", got.CSRFToken)

	require.NoError(t, rs.Delete(ctx, s.Token))
	_, err = rs.Get(ctx, s.Token)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, rs.Delete(ctx, s.Token), ErrNotFound)
}

func TestRedisSessionsRejectsExpired(t *testing.T) {
	rs := NewRedisSessions(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}))
	err := rs.Create(context.Background(), &models.Session{Token: "t", ExpiresAt: time.Now().Add(-time.Second)})
	require.Error(t, err)
}
