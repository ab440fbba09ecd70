package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/vaughan-dsouza/goblog/internal/models"
)

const sessionKeyPrefix = "session:"

// RedisSessions keeps sessions in redis. Keys expire with the session, so
// DeleteExpired has nothing to do.
type RedisSessions struct {
	client *redis.Client
}

func NewRedisSessions(client *redis.Client) *RedisSessions {
	return &RedisSessions{client: client}
}

func sessionKey(token string) string {
	return sessionKeyPrefix + token
}

func (r *RedisSessions) Create(ctx context.Context, s *models.Session) error {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("store: session already expired")
	}

	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}

	ok, err := r.client.SetNX(ctx, sessionKey(s.Token), payload, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	return nil
}

func (r *RedisSessions) Get(ctx context.Context, token string) (*models.Session, error) {
	payload, err := r.client.Get(ctx, sessionKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var s models.Session
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("store: decode session: %w", err)
	}
	return &s, nil
}

func (r *RedisSessions) Delete(ctx context.Context, token string) error {
	n, err := r.client.Del(ctx, sessionKey(token)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RedisSessions) DeleteExpired(ctx context.Context, _ time.Time) (int64, error) {
	return 0, nil
}
