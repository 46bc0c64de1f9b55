package kvstore

import (
	"context"
	"errors"
	"time"

	"github.com/doneduardo/storefront/pkg/redis"
)

type redisClient interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
	SlotKey(sessionID, name string) string
}

// Redis stores slots under the session's namespaced cart key.
type Redis struct {
	client    redisClient
	sessionID string
	ttl       time.Duration
}

// NewRedis scopes slots to sessionID. A zero ttl keeps slots until cleared.
func NewRedis(client redisClient, sessionID string, ttl time.Duration) *Redis {
	return &Redis{client: client, sessionID: sessionID, ttl: ttl}
}

func (r *Redis) Load(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, r.client.SlotKey(r.sessionID, key))
	if errors.Is(err, redis.ErrNil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(val), nil
}

func (r *Redis) Save(ctx context.Context, key string, data []byte) error {
	return r.client.Set(ctx, r.client.SlotKey(r.sessionID, key), data, r.ttl)
}

func (r *Redis) Clear(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.client.SlotKey(r.sessionID, key))
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx)
}
