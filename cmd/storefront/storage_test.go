package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doneduardo/storefront/pkg/config"
	"github.com/doneduardo/storefront/pkg/enums"
	"github.com/doneduardo/storefront/pkg/kvstore"
	"github.com/doneduardo/storefront/pkg/logger"
	"github.com/doneduardo/storefront/pkg/redis"
)

func TestOpenStorageMemory(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{Storage: config.StorageConfig{Backend: enums.StorageBackendMemory}}

	store, err := openStorage(ctx, cfg, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, store.Pinger.Ping(ctx))
	assert.NotNil(t, store.Replays)
	assert.NoError(t, store.Close())
}

func TestOpenStorageSQLiteMigratesAtBoot(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		Storage: config.StorageConfig{Backend: enums.StorageBackendSQL, SessionID: "sess-1"},
		DB: config.DBConfig{
			DSN:          "file:boot_storage?mode=memory&cache=shared",
			UseSQLite:    true,
			AutoMigrate:  true,
			MaxOpenConns: 1,
		},
	}

	store, err := openStorage(ctx, cfg, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Save(ctx, "cart", []byte(`[]`)))
	got, err := store.Load(ctx, "cart")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))

	require.NoError(t, store.Clear(ctx, "cart"))
	_, err = store.Load(ctx, "cart")
	assert.ErrorIs(t, err, kvstore.ErrNotFound)
}

type ttlRecorder struct {
	ttls map[string]time.Duration
}

func (r *ttlRecorder) Get(context.Context, string) (string, error) { return "", redis.ErrNil }

func (r *ttlRecorder) Set(_ context.Context, key string, _ any, ttl time.Duration) error {
	r.ttls[key] = ttl
	return nil
}

func (r *ttlRecorder) Del(context.Context, ...string) error { return nil }

func (r *ttlRecorder) Ping(context.Context) error { return nil }

func (r *ttlRecorder) SlotKey(sessionID, name string) string { return sessionID + ":" + name }

func TestRedisReplaysExpireWithIdempotencyTTL(t *testing.T) {
	ctx := context.Background()
	conn := &ttlRecorder{ttls: map[string]time.Duration{}}
	cfg := &config.Config{
		Storage:  config.StorageConfig{SessionID: "s", SlotTTL: 0},
		Checkout: config.CheckoutConfig{IdempotencyTTL: 24 * time.Hour},
	}

	slots, replays := redisStores(conn, cfg)
	require.NoError(t, slots.Save(ctx, "cart", []byte("[]")))
	require.NoError(t, replays.Save(ctx, "idem:abc", []byte("{}")))

	assert.Equal(t, time.Duration(0), conn.ttls["s:cart"])
	assert.Equal(t, 24*time.Hour, conn.ttls["s:idem:abc"])
}
