package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/doneduardo/storefront/pkg/config"
	"github.com/doneduardo/storefront/pkg/db"
	"github.com/doneduardo/storefront/pkg/enums"
	"github.com/doneduardo/storefront/pkg/kvstore"
	"github.com/doneduardo/storefront/pkg/logger"
	"github.com/doneduardo/storefront/pkg/migrate"
	"github.com/doneduardo/storefront/pkg/redis"
)

// storage bundles the selected slot store with what must be closed on exit.
// Replays holds checkout idempotency records on the same backend.
type storage struct {
	kvstore.Storage
	Replays kvstore.Storage
	Pinger  kvstore.Pinger
	closers []func() error
}

func (s *storage) Close() error {
	var err error
	for _, closeFn := range s.closers {
		err = multierr.Append(err, closeFn())
	}
	return err
}

// redisConn is the part of *redis.Client the slot stores use.
type redisConn interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
	SlotKey(sessionID, name string) string
}

// redisStores shares one connection between the cart slot, which expires
// after the cart TTL, and the replay records, which expire after the
// idempotency TTL.
func redisStores(conn redisConn, cfg *config.Config) (slots, replays *kvstore.Redis) {
	return kvstore.NewRedis(conn, cfg.Storage.SessionID, cfg.Storage.SlotTTL),
		kvstore.NewRedis(conn, cfg.Storage.SessionID, cfg.Checkout.IdempotencyTTL)
}

func openStorage(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*storage, error) {
	switch cfg.Storage.Backend {
	case enums.StorageBackendRedis:
		client, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap redis: %w", err)
		}
		store, replays := redisStores(client, cfg)
		return &storage{Storage: store, Replays: replays, Pinger: store, closers: []func() error{client.Close}}, nil

	case enums.StorageBackendSQL:
		client, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap database: %w", err)
		}
		if err := migrate.MaybeRun(ctx, cfg.DB.AutoMigrate, logg, client); err != nil {
			return nil, multierr.Append(fmt.Errorf("migrate cart slots: %w", err), client.Close())
		}
		store := kvstore.NewSQL(client.DB(), cfg.Storage.SessionID)
		return &storage{Storage: store, Replays: store, Pinger: store, closers: []func() error{client.Close}}, nil

	default:
		store := kvstore.NewMemory()
		return &storage{Storage: store, Replays: store, Pinger: store}, nil
	}
}
