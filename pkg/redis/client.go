// Package redis is the go-redis connection used by the redis slot backend.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doneduardo/storefront/pkg/config"
	"github.com/doneduardo/storefront/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "sf"
	slotSegment      = "cart"
)

// ErrNil is returned by Get when the key does not exist.
var ErrNil = redis.Nil

var errNoConnection = errors.New("redis: no connection")

// commands is the slice of go-redis the slot backend needs.
type commands interface {
	Ping(context.Context) *redis.StatusCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Del(context.Context, ...string) *redis.IntCmd
}

type Client struct {
	cmds   commands
	conn   *redis.Client
	prefix string
}

// New dials redis and fails unless the server answers PING.
func New(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Client, error) {
	opts, err := dialOptions(cfg)
	if err != nil {
		return nil, err
	}
	conn := redis.NewClient(opts)
	if err := conn.Ping(ctx).Err(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
	}
	logg.Info(logg.WithFields(ctx, map[string]any{
		"redis_addr": opts.Addr,
		"redis_db":   opts.DB,
	}), "redis.connected")
	return newClient(conn, cfg.KeyPrefix), nil
}

func newClient(cmds commands, prefix string) *Client {
	c := &Client{cmds: cmds, prefix: strings.Trim(strings.TrimSpace(prefix), ":")}
	if c.prefix == "" {
		c.prefix = defaultKeyPrefix
	}
	if conn, ok := cmds.(*redis.Client); ok {
		c.conn = conn
	}
	return c
}

// dialOptions prefers the URL. Pool and timeout settings from cfg only fill
// what the URL left unset.
func dialOptions(cfg config.RedisConfig) (*redis.Options, error) {
	var opts *redis.Options
	switch {
	case cfg.URL != "":
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
		if opts.DB == 0 {
			opts.DB = cfg.DB
		}
	case cfg.Address != "":
		opts = &redis.Options{Addr: cfg.Address, Password: cfg.Password, DB: cfg.DB}
	default:
		return nil, errors.New("redis: url or address is required")
	}

	opts.PoolSize = orInt(opts.PoolSize, cfg.PoolSize)
	opts.MinIdleConns = orInt(opts.MinIdleConns, cfg.MinIdleConns)
	opts.DialTimeout = orDuration(opts.DialTimeout, cfg.DialTimeout)
	opts.ReadTimeout = orDuration(opts.ReadTimeout, cfg.ReadTimeout)
	opts.WriteTimeout = orDuration(opts.WriteTimeout, cfg.WriteTimeout)
	return opts, nil
}

func orInt(current, fallback int) int {
	if current != 0 {
		return current
	}
	return fallback
}

func orDuration(current, fallback time.Duration) time.Duration {
	if current != 0 {
		return current
	}
	return fallback
}

func (c *Client) commands() (commands, error) {
	if c == nil || c.cmds == nil {
		return nil, errNoConnection
	}
	return c.cmds, nil
}

// Set writes value at key. A zero ttl never expires.
func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	cmds, err := c.commands()
	if err != nil {
		return err
	}
	return cmds.Set(ctx, key, value, ttl).Err()
}

// Get returns the value at key, or ErrNil.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	cmds, err := c.commands()
	if err != nil {
		return "", err
	}
	return cmds.Get(ctx, key).Result()
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	cmds, err := c.commands()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return cmds.Del(ctx, keys...).Err()
}

func (c *Client) Ping(ctx context.Context) error {
	cmds, err := c.commands()
	if err != nil {
		return err
	}
	return cmds.Ping(ctx).Err()
}

// Close releases the pool. Clients built around a fake have nothing to close.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// SlotKey is "<prefix>:cart:<session>:<name>". Blank segments are dropped so
// a missing session still yields a usable key.
func (c *Client) SlotKey(sessionID, name string) string {
	prefix := defaultKeyPrefix
	if c != nil && c.prefix != "" {
		prefix = c.prefix
	}
	segments := []string{prefix, slotSegment}
	for _, s := range []string{sessionID, name} {
		if s = strings.TrimSpace(s); s != "" {
			segments = append(segments, s)
		}
	}
	return strings.Join(segments, ":")
}
