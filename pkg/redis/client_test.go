package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doneduardo/storefront/pkg/config"
)

func TestClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	fake := newFakeCommands()
	client := newClient(fake, "")

	key := client.SlotKey("sess-9", "cart")
	require.NoError(t, client.Set(ctx, key, []byte(`[{"productId":"p1","quantity":2}]`), 30*time.Minute))
	assert.Equal(t, 30*time.Minute, fake.ttls[key])

	got, err := client.Get(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"productId":"p1","quantity":2}]`, got)

	require.NoError(t, client.Del(ctx, key))
	_, err = client.Get(ctx, key)
	assert.ErrorIs(t, err, ErrNil)

	require.NoError(t, client.Del(ctx))
	assert.Equal(t, 1, fake.delCalls, "empty Del must not reach redis")
	require.NoError(t, client.Ping(ctx))
	require.NoError(t, client.Close())
}

func TestClientWithoutConnection(t *testing.T) {
	ctx := context.Background()
	var nilClient *Client

	assert.ErrorIs(t, nilClient.Ping(ctx), errNoConnection)
	assert.NoError(t, nilClient.Close())
	assert.ErrorIs(t, (&Client{}).Set(ctx, "k", "v", 0), errNoConnection)
	_, err := (&Client{}).Get(ctx, "k")
	assert.ErrorIs(t, err, errNoConnection)
	assert.Equal(t, "sf:cart:s:cart", nilClient.SlotKey("s", "cart"))
}

func TestSlotKey(t *testing.T) {
	cases := []struct {
		prefix, session, name, want string
	}{
		{"", "sess-1", "cart", "sf:cart:sess-1:cart"},
		{"shop:", "sess-1", "cart", "shop:cart:sess-1:cart"},
		{"sf", "  ", "cart", "sf:cart:cart"},
		{"sf", "sess-1", "", "sf:cart:sess-1"},
	}
	for _, tc := range cases {
		client := newClient(newFakeCommands(), tc.prefix)
		assert.Equal(t, tc.want, client.SlotKey(tc.session, tc.name))
	}
}

func TestDialOptions(t *testing.T) {
	_, err := dialOptions(config.RedisConfig{})
	require.Error(t, err)

	_, err = dialOptions(config.RedisConfig{URL: "://nope"})
	require.Error(t, err)

	opts, err := dialOptions(config.RedisConfig{URL: "redis://localhost:6379/3", DB: 5, PoolSize: 7, ReadTimeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, 3, opts.DB, "the url database wins")
	assert.Equal(t, 7, opts.PoolSize)
	assert.Equal(t, time.Second, opts.ReadTimeout)

	opts, err = dialOptions(config.RedisConfig{URL: "redis://localhost:6379?pool_size=12", DB: 2, PoolSize: 4})
	require.NoError(t, err)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 12, opts.PoolSize, "url settings are not overridden")

	opts, err = dialOptions(config.RedisConfig{Address: "cache:6379", Password: "pw", DB: 2, MinIdleConns: 1})
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 1, opts.MinIdleConns)
}

type fakeCommands struct {
	data     map[string]string
	ttls     map[string]time.Duration
	delCalls int
}

func newFakeCommands() *fakeCommands {
	return &fakeCommands{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeCommands) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeCommands) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	if b, ok := value.([]byte); ok {
		f.data[key] = string(b)
	} else {
		f.data[key] = fmt.Sprint(value)
	}
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeCommands) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeCommands) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.delCalls++
	for _, key := range keys {
		delete(f.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
