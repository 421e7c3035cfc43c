// SPDX-License-Identifier: MIT

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) Store {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := NewRedisStore(RedisConfig{Addr: mr.Addr()}, zerolog.Nop())
	require.NoError(t, err)
	return store
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	store.Set(ctx, "key", []byte(`{"at":"2026-01-01T00:00:00Z","v":"hello"}`), time.Minute)

	raw, ok := store.Get(ctx, "key")
	require.True(t, ok)
	assert.Contains(t, string(raw), "hello")

	store.Delete(ctx, "key")
	_, ok = store.Get(ctx, "key")
	assert.False(t, ok)
}

func TestRedisStoreMissingKey(t *testing.T) {
	store := newTestRedisStore(t)
	_, ok := store.Get(context.Background(), "nope")
	assert.False(t, ok)
}

func TestNewRedisStoreUnreachable(t *testing.T) {
	_, err := NewRedisStore(RedisConfig{Addr: "127.0.0.1:1"}, zerolog.Nop())
	require.Error(t, err)
}

func TestTTROverRedis(t *testing.T) {
	store := newTestRedisStore(t)
	c := NewTTR("redis-test", store, time.Minute,
		func(k string) string { return k },
		func(_ context.Context, key string) (string, error) {
			return "fetched-" + key, nil
		})

	v, err := c.Get(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "fetched-abc", v)

	// Served from Redis the second time.
	v, err = c.Get(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "fetched-abc", v)
}
