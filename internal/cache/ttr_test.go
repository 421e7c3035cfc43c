// SPDX-License-Identifier: MIT

package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intKey(k int) string { return fmt.Sprintf("k:%d", k) }

func TestTTRFetchesOnMiss(t *testing.T) {
	var fetches atomic.Int64
	c := NewTTR("test", NewMemoryStore(0), time.Minute, intKey,
		func(_ context.Context, key int) (string, error) {
			fetches.Add(1)
			return fmt.Sprintf("value-%d", key), nil
		})

	v, err := c.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "value-7", v)
	assert.EqualValues(t, 1, fetches.Load())

	// Second get is served from cache.
	v, err = c.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "value-7", v)
	assert.EqualValues(t, 1, fetches.Load())
}

func TestTTRRefreshesStaleEntries(t *testing.T) {
	var fetches atomic.Int64
	c := NewTTR("test", NewMemoryStore(0), 30*time.Millisecond, intKey,
		func(_ context.Context, key int) (int, error) {
			return int(fetches.Add(1)), nil
		})

	v, err := c.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	time.Sleep(50 * time.Millisecond)

	v, err = c.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, v, "stale entry should have been re-fetched")
}

func TestTTRServesStaleOnRefreshFailure(t *testing.T) {
	var fail atomic.Bool
	c := NewTTR("test", NewMemoryStore(0), 30*time.Millisecond, intKey,
		func(_ context.Context, key int) (string, error) {
			if fail.Load() {
				return "", errors.New("upstream down")
			}
			return "good", nil
		})

	_, err := c.Get(context.Background(), 1)
	require.NoError(t, err)

	fail.Store(true)
	time.Sleep(50 * time.Millisecond)

	v, err := c.Get(context.Background(), 1)
	require.NoError(t, err, "stale value should mask the refresh failure")
	assert.Equal(t, "good", v)

	// A cold key still surfaces the error.
	_, err = c.Get(context.Background(), 2)
	require.Error(t, err)
}

func TestTTRSingleFlight(t *testing.T) {
	var fetches atomic.Int64
	release := make(chan struct{})
	c := NewTTR("test", NewMemoryStore(0), time.Minute, intKey,
		func(_ context.Context, key int) (string, error) {
			fetches.Add(1)
			<-release
			return "shared", nil
		})

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.Get(context.Background(), 1)
			assert.NoError(t, err)
			assert.Equal(t, "shared", v)
		}()
	}
	// Give the goroutines time to pile up on the in-flight call.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, fetches.Load(), "concurrent gets must share one fetch")
}

func TestTTRInvalidate(t *testing.T) {
	var fetches atomic.Int64
	c := NewTTR("test", NewMemoryStore(0), time.Minute, intKey,
		func(_ context.Context, key int) (string, error) {
			fetches.Add(1)
			return "v", nil
		})

	_, err := c.Get(context.Background(), 1)
	require.NoError(t, err)
	c.Invalidate(context.Background(), 1)
	_, err = c.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, fetches.Load())
}

func TestMemoryStoreEviction(t *testing.T) {
	s := NewMemoryStore(10 * time.Millisecond)
	s.Set(context.Background(), "a", []byte("x"), 20*time.Millisecond)
	s.Set(context.Background(), "b", []byte("y"), 0) // no eviction

	_, ok := s.Get(context.Background(), "a")
	require.True(t, ok)

	time.Sleep(40 * time.Millisecond)

	_, ok = s.Get(context.Background(), "a")
	assert.False(t, ok, "entry should have been evicted")
	_, ok = s.Get(context.Background(), "b")
	assert.True(t, ok)
}
