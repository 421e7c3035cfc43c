// SPDX-License-Identifier: MIT

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/wisp-term/wispbot/internal/log"
	"github.com/wisp-term/wispbot/internal/metrics"
)

// evictFactor bounds how long a backend keeps an entry relative to its
// refresh interval. Stale entries within this window are still served when a
// refresh fails.
const evictFactor = 8

// FetchFunc loads the value for a key from the source of truth.
type FetchFunc[K comparable, V any] func(ctx context.Context, key K) (V, error)

// envelope is what backends actually store.
type envelope struct {
	At    time.Time       `json:"at"`
	Value json.RawMessage `json:"v"`
}

// TTR is a typed time-to-refresh cache over a Store.
type TTR[K comparable, V any] struct {
	name  string
	ttr   time.Duration
	keyFn func(K) string
	fetch FetchFunc[K, V]
	store Store

	mu       sync.Mutex
	inflight map[string]*call[V]
}

type call[V any] struct {
	done  chan struct{}
	value V
	err   error
}

// NewTTR creates a cache. keyFn maps typed keys onto backend keys; it must be
// injective.
func NewTTR[K comparable, V any](name string, store Store, ttr time.Duration, keyFn func(K) string, fetch FetchFunc[K, V]) *TTR[K, V] {
	return &TTR[K, V]{
		name:     name,
		ttr:      ttr,
		keyFn:    keyFn,
		fetch:    fetch,
		store:    store,
		inflight: make(map[string]*call[V]),
	}
}

// Get returns the cached value for key, fetching or refreshing as needed.
// Concurrent gets for the same key share a single fetch.
func (c *TTR[K, V]) Get(ctx context.Context, key K) (V, error) {
	var zero V
	sk := c.keyFn(key)

	raw, found := c.store.Get(ctx, sk)
	if found {
		var env envelope
		if err := json.Unmarshal(raw, &env); err == nil {
			var value V
			if err := json.Unmarshal(env.Value, &value); err == nil {
				if time.Since(env.At) < c.ttr {
					metrics.CacheOps.WithLabelValues(c.name, "hit").Inc()
					return value, nil
				}
				// Stale: refresh, falling back to the old value on failure.
				fresh, err := c.refresh(ctx, key, sk)
				if err != nil {
					metrics.CacheOps.WithLabelValues(c.name, "stale_served").Inc()
					logger := log.WithComponentFromContext(ctx, "cache")
					logger.Debug().
						Str("cache", c.name).
						Str(log.FieldCacheKey, sk).
						Err(err).
						Msg("refresh failed, serving stale value")
					return value, nil
				}
				return fresh, nil
			}
		}
		// Corrupt envelope; drop and re-fetch.
		c.store.Delete(ctx, sk)
	}

	metrics.CacheOps.WithLabelValues(c.name, "miss").Inc()
	value, err := c.refresh(ctx, key, sk)
	if err != nil {
		return zero, err
	}
	return value, nil
}

// Invalidate drops the entry for key.
func (c *TTR[K, V]) Invalidate(ctx context.Context, key K) {
	c.store.Delete(ctx, c.keyFn(key))
}

// refresh fetches the value, de-duplicating concurrent calls per key.
func (c *TTR[K, V]) refresh(ctx context.Context, key K, sk string) (V, error) {
	c.mu.Lock()
	if cl, ok := c.inflight[sk]; ok {
		c.mu.Unlock()
		select {
		case <-cl.done:
			return cl.value, cl.err
		case <-ctx.Done():
			var zero V
			return zero, ctx.Err()
		}
	}
	cl := &call[V]{done: make(chan struct{})}
	c.inflight[sk] = cl
	c.mu.Unlock()

	metrics.CacheOps.WithLabelValues(c.name, "refresh").Inc()
	cl.value, cl.err = c.fetch(ctx, key)
	if cl.err == nil {
		if err := c.put(ctx, sk, cl.value); err != nil {
			cl.err = err
		}
	}
	close(cl.done)

	c.mu.Lock()
	delete(c.inflight, sk)
	c.mu.Unlock()

	return cl.value, cl.err
}

func (c *TTR[K, V]) put(ctx context.Context, sk string, value V) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache %s: encode value: %w", c.name, err)
	}
	env, err := json.Marshal(envelope{At: time.Now(), Value: raw})
	if err != nil {
		return fmt.Errorf("cache %s: encode envelope: %w", c.name, err)
	}
	c.store.Set(ctx, sk, env, evictFactor*c.ttr)
	return nil
}
