// SPDX-License-Identifier: MIT

// Package cache provides a time-to-refresh cache for expensive lookups.
//
// Unlike a TTL cache, entries never disappear when they age out: a stale
// entry is re-fetched on access, and the previous value is served if the
// refresh fails. Backends store opaque envelopes; the typed layer lives in
// TTR.
package cache

import (
	"context"
	"sync"
	"time"
)

// Store is a byte-oriented backend for TTR caches.
type Store interface {
	// Get returns the stored envelope for key, if any.
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set stores an envelope under key. A non-zero ttl bounds how long the
	// backend keeps the entry at all (eviction, not freshness).
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	// Delete removes a key.
	Delete(ctx context.Context, key string)
}

// entry is a stored value with its eviction deadline.
type entry struct {
	value    []byte
	evictAt  time.Time
	hasEvict bool
}

// memoryStore is the in-process Store implementation.
type memoryStore struct {
	mu      sync.RWMutex
	entries map[string]*entry
	janitor *janitor
}

// NewMemoryStore creates an in-memory store. A positive cleanupInterval
// starts a background janitor that drops evicted entries.
func NewMemoryStore(cleanupInterval time.Duration) Store {
	s := &memoryStore{entries: make(map[string]*entry)}
	if cleanupInterval > 0 {
		s.janitor = &janitor{
			interval: cleanupInterval,
			stop:     make(chan struct{}),
		}
		go s.janitor.run(s)
	}
	return s
}

func (s *memoryStore) Get(_ context.Context, key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, found := s.entries[key]
	if !found {
		return nil, false
	}
	if e.hasEvict && time.Now().After(e.evictAt) {
		return nil, false
	}
	return e.value, true
}

func (s *memoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	e := &entry{value: value}
	if ttl > 0 {
		e.evictAt = time.Now().Add(ttl)
		e.hasEvict = true
	}
	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
}

func (s *memoryStore) Delete(_ context.Context, key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// cleanup removes evicted entries.
func (s *memoryStore) cleanup() {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, e := range s.entries {
		if e.hasEvict && now.After(e.evictAt) {
			delete(s.entries, key)
		}
	}
}

type janitor struct {
	interval time.Duration
	stop     chan struct{}
}

func (j *janitor) run(s *memoryStore) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-j.stop:
			return
		}
	}
}
