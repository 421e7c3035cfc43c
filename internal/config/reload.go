// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/wisp-term/wispbot/internal/log"
)

// Manager watches the config file and swaps an atomic snapshot when it
// changes. Credentials and topology are fixed at startup; only the fields
// that are safe to change live (log level, cache TTRs, autoclose timings)
// are taken from reloaded snapshots.
type Manager struct {
	loader *Loader

	mu       sync.RWMutex
	current  *Config
	onReload []func(*Config)
}

// NewManager wraps an already-loaded configuration.
func NewManager(loader *Loader, initial *Config) *Manager {
	return &Manager{loader: loader, current: initial}
}

// Current returns the active configuration snapshot.
func (m *Manager) Current() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// OnReload registers a callback invoked with each new snapshot.
func (m *Manager) OnReload(fn func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onReload = append(m.onReload, fn)
}

// Watch blocks until ctx is done, reloading the config file on writes.
// It is a no-op when no config file path was given.
func (m *Manager) Watch(ctx context.Context) error {
	if m.loader == nil || m.loader.path == "" {
		<-ctx.Done()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(m.loader.path); err != nil {
		return err
	}

	logger := log.WithComponent("config")
	logger.Info().Str("path", m.loader.path).Msg("watching config file")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			m.reload(logger)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("config watcher error")
		}
	}
}

func (m *Manager) reload(logger zerolog.Logger) {
	cfg, err := m.loader.Load()
	if err != nil {
		logger.Warn().Err(err).Msg("config reload failed, keeping previous snapshot")
		return
	}

	m.mu.Lock()
	m.current = cfg
	callbacks := make([]func(*Config), len(m.onReload))
	copy(callbacks, m.onReload)
	m.mu.Unlock()

	if log.SetLevel(cfg.LogLevel) {
		logger.Info().Str("level", cfg.LogLevel).Msg("log level updated")
	}
	for _, fn := range callbacks {
		fn(cfg)
	}
	logger.Info().Msg("configuration reloaded")
}
