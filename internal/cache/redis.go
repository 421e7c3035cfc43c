// SPDX-License-Identifier: MIT

package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// redisStore is a Redis-backed Store.
type redisStore struct {
	client *redis.Client
	logger zerolog.Logger
	prefix string
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string // Redis server address (host:port)
	Password string // Redis password (optional)
	DB       int    // Redis database number
}

// NewRedisStore creates a Redis-backed store and verifies the connection.
func NewRedisStore(cfg RedisConfig, logger zerolog.Logger) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info().Str("addr", cfg.Addr).Int("db", cfg.DB).Msg("redis cache backend connected")
	return &redisStore{client: client, logger: logger, prefix: "wispbot:cache:"}, nil
}

// Client exposes the underlying connection, mainly for health checks.
func (s *redisStore) Client() *redis.Client {
	return s.client
}

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Str("key", key).Msg("redis get failed")
		}
		return nil, false
	}
	return raw, true
}

func (s *redisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := s.client.Set(ctx, s.prefix+key, value, ttl).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("redis set failed")
	}
}

func (s *redisStore) Delete(ctx context.Context, key string) {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("redis delete failed")
	}
}
