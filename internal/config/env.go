// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wisp-term/wispbot/internal/log"
)

// ParseString reads a string from an environment variable or returns the
// default value. It logs the source (environment or default) for observability.
func ParseString(key, defaultValue string) string {
	return parseStringWithLogger(log.WithComponent("config"), key, defaultValue)
}

func parseStringWithLogger(logger zerolog.Logger, key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		lowerKey := strings.ToLower(key)
		switch {
		case strings.Contains(lowerKey, "token") || strings.Contains(lowerKey, "secret") || strings.Contains(lowerKey, "password") || strings.Contains(lowerKey, "dsn"):
			// For sensitive vars, just log that it was set
			logger.Debug().
				Str("key", key).
				Str("source", "environment").
				Bool("sensitive", true).
				Msg("using environment variable")
		case value == "":
			logger.Debug().
				Str("key", key).
				Str("default", defaultValue).
				Str("source", "default").
				Msg("using default value (environment variable is empty)")
			return defaultValue
		default:
			logger.Debug().
				Str("key", key).
				Str("value", value).
				Str("source", "environment").
				Msg("using environment variable")
		}
		return value
	}
	logger.Debug().
		Str("key", key).
		Str("default", defaultValue).
		Str("source", "default").
		Msg("using default value")
	return defaultValue
}

// ParseInt reads an integer from an environment variable or returns the
// default value. It falls back to the default on parse errors.
func ParseInt(key string, defaultValue int) int {
	logger := log.WithComponent("config")
	if v, ok := os.LookupEnv(key); ok {
		if v == "" {
			return defaultValue
		}
		if i, err := strconv.Atoi(v); err == nil {
			logger.Debug().
				Str("key", key).
				Int("value", i).
				Str("source", "environment").
				Msg("using environment variable")
			return i
		}
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Int("default", defaultValue).
			Msg("invalid integer in environment variable, using default")
	}
	return defaultValue
}

// ParseBool reads a boolean ("true"/"false"/"1"/"0") from an environment
// variable or returns the default value.
func ParseBool(key string, defaultValue bool) bool {
	logger := log.WithComponent("config")
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Bool("default", defaultValue).
			Msg("invalid boolean in environment variable, using default")
	}
	return defaultValue
}

// ParseFloat reads a float from an environment variable or returns the
// default value.
func ParseFloat(key string, defaultValue float64) float64 {
	logger := log.WithComponent("config")
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Float64("default", defaultValue).
			Msg("invalid float in environment variable, using default")
	}
	return defaultValue
}

// ParseDuration reads a duration in Go duration format (e.g. "30m") from an
// environment variable or returns the default value.
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	logger := log.WithComponent("config")
	if v, ok := os.LookupEnv(key); ok {
		if v == "" {
			return defaultValue
		}
		if d, err := time.ParseDuration(v); err == nil {
			logger.Debug().
				Str("key", key).
				Dur("value", d).
				Str("source", "environment").
				Msg("using environment variable")
			return d
		}
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Dur("default", defaultValue).
			Msg("invalid duration in environment variable, using default")
	}
	return defaultValue
}

// applyEnv overlays WISPBOT_* environment variables onto cfg.
func applyEnv(cfg *Config) {
	cfg.LogLevel = ParseString("WISPBOT_LOG_LEVEL", cfg.LogLevel)
	cfg.LogService = ParseString("WISPBOT_LOG_SERVICE", cfg.LogService)
	cfg.DataDir = ParseString("WISPBOT_DATA_DIR", cfg.DataDir)
	cfg.SentryDSN = ParseString("WISPBOT_SENTRY_DSN", cfg.SentryDSN)

	d := &cfg.Discord
	d.Token = ParseString("WISPBOT_DISCORD_TOKEN", d.Token)
	d.AppID = ParseString("WISPBOT_APP_ID", d.AppID)
	d.GuildID = ParseString("WISPBOT_GUILD_ID", d.GuildID)
	d.HelpChannelID = ParseString("WISPBOT_HELP_CHANNEL_ID", d.HelpChannelID)
	d.ShowcaseChannelID = ParseString("WISPBOT_SHOWCASE_CHANNEL_ID", d.ShowcaseChannelID)
	d.MediaChannelID = ParseString("WISPBOT_MEDIA_CHANNEL_ID", d.MediaChannelID)
	d.LogChannelID = ParseString("WISPBOT_LOG_CHANNEL_ID", d.LogChannelID)
	d.FeedChannelID = ParseString("WISPBOT_FEED_CHANNEL_ID", d.FeedChannelID)
	d.ModRoleID = ParseString("WISPBOT_MOD_ROLE_ID", d.ModRoleID)
	d.HelperRoleID = ParseString("WISPBOT_HELPER_ROLE_ID", d.HelperRoleID)

	g := &cfg.GitHub
	g.Token = ParseString("WISPBOT_GITHUB_TOKEN", g.Token)
	g.WebhookSecret = ParseString("WISPBOT_GITHUB_WEBHOOK_SECRET", g.WebhookSecret)
	g.Org = ParseString("WISPBOT_GITHUB_ORG", g.Org)

	s := &cfg.Server
	s.ListenAddr = ParseString("WISPBOT_LISTEN_ADDR", s.ListenAddr)
	s.WebhookRate = ParseInt("WISPBOT_WEBHOOK_RATE", s.WebhookRate)

	r := &cfg.Redis
	r.Addr = ParseString("WISPBOT_REDIS_ADDR", r.Addr)
	r.Password = ParseString("WISPBOT_REDIS_PASSWORD", r.Password)
	r.DB = ParseInt("WISPBOT_REDIS_DB", r.DB)

	c := &cfg.Cache
	c.EntityTTR = ParseDuration("WISPBOT_ENTITY_TTR", c.EntityTTR)
	c.OwnerTTR = ParseDuration("WISPBOT_OWNER_TTR", c.OwnerTTR)
	c.CommentTTR = ParseDuration("WISPBOT_COMMENT_TTR", c.CommentTTR)
	c.ContentTTR = ParseDuration("WISPBOT_CONTENT_TTR", c.ContentTTR)
	c.XKCDTTR = ParseDuration("WISPBOT_XKCD_TTR", c.XKCDTTR)

	a := &cfg.Autoclose
	a.Interval = ParseDuration("WISPBOT_AUTOCLOSE_INTERVAL", a.Interval)
	a.MinAge = ParseDuration("WISPBOT_AUTOCLOSE_MIN_AGE", a.MinAge)

	t := &cfg.Telemetry
	t.Enabled = ParseBool("WISPBOT_OTEL_ENABLED", t.Enabled)
	t.ExporterType = ParseString("WISPBOT_OTEL_EXPORTER", t.ExporterType)
	t.Endpoint = ParseString("WISPBOT_OTEL_ENDPOINT", t.Endpoint)
	t.SamplingRate = ParseFloat("WISPBOT_OTEL_SAMPLING", t.SamplingRate)
	t.Environment = ParseString("WISPBOT_OTEL_ENVIRONMENT", t.Environment)
}
