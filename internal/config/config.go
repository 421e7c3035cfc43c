// SPDX-License-Identifier: MIT

// Package config loads bot configuration with precedence ENV > file > defaults.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config is the fully resolved runtime configuration.
type Config struct {
	LogLevel   string
	LogService string

	Discord   DiscordConfig
	GitHub    GitHubConfig
	Server    ServerConfig
	Redis     RedisConfig
	Cache     CacheConfig
	Autoclose AutocloseConfig
	Telemetry TelemetryConfig

	// DataDir holds persistent state: the message-link store and the docs
	// sitemap snapshot.
	DataDir string

	SentryDSN string
}

// DiscordConfig holds gateway credentials and the guild topology the bot
// operates on.
type DiscordConfig struct {
	Token   string
	AppID   string
	GuildID string

	HelpChannelID     string
	ShowcaseChannelID string
	MediaChannelID    string
	LogChannelID      string
	FeedChannelID     string

	ModRoleID    string
	HelperRoleID string
}

// GitHubConfig holds API credentials and the repositories the bot resolves
// bare mentions against.
type GitHubConfig struct {
	Token         string
	WebhookSecret string

	Org string
	// Repos maps a short prefix to a repository name under Org. The "main"
	// entry is the default target for bare #123 mentions.
	Repos map[string]string
	// Aliases maps alternative prefixes onto Repos keys.
	Aliases map[string]string
}

// ServerConfig holds the ops HTTP listener settings.
type ServerConfig struct {
	ListenAddr string
	// WebhookRate limits POSTs to the GitHub webhook route, requests/minute.
	WebhookRate int
}

// RedisConfig enables an optional Redis cache backend when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// CacheConfig holds time-to-refresh intervals for the GitHub caches.
type CacheConfig struct {
	EntityTTR  time.Duration
	OwnerTTR   time.Duration
	CommentTTR time.Duration
	ContentTTR time.Duration
	XKCDTTR    time.Duration
}

// AutocloseConfig controls the solved-post scan.
type AutocloseConfig struct {
	Interval time.Duration
	// MinAge is how long a post must have been solved before it is archived.
	MinAge time.Duration
}

// TelemetryConfig mirrors the OTLP tracing settings.
type TelemetryConfig struct {
	Enabled      bool
	ExporterType string
	Endpoint     string
	SamplingRate float64
	Environment  string
}

// Defaults returns the built-in configuration baseline.
func Defaults() Config {
	return Config{
		LogLevel:   "info",
		LogService: "wispbot",
		DataDir:    "/var/lib/wispbot",
		Discord:    DiscordConfig{},
		GitHub: GitHubConfig{
			Org: "wisp-term",
			Repos: map[string]string{
				"main": "wisp",
				"web":  "website",
				"bot":  "wispbot",
			},
			Aliases: map[string]string{
				"wisp":    "main",
				"website": "web",
				"wispbot": "bot",
			},
		},
		Server: ServerConfig{
			ListenAddr:  ":8080",
			WebhookRate: 120,
		},
		Cache: CacheConfig{
			EntityTTR:  30 * time.Minute,
			OwnerTTR:   time.Hour,
			CommentTTR: 30 * time.Minute,
			ContentTTR: 30 * time.Minute,
			XKCDTTR:    12 * time.Hour,
		},
		Autoclose: AutocloseConfig{
			Interval: time.Hour,
			MinAge:   24 * time.Hour,
		},
		Telemetry: TelemetryConfig{
			ExporterType: "grpc",
			SamplingRate: 0.1,
			Environment:  "production",
		},
	}
}

// ErrMissingToken is returned when a required credential is absent.
var ErrMissingToken = errors.New("missing required token")

// Validate checks that the configuration is runnable.
func (c *Config) Validate() error {
	if c.Discord.Token == "" {
		return fmt.Errorf("%w: WISPBOT_DISCORD_TOKEN", ErrMissingToken)
	}
	if c.GitHub.Token == "" {
		return fmt.Errorf("%w: WISPBOT_GITHUB_TOKEN", ErrMissingToken)
	}
	if c.Discord.GuildID == "" {
		return errors.New("WISPBOT_GUILD_ID must be set")
	}
	if _, ok := c.GitHub.Repos["main"]; !ok {
		return errors.New(`github repos must contain a "main" entry`)
	}
	for alias, target := range c.GitHub.Aliases {
		if _, ok := c.GitHub.Repos[target]; !ok {
			return fmt.Errorf("github repo alias %q points at unknown repo key %q", alias, target)
		}
	}
	if c.Autoclose.Interval <= 0 {
		return errors.New("autoclose interval must be positive")
	}
	if c.Server.WebhookRate <= 0 {
		return errors.New("webhook rate limit must be positive")
	}
	return nil
}

// RepoFor resolves a mention prefix against Repos and Aliases. The boolean
// reports whether the prefix names an org repository.
func (g *GitHubConfig) RepoFor(prefix string) (string, bool) {
	if repo, ok := g.Repos[prefix]; ok {
		return repo, true
	}
	if key, ok := g.Aliases[prefix]; ok {
		if repo, ok := g.Repos[key]; ok {
			return repo, true
		}
	}
	return "", false
}
