// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig is the YAML configuration structure. All fields are optional;
// zero values leave the corresponding default untouched.
type FileConfig struct {
	LogLevel   string `yaml:"logLevel,omitempty"`
	LogService string `yaml:"logService,omitempty"`
	DataDir    string `yaml:"dataDir,omitempty"`
	SentryDSN  string `yaml:"sentryDSN,omitempty"`

	Discord struct {
		Token             string `yaml:"token,omitempty"`
		AppID             string `yaml:"appID,omitempty"`
		GuildID           string `yaml:"guildID,omitempty"`
		HelpChannelID     string `yaml:"helpChannelID,omitempty"`
		ShowcaseChannelID string `yaml:"showcaseChannelID,omitempty"`
		MediaChannelID    string `yaml:"mediaChannelID,omitempty"`
		LogChannelID      string `yaml:"logChannelID,omitempty"`
		FeedChannelID     string `yaml:"feedChannelID,omitempty"`
		ModRoleID         string `yaml:"modRoleID,omitempty"`
		HelperRoleID      string `yaml:"helperRoleID,omitempty"`
	} `yaml:"discord,omitempty"`

	GitHub struct {
		Token         string            `yaml:"token,omitempty"`
		WebhookSecret string            `yaml:"webhookSecret,omitempty"`
		Org           string            `yaml:"org,omitempty"`
		Repos         map[string]string `yaml:"repos,omitempty"`
		Aliases       map[string]string `yaml:"aliases,omitempty"`
	} `yaml:"github,omitempty"`

	Server struct {
		ListenAddr  string `yaml:"listenAddr,omitempty"`
		WebhookRate int    `yaml:"webhookRate,omitempty"`
	} `yaml:"server,omitempty"`

	Redis struct {
		Addr     string `yaml:"addr,omitempty"`
		Password string `yaml:"password,omitempty"`
		DB       int    `yaml:"db,omitempty"`
	} `yaml:"redis,omitempty"`

	Cache struct {
		EntityTTR  string `yaml:"entityTTR,omitempty"`
		OwnerTTR   string `yaml:"ownerTTR,omitempty"`
		CommentTTR string `yaml:"commentTTR,omitempty"`
		ContentTTR string `yaml:"contentTTR,omitempty"`
		XKCDTTR    string `yaml:"xkcdTTR,omitempty"`
	} `yaml:"cache,omitempty"`

	Autoclose struct {
		Interval string `yaml:"interval,omitempty"`
		MinAge   string `yaml:"minAge,omitempty"`
	} `yaml:"autoclose,omitempty"`

	Telemetry struct {
		Enabled      *bool   `yaml:"enabled,omitempty"`
		ExporterType string  `yaml:"exporter,omitempty"`
		Endpoint     string  `yaml:"endpoint,omitempty"`
		SamplingRate float64 `yaml:"sampling,omitempty"`
		Environment  string  `yaml:"environment,omitempty"`
	} `yaml:"telemetry,omitempty"`
}

// readFile parses the YAML config file at path.
func readFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return &fc, nil
}

// applyFile overlays the file's settings onto cfg.
func applyFile(cfg *Config, fc *FileConfig) error {
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.LogService, fc.LogService)
	setString(&cfg.DataDir, fc.DataDir)
	setString(&cfg.SentryDSN, fc.SentryDSN)

	setString(&cfg.Discord.Token, fc.Discord.Token)
	setString(&cfg.Discord.AppID, fc.Discord.AppID)
	setString(&cfg.Discord.GuildID, fc.Discord.GuildID)
	setString(&cfg.Discord.HelpChannelID, fc.Discord.HelpChannelID)
	setString(&cfg.Discord.ShowcaseChannelID, fc.Discord.ShowcaseChannelID)
	setString(&cfg.Discord.MediaChannelID, fc.Discord.MediaChannelID)
	setString(&cfg.Discord.LogChannelID, fc.Discord.LogChannelID)
	setString(&cfg.Discord.FeedChannelID, fc.Discord.FeedChannelID)
	setString(&cfg.Discord.ModRoleID, fc.Discord.ModRoleID)
	setString(&cfg.Discord.HelperRoleID, fc.Discord.HelperRoleID)

	setString(&cfg.GitHub.Token, fc.GitHub.Token)
	setString(&cfg.GitHub.WebhookSecret, fc.GitHub.WebhookSecret)
	setString(&cfg.GitHub.Org, fc.GitHub.Org)
	if len(fc.GitHub.Repos) > 0 {
		cfg.GitHub.Repos = fc.GitHub.Repos
	}
	if len(fc.GitHub.Aliases) > 0 {
		cfg.GitHub.Aliases = fc.GitHub.Aliases
	}

	setString(&cfg.Server.ListenAddr, fc.Server.ListenAddr)
	if fc.Server.WebhookRate != 0 {
		cfg.Server.WebhookRate = fc.Server.WebhookRate
	}

	setString(&cfg.Redis.Addr, fc.Redis.Addr)
	setString(&cfg.Redis.Password, fc.Redis.Password)
	if fc.Redis.DB != 0 {
		cfg.Redis.DB = fc.Redis.DB
	}

	for name, pair := range map[string]struct {
		raw string
		dst *time.Duration
	}{
		"cache.entityTTR":    {fc.Cache.EntityTTR, &cfg.Cache.EntityTTR},
		"cache.ownerTTR":     {fc.Cache.OwnerTTR, &cfg.Cache.OwnerTTR},
		"cache.commentTTR":   {fc.Cache.CommentTTR, &cfg.Cache.CommentTTR},
		"cache.contentTTR":   {fc.Cache.ContentTTR, &cfg.Cache.ContentTTR},
		"cache.xkcdTTR":      {fc.Cache.XKCDTTR, &cfg.Cache.XKCDTTR},
		"autoclose.interval": {fc.Autoclose.Interval, &cfg.Autoclose.Interval},
		"autoclose.minAge":   {fc.Autoclose.MinAge, &cfg.Autoclose.MinAge},
	} {
		if pair.raw == "" {
			continue
		}
		d, err := time.ParseDuration(pair.raw)
		if err != nil {
			return fmt.Errorf("invalid duration for %s: %w", name, err)
		}
		*pair.dst = d
	}

	if fc.Telemetry.Enabled != nil {
		cfg.Telemetry.Enabled = *fc.Telemetry.Enabled
	}
	setString(&cfg.Telemetry.ExporterType, fc.Telemetry.ExporterType)
	setString(&cfg.Telemetry.Endpoint, fc.Telemetry.Endpoint)
	if fc.Telemetry.SamplingRate != 0 {
		cfg.Telemetry.SamplingRate = fc.Telemetry.SamplingRate
	}
	setString(&cfg.Telemetry.Environment, fc.Telemetry.Environment)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
