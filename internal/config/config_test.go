// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("WISPBOT_DISCORD_TOKEN", "discord-token")
	t.Setenv("WISPBOT_GITHUB_TOKEN", "ghp_token")
	t.Setenv("WISPBOT_GUILD_ID", "100200300")
}

func TestLoadDefaultsWithEnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("WISPBOT_ENTITY_TTR", "10m")
	t.Setenv("WISPBOT_WEBHOOK_RATE", "60")

	cfg, err := NewLoader("").Load()
	require.NoError(t, err)

	assert.Equal(t, "discord-token", cfg.Discord.Token)
	assert.Equal(t, "100200300", cfg.Discord.GuildID)
	assert.Equal(t, 10*time.Minute, cfg.Cache.EntityTTR)
	assert.Equal(t, 60, cfg.Server.WebhookRate)
	// Untouched defaults survive.
	assert.Equal(t, time.Hour, cfg.Cache.OwnerTTR)
	assert.Equal(t, "wisp", cfg.GitHub.Repos["main"])
}

func TestLoadMissingTokenFails(t *testing.T) {
	t.Setenv("WISPBOT_DISCORD_TOKEN", "")
	t.Setenv("WISPBOT_GITHUB_TOKEN", "ghp_token")
	t.Setenv("WISPBOT_GUILD_ID", "1")

	_, err := NewLoader("").Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestFilePrecedenceBelowEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("WISPBOT_LISTEN_ADDR", ":9999")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
logLevel: debug
server:
  listenAddr: ":7070"
autoclose:
  interval: 30m
`), 0o600))

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)

	// ENV wins over file.
	assert.Equal(t, ":9999", cfg.Server.ListenAddr)
	// File wins over defaults.
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 30*time.Minute, cfg.Autoclose.Interval)
}

func TestFileInvalidDuration(t *testing.T) {
	setRequiredEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("autoclose:\n  interval: soon\n"), 0o600))

	_, err := NewLoader(path).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "autoclose.interval")
}

func TestValidateAliasTargets(t *testing.T) {
	cfg := Defaults()
	cfg.Discord.Token = "x"
	cfg.GitHub.Token = "y"
	cfg.Discord.GuildID = "1"
	cfg.GitHub.Aliases["phantom"] = "nosuch"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "phantom")
}

func TestRepoFor(t *testing.T) {
	g := Defaults().GitHub

	repo, ok := g.RepoFor("main")
	require.True(t, ok)
	assert.Equal(t, "wisp", repo)

	repo, ok = g.RepoFor("website")
	require.True(t, ok)
	assert.Equal(t, "website", repo)

	_, ok = g.RepoFor("unknown")
	assert.False(t, ok)
}
