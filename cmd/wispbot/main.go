// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/wisp-term/wispbot/internal/api"
	"github.com/wisp-term/wispbot/internal/bot"
	"github.com/wisp-term/wispbot/internal/cache"
	"github.com/wisp-term/wispbot/internal/config"
	"github.com/wisp-term/wispbot/internal/ghclient"
	"github.com/wisp-term/wispbot/internal/health"
	"github.com/wisp-term/wispbot/internal/log"
	"github.com/wisp-term/wispbot/internal/telemetry"
	"github.com/wisp-term/wispbot/internal/version"
	"github.com/wisp-term/wispbot/internal/webhookfeed"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version.Version, version.Commit, version.BuildDate)
		os.Exit(0)
	}

	// Safe defaults until the config is loaded.
	log.Configure(log.Config{
		Level:   "info",
		Service: "wispbot",
		Version: version.Version,
	})
	logger := log.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --config wins; otherwise pick up ${WISPBOT_DATA_DIR}/config.yaml when
	// it exists.
	effectivePath := strings.TrimSpace(*configPath)
	if effectivePath == "" {
		dataDir := strings.TrimSpace(os.Getenv("WISPBOT_DATA_DIR"))
		if dataDir == "" {
			dataDir = config.Defaults().DataDir
		}
		autoPath := filepath.Join(dataDir, "config.yaml")
		if _, err := os.Stat(autoPath); err == nil {
			effectivePath = autoPath
		}
	}

	loader := config.NewLoader(effectivePath)
	cfg, err := loader.Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(log.FieldEvent, "config.load_failed").
			Str("config_path", effectivePath).
			Msg("failed to load configuration")
	}

	log.Configure(log.Config{
		Level:   cfg.LogLevel,
		Service: cfg.LogService,
		Version: version.Version,
	})
	logger.Info().
		Str(log.FieldEvent, "startup").
		Str("version", version.Version).
		Str("commit", version.Commit).
		Str("addr", cfg.Server.ListenAddr).
		Str("data_dir", cfg.DataDir).
		Msg("starting wispbot")

	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Release:     version.Version,
			Environment: cfg.Telemetry.Environment,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("initializing sentry failed")
		}
		defer sentry.Flush(5 * time.Second)
	}

	tracing, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.LogService,
		ServiceVersion: version.Version,
		Environment:    cfg.Telemetry.Environment,
		ExporterType:   cfg.Telemetry.ExporterType,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initializing tracing failed")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("tracer shutdown failed")
		}
	}()

	// Cache backend: Redis when configured, in-process otherwise.
	var store cache.Store
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		store, err = cache.NewRedisStore(cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, log.WithComponent("cache"))
		if err != nil {
			logger.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("connecting to redis failed")
		}
		if c, ok := store.(interface{ Client() *redis.Client }); ok {
			redisClient = c.Client()
		}
	} else {
		store = cache.NewMemoryStore(5 * time.Minute)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Fatal().Err(err).Str("data_dir", cfg.DataDir).Msg("creating data dir failed")
	}
	badgerOpts := badger.DefaultOptions(filepath.Join(cfg.DataDir, "links")).WithLogger(nil)
	db, err := badger.Open(badgerOpts)
	if err != nil {
		logger.Fatal().Err(err).Msg("opening link store failed")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn().Err(err).Msg("closing link store failed")
		}
	}()

	gh := ghclient.New(cfg.GitHub, cfg.Cache, store)
	if login, err := gh.CheckAuth(ctx); err != nil {
		logger.Warn().Err(err).Msg("github auth check failed, continuing with cached data")
	} else {
		logger.Info().Str("login", login).Msg("authenticated with github")
	}

	b, err := bot.New(cfg, gh, db, store)
	if err != nil {
		logger.Fatal().Err(err).Msg("assembling bot failed")
	}

	manager := health.NewManager(version.Version)
	manager.RegisterChecker(health.NewDiscordChecker(b.Session()))
	manager.RegisterChecker(health.NewGitHubChecker(gh.Ping))
	manager.RegisterChecker(health.NewRedisChecker(redisClient))

	var webhook http.Handler
	if cfg.GitHub.WebhookSecret != "" && cfg.Discord.FeedChannelID != "" {
		webhook = webhookfeed.New(cfg.GitHub.WebhookSecret, cfg.Discord.FeedChannelID, b.Session())
	}
	server := api.New(cfg.Server, manager, webhook)

	// Hot reload: log level and other live-safe fields follow the file.
	cfgManager := config.NewManager(loader, cfg)

	if err := b.Start(); err != nil {
		logger.Fatal().Err(err).Msg("starting bot failed")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return b.Run(ctx) })
	g.Go(func() error { return server.Run(ctx) })
	if effectivePath != "" {
		g.Go(func() error { return cfgManager.Watch(ctx) })
	}

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		sentry.CaptureException(err)
		logger.Error().Err(err).Msg("wispbot exited with error")
		os.Exit(1)
	}
	logger.Info().Str(log.FieldEvent, "shutdown").Msg("wispbot stopped")
}
