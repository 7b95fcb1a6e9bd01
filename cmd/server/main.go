package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/gorm"

	"ahara/internal/ai"
	"ahara/internal/cache"
	"ahara/internal/config"
	appdb "ahara/internal/db"
	"ahara/internal/db/mock"
	applog "ahara/internal/log"
	"ahara/internal/security"
	"ahara/internal/server"
)

const defaultTokenTTL = 15 * time.Minute

type serverLifecycle interface {
	Start() error
	Stop() error
}

var (
	loadConfigFunc      = config.Load
	setLogLevelFunc     = applog.SetLevel
	newMockDatabaseFunc = mock.New
	configureDatabase   = appdb.Configure
	connectCacheFunc    = cache.Connect
	newServerFunc       = func(cfg server.Config) (serverLifecycle, error) {
		return server.New(cfg)
	}
	subscribeShutdownSig = func() (<-chan os.Signal, func()) {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
		return ch, func() { signal.Stop(ch) }
	}
)

func main() {
	os.Exit(run(context.Background()))
}

func run(ctx context.Context) int {
	if err := config.LoadDotEnv(); err != nil {
		applog.Error(ctx, "failed to load .env file", "error", err)
		return 1
	}

	cfg, err := loadConfigFunc()
	if err != nil {
		applog.Error(ctx, "failed to load configuration", "error", err)
		return 1
	}
	if err := setLogLevelFunc(cfg.Logging.Level); err != nil {
		applog.Error(ctx, "invalid log level", "level", cfg.Logging.Level, "error", err)
		return 1
	}
	applog.Debug(ctx, "configuration loaded", "addr", cfg.Server.Addr, "mockDatabase", cfg.Database.UseMock)

	database, err := setupDatabase(ctx, cfg.Database)
	if err != nil {
		applog.Error(ctx, "failed to configure database", "error", err)
		return 1
	}

	assistant := setupAssistant(ctx, cfg.AI)
	tokens, err := setupTokens(cfg.Auth)
	if err != nil {
		applog.Error(ctx, "failed to configure bearer tokens", "error", err)
		return 1
	}
	dashboardCache, closeCache := setupCache(ctx, cfg.Cache)
	defer closeCache()

	srv, err := newServerFunc(server.Config{
		Addr: cfg.Server.Addr,
		Session: server.SessionConfig{
			Lifetime:     cfg.Auth.Session.Lifetime,
			CookieName:   cfg.Auth.Session.CookieName,
			CookieDomain: cfg.Auth.Session.CookieDomain,
			CookieSecure: cfg.Auth.Session.CookieSecure,
		},
		Database:  database,
		Assistant: assistant,
		Tokens:    tokens,
		Cache:     dashboardCache,
	})
	if err != nil {
		applog.Error(ctx, "failed to build server", "error", err)
		return 1
	}

	shutdown, unsubscribe := subscribeShutdownSig()
	defer unsubscribe()

	errCh := make(chan error, 1)
	go func() {
		applog.Info(ctx, "starting http server", "addr", cfg.Server.Addr)
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Error(ctx, "server encountered an error", "error", err)
			return 1
		}
		return 0
	case sig := <-shutdown:
		applog.Info(ctx, "shutting down http server", "signal", sig.String())
	}

	if err := srv.Stop(); err != nil {
		applog.Error(ctx, "graceful shutdown failed", "error", err)
		return 1
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		applog.Error(ctx, "server stopped with an error", "error", err)
		return 1
	}
	return 0
}

func setupDatabase(ctx context.Context, cfg config.DatabaseConfig) (*gorm.DB, error) {
	switch {
	case cfg.UseMock:
		applog.Info(ctx, "using in-memory mock database")
		return newMockDatabaseFunc(ctx)
	case cfg.URL == "":
		applog.Warn(ctx, "no database configured, data routes will be unavailable")
		return nil, nil
	default:
		return configureDatabase(cfg)
	}
}

func setupAssistant(ctx context.Context, cfg config.AIConfig) *ai.Client {
	if cfg.APIKey == "" {
		applog.Info(ctx, "AI_API_KEY not set, assistant and food import disabled")
		return nil
	}
	client, err := ai.NewClient(ai.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		applog.Error(ctx, "failed to configure AI client", "error", err)
		return nil
	}
	applog.Debug(ctx, "AI client configured", "model", client.Model())
	return client
}

func setupTokens(cfg config.AuthConfig) (*security.Tokens, error) {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return security.NewTokens(cfg.TokenSecret, ttl)
}

// setupCache connects to Redis when configured. Failures leave the dashboard uncached.
func setupCache(ctx context.Context, cfg config.CacheConfig) (*cache.Dashboard, func()) {
	if cfg.RedisURL == "" {
		return nil, func() {}
	}
	client, err := connectCacheFunc(ctx, cfg.RedisURL)
	if err != nil {
		applog.Warn(ctx, "redis unavailable, dashboard caching disabled", "error", err)
		return nil, func() {}
	}
	applog.Debug(ctx, "dashboard cache connected", "ttl", cfg.TTL)
	return cache.NewDashboard(cache.NewRedisKV(client), cfg.TTL), func() { _ = client.Close() }
}
