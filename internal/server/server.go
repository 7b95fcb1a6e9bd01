package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"gorm.io/gorm"

	"ahara/internal/ai"
	"ahara/internal/cache"
	"ahara/internal/handlers"
	applog "ahara/internal/log"
	"ahara/internal/security"
)

const (
	defaultSessionLifetime = 12 * time.Hour
	defaultCookieName      = "ahara_session"
)

// Config captures the runtime configuration for the HTTP server.
type Config struct {
	Addr     string
	Session  SessionConfig
	Database *gorm.DB

	// Optional collaborators. A nil value disables the feature that depends on it.
	Assistant *ai.Client
	Tokens    *security.Tokens
	Cache     *cache.Dashboard
}

// SessionConfig controls session behavior for the HTTP server.
type SessionConfig struct {
	Lifetime     time.Duration
	CookieName   string
	CookieDomain string
	CookieSecure bool
}

// Server wraps an http.Server and exposes helpers for bootstrapping a
// production-ready web service.
type Server struct {
	config     Config
	httpServer *http.Server
}

// New wires the handlers to cfg's collaborators and builds the HTTP server.
func New(cfg Config) (*Server, error) {
	ctx := context.Background()
	sessionManager := newSessionManager(cfg.Session)

	handlers.Configure(sessionManager, cfg.Database)
	handlers.ConfigureAI(cfg.Assistant)
	handlers.ConfigureTokens(cfg.Tokens)
	handlers.ConfigureCache(cfg.Cache)

	applog.Debug(ctx, "server configured",
		"addr", cfg.Addr,
		"sessionCookie", sessionManager.Cookie.Name,
		"database", cfg.Database != nil,
		"assistant", cfg.Assistant != nil,
		"tokens", cfg.Tokens != nil,
		"cache", cfg.Cache != nil,
	)

	return &Server{
		config: cfg,
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           sessionManager.LoadAndSave(newRouter()),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// newSessionManager builds the cookie session store, filling in defaults for the
// lifetime and cookie name.
func newSessionManager(cfg SessionConfig) *scs.SessionManager {
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = defaultSessionLifetime
	}
	if strings.TrimSpace(cfg.CookieName) == "" {
		cfg.CookieName = defaultCookieName
	}

	sm := scs.New()
	sm.Lifetime = cfg.Lifetime
	sm.Cookie.Name = cfg.CookieName
	sm.Cookie.Domain = cfg.CookieDomain
	sm.Cookie.HttpOnly = true
	sm.Cookie.Persist = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = cfg.CookieSecure
	return sm
}

// Start begins serving HTTP traffic using the underlying http.Server.
func (s *Server) Start() error {
	applog.Info(context.Background(), "server starting listener", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the HTTP server with a timeout.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	applog.Info(ctx, "server initiating graceful shutdown")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the configured HTTP handler, enabling integration tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
