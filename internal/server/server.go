package server

import (
	"context"
	"net/http"
	"time"

	"gorm.io/gorm"

	"coffeeshop/internal/db"
	"coffeeshop/internal/handlers"
	applog "coffeeshop/internal/log"
)

const defaultShutdownTimeout = 5 * time.Second

// Config captures the runtime configuration for the HTTP server.
type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	Database        *gorm.DB
	// Verifier checks bearer tokens on the protected routes. Leave nil to
	// answer those routes with 503.
	Verifier    handlers.TokenVerifier
	CORSOrigins []string
}

// Server wraps an http.Server serving the drinks API.
type Server struct {
	config     Config
	httpServer *http.Server
}

// New builds a new Server using the provided configuration.
func New(cfg Config) (*Server, error) {
	applog.Debug(context.Background(), "initializing server",
		"addr", cfg.Addr,
		"shutdownTimeout", cfg.ShutdownTimeout.String(),
		"corsOrigins", cfg.CORSOrigins,
	)

	if cfg.ShutdownTimeout <= 0 {
		applog.Debug(context.Background(), "shutdown timeout not provided, using default")
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if cfg.Database == nil {
		applog.Warn(context.Background(), "no database configured, drink routes will report unavailable")
	}
	if cfg.Verifier == nil {
		applog.Warn(context.Background(), "no token verifier configured, protected routes will report unavailable")
	}

	api := handlers.NewAPI(db.NewDrinkRepository(cfg.Database), cfg.Verifier)
	handler := withMiddleware(newRouter(api), cfg.CORSOrigins)

	applog.Debug(context.Background(), "http handler chain prepared")

	return &Server{
		config: cfg,
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// Start begins serving HTTP traffic using the underlying http.Server.
func (s *Server) Start() error {
	applog.Info(context.Background(), "server starting listener", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the HTTP server, waiting at most the configured
// shutdown timeout for in-flight requests.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	applog.Debug(ctx, "server initiating graceful shutdown")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the configured HTTP handler, enabling integration tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
