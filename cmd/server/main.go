package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"gorm.io/gorm"

	"coffeeshop/internal/auth"
	"coffeeshop/internal/config"
	"coffeeshop/internal/db"
	"coffeeshop/internal/db/mock"
	"coffeeshop/internal/handlers"
	applog "coffeeshop/internal/log"
	"coffeeshop/internal/server"
)

type serverLifecycle interface {
	Start() error
	Stop() error
}

var (
	loadConfigFunc      = config.Load
	setLogLevelFunc     = applog.SetLevel
	newMockDatabaseFunc = mock.New
	configureDatabase   = db.Configure
	newVerifierFunc     = newVerifier
	newServerFunc       = func(cfg server.Config) (serverLifecycle, error) {
		return server.New(cfg)
	}
	subscribeShutdownSig = func() (<-chan os.Signal, func()) {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		return ch, func() { signal.Stop(ch) }
	}
)

func main() {
	os.Exit(run(context.Background()))
}

func run(ctx context.Context) int {
	cfg, err := loadConfigFunc()
	if err != nil {
		applog.Error(ctx, "failed to load configuration", "error", err)
		return 1
	}
	if err := setLogLevelFunc(cfg.Logging.Level); err != nil {
		applog.Error(ctx, "invalid log level", "level", cfg.Logging.Level, "error", err)
		return 1
	}

	var database *gorm.DB
	switch {
	case cfg.Database.UseMock:
		applog.Info(ctx, "using in-memory mock database")
		database, err = newMockDatabaseFunc(ctx)
	case cfg.Database.URL == "":
		applog.Warn(ctx, "no database url configured, falling back to in-memory mock database; writes will not persist")
		database, err = newMockDatabaseFunc(ctx)
	default:
		database, err = configureDatabase(cfg.Database)
	}
	if err != nil {
		applog.Error(ctx, "failed to configure database", "error", err)
		return 1
	}

	verifier, err := newVerifierFunc(cfg.Auth)
	if err != nil {
		applog.Error(ctx, "failed to configure token verification", "error", err)
		return 1
	}

	srv, err := newServerFunc(server.Config{
		Addr:            cfg.Server.Addr,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Database:        database,
		Verifier:        verifier,
		CORSOrigins:     cfg.Server.CORSOrigins,
	})
	if err != nil {
		applog.Error(ctx, "failed to build server", "error", err)
		return 1
	}

	shutdown, unsubscribe := subscribeShutdownSig()
	defer unsubscribe()

	errCh := make(chan error, 1)
	go func() {
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
	case <-ctx.Done():
		applog.Info(ctx, "shutting down http server", "reason", ctx.Err().Error())
	}

	if err := srv.Stop(); err != nil {
		applog.Error(ctx, "graceful shutdown failed", "error", err)
		return 1
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		applog.Error(ctx, "server encountered an error", "error", err)
		return 1
	}
	return 0
}

// newVerifier returns nil when no identity provider is configured so the
// server can still serve the public menu.
func newVerifier(cfg config.AuthConfig) (handlers.TokenVerifier, error) {
	if cfg.JWKSURL == "" {
		applog.Warn(context.Background(), "no identity provider configured, protected routes are disabled")
		return nil, nil
	}
	keys, err := auth.NewJWKS(cfg.JWKSURL)
	if err != nil {
		return nil, err
	}
	return auth.NewVerifier(keys,
		auth.WithAudience(cfg.Audience),
		auth.WithIssuer(cfg.Issuer),
		auth.WithAlgorithms(cfg.Algorithms...),
	), nil
}
