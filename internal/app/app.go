// Package app wires the finboard server runtime: config, logging, storage,
// HTTP routes, and the realtime gateway.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"finboard/internal/auth"
	authapi "finboard/internal/auth/api"
	"finboard/internal/identity"
	"finboard/internal/profit"
	"finboard/internal/realtime"
	"finboard/internal/security/token"
)

// App is the server runtime. It owns the DB pool and the HTTP wiring.
type App struct {
	cfg Config
	log Logger

	pool *pgxpool.Pool

	auth    *authapi.Handler
	gateway *realtime.Gateway
	profits *profit.Handler
}

// New constructs a fully wired App from config.
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel)
	}

	if cfg.TokenSecret == "" {
		return nil, errors.New("app: FINBOARD_TOKEN_SECRET is required")
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("app: FINBOARD_DATABASE_URL is required")
	}

	if err := RunMigrations(ctx, cfg.DatabaseURL); err != nil {
		return nil, err
	}

	pool, err := NewDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	codec, err := token.NewCodec(token.Config{
		Secret:     []byte(cfg.TokenSecret),
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
	})
	if err != nil {
		pool.Close()
		return nil, err
	}

	users, err := identity.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	refresh, err := auth.NewPostgresRefreshTokenStore(pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	profitStore, err := profit.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return nil, err
	}

	if cfg.SeedDemoUser {
		if err := EnsureDemoUser(ctx, users, log); err != nil {
			pool.Close()
			return nil, err
		}
	}

	svc := auth.NewService(log, users, refresh, codec)

	authCfg := authapi.DefaultConfig()
	authCfg.TrustProxy = cfg.TrustProxy
	authHandler, err := authapi.NewHandler(log, svc, authCfg)
	if err != nil {
		pool.Close()
		return nil, err
	}

	gwCfg := realtime.DefaultGatewayConfig()
	gwCfg.OriginPatterns = originHosts(cfg.AllowedOrigins)
	gateway := realtime.NewGateway(log, realtime.CodecVerifier{Codec: codec}, realtime.NewHub(), gwCfg)

	return &App{
		cfg:     cfg,
		log:     log,
		pool:    pool,
		auth:    authHandler,
		gateway: gateway,
		profits: profit.NewHandler(log, profitStore),
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or a
// fatal server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.pool, a.auth, a.gateway, a.profits)

	var handler http.Handler = mux
	handler = WithMaxBody(handler, a.cfg.MaxBodyBytes)
	handler = WithCORS(handler, a.cfg.AllowedOrigins)
	handler = WithSecurityHeaders(handler)
	handler = WithRequestLogging(handler, a.log)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: a.cfg.ReadHeaderTimeout,
		ReadTimeout:       a.cfg.ReadTimeout,
		WriteTimeout:      a.cfg.WriteTimeout,
		IdleTimeout:       a.cfg.IdleTimeout,
		MaxHeaderBytes:    a.cfg.MaxHeaderBytes,
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	a.pool.Close()
	a.log.Info("server.stopped")
	return nil
}

// originHosts strips allowed origins down to the host patterns the
// websocket transport matches against.
func originHosts(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if h := hostOnly(o); h != "" {
			out = append(out, h)
		}
	}
	return out
}
