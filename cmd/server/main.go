package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rafidev/contact-admin/internal/config"
	"github.com/rafidev/contact-admin/internal/handler"
	"github.com/rafidev/contact-admin/internal/logging"
	"github.com/rafidev/contact-admin/internal/remote"
	"github.com/rafidev/contact-admin/internal/remote/hostedapi"
	"github.com/rafidev/contact-admin/internal/remote/pgstore"
	"github.com/rafidev/contact-admin/internal/service"
)

func main() {
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("invalid configuration", "error", err)
	}

	// Background context for the refresh / sweep loops, cancelled on
	// shutdown.
	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	var sessionStore remote.SessionStore
	if cfg.SessionStatePath != "" {
		sessionStore = remote.NewFileSessionStore(cfg.SessionStatePath)
	}

	var dataService remote.DataService
	switch cfg.Backend {
	case config.BackendHosted:
		client := hostedapi.NewClient(hostedapi.Config{
			BaseURL:       cfg.HostedAPIURL,
			APIKey:        cfg.HostedAPIKey,
			Store:         sessionStore,
			RefreshMargin: cfg.RefreshMargin,
		})
		go client.RunAutoRefresh(bgCtx)
		dataService = client

	case config.BackendPostgres:
		pool, err := pgstore.NewPool(bgCtx, cfg.DatabaseURL)
		if err != nil {
			logging.Fatal("failed to connect to database", "error", err)
		}
		defer pool.Close()

		var limiter *pgstore.LoginLimiter
		if cfg.RedisURL != "" {
			opts, err := redis.ParseURL(cfg.RedisURL)
			if err != nil {
				logging.Fatal("invalid REDIS_URL", "error", err)
			}
			limiter = pgstore.NewLoginLimiter(redis.NewClient(opts))
		}

		store := pgstore.New(pgstore.Config{
			Pool:                 pool,
			OperatorEmail:        cfg.OperatorEmail,
			OperatorPasswordHash: cfg.OperatorPasswordHash,
			SessionTTL:           cfg.SessionTTL,
			Store:                sessionStore,
			Limiter:              limiter,
		})
		go store.RunExpirySweep(bgCtx, cfg.SweepInterval)
		dataService = store
	}

	sessions := service.NewSessionManager(dataService, service.OperatorPolicy{Email: cfg.OperatorEmail})
	defer sessions.Close()

	// Resolve any persisted session before serving. A dead backend is not
	// fatal here; the state resolves to unauthenticated and the operator
	// signs in again once the backend is back.
	initCtx, initCancel := context.WithTimeout(bgCtx, 15*time.Second)
	state, err := sessions.Initialize(initCtx)
	initCancel()
	if err != nil {
		slog.Warn("session restore failed", "error", err)
	}
	slog.Info("auth state resolved", "stage", state.Stage)

	submissionService := service.NewSubmissionService(dataService, sessions)
	statsService := service.NewStatsService(dataService, sessions)

	authHandler := handler.NewAuthHandler(sessions)
	submissionHandler := handler.NewSubmissionHandler(submissionService)
	statsHandler := handler.NewStatsHandler(statsService)
	healthHandler := handler.NewHealthHandler(dataService)

	loginLimiter := handler.NewRateLimiter(cfg.LoginRateLimit)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", healthHandler.Health)
	mux.Handle("POST /api/auth/login", loginLimiter.Middleware(http.HandlerFunc(authHandler.Login)))
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.HandleFunc("GET /api/auth/state", authHandler.State)
	mux.HandleFunc("GET /api/auth/events", authHandler.Events)
	mux.HandleFunc("GET /api/admin/submissions", submissionHandler.List)
	mux.HandleFunc("PATCH /api/admin/submissions/{id}/status", submissionHandler.UpdateStatus)
	mux.HandleFunc("DELETE /api/admin/submissions/{id}", submissionHandler.Delete)
	mux.HandleFunc("GET /api/admin/statistics", statsHandler.Get)

	chain := handler.SecurityHeaders(
		handler.RequestLogger(
			handler.CORS(cfg.FrontendURL)(mux)))

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           chain,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		// No WriteTimeout: the auth event stream stays open for the life
		// of the admin tab. Per-request work is bounded by the remote
		// client's own timeouts.
	}

	go func() {
		slog.Info("server listening", "addr", server.Addr, "backend", cfg.Backend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	bgCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
