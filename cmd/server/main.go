package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"expense-ledger/internal/admin"
	"expense-ledger/internal/auth"
	"expense-ledger/internal/config"
	"expense-ledger/internal/expenses"
	"expense-ledger/internal/handlers"
	"expense-ledger/internal/metrics"
	"expense-ledger/internal/session"
	"expense-ledger/internal/storage"
	"expense-ledger/web"

	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	for _, w := range cfg.Warnings() {
		logger.Warn("Insecure configuration", "warning", w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := storage.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	logger.Info("Database ready", "dialect", db.Dialect().String())

	var revoker session.Revoker
	if cfg.RedisURL != "" {
		redisRevoker, client, err := session.NewRedisRevokerFromURL(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer client.Close()
		revoker = redisRevoker
		logger.Info("Using Redis session revocation")
	}

	m := metrics.New()
	h, err := handlers.NewHandlers(handlers.Config{
		Auth:     auth.NewService(db, cfg.AdminEmail, cfg.AdminPassword),
		Expenses: expenses.NewService(db, m),
		Admin:    admin.NewService(db),
		Sessions: session.NewManager(session.Config{
			Secret: []byte(cfg.SecretKey),
			TTL:    cfg.SessionTTL,
			Secure: cfg.SecureCookie,
		}, revoker),
		DB:        db,
		Metrics:   m,
		Templates: web.Templates(),
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           setupRouter(h, web.Static(), m, logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// setupRouter mounts the application routes next to static assets and
// metrics, wrapped in request logging and instrumentation.
func setupRouter(h *handlers.Handlers, static fs.FS, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	mux := h.Routes()
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))
	mux.Handle("GET /metrics", m.Handler())

	return handlers.RequestLogger(logger)(m.Middleware(mux))
}
