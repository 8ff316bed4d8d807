// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/opsshop/jiratrack/internal/api"
	"github.com/opsshop/jiratrack/internal/cache"
	"github.com/opsshop/jiratrack/internal/delivery"
	"github.com/opsshop/jiratrack/internal/jira"
	"github.com/opsshop/jiratrack/internal/ledger"
	"github.com/opsshop/jiratrack/internal/mail"
	"github.com/opsshop/jiratrack/internal/sse"
	"github.com/opsshop/jiratrack/internal/staging"
	"github.com/opsshop/jiratrack/internal/tracker"
	"github.com/opsshop/jiratrack/internal/worker"
)

// workerCount is the size of the shared pool for reconcile and delivery
// work.
const workerCount = 2

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("tracker_url", cfg.Tracker.BaseURL),
		slog.String("ledger_path", cfg.Ledger.Path),
		slog.String("staging_path", cfg.Staging.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Tracker client.
	client := jira.NewClient(cfg.Tracker.BaseURL, cfg.Tracker.Username, cfg.Tracker.Password,
		cfg.Tracker.KnownProjects, cfg.Tracker.TypeMarker)

	// The ledger is allowed to fail open: issues are then reported as
	// undelivered and the UI is told the ledger is down.
	var store ledger.Store
	db, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		logger.Warn("ledger unavailable, running degraded", slog.String("error", err.Error()))
	} else {
		store = db
		defer db.Close()
	}

	// Staging area for delivery packages.
	stagingDir, err := staging.New(cfg.Staging.Path)
	if err != nil {
		return fmt.Errorf("init staging: %w", err)
	}

	snapshots := cache.New()
	reconciler := tracker.NewReconciler(client, store, snapshots, logger)

	sender := mail.NewSMTPSender(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.From, cfg.Mail.To,
		cfg.Mail.Username, cfg.Mail.Password)

	// SSE broker for reconcile/delivery progress.
	broker := sse.NewBroker()
	defer broker.Close()

	pipeline := delivery.NewPipeline(client, stagingDir, reconciler, sender, broker,
		cfg.Staging.SharedDir, cfg.Tracker.Username, logger)

	pool := worker.New(workerCount)
	defer pool.Close()

	// Build API handler and router.
	h := api.NewHandler(client, reconciler, pipeline, store, snapshots, pool, cfg.Tracker.Username)
	apiRouter := api.NewRouter(h, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Prime the cache for the home project in the background.
	if !app.skipWarmup {
		g.Go(func() error {
			tracker.Warmup(gCtx, client, snapshots, cfg.Tracker.HomeProject, broker, logger)
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
