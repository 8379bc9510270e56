package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/roomstage/roomstage/internal/analytics"
	"github.com/roomstage/roomstage/internal/auth"
	"github.com/roomstage/roomstage/internal/client"
	"github.com/roomstage/roomstage/internal/config"
	"github.com/roomstage/roomstage/internal/server"
	"github.com/roomstage/roomstage/internal/session"
	"github.com/roomstage/roomstage/internal/viz"
)

// runServe wires the full service together and blocks until shutdown.
func runServe(ctx context.Context, configPath string, debug bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Logging, debug)
	slog.SetDefault(logger)

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	backend := client.New(cfg.Backend.BaseURL, cfg.Backend.APIKey, cfg.Backend.Timeout)

	manager := viz.NewManager(backend, store, nil, logger, viz.Config{
		PollInterval: cfg.Backend.PollInterval,
		PollTimeout:  cfg.Backend.PollTimeout,
		MaxRetries:   cfg.Backend.MaxRetries,
		RetryDelay:   cfg.Backend.RetryDelay,
	})

	var batcher *analytics.Batcher
	if cfg.Analytics.Enabled {
		batcher = analytics.NewBatcher(backend, cfg.Analytics.Endpoint,
			time.Duration(cfg.Analytics.DebounceMs)*time.Millisecond,
			cfg.Analytics.MaxBatch, logger)
		defer batcher.Stop()
	}

	janitor := session.NewJanitor(store, cfg.Sessions.TTL, cfg.Sessions.CleanupSchedule, logger)
	if err := janitor.Start(); err != nil {
		return fmt.Errorf("start janitor: %w", err)
	}
	defer janitor.Stop()

	authService := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
	if !authService.Enabled() {
		logger.Warn("auth disabled: no jwt secret configured")
	}

	srv := server.New(cfg, logger, manager, authService, batcher)
	if err := srv.Start(); err != nil {
		return err
	}

	logger.Info("roomstage started",
		"version", version,
		"http_port", cfg.Server.HTTPPort,
		"analytics", cfg.Analytics.Enabled)

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Stop(shutdownCtx)

	return nil
}

// runMigrate opens the SQLite store, which creates the schema on first use.
func runMigrate(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Database.Path == "" {
		return fmt.Errorf("migrate: database.path is not configured")
	}
	store, err := session.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := store.Close(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	fmt.Printf("schema initialized at %s\n", cfg.Database.Path)
	return nil
}

// openStore selects SQLite or in-memory storage from config.
func openStore(cfg *config.Config) (session.Store, error) {
	if cfg.Database.Path == "" {
		slog.Warn("no database path configured, sessions are in-memory only")
		return session.NewMemoryStore(), nil
	}
	return session.NewSQLiteStore(cfg.Database.Path)
}

// newLogger builds the slog logger from the logging config.
func newLogger(cfg config.LoggingConfig, debug bool) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
