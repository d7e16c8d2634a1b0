package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ecoquest/quest-engine/internal/api"
	"github.com/ecoquest/quest-engine/internal/catalog"
	"github.com/ecoquest/quest-engine/internal/classifier"
	"github.com/ecoquest/quest-engine/internal/cleanup"
	"github.com/ecoquest/quest-engine/internal/config"
	"github.com/ecoquest/quest-engine/internal/events"
	"github.com/ecoquest/quest-engine/internal/leaderboard"
	"github.com/ecoquest/quest-engine/internal/progression"
	"github.com/ecoquest/quest-engine/internal/storage"
	"github.com/ecoquest/quest-engine/internal/verify"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.Info("starting quest-engine",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	// Run database migrations
	slog.Info("running database migrations", "dir", cfg.Database.MigrationsDir)
	if err := storage.MigrateFromDSN(initCtx, cfg.Database.DSN, cfg.Database.MigrationsDir); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize database repository
	repo, err := storage.NewPostgresRepository(initCtx, storage.PostgresConfig{
		DSN:          cfg.Database.DSN,
		MaxOpenConns: int32(cfg.Database.MaxOpenConns),
		MaxIdleConns: int32(cfg.Database.MaxIdleConns),
	})
	if err != nil {
		slog.Error("failed to create database repository", "error", err)
		os.Exit(1)
	}
	slog.Info("database connected successfully")

	// Initialize Redis leaderboard
	board, err := leaderboard.New(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		slog.Error("failed to connect to redis leaderboard", "error", err)
		os.Exit(1)
	}

	// Load quest catalog
	questCatalog := catalog.NewLoader()
	if err := questCatalog.LoadFromDir(cfg.Catalog.Dir); err != nil {
		slog.Error("failed to load quest catalog", "dir", cfg.Catalog.Dir, "error", err)
		os.Exit(1)
	}

	// Wire up the verification pipeline
	hub := events.NewHub()
	heuristic := classifier.NewHeuristic(cfg.Verification.ClassifierLatency)
	engine := verify.NewEngine(questCatalog, heuristic, cfg.Verification, repo, hub)
	prog := progression.NewService(repo, questCatalog, board, hub)

	// Initialize submission retention sweeper
	cleaner := cleanup.NewCleaner(repo, cfg.Cleanup.Interval, cfg.Cleanup.Retention)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start sweeper
	cleaner.Start(ctx)

	// Setup HTTP server
	server := api.NewServer(cfg.Server, questCatalog, engine, prog, repo, board, hub)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	// Cancel context to stop background workers
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	if err := board.Close(); err != nil {
		slog.Error("leaderboard close error", "error", err)
	}

	if err := repo.Close(); err != nil {
		slog.Error("repository close error", "error", err)
	}

	slog.Info("quest-engine stopped")
}
