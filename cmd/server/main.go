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

	"github.com/joho/godotenv"

	"github.com/vilakzi/swipe-secret-matches-sub001/internal/config"
	"github.com/vilakzi/swipe-secret-matches-sub001/internal/feed"
	"github.com/vilakzi/swipe-secret-matches-sub001/internal/httpserver"
	"github.com/vilakzi/swipe-secret-matches-sub001/internal/metrics"
	"github.com/vilakzi/swipe-secret-matches-sub001/internal/store"
	"github.com/vilakzi/swipe-secret-matches-sub001/internal/stream"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Local development convenience; missing .env is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Logging.SlogLevel(),
	}))

	repo, err := store.NewRepository(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("create repository: %w", err)
	}
	defer repo.Close()
	logger.Info("opened content store", "path", cfg.Store.Path)

	m := metrics.New()

	rankOpts := feed.Options{
		RecencyWeight:        cfg.Ranking.RecencyWeight,
		EngagementWeight:     cfg.Ranking.EngagementWeight,
		DiversityWeight:      cfg.Ranking.DiversityWeight,
		ActorActivityWeight:  cfg.Ranking.ActorActivityWeight,
		AdminBoostMultiplier: cfg.Ranking.AdminBoostMultiplier,
		FreshContentWindow:   cfg.Ranking.FreshContentWindow,
		InactivityThreshold:  cfg.Ranking.InactivityThreshold,
		ScrollThreshold:      cfg.Ranking.ScrollThreshold,
		ScrollStopDelay:      cfg.Ranking.ScrollStopDelay,
		AutoRefreshInterval:  cfg.Ranking.AutoRefreshInterval,
		MaxQueueSize:         cfg.Ranking.MaxQueueSize,
		BatchDelay:           cfg.Ranking.BatchDelay,
		MaxFeedSize:          cfg.Ranking.MaxFeedSize,
		MaxSeen:              cfg.Ranking.MaxSeen,
	}

	sessions := feed.NewSessionManager(rankOpts, repo, feed.NewClock(), logger, m, cfg.Server.SessionTTL)
	defer sessions.Close()

	// Set up graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Start the change-stream subscriber in the background, if configured
	if cfg.Stream.URL != "" {
		subscriber := stream.NewSubscriber(cfg.Stream.URL, repo, repo, sessions, logger, m)
		go func() {
			if err := subscriber.Start(ctx); err != nil && ctx.Err() == nil {
				logger.Error("stream subscriber exited with error", "error", err)
			}
		}()
	} else {
		logger.Warn("no stream URL configured, running without live updates")
	}

	// Start background content retention and session expiry
	go repo.StartCleanupJob(ctx, logger, cfg.Store.CleanupInterval, cfg.Store.MaxContentAge, cfg.Store.MaxContentRows)
	go sessions.StartJanitor(ctx, time.Minute)

	// Start the HTTP server
	server := httpserver.NewServer(cfg, sessions, logger, m)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server exited with error", "error", err)
		}
	}()

	logger.Info("server started", "port", cfg.Server.Port)

	// Wait for shutdown signal
	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig.String())
	cancel()

	if err := server.Shutdown(context.Background()); err != nil {
		logger.Error("error shutting down http server", "error", err)
	}

	return nil
}
