package main

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

	httpx "github.com/splax/teamboard/internal/http"
	"github.com/splax/teamboard/internal/repository/memory"
	"github.com/splax/teamboard/internal/service/team"
	"github.com/splax/teamboard/internal/ws"
	"github.com/splax/teamboard/pkg/config"
	"github.com/splax/teamboard/pkg/logger"
)

func main() {
	cfg := config.LoadAPIConfig()
	log := logger.New("api", logger.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("api server failed", "error", err)
		os.Exit(1)
	}
}

// run serves the member API until ctx is cancelled, then drains in-flight requests.
func run(ctx context.Context, cfg config.APIConfig, log *slog.Logger) error {
	hub := ws.NewHub(log)
	defer hub.Close()

	router := httpx.NewRouter(log, team.New(memory.New(), hub, log), hub, sharedLimiter(cfg, log), cfg)
	defer router.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	// Shutdown does not cancel request contexts; closing the hub ends open event streams.
	srv.RegisterOnShutdown(hub.Close)

	served := make(chan error, 1)
	go func() {
		log.Info("api server listening", "addr", cfg.Addr, "environment", cfg.Environment)
		served <- srv.ListenAndServe()
	}()

	select {
	case err := <-served:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("api server stopped")
	return nil
}

// sharedLimiter returns the Redis limiter when one is configured and reachable.
// A nil result lets the router fall back to its in-process limiter.
func sharedLimiter(cfg config.APIConfig, log *slog.Logger) httpx.RateLimiter {
	if !cfg.RateLimitEnabled || cfg.RateLimitRedisAddr == "" {
		return nil
	}
	limiter, err := httpx.NewRedisRateLimiter(cfg.RateLimitRedisAddr, cfg.RateLimitRedisPass, cfg.RateLimitRedisDB, log)
	if err != nil {
		log.Warn("redis rate limiter unavailable, using in-memory limiter", "error", err)
		return nil
	}
	return limiter
}
