package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"mediagen-gateway/internal/bootstrap"
	"mediagen-gateway/internal/config"
	"mediagen-gateway/internal/handlers"
	"mediagen-gateway/internal/httpserver"
	"mediagen-gateway/internal/metrics"
	"mediagen-gateway/internal/orchestrator"
	"mediagen-gateway/internal/pricing"
	"mediagen-gateway/pkg/logging/logging"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("gateway exited with error: %v", err)
	}
}

func run() error {
	// ----- Logger -----
	logger := logging.DefaultLogger()
	defer logger.Sync()

	// ----- Metrics -----
	metrics.Register()

	// ----- Config -----
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		return err
	}

	logger.Info("loaded config",
		zap.String("port", cfg.Port),
		zap.String("cache_backend", cfg.CacheBackend),
		zap.String("rate_limit_backend", cfg.RateLimitBackend),
		zap.Int("rate_limit_per_minute", cfg.RateLimitPerMinute),
		zap.Duration("provider_timeout", cfg.ProviderTimeout),
		zap.Bool("auth_enabled", cfg.APIKey != ""),
	)

	// ----- Pricing (fail fast on a bad table) -----
	table, err := bootstrap.PricingTable(cfg)
	if err != nil {
		logger.Error("pricing setup failed", zap.Error(err))
		return err
	}

	// ----- Redis client (only if needed) -----
	var redisClient *redis.Client
	if cfg.NeedsRedis() {
		redisClient = redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
		})

		// Fail fast if Redis is misconfigured
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Error("redis connection failed", zap.Error(err))
			return err
		}
		logger.Info("redis connection established",
			zap.String("addr", cfg.RedisAddr),
		)
	}

	// ----- Fingerprint cache -----
	store, err := bootstrap.Store(cfg, redisClient)
	if err != nil {
		logger.Error("cache setup failed", zap.Error(err))
		return err
	}

	// ----- Provider chains -----
	registry, err := bootstrap.Registry(cfg, table, logger)
	if err != nil {
		logger.Error("provider setup failed", zap.Error(err))
		return err
	}

	// ----- Orchestrator + handlers -----
	coordinator := orchestrator.New(store, registry, pricing.NewEstimator(table), logger)
	generateHandler := handlers.NewGenerateHandler(coordinator)

	// ----- Rate limiter -----
	limiter := bootstrap.Limiter(cfg, redisClient)

	// ----- Router + middleware -----
	r := chi.NewRouter()
	httpserver.SetupRouter(r, logger, generateHandler, cfg.APIKey, limiter)

	// ----- HTTP server -----
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      6 * time.Minute, // generation responses are slow
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("starting gateway",
		zap.String("addr", srv.Addr),
		zap.String("cache_backend", cfg.CacheBackend),
	)

	// Start server in background
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
		}
	}()

	// ----- Graceful shutdown -----
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
		return err
	}

	logger.Info("server shutdown complete")
	return nil
}
