package main

import (
	"fmt"

	"go.uber.org/zap"

	"mediagen-gateway/internal/bootstrap"
	"mediagen-gateway/internal/config"
	"mediagen-gateway/internal/orchestrator"
	"mediagen-gateway/internal/pricing"
	"mediagen-gateway/pkg/logging/logging"
)

// buildCoordinator assembles the same stack the gateway runs, minus the HTTP
// surface. The CLI talks to providers directly.
func buildCoordinator(cfg config.Config, logger *zap.Logger) (*orchestrator.Coordinator, error) {
	table, err := bootstrap.PricingTable(cfg)
	if err != nil {
		return nil, err
	}

	store, err := bootstrap.Store(cfg, nil)
	if err != nil {
		return nil, fmt.Errorf("cache setup: %w", err)
	}

	registry, err := bootstrap.Registry(cfg, table, logger)
	if err != nil {
		return nil, fmt.Errorf("provider setup: %w", err)
	}

	return orchestrator.New(store, registry, pricing.NewEstimator(table), logger), nil
}

// loadConfig reads the environment and fails fast on unusable settings.
// Dry-run paths skip provider-key validation since they never call out.
func loadConfig(requireKeys bool) (config.Config, error) {
	cfg := config.Load()
	if cfg.CacheBackend == "redis" {
		// The CLI runs without a Redis connection; fall back to disk.
		cfg.CacheBackend = "disk"
	}
	if requireKeys {
		if err := cfg.Validate(); err != nil {
			return config.Config{}, err
		}
	}
	return cfg, nil
}

func newCLILogger() *zap.Logger {
	return logging.DefaultLogger()
}
