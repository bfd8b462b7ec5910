// Package bootstrap assembles the gateway's moving parts from configuration.
// Shared by the HTTP server and the CLI so both wire providers identically.
package bootstrap

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"mediagen-gateway/internal/cache"
	"mediagen-gateway/internal/config"
	"mediagen-gateway/internal/fallback"
	"mediagen-gateway/internal/pricing"
	"mediagen-gateway/internal/provider"
	"mediagen-gateway/internal/ratelimit"
)

// PricingTable loads the default price table, applies the optional override
// file and validates the result.
func PricingTable(cfg config.Config) (pricing.Table, error) {
	table := pricing.Default()
	if cfg.PricingFile != "" {
		loaded, err := pricing.Load(cfg.PricingFile)
		if err != nil {
			return nil, fmt.Errorf("load pricing file: %w", err)
		}
		table = loaded
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("pricing table: %w", err)
	}
	return table, nil
}

// Registry builds the provider fallback chains from the configured keys.
// Chain order is fixed: paid primaries first, free fallbacks last. Providers
// with no credentials are left out of their chain.
func Registry(cfg config.Config, table pricing.Table, logger *zap.Logger) (*fallback.Registry, error) {
	registry := fallback.NewRegistry(cfg.ProviderTimeout, logger)

	register := func(cap provider.Capability, p provider.Provider) {
		registry.Register(cap, provider.WithRetry(p, cfg.ProviderMaxRetries, 200*time.Millisecond, logger))
	}

	if cfg.OpenAIKey != "" {
		p, err := provider.NewOpenAI(provider.OpenAIConfig{APIKey: cfg.OpenAIKey, Pricing: table}, logger)
		if err != nil {
			return nil, err
		}
		register(provider.CapabilityText, p)
	}
	if cfg.GoogleKey != "" {
		p, err := provider.NewGemini(provider.GeminiConfig{APIKey: cfg.GoogleKey, Pricing: table}, logger)
		if err != nil {
			return nil, err
		}
		register(provider.CapabilityText, p)
	}

	if cfg.ElevenLabsKey != "" {
		p, err := provider.NewElevenLabs(provider.ElevenLabsConfig{
			APIKey:    cfg.ElevenLabsKey,
			OutputDir: cfg.OutputDir,
			Pricing:   table,
		}, logger)
		if err != nil {
			return nil, err
		}
		register(provider.CapabilitySpeech, p)
	}
	// The free synthesizer needs no credentials and always closes the chain.
	gtts, err := provider.NewGoogleTTS(provider.GoogleTTSConfig{OutputDir: cfg.OutputDir}, logger)
	if err != nil {
		return nil, err
	}
	register(provider.CapabilitySpeech, gtts)

	if cfg.PexelsKey != "" {
		p, err := provider.NewPexels(provider.PexelsConfig{APIKey: cfg.PexelsKey, Pricing: table}, logger)
		if err != nil {
			return nil, err
		}
		register(provider.CapabilityImage, p)
	}
	if cfg.PixabayKey != "" {
		p, err := provider.NewPixabay(provider.PixabayConfig{APIKey: cfg.PixabayKey, Pricing: table}, logger)
		if err != nil {
			return nil, err
		}
		register(provider.CapabilityImage, p)
	}

	return registry, nil
}

// Store builds the configured cache backend wrapped with logging and
// metrics.
func Store(cfg config.Config, redisClient *redis.Client) (cache.Store, error) {
	store, err := cache.New(cache.Config{
		Backend: cfg.CacheBackend,
		Dir:     cfg.CacheDir,
		Prefix:  "mediagen",
	}, redisClient)
	if err != nil {
		return nil, err
	}
	return cache.NewLoggingStore(store), nil
}

// Limiter builds the configured rate limiter backend.
func Limiter(cfg config.Config, redisClient *redis.Client) ratelimit.Limiter {
	if cfg.RateLimitBackend == "redis" && redisClient != nil {
		return ratelimit.NewRedisLimiter(redisClient, "mediagen", cfg.RateLimitPerMinute, time.Minute)
	}
	return ratelimit.NewMemoryLimiter(cfg.RateLimitPerMinute, time.Minute)
}
