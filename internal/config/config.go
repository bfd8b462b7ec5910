// Package config loads gateway settings from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string
	Env  string // "production" tightens logging

	// APIKey guards the /api routes. Empty disables auth (local use).
	APIKey string

	CacheBackend string // "disk", "memory" or "redis"
	CacheDir     string
	RedisAddr    string

	RateLimitPerMinute int
	RateLimitBackend   string // "memory" or "redis"

	ProviderTimeout    time.Duration
	ProviderMaxRetries int
	PricingFile        string // optional YAML price override
	OutputDir          string // synthesized audio lands here

	VideoDurationMinutes int
	ComposeCommand       string // external assembly command, empty disables

	// Upstream credentials. A provider with no key is left out of its chain.
	OpenAIKey     string
	GoogleKey     string
	ElevenLabsKey string
	PexelsKey     string
	PixabayKey    string
}

// Load reads the environment, after folding in a .env file when one exists.
// Values in the real environment win over the file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:                 getenv("PORT", "8080"),
		Env:                  getenv("ENV", "development"),
		APIKey:               os.Getenv("API_KEY"),
		CacheBackend:         getenv("CACHE_BACKEND", "disk"),
		CacheDir:             getenv("CACHE_DIR", ".cache"),
		RedisAddr:            getenv("REDIS_ADDR", "127.0.0.1:6379"),
		RateLimitPerMinute:   getint("RATE_LIMIT_PER_MINUTE", 10),
		RateLimitBackend:     getenv("RATE_LIMIT_BACKEND", "memory"),
		ProviderTimeout:      time.Duration(getint("PROVIDER_TIMEOUT_SECONDS", 45)) * time.Second,
		ProviderMaxRetries:   getint("PROVIDER_MAX_RETRIES", 2),
		PricingFile:          os.Getenv("PRICING_FILE"),
		OutputDir:            getenv("OUTPUT_DIR", "output"),
		VideoDurationMinutes: getint("VIDEO_DURATION_MINUTES", 30),
		ComposeCommand:       os.Getenv("COMPOSE_COMMAND"),
		OpenAIKey:            os.Getenv("OPENAI_API_KEY"),
		GoogleKey:            os.Getenv("GOOGLE_API_KEY"),
		ElevenLabsKey:        os.Getenv("ELEVENLABS_API_KEY"),
		PexelsKey:            os.Getenv("PEXELS_API_KEY"),
		PixabayKey:           os.Getenv("PIXABAY_API_KEY"),
	}
}

// Validate rejects configurations the gateway cannot start with.
func (c Config) Validate() error {
	switch c.CacheBackend {
	case "disk", "memory", "redis":
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q (valid: disk, memory, redis)", c.CacheBackend)
	}
	switch c.RateLimitBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown RATE_LIMIT_BACKEND %q (valid: memory, redis)", c.RateLimitBackend)
	}
	if (c.CacheBackend == "redis" || c.RateLimitBackend == "redis") && c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required for the redis backend")
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must not be negative")
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT_SECONDS must be positive")
	}
	if c.OpenAIKey == "" && c.GoogleKey == "" {
		return fmt.Errorf("at least one of OPENAI_API_KEY or GOOGLE_API_KEY is required")
	}
	return nil
}

// NeedsRedis reports whether any configured backend requires a Redis
// connection.
func (c Config) NeedsRedis() bool {
	return c.CacheBackend == "redis" || c.RateLimitBackend == "redis"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
