package config

import (
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Port:               "8080",
		CacheBackend:       "disk",
		CacheDir:           ".cache",
		RateLimitPerMinute: 10,
		RateLimitBackend:   "memory",
		ProviderTimeout:    45 * time.Second,
		OpenAIKey:          "k",
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	t.Parallel()

	if err := validConfig().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRequiresTextKey(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.OpenAIKey = ""
	cfg.GoogleKey = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error with no text provider key")
	}

	cfg.GoogleKey = "g"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("google key alone should satisfy the text requirement: %v", err)
	}
}

func TestValidateRejectsUnknownBackends(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.CacheBackend = "s3"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown cache backend")
	}

	cfg = validConfig()
	cfg.RateLimitBackend = "dynamo"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown rate limit backend")
	}
}

func TestValidateRedisRequiresAddr(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.CacheBackend = "redis"
	cfg.RedisAddr = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for redis backend without address")
	}

	cfg.RedisAddr = "127.0.0.1:6379"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.NeedsRedis() {
		t.Fatal("redis cache backend must require a connection")
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "25")
	t.Setenv("PROVIDER_TIMEOUT_SECONDS", "bogus")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("Port = %q", cfg.Port)
	}
	if cfg.RateLimitPerMinute != 25 {
		t.Fatalf("RateLimitPerMinute = %d", cfg.RateLimitPerMinute)
	}
	// Unparseable numbers fall back to the default.
	if cfg.ProviderTimeout != 45*time.Second {
		t.Fatalf("ProviderTimeout = %v", cfg.ProviderTimeout)
	}
	if cfg.OpenAIKey != "sk-test" {
		t.Fatalf("OpenAIKey = %q", cfg.OpenAIKey)
	}
}
