package cache

import (
	"context"
	"time"

	"mediagen-gateway/internal/metrics"
	"mediagen-gateway/pkg/logging/logging"

	"go.uber.org/zap"
)

// LoggingStore wraps a Store with structured logging and metrics.
type LoggingStore struct {
	inner Store
}

// NewLoggingStore returns a store that logs and records metrics.
func NewLoggingStore(inner Store) Store {
	return &LoggingStore{inner: inner}
}

func (s *LoggingStore) Get(ctx context.Context, namespace, fingerprint string) (Entry, bool, error) {
	start := time.Now()
	entry, ok, err := s.inner.Get(ctx, namespace, fingerprint)
	latencyMs := float64(time.Since(start).Microseconds()) / 1000.0

	logger := logging.L(ctx)

	result := "miss"
	if err != nil {
		result = "error"
	} else if ok {
		result = "hit"
		metrics.CacheHitsTotal.WithLabelValues(namespace).Inc()
	}

	fields := []zap.Field{
		zap.String("namespace", namespace),
		zap.String("fingerprint", fingerprint),
		zap.String("cache_result", result), // hit | miss | error
		zap.Float64("latency_ms", latencyMs),
	}

	if err != nil {
		logger.Error("cache_get", append(fields, zap.Error(err))...)
	} else {
		logger.Debug("cache_get", fields...)
	}

	return entry, ok, err
}

func (s *LoggingStore) Put(ctx context.Context, namespace string, entry Entry, force bool) error {
	start := time.Now()
	err := s.inner.Put(ctx, namespace, entry, force)
	latencyMs := float64(time.Since(start).Microseconds()) / 1000.0

	logger := logging.L(ctx)

	fields := []zap.Field{
		zap.String("namespace", namespace),
		zap.String("fingerprint", entry.Fingerprint),
		zap.String("provider", entry.Provider),
		zap.Bool("force", force),
		zap.Float64("latency_ms", latencyMs),
	}

	if err != nil {
		logger.Error("cache_put", append(fields, zap.Error(err))...)
	} else {
		logger.Debug("cache_put", fields...)
	}

	return err
}

func (s *LoggingStore) Clear(ctx context.Context, namespace string) (int, error) {
	count, err := s.inner.Clear(ctx, namespace)

	logger := logging.L(ctx)
	if err != nil {
		logger.Error("cache_clear", zap.String("namespace", namespace), zap.Error(err))
	} else {
		logger.Info("cache_clear", zap.String("namespace", namespace), zap.Int("removed", count))
	}
	return count, err
}
