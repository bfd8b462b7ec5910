package provider

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"mediagen-gateway/internal/request"
)

// retryProvider wraps a provider with bounded in-place retries. Quota and
// availability blips often clear within seconds; timeouts and rejected
// input never do, so those pass straight through to the fallback chain.
type retryProvider struct {
	inner       Provider
	maxRetries  int
	baseBackoff time.Duration
	logger      *zap.Logger
}

// WithRetry decorates a provider with up to maxRetries re-attempts, using
// exponential backoff with full jitter and honoring upstream Retry-After
// hints.
func WithRetry(inner Provider, maxRetries int, baseBackoff time.Duration, logger *zap.Logger) Provider {
	if maxRetries <= 0 {
		return inner
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &retryProvider{
		inner:       inner,
		maxRetries:  maxRetries,
		baseBackoff: baseBackoff,
		logger:      logger.Named("retry"),
	}
}

func (p *retryProvider) ID() string { return p.inner.ID() }

func (p *retryProvider) Attempt(ctx context.Context, spec request.Spec) (Result, error) {
	maxAttempts := p.maxRetries + 1

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Result{}, classifyErr(p.ID(), err)
		}

		result, err := p.inner.Attempt(ctx, spec)
		if err == nil {
			return result, nil
		}
		lastErr = err

		var failure *Failure
		if !errors.As(err, &failure) || !retriableInPlace(failure.Kind) {
			return Result{}, err
		}
		if attempt == maxAttempts-1 {
			break
		}

		wait := failure.RetryAfter
		if wait <= 0 {
			wait = computeBackoff(p.baseBackoff, attempt)
		}
		p.logger.Debug("backing off before retry",
			zap.String("provider", p.ID()),
			zap.String("kind", string(failure.Kind)),
			zap.Duration("backoff", wait),
			zap.Int("next_attempt", attempt+2),
		)

		select {
		case <-ctx.Done():
			return Result{}, classifyErr(p.ID(), ctx.Err())
		case <-time.After(wait):
		}
	}

	p.logger.Warn("attempts exhausted",
		zap.String("provider", p.ID()),
		zap.Int("attempts", maxAttempts),
		zap.Error(lastErr),
	)
	return Result{}, lastErr
}

func retriableInPlace(kind FailureKind) bool {
	return kind == KindQuotaExceeded || kind == KindUnavailable
}

// computeBackoff is exponential backoff with full jitter: a random wait in
// [0, base * 2^attempt), capped so a deep retry never stalls the chain.
func computeBackoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = 100 * time.Millisecond
	}

	const maxExponent = 10
	if attempt > maxExponent {
		attempt = maxExponent
	}

	backoff := time.Duration(float64(base) * math.Pow(2, float64(attempt)))

	const maxAllowed = 30 * time.Second
	if backoff > maxAllowed {
		backoff = maxAllowed
	}

	return time.Duration(rand.Float64() * float64(backoff))
}
