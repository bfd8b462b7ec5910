// Package fallback walks an ordered chain of providers for a capability,
// advancing only past retriable failures.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"mediagen-gateway/internal/metrics"
	"mediagen-gateway/internal/provider"
	"mediagen-gateway/internal/request"
)

// Attempt records one failed chain step for the error trail.
type Attempt struct {
	Provider string               `json:"provider"`
	Kind     provider.FailureKind `json:"kind"`
}

// ChainError reports that every provider in a chain failed. The trail lists
// providers in the order they were tried; upstream response bodies are never
// carried here.
type ChainError struct {
	Capability provider.Capability
	Attempts   []Attempt
}

func (e *ChainError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s(%s)", a.Provider, a.Kind))
	}
	return fmt.Sprintf("all %s providers failed: %s", e.Capability, strings.Join(parts, ", "))
}

// Registry holds the ordered provider chain per capability. Order is fixed at
// registration time; every invocation walks the same sequence.
type Registry struct {
	chains         map[provider.Capability][]provider.Provider
	attemptTimeout time.Duration
	logger         *zap.Logger
}

const defaultAttemptTimeout = 45 * time.Second

func NewRegistry(attemptTimeout time.Duration, logger *zap.Logger) *Registry {
	if attemptTimeout <= 0 {
		attemptTimeout = defaultAttemptTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		chains:         make(map[provider.Capability][]provider.Provider),
		attemptTimeout: attemptTimeout,
		logger:         logger.Named("fallback"),
	}
}

// Register appends a provider to the end of a capability's chain.
func (r *Registry) Register(cap provider.Capability, p provider.Provider) {
	r.chains[cap] = append(r.chains[cap], p)
}

// Providers returns the chain for a capability, in invocation order.
func (r *Registry) Providers(cap provider.Capability) []provider.Provider {
	return r.chains[cap]
}

// Invoke runs the chain for the spec's operation. It returns the first
// successful result along with the winning provider's ID. A non-retriable
// failure stops the chain immediately; if every provider fails retriably the
// error is a *ChainError carrying the attempt trail.
func (r *Registry) Invoke(ctx context.Context, spec request.Spec) (provider.Result, string, error) {
	cap := provider.CapabilityFor(spec.Operation)
	chain := r.chains[cap]
	if len(chain) == 0 {
		return provider.Result{}, "", fmt.Errorf("no providers registered for capability %q", cap)
	}

	var trail []Attempt
	for _, p := range chain {
		attemptCtx, cancel := context.WithTimeout(ctx, r.attemptTimeout)
		result, err := p.Attempt(attemptCtx, spec)
		cancel()

		if err == nil {
			metrics.ProviderAttemptsTotal.WithLabelValues(p.ID(), "success").Inc()
			r.logger.Info("provider succeeded",
				zap.String("provider", p.ID()),
				zap.String("operation", string(spec.Operation)),
				zap.Int("attempt", len(trail)+1),
			)
			return result, p.ID(), nil
		}

		var failure *provider.Failure
		if !errors.As(err, &failure) {
			failure = provider.NewFailure(provider.KindUnavailable, p.ID(), err)
		}
		metrics.ProviderAttemptsTotal.WithLabelValues(p.ID(), string(failure.Kind)).Inc()

		if !failure.Retriable() {
			r.logger.Warn("provider rejected input, stopping chain",
				zap.String("provider", p.ID()),
				zap.String("operation", string(spec.Operation)),
				zap.Error(err),
			)
			return provider.Result{}, "", failure
		}

		trail = append(trail, Attempt{Provider: p.ID(), Kind: failure.Kind})
		r.logger.Warn("provider failed, trying next",
			zap.String("provider", p.ID()),
			zap.String("kind", string(failure.Kind)),
			zap.String("operation", string(spec.Operation)),
		)
	}

	return provider.Result{}, "", &ChainError{Capability: cap, Attempts: trail}
}
