// Package orchestrator ties the fingerprint cache, the provider fallback
// chains and the cost estimator into one entry point for generation work.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"mediagen-gateway/internal/cache"
	"mediagen-gateway/internal/fallback"
	"mediagen-gateway/internal/pricing"
	"mediagen-gateway/internal/request"
)

// Options tweaks a single execution.
type Options struct {
	// BypassCache skips the cache read and overwrites any existing entry on
	// success. Set by the user's --no-cache flag, never by internal code.
	BypassCache bool
}

// Outcome is one completed generation: the cache entry that now backs the
// fingerprint, whether it was served from cache, and the live spend (zero on
// hits).
type Outcome struct {
	Entry    cache.Entry `json:"entry"`
	CacheHit bool        `json:"cache_hit"`
	CostUSD  float64     `json:"cost_usd"`
}

// Coordinator runs generation requests. Concurrent requests for the same
// fingerprint collapse into a single provider invocation.
type Coordinator struct {
	store     cache.Store
	registry  *fallback.Registry
	estimator *pricing.Estimator
	group     singleflight.Group
	logger    *zap.Logger
}

func New(store cache.Store, registry *fallback.Registry, estimator *pricing.Estimator, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		store:     store,
		registry:  registry,
		estimator: estimator,
		logger:    logger.Named("orchestrator"),
	}
}

type flightResult struct {
	entry    cache.Entry
	cacheHit bool
	costUSD  float64
}

// Execute normalizes and validates the spec, then serves it from cache or
// generates it through the fallback chain. Failed generations are never
// written to the cache, so the next request retries from scratch.
func (c *Coordinator) Execute(ctx context.Context, spec request.Spec, opts Options) (Outcome, error) {
	spec = spec.Normalize()
	if err := spec.Validate(); err != nil {
		return Outcome{}, err
	}

	fp := spec.Fingerprint()
	ns := spec.Namespace()

	if !opts.BypassCache {
		entry, ok, err := c.store.Get(ctx, ns, fp)
		if err != nil {
			return Outcome{}, fmt.Errorf("cache get: %w", err)
		}
		if ok {
			return Outcome{Entry: entry, CacheHit: true}, nil
		}
	}

	// Identical fingerprints share one in-flight generation. The leader's
	// context drives the providers; followers just wait for its result.
	v, err, _ := c.group.Do(ns+"/"+fp, func() (any, error) {
		if !opts.BypassCache {
			entry, ok, err := c.store.Get(ctx, ns, fp)
			if err == nil && ok {
				return flightResult{entry: entry, cacheHit: true}, nil
			}
		}

		result, providerID, err := c.registry.Invoke(ctx, spec)
		if err != nil {
			return nil, err
		}

		entry := cache.Entry{
			Fingerprint: fp,
			Operation:   spec.Operation,
			Payload:     result.Payload,
			CreatedAt:   time.Now().UTC(),
			Provider:    providerID,
		}
		if err := c.store.Put(ctx, ns, entry, opts.BypassCache); err != nil {
			// The generation succeeded; a cache write failure only costs the
			// next request a regeneration.
			c.logger.Warn("cache put failed",
				zap.String("namespace", ns),
				zap.String("fingerprint", fp),
				zap.Error(err),
			)
		}
		return flightResult{entry: entry, costUSD: result.CostUSD}, nil
	})
	if err != nil {
		return Outcome{}, err
	}

	fr := v.(flightResult)
	return Outcome{Entry: fr.entry, CacheHit: fr.cacheHit, CostUSD: fr.costUSD}, nil
}

// Estimate prices the given operations without touching cache or providers.
func (c *Coordinator) Estimate(specs []request.Spec, tier request.Tier) pricing.CostEstimate {
	return c.estimator.Estimate(specs, tier)
}

// ClearCache removes cached entries in a namespace, or all namespaces when
// empty.
func (c *Coordinator) ClearCache(ctx context.Context, namespace string) (int, error) {
	return c.store.Clear(ctx, namespace)
}
