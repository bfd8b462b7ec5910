package middleware

import (
	"fmt"
	"math"
	"net"
	"net/http"

	"go.uber.org/zap"

	"mediagen-gateway/internal/metrics"
	"mediagen-gateway/internal/ratelimit"
	"mediagen-gateway/pkg/logging/logging"
)

// RateLimit throttles requests per identity. Authenticated requests are
// counted by API key; anonymous ones by client IP (chi's RealIP middleware
// must run first). Rejections carry a retry hint in both the JSON body and
// the Retry-After header.
func RateLimit(limiter ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := r.Header.Get("X-API-Key")
			if identity == "" {
				identity = clientIP(r)
			}

			decision, err := limiter.Allow(r.Context(), identity)
			if err != nil {
				// A broken limiter backend must not take the gateway down.
				logging.L(r.Context()).Error("rate limiter error", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			if !decision.Allowed {
				metrics.RateLimitRejectedTotal.Inc()
				seconds := int(math.Ceil(decision.RetryAfter.Seconds()))
				if seconds < 1 {
					seconds = 1
				}
				logging.L(r.Context()).Warn("rate limit exceeded",
					zap.Int("retry_after_seconds", seconds),
				)
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", fmt.Sprint(seconds))
				w.WriteHeader(http.StatusTooManyRequests)
				fmt.Fprintf(w, `{"error":"rate_limit_exceeded","retry_after_seconds":%d}`, seconds)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
