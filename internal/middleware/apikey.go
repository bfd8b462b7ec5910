package middleware

import (
	"crypto/subtle"
	"net/http"

	"mediagen-gateway/pkg/logging/logging"
)

// APIKey rejects requests whose X-API-Key header does not match the
// configured key. An empty configured key disables auth entirely, for local
// single-user runs.
func APIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-API-Key")
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				logging.L(r.Context()).Warn("rejected request with bad api key")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"invalid_api_key"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
