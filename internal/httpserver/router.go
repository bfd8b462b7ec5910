package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"mediagen-gateway/internal/handlers"
	"mediagen-gateway/internal/metrics"
	"mediagen-gateway/internal/middleware"
	"mediagen-gateway/internal/ratelimit"
)

// SetupRouter wires the gateway routes. Health and metrics stay outside the
// auth and rate limit fences so probes and scrapes always get through.
func SetupRouter(
	r *chi.Mux,
	baseLogger *zap.Logger,
	generateHandler *handlers.GenerateHandler,
	apiKey string,
	limiter ratelimit.Limiter,
) {
	r.Use(metrics.Middleware)

	// base middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)

	r.Use(middleware.LoggingContext(baseLogger))
	r.Use(middleware.Recoverer())              // panic recovery
	r.Use(middleware.Timeout(5 * time.Minute)) // generation runs are slow
	r.Use(middleware.MaxBodySize(512 * 1024))  // 512 KB max body

	// routes
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKey(apiKey))
		r.Use(middleware.RateLimit(limiter))

		r.Post("/generate/script", generateHandler.Script)
		r.Post("/generate/titles", generateHandler.Titles)
		r.Post("/generate/shorts", generateHandler.Shorts)
		r.Post("/estimate", generateHandler.Estimate)
	})

	// health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Handle("/metrics", metrics.Handler())
}
