package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"mediagen-gateway/internal/fallback"
	"mediagen-gateway/internal/orchestrator"
	"mediagen-gateway/internal/provider"
	"mediagen-gateway/internal/request"
	"mediagen-gateway/pkg/logging/logging"
)

// GenerateHandler serves the /api/generate endpoints.
type GenerateHandler struct {
	Coordinator *orchestrator.Coordinator
}

func NewGenerateHandler(c *orchestrator.Coordinator) *GenerateHandler {
	return &GenerateHandler{Coordinator: c}
}

// generateRequest is the shared body for every generate endpoint; each
// endpoint reads the fields it needs.
type generateRequest struct {
	Channel         string `json:"channel"`
	Theme           string `json:"theme"`
	Week            int    `json:"week"`
	CostTier        string `json:"cost_tier"`
	NumShorts       int    `json:"num_shorts"`
	SourceScript    string `json:"source_script"`
	DurationMinutes int    `json:"duration_minutes"`
	NoCache         bool   `json:"no_cache"`
}

type generateResponse struct {
	Fingerprint string            `json:"fingerprint"`
	Operation   request.Operation `json:"operation"`
	Provider    string            `json:"provider"`
	CacheHit    bool              `json:"cache_hit"`
	CostUSD     float64           `json:"cost_usd"`
	CreatedAt   time.Time         `json:"created_at"`
	Result      json.RawMessage   `json:"result"`
}

// Script handles POST /api/generate/script.
func (h *GenerateHandler) Script(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, func(body generateRequest, tier request.Tier) request.Spec {
		return request.Spec{
			Operation:       request.OpScript,
			Channel:         body.Channel,
			Theme:           body.Theme,
			Week:            body.Week,
			Tier:            tier,
			DurationMinutes: body.DurationMinutes,
		}
	})
}

// Titles handles POST /api/generate/titles.
func (h *GenerateHandler) Titles(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, func(body generateRequest, tier request.Tier) request.Spec {
		return request.Spec{
			Operation: request.OpTitles,
			Channel:   body.Channel,
			Theme:     body.Theme,
			Week:      body.Week,
			Tier:      tier,
		}
	})
}

// Shorts handles POST /api/generate/shorts.
func (h *GenerateHandler) Shorts(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, func(body generateRequest, tier request.Tier) request.Spec {
		return request.Spec{
			Operation:    request.OpShortsExtraction,
			Channel:      body.Channel,
			Theme:        body.Theme,
			Week:         body.Week,
			Tier:         tier,
			NumShorts:    body.NumShorts,
			SourceScript: body.SourceScript,
		}
	})
}

func (h *GenerateHandler) generate(
	w http.ResponseWriter,
	r *http.Request,
	build func(generateRequest, request.Tier) request.Spec,
) {
	ctx := r.Context()
	logger := logging.L(ctx)
	start := time.Now()

	var body generateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		logger.Warn("invalid request", zap.Error(err))
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	tier, err := request.ParseTier(body.CostTier)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	spec := build(body, tier)
	outcome, err := h.Coordinator.Execute(ctx, spec, orchestrator.Options{BypassCache: body.NoCache})
	if err != nil {
		status, msg := statusForError(err)
		logger.Warn("generation failed",
			zap.String("operation", string(spec.Operation)),
			zap.Int("status", status),
			zap.Error(err),
		)
		writeError(w, status, msg)
		return
	}

	logger.Info("generation served",
		zap.String("operation", string(spec.Operation)),
		zap.String("fingerprint", outcome.Entry.Fingerprint),
		zap.Bool("cache_hit", outcome.CacheHit),
		zap.Float64("cost_usd", outcome.CostUSD),
		zap.Duration("total_latency_ms", time.Since(start)),
	)

	writeJSON(w, http.StatusOK, generateResponse{
		Fingerprint: outcome.Entry.Fingerprint,
		Operation:   outcome.Entry.Operation,
		Provider:    outcome.Entry.Provider,
		CacheHit:    outcome.CacheHit,
		CostUSD:     outcome.CostUSD,
		CreatedAt:   outcome.Entry.CreatedAt,
		Result:      outcome.Entry.Payload,
	})
}

// statusForError maps orchestration failures to HTTP statuses. Upstream
// response bodies never reach the client.
func statusForError(err error) (int, string) {
	var failure *provider.Failure
	if errors.As(err, &failure) {
		switch failure.Kind {
		case provider.KindInvalidInput:
			return http.StatusBadRequest, "request rejected by provider"
		case provider.KindTimeout:
			return http.StatusGatewayTimeout, "provider timed out"
		}
		return http.StatusBadGateway, "provider unavailable"
	}

	var chainErr *fallback.ChainError
	if errors.As(err, &chainErr) {
		return http.StatusBadGateway, chainErr.Error()
	}

	return http.StatusBadRequest, err.Error()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
