package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"mediagen-gateway/internal/orchestrator"
	"mediagen-gateway/internal/request"
	"mediagen-gateway/pkg/logging/logging"
)

// estimateRequest describes a planned episode to price. Estimation never
// touches the cache or any provider, so it is safe to call freely.
type estimateRequest struct {
	Channel         string `json:"channel"`
	Theme           string `json:"theme"`
	Week            int    `json:"week"`
	OutputType      string `json:"output_type"` // long, shorts or both (default)
	CostTier        string `json:"cost_tier"`
	NumShorts       int    `json:"num_shorts"`
	DurationMinutes int    `json:"duration_minutes"`
	NumImages       int    `json:"num_images"`
}

// Estimate handles POST /api/estimate.
func (h *GenerateHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	logger := logging.L(r.Context())

	var body estimateRequest
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

	output, err := orchestrator.ParseOutputType(body.OutputType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	specs := orchestrator.PlanSpecs(orchestrator.PipelineRequest{
		Channel:         body.Channel,
		Theme:           body.Theme,
		Week:            body.Week,
		Tier:            tier,
		Output:          output,
		NumShorts:       body.NumShorts,
		DurationMinutes: body.DurationMinutes,
		NumImages:       body.NumImages,
	})
	estimate := h.Coordinator.Estimate(specs, tier)

	logger.Info("estimate served",
		zap.String("tier", string(tier)),
		zap.Float64("total_usd", estimate.Total.USD),
	)
	writeJSON(w, http.StatusOK, estimate)
}
