package pricing

import (
	"math"

	"mediagen-gateway/internal/request"
)

// StageEstimate is the predicted spend for a single operation.
type StageEstimate struct {
	Units float64 `json:"units"` // tokens for text ops, 1k-chars or images otherwise
	USD   float64 `json:"usd"`
}

// CostEstimate is the result of a dry run. Derived data only, never
// persisted.
type CostEstimate struct {
	Tier     request.Tier                        `json:"tier"`
	PerStage map[request.Operation]StageEstimate `json:"per_stage"`
	Total    StageEstimate                       `json:"total"`
	Currency string                              `json:"currency"`
}

// Narration pacing per tier, in spoken words per minute. Faster voices are
// only available on paid tiers.
func wordsPerMinute(tier request.Tier) int {
	switch tier {
	case request.TierLow:
		return 140
	case request.TierHigh:
		return 150
	default:
		return 130
	}
}

const (
	// Rough token heuristic: one token per four characters of text.
	charsPerToken = 4

	// Prompt scaffolding overhead added to the user-supplied text.
	scriptPromptOverheadTokens = 300
	titlesPromptOverheadTokens = 200
	shortsPromptOverheadTokens = 500

	titlesOutputTokens    = 350 // title options + thumbnail options
	tokensPerShort        = 200
	outputTokensPerWord   = 1.4
	defaultDurationMin    = 30
	defaultImageCount     = 10
	narrationCharsPerWord = 6 // includes the trailing space
)

// Estimator computes run costs from the shared price table without any
// network call. Identical inputs always yield identical estimates.
type Estimator struct {
	table Table
}

func NewEstimator(table Table) *Estimator {
	return &Estimator{table: table}
}

// Table exposes the shared price table for live cost accounting.
func (e *Estimator) Table() Table {
	return e.table
}

// Estimate prices a batch of planned operations under one tier. Pure and
// deterministic; powers dry-run mode.
func (e *Estimator) Estimate(specs []request.Spec, tier request.Tier) CostEstimate {
	out := CostEstimate{
		Tier:     tier,
		PerStage: make(map[request.Operation]StageEstimate, len(specs)),
		Currency: "USD",
	}

	for _, raw := range specs {
		spec := raw.Normalize()
		stage := e.estimateStage(spec, tier)

		prev := out.PerStage[spec.Operation]
		out.PerStage[spec.Operation] = StageEstimate{
			Units: prev.Units + stage.Units,
			USD:   prev.USD + stage.USD,
		}
		out.Total.Units += stage.Units
		out.Total.USD += stage.USD
	}
	return out
}

func (e *Estimator) estimateStage(spec request.Spec, tier request.Tier) StageEstimate {
	switch spec.Operation {
	case request.OpScript:
		duration := spec.DurationMinutes
		if duration <= 0 {
			duration = defaultDurationMin
		}
		inputTokens := len(spec.Theme)/charsPerToken + scriptPromptOverheadTokens
		outputTokens := int(float64(duration*wordsPerMinute(tier)) * outputTokensPerWord)
		return StageEstimate{
			Units: float64(inputTokens + outputTokens),
			USD:   e.table.TextCost(tier, spec.Operation, inputTokens, outputTokens),
		}

	case request.OpTitles:
		inputTokens := len(spec.Theme)/charsPerToken + titlesPromptOverheadTokens
		return StageEstimate{
			Units: float64(inputTokens + titlesOutputTokens),
			USD:   e.table.TextCost(tier, spec.Operation, inputTokens, titlesOutputTokens),
		}

	case request.OpShortsExtraction:
		inputTokens := len(spec.SourceScript)/charsPerToken + shortsPromptOverheadTokens
		outputTokens := spec.NumShorts * tokensPerShort
		return StageEstimate{
			Units: float64(inputTokens + outputTokens),
			USD:   e.table.TextCost(tier, spec.Operation, inputTokens, outputTokens),
		}

	case request.OpNarration:
		chars := len(spec.SourceScript)
		if chars == 0 {
			// Planned narration of a script that does not exist yet: size it
			// from the target duration instead.
			duration := spec.DurationMinutes
			if duration <= 0 {
				duration = defaultDurationMin
			}
			chars = duration * wordsPerMinute(tier) * narrationCharsPerWord
		}
		units := math.Ceil(float64(chars) / 1000)
		return StageEstimate{
			Units: units,
			USD:   e.table.UnitCost(tier, spec.Operation, units),
		}

	case request.OpImages:
		n := spec.NumImages
		if n <= 0 {
			n = defaultImageCount
		}
		return StageEstimate{
			Units: float64(n),
			USD:   e.table.UnitCost(tier, spec.Operation, float64(n)),
		}
	}
	return StageEstimate{}
}
