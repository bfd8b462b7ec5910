package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"mediagen-gateway/internal/provider"
	"mediagen-gateway/internal/request"
)

// OutputType selects which deliverables an episode run produces: the
// long-form video stages, the extracted shorts, or both.
type OutputType string

const (
	OutputLong   OutputType = "long"
	OutputShorts OutputType = "shorts"
	OutputBoth   OutputType = "both"
)

// ParseOutputType maps the user-facing spelling to an OutputType. Empty
// input selects both deliverables.
func ParseOutputType(s string) (OutputType, error) {
	switch out := OutputType(strings.ToLower(strings.TrimSpace(s))); out {
	case "":
		return OutputBoth, nil
	case OutputLong, OutputShorts, OutputBoth:
		return out, nil
	}
	return "", fmt.Errorf("unknown output type %q (valid: long, shorts, both)", s)
}

// PipelineRequest describes one recurring episode to produce end to end.
type PipelineRequest struct {
	Channel         string
	Theme           string
	Week            int
	Tier            request.Tier
	Output          OutputType // empty means both
	NumShorts       int        // 0 skips shorts extraction under "both"
	DurationMinutes int
	Voice           string
	ImageQuery      string
	NumImages       int
}

// PipelineResult collects the per-stage outcomes of one episode run. Stages
// the output type excluded are nil.
type PipelineResult struct {
	Script    Outcome  `json:"script"`
	Titles    Outcome  `json:"titles"`
	Shorts    *Outcome `json:"shorts,omitempty"`
	Narration *Outcome `json:"narration,omitempty"`
	Images    *Outcome `json:"images,omitempty"`

	TotalCostUSD float64 `json:"total_cost_usd"`
	CacheHits    int     `json:"cache_hits"`
}

// PlanSpecs expands a pipeline request into the operations it will run, in
// execution order. Used for dry-run estimates, so the narration spec carries
// no source text and the estimator sizes it from the target duration.
func PlanSpecs(req PipelineRequest) []request.Spec {
	output := req.Output
	if output == "" {
		output = OutputBoth
	}

	specs := []request.Spec{
		{
			Operation:       request.OpScript,
			Channel:         req.Channel,
			Theme:           req.Theme,
			Week:            req.Week,
			Tier:            req.Tier,
			DurationMinutes: req.DurationMinutes,
		},
		{
			Operation: request.OpTitles,
			Channel:   req.Channel,
			Theme:     req.Theme,
			Week:      req.Week,
			Tier:      req.Tier,
		},
	}
	// A shorts-only run always extracts; under "both" a zero count means
	// the caller wants just the long video.
	if output == OutputShorts || (output == OutputBoth && req.NumShorts > 0) {
		specs = append(specs, request.Spec{
			Operation: request.OpShortsExtraction,
			Channel:   req.Channel,
			Theme:     req.Theme,
			Week:      req.Week,
			Tier:      req.Tier,
			NumShorts: req.NumShorts,
		})
	}
	if output != OutputShorts {
		specs = append(specs,
			request.Spec{
				Operation:       request.OpNarration,
				Channel:         req.Channel,
				Theme:           req.Theme,
				Week:            req.Week,
				Tier:            req.Tier,
				Voice:           req.Voice,
				DurationMinutes: req.DurationMinutes,
			},
			request.Spec{
				Operation:  request.OpImages,
				Channel:    req.Channel,
				Theme:      req.Theme,
				Week:       req.Week,
				Tier:       req.Tier,
				ImageQuery: req.ImageQuery,
				NumImages:  req.NumImages,
			},
		)
	}
	return specs
}

// RunPipeline produces one full episode: script first, then titles, shorts,
// narration and images, threading the generated script text into the stages
// that consume it. Any stage failure aborts the run; completed stages stay
// cached so a retry resumes where it stopped.
func (c *Coordinator) RunPipeline(ctx context.Context, req PipelineRequest, opts Options) (PipelineResult, error) {
	var result PipelineResult

	specs := PlanSpecs(req)
	script, err := c.Execute(ctx, specs[0], opts)
	if err != nil {
		return result, fmt.Errorf("script stage: %w", err)
	}
	result.Script = script

	var sp provider.ScriptPayload
	if err := json.Unmarshal(script.Entry.Payload, &sp); err != nil {
		return result, fmt.Errorf("decode script payload: %w", err)
	}

	for _, spec := range specs[1:] {
		switch spec.Operation {
		case request.OpShortsExtraction, request.OpNarration:
			spec.SourceScript = sp.Script
		}

		out, err := c.Execute(ctx, spec, opts)
		if err != nil {
			return result, fmt.Errorf("%s stage: %w", spec.Operation, err)
		}

		switch spec.Operation {
		case request.OpTitles:
			result.Titles = out
		case request.OpShortsExtraction:
			result.Shorts = &out
		case request.OpNarration:
			result.Narration = &out
		case request.OpImages:
			result.Images = &out
		}
	}

	for _, out := range result.stages() {
		result.TotalCostUSD += out.CostUSD
		if out.CacheHit {
			result.CacheHits++
		}
	}

	c.logger.Info("pipeline completed",
		zap.String("channel", req.Channel),
		zap.String("theme", req.Theme),
		zap.Int("week", req.Week),
		zap.Float64("total_cost_usd", result.TotalCostUSD),
		zap.Int("cache_hits", result.CacheHits),
	)
	return result, nil
}

func (r *PipelineResult) stages() []Outcome {
	stages := []Outcome{r.Script, r.Titles}
	for _, extra := range []*Outcome{r.Shorts, r.Narration, r.Images} {
		if extra != nil {
			stages = append(stages, *extra)
		}
	}
	return stages
}
