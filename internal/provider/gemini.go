package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"mediagen-gateway/internal/pricing"
	"mediagen-gateway/internal/request"
)

// geminiModelFor maps the tier's chat model onto a Gemini equivalent, so
// the fallback produces comparable output to the primary.
func geminiModelFor(tier request.Tier) string {
	switch tier {
	case request.TierHigh:
		return "gemini-1.5-pro"
	default:
		return "gemini-2.0-flash"
	}
}

// GeminiConfig configures the fallback text provider.
type GeminiConfig struct {
	BaseURL string // default https://generativelanguage.googleapis.com
	APIKey  string
	Pricing pricing.Table

	HTTPClient *http.Client
}

func (c *GeminiConfig) withDefaults() GeminiConfig {
	cfg := *c
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return cfg
}

// Gemini serves the text capability via the generateContent API.
type Gemini struct {
	cfg        GeminiConfig
	httpClient *http.Client
	logger     *zap.Logger
}

func NewGemini(cfg GeminiConfig, logger *zap.Logger) (*Gemini, error) {
	cfg = cfg.withDefaults()
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: APIKey is required")
	}
	if cfg.Pricing == nil {
		return nil, errors.New("gemini: pricing table is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = defaultHTTPClient()
	}
	return &Gemini{cfg: cfg, httpClient: httpClient, logger: logger.Named("gemini")}, nil
}

func (p *Gemini) ID() string { return "gemini" }

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"system_instruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float32 `json:"temperature,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

func (p *Gemini) Attempt(ctx context.Context, spec request.Spec) (Result, error) {
	start := time.Now()

	prompt, err := buildPrompt(spec)
	if err != nil {
		return Result{}, NewFailure(KindInvalidInput, p.ID(), err)
	}

	body, err := json.Marshal(geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: prompt.System}}},
		Contents:          []geminiContent{{Parts: []geminiPart{{Text: prompt.User}}}},
		GenerationConfig:  geminiGenConfig{MaxOutputTokens: prompt.MaxTokens, Temperature: 0.7},
	})
	if err != nil {
		return Result{}, NewFailure(KindInvalidInput, p.ID(), fmt.Errorf("marshal request: %w", err))
	}

	model := geminiModelFor(spec.Tier)
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", p.cfg.BaseURL, model, p.cfg.APIKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{}, NewFailure(KindInvalidInput, p.ID(), err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return Result{}, classifyErr(p.ID(), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, failFromResponse(p.logger, p.ID(), resp)
	}

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		resp.Body.Close()
		return Result{}, NewFailure(KindUnavailable, p.ID(), fmt.Errorf("decode response: %w", err))
	}
	resp.Body.Close()

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return Result{}, NewFailure(KindUnavailable, p.ID(), errors.New("no candidates in response"))
	}

	var text strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}

	payload, err := payloadForText(spec.Operation, text.String(), spec)
	if err != nil {
		return Result{}, NewFailure(KindUnavailable, p.ID(), err)
	}

	var cost float64
	if parsed.UsageMetadata != nil {
		cost = p.cfg.Pricing.TextCost(spec.Tier, spec.Operation,
			parsed.UsageMetadata.PromptTokenCount, parsed.UsageMetadata.CandidatesTokenCount)
	}

	p.logger.Info("text generation completed",
		zap.String("operation", string(spec.Operation)),
		zap.String("model", model),
		zap.Float64("cost_usd", cost),
		zap.Duration("duration", time.Since(start)),
	)

	return Result{Payload: payload, CostUSD: cost}, nil
}
