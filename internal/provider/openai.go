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

// OpenAIConfig configures the primary text provider.
type OpenAIConfig struct {
	BaseURL string // default https://api.openai.com
	APIKey  string
	Pricing pricing.Table

	// Custom HTTP client (for testing or special configs).
	HTTPClient *http.Client
}

func (c *OpenAIConfig) withDefaults() OpenAIConfig {
	cfg := *c
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return cfg
}

// OpenAI serves the text capability via the chat completions API.
type OpenAI struct {
	cfg        OpenAIConfig
	httpClient *http.Client
	logger     *zap.Logger
}

func NewOpenAI(cfg OpenAIConfig, logger *zap.Logger) (*OpenAI, error) {
	cfg = cfg.withDefaults()
	if cfg.APIKey == "" {
		return nil, errors.New("openai: APIKey is required")
	}
	if cfg.Pricing == nil {
		return nil, errors.New("openai: pricing table is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = defaultHTTPClient()
	}
	return &OpenAI{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     logger.Named("openai"),
	}, nil
}

func (p *OpenAI) ID() string { return "openai" }

type openaiChatRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	Temperature float32         `json:"temperature,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiChatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message openaiMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (p *OpenAI) Attempt(ctx context.Context, spec request.Spec) (Result, error) {
	start := time.Now()

	prompt, err := buildPrompt(spec)
	if err != nil {
		return Result{}, NewFailure(KindInvalidInput, p.ID(), err)
	}

	body, err := json.Marshal(openaiChatRequest{
		Model: modelForTier(spec.Tier),
		Messages: []openaiMessage{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: prompt.User},
		},
		Temperature: 0.7,
		MaxTokens:   prompt.MaxTokens,
	})
	if err != nil {
		return Result{}, NewFailure(KindInvalidInput, p.ID(), fmt.Errorf("marshal request: %w", err))
	}

	url := p.cfg.BaseURL + "/v1/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{}, NewFailure(KindInvalidInput, p.ID(), err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return Result{}, classifyErr(p.ID(), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, failFromResponse(p.logger, p.ID(), resp)
	}

	var parsed openaiChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		resp.Body.Close()
		return Result{}, NewFailure(KindUnavailable, p.ID(), fmt.Errorf("decode response: %w", err))
	}
	resp.Body.Close()

	if len(parsed.Choices) == 0 {
		return Result{}, NewFailure(KindUnavailable, p.ID(), errors.New("no choices in response"))
	}

	payload, err := payloadForText(spec.Operation, parsed.Choices[0].Message.Content, spec)
	if err != nil {
		return Result{}, NewFailure(KindUnavailable, p.ID(), err)
	}

	var cost float64
	if parsed.Usage != nil {
		cost = p.cfg.Pricing.TextCost(spec.Tier, spec.Operation,
			parsed.Usage.PromptTokens, parsed.Usage.CompletionTokens)
	}

	p.logger.Info("text generation completed",
		zap.String("operation", string(spec.Operation)),
		zap.String("model", parsed.Model),
		zap.Float64("cost_usd", cost),
		zap.Duration("duration", time.Since(start)),
	)

	return Result{Payload: payload, CostUSD: cost}, nil
}
