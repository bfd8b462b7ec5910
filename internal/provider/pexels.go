package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"mediagen-gateway/internal/pricing"
	"mediagen-gateway/internal/request"
)

// PexelsConfig configures the primary stock-image provider.
type PexelsConfig struct {
	BaseURL string // default https://api.pexels.com
	APIKey  string
	Pricing pricing.Table

	HTTPClient *http.Client
}

// Pexels serves the image capability via the stock photo search API. The
// payload carries image URLs; downloading is the compositor's business.
type Pexels struct {
	cfg        PexelsConfig
	httpClient *http.Client
	logger     *zap.Logger
}

func NewPexels(cfg PexelsConfig, logger *zap.Logger) (*Pexels, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("pexels: APIKey is required")
	}
	if cfg.Pricing == nil {
		return nil, errors.New("pexels: pricing table is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.pexels.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = defaultHTTPClient()
	}
	return &Pexels{cfg: cfg, httpClient: httpClient, logger: logger.Named("pexels")}, nil
}

func (p *Pexels) ID() string { return "pexels" }

type pexelsResponse struct {
	Photos []struct {
		Src struct {
			Large string `json:"large"`
		} `json:"src"`
	} `json:"photos"`
}

func (p *Pexels) Attempt(ctx context.Context, spec request.Spec) (Result, error) {
	start := time.Now()

	query := spec.ImageQuery
	if query == "" {
		query = spec.Theme
	}
	if strings.TrimSpace(query) == "" {
		return Result{}, NewFailure(KindInvalidInput, p.ID(), errors.New("image query is empty"))
	}
	count := spec.NumImages
	if count <= 0 {
		count = 10
	}

	q := url.Values{}
	q.Set("query", query)
	q.Set("per_page", fmt.Sprint(count))

	endpoint := p.cfg.BaseURL + "/v1/search?" + q.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Result{}, NewFailure(KindInvalidInput, p.ID(), err)
	}
	httpReq.Header.Set("Authorization", p.cfg.APIKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return Result{}, classifyErr(p.ID(), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, failFromResponse(p.logger, p.ID(), resp)
	}

	var parsed pexelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		resp.Body.Close()
		return Result{}, NewFailure(KindUnavailable, p.ID(), fmt.Errorf("decode response: %w", err))
	}
	resp.Body.Close()

	if len(parsed.Photos) == 0 {
		return Result{}, NewFailure(KindUnavailable, p.ID(), errors.New("no photos for query"))
	}

	images := make([]Image, 0, len(parsed.Photos))
	for _, photo := range parsed.Photos {
		images = append(images, Image{URL: photo.Src.Large, Source: p.ID()})
	}

	payload, err := json.Marshal(ImagesPayload{Images: images})
	if err != nil {
		return Result{}, NewFailure(KindUnavailable, p.ID(), err)
	}

	cost := p.cfg.Pricing.UnitCost(spec.Tier, request.OpImages, float64(len(images)))

	p.logger.Info("images fetched",
		zap.String("query", query),
		zap.Int("count", len(images)),
		zap.Float64("cost_usd", cost),
		zap.Duration("duration", time.Since(start)),
	)

	return Result{Payload: payload, CostUSD: cost}, nil
}
