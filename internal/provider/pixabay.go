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

// PixabayConfig configures the fallback stock-image provider.
type PixabayConfig struct {
	BaseURL string // default https://pixabay.com
	APIKey  string
	Pricing pricing.Table

	HTTPClient *http.Client
}

type Pixabay struct {
	cfg        PixabayConfig
	httpClient *http.Client
	logger     *zap.Logger
}

func NewPixabay(cfg PixabayConfig, logger *zap.Logger) (*Pixabay, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("pixabay: APIKey is required")
	}
	if cfg.Pricing == nil {
		return nil, errors.New("pixabay: pricing table is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://pixabay.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = defaultHTTPClient()
	}
	return &Pixabay{cfg: cfg, httpClient: httpClient, logger: logger.Named("pixabay")}, nil
}

func (p *Pixabay) ID() string { return "pixabay" }

type pixabayResponse struct {
	Hits []struct {
		LargeImageURL string `json:"largeImageURL"`
	} `json:"hits"`
}

func (p *Pixabay) Attempt(ctx context.Context, spec request.Spec) (Result, error) {
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
	q.Set("key", p.cfg.APIKey)
	q.Set("q", query)
	q.Set("per_page", fmt.Sprint(count))
	q.Set("image_type", "photo")

	endpoint := p.cfg.BaseURL + "/api/?" + q.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Result{}, NewFailure(KindInvalidInput, p.ID(), err)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return Result{}, classifyErr(p.ID(), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, failFromResponse(p.logger, p.ID(), resp)
	}

	var parsed pixabayResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		resp.Body.Close()
		return Result{}, NewFailure(KindUnavailable, p.ID(), fmt.Errorf("decode response: %w", err))
	}
	resp.Body.Close()

	if len(parsed.Hits) == 0 {
		return Result{}, NewFailure(KindUnavailable, p.ID(), errors.New("no hits for query"))
	}

	images := make([]Image, 0, len(parsed.Hits))
	for _, hit := range parsed.Hits {
		images = append(images, Image{URL: hit.LargeImageURL, Source: p.ID()})
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
