package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap/zaptest"

	"mediagen-gateway/internal/cache"
	"mediagen-gateway/internal/fallback"
	"mediagen-gateway/internal/handlers"
	"mediagen-gateway/internal/orchestrator"
	"mediagen-gateway/internal/pricing"
	"mediagen-gateway/internal/provider"
	"mediagen-gateway/internal/ratelimit"
	"mediagen-gateway/internal/request"
)

type okProvider struct{}

func (okProvider) ID() string { return "text" }

func (okProvider) Attempt(ctx context.Context, spec request.Spec) (provider.Result, error) {
	payload, _ := json.Marshal(provider.ScriptPayload{Script: "SEGMENT 1: text"})
	return provider.Result{Payload: payload, CostUSD: 0.01}, nil
}

func newServer(t *testing.T, apiKey string, limit int) *httptest.Server {
	t.Helper()

	registry := fallback.NewRegistry(time.Second, zaptest.NewLogger(t))
	registry.Register(provider.CapabilityText, okProvider{})
	coordinator := orchestrator.New(
		cache.NewMemoryStore(),
		registry,
		pricing.NewEstimator(pricing.Default()),
		zaptest.NewLogger(t),
	)

	r := chi.NewRouter()
	SetupRouter(r, zaptest.NewLogger(t), handlers.NewGenerateHandler(coordinator),
		apiKey, ratelimit.NewMemoryLimiter(limit, time.Minute))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func postScript(t *testing.T, srv *httptest.Server, apiKey string) *http.Response {
	t.Helper()
	body := []byte(`{"channel":"devotional","theme":"psalms","cost_tier":"free"}`)
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/generate/script", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func TestHealthIsOpen(t *testing.T) {
	srv := newServer(t, "secret", 10)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("get health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", resp.StatusCode)
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode health body: %v", err)
	}
	if body.Status != "ok" {
		t.Fatalf("health status field = %q, want ok", body.Status)
	}
}

func TestMetricsIsOpen(t *testing.T) {
	srv := newServer(t, "secret", 10)

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status = %d", resp.StatusCode)
	}
}

func TestAPIRequiresKey(t *testing.T) {
	srv := newServer(t, "secret", 10)

	resp := postScript(t, srv, "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status without key = %d, want 401", resp.StatusCode)
	}

	ok := postScript(t, srv, "secret")
	defer ok.Body.Close()
	if ok.StatusCode != http.StatusOK {
		t.Fatalf("status with key = %d, want 200", ok.StatusCode)
	}
}

func TestAPIKeyDisabledWhenUnset(t *testing.T) {
	srv := newServer(t, "", 10)

	resp := postScript(t, srv, "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 with auth disabled", resp.StatusCode)
	}
}

func TestRateLimitRejectionShape(t *testing.T) {
	srv := newServer(t, "secret", 2)

	for i := 0; i < 2; i++ {
		resp := postScript(t, srv, "secret")
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d status = %d", i+1, resp.StatusCode)
		}
	}

	resp := postScript(t, srv, "secret")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Fatal("missing Retry-After header")
	}

	var body struct {
		Error             string `json:"error"`
		RetryAfterSeconds int    `json:"retry_after_seconds"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error != "rate_limit_exceeded" {
		t.Fatalf("error = %q", body.Error)
	}
	if body.RetryAfterSeconds <= 0 {
		t.Fatalf("retry_after_seconds = %d, want positive", body.RetryAfterSeconds)
	}
}
