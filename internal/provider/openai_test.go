package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"mediagen-gateway/internal/pricing"
	"mediagen-gateway/internal/request"
)

func titlesSpec() request.Spec {
	return request.Spec{
		Operation: request.OpTitles,
		Channel:   "finance",
		Theme:     "index funds",
		Tier:      request.TierFree,
	}
}

func TestNewOpenAIValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewOpenAI(OpenAIConfig{Pricing: pricing.Default()}, zaptest.NewLogger(t)); err == nil {
		t.Fatal("expected error for missing API key")
	}
	if _, err := NewOpenAI(OpenAIConfig{APIKey: "k"}, zaptest.NewLogger(t)); err == nil {
		t.Fatal("expected error for missing pricing table")
	}
}

func TestOpenAIAttemptSuccess(t *testing.T) {
	t.Parallel()

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")

		var req openaiChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "gpt-3.5-turbo" {
			t.Errorf("free tier should use gpt-3.5-turbo, got %s", req.Model)
		}

		resp := map[string]any{
			"model": req.Model,
			"choices": []map[string]any{
				{"message": map[string]string{
					"role":    "assistant",
					"content": "TITLES:\n1. First title\n2. Second title\n\nTHUMBNAILS:\n1. BIG WIN\n2. DO THIS",
				}},
			},
			"usage": map[string]int{"prompt_tokens": 100, "completion_tokens": 50},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p, err := NewOpenAI(OpenAIConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Pricing: pricing.Default(),
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewOpenAI: %v", err)
	}

	result, err := p.Attempt(context.Background(), titlesSpec())
	if err != nil {
		t.Fatalf("Attempt: %v", err)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("unexpected Authorization header: %s", gotAuth)
	}

	var payload TitlesPayload
	if err := json.Unmarshal(result.Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if len(payload.Titles) != 2 || payload.Titles[0] != "First title" {
		t.Fatalf("unexpected titles: %#v", payload.Titles)
	}
	if len(payload.Thumbnails) != 2 {
		t.Fatalf("unexpected thumbnails: %#v", payload.Thumbnails)
	}
	if result.CostUSD <= 0 {
		t.Fatalf("expected positive live cost, got %v", result.CostUSD)
	}
}

func TestOpenAIAttemptClassifiesStatuses(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status    int
		wantKind  FailureKind
		retriable bool
	}{
		{http.StatusTooManyRequests, KindQuotaExceeded, true},
		{http.StatusInternalServerError, KindUnavailable, true},
		{http.StatusBadRequest, KindInvalidInput, false},
		{http.StatusRequestTimeout, KindTimeout, true},
	}

	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(`{"error":{"message":"nope"}}`))
		}))

		p, err := NewOpenAI(OpenAIConfig{
			BaseURL: srv.URL,
			APIKey:  "k",
			Pricing: pricing.Default(),
		}, zaptest.NewLogger(t))
		if err != nil {
			t.Fatalf("NewOpenAI: %v", err)
		}

		_, err = p.Attempt(context.Background(), titlesSpec())
		srv.Close()

		var failure *Failure
		if !errors.As(err, &failure) {
			t.Fatalf("status %d: expected *Failure, got %v", tc.status, err)
		}
		if failure.Kind != tc.wantKind {
			t.Errorf("status %d: kind %s, want %s", tc.status, failure.Kind, tc.wantKind)
		}
		if failure.Retriable() != tc.retriable {
			t.Errorf("status %d: retriable %v, want %v", tc.status, failure.Retriable(), tc.retriable)
		}
	}
}

func TestOpenAIAttemptTimeout(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer func() {
		close(block)
		srv.Close()
	}()

	p, err := NewOpenAI(OpenAIConfig{
		BaseURL: srv.URL,
		APIKey:  "k",
		Pricing: pricing.Default(),
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewOpenAI: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = p.Attempt(ctx, titlesSpec())

	var failure *Failure
	if !errors.As(err, &failure) {
		t.Fatalf("expected *Failure, got %v", err)
	}
	if failure.Kind != KindTimeout {
		t.Fatalf("expected timeout kind, got %s", failure.Kind)
	}
	if !failure.Retriable() {
		t.Fatal("timeout must be retriable")
	}
}
