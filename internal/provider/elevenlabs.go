package provider

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"mediagen-gateway/internal/pricing"
	"mediagen-gateway/internal/request"
)

const defaultVoiceID = "21m00Tcm4TlvDq8ikWAM" // "Rachel", the API default

// ElevenLabsConfig configures the premium speech provider.
type ElevenLabsConfig struct {
	BaseURL   string // default https://api.elevenlabs.io
	APIKey    string
	OutputDir string // where synthesized mp3 files land
	Pricing   pricing.Table

	HTTPClient *http.Client
}

func (c *ElevenLabsConfig) withDefaults() ElevenLabsConfig {
	cfg := *c
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.elevenlabs.io"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return cfg
}

// ElevenLabs serves the speech capability. Synthesized audio is written to
// OutputDir and the payload carries the file path.
type ElevenLabs struct {
	cfg        ElevenLabsConfig
	httpClient *http.Client
	logger     *zap.Logger
}

func NewElevenLabs(cfg ElevenLabsConfig, logger *zap.Logger) (*ElevenLabs, error) {
	cfg = cfg.withDefaults()
	if cfg.APIKey == "" {
		return nil, errors.New("elevenlabs: APIKey is required")
	}
	if cfg.OutputDir == "" {
		return nil, errors.New("elevenlabs: OutputDir is required")
	}
	if cfg.Pricing == nil {
		return nil, errors.New("elevenlabs: pricing table is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = defaultHTTPClient()
	}
	return &ElevenLabs{cfg: cfg, httpClient: httpClient, logger: logger.Named("elevenlabs")}, nil
}

func (p *ElevenLabs) ID() string { return "elevenlabs" }

func (p *ElevenLabs) Attempt(ctx context.Context, spec request.Spec) (Result, error) {
	start := time.Now()

	text := spec.SourceScript
	if strings.TrimSpace(text) == "" {
		return Result{}, NewFailure(KindInvalidInput, p.ID(), errors.New("narration text is empty"))
	}

	voice := spec.Voice
	if voice == "" {
		voice = defaultVoiceID
	}

	body, err := json.Marshal(map[string]any{
		"text":     text,
		"model_id": "eleven_multilingual_v2",
	})
	if err != nil {
		return Result{}, NewFailure(KindInvalidInput, p.ID(), err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", p.cfg.BaseURL, voice)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{}, NewFailure(KindInvalidInput, p.ID(), err)
	}
	httpReq.Header.Set("xi-api-key", p.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "audio/mpeg")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return Result{}, classifyErr(p.ID(), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, failFromResponse(p.logger, p.ID(), resp)
	}

	audio := drainBody(resp.Body, 64<<20)
	if len(audio) == 0 {
		return Result{}, NewFailure(KindUnavailable, p.ID(), errors.New("empty audio response"))
	}

	path, err := writeAudioFile(p.cfg.OutputDir, p.ID(), text, audio)
	if err != nil {
		return Result{}, NewFailure(KindUnavailable, p.ID(), err)
	}

	payload, err := json.Marshal(NarrationPayload{AudioPath: path, Chars: len(text)})
	if err != nil {
		return Result{}, NewFailure(KindUnavailable, p.ID(), err)
	}

	cost := p.cfg.Pricing.UnitCost(spec.Tier, request.OpNarration,
		math.Ceil(float64(len(text))/1000))

	p.logger.Info("narration synthesized",
		zap.Int("chars", len(text)),
		zap.String("path", path),
		zap.Float64("cost_usd", cost),
		zap.Duration("duration", time.Since(start)),
	)

	return Result{Payload: payload, CostUSD: cost}, nil
}

// writeAudioFile stores synthesized audio under a content-derived name so
// re-synthesis of the same text lands on the same file.
func writeAudioFile(dir, providerID, text string, audio []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create audio dir: %w", err)
	}
	sum := sha256.Sum256([]byte(text))
	name := fmt.Sprintf("%s-%s.mp3", providerID, hex.EncodeToString(sum[:8]))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return "", fmt.Errorf("write audio file: %w", err)
	}
	return path, nil
}
