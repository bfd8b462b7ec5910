package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"mediagen-gateway/internal/request"
)

// GoogleTTS is the free speech fallback: the public translate endpoint,
// fetched in chunks and concatenated (the gTTS approach). Zero cost, basic
// quality, no credentials.
type GoogleTTS struct {
	baseURL    string
	outputDir  string
	language   string
	httpClient *http.Client
	logger     *zap.Logger
}

type GoogleTTSConfig struct {
	BaseURL   string // default https://translate.google.com
	OutputDir string
	Language  string // default "en"

	HTTPClient *http.Client
}

// Each chunk must stay under the endpoint's query length limit.
const ttsChunkChars = 200

func NewGoogleTTS(cfg GoogleTTSConfig, logger *zap.Logger) (*GoogleTTS, error) {
	if cfg.OutputDir == "" {
		return nil, errors.New("googletts: OutputDir is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://translate.google.com"
	}
	language := cfg.Language
	if language == "" {
		language = "en"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = defaultHTTPClient()
	}
	return &GoogleTTS{
		baseURL:    strings.TrimRight(baseURL, "/"),
		outputDir:  cfg.OutputDir,
		language:   language,
		httpClient: httpClient,
		logger:     logger.Named("googletts"),
	}, nil
}

func (p *GoogleTTS) ID() string { return "googletts" }

func (p *GoogleTTS) Attempt(ctx context.Context, spec request.Spec) (Result, error) {
	start := time.Now()

	text := spec.SourceScript
	if strings.TrimSpace(text) == "" {
		return Result{}, NewFailure(KindInvalidInput, p.ID(), errors.New("narration text is empty"))
	}

	var audio []byte
	for _, chunk := range splitChunks(text, ttsChunkChars) {
		part, err := p.fetchChunk(ctx, chunk)
		if err != nil {
			return Result{}, err
		}
		audio = append(audio, part...)
	}
	if len(audio) == 0 {
		return Result{}, NewFailure(KindUnavailable, p.ID(), errors.New("empty audio response"))
	}

	path, err := writeAudioFile(p.outputDir, p.ID(), text, audio)
	if err != nil {
		return Result{}, NewFailure(KindUnavailable, p.ID(), err)
	}

	payload, err := json.Marshal(NarrationPayload{AudioPath: path, Chars: len(text)})
	if err != nil {
		return Result{}, NewFailure(KindUnavailable, p.ID(), err)
	}

	p.logger.Info("narration synthesized",
		zap.Int("chars", len(text)),
		zap.String("path", path),
		zap.Duration("duration", time.Since(start)),
	)

	// Free synthesizer: no cost units.
	return Result{Payload: payload, CostUSD: 0}, nil
}

func (p *GoogleTTS) fetchChunk(ctx context.Context, chunk string) ([]byte, error) {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", p.language)
	q.Set("q", chunk)

	endpoint := p.baseURL + "/translate_tts?" + q.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, NewFailure(KindInvalidInput, p.ID(), err)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyErr(p.ID(), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, failFromResponse(p.logger, p.ID(), resp)
	}
	return drainBody(resp.Body, 16<<20), nil
}

// splitChunks breaks text into pieces of at most size characters, cutting
// on word boundaries where possible.
func splitChunks(text string, size int) []string {
	words := strings.Fields(text)
	var chunks []string
	var current strings.Builder

	for _, word := range words {
		if current.Len() > 0 && current.Len()+1+len(word) > size {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
