package provider

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// defaultHTTPClient builds a pooled transport shared by the adapters.
func defaultHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// apiError is the common {"error": {...}} shape most upstreams return.
type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// errorMessage extracts a short upstream error message from a non-2xx body.
// Used for logging only; the message never reaches callers verbatim.
func errorMessage(body []byte) string {
	var parsed apiError
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return truncate(parsed.Error.Message, 200)
	}
	return truncate(string(body), 200)
}

// drainBody reads at most limit bytes and closes the body.
func drainBody(rc io.ReadCloser, limit int64) []byte {
	defer rc.Close()
	body, _ := io.ReadAll(io.LimitReader(rc, limit))
	return body
}

// truncate limits string length for logging.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// failFromResponse drains and classifies a non-2xx upstream response. The
// body is logged, never returned to callers.
func failFromResponse(logger *zap.Logger, providerID string, resp *http.Response) *Failure {
	errBody := drainBody(resp.Body, 4096)
	kind := classifyStatus(resp.StatusCode)
	logger.Warn("upstream error",
		zap.Int("status", resp.StatusCode),
		zap.String("kind", string(kind)),
		zap.String("message", errorMessage(errBody)),
	)
	failure := NewFailure(kind, providerID, fmt.Errorf("upstream status %d", resp.StatusCode))
	failure.RetryAfter = retryAfterHint(resp)
	return failure
}

const maxRetryAfter = 5 * time.Minute

// retryAfterHint extracts the retry delay from a Retry-After header, which
// may be either seconds or an HTTP date. Returns 0 when absent or invalid.
func retryAfterHint(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(strings.TrimSpace(header)); err == nil && seconds > 0 {
		d := time.Duration(seconds) * time.Second
		if d > maxRetryAfter {
			d = maxRetryAfter
		}
		return d
	}

	if t, err := http.ParseTime(header); err == nil {
		if d := time.Until(t); d > 0 {
			if d > maxRetryAfter {
				d = maxRetryAfter
			}
			return d
		}
	}
	return 0
}
