package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"mediagen-gateway/internal/request"
)

// Capability names a class of interchangeable backends.
type Capability string

const (
	CapabilityText   Capability = "text"
	CapabilitySpeech Capability = "speech"
	CapabilityImage  Capability = "image"
)

// CapabilityFor maps an operation to the backend class that serves it.
func CapabilityFor(op request.Operation) Capability {
	switch op {
	case request.OpNarration:
		return CapabilitySpeech
	case request.OpImages:
		return CapabilityImage
	default:
		return CapabilityText
	}
}

// Result is a successful provider attempt.
type Result struct {
	Payload json.RawMessage
	CostUSD float64
}

// Provider is one backend adapter. Attempt performs exactly one upstream
// call; retries and fallback ordering belong to the chain, not the adapter.
type Provider interface {
	ID() string
	Attempt(ctx context.Context, spec request.Spec) (Result, error)
}

// FailureKind classifies a failed attempt.
type FailureKind string

const (
	KindQuotaExceeded FailureKind = "quota_exceeded"
	KindUnavailable   FailureKind = "unavailable"
	KindInvalidInput  FailureKind = "invalid_input"
	KindTimeout       FailureKind = "timeout"
)

// Failure is the typed error for one provider attempt. Retriable failures
// advance the fallback chain; InvalidInput is a caller error and stops it.
type Failure struct {
	Kind     FailureKind
	Provider string

	// RetryAfter is the upstream's requested wait, when it sent one.
	RetryAfter time.Duration

	cause error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s: %v", f.Provider, f.Kind, f.cause)
}

func (f *Failure) Unwrap() error {
	return f.cause
}

// Retriable reports whether the chain should advance past this failure.
func (f *Failure) Retriable() bool {
	return f.Kind != KindInvalidInput
}

// NewFailure builds a classified attempt failure.
func NewFailure(kind FailureKind, providerID string, cause error) *Failure {
	return &Failure{Kind: kind, Provider: providerID, cause: cause}
}

// classifyStatus maps an upstream HTTP status to a failure kind.
func classifyStatus(status int) FailureKind {
	switch {
	case status == http.StatusTooManyRequests:
		return KindQuotaExceeded
	case status == http.StatusRequestTimeout:
		return KindTimeout
	case status >= 500:
		return KindUnavailable
	default:
		return KindInvalidInput
	}
}

// classifyErr maps a transport-level error to a failure. Deadline errors are
// timeouts; everything else network-shaped is Unavailable.
func classifyErr(providerID string, err error) *Failure {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewFailure(KindTimeout, providerID, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewFailure(KindTimeout, providerID, err)
	}
	return NewFailure(KindUnavailable, providerID, err)
}
