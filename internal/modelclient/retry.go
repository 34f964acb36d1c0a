package modelclient

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// defaultCallTimeout bounds the wall-clock budget of one Generate call,
// retries included (§4.4: "total wall-clock budget per call is bounded
// (default 120s) and produces Timeout on exhaustion").
const defaultCallTimeout = 120 * time.Second

// RetryConfig mirrors the teacher's exponential-backoff-with-jitter retry
// shape, generalized from a provider-specific rate-limit window to a
// provider-agnostic one (§4.4).
type RetryConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// DefaultRetryConfig is used by every adapter unless overridden. MaxRetries
// is 3, giving 4 total attempts (the first call plus 3 retries), per §4.4's
// "max attempts 4".
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        8 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// ModelErrorKind classifies a provider failure for retry eligibility and
// observability (§4.4: "ModelError ∈ {NotConfigured, Unauthorized,
// RateLimited, Timeout, Transport, InvalidResponse}").
type ModelErrorKind string

const (
	ModelErrorNotConfigured   ModelErrorKind = "not_configured"
	ModelErrorUnauthorized    ModelErrorKind = "unauthorized"
	ModelErrorRateLimited     ModelErrorKind = "rate_limited"
	ModelErrorTimeout         ModelErrorKind = "timeout"
	ModelErrorTransport       ModelErrorKind = "transport"
	ModelErrorInvalidResponse ModelErrorKind = "invalid_response"
)

// retryable reports whether a failure of this kind should trigger another
// attempt (§4.4: "RateLimited and Transport are retried; Unauthorized and
// InvalidResponse are not").
func (k ModelErrorKind) retryable() bool {
	switch k {
	case ModelErrorRateLimited, ModelErrorTransport:
		return true
	default:
		return false
	}
}

// ModelError wraps a provider failure with its retry classification. It is
// what withRetry ultimately returns once retries are exhausted or the
// failure is non-retryable.
type ModelError struct {
	Kind  ModelErrorKind
	Cause error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
}

func (e *ModelError) Unwrap() error { return e.Cause }

// classifyModelError maps a raw provider/transport error to a ModelErrorKind.
func classifyModelError(err error) ModelErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return ModelErrorTimeout
	}
	s := strings.ToLower(err.Error())
	switch {
	case strings.Contains(s, "401") || strings.Contains(s, "unauthorized") ||
		strings.Contains(s, "invalid_api_key") || strings.Contains(s, "invalid x-api-key") ||
		strings.Contains(s, "authentication"):
		return ModelErrorUnauthorized
	case IsRateLimitError(err):
		return ModelErrorRateLimited
	case strings.Contains(s, "invalid_response") || strings.Contains(s, "invalid response") ||
		strings.Contains(s, "malformed") || strings.Contains(s, "empty completion"):
		return ModelErrorInvalidResponse
	case strings.Contains(s, "timeout") || strings.Contains(s, "deadline exceeded"):
		return ModelErrorTimeout
	default:
		return ModelErrorTransport
	}
}

// CalculateBackoff computes the delay before retry attempt, with up to 20%
// jitter applied to avoid synchronized retries across concurrent criterion
// checks.
func (c RetryConfig) CalculateBackoff(attempt int) time.Duration {
	backoff := float64(c.InitialBackoff)
	for i := 0; i < attempt; i++ {
		backoff *= c.BackoffMultiplier
	}
	if backoff > float64(c.MaxBackoff) {
		backoff = float64(c.MaxBackoff)
	}
	jitter := backoff * 0.2 * rand.Float64()
	return time.Duration(backoff + jitter)
}

// IsRateLimitError reports whether err looks like a 429/rate-limit response
// from any of the wrapped providers.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "429") ||
		strings.Contains(s, "rate_limit") ||
		strings.Contains(s, "RESOURCE_EXHAUSTED") ||
		strings.Contains(s, "overloaded")
}

// withRetry runs call, retrying on transient errors per cfg, honoring
// limiter as a token-bucket gate before every attempt including the first.
// A failure is retried only while its classified ModelErrorKind is
// retryable (§4.4); Unauthorized and InvalidResponse fail immediately.
func withRetry(ctx context.Context, cfg RetryConfig, limiter *rate.Limiter, call func() (*Response, error)) (*Response, error) {
	var lastErr error
	var lastKind ModelErrorKind
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return nil, &ModelError{Kind: classifyModelError(err), Cause: err}
			}
		}

		resp, err := call()
		if err == nil {
			return resp, nil
		}
		lastErr = err
		lastKind = classifyModelError(err)

		if attempt == cfg.MaxRetries || !lastKind.retryable() {
			break
		}

		select {
		case <-ctx.Done():
			return nil, &ModelError{Kind: classifyModelError(ctx.Err()), Cause: ctx.Err()}
		case <-time.After(cfg.CalculateBackoff(attempt)):
		}
	}
	return nil, &ModelError{Kind: lastKind, Cause: lastErr}
}
