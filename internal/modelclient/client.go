// Package modelclient is the provider-agnostic model abstraction described
// in §4.4: one Client interface with Anthropic, OpenAI and OpenCode-compatible
// adapters behind it, selected by configuration priority, each call wrapped
// in retry/backoff and rate limiting.
package modelclient

import (
	"context"
	"errors"

	"github.com/ternarybob/reviewsvc/internal/apperr"
)

// Request is a provider-agnostic single-turn completion request.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float32
}

// Response is a provider-agnostic completion result.
type Response struct {
	Text             string
	Provider         string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// Client generates content from a single provider.
type Client interface {
	// Generate issues one completion request, internally retrying on
	// transient failures per §4.4.
	Generate(ctx context.Context, req Request) (*Response, error)
	// Provider names the adapter backing this client (for ModelUsage).
	Provider() string
}

// ErrNotConfigured is returned by NewFromConfig when no provider has usable
// credentials, and is the sentinel ModelError cause checkers/orchestrators
// match against to treat AI-backed stages as skippable (§8: "model not
// configured").
var ErrNotConfigured = errors.New("no model provider configured")

// NotConfiguredError wraps ErrNotConfigured in the closed apperr taxonomy.
func NotConfiguredError() error {
	return apperr.Wrap(apperr.KindModel, "no model provider is configured", ErrNotConfigured)
}

// IsNotConfigured reports whether err (or any error it wraps) is
// ErrNotConfigured.
func IsNotConfigured(err error) bool {
	return errors.Is(err, ErrNotConfigured)
}
