package modelclient

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/time/rate"

	"github.com/ternarybob/reviewsvc/internal/apperr"
	"github.com/ternarybob/reviewsvc/internal/config"
)

// anthropicClient adapts the Anthropic SDK to Client (§4.4, first provider
// in the selection priority).
type anthropicClient struct {
	client  anthropic.Client
	model   string
	retry   RetryConfig
	limiter *rate.Limiter
}

// defaultRequestsPerSecond caps outbound calls to one adapter instance,
// mirroring the teacher's per-client token bucket in internal/eodhd/client.go.
const defaultRequestsPerSecond = 5

// newAnthropicClient builds an adapter. apiKey may be a plain API key or an
// OAuth access token (sk-ant-oat...); an OAuth token is sent as the bearer
// credential and a plain key as the SDK's API key.
func newAnthropicClient(apiKey, model string) *anthropicClient {
	credential := option.WithAPIKey(apiKey)
	if config.IsOAuthKey(apiKey) {
		credential = option.WithAuthToken(apiKey)
	}
	return &anthropicClient{
		client:  anthropic.NewClient(credential),
		model:   model,
		retry:   DefaultRetryConfig(),
		limiter: rate.NewLimiter(rate.Limit(defaultRequestsPerSecond), defaultRequestsPerSecond),
	}
}

func (c *anthropicClient) Provider() string { return "anthropic" }

func (c *anthropicClient) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultCallTimeout)
	defer cancel()

	model := c.model
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserPrompt)),
		},
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(req.Temperature))
	}

	resp, err := withRetry(ctx, c.retry, c.limiter, func() (*Response, error) {
		msg, err := c.client.Messages.New(ctx, params)
		if err != nil {
			return nil, err
		}
		return toResponse(msg, model), nil
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindModel, "anthropic completion failed", err)
	}
	return resp, nil
}

func toResponse(msg *anthropic.Message, model string) *Response {
	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return &Response{
		Text:             text.String(),
		Provider:         "anthropic",
		Model:            model,
		PromptTokens:     int(msg.Usage.InputTokens),
		CompletionTokens: int(msg.Usage.OutputTokens),
	}
}
