package modelclient

import (
	"context"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"

	"github.com/ternarybob/reviewsvc/internal/apperr"
)

// langchainClient adapts langchaingo's OpenAI-compatible LLM to Client.
// It backs both the OpenAI adapter and the OpenCode-compatible adapter
// (§4.4, second and third providers in the selection priority), which
// differ only in which base URL and provider label they use.
type langchainClient struct {
	llm      llms.Model
	model    string
	provider string
	retry    RetryConfig
	limiter  *rate.Limiter
}

func newOpenAIClient(apiKey, model string) (*langchainClient, error) {
	llm, err := openai.New(openai.WithToken(apiKey), openai.WithModel(model))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindModel, "construct openai client", err)
	}
	return &langchainClient{
		llm:      llm,
		model:    model,
		provider: "openai",
		retry:    DefaultRetryConfig(),
		limiter:  rate.NewLimiter(rate.Limit(defaultRequestsPerSecond), defaultRequestsPerSecond),
	}, nil
}

func newOpenCodeClient(apiKey, baseURL, model string) (*langchainClient, error) {
	opts := []openai.Option{openai.WithToken(apiKey), openai.WithModel(model)}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindModel, "construct opencode client", err)
	}
	return &langchainClient{
		llm:      llm,
		model:    model,
		provider: "opencode",
		retry:    DefaultRetryConfig(),
		limiter:  rate.NewLimiter(rate.Limit(defaultRequestsPerSecond), defaultRequestsPerSecond),
	}, nil
}

func (c *langchainClient) Provider() string { return c.provider }

func (c *langchainClient) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultCallTimeout)
	defer cancel()

	callOpts := []llms.CallOption{}
	if req.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(req.MaxTokens))
	}
	if req.Temperature > 0 {
		callOpts = append(callOpts, llms.WithTemperature(float64(req.Temperature)))
	}

	messages := []llms.MessageContent{}
	if req.SystemPrompt != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, req.SystemPrompt))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, req.UserPrompt))

	resp, err := withRetry(ctx, c.retry, c.limiter, func() (*Response, error) {
		completion, err := c.llm.GenerateContent(ctx, messages, callOpts...)
		if err != nil {
			return nil, err
		}
		if len(completion.Choices) == 0 {
			return nil, apperr.New(apperr.KindModel, "empty completion from provider")
		}
		choice := completion.Choices[0]
		return &Response{
			Text:             choice.Content,
			Provider:         c.provider,
			Model:            c.model,
			PromptTokens:     intFromInfo(choice.GenerationInfo, "PromptTokens"),
			CompletionTokens: intFromInfo(choice.GenerationInfo, "CompletionTokens"),
		}, nil
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindModel, c.provider+" completion failed", err)
	}
	return resp, nil
}

func intFromInfo(info map[string]interface{}, key string) int {
	if info == nil {
		return 0
	}
	if v, ok := info[key].(int); ok {
		return v
	}
	return 0
}
