package modelclient

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/reviewsvc/internal/config"
)

// NewFromConfig selects and constructs a Client following the priority
// named in §4.4: Anthropic (API key or OAuth token), then OpenAI, then
// OpenCode-compatible, then "not configured". The returned error is
// ErrNotConfigured-compatible (check with IsNotConfigured) when no
// provider has usable credentials; callers treat that as "skip AI stages",
// not a hard failure (§8).
func NewFromConfig(cfg *config.Config, logger arbor.ILogger) (Client, error) {
	if cfg.Anthropic.APIKey != "" {
		kind := "api key"
		if config.IsOAuthKey(cfg.Anthropic.APIKey) {
			kind = "oauth token"
		}
		if logger != nil {
			logger.Info().Str("provider", "anthropic").Str("credential", kind).Msg("model client selected")
		}
		return newAnthropicClient(cfg.Anthropic.APIKey, cfg.Anthropic.Model), nil
	}

	if cfg.OpenAI.APIKey != "" {
		if logger != nil {
			logger.Info().Str("provider", "openai").Msg("model client selected")
		}
		return newOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	}

	if cfg.OpenCode.APIKey != "" {
		if logger != nil {
			logger.Info().Str("provider", "opencode").Msg("model client selected")
		}
		return newOpenCodeClient(cfg.OpenCode.APIKey, cfg.OpenCode.BaseURL, cfg.OpenCode.Model)
	}

	if logger != nil {
		logger.Warn().Msg("no model provider configured - AI-backed stages will be skipped")
	}
	return nil, NotConfiguredError()
}
