// Package config loads the process-wide configuration described in §2.1/§6:
// a TOML file decoded into a typed struct, with environment variables
// applied afterward as overrides.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config is the root process configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Logging   LoggingConfig   `toml:"logging"`
	Review    ReviewConfig    `toml:"review"`
	Grade     GradeConfig     `toml:"grade"`
	Anthropic AnthropicConfig `toml:"anthropic"`
	OpenAI    OpenAIConfig    `toml:"openai"`
	OpenCode  OpenCodeConfig  `toml:"opencode"`
	Workspace WorkspaceConfig `toml:"workspace"`
}

// ServerConfig controls the HTTP transport bind address (§6).
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LoggingConfig controls arbor logger construction (§2.1).
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Format     string   `toml:"format"`
	Output     []string `toml:"output"`
	TimeFormat string   `toml:"time_format"`
}

// ReviewConfig holds review-pipeline defaults (§4.1, §5).
type ReviewConfig struct {
	TTLSeconds         int `toml:"ttl_secs"`
	MaxConcurrentChecks int `toml:"max_concurrent_checks"`
	SweepIntervalSecs  int `toml:"sweep_interval_secs"`
}

// GradeConfig holds grade-pipeline defaults (§4.2, §5).
type GradeConfig struct {
	MaxFiles            int `toml:"max_files"`
	MaxCharsPerFile     int `toml:"max_chars_per_file"`
	MaxParallelTasks    int `toml:"max_parallel_tasks"`
	MaxParallelCriteria int `toml:"max_parallel_criteria"`
}

// AnthropicConfig configures the Anthropic model-client adapter (§4.4).
type AnthropicConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// OpenAIConfig configures the OpenAI fallback adapter (§4.4).
type OpenAIConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// OpenCodeConfig configures the final-fallback OpenCode-compatible adapter.
type OpenCodeConfig struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
}

// WorkspaceConfig controls clone behavior (§4.7).
type WorkspaceConfig struct {
	CloneTimeoutSecs int `toml:"clone_timeout_secs"`
}

// Defaults returns a Config populated with the values named throughout §6.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05.000",
		},
		Review: ReviewConfig{
			TTLSeconds:          3600,
			MaxConcurrentChecks: 4,
			SweepIntervalSecs:   60,
		},
		Grade: GradeConfig{
			MaxFiles:            50,
			MaxCharsPerFile:     4000,
			MaxParallelTasks:    3,
			MaxParallelCriteria: 5,
		},
		Anthropic: AnthropicConfig{Model: "claude-sonnet-4-5"},
		OpenAI:    OpenAIConfig{Model: "gpt-4o-mini"},
		OpenCode:  OpenCodeConfig{Model: "default"},
		Workspace: WorkspaceConfig{CloneTimeoutSecs: 120},
	}
}

// Load decodes path (if non-empty and present) over the defaults, then
// applies environment variable overrides (§6), matching the teacher's
// TOML-plus-env layering convention.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
		} else if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.Anthropic.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENCODE_API_KEY"); v != "" {
		cfg.OpenCode.APIKey = v
	}
	if v := os.Getenv("OPENCODE_BASE_URL"); v != "" {
		cfg.OpenCode.BaseURL = v
	}
	if v := os.Getenv("REVIEW_TTL_SECS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			cfg.Review.TTLSeconds = secs
		}
	}
	if v := os.Getenv("MAX_CONCURRENT_CHECKS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Review.MaxConcurrentChecks = n
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
}

// IsOAuthKey reports whether an Anthropic API key is actually an OAuth
// token (§4.4 selection rule).
func IsOAuthKey(key string) bool {
	return strings.HasPrefix(key, "sk-ant-oat")
}
