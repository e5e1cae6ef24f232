package llm

import (
	"fmt"
	"time"

	"github.com/example/drone-academy/internal/platform/config"
)

// Config selects and configures the model provider.
type Config struct {
	// Provider is one of "anthropic", "openai", "gemini", "mock".
	Provider string

	Anthropic AnthropicConfig
	OpenAI    OpenAIConfig
	Gemini    GeminiConfig
	Retry     RetryConfig

	// Timeout bounds a single request including retries.
	Timeout time.Duration
}

type AnthropicConfig struct {
	APIKey string
	Model  string
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string // OpenAI-compatible gateways
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

func DefaultConfig() Config {
	return Config{
		Provider:  "openai",
		Anthropic: AnthropicConfig{Model: "claude-haiku"},
		OpenAI:    OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:    GeminiConfig{Model: "gemini-flash"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 60 * time.Second,
	}
}

// ConfigFromEnv overlays LLM_* and provider key variables on DefaultConfig.
// Without LLM_PROVIDER the first provider with a key wins (Gemini, OpenAI, Anthropic).
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.Anthropic.APIKey = config.EnvString("ANTHROPIC_API_KEY", "")
	cfg.OpenAI.APIKey = config.EnvString("OPENAI_API_KEY", "")
	cfg.OpenAI.BaseURL = config.EnvString("OPENAI_BASE_URL", "")
	cfg.Gemini.APIKey = config.EnvString("GEMINI_API_KEY", "")

	switch {
	case config.EnvString("LLM_PROVIDER", "") != "":
		cfg.Provider = config.EnvString("LLM_PROVIDER", "")
	case cfg.Gemini.APIKey != "":
		cfg.Provider = "gemini"
	case cfg.OpenAI.APIKey != "":
		cfg.Provider = "openai"
	case cfg.Anthropic.APIKey != "":
		cfg.Provider = "anthropic"
	}

	if m := config.EnvString("LLM_MODEL", ""); m != "" {
		switch cfg.Provider {
		case "anthropic":
			cfg.Anthropic.Model = m
		case "openai":
			cfg.OpenAI.Model = m
		case "gemini":
			cfg.Gemini.Model = m
		}
	}
	cfg.Retry.MaxAttempts = config.EnvInt("LLM_MAX_ATTEMPTS", cfg.Retry.MaxAttempts)
	cfg.Timeout = config.EnvDuration("LLM_TIMEOUT", cfg.Timeout)
	return cfg
}

// Validate checks that the selected provider has its API key.
func (c Config) Validate() error {
	switch c.Provider {
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
		}
	case "mock":
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	return nil
}
