package llm

import (
	"fmt"
	"time"
)

// FactoryConfig holds the parameters needed to create a Completer.
// This is defined in the llm package to avoid importing the config package.
type FactoryConfig struct {
	// Provider is the LLM provider name ("openai" or "anthropic").
	Provider string
	// Timeout bounds each completion call.
	Timeout time.Duration
	// OpenAI contains OpenAI-specific settings.
	OpenAI OpenAIConfig
	// Anthropic contains Anthropic-specific settings.
	Anthropic AnthropicConfig
}

// NewCompleter creates a Completer for the configured provider.
func NewCompleter(cfg FactoryConfig) (Completer, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIProvider(cfg.OpenAI, cfg.Timeout), nil
	case "anthropic":
		return NewAnthropicProvider(cfg.Anthropic, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}
}
