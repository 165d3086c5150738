package llm

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Supported providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// DefaultOpenAIEndpoint is Groq's OpenAI-compatible API.
const DefaultOpenAIEndpoint = "https://api.groq.com/openai/v1"

// Config holds configuration for creating an LLM client.
type Config struct {
	Provider          string  // "openai" (any OpenAI-compatible endpoint) or "anthropic"
	Endpoint          string  // Base URL; empty uses the provider default
	Model             string  // Model name, e.g. "gemma2-9b-it"
	APIKey            string  // Optional for local endpoints
	RequestsPerSecond float64 // 0 disables client-side rate limiting
}

func (cfg *Config) limiter() *rate.Limiter {
	if cfg.RequestsPerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
}

// NewClientFromConfig creates the client for cfg.Provider. Returns the
// LLMClient interface to enable dependency injection of mocks.
func NewClientFromConfig(cfg *Config, logger *zap.Logger) (LLMClient, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderOpenAI:
		c := *cfg
		if c.Endpoint == "" {
			c.Endpoint = DefaultOpenAIEndpoint
		}
		client, err := NewClient(&c, logger)
		if err != nil {
			return nil, fmt.Errorf("create openai client: %w", err)
		}
		return client, nil
	case ProviderAnthropic:
		client, err := NewAnthropicClient(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("create anthropic client: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}
