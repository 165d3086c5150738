// Package llm provides text-generation clients for OpenAI-compatible and
// Anthropic endpoints, plus the helpers used to call them safely: error
// classification, a circuit breaker, a bounded worker pool and lenient JSON
// extraction from model output.
package llm

import (
	"context"
)

// Request is a single text-generation call.
type Request struct {
	Prompt        string
	SystemMessage string
	Temperature   float64
	MaxTokens     int  // 0 uses the provider default
	JSONResponse  bool // ask the provider for a JSON object, where supported
}

// GenerateResponseResult holds the generated text and token usage.
type GenerateResponseResult struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// LLMClient defines the interface for LLM operations.
// Use this interface for dependency injection to enable mocking in tests.
type LLMClient interface {
	// GenerateResponse generates a chat completion response.
	GenerateResponse(ctx context.Context, req Request) (*GenerateResponseResult, error)

	// GetModel returns the configured model name.
	GetModel() string

	// GetEndpoint returns the configured endpoint.
	GetEndpoint() string
}

// Ensure both clients implement LLMClient at compile time.
var (
	_ LLMClient = (*Client)(nil)
	_ LLMClient = (*AnthropicClient)(nil)
)
