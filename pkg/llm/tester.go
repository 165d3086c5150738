package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ProbeResult reports whether a provider answered a minimal request.
type ProbeResult struct {
	Success        bool      `json:"success"`
	Message        string    `json:"message"`
	Provider       string    `json:"provider,omitempty"`
	Model          string    `json:"model"`
	Endpoint       string    `json:"endpoint"`
	ErrorType      ErrorType `json:"error_type,omitempty"`
	ResponseTimeMs int64     `json:"response_time_ms"`
}

// ConnectionTester checks that a configured provider is reachable and
// accepts the credentials and model. This interface enables mocking in tests.
type ConnectionTester interface {
	Test(ctx context.Context, client LLMClient) *ProbeResult
}

type connectionTester struct {
	timeout time.Duration
}

// NewConnectionTester creates a tester that gives up after timeout.
// A non-positive timeout uses 30 seconds.
func NewConnectionTester(timeout time.Duration) ConnectionTester {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &connectionTester{timeout: timeout}
}

// Test sends a tiny prompt and classifies any failure.
func (t *connectionTester) Test(ctx context.Context, client LLMClient) *ProbeResult {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	result := &ProbeResult{
		Model:    client.GetModel(),
		Endpoint: client.GetEndpoint(),
	}

	start := time.Now()
	resp, err := client.GenerateResponse(ctx, Request{
		Prompt:    "Say 'ok' and nothing else.",
		MaxTokens: 10,
	})
	result.ResponseTimeMs = time.Since(start).Milliseconds()

	if err != nil {
		llmErr := ClassifyError(err)
		result.ErrorType = llmErr.Type
		result.Message = probeMessage(llmErr)
		return result
	}

	if strings.TrimSpace(resp.Content) == "" {
		result.ErrorType = ErrorTypeUnknown
		result.Message = "LLM returned no response"
		return result
	}

	result.Success = true
	result.Message = fmt.Sprintf("LLM connection successful (model: %s, %dms)", result.Model, result.ResponseTimeMs)
	return result
}

func probeMessage(err *Error) string {
	switch err.Type {
	case ErrorTypeAuth:
		return "Invalid API key"
	case ErrorTypeModel:
		return "Model not found"
	case ErrorTypeRateLimited:
		return "Rate limited by provider"
	case ErrorTypeEndpoint:
		switch err.Message {
		case "endpoint not found":
			return "Endpoint not found - check base URL"
		case "request timeout":
			return "Connection timed out"
		case "connection failed":
			return "Connection failed - check base URL"
		}
	}
	if err.Cause != nil {
		return err.Cause.Error()
	}
	return err.Message
}

// Ensure connectionTester implements ConnectionTester at compile time.
var _ ConnectionTester = (*connectionTester)(nil)
