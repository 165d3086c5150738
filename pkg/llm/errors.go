package llm

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// ErrorType indicates which part of the provider configuration an error
// points at.
type ErrorType string

const (
	ErrorTypeNone        ErrorType = ""
	ErrorTypeEndpoint    ErrorType = "endpoint"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeModel       ErrorType = "model"
	ErrorTypeRateLimited ErrorType = "rate_limited"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents a structured LLM error with classification.
type Error struct {
	Type       ErrorType // Classification of the error
	Message    string    // Human-readable message
	Retryable  bool      // Whether a later attempt could succeed
	Cause      error     // Underlying error
	StatusCode int       // HTTP status code if applicable
	Model      string    // Model name if known
	Endpoint   string    // Endpoint URL if known
}

// Error implements the error interface. Only the endpoint host is included.
func (e *Error) Error() string {
	parts := []string{string(e.Type)}

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.StatusCode))
	}
	if e.Model != "" {
		parts = append(parts, "model="+e.Model)
	}
	if host := endpointHost(e.Endpoint); host != "" {
		parts = append(parts, "endpoint="+host)
	}

	parts = append(parts, e.Message)

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable reports whether a later attempt could succeed.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// NewError creates a new structured LLM error.
func NewError(errType ErrorType, message string, retryable bool, cause error) *Error {
	return &Error{
		Type:      errType,
		Message:   message,
		Retryable: retryable,
		Cause:     cause,
	}
}

// NewErrorWithContext creates a new structured LLM error with additional context.
func NewErrorWithContext(errType ErrorType, message string, retryable bool, cause error, model, endpoint string, statusCode int) *Error {
	return &Error{
		Type:       errType,
		Message:    message,
		Retryable:  retryable,
		Cause:      cause,
		Model:      model,
		Endpoint:   endpoint,
		StatusCode: statusCode,
	}
}

// classification is one rule in the ClassifyError table. A rule matches when
// the extracted status code is one of statuses or any of its phrases appears
// in the lowercased text. allPhrases requires every phrase instead.
type classification struct {
	errType    ErrorType
	message    string
	retryable  bool
	statuses   []int
	phrases    []string
	allPhrases []string
}

// classifications are evaluated in order; the first match wins.
var classifications = []classification{
	{errType: ErrorTypeAuth, message: "authentication failed",
		statuses: []int{401, 403}, phrases: []string{"unauthorized", "invalid api key", "invalid x-api-key", "authentication_error"}},
	{errType: ErrorTypeModel, message: "model not found",
		allPhrases: []string{"model", "not found"}},
	{errType: ErrorTypeModel, message: "model not found",
		allPhrases: []string{"model", "does not exist"}},
	{errType: ErrorTypeEndpoint, message: "endpoint not found",
		statuses: []int{404}},
	{errType: ErrorTypeEndpoint, message: "request cancelled",
		phrases: []string{"context canceled"}},
	{errType: ErrorTypeEndpoint, message: "connection failed", retryable: true,
		phrases: []string{"connection refused", "no such host"}},
	{errType: ErrorTypeEndpoint, message: "request timeout", retryable: true,
		phrases: []string{"timeout", "deadline exceeded"}},
	{errType: ErrorTypeRateLimited, message: "rate limited", retryable: true,
		statuses: []int{429}, phrases: []string{"rate limit", "rate_limit_error", "too many requests"}},
	{errType: ErrorTypeEndpoint, message: "server error", retryable: true,
		statuses: []int{500, 502, 503, 504, 529}, phrases: []string{"overloaded"}},
}

// statusCodePattern finds an HTTP status that is introduced as one, so that
// "processed 503 records" or a port number is not mistaken for a status.
var statusCodePattern = regexp.MustCompile(`(?i)\b(?:http|status|code)(?:\s*code)?\s*[:=]?\s*([1-5]\d{2})\b`)

func extractStatusCode(text string) int {
	m := statusCodePattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	code, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return code
}

func (c classification) matches(statusCode int, lower string) bool {
	if len(c.allPhrases) > 0 {
		for _, p := range c.allPhrases {
			if !strings.Contains(lower, p) {
				return false
			}
		}
		return true
	}
	for _, s := range c.statuses {
		if s == statusCode {
			return true
		}
	}
	for _, p := range c.phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// ClassifyError categorizes an error and returns a structured Error.
// An error that already is an *Error is returned unchanged.
func ClassifyError(err error) *Error {
	if err == nil {
		return nil
	}

	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr
	}

	text := err.Error()
	lower := strings.ToLower(text)
	statusCode := extractStatusCode(text)

	for _, c := range classifications {
		if c.matches(statusCode, lower) {
			llmErr := NewError(c.errType, c.message, c.retryable, err)
			llmErr.StatusCode = statusCode
			return llmErr
		}
	}

	llmErr = NewError(ErrorTypeUnknown, "llm error", false, err)
	llmErr.StatusCode = statusCode
	return llmErr
}

// IsRetryable returns true if the error is retryable.
func IsRetryable(err error) bool {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Retryable
	}
	return false
}

// GetErrorType extracts the ErrorType from an error.
func GetErrorType(err error) ErrorType {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Type
	}
	return ErrorTypeUnknown
}

func endpointHost(endpoint string) string {
	if endpoint == "" {
		return ""
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Host
}
