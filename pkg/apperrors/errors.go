package apperrors

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks every "cannot analyze this input" condition.
// Callers should test with errors.Is rather than matching the specific sentinel.
var ErrInvalidInput = errors.New("invalid input")

var (
	ErrEmptyFile         = fmt.Errorf("%w: file is empty", ErrInvalidInput)
	ErrFileTooLarge      = fmt.Errorf("%w: file too large", ErrInvalidInput)
	ErrUnparseable       = fmt.Errorf("%w: could not parse CSV file", ErrInvalidInput)
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported file format", ErrInvalidInput)

	ErrAnalysisFailed = errors.New("analysis failed")

	// ErrDescriptionUnavailable means the remote provider was not called,
	// for example because its circuit is open.
	ErrDescriptionUnavailable = errors.New("description service unavailable")
)

// User-facing messages. Internal causes are logged, never returned to clients.
const (
	MsgEmptyFile         = "Uploaded file is empty"
	MsgUnsupportedFormat = "Please upload a CSV file (.csv extension required)"
	MsgAnalysisFailed    = "Analysis failed due to an unexpected error"
)

// UnparseableDetail is appended to ErrUnparseable so the caller knows what to fix.
const UnparseableDetail = "Could not parse CSV file. Please ensure your file:\n" +
	"• Has proper CSV formatting\n" +
	"• Contains data (not just headers)\n" +
	"• Uses supported separators (comma, semicolon, tab, pipe)\n" +
	"• Has valid encoding (UTF-8, Latin-1, etc.)"
