package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ekaya-inc/schemasense/pkg/apperrors"
)

// Error codes returned in the "error" field of error responses.
const (
	ErrorCodeInvalidInput   = "invalid_input"
	ErrorCodeAnalysisFailed = "analysis_failed"
	ErrorCodeServerBusy     = "server_busy"
)

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// WriteAnalysisError maps an analysis error to a response. Input errors are
// 400 with a message the uploader can act on; anything else is a 500 with
// the generic message.
func WriteAnalysisError(w http.ResponseWriter, err error) error {
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		return ErrorResponse(w, http.StatusInternalServerError, ErrorCodeAnalysisFailed, apperrors.MsgAnalysisFailed)
	}
	return ErrorResponse(w, http.StatusBadRequest, ErrorCodeInvalidInput, inputErrorMessage(err))
}

func inputErrorMessage(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrUnsupportedFormat):
		return apperrors.MsgUnsupportedFormat
	case errors.Is(err, apperrors.ErrEmptyFile):
		return apperrors.MsgEmptyFile
	case errors.Is(err, apperrors.ErrUnparseable):
		return apperrors.UnparseableDetail
	default:
		return err.Error()
	}
}
