package audit

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ekaya-inc/schemasense/pkg/middleware"
)

// setupTestLogger creates a test logger with an observer to capture log entries.
func setupTestLogger(t *testing.T) (*zap.Logger, *observer.ObservedLogs) {
	t.Helper()
	core, recorded := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	return logger, recorded
}

func TestNewSecurityAuditor(t *testing.T) {
	logger, _ := setupTestLogger(t)
	auditor := NewSecurityAuditor(logger)

	assert.NotNil(t, auditor)
	assert.NotNil(t, auditor.logger)
}

func TestLogGeneratedTextRejected(t *testing.T) {
	tests := []struct {
		name          string
		ctx           context.Context
		wantRequestID string
	}{
		{
			name:          "with request id",
			ctx:           middleware.WithRequestID(context.Background(), "req-42"),
			wantRequestID: "req-42",
		},
		{
			name:          "without request id",
			ctx:           context.Background(),
			wantRequestID: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, recorded := setupTestLogger(t)
			auditor := NewSecurityAuditor(logger)

			auditor.LogGeneratedTextRejected(tt.ctx, GeneratedTextDetails{
				Column:      "email",
				Text:        "'; DROP TABLE users--",
				Kind:        "sqli",
				Fingerprint: "s&1c",
				Model:       "test-model",
			})

			logs := recorded.All()
			require.Len(t, logs, 1, "Expected exactly one log entry")

			entry := logs[0]
			assert.Equal(t, zapcore.WarnLevel, entry.Level, "Should log at WARN level")
			assert.Equal(t, "Generated text rejected", entry.Message)

			fields := entry.ContextMap()
			assert.Equal(t, tt.wantRequestID, fields["request_id"])
			assert.Equal(t, "email", fields["column"])
			assert.Equal(t, "sqli", fields["kind"])
			assert.Equal(t, "s&1c", fields["fingerprint"])
			assert.Equal(t, "warning", fields["severity"])

			eventJSON, ok := fields["event_json"].(string)
			require.True(t, ok, "event_json should be a string")

			var event SecurityEvent
			require.NoError(t, json.Unmarshal([]byte(eventJSON), &event), "event_json should be valid JSON")

			assert.Equal(t, EventGeneratedTextRejected, event.EventType)
			assert.Equal(t, tt.wantRequestID, event.RequestID)
			assert.Equal(t, "warning", event.Severity)

			detailsMap, ok := event.Details.(map[string]any)
			require.True(t, ok, "Details should be a map")
			assert.Equal(t, "email", detailsMap["column"])
			assert.Equal(t, "'; DROP TABLE users--", detailsMap["text"])
			assert.Equal(t, "test-model", detailsMap["model"])
		})
	}
}

func TestLogGeneratedTextRejected_TruncatesText(t *testing.T) {
	logger, recorded := setupTestLogger(t)
	auditor := NewSecurityAuditor(logger)

	auditor.LogGeneratedTextRejected(context.Background(), GeneratedTextDetails{
		Column: "notes",
		Text:   strings.Repeat("x", 500),
	})

	logs := recorded.All()
	require.Len(t, logs, 1)

	var event SecurityEvent
	require.NoError(t, json.Unmarshal([]byte(logs[0].ContextMap()["event_json"].(string)), &event))
	detailsMap := event.Details.(map[string]any)
	assert.Len(t, detailsMap["text"], 200)
}

func TestLogUploadRejected(t *testing.T) {
	logger, recorded := setupTestLogger(t)
	auditor := NewSecurityAuditor(logger)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	auditor.now = func() time.Time { return fixed }

	ctx := middleware.WithRequestID(context.Background(), "req-7")
	auditor.LogUploadRejected(ctx, UploadDetails{
		FileName: "huge.csv",
		Size:     20 << 20,
		Reason:   "file too large",
	}, "10.0.0.50")

	logs := recorded.All()
	require.Len(t, logs, 1)

	entry := logs[0]
	assert.Equal(t, zapcore.InfoLevel, entry.Level, "Should log at INFO level")
	assert.Equal(t, "Upload rejected", entry.Message)

	fields := entry.ContextMap()
	assert.Equal(t, "req-7", fields["request_id"])
	assert.Equal(t, "huge.csv", fields["file_name"])
	assert.Equal(t, "file too large", fields["reason"])
	assert.Equal(t, "10.0.0.50", fields["client_ip"])
	assert.Equal(t, "info", fields["severity"])

	var event SecurityEvent
	require.NoError(t, json.Unmarshal([]byte(fields["event_json"].(string)), &event))
	assert.Equal(t, EventUploadRejected, event.EventType)
	assert.Equal(t, "10.0.0.50", event.ClientIP)
	assert.True(t, fixed.Equal(event.Timestamp))

	detailsMap, ok := event.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(20<<20), detailsMap["size"])
}

func TestSecurityEventSerialization(t *testing.T) {
	tests := []struct {
		name      string
		eventType SecurityEventType
		severity  string
		details   any
	}{
		{
			name:      "generated text",
			eventType: EventGeneratedTextRejected,
			severity:  "warning",
			details:   GeneratedTextDetails{Column: "c", Text: "t", Fingerprint: "abc"},
		},
		{
			name:      "upload",
			eventType: EventUploadRejected,
			severity:  "info",
			details:   UploadDetails{Reason: "missing file field"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := SecurityEvent{
				EventType: tt.eventType,
				RequestID: "req-1",
				ClientIP:  "127.0.0.1",
				Details:   tt.details,
				Severity:  tt.severity,
			}

			var decoded SecurityEvent
			require.NoError(t, json.Unmarshal([]byte(event.json()), &decoded))

			assert.Equal(t, event.EventType, decoded.EventType)
			assert.Equal(t, event.RequestID, decoded.RequestID)
			assert.Equal(t, event.ClientIP, decoded.ClientIP)
			assert.Equal(t, event.Severity, decoded.Severity)
		})
	}
}

func TestLoggerNamespace(t *testing.T) {
	logger, recorded := setupTestLogger(t)
	auditor := NewSecurityAuditor(logger)

	auditor.LogUploadRejected(context.Background(), UploadDetails{Reason: "test"}, "127.0.0.1")

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Equal(t, "security_audit", logs[0].LoggerName)
}
