// Package audit provides security audit logging for SIEM consumption.
// It logs security-relevant events in structured JSON format for easy parsing
// and integration with security information and event management systems.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/schemasense/pkg/middleware"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventGeneratedTextRejected is logged when libinjection flags text
	// returned by the description provider before it reaches DDL.
	EventGeneratedTextRejected SecurityEventType = "generated_text_rejected"
	// EventUploadRejected is logged when an upload is refused before analysis.
	EventUploadRejected SecurityEventType = "upload_rejected"
)

// SecurityEvent represents an auditable security event with all relevant context
// for SIEM ingestion and analysis.
type SecurityEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType SecurityEventType `json:"event_type"`
	RequestID string            `json:"request_id,omitempty"`
	ClientIP  string            `json:"client_ip,omitempty"`
	Details   any               `json:"details"`
	Severity  string            `json:"severity"` // info, warning, critical
}

// GeneratedTextDetails describes a rejected description.
type GeneratedTextDetails struct {
	Column      string `json:"column"`
	Text        string `json:"text"`
	Kind        string `json:"kind"`        // sqli or xss
	Fingerprint string `json:"fingerprint"` // libinjection fingerprint for pattern analysis
	Model       string `json:"model,omitempty"`
}

// UploadDetails describes a refused upload.
type UploadDetails struct {
	FileName string `json:"file_name,omitempty"`
	Size     int64  `json:"size,omitempty"`
	Reason   string `json:"reason"`
}

// SecurityAuditor logs security events for SIEM consumption.
// Events are logged in structured JSON format with appropriate severity levels.
type SecurityAuditor struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewSecurityAuditor creates a new security auditor with a dedicated logger namespace.
// The logger is automatically configured with "security_audit" namespace for easy
// filtering in SIEM systems.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	return &SecurityAuditor{logger: logger.Named("security_audit"), now: time.Now}
}

// LogGeneratedTextRejected records a description that was discarded because
// it looked like SQL injection or markup. Logged at WARN: the text came from the
// provider, not from the uploader.
func (a *SecurityAuditor) LogGeneratedTextRejected(ctx context.Context, details GeneratedTextDetails) {
	// Keep the event bounded; provider output can be long.
	if len(details.Text) > 200 {
		details.Text = details.Text[:200]
	}

	event := a.newEvent(ctx, EventGeneratedTextRejected, "warning", details)
	a.logger.Warn("Generated text rejected",
		zap.String("event_json", event.json()),
		zap.String("request_id", event.RequestID),
		zap.String("column", details.Column),
		zap.String("kind", details.Kind),
		zap.String("fingerprint", details.Fingerprint),
		zap.String("severity", event.Severity),
	)
}

// LogUploadRejected records an upload refused before analysis, such as an
// oversized body. clientIP is typically r.RemoteAddr.
func (a *SecurityAuditor) LogUploadRejected(ctx context.Context, details UploadDetails, clientIP string) {
	event := a.newEvent(ctx, EventUploadRejected, "info", details)
	event.ClientIP = clientIP

	a.logger.Info("Upload rejected",
		zap.String("event_json", event.json()),
		zap.String("request_id", event.RequestID),
		zap.String("file_name", details.FileName),
		zap.String("reason", details.Reason),
		zap.String("client_ip", clientIP),
		zap.String("severity", event.Severity),
	)
}

func (a *SecurityAuditor) newEvent(ctx context.Context, eventType SecurityEventType, severity string, details any) SecurityEvent {
	return SecurityEvent{
		Timestamp: a.now().UTC(),
		EventType: eventType,
		RequestID: middleware.GetRequestID(ctx),
		Details:   details,
		Severity:  severity,
	}
}

func (e SecurityEvent) json() string {
	// Marshaling these known types cannot fail.
	b, _ := json.Marshal(e)
	return string(b)
}
