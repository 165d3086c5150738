package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLogger_LevelByRouteAndStatus(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		status int
		want   zapcore.Level
	}{
		{"analyze", http.MethodPost, "/api/analyze", http.StatusOK, zapcore.InfoLevel},
		{"rejected upload", http.MethodPost, "/api/analyze", http.StatusBadRequest, zapcore.InfoLevel},
		{"analysis failure", http.MethodPost, "/api/analyze", http.StatusInternalServerError, zapcore.WarnLevel},
		{"busy", http.MethodPost, "/api/analyze", http.StatusServiceUnavailable, zapcore.WarnLevel},
		{"api health", http.MethodGet, "/api/health", http.StatusOK, zapcore.DebugLevel},
		{"ping", http.MethodGet, "/ping", http.StatusOK, zapcore.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.DebugLevel)

			handler := RequestLogger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tt.method, tt.path, nil))

			if logs.Len() != 1 {
				t.Fatalf("expected 1 log entry, got %d", logs.Len())
			}
			entry := logs.All()[0]
			if entry.Message != "HTTP request" {
				t.Errorf("expected message 'HTTP request', got '%s'", entry.Message)
			}
			if entry.Level != tt.want {
				t.Errorf("expected level %s, got %s", tt.want, entry.Level)
			}
			if entry.ContextMap()["status"] != int64(tt.status) {
				t.Errorf("expected status %d, got %v", tt.status, entry.ContextMap()["status"])
			}
		})
	}
}

func TestRequestLogger_ProbesFilteredAtInfo(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	handler := RequestLogger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	if logs.Len() != 0 {
		t.Errorf("expected health probe to be dropped at INFO, got %d entries", logs.Len())
	}
}

func TestRequestLogger_NilLogger_PassesThrough(t *testing.T) {
	called := false
	handler := RequestLogger(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !called {
		t.Error("expected handler to be called")
	}
}

func TestRequestLogger_RouteRequestIDAndSizes(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(RequestLogger(zap.New(core)))
	r.Post("/api/analyze", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true}`))
	})

	body := "id,name\n1,a\n"
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(body))
	req.Header.Set(RequestIDHeader, "req-123")
	r.ServeHTTP(httptest.NewRecorder(), req)

	if logs.Len() != 1 {
		t.Fatalf("expected 1 log entry, got %d", logs.Len())
	}
	fields := logs.All()[0].ContextMap()
	if fields["request_id"] != "req-123" {
		t.Errorf("expected request_id req-123, got %v", fields["request_id"])
	}
	if fields["route"] != "/api/analyze" {
		t.Errorf("expected route /api/analyze, got %v", fields["route"])
	}
	if fields["content_length"] != int64(len(body)) {
		t.Errorf("unexpected content_length field %v", fields["content_length"])
	}
	if fields["bytes"] != int64(len(`{"success":true}`)) {
		t.Errorf("unexpected bytes field %v", fields["bytes"])
	}
}

func TestResponseWriter_KeepsFirstStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	rw.WriteHeader(http.StatusBadRequest)
	rw.WriteHeader(http.StatusInternalServerError)
	_, _ = rw.Write([]byte("x"))

	if rw.statusCode != http.StatusBadRequest || rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d (recorded %d)", http.StatusBadRequest, rw.statusCode, rec.Code)
	}
	if rw.bytes != 1 {
		t.Errorf("expected 1 byte, got %d", rw.bytes)
	}
}

func TestResponseWriter_WriteImpliesOK(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	if _, err := rw.Write([]byte("hello")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rw.statusCode != http.StatusOK || !rw.headerWritten {
		t.Errorf("expected implicit 200, got %d (written=%v)", rw.statusCode, rw.headerWritten)
	}
}
