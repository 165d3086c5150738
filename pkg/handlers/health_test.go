package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ekaya-inc/schemasense/pkg/config"
)

func newHealthRouter(aiAvailable func() bool) http.Handler {
	cfg := &config.Config{
		Version: "test-version",
		Env:     "test",
	}
	r := chi.NewRouter()
	NewHealthHandler(cfg, aiAvailable, zap.NewNop()).RegisterRoutes(r)
	return r
}

func TestHealthHandler_Health(t *testing.T) {
	router := newHealthRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("expected body 'ok', got %q", rec.Body.String())
	}
}

func TestHealthHandler_APIHealth(t *testing.T) {
	tests := []struct {
		name        string
		aiAvailable func() bool
		want        bool
	}{
		{"no ai configured", nil, false},
		{"ai configured", func() bool { return true }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newHealthRouter(tt.aiAvailable)

			req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
			}

			var response APIHealthResponse
			if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if response.Status != "healthy" {
				t.Errorf("expected status 'healthy', got '%s'", response.Status)
			}
			if response.AIAvailable != tt.want {
				t.Errorf("expected ai_available %v, got %v", tt.want, response.AIAvailable)
			}
			if response.Version != "test-version" {
				t.Errorf("expected version 'test-version', got '%s'", response.Version)
			}
		})
	}
}

func TestHealthHandler_Root(t *testing.T) {
	router := newHealthRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var response RootResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Name != ServiceName {
		t.Errorf("expected name %q, got %q", ServiceName, response.Name)
	}
	if response.Health != "/api/health" {
		t.Errorf("expected health path '/api/health', got %q", response.Health)
	}
}

func TestHealthHandler_Ping(t *testing.T) {
	router := newHealthRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response PingResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Status != "ok" {
		t.Errorf("expected status 'ok', got '%s'", response.Status)
	}
	if response.Version != "test-version" {
		t.Errorf("expected version 'test-version', got '%s'", response.Version)
	}
	if response.Service != "schemasense" {
		t.Errorf("expected service 'schemasense', got '%s'", response.Service)
	}
	if response.GoVersion != runtime.Version() {
		t.Errorf("expected go_version '%s', got '%s'", runtime.Version(), response.GoVersion)
	}
	if response.Environment != "test" {
		t.Errorf("expected environment 'test', got '%s'", response.Environment)
	}
}

func TestHealthHandler_MethodNotAllowed(t *testing.T) {
	router := newHealthRouter(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}
