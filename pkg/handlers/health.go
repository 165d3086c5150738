package handlers

import (
	"net/http"
	"os"
	"runtime"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ekaya-inc/schemasense/pkg/config"
)

// ServiceName identifies this service in ping and root responses.
const ServiceName = "schemasense"

// PingResponse contains service status and version information.
type PingResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Service     string `json:"service"`
	GoVersion   string `json:"go_version"`
	Hostname    string `json:"hostname"`
	Environment string `json:"environment"`
}

// APIHealthResponse is returned by GET /api/health.
type APIHealthResponse struct {
	Status      string `json:"status"`
	AIAvailable bool   `json:"ai_available"`
	Version     string `json:"version"`
}

// RootResponse is returned by GET /.
type RootResponse struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Health      string `json:"health"`
}

// HealthHandler handles health check and ping endpoints.
type HealthHandler struct {
	cfg         *config.Config
	aiAvailable func() bool
	logger      *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. aiAvailable reports whether
// remote descriptions are configured; nil means never.
func NewHealthHandler(cfg *config.Config, aiAvailable func() bool, logger *zap.Logger) *HealthHandler {
	if aiAvailable == nil {
		aiAvailable = func() bool { return false }
	}
	return &HealthHandler{cfg: cfg, aiAvailable: aiAvailable, logger: logger}
}

// RegisterRoutes registers the health handler's routes on the given router.
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Get("/ping", h.Ping)
	r.Get("/api/health", h.APIHealth)
}

// Health handles GET /health requests.
// Returns a simple "ok" status for load balancer health checks.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// APIHealth handles GET /api/health requests.
func (h *HealthHandler) APIHealth(w http.ResponseWriter, r *http.Request) {
	response := APIHealthResponse{
		Status:      "healthy",
		AIAvailable: h.aiAvailable(),
		Version:     h.cfg.Version,
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode health response", zap.Error(err))
	}
}

// Root handles GET / requests.
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	response := RootResponse{
		Name:        ServiceName,
		Version:     h.cfg.Version,
		Description: "CSV schema analysis and MySQL DDL generation",
		Health:      "/api/health",
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode root response", zap.Error(err))
	}
}

// Ping handles GET /ping requests.
// Returns detailed service information including version and environment.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	hostname, err := os.Hostname()
	if err != nil {
		http.Error(w, "failed to get hostname", http.StatusInternalServerError)
		return
	}

	response := PingResponse{
		Status:      "ok",
		Version:     h.cfg.Version,
		Service:     ServiceName,
		GoVersion:   runtime.Version(),
		Hostname:    hostname,
		Environment: h.cfg.Env,
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode ping response", zap.Error(err))
	}
}
