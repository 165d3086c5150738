package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/ekaya-inc/schemasense/pkg/apperrors"
	"github.com/ekaya-inc/schemasense/pkg/audit"
	"github.com/ekaya-inc/schemasense/pkg/middleware"
	"github.com/ekaya-inc/schemasense/pkg/services"
)

const (
	// multipartOverhead is allowed on top of the file size limit for form
	// boundaries and the other fields.
	multipartOverhead = 1 << 20

	// maxMultipartMemory is kept in memory before the form spills to disk.
	maxMultipartMemory = 32 << 20
)

// AnalysisHandlerConfig limits the analyze endpoint.
type AnalysisHandlerConfig struct {
	MaxFileSize           int64
	MaxConcurrentAnalyses int
}

// AnalysisHandler serves the CSV upload endpoint.
type AnalysisHandler struct {
	service     services.AnalysisService
	maxBodySize int64
	slots       *semaphore.Weighted
	auditor     *audit.SecurityAuditor
	logger      *zap.Logger
}

// NewAnalysisHandler creates an AnalysisHandler.
func NewAnalysisHandler(service services.AnalysisService, config AnalysisHandlerConfig, logger *zap.Logger) *AnalysisHandler {
	if config.MaxConcurrentAnalyses < 1 {
		config.MaxConcurrentAnalyses = 1
	}
	return &AnalysisHandler{
		service:     service,
		maxBodySize: config.MaxFileSize + multipartOverhead,
		slots:       semaphore.NewWeighted(int64(config.MaxConcurrentAnalyses)),
		auditor:     audit.NewSecurityAuditor(logger),
		logger:      logger.Named("analysis-handler"),
	}
}

// RegisterRoutes registers the analysis routes on the given router.
func (h *AnalysisHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/analyze", h.Analyze)
}

// Analyze handles POST /api/analyze. The multipart form carries the CSV in
// "file" and an optional "table_name"; a blank name gets the configured
// default.
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With(zap.String("request_id", middleware.GetRequestID(ctx)))

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.auditor.LogUploadRejected(ctx, audit.UploadDetails{Size: r.ContentLength, Reason: "file too large"}, r.RemoteAddr)
			h.writeError(w, logger, fmt.Errorf("%w (max %dMB)", apperrors.ErrFileTooLarge, (h.maxBodySize-multipartOverhead)>>20))
			return
		}
		h.auditor.LogUploadRejected(ctx, audit.UploadDetails{Reason: "invalid multipart form"}, r.RemoteAddr)
		h.writeError(w, logger, fmt.Errorf("%w: invalid multipart form", apperrors.ErrInvalidInput))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, logger, fmt.Errorf("%w: missing file field", apperrors.ErrInvalidInput))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, logger, fmt.Errorf("read upload: %w", err))
		return
	}

	if err := h.slots.Acquire(ctx, 1); err != nil {
		logger.Warn("Gave up waiting for an analysis slot", zap.Error(err))
		if err := ErrorResponse(w, http.StatusServiceUnavailable, ErrorCodeServerBusy, "Too many analyses in progress, try again later"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	defer h.slots.Release(1)

	result, err := h.service.Analyze(ctx, services.AnalyzeRequest{
		FileName:  header.Filename,
		TableName: r.FormValue("table_name"),
		Content:   content,
	})
	if err != nil {
		h.writeError(w, logger, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		logger.Error("Failed to encode analysis response", zap.Error(err))
	}
}

func (h *AnalysisHandler) writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	if !errors.Is(err, apperrors.ErrInvalidInput) && !errors.Is(err, apperrors.ErrAnalysisFailed) {
		logger.Error("Analysis request failed", zap.Error(err))
	}
	if err := WriteAnalysisError(w, err); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}
