package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/schemasense/pkg/apperrors"
	"github.com/ekaya-inc/schemasense/pkg/inference"
	"github.com/ekaya-inc/schemasense/pkg/middleware"
	"github.com/ekaya-inc/schemasense/pkg/models"
	"github.com/ekaya-inc/schemasense/pkg/sql"
	"github.com/ekaya-inc/schemasense/pkg/tabular"
)

// AnalyzeRequest is one uploaded file to analyze.
type AnalyzeRequest struct {
	FileName  string
	TableName string
	Content   []byte
}

// AnalysisService runs the full pipeline over one uploaded file.
type AnalysisService interface {
	// Analyze parses the file, infers a type and description for every
	// column, renders the CREATE TABLE statement and summarizes the result.
	// Input problems are returned as errors wrapping apperrors.ErrInvalidInput;
	// every other failure is apperrors.ErrAnalysisFailed.
	Analyze(ctx context.Context, req AnalyzeRequest) (*models.AnalysisResult, error)

	// HasRemoteDescriptions reports whether remote descriptions are configured.
	HasRemoteDescriptions() bool
}

// AnalysisConfig holds the limits applied to each analysis.
type AnalysisConfig struct {
	DefaultTableName string
	Timeout          time.Duration
	Parse            tabular.Options
}

// DefaultAnalysisConfig returns the built-in table name, timeout and parser options.
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		DefaultTableName: "my_table",
		Timeout:          5 * time.Minute,
		Parse:            tabular.DefaultOptions(),
	}
}

type analysisService struct {
	engine       *inference.Engine
	descriptions DescriptionService
	config       AnalysisConfig
	logger       *zap.Logger
}

// NewAnalysisService creates the analysis pipeline. A nil engine uses the
// default inference rules.
func NewAnalysisService(
	engine *inference.Engine,
	descriptions DescriptionService,
	config AnalysisConfig,
	logger *zap.Logger,
) AnalysisService {
	def := DefaultAnalysisConfig()
	if strings.TrimSpace(config.DefaultTableName) == "" {
		config.DefaultTableName = def.DefaultTableName
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	if engine == nil {
		engine = inference.NewEngine(nil)
	}

	return &analysisService{
		engine:       engine,
		descriptions: descriptions,
		config:       config,
		logger:       logger.Named("analysis"),
	}
}

var _ AnalysisService = (*analysisService)(nil)

func (s *analysisService) HasRemoteDescriptions() bool {
	return s.descriptions.HasRemoteDescriptions()
}

func (s *analysisService) Analyze(ctx context.Context, req AnalyzeRequest) (result *models.AnalysisResult, err error) {
	logger := s.logger.With(
		zap.String("file", req.FileName),
		zap.String("request_id", middleware.GetRequestID(ctx)))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Analysis panicked", zap.Any("panic", r))
			result, err = nil, apperrors.ErrAnalysisFailed
		}
	}()

	if !strings.EqualFold(filepath.Ext(req.FileName), ".csv") {
		return nil, apperrors.ErrUnsupportedFormat
	}

	tableName := strings.TrimSpace(req.TableName)
	if tableName == "" {
		tableName = s.config.DefaultTableName
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	start := time.Now()

	table, err := tabular.Parse(req.Content, s.config.Parse)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidInput) {
			logger.Info("Rejected upload", zap.Error(err))
			return nil, err
		}
		return nil, s.failed(logger, "parse", err)
	}

	columns := s.engine.AnalyzeTable(table)
	if err := ctx.Err(); err != nil {
		return nil, s.failed(logger, "inference", err)
	}

	columns = s.descriptions.Enhance(ctx, columns)
	if err := ctx.Err(); err != nil {
		return nil, s.failed(logger, "descriptions", err)
	}

	ddl := sql.GenerateCreateTable(tableName, columns)

	result = &models.AnalysisResult{
		Success:    true,
		AnalysisID: uuid.New(),
		TableName:  tableName,
		FileInfo: models.FileInfo{
			Name:      req.FileName,
			Separator: table.Separator,
			Encoding:  table.Encoding,
			Rows:      table.RowCount,
			Columns:   table.ColumnCount(),
		},
		DDL:     ddl,
		Columns: columns,
		Summary: models.NewAnalysisSummary(columns),
	}

	logger.Info("Analysis complete",
		zap.String("analysis_id", result.AnalysisID.String()),
		zap.Int("rows", table.RowCount),
		zap.Int("columns", table.ColumnCount()),
		zap.String("encoding", table.Encoding),
		zap.Duration("duration", time.Since(start)))

	return result, nil
}

// failed logs the cause and returns the generic failure.
func (s *analysisService) failed(logger *zap.Logger, stage string, cause error) error {
	logger.Error("Analysis failed", zap.String("stage", stage), zap.Error(cause))
	return fmt.Errorf("%w: %s", apperrors.ErrAnalysisFailed, stage)
}
