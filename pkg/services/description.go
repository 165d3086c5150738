package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/schemasense/pkg/apperrors"
	"github.com/ekaya-inc/schemasense/pkg/audit"
	"github.com/ekaya-inc/schemasense/pkg/jsonutil"
	"github.com/ekaya-inc/schemasense/pkg/llm"
	"github.com/ekaya-inc/schemasense/pkg/logging"
	"github.com/ekaya-inc/schemasense/pkg/models"
	"github.com/ekaya-inc/schemasense/pkg/sql"
)

// DescriptionService fills in ColumnAnalysis.Description.
type DescriptionService interface {
	// Enhance sets a non-empty description of at most MaxDescriptionLength
	// characters on every column and returns the same slice. It never fails:
	// remote problems degrade to rule-based descriptions.
	Enhance(ctx context.Context, columns []*models.ColumnAnalysis) []*models.ColumnAnalysis

	// HasRemoteDescriptions reports whether a remote text-generation client
	// is configured.
	HasRemoteDescriptions() bool
}

// DescriptionConfig tunes the remote strategy.
type DescriptionConfig struct {
	BatchSize      int
	MaxTokens      int
	Temperature    float64
	RequestTimeout time.Duration
}

// DefaultDescriptionConfig returns the batch size, token budget and timeout
// used when nothing is configured.
func DefaultDescriptionConfig() DescriptionConfig {
	return DescriptionConfig{
		BatchSize:      15,
		MaxTokens:      2000,
		Temperature:    0.1,
		RequestTimeout: 30 * time.Second,
	}
}

type descriptionService struct {
	client         llm.LLMClient
	workerPool     *llm.WorkerPool
	circuitBreaker *llm.CircuitBreaker
	config         DescriptionConfig
	auditor        *audit.SecurityAuditor
	logger         *zap.Logger
}

// NewDescriptionService creates the description provider. A nil client
// selects the rule-based strategy only. workerPool and circuitBreaker may be
// nil, in which case defaults are created.
func NewDescriptionService(
	client llm.LLMClient,
	workerPool *llm.WorkerPool,
	circuitBreaker *llm.CircuitBreaker,
	config DescriptionConfig,
	logger *zap.Logger,
) DescriptionService {
	def := DefaultDescriptionConfig()
	if config.BatchSize < 1 {
		config.BatchSize = def.BatchSize
	}
	if config.MaxTokens < 1 {
		config.MaxTokens = def.MaxTokens
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = def.RequestTimeout
	}
	if workerPool == nil {
		workerPool = llm.NewWorkerPool(llm.DefaultWorkerPoolConfig(), logger)
	}
	if circuitBreaker == nil {
		circuitBreaker = llm.NewCircuitBreaker(llm.DefaultCircuitBreakerConfig())
	}

	return &descriptionService{
		client:         client,
		workerPool:     workerPool,
		circuitBreaker: circuitBreaker,
		config:         config,
		auditor:        audit.NewSecurityAuditor(logger),
		logger:         logger.Named("descriptions"),
	}
}

var _ DescriptionService = (*descriptionService)(nil)

func (s *descriptionService) HasRemoteDescriptions() bool {
	return s.client != nil
}

func (s *descriptionService) Enhance(ctx context.Context, columns []*models.ColumnAnalysis) []*models.ColumnAnalysis {
	if len(columns) == 0 {
		return columns
	}
	if s.client == nil {
		applyRuleBased(columns)
		return columns
	}

	if err := s.enhanceRemote(ctx, columns); err != nil {
		s.logger.Warn("Remote description generation failed, using rule-based descriptions",
			zap.Int("columns", len(columns)),
			zap.String("error", logging.SanitizeError(err)))
		applyRuleBased(columns)
	}
	return columns
}

func applyRuleBased(columns []*models.ColumnAnalysis) {
	for _, col := range columns {
		col.Description = RuleBasedDescription(col)
	}
}

// enhanceRemote describes columns batch by batch. Per-batch and per-column
// failures fall back locally; only a panic aborts the whole run.
func (s *descriptionService) enhanceRemote(ctx context.Context, columns []*models.ColumnAnalysis) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in remote descriptions: %v", r)
		}
	}()

	batches := chunkColumns(columns, s.config.BatchSize)

	items := make([]llm.WorkItem[[]string], len(batches))
	for i, batch := range batches {
		batch := batch
		items[i] = llm.WorkItem[[]string]{
			ID: fmt.Sprintf("batch-%d", i),
			Execute: func(ctx context.Context) ([]string, error) {
				return s.describeBatch(ctx, batch)
			},
		}
	}

	results := llm.Process(ctx, s.workerPool, items, nil)

	for i, result := range results {
		batch := batches[i]
		switch {
		case errors.Is(result.Err, apperrors.ErrDescriptionUnavailable):
			s.logger.Debug("Circuit open, skipping description batch",
				zap.String("batch", result.ID),
				zap.Int("columns", len(batch)))
		case result.Err != nil:
			s.logger.Warn("Description batch failed, using rule-based descriptions",
				zap.String("batch", result.ID),
				zap.Int("columns", len(batch)),
				zap.String("error_type", string(llm.GetErrorType(result.Err))),
				zap.String("error", logging.SanitizeError(result.Err)))
		}
		s.applyBatch(ctx, batch, result.Result)
	}
	return nil
}

// applyBatch assigns descriptions by position. Missing, blank or unsafe
// entries get the rule-based description.
func (s *descriptionService) applyBatch(ctx context.Context, batch []*models.ColumnAnalysis, descriptions []string) {
	for j, col := range batch {
		var desc string
		if j < len(descriptions) {
			desc = strings.TrimSpace(descriptions[j])
		}

		if desc != "" {
			if check := sql.CheckTextForInjection(col.Name, desc); check != nil {
				s.auditor.LogGeneratedTextRejected(ctx, audit.GeneratedTextDetails{
					Column:      col.Name,
					Text:        desc,
					Kind:        string(check.Kind),
					Fingerprint: check.Fingerprint,
					Model:       s.client.GetModel(),
				})
				desc = ""
			}
		}

		if desc == "" {
			col.Description = RuleBasedDescription(col)
			continue
		}
		col.Description = truncateRunes(desc, MaxDescriptionLength)
	}
}

// describeBatch makes one request for a batch. A panic is turned into an
// error so only this batch falls back.
func (s *descriptionService) describeBatch(ctx context.Context, batch []*models.ColumnAnalysis) (descriptions []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic describing batch: %v", r)
		}
	}()

	if allowed, err := s.circuitBreaker.Allow(); !allowed {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrDescriptionUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	result, err := s.client.GenerateResponse(ctx, llm.Request{
		Prompt:       buildDescriptionPrompt(batch),
		Temperature:  s.config.Temperature,
		MaxTokens:    s.config.MaxTokens,
		JSONResponse: true,
	})
	if err != nil {
		s.circuitBreaker.RecordFailure()
		s.logger.Debug("Circuit breaker recorded failure",
			zap.String("circuit_state", s.circuitBreaker.State().String()),
			zap.Int("consecutive_failures", s.circuitBreaker.ConsecutiveFailures()))
		return nil, err
	}
	s.circuitBreaker.RecordSuccess()

	descriptions, err = parseDescriptions(result.Content)
	if err != nil {
		s.logger.Warn("Failed to parse description response",
			zap.Int("columns", len(batch)),
			zap.String("response_preview", logging.Preview(result.Content)),
			zap.Error(err))
		return nil, err
	}
	if len(descriptions) != len(batch) {
		s.logger.Debug("Description count does not match batch size",
			zap.Int("expected", len(batch)),
			zap.Int("received", len(descriptions)))
	}
	return descriptions, nil
}

type descriptionsResponse struct {
	Descriptions []jsonutil.FlexibleString `json:"descriptions"`
}

// parseDescriptions reads {"descriptions": [...]} or a bare array, then
// falls back to salvaging complete entries from a truncated response.
func parseDescriptions(content string) ([]string, error) {
	if resp, err := llm.ParseJSONResponse[descriptionsResponse](content); err == nil {
		return jsonutil.Strings(resp.Descriptions), nil
	}
	if arr, err := llm.ParseJSONResponse[[]jsonutil.FlexibleString](content); err == nil {
		return jsonutil.Strings(arr), nil
	}

	salvaged, err := llm.SalvageStringArray(content, "descriptions")
	if err != nil {
		return nil, fmt.Errorf("could not parse description response: %w", err)
	}
	return salvaged, nil
}

func buildDescriptionPrompt(batch []*models.ColumnAnalysis) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Generate concise business descriptions (max %d chars each) for these database columns:\n\n", MaxDescriptionLength)
	for _, col := range batch {
		sb.WriteString(columnSummary(col))
		sb.WriteString("\n")
	}
	sb.WriteString("\nReturn valid JSON:\n")
	sb.WriteString(`{"descriptions": ["description 1", "description 2", ...]}`)
	sb.WriteString("\n\nEach description should explain the business purpose and data format.")

	return sb.String()
}

// columnSummary renders "name (TYPE): sample [N% nulls]".
func columnSummary(col *models.ColumnAnalysis) string {
	line := fmt.Sprintf("%s (%s)", col.Name, col.TargetType)
	if len(col.SampleValues) > 0 {
		line += ": " + col.SampleValues[0]
	}
	if col.NullPercentage > highNullRate {
		line += fmt.Sprintf(" [%.0f%% nulls]", col.NullPercentage)
	}
	return line
}

func chunkColumns(columns []*models.ColumnAnalysis, size int) [][]*models.ColumnAnalysis {
	var batches [][]*models.ColumnAnalysis
	for start := 0; start < len(columns); start += size {
		end := min(start+size, len(columns))
		batches = append(batches, columns[start:end])
	}
	return batches
}
