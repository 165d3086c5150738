package services

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/schemasense/pkg/config"
	"github.com/ekaya-inc/schemasense/pkg/inference"
	"github.com/ekaya-inc/schemasense/pkg/llm"
	"github.com/ekaya-inc/schemasense/pkg/tabular"
)

// EffectiveLLMConfig resolves the client configuration for ai. It returns
// nil when remote descriptions are not configured.
func EffectiveLLMConfig(ai *config.AIConfig) *llm.Config {
	if ai == nil || !ai.IsAvailable() {
		return nil
	}
	return &llm.Config{
		Provider:          strings.ToLower(ai.Provider),
		Endpoint:          ai.ResolvedBaseURL(),
		Model:             ai.Model,
		APIKey:            ai.APIKey,
		RequestsPerSecond: ai.RequestsPerSecond,
	}
}

// NewDescriptionServiceFromConfig creates the description provider. Remote
// descriptions are used only when enableRemote is set and the AI settings
// are complete; otherwise the rule-based strategy is used alone.
func NewDescriptionServiceFromConfig(cfg *config.Config, enableRemote bool, logger *zap.Logger) (DescriptionService, error) {
	descConfig := DescriptionConfig{
		BatchSize:      cfg.AI.BatchSize,
		MaxTokens:      cfg.AI.MaxTokens,
		Temperature:    cfg.AI.Temperature,
		RequestTimeout: cfg.AI.RequestTimeout,
	}

	llmConfig := EffectiveLLMConfig(&cfg.AI)
	if !enableRemote || llmConfig == nil {
		logger.Info("Remote descriptions disabled, using rule-based descriptions",
			zap.Bool("requested", enableRemote),
			zap.Bool("configured", llmConfig != nil))
		return NewDescriptionService(nil, nil, nil, descConfig, logger), nil
	}

	client, err := llm.NewClientFromConfig(llmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create description client: %w", err)
	}

	pool := llm.NewWorkerPool(llm.WorkerPoolConfig{MaxConcurrent: cfg.AI.MaxConcurrent}, logger)
	breaker := llm.NewCircuitBreaker(llm.DefaultCircuitBreakerConfig())

	logger.Info("Remote descriptions enabled",
		zap.String("provider", llmConfig.Provider),
		zap.String("model", client.GetModel()),
		zap.String("endpoint", client.GetEndpoint()),
		zap.Int("batch_size", descConfig.BatchSize),
		zap.Int("max_concurrent", pool.MaxConcurrent()))

	return NewDescriptionService(client, pool, breaker, descConfig, logger), nil
}

// NewAnalysisServiceFromConfig wires the full analysis pipeline from cfg.
func NewAnalysisServiceFromConfig(cfg *config.Config, enableRemote bool, logger *zap.Logger) (AnalysisService, error) {
	descriptions, err := NewDescriptionServiceFromConfig(cfg, enableRemote, logger)
	if err != nil {
		return nil, err
	}

	parse := tabular.DefaultOptions()
	parse.MaxFileSize = cfg.MaxFileSize
	if len(cfg.CSV.Separators) > 0 {
		parse.Separators = cfg.CSV.Separators
	}
	if len(cfg.CSV.Encodings) > 0 {
		parse.Encodings = cfg.CSV.Encodings
	}

	return NewAnalysisService(
		inference.NewEngine(inference.DefaultRules()),
		descriptions,
		AnalysisConfig{
			DefaultTableName: cfg.DefaultTableName,
			Timeout:          cfg.AnalysisTimeout,
			Parse:            parse,
		},
		logger,
	), nil
}
