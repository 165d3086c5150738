package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/schemasense/pkg/apperrors"
	"github.com/ekaya-inc/schemasense/pkg/config"
)

func testConfig() *config.Config {
	return &config.Config{
		MaxFileSize:           1 << 20,
		AnalysisTimeout:       time.Minute,
		MaxConcurrentAnalyses: 1,
		DefaultTableName:      "imports",
		CSV: config.CSVConfig{
			Separators: []string{";"},
			Encodings:  []string{"utf-8"},
		},
		AI: config.AIConfig{
			Provider:       "openai",
			Model:          "gemma2-9b-it",
			RequestTimeout: time.Second,
			BatchSize:      15,
			MaxConcurrent:  2,
			MaxTokens:      2000,
			Temperature:    0.1,
		},
	}
}

func TestEffectiveLLMConfig(t *testing.T) {
	assert.Nil(t, EffectiveLLMConfig(nil))

	ai := &config.AIConfig{Provider: "Anthropic", Model: "claude-3-5-haiku-latest"}
	assert.Nil(t, EffectiveLLMConfig(ai), "no api key")

	ai.APIKey = "key"
	ai.BaseURL = "https://example.test/v1"
	ai.RequestsPerSecond = 2
	got := EffectiveLLMConfig(ai)
	require.NotNil(t, got)
	assert.Equal(t, "anthropic", got.Provider)
	assert.Equal(t, "claude-3-5-haiku-latest", got.Model)
	assert.Equal(t, "key", got.APIKey)
	assert.Equal(t, "https://example.test/v1", got.Endpoint)
	assert.InDelta(t, 2.0, got.RequestsPerSecond, 1e-9)
}

func TestNewDescriptionServiceFromConfig(t *testing.T) {
	cfg := testConfig()

	svc, err := NewDescriptionServiceFromConfig(cfg, true, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, svc.HasRemoteDescriptions(), "no api key configured")

	cfg.AI.APIKey = "key"
	svc, err = NewDescriptionServiceFromConfig(cfg, false, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, svc.HasRemoteDescriptions(), "remote not requested")

	svc, err = NewDescriptionServiceFromConfig(cfg, true, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, svc.HasRemoteDescriptions())
}

func TestNewAnalysisServiceFromConfig(t *testing.T) {
	cfg := testConfig()

	svc, err := NewAnalysisServiceFromConfig(cfg, false, zap.NewNop())
	require.NoError(t, err)

	result, err := svc.Analyze(context.Background(), AnalyzeRequest{
		FileName: "people.csv",
		Content:  []byte("name;age\nAnn;30\nBen;41\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, "imports", result.TableName)
	assert.Equal(t, ";", result.FileInfo.Separator)

	cfg.MaxFileSize = 4
	svc, err = NewAnalysisServiceFromConfig(cfg, false, zap.NewNop())
	require.NoError(t, err)
	_, err = svc.Analyze(context.Background(), AnalyzeRequest{FileName: "people.csv", Content: []byte("name;age\nAnn;30\n")})
	assert.ErrorIs(t, err, apperrors.ErrFileTooLarge)
}
