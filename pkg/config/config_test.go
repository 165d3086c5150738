package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment cannot
// leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"BIND_ADDR", "PORT", "ENVIRONMENT", "LOG_LEVEL", "TLS_CERT_PATH", "TLS_KEY_PATH",
		"CORS_ORIGINS", "MAX_FILE_SIZE", "ANALYSIS_TIMEOUT", "MAX_CONCURRENT_ANALYSES",
		"DEFAULT_TABLE_NAME", "CSV_SEPARATORS", "CSV_ENCODINGS",
		"AI_PROVIDER", "AI_BASE_URL", "AI_MODEL", "AI_API_KEY", "AI_REQUEST_TIMEOUT",
		"AI_BATCH_SIZE", "AI_MAX_CONCURRENT", "AI_MAX_TOKENS", "AI_TEMPERATURE",
		"AI_REQUESTS_PER_SECOND",
	} {
		name := name
		if value, ok := os.LookupEnv(name); ok {
			require.NoError(t, os.Unsetenv(name))
			t.Cleanup(func() { _ = os.Setenv(name, value) })
		}
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFile_DefaultsWithoutFile(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), "test-version")
	require.NoError(t, err)

	assert.Equal(t, "test-version", cfg.Version)
	assert.Equal(t, "127.0.0.1", cfg.BindAddr)
	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "127.0.0.1:8000", cfg.Addr())
	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, int64(100<<20), cfg.MaxFileSize)
	assert.Equal(t, 5*time.Minute, cfg.AnalysisTimeout)
	assert.Equal(t, 4, cfg.MaxConcurrentAnalyses)
	assert.Equal(t, "my_table", cfg.DefaultTableName)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:3001"}, cfg.CORSOrigins)
	assert.Equal(t, []string{",", ";", "\t", "|", " "}, cfg.CSV.Separators)
	assert.Equal(t, []string{"utf-8", "latin1", "cp1252", "iso-8859-1"}, cfg.CSV.Encodings)

	assert.Equal(t, "openai", cfg.AI.Provider)
	assert.Equal(t, "gemma2-9b-it", cfg.AI.Model)
	assert.Equal(t, 30*time.Second, cfg.AI.RequestTimeout)
	assert.Equal(t, 15, cfg.AI.BatchSize)
	assert.Equal(t, 2, cfg.AI.MaxConcurrent)
	assert.Equal(t, 2000, cfg.AI.MaxTokens)
	assert.InDelta(t, 0.1, cfg.AI.Temperature, 1e-9)
	assert.False(t, cfg.AI.IsAvailable())
	assert.False(t, cfg.TLSEnabled())
}

func TestLoadFile_EnvOverridesYAML(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
port: "9000"
env: "staging"
default_table_name: "imports"
csv:
  separators: "semicolon,comma"
ai:
  provider: "anthropic"
  model: "claude-3-5-haiku-latest"
  batch_size: 10
`)

	t.Setenv("PORT", "9100")
	t.Setenv("AI_API_KEY", "secret")
	t.Setenv("AI_BATCH_SIZE", "5")

	cfg, err := LoadFile(path, "v1")
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Port, "env should override yaml")
	assert.Equal(t, "staging", cfg.Env, "yaml value should be used")
	assert.Equal(t, "imports", cfg.DefaultTableName)
	assert.Equal(t, []string{";", ","}, cfg.CSV.Separators)
	assert.Equal(t, "anthropic", cfg.AI.Provider)
	assert.Equal(t, 5, cfg.AI.BatchSize)
	assert.Equal(t, "secret", cfg.AI.APIKey)
	assert.True(t, cfg.AI.IsAvailable())
}

func TestLoadFile_APIKeyIgnoredInYAML(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
ai:
  api_key: "should-not-load"
`)

	cfg, err := LoadFile(path, "v1")
	require.NoError(t, err)
	assert.Empty(t, cfg.AI.APIKey)
}

func TestLoadFile_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"non-numeric port", map[string]string{"PORT": "http"}},
		{"negative max file size", map[string]string{"MAX_FILE_SIZE": "-1"}},
		{"zero concurrent analyses", map[string]string{"MAX_CONCURRENT_ANALYSES": "0"}},
		{"unknown provider", map[string]string{"AI_PROVIDER": "cohere"}},
		{"zero batch size", map[string]string{"AI_BATCH_SIZE": "0"}},
		{"relative base url", map[string]string{"AI_BASE_URL": "api.groq.com"}},
		{"bad separator", map[string]string{"CSV_SEPARATORS": "comma,ab"}},
		{"only tls cert", map[string]string{"TLS_CERT_PATH": "/tmp/cert.pem"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), "v1")
			assert.Error(t, err)
		})
	}
}

func TestLoadFile_TLSFilesMustExist(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	cert := filepath.Join(dir, "cert.pem")
	key := filepath.Join(dir, "key.pem")
	require.NoError(t, os.WriteFile(cert, []byte("cert"), 0600))

	t.Setenv("TLS_CERT_PATH", cert)
	t.Setenv("TLS_KEY_PATH", key)

	_, err := LoadFile(filepath.Join(dir, "missing.yaml"), "v1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TLS key file does not exist")

	require.NoError(t, os.WriteFile(key, []byte("key"), 0600))
	cfg, err := LoadFile(filepath.Join(dir, "missing.yaml"), "v1")
	require.NoError(t, err)
	assert.True(t, cfg.TLSEnabled())
}

func TestParseSeparators(t *testing.T) {
	tests := []struct {
		input   string
		want    []string
		wantErr bool
	}{
		{input: "comma, TAB ,pipe", want: []string{",", "\t", "|"}},
		{input: `;,\t,#`, want: []string{";", "\t", "#"}},
		{input: "", want: nil},
		{input: "comma,::", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseSeparators(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAIConfig_IsAvailable(t *testing.T) {
	assert.False(t, (&AIConfig{Model: "m", APIKey: "   "}).IsAvailable())
	assert.False(t, (&AIConfig{APIKey: "k"}).IsAvailable())
	assert.True(t, (&AIConfig{Model: "m", APIKey: "k"}).IsAvailable())
}
