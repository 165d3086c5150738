package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultConfigFile is read from the working directory when present.
const DefaultConfigFile = "config.yaml"

// Config holds all configuration for schemasense.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (API keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8000"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// TLS configuration (optional - if both provided, server uses HTTPS)
	TLSCertPath string `yaml:"tls_cert_path" env:"TLS_CERT_PATH" env-default:""`
	TLSKeyPath  string `yaml:"tls_key_path" env:"TLS_KEY_PATH" env-default:""`

	// CORSOriginsStr is a comma-separated list of allowed browser origins.
	CORSOriginsStr string   `yaml:"cors_origins" env:"CORS_ORIGINS" env-default:"http://localhost:3000,http://localhost:3001"`
	CORSOrigins    []string `yaml:"-"`

	// Analysis limits
	MaxFileSize           int64         `yaml:"max_file_size" env:"MAX_FILE_SIZE" env-default:"104857600"`
	AnalysisTimeout       time.Duration `yaml:"analysis_timeout" env:"ANALYSIS_TIMEOUT" env-default:"5m"`
	MaxConcurrentAnalyses int           `yaml:"max_concurrent_analyses" env:"MAX_CONCURRENT_ANALYSES" env-default:"4"`
	DefaultTableName      string        `yaml:"default_table_name" env:"DEFAULT_TABLE_NAME" env-default:"my_table"`

	CSV CSVConfig `yaml:"csv"`
	AI  AIConfig  `yaml:"ai"`
}

// CSVConfig lists what the tabular parser tries, in order.
type CSVConfig struct {
	// SeparatorsStr is a comma-separated list; the words "tab", "space",
	// "comma", "semicolon" and "pipe" name characters that are awkward in YAML.
	SeparatorsStr string `yaml:"separators" env:"CSV_SEPARATORS" env-default:"comma,semicolon,tab,pipe,space"`
	EncodingsStr  string `yaml:"encodings" env:"CSV_ENCODINGS" env-default:"utf-8,latin1,cp1252,iso-8859-1"`

	Separators []string `yaml:"-"`
	Encodings  []string `yaml:"-"`
}

// AIConfig configures the remote description provider.
type AIConfig struct {
	Provider          string        `yaml:"provider" env:"AI_PROVIDER" env-default:"openai"`
	BaseURL           string        `yaml:"base_url" env:"AI_BASE_URL" env-default:""` // Empty uses the provider default
	Model             string        `yaml:"model" env:"AI_MODEL" env-default:"gemma2-9b-it"`
	APIKey            string        `yaml:"-" env:"AI_API_KEY"` // Secret - not in YAML
	RequestTimeout    time.Duration `yaml:"request_timeout" env:"AI_REQUEST_TIMEOUT" env-default:"30s"`
	BatchSize         int           `yaml:"batch_size" env:"AI_BATCH_SIZE" env-default:"15"`
	MaxConcurrent     int           `yaml:"max_concurrent" env:"AI_MAX_CONCURRENT" env-default:"2"`
	MaxTokens         int           `yaml:"max_tokens" env:"AI_MAX_TOKENS" env-default:"2000"`
	Temperature       float64       `yaml:"temperature" env:"AI_TEMPERATURE" env-default:"0.1"`
	RequestsPerSecond float64       `yaml:"requests_per_second" env:"AI_REQUESTS_PER_SECOND" env-default:"0"`
}

// IsAvailable returns true when remote descriptions can be attempted.
func (c *AIConfig) IsAvailable() bool {
	return strings.TrimSpace(c.APIKey) != "" && strings.TrimSpace(c.Model) != ""
}

// ResolvedBaseURL returns BaseURL with a loopback host rewritten for Docker,
// so a model served on the host machine stays reachable from a container.
func (c *AIConfig) ResolvedBaseURL() string {
	return ResolveURLForDocker(c.BaseURL)
}

var knownProviders = map[string]bool{"openai": true, "anthropic": true}

// Load reads config.yaml from the working directory (if present) with
// environment variable overrides. The version parameter is injected at build
// time and set on the returned Config.
func Load(version string) (*Config, error) {
	return LoadFile(DefaultConfigFile, version)
}

// LoadFile is Load with an explicit YAML path. A missing file is not an
// error: defaults and environment variables are used instead.
func LoadFile(path, version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	_, statErr := os.Stat(path)
	switch {
	case statErr == nil:
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	case errors.Is(statErr, fs.ErrNotExist):
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to stat %s: %w", path, statErr)
	}

	if err := cfg.parseComplexFields(); err != nil {
		return nil, fmt.Errorf("failed to parse config fields: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.validateTLS(); err != nil {
		return nil, fmt.Errorf("invalid TLS configuration: %w", err)
	}

	return cfg, nil
}

// parseComplexFields handles fields that need post-processing after loading.
func (c *Config) parseComplexFields() error {
	c.CORSOrigins = parseList(c.CORSOriginsStr)
	c.CSV.Encodings = parseList(c.CSV.EncodingsStr)

	seps, err := parseSeparators(c.CSV.SeparatorsStr)
	if err != nil {
		return err
	}
	c.CSV.Separators = seps
	return nil
}

func (c *Config) validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("port must be numeric, got %q", c.Port)
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("max_file_size must be positive")
	}
	if c.AnalysisTimeout <= 0 {
		return fmt.Errorf("analysis_timeout must be positive")
	}
	if c.MaxConcurrentAnalyses < 1 {
		return fmt.Errorf("max_concurrent_analyses must be at least 1")
	}
	if strings.TrimSpace(c.DefaultTableName) == "" {
		return fmt.Errorf("default_table_name must not be empty")
	}
	if !knownProviders[strings.ToLower(c.AI.Provider)] {
		return fmt.Errorf("unknown ai.provider %q", c.AI.Provider)
	}
	if c.AI.BatchSize < 1 {
		return fmt.Errorf("ai.batch_size must be at least 1")
	}
	if c.AI.BaseURL != "" {
		if u, err := url.Parse(c.AI.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("ai.base_url must be an absolute URL, got %q", c.AI.BaseURL)
		}
	}
	return nil
}

// validateTLS ensures TLS configuration is valid if provided.
// Both cert and key must be provided together, and files must exist and be readable.
func (c *Config) validateTLS() error {
	certSet := c.TLSCertPath != ""
	keySet := c.TLSKeyPath != ""

	// Both must be provided together or both empty
	if certSet != keySet {
		return fmt.Errorf("both tls_cert_path and tls_key_path must be provided together")
	}

	// If both provided, verify files exist (actual readability checked by tls.LoadX509KeyPair at startup)
	if certSet {
		if _, err := os.Stat(c.TLSCertPath); err != nil {
			return fmt.Errorf("TLS cert file does not exist: %w", err)
		}
		if _, err := os.Stat(c.TLSKeyPath); err != nil {
			return fmt.Errorf("TLS key file does not exist: %w", err)
		}
	}

	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return c.BindAddr + ":" + c.Port
}

// TLSEnabled reports whether the server should serve HTTPS.
func (c *Config) TLSEnabled() bool {
	return c.TLSCertPath != "" && c.TLSKeyPath != ""
}

func parseList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

var separatorNames = map[string]string{
	"comma":     ",",
	"semicolon": ";",
	"tab":       "\t",
	"pipe":      "|",
	"space":     " ",
}

// parseSeparators accepts names from separatorNames or single characters.
// The comma itself must be given by name since it delimits the list.
func parseSeparators(value string) ([]string, error) {
	var out []string
	for _, item := range parseList(value) {
		if sep, ok := separatorNames[strings.ToLower(item)]; ok {
			out = append(out, sep)
			continue
		}
		if item == `\t` {
			out = append(out, "\t")
			continue
		}
		if utf8.RuneCountInString(item) != 1 {
			return nil, fmt.Errorf("invalid csv separator %q", item)
		}
		out = append(out, item)
	}
	return out, nil
}
