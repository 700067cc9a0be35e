package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the examdex API configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Search   SearchConfig   `yaml:"search"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds identity token settings.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"` // empty rejects every protected request
	JWTIssuer string `yaml:"jwt_issuer"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis (default)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// SearchConfig holds listing settings.
type SearchConfig struct {
	Timezone        string `yaml:"timezone"` // IANA name, resolves calendar days
	DefaultPageSize int    `yaml:"default_page_size"`
}

// AnalysisConfig holds AI analysis provider settings.
type AnalysisConfig struct {
	APIKey           string       `yaml:"api_key"` // empty = provider not configured
	BaseURL          string       `yaml:"base_url"`
	Model            string       `yaml:"model"`
	TimeoutSec       int          `yaml:"timeout_sec"`
	MaxRetries       *int         `yaml:"max_retries"`
	Temperature      *float32     `yaml:"temperature"`
	MaxTokens        int          `yaml:"max_tokens"`
	MaxInputChars    int          `yaml:"max_input_chars"`
	SystemPrompt     string       `yaml:"system_prompt"`
	UserTemplate     string       `yaml:"user_template"`
	InProgressTTLSec int          `yaml:"in_progress_ttl_sec"` // 0 disables the in-progress marker
	Budget           BudgetConfig `yaml:"budget"`
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// Configured reports whether a provider credential is set.
func (a AnalysisConfig) Configured() bool {
	return strings.TrimSpace(a.APIKey) != ""
}

// Location returns the configured time zone. Validate guarantees it loads.
func (s SearchConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML config, expanding ${VAR} references, then applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	// Must outlast a full provider round trip with retries.
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 90
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "redis"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "examdex:"
	}
	if c.Search.Timezone == "" {
		c.Search.Timezone = "UTC"
	}
	if c.Search.DefaultPageSize <= 0 {
		c.Search.DefaultPageSize = 10
	}
	if c.Analysis.Model == "" {
		c.Analysis.Model = "gpt-4o-mini"
	}
	if c.Analysis.TimeoutSec <= 0 {
		c.Analysis.TimeoutSec = 60
	}
	if c.Analysis.MaxRetries == nil {
		n := 2
		c.Analysis.MaxRetries = &n
	}
	if c.Analysis.Temperature == nil {
		t := float32(0.3)
		c.Analysis.Temperature = &t
	}
	if c.Analysis.MaxTokens == 0 {
		c.Analysis.MaxTokens = 1000
	}
	if c.Analysis.MaxInputChars <= 0 {
		c.Analysis.MaxInputChars = 8000
	}
	if c.Analysis.Budget.Action == "" {
		c.Analysis.Budget.Action = "warn"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Database.Driver != "redis" {
		return fmt.Errorf("database.driver must be \"redis\", got %q", c.Database.Driver)
	}
	if _, err := time.LoadLocation(c.Search.Timezone); err != nil {
		return fmt.Errorf("search.timezone %q: %w", c.Search.Timezone, err)
	}
	switch c.Analysis.Budget.Action {
	case "", "warn", "reject":
		// ok
	default:
		return fmt.Errorf(
			"analysis.budget.action must be \"warn\" or \"reject\", got %q", c.Analysis.Budget.Action,
		)
	}
	if t := c.Analysis.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("analysis.temperature must be between 0 and 2, got %g", *t)
	}
	if c.Analysis.MaxTokens <= 0 {
		return fmt.Errorf("analysis.max_tokens must be positive, got %d", c.Analysis.MaxTokens)
	}
	if c.Analysis.InProgressTTLSec < 0 {
		return fmt.Errorf("analysis.in_progress_ttl_sec must not be negative")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
