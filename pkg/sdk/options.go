package examdex

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs     []string
	username  string
	password  string
	db        int
	keyPrefix string

	openai   *OpenAIConfig
	analyzer Analyzer
	budget   *BudgetConfig

	location        *time.Location
	defaultPageSize int
	maxInputChars   int
	markerTTL       time.Duration

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// OpenAIConfig configures the built-in OpenAI-compatible analyzer.
// Zero values take the server defaults (gpt-4o-mini, 60s timeout, 2 retries).
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxTokens  int
	Timeout    time.Duration
	MaxRetries *int
}

// BudgetConfig bounds provider token usage. A zero limit is unlimited.
// Reject fails calls once a limit is reached; otherwise overruns are only logged.
type BudgetConfig struct {
	DailyTokenLimit   int64
	MonthlyTokenLimit int64
	Reject            bool
}

// WithAddrs sets the Redis addresses.
func WithAddrs(addrs ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = addrs
	})
}

// WithPassword sets Redis ACL credentials. username may be empty.
func WithPassword(username, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.username = username
		c.password = password
	})
}

// WithDB selects the logical Redis database.
func WithDB(db int) Option {
	return optionFunc(func(c *clientConfig) {
		c.db = db
	})
}

// WithKeyPrefix namespaces every key and the search index. Default: "examdex:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithOpenAI enables analysis through an OpenAI-compatible chat completion API.
func WithOpenAI(cfg OpenAIConfig) Option {
	return optionFunc(func(c *clientConfig) {
		if cfg.APIKey == "" {
			return
		}
		c.openai = &cfg
	})
}

// WithAnalyzer sets a custom analysis backend. Takes precedence over WithOpenAI.
func WithAnalyzer(a Analyzer) Option {
	return optionFunc(func(c *clientConfig) {
		c.analyzer = a
	})
}

// WithBudget enables token accounting for the analysis provider.
func WithBudget(b BudgetConfig) Option {
	return optionFunc(func(c *clientConfig) {
		c.budget = &b
	})
}

// WithLocation sets the time zone that resolves calendar-day filters. Default: UTC.
func WithLocation(loc *time.Location) Option {
	return optionFunc(func(c *clientConfig) {
		c.location = loc
	})
}

// WithDefaultPageSize sets the page size used when ListOptions.PageSize is zero.
func WithDefaultPageSize(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultPageSize = n
	})
}

// WithMaxInputChars bounds the exam text sent to the analyzer. Default: 8000.
func WithMaxInputChars(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxInputChars = n
	})
}

// WithInProgressMarker rejects concurrent analyses of the same exam with
// ErrAnalysisInProgress. ttl bounds how long a crashed caller blocks retries.
func WithInProgressMarker(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.markerTTL = ttl
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
