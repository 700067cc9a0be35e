package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/kailas-cloud/examdex/internal/domain"
	"github.com/kailas-cloud/examdex/internal/metrics"
)

// Provider defaults.
const (
	DefaultModel       = "gpt-4o-mini"
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 1000
	DefaultTimeout     = 60 * time.Second
	DefaultMaxRetries  = 2
	defaultRetryBase   = 500 * time.Millisecond
)

// Analyzer is an analysis provider using the OpenAI-compatible chat completion API.
type Analyzer struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	maxRetries  int
	retryBase   time.Duration
	provider    string
	logger      *zap.Logger
}

// Config holds the analysis provider settings. Zero values take the defaults.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature *float32
	MaxTokens   int
	Timeout     time.Duration
	MaxRetries  *int
	RetryBase   time.Duration
	Provider    string
	Logger      *zap.Logger
}

// NewAnalyzer creates an OpenAI-compatible analysis provider.
// Timeout bounds each attempt; MaxRetries bounds the attempts after the first.
func NewAnalyzer(cfg *Config) *Analyzer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	a := &Analyzer{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: DefaultTemperature,
		maxTokens:   cfg.MaxTokens,
		maxRetries:  DefaultMaxRetries,
		retryBase:   cfg.RetryBase,
		provider:    cfg.Provider,
		logger:      cfg.Logger,
	}
	if a.model == "" {
		a.model = DefaultModel
	}
	if cfg.Temperature != nil {
		a.temperature = *cfg.Temperature
	}
	if a.maxTokens <= 0 {
		a.maxTokens = DefaultMaxTokens
	}
	if cfg.MaxRetries != nil && *cfg.MaxRetries >= 0 {
		a.maxRetries = *cfg.MaxRetries
	}
	if a.retryBase <= 0 {
		a.retryBase = defaultRetryBase
	}
	if a.provider == "" {
		a.provider = "openai"
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	return a
}

// Model returns the configured model name.
func (a *Analyzer) Model() string { return a.model }

// Complete implements domain.Analyzer with transport-level metrics.
// Rate limits, 5xx and network failures are retried with exponential backoff.
func (a *Analyzer) Complete(ctx context.Context, p domain.Prompt) (domain.Completion, error) {
	req := openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.System},
			{Role: openai.ChatMessageRoleUser, Content: p.User},
		},
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	}

	var (
		resp    openai.ChatCompletionResponse
		attempt int
	)
	backoff := retry.WithMaxRetries(uint64(a.maxRetries), retry.NewExponential(a.retryBase))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		start := time.Now()
		var err error
		resp, err = a.client.CreateChatCompletion(ctx, req)
		duration := time.Since(start)

		if err != nil {
			kind := errorKind(err)
			metrics.AnalysisRequestsTotal.WithLabelValues(a.provider, a.model, "error").Inc()
			metrics.AnalysisErrorsTotal.WithLabelValues(a.provider, a.model, kind).Inc()
			if ctx.Err() == nil && retryable(err) {
				a.logger.Warn("Analysis request failed, retrying",
					zap.String("provider", a.provider),
					zap.Int("attempt", attempt),
					zap.String("error_type", kind),
					zap.Error(err),
				)
				return retry.RetryableError(err)
			}
			return err
		}

		metrics.AnalysisRequestsTotal.WithLabelValues(a.provider, a.model, "success").Inc()
		metrics.AnalysisRequestDuration.WithLabelValues(a.provider, a.model).Observe(duration.Seconds())
		return nil
	})
	if err != nil {
		return domain.Completion{}, parseAPIError(err)
	}

	if len(resp.Choices) == 0 {
		metrics.AnalysisErrorsTotal.WithLabelValues(a.provider, a.model, "empty_response").Inc()
		return domain.Completion{}, fmt.Errorf("empty completion response: %w", domain.ErrProviderUnavailable)
	}

	usage := resp.Usage
	if usage.TotalTokens > 0 {
		metrics.AnalysisTokensTotal.WithLabelValues(a.provider, a.model, "prompt").Add(float64(usage.PromptTokens))
		metrics.AnalysisTokensTotal.WithLabelValues(a.provider, a.model, "completion").Add(float64(usage.CompletionTokens))
		metrics.AnalysisTokensTotal.WithLabelValues(a.provider, a.model, "total").Add(float64(usage.TotalTokens))
	}

	return domain.Completion{
		Text:             resp.Choices[0].Message.Content,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
	}, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (a *Analyzer) HealthCheck(ctx context.Context) error {
	if _, err := a.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// parseAPIError maps a provider failure onto the domain taxonomy.
// Every result matches domain.ErrProviderUnavailable.
func parseAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("analysis API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, classify(apiErr.HTTPStatusCode, apiCode(apiErr)))
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return fmt.Errorf("analysis API error %d: %s: %w",
			reqErr.HTTPStatusCode, detail, classify(reqErr.HTTPStatusCode, ""))
	}

	return fmt.Errorf("analysis request failed: %w: %w", domain.ErrProviderUnavailable, err)
}

func classify(status int, code string) error {
	switch {
	case code == "insufficient_quota":
		return domain.ErrProviderQuotaExceeded
	case code == "invalid_api_key" || status == http.StatusUnauthorized:
		return domain.ErrProviderInvalidCredential
	default:
		return domain.ErrProviderUnavailable
	}
}

// retryable reports whether another attempt may succeed.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiCode(apiErr) == "insufficient_quota" {
			return false
		}
		return retryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}
	// Transport failure before any response.
	return true
}

func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// errorKind is the error_type metric label.
func errorKind(err error) string {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch code := apiCode(apiErr); {
		case code == "insufficient_quota":
			return "quota"
		case code == "invalid_api_key" || apiErr.HTTPStatusCode == http.StatusUnauthorized:
			return "auth"
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return "rate_limit"
		case apiErr.HTTPStatusCode >= http.StatusInternalServerError:
			return "server"
		}
		return "api_error"
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return "api_error"
	}
	return "network"
}

func apiCode(e *openai.APIError) string {
	if s, ok := e.Code.(string); ok {
		return s
	}
	return ""
}

// extractDetail extracts the "detail" field from a JSON error body (Nebius error format).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
