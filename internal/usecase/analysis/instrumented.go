package analysis

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/examdex/internal/domain"
)

// BudgetChecker is the local interface for budget enforcement.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(ctx context.Context, tokens int64)
}

// InstrumentedAnalyzer wraps an Analyzer with budget enforcement and logging.
// Transport metrics (requests, duration, tokens) are recorded in transport/openai.
type InstrumentedAnalyzer struct {
	inner    domain.Analyzer
	provider string
	model    string
	budget   BudgetChecker
	logger   *zap.Logger
}

// NewInstrumentedAnalyzer wraps an analyzer. budget can be nil (unlimited).
func NewInstrumentedAnalyzer(
	inner domain.Analyzer, provider, model string,
	budget BudgetChecker, logger *zap.Logger,
) *InstrumentedAnalyzer {
	return &InstrumentedAnalyzer{
		inner:    inner,
		provider: provider,
		model:    model,
		budget:   budget,
		logger:   logger,
	}
}

// Complete checks the budget, delegates to the inner analyzer and records usage.
func (a *InstrumentedAnalyzer) Complete(ctx context.Context, p domain.Prompt) (domain.Completion, error) {
	if a.budget != nil {
		if err := a.budget.Check(ctx); err != nil {
			a.logger.Error("Budget exceeded",
				zap.String("provider", a.provider),
				zap.String("model", a.model),
				zap.Error(err),
			)
			return domain.Completion{}, fmt.Errorf("budget check: %w", err)
		}
	}

	start := time.Now()
	res, err := a.inner.Complete(ctx, p)
	duration := time.Since(start)

	if err != nil {
		a.logger.Error("Analysis request failed",
			zap.String("provider", a.provider),
			zap.String("model", a.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.Completion{}, fmt.Errorf("complete: %w", err)
	}

	if a.budget != nil && res.TotalTokens > 0 {
		a.budget.Record(ctx, int64(res.TotalTokens))
	}

	a.logger.Debug("Analysis request completed",
		zap.String("provider", a.provider),
		zap.String("model", a.model),
		zap.Duration("duration", duration),
		zap.Int("prompt_tokens", res.PromptTokens),
		zap.Int("completion_tokens", res.CompletionTokens),
		zap.Int("total_tokens", res.TotalTokens),
	)
	return res, nil
}
