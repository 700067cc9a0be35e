package examdex

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/examdex/internal/domain"
)

// Analyzer generates an analysis from a system instruction and a user message.
// Plug in any chat-completion backend with WithAnalyzer; WithOpenAI covers
// OpenAI-compatible APIs.
type Analyzer interface {
	Complete(ctx context.Context, system, user string) (Completion, error)
}

// Completion is the generated text plus token usage.
type Completion struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// analyzerAdapter wraps a public Analyzer to satisfy domain.Analyzer.
type analyzerAdapter struct {
	inner Analyzer
}

func (a *analyzerAdapter) Complete(ctx context.Context, p domain.Prompt) (domain.Completion, error) {
	c, err := a.inner.Complete(ctx, p.System, p.User)
	if err != nil {
		return domain.Completion{}, fmt.Errorf("complete: %w", err)
	}
	return domain.Completion{
		Text:             c.Text,
		PromptTokens:     c.PromptTokens,
		CompletionTokens: c.CompletionTokens,
		TotalTokens:      c.TotalTokens,
	}, nil
}

// HealthCheck delegates when the wrapped analyzer can check itself.
func (a *analyzerAdapter) HealthCheck(ctx context.Context) error {
	if hc, ok := a.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
