package domain

import "context"

// Analyzer is the chat-completion contract shared by the analysis layers.
type Analyzer interface {
	Complete(ctx context.Context, p Prompt) (Completion, error)
}

// HealthChecker verifies analysis provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Prompt is one system instruction plus one user message.
type Prompt struct {
	System string
	User   string
}

// Completion carries the generated text and token usage through the decorator chain.
type Completion struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
