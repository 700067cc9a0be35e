package usage

import (
	"context"

	domusage "github.com/kailas-cloud/examdex/internal/domain/usage"
)

// BudgetReader provides read-only access to token budget state.
type BudgetReader interface {
	Provider() string
	Report(ctx context.Context, period domusage.Period) (domusage.Report, error)
}
