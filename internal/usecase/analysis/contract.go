package analysis

import (
	"context"
	"time"

	domexam "github.com/kailas-cloud/examdex/internal/domain/exam"
	"github.com/kailas-cloud/examdex/internal/domain/usage"
)

// Repository is the exam storage the analysis cache needs.
type Repository interface {
	Get(ctx context.Context, id string) (domexam.Exam, error)
	SaveAnalysis(ctx context.Context, id string, a domexam.Analysis) error
}

// Marker guards an exam against concurrent provider calls.
type Marker interface {
	Acquire(ctx context.Context, examID string) (release func(context.Context) error, acquired bool, err error)
}

// BudgetStore persists token counters per provider and period.
type BudgetStore interface {
	Add(ctx context.Context, provider string, at time.Time, tokens int64) error
	Used(ctx context.Context, provider string, period usage.Period, at time.Time) (int64, error)
}
