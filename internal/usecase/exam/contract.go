package exam

import (
	"context"

	domexam "github.com/kailas-cloud/examdex/internal/domain/exam"
	"github.com/kailas-cloud/examdex/internal/domain/search/filter"
)

// Repository defines the storage contract for exams.
type Repository interface {
	Create(ctx context.Context, e *domexam.Exam) error
	Get(ctx context.Context, id string) (domexam.Exam, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context, expr filter.Expression) (int, error)
	Search(ctx context.Context, expr filter.Expression, offset, limit int) ([]domexam.Exam, error)
}
