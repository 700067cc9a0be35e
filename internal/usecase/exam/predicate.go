package exam

import (
	"time"

	domexam "github.com/kailas-cloud/examdex/internal/domain/exam"
	"github.com/kailas-cloud/examdex/internal/domain/search/filter"
	"github.com/kailas-cloud/examdex/internal/domain/search/text"
)

// BuildPredicate composes the listing predicate. The owner clause always comes
// first and cannot be dropped. Dates are resolved in loc when compiled.
func BuildPredicate(ownerID string, f domexam.Filter, loc *time.Location) filter.Expression {
	conds := []filter.Condition{
		filter.Match(domexam.FieldOwnerID, ownerID),
		filter.Match(domexam.FieldExamType, f.ExamType),
	}
	if f.ExamDate != "" {
		conds = append(conds, filter.Dates(domexam.FieldExamDate, filter.Day(f.ExamDate, loc)))
	}
	if f.StartDate != "" || f.EndDate != "" {
		conds = append(conds, filter.Dates(domexam.FieldExamDate, filter.Between(f.StartDate, f.EndDate, loc)))
	}
	conds = append(conds, text.Expand(f.Text, domexam.SearchFields()))
	return filter.And(conds...)
}
