package usage

import (
	"context"
	"fmt"
	"time"

	domusage "github.com/kailas-cloud/examdex/internal/domain/usage"
)

// Service handles usage reporting.
type Service struct {
	br  BudgetReader
	now func() time.Time
}

// New creates a Service. br can be nil (unlimited mode, nothing counted).
func New(br BudgetReader) *Service {
	return &Service{br: br, now: time.Now}
}

// GetReport builds a usage report for the given period.
func (s *Service) GetReport(ctx context.Context, period domusage.Period) (domusage.Report, error) {
	if s.br == nil {
		start, end := period.Bounds(s.now())
		return domusage.NewReport(period, start, end, "", 0, 0), nil
	}
	r, err := s.br.Report(ctx, period)
	if err != nil {
		return domusage.Report{}, fmt.Errorf("usage report: %w", err)
	}
	return r, nil
}
