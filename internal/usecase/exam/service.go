package exam

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/examdex/internal/domain"
	domexam "github.com/kailas-cloud/examdex/internal/domain/exam"
	"github.com/kailas-cloud/examdex/internal/domain/search/page"
	"github.com/kailas-cloud/examdex/internal/metrics"
)

// ListQuery is one listing request. nil Page/PageSize mean defaults.
type ListQuery struct {
	Filter   domexam.Filter
	Page     *int
	PageSize *int
}

// CreateInput is a manually entered exam. Every field is required.
type CreateInput struct {
	DoctorID string
	ExamDate string
	ExamType string
	RawText  string
}

// Service handles exam listing and lifecycle for one caller at a time.
type Service struct {
	repo            Repository
	loc             *time.Location
	defaultPageSize int
	now             func() time.Time
	logger          *zap.Logger
}

// New creates an exam service resolving dates in UTC.
func New(repo Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:            repo,
		loc:             time.UTC,
		defaultPageSize: page.DefaultSize,
		now:             time.Now,
		logger:          logger,
	}
}

// WithLocation sets the time zone used for day boundaries.
func (s *Service) WithLocation(loc *time.Location) *Service {
	if loc != nil {
		s.loc = loc
	}
	return s
}

// WithPagination configures the default page size.
func (s *Service) WithPagination(defaultPageSize int) *Service {
	if defaultPageSize > 0 {
		s.defaultPageSize = defaultPageSize
	}
	return s
}

// List returns one page of the caller's exams matching q.
// Count and fetch run separately, so total may drift from items under concurrent writes.
func (s *Service) List(ctx context.Context, ownerID string, q ListQuery) (page.Result[domexam.Exam], error) {
	if ownerID == "" {
		return page.Result[domexam.Exam]{}, fmt.Errorf("owner is required: %w", domain.ErrInvalidInput)
	}
	if !domexam.ValidKeyword(ownerID) || !domexam.ValidKeyword(q.Filter.ExamType) {
		return page.Result[domexam.Exam]{}, fmt.Errorf("owner and examType must not contain control characters: %w",
			domain.ErrInvalidInput)
	}
	req, err := page.New(q.Page, q.PageSize, s.defaultPageSize)
	if err != nil {
		return page.Result[domexam.Exam]{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	expr := BuildPredicate(ownerID, q.Filter, s.loc)

	total, err := s.repo.Count(ctx, expr)
	if err != nil {
		metrics.ExamSearchTotal.WithLabelValues("error").Inc()
		return page.Result[domexam.Exam]{}, fmt.Errorf("count exams: %w", err)
	}

	items, err := s.repo.Search(ctx, expr, req.Offset(), req.Size())
	if err != nil {
		metrics.ExamSearchTotal.WithLabelValues("error").Inc()
		return page.Result[domexam.Exam]{}, fmt.Errorf("search exams: %w", err)
	}
	metrics.ExamSearchTotal.WithLabelValues("ok").Inc()

	s.logger.Debug("Exams listed",
		zap.String("owner_id", ownerID),
		zap.Int("page", req.Page()),
		zap.Int("page_size", req.Size()),
		zap.Int("total", total),
		zap.Int("returned", len(items)),
	)

	return page.NewResult(items, req, total), nil
}

// Get returns an exam the caller owns.
func (s *Service) Get(ctx context.Context, ownerID, id string) (domexam.Exam, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return domexam.Exam{}, fmt.Errorf("get exam: %w", err)
	}
	if !e.OwnedBy(ownerID) {
		return domexam.Exam{}, fmt.Errorf("exam %s: %w", id, domain.ErrForbidden)
	}
	return e, nil
}

// Create stores a manually entered exam owned by ownerID and returns it.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (domexam.Exam, error) {
	var missing []string
	if strings.TrimSpace(in.DoctorID) == "" {
		missing = append(missing, "doctorId")
	}
	if strings.TrimSpace(in.ExamDate) == "" {
		missing = append(missing, "examDate")
	}
	if strings.TrimSpace(in.ExamType) == "" {
		missing = append(missing, "examType")
	}
	if strings.TrimSpace(in.RawText) == "" {
		missing = append(missing, "rawText")
	}
	if len(missing) > 0 {
		return domexam.Exam{}, fmt.Errorf("missing %s: %w", strings.Join(missing, ", "), domain.ErrInvalidInput)
	}

	date, err := parseExamDate(in.ExamDate, s.loc)
	if err != nil {
		return domexam.Exam{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	now := s.now().UTC()
	e, err := domexam.New(domexam.NewID(now), ownerID, domexam.Fields{
		DoctorID: in.DoctorID,
		ExamType: in.ExamType,
		ExamDate: &date,
		RawText:  in.RawText,
	}, now)
	if err != nil {
		return domexam.Exam{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	if err := s.repo.Create(ctx, &e); err != nil {
		return domexam.Exam{}, fmt.Errorf("create exam: %w", err)
	}

	s.logger.Info("Exam created",
		zap.String("exam_id", e.ID()),
		zap.String("owner_id", ownerID),
		zap.String("exam_type", e.ExamType()),
	)
	return e, nil
}

// Delete removes an exam the caller owns. Listings no longer include it once Delete returns.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}
	s.logger.Info("Exam deleted", zap.String("exam_id", id), zap.String("owner_id", ownerID))
	return nil
}

// parseExamDate accepts YYYY-MM-DD (midnight in loc) or an RFC 3339 instant.
func parseExamDate(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation(time.DateOnly, s, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed examDate %q: want YYYY-MM-DD or RFC 3339", s)
	}
	return t, nil
}
