package examdex

import (
	"context"
	"time"

	domexam "github.com/kailas-cloud/examdex/internal/domain/exam"
	"github.com/kailas-cloud/examdex/internal/domain/search/page"
	analysisuc "github.com/kailas-cloud/examdex/internal/usecase/analysis"
	examuc "github.com/kailas-cloud/examdex/internal/usecase/exam"
)

// ListExams returns one page of ownerID's exams matching opts,
// ordered by exam date (undated last) then creation time, newest first.
func (c *Client) ListExams(ctx context.Context, ownerID string, opts ListOptions) (_ ExamPage, err error) {
	start := time.Now()
	defer func() { c.obs.observe("exam.list", start, err, "owner_id", ownerID) }()

	res, err := c.examSvc.List(ctx, ownerID, examuc.ListQuery{
		Filter: domexam.Filter{
			ExamType:  opts.ExamType,
			ExamDate:  opts.ExamDate,
			StartDate: opts.StartDate,
			EndDate:   opts.EndDate,
			Text:      opts.Query,
		},
		Page:     optionalInt(opts.Page),
		PageSize: optionalInt(opts.PageSize),
	})
	if err != nil {
		return ExamPage{}, err
	}
	return examPageFromDomain(res), nil
}

// GetExam returns one exam. Another owner's exam fails with ErrForbidden.
func (c *Client) GetExam(ctx context.Context, ownerID, id string) (_ Exam, err error) {
	start := time.Now()
	defer func() { c.obs.observe("exam.get", start, err, "exam_id", id) }()

	e, err := c.examSvc.Get(ctx, ownerID, id)
	if err != nil {
		return Exam{}, err
	}
	return examFromDomain(&e), nil
}

// CreateExam stores a manually entered exam and returns it with its new ID.
func (c *Client) CreateExam(ctx context.Context, ownerID string, in NewExam) (_ Exam, err error) {
	start := time.Now()
	defer func() { c.obs.observe("exam.create", start, err, "owner_id", ownerID) }()

	e, err := c.examSvc.Create(ctx, ownerID, examuc.CreateInput{
		DoctorID: in.DoctorID,
		ExamDate: in.ExamDate,
		ExamType: in.ExamType,
		RawText:  in.RawText,
	})
	if err != nil {
		return Exam{}, err
	}
	return examFromDomain(&e), nil
}

// DeleteExam removes an exam the caller owns.
func (c *Client) DeleteExam(ctx context.Context, ownerID, id string) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("exam.delete", start, err, "exam_id", id) }()

	return c.examSvc.Delete(ctx, ownerID, id)
}

// AnalyzeExam returns the exam's AI analysis, calling the provider only when
// none is stored yet. Fails with ErrProviderNotConfigured without an analyzer.
func (c *Client) AnalyzeExam(ctx context.Context, ownerID, id string) (_ AnalysisResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("exam.analyze", start, err, "exam_id", id) }()

	res, err := c.analysisSvc.Analyze(ctx, id, ownerID)
	if err != nil {
		return AnalysisResult{}, err
	}
	return analysisFromDomain(res), nil
}

func optionalInt(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}

func examFromDomain(e *domexam.Exam) Exam {
	out := Exam{
		ID:            e.ID(),
		OwnerID:       e.OwnerID(),
		DoctorID:      e.DoctorID(),
		ExamType:      e.ExamType(),
		ExamDate:      e.ExamDate(),
		RawText:       e.RawText(),
		ExtractedText: e.ExtractedText(),
		CreatedAt:     e.CreatedAt(),
	}
	if a, ok := e.Analysis(); ok {
		at := a.AnalyzedAt
		out.Analysis = a.Text
		out.AnalyzedAt = &at
	}
	return out
}

func examPageFromDomain(p page.Result[domexam.Exam]) ExamPage {
	items := make([]Exam, len(p.Items))
	for i := range p.Items {
		items[i] = examFromDomain(&p.Items[i])
	}
	return ExamPage{
		Items:      items,
		Page:       p.Page,
		PageSize:   p.PageSize,
		Total:      p.Total,
		TotalPages: p.TotalPages,
	}
}

func analysisFromDomain(r analysisuc.Result) AnalysisResult {
	return AnalysisResult{
		Analysis:   r.Analysis,
		ExamType:   r.ExamType,
		AnalyzedAt: r.AnalyzedAt,
		Cached:     r.Cached,
	}
}
