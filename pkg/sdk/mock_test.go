package examdex

import (
	"context"

	domexam "github.com/kailas-cloud/examdex/internal/domain/exam"
	"github.com/kailas-cloud/examdex/internal/domain/search/page"
	domusage "github.com/kailas-cloud/examdex/internal/domain/usage"
	analysisuc "github.com/kailas-cloud/examdex/internal/usecase/analysis"
	examuc "github.com/kailas-cloud/examdex/internal/usecase/exam"
	healthuc "github.com/kailas-cloud/examdex/internal/usecase/health"
)

// --- examUseCase mock ---

type mockExamUC struct {
	listFn   func(ctx context.Context, ownerID string, q examuc.ListQuery) (page.Result[domexam.Exam], error)
	getFn    func(ctx context.Context, ownerID, id string) (domexam.Exam, error)
	createFn func(ctx context.Context, ownerID string, in examuc.CreateInput) (domexam.Exam, error)
	deleteFn func(ctx context.Context, ownerID, id string) error
}

func (m *mockExamUC) List(
	ctx context.Context, ownerID string, q examuc.ListQuery,
) (page.Result[domexam.Exam], error) {
	return m.listFn(ctx, ownerID, q)
}

func (m *mockExamUC) Get(ctx context.Context, ownerID, id string) (domexam.Exam, error) {
	return m.getFn(ctx, ownerID, id)
}

func (m *mockExamUC) Create(ctx context.Context, ownerID string, in examuc.CreateInput) (domexam.Exam, error) {
	return m.createFn(ctx, ownerID, in)
}

func (m *mockExamUC) Delete(ctx context.Context, ownerID, id string) error {
	return m.deleteFn(ctx, ownerID, id)
}

// --- analysisUseCase mock ---

type mockAnalysisUC struct {
	analyzeFn func(ctx context.Context, examID, callerID string) (analysisuc.Result, error)
}

func (m *mockAnalysisUC) Analyze(ctx context.Context, examID, callerID string) (analysisuc.Result, error) {
	return m.analyzeFn(ctx, examID, callerID)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report { return m.report }

// --- usageUseCase mock ---

type mockUsageUC struct {
	getReportFn func(ctx context.Context, period domusage.Period) (domusage.Report, error)
}

func (m *mockUsageUC) GetReport(ctx context.Context, period domusage.Period) (domusage.Report, error) {
	return m.getReportFn(ctx, period)
}

// --- Analyzer mock ---

type mockAnalyzer struct {
	fn func(ctx context.Context, system, user string) (Completion, error)
}

func (m *mockAnalyzer) Complete(ctx context.Context, system, user string) (Completion, error) {
	return m.fn(ctx, system, user)
}

// --- helpers ---

func testClient(examSvc examUseCase, analysisSvc analysisUseCase) *Client {
	return &Client{
		examSvc:     examSvc,
		analysisSvc: analysisSvc,
	}
}
