package chi

import (
	"time"

	domexam "github.com/kailas-cloud/examdex/internal/domain/exam"
	"github.com/kailas-cloud/examdex/internal/domain/search/page"
	domusage "github.com/kailas-cloud/examdex/internal/domain/usage"
	analysisuc "github.com/kailas-cloud/examdex/internal/usecase/analysis"
)

// ErrorCode is the machine-readable error code in ErrorResponse.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest                ErrorCode = "bad_request"
	ErrorCodeUnauthorized              ErrorCode = "unauthorized"
	ErrorCodeForbidden                 ErrorCode = "forbidden"
	ErrorCodeNotFound                  ErrorCode = "not_found"
	ErrorCodeInvalidInput              ErrorCode = "invalid_input"
	ErrorCodeAnalysisInProgress        ErrorCode = "analysis_in_progress"
	ErrorCodeProviderNotConfigured     ErrorCode = "provider_not_configured"
	ErrorCodeProviderQuotaExceeded     ErrorCode = "provider_quota_exceeded"
	ErrorCodeProviderInvalidCredential ErrorCode = "provider_invalid_credential"
	ErrorCodeProviderUnavailable       ErrorCode = "provider_unavailable"
	ErrorCodeStorageUnavailable        ErrorCode = "storage_unavailable"
	ErrorCodeInternalError             ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// ListExamsParams are the GET /exams query parameters.
type ListExamsParams struct {
	ExamType  *string
	ExamDate  *string
	StartDate *string
	EndDate   *string
	Q         *string
	Text      *string
	Page      *int
	PageSize  *int
}

// CreateExamRequest is the POST /exams body.
type CreateExamRequest struct {
	DoctorID string `json:"doctorId"`
	ExamDate string `json:"examDate"`
	ExamType string `json:"examType"`
	RawText  string `json:"rawText"`
}

// CreateExamResponse is returned with 201.
type CreateExamResponse struct {
	ID string `json:"id"`
}

// ExamResponse is one exam as rendered to its owner.
type ExamResponse struct {
	ID            string     `json:"id"`
	OwnerID       string     `json:"ownerId"`
	DoctorID      string     `json:"doctorId,omitempty"`
	ExamType      string     `json:"examType"`
	ExamDate      *time.Time `json:"examDate,omitempty"`
	RawText       string     `json:"rawText"`
	ExtractedText string     `json:"extractedText,omitempty"`
	AIAnalysis    string     `json:"aiAnalysis,omitempty"`
	AIAnalyzedAt  *time.Time `json:"aiAnalyzedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// ExamListResponse is one page of exams.
type ExamListResponse struct {
	Items      []ExamResponse `json:"items"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	Total      int            `json:"total"`
	TotalPages int            `json:"totalPages"`
}

// AnalyzeResponse is the POST /exams/{id}/analyze body.
type AnalyzeResponse struct {
	Analysis   string    `json:"analysis"`
	ExamType   string    `json:"examType"`
	AnalyzedAt time.Time `json:"analyzedAt"`
	Cached     bool      `json:"cached"`
}

// UsageResponse is the GET /usage body. TokensRemaining is -1 when unlimited.
type UsageResponse struct {
	Period        string    `json:"period"`
	Provider      string    `json:"provider,omitempty"`
	PeriodStartAt time.Time `json:"periodStartAt"`
	PeriodEndAt   time.Time `json:"periodEndAt"`
	Budget        Budget    `json:"budget"`
}

// Budget is the token budget status for one period.
type Budget struct {
	TokensLimit     int64     `json:"tokensLimit"`
	TokensUsed      int64     `json:"tokensUsed"`
	TokensRemaining int64     `json:"tokensRemaining"`
	IsExhausted     bool      `json:"isExhausted"`
	ResetsAt        time.Time `json:"resetsAt"`
}

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func examToResponse(e *domexam.Exam) ExamResponse {
	resp := ExamResponse{
		ID:            e.ID(),
		OwnerID:       e.OwnerID(),
		DoctorID:      e.DoctorID(),
		ExamType:      e.ExamType(),
		RawText:       e.RawText(),
		ExtractedText: e.ExtractedText(),
		CreatedAt:     e.CreatedAt().UTC(),
	}
	if d := e.ExamDate(); d != nil {
		t := d.UTC()
		resp.ExamDate = &t
	}
	if a, ok := e.Analysis(); ok {
		at := a.AnalyzedAt.UTC()
		resp.AIAnalysis = a.Text
		resp.AIAnalyzedAt = &at
	}
	return resp
}

func examPageToResponse(p page.Result[domexam.Exam]) ExamListResponse {
	items := make([]ExamResponse, len(p.Items))
	for i := range p.Items {
		items[i] = examToResponse(&p.Items[i])
	}
	return ExamListResponse{
		Items:      items,
		Page:       p.Page,
		PageSize:   p.PageSize,
		Total:      p.Total,
		TotalPages: p.TotalPages,
	}
}

func analysisToResponse(r analysisuc.Result) AnalyzeResponse {
	return AnalyzeResponse{
		Analysis:   r.Analysis,
		ExamType:   r.ExamType,
		AnalyzedAt: r.AnalyzedAt.UTC(),
		Cached:     r.Cached,
	}
}

func usageToResponse(r *domusage.Report) UsageResponse {
	return UsageResponse{
		Period:        string(r.Period()),
		Provider:      r.Provider(),
		PeriodStartAt: r.PeriodStart().UTC(),
		PeriodEndAt:   r.PeriodEnd().UTC(),
		Budget: Budget{
			TokensLimit:     r.TokensLimit(),
			TokensUsed:      r.TokensUsed(),
			TokensRemaining: r.TokensRemaining(),
			IsExhausted:     r.IsExhausted(),
			ResetsAt:        r.PeriodEnd().UTC(),
		},
	}
}
