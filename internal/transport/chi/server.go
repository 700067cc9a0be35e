package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/examdex/internal/domain"
	domexam "github.com/kailas-cloud/examdex/internal/domain/exam"
	domusage "github.com/kailas-cloud/examdex/internal/domain/usage"
	analysisuc "github.com/kailas-cloud/examdex/internal/usecase/analysis"
	examuc "github.com/kailas-cloud/examdex/internal/usecase/exam"
	healthuc "github.com/kailas-cloud/examdex/internal/usecase/health"
	usageuc "github.com/kailas-cloud/examdex/internal/usecase/usage"
)

const maxBodyBytes = 1 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers. Routes are mounted by NewRouter.
type Server struct {
	exams         *examuc.Service
	analysis      *analysisuc.Service
	usage         *usageuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	exams *examuc.Service,
	analysis *analysisuc.Service,
	usage *usageuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		exams:    exams,
		analysis: analysis,
		usage:    usage,
		health:   health,
		logger:   logger,
	}
	// Sub-sentinels of ErrProviderUnavailable come before it.
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeNotFound),
		sentinelHandler(domain.ErrForbidden, http.StatusForbidden, ErrorCodeForbidden),
		invalidInputHandler,
		sentinelHandler(domain.ErrAnalysisInProgress, http.StatusConflict, ErrorCodeAnalysisInProgress),
		sentinelHandler(domain.ErrProviderNotConfigured,
			http.StatusServiceUnavailable, ErrorCodeProviderNotConfigured),
		sentinelHandler(domain.ErrProviderQuotaExceeded,
			http.StatusPaymentRequired, ErrorCodeProviderQuotaExceeded),
		sentinelHandler(domain.ErrProviderInvalidCredential,
			http.StatusBadGateway, ErrorCodeProviderInvalidCredential),
		sentinelHandler(domain.ErrProviderUnavailable, http.StatusBadGateway, ErrorCodeProviderUnavailable),
		sentinelHandler(domain.ErrStorageUnavailable, http.StatusServiceUnavailable, ErrorCodeStorageUnavailable),
	}
	return s
}

// ListExams handles GET /exams.
func (s *Server) ListExams(w http.ResponseWriter, r *http.Request, params ListExamsParams) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}

	q := examuc.ListQuery{
		Filter: domexam.Filter{
			ExamType:  deref(params.ExamType),
			ExamDate:  deref(params.ExamDate),
			StartDate: deref(params.StartDate),
			EndDate:   deref(params.EndDate),
			Text:      deref(params.Q),
		},
		Page:     params.Page,
		PageSize: params.PageSize,
	}
	if q.Filter.Text == "" {
		q.Filter.Text = deref(params.Text)
	}

	res, err := s.exams.List(r.Context(), id.UserID, q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, examPageToResponse(res))
}

// CreateExam handles POST /exams.
func (s *Server) CreateExam(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}

	var req CreateExamRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	e, err := s.exams.Create(r.Context(), id.UserID, examuc.CreateInput{
		DoctorID: req.DoctorID,
		ExamDate: req.ExamDate,
		ExamType: req.ExamType,
		RawText:  req.RawText,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateExamResponse{ID: e.ID()})
}

// GetExam handles GET /exams/{id}.
func (s *Server) GetExam(w http.ResponseWriter, r *http.Request, examID string) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}
	e, err := s.exams.Get(r.Context(), id.UserID, examID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, examToResponse(&e))
}

// DeleteExam handles DELETE /exams/{id}.
func (s *Server) DeleteExam(w http.ResponseWriter, r *http.Request, examID string) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}
	if err := s.exams.Delete(r.Context(), id.UserID, examID); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AnalyzeExam handles POST /exams/{id}/analyze.
// The provider call survives a client disconnect so a paid completion is still persisted.
func (s *Server) AnalyzeExam(w http.ResponseWriter, r *http.Request, examID string) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}
	res, err := s.analysis.Analyze(context.WithoutCancel(r.Context()), examID, id.UserID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysisToResponse(res))
}

// GetUsage handles GET /usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request, period *string) {
	if _, ok := s.identity(w, r); !ok {
		return
	}
	p, ok := domusage.ParsePeriod(deref(period))
	if !ok {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "period must be day or month")
		return
	}

	report, err := s.usage.GetReport(r.Context(), p)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, usageToResponse(&report))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// identity returns the caller set by the auth middleware, writing 401 if absent.
func (s *Server) identity(w http.ResponseWriter, r *http.Request) (domain.Identity, bool) {
	id, ok := domain.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, "authentication required")
		return domain.Identity{}, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrForbidden,
		domain.ErrInvalidInput,
		domain.ErrAnalysisInProgress,
		domain.ErrProviderNotConfigured,
		domain.ErrProviderQuotaExceeded,
		domain.ErrProviderInvalidCredential,
		domain.ErrProviderUnavailable,
		domain.ErrStorageUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// invalidInputHandler keeps the validation detail, which names only request fields.
func invalidInputHandler(w http.ResponseWriter, err error, _ string) bool {
	if !errors.Is(err, domain.ErrInvalidInput) {
		return false
	}
	writeError(w, http.StatusBadRequest, ErrorCodeInvalidInput, err.Error())
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
