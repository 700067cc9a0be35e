package chi

import (
	"fmt"
	"net/http"

	gochi "github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"github.com/kailas-cloud/examdex/internal/metrics"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	Auth   AuthConfig
	Logger *zap.Logger
}

// NewRouter mounts the API on a chi router with the standard middleware chain:
// recoverer, request ID, wide-event log, JWT identity, metrics.
func NewRouter(s *Server, opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gochi.NewRouter()
	r.Use(JSONRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(logger))
	r.Use(JWTAuthMiddleware(opts.Auth))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorCodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorCodeBadRequest, "method not allowed")
	})

	w := &paramWrapper{s: s}
	r.Get("/exams", w.ListExams)
	r.Post("/exams", s.CreateExam)
	r.Get("/exams/{id}", w.GetExam)
	r.Delete("/exams/{id}", w.DeleteExam)
	r.Post("/exams/{id}/analyze", w.AnalyzeExam)
	r.Get("/usage", w.GetUsage)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	return r
}

// paramWrapper binds path and query parameters before calling the Server handlers.
type paramWrapper struct {
	s *Server
}

// ListExams binds GET /exams query parameters.
func (pw *paramWrapper) ListExams(w http.ResponseWriter, r *http.Request) {
	var params ListExamsParams
	query := r.URL.Query()

	for _, p := range []struct {
		name string
		dest any
	}{
		{"examType", &params.ExamType},
		{"examDate", &params.ExamDate},
		{"startDate", &params.StartDate},
		{"endDate", &params.EndDate},
		{"q", &params.Q},
		{"text", &params.Text},
		{"page", &params.Page},
		{"pageSize", &params.PageSize},
	} {
		if err := runtime.BindQueryParameter("form", true, false, p.name, query, p.dest); err != nil {
			invalidParam(w, p.name, err)
			return
		}
	}

	pw.s.ListExams(w, r, params)
}

// GetExam binds the {id} path parameter.
func (pw *paramWrapper) GetExam(w http.ResponseWriter, r *http.Request) {
	if id, ok := bindExamID(w, r); ok {
		pw.s.GetExam(w, r, id)
	}
}

// DeleteExam binds the {id} path parameter.
func (pw *paramWrapper) DeleteExam(w http.ResponseWriter, r *http.Request) {
	if id, ok := bindExamID(w, r); ok {
		pw.s.DeleteExam(w, r, id)
	}
}

// AnalyzeExam binds the {id} path parameter.
func (pw *paramWrapper) AnalyzeExam(w http.ResponseWriter, r *http.Request) {
	if id, ok := bindExamID(w, r); ok {
		pw.s.AnalyzeExam(w, r, id)
	}
}

// GetUsage binds the period query parameter.
func (pw *paramWrapper) GetUsage(w http.ResponseWriter, r *http.Request) {
	var period *string
	if err := runtime.BindQueryParameter("form", true, false, "period", r.URL.Query(), &period); err != nil {
		invalidParam(w, "period", err)
		return
	}
	pw.s.GetUsage(w, r, period)
}

func bindExamID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", gochi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		invalidParam(w, "id", err)
		return "", false
	}
	return id, true
}

func invalidParam(w http.ResponseWriter, name string, err error) {
	writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, fmt.Sprintf("Invalid format for parameter %s: %s", name, err))
}
