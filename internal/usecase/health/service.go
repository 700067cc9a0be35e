package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db       DBPinger
	analysis AnalysisChecker
}

// New creates a Service. analysis is nil when no provider is configured.
func New(db DBPinger, analysis AnalysisChecker) *Service {
	return &Service{db: db, analysis: analysis}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
	} else {
		checks["database"] = CheckOK
	}

	if s.analysis != nil {
		if err := s.analysis.HealthCheck(ctx); err != nil {
			checks["analysis"] = CheckError
		} else {
			checks["analysis"] = CheckOK
		}
	}

	// Without the database nothing works; a failing provider only disables analysis.
	status := Healthy
	switch {
	case checks["database"] == CheckError:
		status = Unhealthy
	case checks["analysis"] == CheckError:
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}
