package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "examdex"

// Analysis provider and cache metrics.
var (
	AnalysisRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_requests_total",
			Help:      "Total number of analysis provider requests",
		},
		[]string{"provider", "model", "status"},
	)

	AnalysisRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_request_duration_seconds",
			Help:      "Analysis provider request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 60, 120},
		},
		[]string{"provider", "model"},
	)

	AnalysisTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_tokens_total",
			Help:      "Total analysis tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)

	AnalysisErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_errors_total",
			Help:      "Total analysis provider errors",
		},
		[]string{"provider", "model", "error_type"},
	)

	AnalysisBudgetTokensRemaining = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "analysis_budget_tokens_remaining",
			Help:      "Remaining analysis token budget",
		},
		[]string{"provider", "period"},
	)

	AnalysisCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_cache_total",
			Help:      "Analyze requests served from the stored analysis vs the provider",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	ExamSearchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exam_search_total",
			Help:      "Exam listing queries",
		},
		[]string{"result"}, // "ok" / "error"
	)
)

var analysisMetricsRegistered bool

// RegisterAnalysisMetrics registers the analysis and search metrics. Must be called once from main.
func RegisterAnalysisMetrics() {
	if analysisMetricsRegistered {
		return
	}
	prometheus.MustRegister(AnalysisRequestsTotal)
	prometheus.MustRegister(AnalysisRequestDuration)
	prometheus.MustRegister(AnalysisTokensTotal)
	prometheus.MustRegister(AnalysisErrorsTotal)
	prometheus.MustRegister(AnalysisBudgetTokensRemaining)
	prometheus.MustRegister(AnalysisCacheTotal)
	prometheus.MustRegister(ExamSearchTotal)
	analysisMetricsRegistered = true
}
