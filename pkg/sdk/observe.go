package examdex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// sdkMetrics holds prometheus metrics registered for the SDK.
type sdkMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "examdex",
			Subsystem: "sdk",
			Name:      "operations_total",
			Help:      "Total SDK operations by type and outcome (ok, rejected, error).",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "examdex",
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "SDK operation duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers a collector or reuses an existing one.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("examdex: metric already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return fmt.Errorf("examdex: register metric: %w", err)
	}
	return nil
}

// observer provides logging and metrics for SDK operations.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	var m *sdkMetrics
	if reg != nil {
		var err error
		m, err = newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
	}
	return &observer{logger: logger, metrics: m}, nil
}

// observe records one operation. attrs are extra slog key/value pairs (exam_id, owner_id).
func (o *observer) observe(
	op string, start time.Time, err error, attrs ...any,
) {
	if o == nil {
		return
	}
	dur := time.Since(start)

	if o.metrics != nil {
		o.metrics.operations.WithLabelValues(op, outcome(err)).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(
			dur.Seconds(),
		)
	}

	if o.logger != nil {
		if err != nil {
			// Expected outcomes (not found, forbidden, in progress) stay at debug.
			level := slog.LevelWarn
			if outcome(err) == outcomeRejected {
				level = slog.LevelDebug
			}
			o.logger.Log(context.Background(), level, "operation failed",
				append([]any{"op", op, "duration", dur, "error", err}, attrs...)...,
			)
		} else {
			o.logger.Debug("operation completed",
				append([]any{"op", op, "duration", dur}, attrs...)...,
			)
		}
	}
}

// Status label values of examdex_sdk_operations_total.
const (
	outcomeOK       = "ok"
	outcomeRejected = "rejected" // caller-side: not found, forbidden, invalid, in progress
	outcomeError    = "error"
)

func outcome(err error) string {
	if err == nil {
		return outcomeOK
	}
	for _, target := range []error{ErrNotFound, ErrForbidden, ErrInvalidInput, ErrAnalysisInProgress} {
		if errors.Is(err, target) {
			return outcomeRejected
		}
	}
	return outcomeError
}
