package analysis

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/examdex/internal/domain"
	"github.com/kailas-cloud/examdex/internal/domain/usage"
	"github.com/kailas-cloud/examdex/internal/metrics"
)

// BudgetAction defines behavior when the token budget is exhausted.
type BudgetAction string

const (
	// BudgetActionWarn logs a warning but allows the request.
	BudgetActionWarn BudgetAction = "warn"
	// BudgetActionReject blocks the request.
	BudgetActionReject BudgetAction = "reject"
)

// recordTimeout bounds the counter write after a completed provider call.
const recordTimeout = 2 * time.Second

// BudgetGuard enforces daily and monthly token caps kept in a BudgetStore.
// Counters live in the store only, so every replica sees the same totals.
// A limit of 0 means unlimited.
type BudgetGuard struct {
	store        BudgetStore
	provider     string
	dailyLimit   int64
	monthlyLimit int64
	action       BudgetAction
	now          func() time.Time
	logger       *zap.Logger
}

// NewBudgetGuard creates a budget guard for one provider.
func NewBudgetGuard(
	store BudgetStore, provider string, dailyLimit, monthlyLimit int64,
	action BudgetAction, logger *zap.Logger,
) *BudgetGuard {
	return &BudgetGuard{
		store:        store,
		provider:     provider,
		dailyLimit:   dailyLimit,
		monthlyLimit: monthlyLimit,
		action:       action,
		now:          time.Now,
		logger:       logger,
	}
}

// Provider returns the provider name the counters are kept under.
func (b *BudgetGuard) Provider() string { return b.provider }

// Check verifies the budget allows a new request.
// An unreadable counter is logged and treated as not exhausted.
func (b *BudgetGuard) Check(ctx context.Context) error {
	now := b.now()
	for _, p := range []struct {
		period usage.Period
		limit  int64
	}{
		{usage.PeriodDay, b.dailyLimit},
		{usage.PeriodMonth, b.monthlyLimit},
	} {
		if p.limit <= 0 {
			continue
		}
		used, err := b.store.Used(ctx, b.provider, p.period, now)
		if err != nil {
			b.logger.Warn("Failed to read token budget",
				zap.String("provider", b.provider),
				zap.String("period", string(p.period)),
				zap.Error(err),
			)
			continue
		}
		if used < p.limit {
			continue
		}

		if b.action == BudgetActionReject {
			return fmt.Errorf("%s token budget exhausted (%d/%d): %w",
				p.period, used, p.limit, domain.ErrProviderQuotaExceeded)
		}
		b.logger.Warn("Token budget exceeded",
			zap.String("provider", b.provider),
			zap.String("period", string(p.period)),
			zap.Int64("used", used),
			zap.Int64("limit", p.limit),
		)
	}
	return nil
}

// Record adds consumed tokens and refreshes the remaining-budget gauges.
// The request already succeeded, so a store failure is only logged.
func (b *BudgetGuard) Record(ctx context.Context, tokens int64) {
	if tokens <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	now := b.now()
	if err := b.store.Add(ctx, b.provider, now, tokens); err != nil {
		b.logger.Warn("Failed to persist token usage",
			zap.String("provider", b.provider),
			zap.Int64("tokens", tokens),
			zap.Error(err),
		)
		return
	}

	gauge := metrics.AnalysisBudgetTokensRemaining
	for _, period := range []usage.Period{usage.PeriodDay, usage.PeriodMonth} {
		r, err := b.report(ctx, period, now)
		if err != nil {
			continue
		}
		gauge.WithLabelValues(b.provider, gaugePeriod(period)).Set(float64(r.TokensRemaining()))
	}
}

// Report returns usage for the period containing now.
func (b *BudgetGuard) Report(ctx context.Context, period usage.Period) (usage.Report, error) {
	return b.report(ctx, period, b.now())
}

func (b *BudgetGuard) report(ctx context.Context, period usage.Period, now time.Time) (usage.Report, error) {
	used, err := b.store.Used(ctx, b.provider, period, now)
	if err != nil {
		return usage.Report{}, fmt.Errorf("read %s usage: %w: %w", period, domain.ErrStorageUnavailable, err)
	}
	start, end := period.Bounds(now)
	return usage.NewReport(period, start, end, b.provider, used, b.limit(period)), nil
}

func (b *BudgetGuard) limit(period usage.Period) int64 {
	if period == usage.PeriodMonth {
		return b.monthlyLimit
	}
	return b.dailyLimit
}

func gaugePeriod(p usage.Period) string {
	if p == usage.PeriodMonth {
		return "monthly"
	}
	return "daily"
}
