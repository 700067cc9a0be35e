package usage

import "time"

// Period is the aggregation granularity.
type Period string

// Aggregation period constants.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod maps a query value to a Period. Empty means day.
func ParsePeriod(s string) (Period, bool) {
	switch Period(s) {
	case "", PeriodDay:
		return PeriodDay, true
	case PeriodMonth:
		return PeriodMonth, true
	default:
		return "", false
	}
}

// Bounds returns the UTC window of the period containing now.
func (p Period) Bounds(now time.Time) (start, end time.Time) {
	now = now.UTC()
	if p == PeriodMonth {
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0)
	}
	start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// Report is an analysis-provider token usage report for one period.
type Report struct {
	period    Period
	start     time.Time
	end       time.Time
	provider  string
	used      int64
	limit     int64
	remaining int64
}

// NewReport creates a usage report. limit 0 means unlimited.
func NewReport(period Period, start, end time.Time, provider string, used, limit int64) Report {
	remaining := int64(-1)
	if limit > 0 {
		remaining = max(limit-used, 0)
	}
	return Report{
		period:    period,
		start:     start,
		end:       end,
		provider:  provider,
		used:      used,
		limit:     limit,
		remaining: remaining,
	}
}

// Period returns the aggregation granularity.
func (r *Report) Period() Period { return r.period }

// PeriodStart returns the period start.
func (r *Report) PeriodStart() time.Time { return r.start }

// PeriodEnd returns the period end, which is also when the budget resets.
func (r *Report) PeriodEnd() time.Time { return r.end }

// Provider returns the analysis provider name.
func (r *Report) Provider() string { return r.provider }

// TokensUsed returns tokens consumed in the period.
func (r *Report) TokensUsed() int64 { return r.used }

// TokensLimit returns the cap (0 = unlimited).
func (r *Report) TokensLimit() int64 { return r.limit }

// TokensRemaining returns tokens left, -1 if unlimited.
func (r *Report) TokensRemaining() int64 { return r.remaining }

// IsExhausted reports whether a limited budget is spent.
func (r *Report) IsExhausted() bool { return r.limit > 0 && r.remaining == 0 }
