package examdex

import (
	"context"
	"fmt"
	"time"

	domusage "github.com/kailas-cloud/examdex/internal/domain/usage"
)

// UsagePeriod is the aggregation granularity for usage reports.
type UsagePeriod string

// UsagePeriod constants.
const (
	PeriodDay   UsagePeriod = "day"
	PeriodMonth UsagePeriod = "month"
)

// UsageReport is the analysis token budget for one UTC period.
// TokensLimit 0 and TokensRemaining -1 mean unlimited.
type UsageReport struct {
	Period          UsagePeriod
	Provider        string
	PeriodStart     time.Time
	PeriodEnd       time.Time
	TokensLimit     int64
	TokensUsed      int64
	TokensRemaining int64
	IsExhausted     bool
}

// Usage returns the analysis token usage for the given period.
// Without WithBudget nothing is counted and the report is unlimited.
func (c *Client) Usage(ctx context.Context, period UsagePeriod) (_ UsageReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe("usage", start, err) }()

	p, ok := domusage.ParsePeriod(string(period))
	if !ok {
		return UsageReport{}, fmt.Errorf("period %q must be day or month: %w", period, ErrInvalidInput)
	}
	r, err := c.usageSvc.GetReport(ctx, p)
	if err != nil {
		return UsageReport{}, err
	}
	return UsageReport{
		Period:          UsagePeriod(r.Period()),
		Provider:        r.Provider(),
		PeriodStart:     r.PeriodStart(),
		PeriodEnd:       r.PeriodEnd(),
		TokensLimit:     r.TokensLimit(),
		TokensUsed:      r.TokensUsed(),
		TokensRemaining: r.TokensRemaining(),
		IsExhausted:     r.IsExhausted(),
	}, nil
}
