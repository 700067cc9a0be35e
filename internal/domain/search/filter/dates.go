package filter

import (
	"fmt"
	"time"
)

const dayLayout = "2006-01-02"

// DateRange is an unresolved date window. Its strings are parsed only by Bounds,
// so malformed input surfaces where the predicate is compiled.
type DateRange struct {
	from string
	to   string
	loc  *time.Location
}

// Day covers the whole local day of date: 00:00:00.000 to 23:59:59.999.
func Day(date string, loc *time.Location) DateRange {
	return DateRange{from: date, to: date, loc: loc}
}

// Between covers start-of-day(from) to end-of-day(to). Either side may be empty.
func Between(from, to string, loc *time.Location) DateRange {
	return DateRange{from: from, to: to, loc: loc}
}

// IsZero reports whether neither bound is set.
func (r DateRange) IsZero() bool { return r.from == "" && r.to == "" }

// From returns the raw lower bound.
func (r DateRange) From() string { return r.from }

// To returns the raw upper bound.
func (r DateRange) To() string { return r.to }

// Bounds resolves the inclusive window. A nil bound means open-ended.
func (r DateRange) Bounds() (lo, hi *time.Time, err error) {
	loc := r.loc
	if loc == nil {
		loc = time.UTC
	}
	if r.from != "" {
		start, err := startOfDay(r.from, loc)
		if err != nil {
			return nil, nil, err
		}
		lo = &start
	}
	if r.to != "" {
		start, err := startOfDay(r.to, loc)
		if err != nil {
			return nil, nil, err
		}
		end := start.AddDate(0, 0, 1).Add(-time.Millisecond)
		hi = &end
	}
	return lo, hi, nil
}

// startOfDay accepts YYYY-MM-DD or RFC 3339 and returns local midnight of that day.
func startOfDay(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation(dayLayout, s, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed date %q: want YYYY-MM-DD or RFC 3339", s)
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
}
