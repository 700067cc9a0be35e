package budget

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/examdex/internal/db"
	"github.com/kailas-cloud/examdex/internal/domain/usage"
)

// store is the consumer interface for budget operations (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Store keeps per-provider token counters in Redis, one key per UTC day and month.
type Store struct {
	store    store
	prefix   string
	dailyTTL time.Duration
	monthTTL time.Duration
}

// New creates a budget store.
// dailyTTL is the TTL for daily keys (recommended: 48h).
// monthTTL is the TTL for monthly keys (recommended: 62 days).
func New(s store, prefix string, dailyTTL, monthTTL time.Duration) *Store {
	return &Store{
		store:    s,
		prefix:   prefix,
		dailyTTL: dailyTTL,
		monthTTL: monthTTL,
	}
}

// Add records tokens consumed at the given instant in both the daily and monthly counters.
func (s *Store) Add(ctx context.Context, provider string, at time.Time, tokens int64) error {
	if err := s.incr(ctx, s.key(provider, usage.PeriodDay, at), tokens, s.dailyTTL); err != nil {
		return err
	}
	return s.incr(ctx, s.key(provider, usage.PeriodMonth, at), tokens, s.monthTTL)
}

// Used returns the tokens consumed in the period containing at. A missing counter is 0.
func (s *Store) Used(ctx context.Context, provider string, period usage.Period, at time.Time) (int64, error) {
	key := s.key(provider, period, at)
	data, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("budget GET %s: %w", key, err)
	}

	val, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("budget GET %s parse: %w", key, err)
	}
	return val, nil
}

func (s *Store) incr(ctx context.Context, key string, tokens int64, ttl time.Duration) error {
	if err := s.store.IncrBy(ctx, key, tokens); err != nil {
		return fmt.Errorf("budget INCRBY %s: %w", key, err)
	}
	// NX: the first write of the period fixes the expiry.
	if err := s.store.Expire(ctx, key, ttl, true); err != nil {
		return fmt.Errorf("budget EXPIRE %s: %w", key, err)
	}
	return nil
}

// key is <prefix>budget:<provider>:daily:YYYY-MM-DD or :monthly:YYYY-MM.
func (s *Store) key(provider string, period usage.Period, at time.Time) string {
	at = at.UTC()
	if period == usage.PeriodMonth {
		return fmt.Sprintf("%sbudget:%s:monthly:%s", s.prefix, provider, at.Format("2006-01"))
	}
	return fmt.Sprintf("%sbudget:%s:daily:%s", s.prefix, provider, at.Format("2006-01-02"))
}
