// Package marker implements the optional per-exam "analysis in progress" lease.
package marker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// store is the consumer interface for markers (ISP).
type store interface {
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	DelIfEqual(ctx context.Context, key string, value []byte) (bool, error)
}

// Store acquires and releases markers at <prefix>exam:<id>:analyzing.
type Store struct {
	store  store
	prefix string
	ttl    time.Duration
}

// New creates a marker store. ttl bounds how long a crashed holder blocks retries.
func New(s store, prefix string, ttl time.Duration) *Store {
	return &Store{store: s, prefix: prefix, ttl: ttl}
}

// Acquire sets the marker for examID. acquired is false when another holder has it.
// release deletes the marker only while it still carries this call's token, so
// releasing after the TTL expired and someone else took over is a no-op.
func (s *Store) Acquire(ctx context.Context, examID string) (release func(context.Context) error, acquired bool, err error) {
	key := s.key(examID)
	token := []byte(uuid.NewString())

	ok, err := s.store.SetNX(ctx, key, token, s.ttl)
	if err != nil {
		return nil, false, fmt.Errorf("acquire %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	return func(ctx context.Context) error {
		if _, err := s.store.DelIfEqual(ctx, key, token); err != nil {
			return fmt.Errorf("release %s: %w", key, err)
		}
		return nil
	}, true, nil
}

func (s *Store) key(examID string) string {
	return s.prefix + "exam:" + examID + ":analyzing"
}
