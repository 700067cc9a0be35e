package budget

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/kailas-cloud/examdex/internal/db"
)

type expireCall struct {
	key string
	ttl time.Duration
	nx  bool
}

// mockStore is an in-memory counter store for tests.
type mockStore struct {
	data    map[string]int64
	expires []expireCall
	getErr  error
	incrErr error
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return []byte(strconv.FormatInt(v, 10)), nil
}

func (m *mockStore) IncrBy(_ context.Context, key string, val int64) error {
	if m.incrErr != nil {
		return m.incrErr
	}
	m.data[key] += val
	return nil
}

func (m *mockStore) Expire(_ context.Context, key string, ttl time.Duration, nx bool) error {
	m.expires = append(m.expires, expireCall{key: key, ttl: ttl, nx: nx})
	return nil
}

func newTestStore(t *testing.T) (*Store, *mockStore) {
	t.Helper()
	ms := &mockStore{data: make(map[string]int64)}
	return New(ms, "examdex:", 48*time.Hour, 62*24*time.Hour), ms
}
