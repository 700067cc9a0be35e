package marker

import (
	"context"
	"errors"
	"testing"
	"time"
)

// memStore is a single-goroutine SetNX/DelIfEqual fake.
type memStore struct {
	data   map[string]string
	ttls   map[string]time.Duration
	setErr error
}

func newMemStore() *memStore {
	return &memStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memStore) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if m.setErr != nil {
		return false, m.setErr
	}
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = string(value)
	m.ttls[key] = ttl
	return true, nil
}

func (m *memStore) DelIfEqual(_ context.Context, key string, value []byte) (bool, error) {
	if m.data[key] != string(value) {
		return false, nil
	}
	delete(m.data, key)
	return true, nil
}

func TestAcquireRelease(t *testing.T) {
	ms := newMemStore()
	s := New(ms, "examdex:", 90*time.Second)
	ctx := context.Background()

	release, ok, err := s.Acquire(ctx, "exam_1")
	if err != nil || !ok {
		t.Fatalf("Acquire = %v, %v", ok, err)
	}
	if _, held := ms.data["examdex:exam:exam_1:analyzing"]; !held {
		t.Fatalf("marker key not set: %v", ms.data)
	}
	if ms.ttls["examdex:exam:exam_1:analyzing"] != 90*time.Second {
		t.Errorf("unexpected ttl: %v", ms.ttls)
	}

	if rel, ok, _ := s.Acquire(ctx, "exam_1"); ok || rel != nil {
		t.Error("second acquire must fail while held")
	}

	if err := release(ctx); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, ok, _ := s.Acquire(ctx, "exam_1"); !ok {
		t.Error("acquire after release must succeed")
	}
}

func TestRelease_ForeignToken(t *testing.T) {
	ms := newMemStore()
	s := New(ms, "examdex:", time.Minute)
	ctx := context.Background()

	release, _, _ := s.Acquire(ctx, "exam_1")
	// Marker expired and someone else took it over.
	ms.data["examdex:exam:exam_1:analyzing"] = "other"

	if err := release(ctx); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if ms.data["examdex:exam:exam_1:analyzing"] != "other" {
		t.Error("release must not delete a marker held by another token")
	}
}

func TestAcquire_Error(t *testing.T) {
	ms := newMemStore()
	ms.setErr = errors.New("down")
	s := New(ms, "examdex:", time.Minute)
	if _, _, err := s.Acquire(context.Background(), "exam_1"); err == nil {
		t.Fatal("expected error")
	}
}
