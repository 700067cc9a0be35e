package exam

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/examdex/internal/db"
	domexam "github.com/kailas-cloud/examdex/internal/domain/exam"
	"github.com/kailas-cloud/examdex/internal/domain/search/filter"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	jsonCreateFn  func(ctx context.Context, key string, data []byte) error
	jsonMergeFn   func(ctx context.Context, key, path string, data []byte) error
	jsonGetFn     func(ctx context.Context, key string, paths ...string) ([]byte, error)
	delFn         func(ctx context.Context, key string) error
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	indexExistsFn func(ctx context.Context, name string) (bool, error)
	searchFn      func(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error)
	countFn       func(ctx context.Context, index string, expr filter.Expression) (int, error)
}

func (m *mockStore) JSONCreate(ctx context.Context, key string, data []byte) error {
	if m.jsonCreateFn != nil {
		return m.jsonCreateFn(ctx, key, data)
	}
	return nil
}

func (m *mockStore) JSONMerge(ctx context.Context, key, path string, data []byte) error {
	if m.jsonMergeFn != nil {
		return m.jsonMergeFn(ctx, key, path, data)
	}
	return nil
}

func (m *mockStore) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	if m.jsonGetFn != nil {
		return m.jsonGetFn(ctx, key, paths...)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func (m *mockStore) Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) Count(ctx context.Context, index string, expr filter.Expression) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, index, expr)
	}
	return 0, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, "examdex:"), ms
}

func testExam(t *testing.T) domexam.Exam {
	t.Helper()
	date := time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)
	e, err := domexam.New("exam_1", "user-1", domexam.Fields{
		DoctorID: "doc-1",
		ExamType: "Hemograma",
		ExamDate: &date,
		RawText:  "hemoglobina 11.2 g/dL",
	}, time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("build exam: %v", err)
	}
	return e
}
