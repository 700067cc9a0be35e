package exam

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/examdex/internal/domain"
	domexam "github.com/kailas-cloud/examdex/internal/domain/exam"
	"github.com/kailas-cloud/examdex/internal/domain/search/filter"
)

// --- List ---

func TestList_LastPage(t *testing.T) {
	repo := &mockRepo{}
	repo.countFn = func(context.Context, filter.Expression) (int, error) { return 25, nil }
	repo.searchFn = func(_ context.Context, _ filter.Expression, offset, limit int) ([]domexam.Exam, error) {
		if offset != 20 || limit != 10 {
			t.Errorf("unexpected window: offset=%d limit=%d", offset, limit)
		}
		out := make([]domexam.Exam, 5)
		for i := range out {
			out[i] = makeExam(t, "exam_"+string(rune('a'+i)), "user-1")
		}
		return out, nil
	}

	svc := New(repo, zap.NewNop())
	res, err := svc.List(context.Background(), "user-1", ListQuery{Page: intPtr(3), PageSize: intPtr(10)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Items) != 5 || res.Total != 25 || res.TotalPages != 3 || res.Page != 3 || res.PageSize != 10 {
		t.Errorf("unexpected result: items=%d total=%d pages=%d", len(res.Items), res.Total, res.TotalPages)
	}
}

func TestList_SamePredicateForCountAndSearch(t *testing.T) {
	repo := &mockRepo{}
	var counted, searched filter.Expression
	repo.countFn = func(_ context.Context, expr filter.Expression) (int, error) {
		counted = expr
		return 1, nil
	}
	repo.searchFn = func(_ context.Context, expr filter.Expression, _, _ int) ([]domexam.Exam, error) {
		searched = expr
		return nil, nil
	}

	svc := New(repo, zap.NewNop())
	_, err := svc.List(context.Background(), "user-1", ListQuery{Filter: domexam.Filter{Text: "glicose"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(counted.Must()) != 2 || len(searched.Must()) != 2 {
		t.Errorf("predicates differ: count=%d search=%d", len(counted.Must()), len(searched.Must()))
	}
	if searched.Must()[0].Match() != "user-1" {
		t.Error("owner clause must lead the predicate")
	}
}

func TestList_TenantClauseAlwaysPresent(t *testing.T) {
	filters := []domexam.Filter{
		{},
		{ExamType: "X"},
		{ExamDate: "2024-01-01"},
		{StartDate: "2024-01-01", EndDate: "2024-02-01"},
		{Text: "ownerId"},
		{ExamType: "X", ExamDate: "2024-01-01", StartDate: "2023-01-01", Text: "a b"},
	}
	for _, f := range filters {
		repo := &mockRepo{}
		repo.countFn = func(_ context.Context, expr filter.Expression) (int, error) {
			owners := 0
			for _, c := range expr.Must() {
				if c.IsMatch() && c.Key() == domexam.FieldOwnerID {
					owners++
					if c.Match() != "user-1" {
						t.Errorf("owner clause = %q", c.Match())
					}
				}
			}
			if owners != 1 {
				t.Errorf("filter %+v: expected exactly one owner clause, got %d", f, owners)
			}
			return 0, nil
		}
		if _, err := New(repo, zap.NewNop()).List(context.Background(), "user-1", ListQuery{Filter: f}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}

func TestList_InvalidInput(t *testing.T) {
	svc := New(&mockRepo{}, zap.NewNop())
	tests := []struct {
		name  string
		owner string
		q     ListQuery
	}{
		{"no owner", "", ListQuery{}},
		{"zero page", "u", ListQuery{Page: intPtr(0)}},
		{"negative size", "u", ListQuery{PageSize: intPtr(-1)}},
		{"separator in owner", "alice\x1fbob", ListQuery{}},
		{"control char in exam type", "u", ListQuery{Filter: domexam.Filter{ExamType: "Hemo\ngrama"}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.List(context.Background(), tc.owner, tc.q)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestList_DefaultPageSize(t *testing.T) {
	repo := &mockRepo{}
	repo.searchFn = func(_ context.Context, _ filter.Expression, offset, limit int) ([]domexam.Exam, error) {
		if offset != 0 || limit != 25 {
			t.Errorf("unexpected window: %d/%d", offset, limit)
		}
		return nil, nil
	}
	res, err := New(repo, zap.NewNop()).WithPagination(25).List(context.Background(), "u", ListQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Items == nil || res.TotalPages != 0 {
		t.Errorf("unexpected empty result: %+v", res)
	}
}

func TestList_StorageError(t *testing.T) {
	repo := &mockRepo{}
	repo.countFn = func(context.Context, filter.Expression) (int, error) {
		return 0, domain.ErrStorageUnavailable
	}
	_, err := New(repo, zap.NewNop()).List(context.Background(), "u", ListQuery{})
	if !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Errorf("expected ErrStorageUnavailable, got %v", err)
	}
}

// --- Get / Delete ---

func TestGet_Forbidden(t *testing.T) {
	repo := &mockRepo{}
	repo.getFn = func(_ context.Context, id string) (domexam.Exam, error) {
		return makeExam(t, id, "someone-else"), nil
	}
	_, err := New(repo, zap.NewNop()).Get(context.Background(), "user-1", "exam_1")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo := &mockRepo{}
	repo.getFn = func(context.Context, string) (domexam.Exam, error) {
		return domexam.Exam{}, domain.ErrNotFound
	}
	_, err := New(repo, zap.NewNop()).Get(context.Background(), "user-1", "exam_1")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete_Owner(t *testing.T) {
	repo := &mockRepo{}
	deleted := ""
	repo.getFn = func(_ context.Context, id string) (domexam.Exam, error) { return makeExam(t, id, "user-1"), nil }
	repo.deleteFn = func(_ context.Context, id string) error {
		deleted = id
		return nil
	}
	if err := New(repo, zap.NewNop()).Delete(context.Background(), "user-1", "exam_1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != "exam_1" {
		t.Errorf("expected exam_1 deleted, got %q", deleted)
	}
}

func TestDelete_NotOwner(t *testing.T) {
	repo := &mockRepo{}
	repo.getFn = func(_ context.Context, id string) (domexam.Exam, error) { return makeExam(t, id, "other"), nil }
	repo.deleteFn = func(context.Context, string) error {
		t.Error("must not delete another owner's exam")
		return nil
	}
	err := New(repo, zap.NewNop()).Delete(context.Background(), "user-1", "exam_1")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

// --- Create ---

func TestCreate_Success(t *testing.T) {
	repo := &mockRepo{}
	var stored domexam.Exam
	repo.createFn = func(_ context.Context, e *domexam.Exam) error {
		stored = *e
		return nil
	}
	svc := New(repo, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 3, 11, 12, 0, 0, 0, time.UTC) }

	e, err := svc.Create(context.Background(), "user-1", CreateInput{
		DoctorID: "doc-1",
		ExamDate: "2024-03-10",
		ExamType: "Glicemia",
		RawText:  "glicose 92 mg/dL",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(e.ID(), "exam_1710158400000_") {
		t.Errorf("unexpected id: %s", e.ID())
	}
	if stored.OwnerID() != "user-1" || stored.DoctorID() != "doc-1" {
		t.Errorf("unexpected stored exam: %+v", stored)
	}
	if d := stored.ExamDate(); d == nil || !d.Equal(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("examDate = %v", d)
	}
	if _, ok := stored.Analysis(); ok {
		t.Error("new exam must be unanalyzed")
	}
}

func TestCreate_MissingFields(t *testing.T) {
	svc := New(&mockRepo{}, zap.NewNop())
	_, err := svc.Create(context.Background(), "user-1", CreateInput{ExamType: "X"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	for _, f := range []string{"doctorId", "examDate", "rawText"} {
		if !strings.Contains(err.Error(), f) {
			t.Errorf("error %q should name %s", err, f)
		}
	}
}

func TestCreate_MalformedDate(t *testing.T) {
	svc := New(&mockRepo{}, zap.NewNop())
	_, err := svc.Create(context.Background(), "user-1", CreateInput{
		DoctorID: "d", ExamDate: "yesterday", ExamType: "X", RawText: "t",
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
