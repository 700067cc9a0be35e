package analysis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/examdex/internal/domain"
	domexam "github.com/kailas-cloud/examdex/internal/domain/exam"
	"github.com/kailas-cloud/examdex/internal/metrics"
)

var fixedNow = time.Date(2024, 3, 15, 12, 30, 45, 123456789, time.UTC)

func newTestService(repo Repository, a domain.Analyzer) *Service {
	s := New(repo, Configured(a), zap.NewNop())
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestAnalyze_FirstCallThenCached(t *testing.T) {
	repo := newMemRepo(makeExam(t, "exam_1", "u1", domexam.Fields{RawText: "hb 13.5"}))
	an := &mockAnalyzer{}
	svc := newTestService(repo, an)

	first, err := svc.Analyze(context.Background(), "exam_1", "u1")
	if err != nil {
		t.Fatalf("first Analyze: %v", err)
	}
	if first.Cached {
		t.Error("first call must not be cached")
	}
	if first.Analysis != "Hemograma normal." {
		t.Errorf("Analysis = %q", first.Analysis)
	}
	if first.ExamType != "Hemograma" {
		t.Errorf("ExamType = %q", first.ExamType)
	}
	if !first.AnalyzedAt.Equal(fixedNow.Truncate(time.Millisecond)) {
		t.Errorf("AnalyzedAt = %v", first.AnalyzedAt)
	}

	second, err := svc.Analyze(context.Background(), "exam_1", "u1")
	if err != nil {
		t.Fatalf("second Analyze: %v", err)
	}
	if !second.Cached {
		t.Error("second call must be cached")
	}
	if second.Analysis != first.Analysis || !second.AnalyzedAt.Equal(first.AnalyzedAt) {
		t.Errorf("cached result %+v differs from first %+v", second, first)
	}
	if an.Calls() != 1 {
		t.Errorf("provider calls = %d, want 1", an.Calls())
	}
}

func TestAnalyze_CacheMetrics(t *testing.T) {
	repo := newMemRepo(makeExam(t, "exam_m", "u1", domexam.Fields{RawText: "x"}))
	svc := newTestService(repo, &mockAnalyzer{})

	hits := testutil.ToFloat64(metrics.AnalysisCacheTotal.WithLabelValues("hit"))
	misses := testutil.ToFloat64(metrics.AnalysisCacheTotal.WithLabelValues("miss"))

	for range 3 {
		if _, err := svc.Analyze(context.Background(), "exam_m", "u1"); err != nil {
			t.Fatalf("Analyze: %v", err)
		}
	}

	if got := testutil.ToFloat64(metrics.AnalysisCacheTotal.WithLabelValues("miss")) - misses; got != 1 {
		t.Errorf("miss delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.AnalysisCacheTotal.WithLabelValues("hit")) - hits; got != 2 {
		t.Errorf("hit delta = %v, want 2", got)
	}
}

func TestAnalyze_PrefersExtractedText(t *testing.T) {
	repo := newMemRepo(makeExam(t, "exam_1", "u1", domexam.Fields{
		ExamType: "Glicemia", RawText: "raw content", ExtractedText: "extracted content",
	}))
	an := &mockAnalyzer{}
	svc := newTestService(repo, an)

	if _, err := svc.Analyze(context.Background(), "exam_1", "u1"); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !strings.Contains(an.last.User, "extracted content") || strings.Contains(an.last.User, "raw content") {
		t.Errorf("user prompt should carry extracted text only:\n%s", an.last.User)
	}
	if !strings.Contains(an.last.User, "Glicemia") {
		t.Error("user prompt should name the exam type")
	}
	if an.last.System != DefaultSystemPrompt {
		t.Errorf("System = %q", an.last.System)
	}
}

func TestAnalyze_TruncatesInput(t *testing.T) {
	long := strings.Repeat("é", 50)
	repo := newMemRepo(makeExam(t, "exam_1", "u1", domexam.Fields{RawText: long}))
	an := &mockAnalyzer{}
	svc := newTestService(repo, an).WithMaxInputChars(10)

	if _, err := svc.Analyze(context.Background(), "exam_1", "u1"); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if strings.Contains(an.last.User, strings.Repeat("é", 11)) {
		t.Error("input was not truncated to 10 runes")
	}
	if !strings.Contains(an.last.User, strings.Repeat("é", 10)) {
		t.Error("truncated input missing from prompt")
	}
}

func TestAnalyze_ProviderFailurePersistsNothing(t *testing.T) {
	repo := newMemRepo(makeExam(t, "exam_1", "u1", domexam.Fields{RawText: "x"}))
	an := &mockAnalyzer{completeFn: func(context.Context, domain.Prompt) (domain.Completion, error) {
		return domain.Completion{}, domain.ErrProviderQuotaExceeded
	}}
	svc := newTestService(repo, an)

	_, err := svc.Analyze(context.Background(), "exam_1", "u1")
	if !errors.Is(err, domain.ErrProviderQuotaExceeded) {
		t.Fatalf("expected ErrProviderQuotaExceeded, got %v", err)
	}
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Error("quota error must also match ErrProviderUnavailable")
	}
	if repo.saves != 0 {
		t.Errorf("saves = %d, want 0", repo.saves)
	}

	// A later call retries from the unanalyzed state.
	an.completeFn = nil
	res, err := svc.Analyze(context.Background(), "exam_1", "u1")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if res.Cached {
		t.Error("retry must call the provider")
	}
	if an.Calls() != 2 {
		t.Errorf("provider calls = %d, want 2", an.Calls())
	}
}

func TestAnalyze_UnclassifiedProviderError(t *testing.T) {
	repo := newMemRepo(makeExam(t, "exam_1", "u1", domexam.Fields{RawText: "x"}))
	an := &mockAnalyzer{completeFn: func(context.Context, domain.Prompt) (domain.Completion, error) {
		return domain.Completion{}, errors.New("connection reset")
	}}

	_, err := newTestService(repo, an).Analyze(context.Background(), "exam_1", "u1")
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestAnalyze_EmptyCompletion(t *testing.T) {
	repo := newMemRepo(makeExam(t, "exam_1", "u1", domexam.Fields{RawText: "x"}))
	an := &mockAnalyzer{completeFn: func(context.Context, domain.Prompt) (domain.Completion, error) {
		return domain.Completion{Text: "  \n"}, nil
	}}

	_, err := newTestService(repo, an).Analyze(context.Background(), "exam_1", "u1")
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
	if repo.saves != 0 {
		t.Error("empty completion must not be persisted")
	}
}

func TestAnalyze_NotConfigured(t *testing.T) {
	repo := newMemRepo(makeExam(t, "exam_1", "u1", domexam.Fields{RawText: "x"}))
	svc := New(repo, Unconfigured(), zap.NewNop())

	_, err := svc.Analyze(context.Background(), "exam_1", "u1")
	if !errors.Is(err, domain.ErrProviderNotConfigured) {
		t.Fatalf("expected ErrProviderNotConfigured, got %v", err)
	}
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Error("not configured must match ErrProviderUnavailable")
	}
}

func TestAnalyze_NotFound(t *testing.T) {
	an := &mockAnalyzer{}
	_, err := newTestService(newMemRepo(), an).Analyze(context.Background(), "missing", "u1")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if an.Calls() != 0 {
		t.Error("provider must not be called")
	}
}

func TestAnalyze_Forbidden(t *testing.T) {
	e := makeExam(t, "exam_1", "owner", domexam.Fields{RawText: "x"})
	e = e.WithAnalysis(domexam.Analysis{Text: "stored", AnalyzedAt: fixedNow})
	an := &mockAnalyzer{}

	_, err := newTestService(newMemRepo(e), an).Analyze(context.Background(), "exam_1", "intruder")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if an.Calls() != 0 {
		t.Error("provider must not be called")
	}
}

func TestAnalyze_NoText(t *testing.T) {
	e := domexam.Reconstruct("exam_1", "u1", domexam.Fields{ExamType: "X", RawText: "  "}, nil, fixedNow)
	an := &mockAnalyzer{}

	_, err := newTestService(newMemRepo(e), an).Analyze(context.Background(), "exam_1", "u1")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if an.Calls() != 0 {
		t.Error("provider must not be called")
	}
}

func TestAnalyze_BlankStoredAnalysisIsNotCached(t *testing.T) {
	e := makeExam(t, "exam_1", "u1", domexam.Fields{RawText: "x"})
	e = e.WithAnalysis(domexam.Analysis{Text: "   ", AnalyzedAt: fixedNow})
	an := &mockAnalyzer{}

	res, err := newTestService(newMemRepo(e), an).Analyze(context.Background(), "exam_1", "u1")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Cached || an.Calls() != 1 {
		t.Errorf("blank analysis must be regenerated: cached=%v calls=%d", res.Cached, an.Calls())
	}
}

func TestAnalyze_SaveFailure(t *testing.T) {
	repo := newMemRepo(makeExam(t, "exam_1", "u1", domexam.Fields{RawText: "x"}))
	repo.saveErr = domain.ErrStorageUnavailable

	_, err := newTestService(repo, &mockAnalyzer{}).Analyze(context.Background(), "exam_1", "u1")
	if !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
}

func TestAnalyze_DeletedDuringCall(t *testing.T) {
	repo := newMemRepo(makeExam(t, "exam_1", "u1", domexam.Fields{RawText: "x"}))
	an := &mockAnalyzer{completeFn: func(context.Context, domain.Prompt) (domain.Completion, error) {
		repo.mu.Lock()
		delete(repo.exams, "exam_1")
		repo.mu.Unlock()
		return domain.Completion{Text: "ok"}, nil
	}}

	_, err := newTestService(repo, an).Analyze(context.Background(), "exam_1", "u1")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, ok := repo.exams["exam_1"]; ok {
		t.Error("deleted exam must not be recreated")
	}
}

func TestAnalyze_MarkerHeld(t *testing.T) {
	repo := newMemRepo(makeExam(t, "exam_1", "u1", domexam.Fields{RawText: "x"}))
	marker := newMockMarker()
	marker.held["exam_1"] = true
	an := &mockAnalyzer{}

	_, err := newTestService(repo, an).WithMarker(marker).Analyze(context.Background(), "exam_1", "u1")
	if !errors.Is(err, domain.ErrAnalysisInProgress) {
		t.Fatalf("expected ErrAnalysisInProgress, got %v", err)
	}
	if an.Calls() != 0 {
		t.Error("provider must not be called while the marker is held")
	}
}

func TestAnalyze_MarkerReleased(t *testing.T) {
	repo := newMemRepo(makeExam(t, "exam_1", "u1", domexam.Fields{RawText: "x"}))
	marker := newMockMarker()
	an := &mockAnalyzer{completeFn: func(context.Context, domain.Prompt) (domain.Completion, error) {
		return domain.Completion{}, domain.ErrProviderInvalidCredential
	}}
	svc := newTestService(repo, an).WithMarker(marker)

	if _, err := svc.Analyze(context.Background(), "exam_1", "u1"); !errors.Is(err, domain.ErrProviderInvalidCredential) {
		t.Fatalf("expected ErrProviderInvalidCredential, got %v", err)
	}
	if marker.releases != 1 || marker.held["exam_1"] {
		t.Errorf("marker not released after failure: releases=%d", marker.releases)
	}

	an.completeFn = nil
	if _, err := svc.Analyze(context.Background(), "exam_1", "u1"); err != nil {
		t.Fatalf("Analyze after release: %v", err)
	}
	if marker.releases != 2 {
		t.Errorf("releases = %d, want 2", marker.releases)
	}
}

func TestAnalyze_MarkerRecheckServesCache(t *testing.T) {
	repo := newMemRepo(makeExam(t, "exam_1", "u1", domexam.Fields{RawText: "x"}))
	an := &mockAnalyzer{}
	marker := &hookMarker{mockMarker: newMockMarker(), onAcquire: func() {
		// Another holder finished right before this one acquired.
		_ = repo.SaveAnalysis(context.Background(), "exam_1", domexam.Analysis{Text: "from peer", AnalyzedAt: fixedNow})
	}}

	res, err := newTestService(repo, an).WithMarker(marker).Analyze(context.Background(), "exam_1", "u1")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !res.Cached || res.Analysis != "from peer" {
		t.Errorf("got %+v, want cached peer analysis", res)
	}
	if an.Calls() != 0 {
		t.Error("provider must not be called")
	}
}

func TestAnalyze_MarkerError(t *testing.T) {
	repo := newMemRepo(makeExam(t, "exam_1", "u1", domexam.Fields{RawText: "x"}))
	marker := newMockMarker()
	marker.acquireErr = errors.New("conn refused")

	_, err := newTestService(repo, &mockAnalyzer{}).WithMarker(marker).Analyze(context.Background(), "exam_1", "u1")
	if !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
}

func TestAnalyze_ConcurrentWithMarkerCallsOnce(t *testing.T) {
	repo := newMemRepo(makeExam(t, "exam_1", "u1", domexam.Fields{RawText: "x"}))
	gate := make(chan struct{})
	an := &mockAnalyzer{completeFn: func(context.Context, domain.Prompt) (domain.Completion, error) {
		<-gate
		return domain.Completion{Text: "done"}, nil
	}}
	svc := newTestService(repo, an).WithMarker(newMockMarker())

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Analyze(context.Background(), "exam_1", "u1")
		}(i)
	}

	// Wait until one caller reached the provider, then let it finish.
	for an.Calls() == 0 {
		time.Sleep(time.Millisecond)
	}
	close(gate)
	wg.Wait()

	if an.Calls() != 1 {
		t.Errorf("provider calls = %d, want 1", an.Calls())
	}
	var ok int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrAnalysisInProgress):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok == 0 {
		t.Error("at least one caller must succeed")
	}
}

func TestAnalyze_BudgetReject(t *testing.T) {
	repo := newMemRepo(makeExam(t, "exam_1", "u1", domexam.Fields{RawText: "x"}))
	store := newMemBudgetStore()
	store.used["openai:day"] = 1000
	guard := NewBudgetGuard(store, "openai", 1000, 0, BudgetActionReject, zap.NewNop())
	inner := &mockAnalyzer{}
	an := NewInstrumentedAnalyzer(inner, "openai", "gpt-4o-mini", guard, zap.NewNop())

	_, err := newTestService(repo, an).Analyze(context.Background(), "exam_1", "u1")
	if !errors.Is(err, domain.ErrProviderQuotaExceeded) {
		t.Fatalf("expected ErrProviderQuotaExceeded, got %v", err)
	}
	if inner.Calls() != 0 {
		t.Error("provider must not be called over budget")
	}
	if repo.saves != 0 {
		t.Error("nothing may be persisted")
	}
}

func TestConfigured_Nil(t *testing.T) {
	if _, ok := Configured(nil).Analyzer(); ok {
		t.Error("Configured(nil) must be unconfigured")
	}
	if _, ok := (ProviderHandle{}).Analyzer(); ok {
		t.Error("zero handle must be unconfigured")
	}
	if _, ok := Configured(&mockAnalyzer{}).Analyzer(); !ok {
		t.Error("Configured(a) must be configured")
	}
}

// hookMarker runs onAcquire after a successful acquire.
type hookMarker struct {
	*mockMarker
	onAcquire func()
}

func (h *hookMarker) Acquire(ctx context.Context, examID string) (func(context.Context) error, bool, error) {
	release, ok, err := h.mockMarker.Acquire(ctx, examID)
	if ok && h.onAcquire != nil {
		h.onAcquire()
	}
	return release, ok, err
}
