package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/examdex/internal/domain"
	domexam "github.com/kailas-cloud/examdex/internal/domain/exam"
	logpkg "github.com/kailas-cloud/examdex/internal/logger"
	"github.com/kailas-cloud/examdex/internal/metrics"
)

// DefaultMaxInputChars is the rune budget for text sent to the provider.
const DefaultMaxInputChars = 8000

// Result is the outcome of Analyze. Cached is true when no provider call was made.
type Result struct {
	Analysis   string
	AnalyzedAt time.Time
	ExamType   string
	Cached     bool
}

// Service produces an exam's AI analysis at most once and serves it from the exam afterwards.
type Service struct {
	repo          Repository
	provider      ProviderHandle
	prompts       *PromptBuilder
	maxInputChars int
	marker        Marker
	now           func() time.Time
	logger        *zap.Logger
}

// New creates an analysis service with the default prompts and no in-progress marker.
func New(repo Repository, provider ProviderHandle, logger *zap.Logger) *Service {
	return &Service{
		repo:          repo,
		provider:      provider,
		prompts:       DefaultPromptBuilder(),
		maxInputChars: DefaultMaxInputChars,
		now:           time.Now,
		logger:        logger,
	}
}

// WithMarker enables the in-progress marker. Concurrent first analyses of one
// exam then fail with ErrAnalysisInProgress instead of both calling the provider.
func (s *Service) WithMarker(m Marker) *Service {
	s.marker = m
	return s
}

// WithPrompts replaces the prompt builder.
func (s *Service) WithPrompts(p *PromptBuilder) *Service {
	if p != nil {
		s.prompts = p
	}
	return s
}

// WithMaxInputChars sets the input rune budget.
func (s *Service) WithMaxInputChars(n int) *Service {
	if n > 0 {
		s.maxInputChars = n
	}
	return s
}

// Analyze returns the exam's analysis, calling the provider only when none is stored.
// Nothing is persisted when the provider fails, so a later call retries cleanly.
func (s *Service) Analyze(ctx context.Context, examID, callerID string) (Result, error) {
	analyzer, ok := s.provider.Analyzer()
	if !ok {
		return Result{}, domain.ErrProviderNotConfigured
	}

	e, err := s.load(ctx, examID, callerID)
	if err != nil {
		return Result{}, err
	}
	if res, ok := cached(&e); ok {
		s.hit(ctx, examID)
		return res, nil
	}

	text := e.AnalyzableText(s.maxInputChars)
	if text == "" {
		return Result{}, fmt.Errorf("exam %s has no text to analyze: %w", examID, domain.ErrInvalidInput)
	}

	if s.marker != nil {
		release, err := s.acquire(ctx, examID)
		if err != nil {
			return Result{}, err
		}
		defer release()

		// Another holder may have finished between the first read and the acquire.
		if e, err = s.load(ctx, examID, callerID); err != nil {
			return Result{}, err
		}
		if res, ok := cached(&e); ok {
			s.hit(ctx, examID)
			return res, nil
		}
	}

	metrics.AnalysisCacheTotal.WithLabelValues("miss").Inc()

	prompt, err := s.prompts.Build(e.ExamType(), text)
	if err != nil {
		return Result{}, err
	}

	log := logpkg.FromContext(ctx, s.logger)
	log.Info("Requesting exam analysis",
		zap.String("exam_id", examID),
		zap.Int("input_runes", len([]rune(text))),
	)
	start := s.now()

	completion, err := analyzer.Complete(ctx, prompt)
	if err != nil {
		if !errors.Is(err, domain.ErrProviderUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
		}
		return Result{}, fmt.Errorf("analyze exam %s: %w", examID, err)
	}
	if strings.TrimSpace(completion.Text) == "" {
		return Result{}, fmt.Errorf("analyze exam %s: empty completion: %w", examID, domain.ErrProviderUnavailable)
	}

	a := domexam.Analysis{
		Text:       completion.Text,
		AnalyzedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	if err := s.repo.SaveAnalysis(ctx, examID, a); err != nil {
		log.Error("Failed to persist analysis",
			zap.String("exam_id", examID),
			zap.Int("total_tokens", completion.TotalTokens),
			zap.Error(err),
		)
		return Result{}, fmt.Errorf("save analysis: %w", err)
	}

	log.Info("Exam analyzed",
		zap.String("exam_id", examID),
		zap.String("exam_type", e.ExamType()),
		zap.Duration("duration", s.now().Sub(start)),
		zap.Int("total_tokens", completion.TotalTokens),
	)

	return Result{
		Analysis:   a.Text,
		AnalyzedAt: a.AnalyzedAt,
		ExamType:   e.ExamType(),
		Cached:     false,
	}, nil
}

func (s *Service) load(ctx context.Context, examID, callerID string) (domexam.Exam, error) {
	e, err := s.repo.Get(ctx, examID)
	if err != nil {
		return domexam.Exam{}, fmt.Errorf("get exam: %w", err)
	}
	if !e.OwnedBy(callerID) {
		return domexam.Exam{}, fmt.Errorf("exam %s: %w", examID, domain.ErrForbidden)
	}
	return e, nil
}

// acquire takes the marker and returns its release. Release runs detached from
// ctx so a cancelled request still frees the marker.
func (s *Service) acquire(ctx context.Context, examID string) (func(), error) {
	release, ok, err := s.marker.Acquire(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("analysis marker: %w: %w", domain.ErrStorageUnavailable, err)
	}
	if !ok {
		return nil, fmt.Errorf("exam %s: %w", examID, domain.ErrAnalysisInProgress)
	}
	return func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			logpkg.FromContext(ctx, s.logger).Warn("Failed to release analysis marker",
				zap.String("exam_id", examID),
				zap.Error(err),
			)
		}
	}, nil
}

func (s *Service) hit(ctx context.Context, examID string) {
	metrics.AnalysisCacheTotal.WithLabelValues("hit").Inc()
	logpkg.FromContext(ctx, s.logger).Debug("Analysis served from cache", zap.String("exam_id", examID))
}

func cached(e *domexam.Exam) (Result, bool) {
	a, ok := e.Analysis()
	if !ok {
		return Result{}, false
	}
	return Result{
		Analysis:   a.Text,
		AnalyzedAt: a.AnalyzedAt,
		ExamType:   e.ExamType(),
		Cached:     true,
	}, true
}
