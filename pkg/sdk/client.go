package examdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	dbRedis "github.com/kailas-cloud/examdex/internal/db/redis"
	"github.com/kailas-cloud/examdex/internal/domain"
	domexam "github.com/kailas-cloud/examdex/internal/domain/exam"
	"github.com/kailas-cloud/examdex/internal/domain/search/page"
	domusage "github.com/kailas-cloud/examdex/internal/domain/usage"
	budgetrepo "github.com/kailas-cloud/examdex/internal/repository/budget"
	examrepo "github.com/kailas-cloud/examdex/internal/repository/exam"
	markerrepo "github.com/kailas-cloud/examdex/internal/repository/marker"
	openaiAnalyzer "github.com/kailas-cloud/examdex/internal/transport/openai"
	analysisuc "github.com/kailas-cloud/examdex/internal/usecase/analysis"
	examuc "github.com/kailas-cloud/examdex/internal/usecase/exam"
	healthuc "github.com/kailas-cloud/examdex/internal/usecase/health"
	usageuc "github.com/kailas-cloud/examdex/internal/usecase/usage"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultKeyPrefix        = "examdex:"
	providerOpenAI          = "openai"
	providerCustom          = "custom"
)

// Internal interfaces, swapped for mocks in tests.
type examUseCase interface {
	List(ctx context.Context, ownerID string, q examuc.ListQuery) (page.Result[domexam.Exam], error)
	Get(ctx context.Context, ownerID, id string) (domexam.Exam, error)
	Create(ctx context.Context, ownerID string, in examuc.CreateInput) (domexam.Exam, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type analysisUseCase interface {
	Analyze(ctx context.Context, examID, callerID string) (analysisuc.Result, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

type usageUseCase interface {
	GetReport(ctx context.Context, period domusage.Period) (domusage.Report, error)
}

// Client is the examdex SDK entry point. It is safe for concurrent use.
type Client struct {
	store       *dbRedis.Store
	examSvc     examUseCase
	analysisSvc analysisUseCase
	healthSvc   healthUseCase
	usageSvc    usageUseCase
	obs         *observer
}

// New creates a Client, waits for Redis and ensures the exam index exists.
// The provided context bounds the readiness check and index creation.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{keyPrefix: defaultKeyPrefix}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("examdex: database address required (use WithAddrs)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:      cfg.addrs,
		Username:   cfg.username,
		Password:   cfg.password,
		DB:         cfg.db,
		ClientName: "examdex-sdk",
	})
	if err != nil {
		return nil, fmt.Errorf("examdex: create redis store: %w", err)
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("examdex: database not ready: %w", err)
	}

	repo := examrepo.New(store, cfg.keyPrefix)
	if err := repo.EnsureIndex(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("examdex: ensure index: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}
	return wireClient(store, repo, cfg, obs), nil
}

func wireClient(store *dbRedis.Store, repo *examrepo.Repo, cfg *clientConfig, obs *observer) *Client {
	// The SDK reports through slog/prometheus; internal zap logs are dropped.
	logger := zap.NewNop()

	examSvc := examuc.New(repo, logger).
		WithLocation(cfg.location).
		WithPagination(cfg.defaultPageSize)

	provider, guard, checker := buildProvider(store, cfg, logger)
	analysisSvc := analysisuc.New(repo, provider, logger)
	if cfg.maxInputChars > 0 {
		analysisSvc = analysisSvc.WithMaxInputChars(cfg.maxInputChars)
	}
	if cfg.markerTTL > 0 {
		analysisSvc = analysisSvc.WithMarker(markerrepo.New(store, cfg.keyPrefix, cfg.markerTTL))
	}

	// nil interfaces, not typed nil pointers.
	var budgetReader usageuc.BudgetReader
	if guard != nil {
		budgetReader = guard
	}
	var hc healthuc.AnalysisChecker
	if checker != nil {
		hc = checker
	}

	return &Client{
		store:       store,
		examSvc:     examSvc,
		analysisSvc: analysisSvc,
		healthSvc:   healthuc.New(store, hc),
		usageSvc:    usageuc.New(budgetReader),
		obs:         obs,
	}
}

// buildProvider picks the analyzer (custom over OpenAI) and wraps it with the budget guard.
func buildProvider(
	store *dbRedis.Store, cfg *clientConfig, logger *zap.Logger,
) (analysisuc.ProviderHandle, *analysisuc.BudgetGuard, domain.HealthChecker) {
	var (
		base     domain.Analyzer
		checker  domain.HealthChecker
		provider string
		model    string
	)
	switch {
	case cfg.analyzer != nil:
		a := &analyzerAdapter{inner: cfg.analyzer}
		base, checker, provider, model = a, a, providerCustom, providerCustom
	case cfg.openai != nil:
		a := openaiAnalyzer.NewAnalyzer(&openaiAnalyzer.Config{
			APIKey:     cfg.openai.APIKey,
			BaseURL:    cfg.openai.BaseURL,
			Model:      cfg.openai.Model,
			MaxTokens:  cfg.openai.MaxTokens,
			Timeout:    cfg.openai.Timeout,
			MaxRetries: cfg.openai.MaxRetries,
			Provider:   providerOpenAI,
			Logger:     logger,
		})
		base, checker, provider, model = a, a, providerOpenAI, a.Model()
	default:
		return analysisuc.Unconfigured(), nil, nil
	}

	if cfg.budget == nil {
		return analysisuc.Configured(
			analysisuc.NewInstrumentedAnalyzer(base, provider, model, nil, logger),
		), nil, checker
	}

	action := analysisuc.BudgetActionWarn
	if cfg.budget.Reject {
		action = analysisuc.BudgetActionReject
	}
	guard := analysisuc.NewBudgetGuard(
		budgetrepo.New(store, cfg.keyPrefix, 48*time.Hour, 62*24*time.Hour),
		provider, cfg.budget.DailyTokenLimit, cfg.budget.MonthlyTokenLimit, action, logger,
	)
	return analysisuc.Configured(
		analysisuc.NewInstrumentedAnalyzer(base, provider, model, guard, logger),
	), guard, checker
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}
