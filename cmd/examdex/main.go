package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/examdex/internal/config"
	dbRedis "github.com/kailas-cloud/examdex/internal/db/redis"
	logpkg "github.com/kailas-cloud/examdex/internal/logger"
	"github.com/kailas-cloud/examdex/internal/metrics"
	budgetrepo "github.com/kailas-cloud/examdex/internal/repository/budget"
	examrepo "github.com/kailas-cloud/examdex/internal/repository/exam"
	markerrepo "github.com/kailas-cloud/examdex/internal/repository/marker"
	chiTransport "github.com/kailas-cloud/examdex/internal/transport/chi"
	openaiAnalyzer "github.com/kailas-cloud/examdex/internal/transport/openai"
	analysisuc "github.com/kailas-cloud/examdex/internal/usecase/analysis"
	examuc "github.com/kailas-cloud/examdex/internal/usecase/exam"
	healthuc "github.com/kailas-cloud/examdex/internal/usecase/health"
	usageuc "github.com/kailas-cloud/examdex/internal/usecase/usage"
	"github.com/kailas-cloud/examdex/internal/version"
)

const (
	providerName   = "openai"
	budgetDailyTTL = 48 * time.Hour
	budgetMonthTTL = 62 * 24 * time.Hour
)

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "-version" || os.Args[1] == "--version") {
		fmt.Println(version.String())
		return
	}

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting examdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("build_date", version.Date),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("timezone", cfg.Search.Timezone),
		zap.Bool("analysis_configured", cfg.Analysis.Configured()),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Registered explicitly, no init().
	metrics.RegisterAnalysisMetrics()

	examRepo := examrepo.New(store, cfg.Storage.KeyPrefix)
	if err := examRepo.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure exam index", zap.Error(err))
	}

	examSvc := examuc.New(examRepo, logger).
		WithLocation(cfg.Search.Location()).
		WithPagination(cfg.Search.DefaultPageSize)

	prompts, err := analysisuc.NewPromptBuilder(cfg.Analysis.SystemPrompt, cfg.Analysis.UserTemplate)
	if err != nil {
		logger.Fatal("Invalid analysis prompt", zap.Error(err))
	}

	provider, guard, checker := buildProvider(&cfg.Analysis, store, cfg.Storage.KeyPrefix, logger)

	analysisSvc := analysisuc.New(examRepo, provider, logger).
		WithPrompts(prompts).
		WithMaxInputChars(cfg.Analysis.MaxInputChars)
	if ttl := cfg.Analysis.InProgressTTLSec; ttl > 0 {
		analysisSvc = analysisSvc.WithMarker(
			markerrepo.New(store, cfg.Storage.KeyPrefix, time.Duration(ttl)*time.Second),
		)
		logger.Info("Analysis in-progress marker enabled", zap.Int("ttl_sec", ttl))
	}

	// Pass nil interfaces, not typed nil pointers, when analysis is not configured.
	var budgetReader usageuc.BudgetReader
	if guard != nil {
		budgetReader = guard
	}
	usageSvc := usageuc.New(budgetReader)
	healthSvc := healthuc.New(store, checker)

	server := chiTransport.NewServer(examSvc, analysisSvc, usageSvc, healthSvc, logger)
	router := chiTransport.NewRouter(server, chiTransport.RouterOptions{
		Auth: chiTransport.AuthConfig{
			Secret: cfg.Auth.JWTSecret,
			Issuer: cfg.Auth.JWTIssuer,
			Leeway: 30 * time.Second,
		},
		Logger: logger,
	})
	if cfg.Auth.JWTSecret == "" {
		logger.Warn("auth.jwt_secret is empty, every protected request will be rejected")
	}

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildProvider assembles the analyzer chain: OpenAI -> Instrumented (budget + metrics).
// Without an API key the handle is Unconfigured and guard/checker are nil.
func buildProvider(
	cfg *config.AnalysisConfig, store *dbRedis.Store, prefix string, logger *zap.Logger,
) (analysisuc.ProviderHandle, *analysisuc.BudgetGuard, healthuc.AnalysisChecker) {
	if !cfg.Configured() {
		logger.Warn("analysis.api_key is empty, analysis is disabled")
		return analysisuc.Unconfigured(), nil, nil
	}

	base := openaiAnalyzer.NewAnalyzer(&openaiAnalyzer.Config{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     time.Duration(cfg.TimeoutSec) * time.Second,
		MaxRetries:  cfg.MaxRetries,
		Provider:    providerName,
		Logger:      logger,
	})

	action := analysisuc.BudgetActionWarn
	if cfg.Budget.Action == string(analysisuc.BudgetActionReject) {
		action = analysisuc.BudgetActionReject
	}
	guard := analysisuc.NewBudgetGuard(
		budgetrepo.New(store, prefix, budgetDailyTTL, budgetMonthTTL),
		providerName, cfg.Budget.DailyTokenLimit, cfg.Budget.MonthlyTokenLimit, action, logger,
	)

	analyzer := analysisuc.NewInstrumentedAnalyzer(base, providerName, base.Model(), guard, logger)
	logger.Info("Analysis provider configured",
		zap.String("provider", providerName),
		zap.String("model", base.Model()),
		zap.Int64("daily_token_limit", cfg.Budget.DailyTokenLimit),
		zap.Int64("monthly_token_limit", cfg.Budget.MonthlyTokenLimit),
		zap.String("budget_action", string(action)),
	)

	return analysisuc.Configured(analyzer), guard, base
}
