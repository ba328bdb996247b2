package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/joho/godotenv"

	"github.com/fantasyscouter/engine/external/futfantasy"
	"github.com/fantasyscouter/engine/internal/config"
	"github.com/fantasyscouter/engine/internal/infrastructure/repository/memory"
	"github.com/fantasyscouter/engine/internal/infrastructure/repository/postgres"
	"github.com/fantasyscouter/engine/internal/observability"
	"github.com/fantasyscouter/engine/internal/platform/cache"
	"github.com/fantasyscouter/engine/internal/platform/logging"
	"github.com/fantasyscouter/engine/internal/platform/resilience"
	"github.com/fantasyscouter/engine/internal/scheduler"
	"github.com/fantasyscouter/engine/internal/usecase"
)

func main() {
	daemon := flag.Bool("daemon", false, "keep running and sync on the configured schedule")
	audit := flag.Bool("audit", false, "check stored data consistency and exit")
	scout := flag.String("scout", "", "print aggregate metrics for a player slug and exit")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewJSON(cfg.LogLevel)
	logging.SetDefault(logger)
	defer func() {
		_ = logger.Sync()
	}()

	os.Exit(run(cfg, logger, *daemon, *audit, *scout))
}

func run(cfg config.Config, logger *logging.Logger, daemon, audit bool, scout string) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		logger.Error("init uptrace", "error", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error("shutdown tracing", "error", err)
		}
	}()

	stopProfiling, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		logger.Error("init pyroscope", "error", err)
		return 1
	}
	defer func() {
		if err := stopProfiling(); err != nil {
			logger.Error("stop profiling", "error", err)
		}
	}()

	deps, err := buildDeps(ctx, cfg, logger)
	if err != nil {
		logger.Error("build sync service", "error", err)
		return 1
	}
	defer deps.cleanup()

	switch {
	case audit:
		return runAudit(ctx, deps, logger)
	case scout != "":
		return runScout(ctx, deps, logger, scout)
	case daemon:
		return runDaemon(ctx, cfg, deps.sync, logger)
	default:
		return runOnce(ctx, deps.sync, logger)
	}
}

func runOnce(ctx context.Context, sync *usecase.SyncService, logger *logging.Logger) int {
	report, err := sync.Run(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "sync run failed",
			"error", err,
			"failure", report.Failure,
		)
		return 1
	}
	logger.InfoContext(ctx, "sync run finished",
		"status", string(report.Status),
		"changes", report.TotalChanges(),
	)
	return 0
}

func runDaemon(ctx context.Context, cfg config.Config, sync *usecase.SyncService, logger *logging.Logger) int {
	sched := scheduler.New(cfg.SyncSchedule, cfg.HealthAddr, sync, logger)
	if err := sched.Start(ctx); err != nil {
		logger.ErrorContext(ctx, "start scheduler", "error", err)
		return 1
	}

	// One immediate run so a fresh deployment does not wait a full cycle.
	sched.RunOnce(ctx)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sched.Stop(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		return 1
	}
	logger.Info("daemon stopped")
	return 0
}

func runAudit(ctx context.Context, deps appDeps, logger *logging.Logger) int {
	snap, err := deps.store.FetchSnapshot(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "fetch snapshot for audit", "error", err)
		return 1
	}
	rs := deps.workspace()
	if err := usecase.SeedRepoSet(ctx, rs, snap); err != nil {
		logger.ErrorContext(ctx, "seed audit workspace", "error", err)
		return 1
	}

	svc := usecase.NewAuditService(rs.Teams, rs.Matches, rs.Players, rs.Performances, rs.Corrections, logger)
	report, err := svc.Check(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "audit check failed", "error", err)
		return 1
	}

	body, err := sonic.MarshalIndent(report, "", "  ")
	if err != nil {
		logger.ErrorContext(ctx, "encode audit report", "error", err)
		return 1
	}
	fmt.Println(string(body))

	if !report.Healthy() {
		return 1
	}
	return 0
}

type scoutReport struct {
	Player  string              `json:"player"`
	Metrics map[string]*float64 `json:"metrics"`
}

// runScout prints every aggregate metric for one player. A nil metric means
// no qualifying data, which is not the same as zero.
func runScout(ctx context.Context, deps appDeps, logger *logging.Logger, playerSlug string) int {
	snap, err := deps.store.FetchSnapshot(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "fetch snapshot for scouting", "error", err)
		return 1
	}
	rs := deps.workspace()
	if err := usecase.SeedRepoSet(ctx, rs, snap); err != nil {
		logger.ErrorContext(ctx, "seed scouting workspace", "error", err)
		return 1
	}

	svc := deps.aggregate(rs)
	report := scoutReport{
		Player:  playerSlug,
		Metrics: map[string]*float64{},
	}
	requests := []struct {
		name   string
		metric usecase.Metric
		scope  usecase.Scope
	}{
		{"avg_points", usecase.MetricAvgPoints, usecase.ScopeSeason()},
		{"avg_points_home", usecase.MetricAvgPoints, usecase.ScopeHomeOnly()},
		{"avg_points_away", usecase.MetricAvgPoints, usecase.ScopeAwayOnly()},
		{"total_points", usecase.MetricTotalPoints, usecase.ScopeSeason()},
		{"total_goals", usecase.MetricTotalGoals, usecase.ScopeSeason()},
		{"avg_minutes", usecase.MetricAvgMinutes, usecase.ScopeSeason()},
		{"value_trend_daily", usecase.MetricValueTrendDaily, usecase.ScopeSeason()},
		{"value_trend_weekly", usecase.MetricValueTrendWeekly, usecase.ScopeSeason()},
		{"rentability", usecase.MetricRentability, usecase.ScopeSeason()},
	}
	for _, req := range requests {
		value, ok, err := svc.AggregateCached(ctx, playerSlug, req.metric, req.scope)
		if err != nil {
			logger.ErrorContext(ctx, "aggregate metric failed",
				"player", playerSlug,
				"metric", req.name,
				"error", err,
			)
			return 1
		}
		if ok {
			v := value
			report.Metrics[req.name] = &v
		} else {
			report.Metrics[req.name] = nil
		}
	}

	body, err := sonic.MarshalIndent(report, "", "  ")
	if err != nil {
		logger.ErrorContext(ctx, "encode scout report", "error", err)
		return 1
	}
	fmt.Println(string(body))
	return 0
}

type appDeps struct {
	store     usecase.SnapshotStore
	workspace func() usecase.RepoSet
	sync      *usecase.SyncService
	aggregate func(usecase.RepoSet) *usecase.AggregationService
	cleanup   func()
}

func buildDeps(ctx context.Context, cfg config.Config, logger *logging.Logger) (appDeps, error) {
	var (
		store   usecase.SnapshotStore
		cleanup = func() {}
	)
	switch cfg.Store {
	case config.StorePostgres:
		db, err := postgres.Open(ctx, cfg.DBURL, cfg.DBMaxOpenConns)
		if err != nil {
			return appDeps{}, err
		}
		store = postgres.NewSnapshotStore(db)
		cleanup = func() {
			_ = db.Close()
		}
	case config.StoreMemory:
		store = memory.NewSnapshotStore(memory.SeedSnapshot())
	default:
		return appDeps{}, fmt.Errorf("unknown store %q", cfg.Store)
	}

	source := futfantasy.NewClient(futfantasy.ClientConfig{
		BaseURL:    cfg.FeedBaseURL,
		Token:      cfg.FeedToken,
		Timeout:    cfg.FeedTimeout,
		MaxRetries: cfg.FeedMaxRetries,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.FeedCircuitEnabled,
			FailureThreshold: cfg.FeedCircuitFailureCount,
			OpenTimeout:      cfg.FeedCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.FeedCircuitHalfOpenMaxReq,
		},
	})

	workspace := func() usecase.RepoSet {
		return usecase.RepoSet{
			Teams:        memory.NewTeamRepository(nil),
			Matches:      memory.NewMatchRepository(nil),
			Players:      memory.NewPlayerRepository(nil),
			Performances: memory.NewPerformanceRepository(nil),
			Corrections:  memory.NewCorrectionRepository(nil),
			MarketValues: memory.NewMarketValueRepository(nil),
		}
	}
	newMerge := func(rs usecase.RepoSet) *usecase.MergeService {
		return usecase.NewMergeService(
			rs.Teams, rs.Matches, rs.Players, rs.Performances, rs.Corrections,
			rs.MarketValues, logger, cfg.MergeWorkers,
		)
	}

	var aggCache *cache.Store
	if cfg.CacheEnabled {
		aggCache = cache.NewStore(cfg.CacheTTL)
	}
	aggregate := func(rs usecase.RepoSet) *usecase.AggregationService {
		return usecase.NewAggregationService(rs.Players, rs.Performances, rs.MarketValues, aggCache)
	}

	return appDeps{
		store:     store,
		workspace: workspace,
		sync:      usecase.NewSyncService(store, source, workspace, newMerge, logger),
		aggregate: aggregate,
		cleanup:   cleanup,
	}, nil
}
