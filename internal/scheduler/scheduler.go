package scheduler

import (
	"context"
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/fantasyscouter/engine/internal/metrics"
	"github.com/fantasyscouter/engine/internal/platform/logging"
	"github.com/fantasyscouter/engine/internal/usecase"
)

// Scheduler runs the sync cycle on a cron schedule and serves health and
// metrics endpoints while the daemon is up.
type Scheduler struct {
	schedule   string
	healthAddr string
	sync       *usecase.SyncService
	logger     *logging.Logger

	cron   *cron.Cron
	server *fasthttp.Server
}

func New(schedule, healthAddr string, sync *usecase.SyncService, logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Scheduler{
		schedule:   schedule,
		healthAddr: healthAddr,
		sync:       sync,
		logger:     logger,
		cron:       cron.New(),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("schedule sync job: %w", err)
	}
	s.cron.Start()
	s.logger.InfoContext(ctx, "sync job scheduled", "schedule", s.schedule)

	if s.healthAddr != "" {
		s.server = &fasthttp.Server{
			Handler:     s.handleRequest(),
			ReadTimeout: 10 * time.Second,
		}
		go func() {
			s.logger.InfoContext(ctx, "health server starting", "addr", s.healthAddr)
			if err := s.server.ListenAndServe(s.healthAddr); err != nil {
				s.logger.ErrorContext(ctx, "health server failed", "error", err)
			}
		}()
	}

	return nil
}

// RunOnce executes one sync cycle and records its metrics. Cron fires it on
// schedule; the daemon also calls it once at startup.
func (s *Scheduler) RunOnce(ctx context.Context) {
	started := time.Now()
	report, err := s.sync.Run(ctx)
	recordRun(report)
	if err != nil {
		s.logger.ErrorContext(ctx, "scheduled sync run failed",
			"error", err,
			"duration", time.Since(started),
		)
		return
	}
	s.logger.InfoContext(ctx, "scheduled sync run finished",
		"status", string(report.Status),
		"changes", report.TotalChanges(),
		"duration", time.Since(started),
	)
}

func (s *Scheduler) Stop(ctx context.Context) error {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	if s.server != nil {
		if err := s.server.ShutdownWithContext(ctx); err != nil {
			return fmt.Errorf("shutdown health server: %w", err)
		}
	}
	return nil
}

func recordRun(report usecase.RunReport) {
	metrics.RecordSyncRun(string(report.Status), report.FinishedAt.Sub(report.StartedAt).Seconds())
	metrics.SnapshotVersion.Set(float64(report.Version))
	for entity, log := range report.Entities {
		metrics.RecordMergeOutcome(entity, "inserted", log.Inserted)
		metrics.RecordMergeOutcome(entity, "updated", log.Updated)
		metrics.RecordMergeOutcome(entity, "corrected", log.Corrected)
		metrics.RecordMergeOutcome(entity, "unchanged", log.Unchanged)
		metrics.RecordMergeOutcome(entity, "malformed", log.Malformed)
		for _, event := range log.Corrections {
			metrics.RecordCorrection(event.Entity, event.Field)
		}
	}
}

type healthResponse struct {
	Status string `json:"status"`
	State  string `json:"state"`
}

func (s *Scheduler) handleRequest() fasthttp.RequestHandler {
	metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())

	return func(ctx *fasthttp.RequestCtx) {
		switch string(ctx.Path()) {
		case "/healthz":
			body, err := sonic.Marshal(healthResponse{
				Status: "ok",
				State:  string(s.sync.State()),
			})
			if err != nil {
				ctx.SetStatusCode(fasthttp.StatusInternalServerError)
				return
			}
			ctx.SetContentType("application/json")
			ctx.SetBody(body)
		case "/metrics":
			metricsHandler(ctx)
		default:
			ctx.SetStatusCode(fasthttp.StatusNotFound)
		}
	}
}
