// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"fmt"
	"time"

	"equireal-workers/internal/common/config"
	"equireal-workers/internal/common/logger"
	"equireal-workers/internal/common/metrics"
	computedashboardstats "equireal-workers/internal/workers/deals/compute-dashboard-stats"
	getdeal "equireal-workers/internal/workers/deals/get-deal"
	indexdeal "equireal-workers/internal/workers/deals/index-deal"

	"github.com/robfig/cron/v3"
)

const (
	JobRefreshDashboard = "refresh-dashboard"
	JobReindexRecent    = "reindex-recent"

	// reindexBatch caps how many deals one reindex run touches.
	reindexBatch = 500
	jobTimeout   = 2 * time.Minute
)

// Scheduler runs the maintenance jobs on cron schedules. Specs take a
// leading seconds field.
type Scheduler struct {
	cron      *cron.Cron
	config    config.SchedulerConfig
	dashboard *computedashboardstats.Handler
	deals     *getdeal.Handler
	index     *indexdeal.Handler
	logger    logger.Logger
	now       func() time.Time
}

func New(
	cfg config.SchedulerConfig,
	dashboard *computedashboardstats.Handler,
	deals *getdeal.Handler,
	index *indexdeal.Handler,
	log logger.Logger,
) *Scheduler {
	log = log.WithFields(map[string]interface{}{"component": "scheduler"})
	cl := cronLogger{log: log}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		config:    cfg,
		dashboard: dashboard,
		deals:     deals,
		index:     index,
		logger:    log,
		now:       time.Now,
	}
}

// RegisterAll adds every job that has a schedule. An empty spec leaves the
// job out.
func (s *Scheduler) RegisterAll() error {
	if spec := s.config.DashboardRefresh; spec != "" {
		if _, err := s.cron.AddFunc(spec, s.run(JobRefreshDashboard, s.RefreshDashboard)); err != nil {
			return fmt.Errorf("register %s: %w", JobRefreshDashboard, err)
		}
	}
	if spec := s.config.ReindexRecent; spec != "" && s.index != nil {
		if _, err := s.cron.AddFunc(spec, s.run(JobReindexRecent, func(ctx context.Context) error {
			_, err := s.ReindexRecent(ctx)
			return err
		})); err != nil {
			return fmt.Errorf("register %s: %w", JobReindexRecent, err)
		}
	}
	return nil
}

// Jobs reports how many jobs are registered.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", map[string]interface{}{"jobs": s.Jobs()})
}

// Stop stops scheduling and waits for running jobs until ctx ends.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out with jobs still running", nil)
	}
	s.logger.Info("scheduler stopped", nil)
}

func (s *Scheduler) run(job string, fn func(ctx context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		start := time.Now()
		if err := fn(ctx); err != nil {
			metrics.SchedulerRuns.WithLabelValues(job, "failed").Inc()
			s.logger.Error("scheduled job failed", map[string]interface{}{
				"job":   job,
				"error": err.Error(),
			})
			return
		}
		metrics.SchedulerRuns.WithLabelValues(job, "completed").Inc()
		s.logger.Info("scheduled job completed", map[string]interface{}{
			"job":        job,
			"durationMs": time.Since(start).Milliseconds(),
		})
	}
}

// RefreshDashboard recomputes the landlord statistics and rewrites the cache.
func (s *Scheduler) RefreshDashboard(ctx context.Context) error {
	_, err := s.dashboard.Execute(ctx, &computedashboardstats.Input{Refresh: true})
	return err
}

// ReindexRecent pushes every deal updated inside the reindex window to the
// search index and returns how many were indexed. Failed documents are
// logged and skipped.
func (s *Scheduler) ReindexRecent(ctx context.Context) (int, error) {
	window := time.Duration(s.config.ReindexWindow) * time.Millisecond
	if window <= 0 {
		window = time.Hour
	}
	since := s.now().Add(-window)

	deals, err := s.deals.ListUpdatedSince(ctx, since, reindexBatch)
	if err != nil {
		return 0, err
	}

	indexed := 0
	for _, deal := range deals {
		if _, err := s.index.Execute(ctx, &indexdeal.Input{Deal: deal}); err != nil {
			s.logger.Warn("reindex failed", map[string]interface{}{
				"dealId": deal.ID,
				"error":  err.Error(),
			})
			continue
		}
		indexed++
	}
	if len(deals) > 0 && indexed == 0 {
		return 0, fmt.Errorf("reindex: all %d deals failed", len(deals))
	}
	return indexed, nil
}

// cronLogger routes cron's own messages into the service logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, kvFields(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := kvFields(keysAndValues)
	fields["error"] = err.Error()
	l.log.Error("cron: "+msg, fields)
}

func kvFields(kv []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(kv)/2+1)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return fields
}
