// internal/workers/deals/compute-dashboard-stats/handler.go
package computedashboardstats

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"equireal-workers/internal/common/database"
	"equireal-workers/internal/common/logger"
	"equireal-workers/internal/common/metrics"
	"equireal-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	TaskType = "compute-dashboard-stats"

	cacheName = "dashboard"
)

var (
	ErrQueryExecutionFailed = errors.New("QUERY_EXECUTION_FAILED")
	ErrQueryTimeout         = errors.New("QUERY_TIMEOUT")
)

type Handler struct {
	config *Config
	db     *sql.DB
	redis  redis.Cmdable
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(config *Config, db *sql.DB, rdb redis.Cmdable, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
		redis:  rdb,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
		now:    time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err), 0)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		errorCode := "UNKNOWN_ERROR"
		retries := int32(0)
		if errors.Is(err, ErrQueryTimeout) {
			errorCode = "QUERY_TIMEOUT"
			retries = 2
		} else if errors.Is(err, ErrQueryExecutionFailed) {
			errorCode = "QUERY_EXECUTION_FAILED"
			retries = 3
		}
		h.failJob(client, job, errorCode, err.Error(), retries)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if h.redis != nil && !input.Refresh {
		var cached models.DashboardStats
		hit, err := database.GetJSON(ctx, h.redis, database.DashboardStatsKey, &cached)
		if err != nil {
			h.logger.Warn("cache read failed", map[string]interface{}{"error": err})
		}
		metrics.CacheResult(cacheName, hit)
		if hit {
			return &Output{Stats: cached, CacheHit: true}, nil
		}
	}

	stats, err := h.compute(ctx)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: %v", ErrQueryTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
	}

	if h.redis != nil {
		if err := database.SetJSON(ctx, h.redis, database.DashboardStatsKey, stats, h.config.CacheTTL); err != nil {
			h.logger.Warn("cache write failed", map[string]interface{}{"error": err})
		}
	}

	h.logger.Info("dashboard stats computed", map[string]interface{}{
		"totalDeals":   stats.TotalDeals,
		"pendingDeals": stats.PendingDeals,
		"averageRisk":  stats.AverageRisk,
	})

	return &Output{Stats: *stats, CacheHit: false}, nil
}

// compute aggregates the deal book. The approval rate is approved deals over
// all deals, pending included.
func (h *Handler) compute(ctx context.Context) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{
		RiskDistribution:         map[models.RiskCategory]int{},
		BusinessTypeDistribution: map[string]int{},
		GeneratedAt:              h.now().UTC(),
	}

	var avgRisk float64
	err := h.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'approved'),
			COUNT(*) FILTER (WHERE status = 'rejected'),
			COALESCE(AVG(overall_risk), 0)
		FROM deals`).Scan(&stats.TotalDeals, &stats.PendingDeals, &stats.ApprovedDeals, &stats.RejectedDeals, &avgRisk)
	if err != nil {
		return nil, fmt.Errorf("totals: %w", err)
	}
	stats.AverageRisk = decimal.NewFromFloat(avgRisk).Round(1).InexactFloat64()
	if stats.TotalDeals > 0 {
		stats.ApprovalRate = decimal.NewFromInt(int64(stats.ApprovedDeals)).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(stats.TotalDeals))).
			Round(1).
			InexactFloat64()
	}

	if err := h.distribution(ctx, "risk_category", func(k string, n int) {
		stats.RiskDistribution[models.RiskCategory(k)] = n
	}); err != nil {
		return nil, err
	}
	if err := h.distribution(ctx, "business_type", func(k string, n int) {
		stats.BusinessTypeDistribution[k] = n
	}); err != nil {
		return nil, err
	}
	return stats, nil
}

// distribution counts deals grouped by column, which must be a trusted
// identifier.
func (h *Handler) distribution(ctx context.Context, column string, add func(string, int)) error {
	rows, err := h.db.QueryContext(ctx, `SELECT `+column+`, COUNT(*) FROM deals GROUP BY `+column)
	if err != nil {
		return fmt.Errorf("%s distribution: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("%s distribution: %w", column, err)
		}
		add(key, n)
	}
	return rows.Err()
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string, retries int32) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
		"retries":      retries,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
