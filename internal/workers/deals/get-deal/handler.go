// internal/workers/deals/get-deal/handler.go
package getdeal

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
)

const (
	TaskType = "get-deal"

	cacheName = "deal"
)

var (
	ErrDealNotFound         = errors.New("DEAL_NOT_FOUND")
	ErrQueryExecutionFailed = errors.New("QUERY_EXECUTION_FAILED")
	ErrInvalidInput         = errors.New("INVALID_INPUT")
)

// DealColumns is the column list ScanDeal expects, in order.
const DealColumns = `id, proposal_id, strategy, status, profile, risk, terms, proposal,
	created_at, updated_at, approved_at, rejected_at, valid_until`

type Handler struct {
	config *Config
	db     *sql.DB
	redis  redis.Cmdable
	logger logger.Logger
}

func NewHandler(config *Config, db *sql.DB, rdb redis.Cmdable, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
		redis:  rdb,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
		switch {
		case errors.Is(err, ErrDealNotFound):
			errorCode = "DEAL_NOT_FOUND"
		case errors.Is(err, ErrQueryExecutionFailed):
			errorCode = "QUERY_EXECUTION_FAILED"
			retries = 3
		case errors.Is(err, ErrInvalidInput):
			errorCode = "INVALID_INPUT"
		}
		h.failJob(client, job, errorCode, err.Error(), retries)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.DealID == "" {
		return nil, fmt.Errorf("%w: dealId is required", ErrInvalidInput)
	}
	key := database.DealKey(input.DealID)

	if h.redis != nil && !input.SkipCache {
		var cached models.Deal
		hit, err := database.GetJSON(ctx, h.redis, key, &cached)
		if err != nil {
			h.logger.Warn("cache read failed", map[string]interface{}{
				"error": err,
				"key":   key,
			})
		}
		metrics.CacheResult(cacheName, hit)
		if hit {
			h.logger.Debug("deal served from cache", map[string]interface{}{"dealId": input.DealID})
			return &Output{Deal: cached, CacheHit: true}, nil
		}
	}

	row := h.db.QueryRowContext(ctx, `SELECT `+DealColumns+` FROM deals WHERE id = $1`, input.DealID)
	deal, err := ScanDeal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrDealNotFound, input.DealID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
	}

	if h.redis != nil {
		if err := database.SetJSON(ctx, h.redis, key, deal, h.config.CacheTTL); err != nil {
			h.logger.Warn("cache write failed", map[string]interface{}{
				"error": err,
				"key":   key,
			})
		}
	}

	return &Output{Deal: *deal, CacheHit: false}, nil
}

// ListUpdatedSince returns deals touched at or after since, newest first.
func (h *Handler) ListUpdatedSince(ctx context.Context, since time.Time, limit int) ([]models.Deal, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT `+DealColumns+`
		FROM deals
		WHERE updated_at >= $1
		ORDER BY updated_at DESC
		LIMIT $2`, since, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
	}
	defer rows.Close()

	var deals []models.Deal
	for rows.Next() {
		deal, err := ScanDeal(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
		}
		deals = append(deals, *deal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
	}
	return deals, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// ScanDeal reads one row selected with DealColumns.
func ScanDeal(row scanner) (*models.Deal, error) {
	var (
		d                      models.Deal
		status                 string
		profile, risk, terms   []byte
		approvedAt, rejectedAt sql.NullTime
	)
	err := row.Scan(
		&d.ID, &d.ProposalID, &d.Strategy, &status,
		&profile, &risk, &terms, &d.Proposal,
		&d.CreatedAt, &d.UpdatedAt, &approvedAt, &rejectedAt, &d.ValidUntil,
	)
	if err != nil {
		return nil, err
	}
	d.Status = models.DealStatus(status)
	if err := json.Unmarshal(profile, &d.Profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if err := json.Unmarshal(risk, &d.Risk); err != nil {
		return nil, fmt.Errorf("decode risk: %w", err)
	}
	if err := json.Unmarshal(terms, &d.Terms); err != nil {
		return nil, fmt.Errorf("decode terms: %w", err)
	}
	if approvedAt.Valid {
		d.ApprovedAt = &approvedAt.Time
	}
	if rejectedAt.Valid {
		d.RejectedAt = &rejectedAt.Time
	}
	return &d, nil
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
