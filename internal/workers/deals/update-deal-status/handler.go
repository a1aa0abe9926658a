// internal/workers/deals/update-deal-status/handler.go
package updatedealstatus

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
	TaskType = "update-deal-status"
)

var (
	ErrDealNotFound            = errors.New("DEAL_NOT_FOUND")
	ErrInvalidStatusTransition = errors.New("INVALID_STATUS_TRANSITION")
	ErrQueryExecutionFailed    = errors.New("QUERY_EXECUTION_FAILED")
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
		switch {
		case errors.Is(err, ErrDealNotFound):
			errorCode = "DEAL_NOT_FOUND"
		case errors.Is(err, ErrInvalidStatusTransition):
			errorCode = "INVALID_STATUS_TRANSITION"
		case errors.Is(err, ErrQueryExecutionFailed):
			errorCode = "QUERY_EXECUTION_FAILED"
			retries = 3
		}
		h.failJob(client, job, errorCode, err.Error(), retries)
		return
	}

	h.completeJob(client, job, output)
}

// execute moves a pending deal to approved or rejected. The status guard is
// part of the UPDATE so two concurrent decisions cannot both succeed.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if !models.DealPending.CanTransition(input.Status) {
		return nil, fmt.Errorf("%w: %q is not a decision", ErrInvalidStatusTransition, input.Status)
	}

	updatedAt := h.now().UTC()
	var (
		proposalID, businessName   string
		contactEmail, contactPhone sql.NullString
	)
	err := h.db.QueryRowContext(ctx, `
		UPDATE deals
		SET status = $2,
		    updated_at = $3,
		    approved_at = CASE WHEN $2 = 'approved' THEN $3 ELSE approved_at END,
		    rejected_at = CASE WHEN $2 = 'rejected' THEN $3 ELSE rejected_at END
		WHERE id = $1 AND status = 'pending'
		RETURNING proposal_id, business_name, profile->>'contact_email', profile->>'contact_phone'`,
		input.DealID, string(input.Status), updatedAt,
	).Scan(&proposalID, &businessName, &contactEmail, &contactPhone)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, h.explainNoUpdate(ctx, input)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: update failed: %v", ErrQueryExecutionFailed, err)
	}

	auditDetailsJSON, err := json.Marshal(map[string]interface{}{
		"from":   models.DealPending,
		"to":     input.Status,
		"reason": input.Reason,
	})
	if err != nil {
		auditDetailsJSON = []byte("{}")
	}
	_, err = h.db.ExecContext(ctx, `
		INSERT INTO audit_log (event_type, resource_type, resource_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		"deal_"+string(input.Status),
		"deal",
		input.DealID,
		auditDetailsJSON,
		updatedAt,
	)
	if err != nil {
		h.logger.Warn("audit log insert failed", map[string]interface{}{
			"error":  err,
			"dealId": input.DealID,
		})
	}

	if h.redis != nil {
		if err := database.Invalidate(ctx, h.redis, database.DealKey(input.DealID), database.DashboardStatsKey); err != nil {
			h.logger.Warn("cache invalidation failed", map[string]interface{}{
				"error":  err,
				"dealId": input.DealID,
			})
		}
	}

	metrics.DealDecisions.WithLabelValues(string(input.Status)).Inc()

	h.logger.Info("deal status updated", map[string]interface{}{
		"dealId": input.DealID,
		"status": input.Status,
	})

	return &Output{
		DealID:         input.DealID,
		ProposalID:     proposalID,
		BusinessName:   businessName,
		PreviousStatus: models.DealPending,
		Status:         input.Status,
		UpdatedAt:      updatedAt.Format(time.RFC3339),
		ContactEmail:   contactEmail.String,
		ContactPhone:   contactPhone.String,
	}, nil
}

// explainNoUpdate tells a missing deal apart from one already decided.
func (h *Handler) explainNoUpdate(ctx context.Context, input *Input) error {
	var current string
	err := h.db.QueryRowContext(ctx, `SELECT status FROM deals WHERE id = $1`, input.DealID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrDealNotFound, input.DealID)
	}
	if err != nil {
		return fmt.Errorf("%w: status lookup failed: %v", ErrQueryExecutionFailed, err)
	}
	return fmt.Errorf("%w: deal %s is %s, cannot become %s", ErrInvalidStatusTransition, input.DealID, current, input.Status)
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
