// internal/workers/deals/create-deal-record/handler.go
package createdealrecord

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
	TaskType = "create-deal-record"
)

var (
	ErrDatabaseInsertFailed = errors.New("DATABASE_INSERT_FAILED")
	ErrDuplicateDeal        = errors.New("DUPLICATE_DEAL")
	ErrInvalidInput         = errors.New("INVALID_INPUT")
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
		if errors.Is(err, ErrDatabaseInsertFailed) {
			errorCode = "DATABASE_INSERT_FAILED"
			retries = 3
		} else if errors.Is(err, ErrDuplicateDeal) {
			errorCode = "DUPLICATE_DEAL"
		} else if errors.Is(err, ErrInvalidInput) {
			errorCode = "INVALID_INPUT"
		}
		h.failJob(client, job, errorCode, err.Error(), retries)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	dealID := input.Profile.ID
	if dealID == "" {
		return nil, fmt.Errorf("%w: profile id is required", ErrInvalidInput)
	}
	if input.RiskAssessment.Strategy == "" {
		return nil, fmt.Errorf("%w: risk assessment is required", ErrInvalidInput)
	}

	var exists bool
	err := h.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM deals WHERE id = $1)`, dealID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("%w: duplicate check failed: %v", ErrDatabaseInsertFailed, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: deal %s already exists", ErrDuplicateDeal, dealID)
	}

	profileJSON, err := json.Marshal(input.Profile)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal profile: %v", ErrDatabaseInsertFailed, err)
	}
	riskJSON, err := json.Marshal(input.RiskAssessment)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal risk: %v", ErrDatabaseInsertFailed, err)
	}
	termsJSON, err := json.Marshal(input.DealTerms)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal terms: %v", ErrDatabaseInsertFailed, err)
	}

	proposalID := input.ProposalID
	if proposalID == "" {
		proposalID = models.ProposalIDFor(dealID)
	}
	createdAt := h.now().UTC()
	validUntil := input.ValidUntil
	if validUntil.IsZero() {
		validUntil = createdAt.AddDate(0, 0, 30)
	}

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO deals (
			id, proposal_id, business_name, business_type, industry, strategy,
			overall_risk, risk_category, profile, risk, terms, proposal,
			status, created_at, updated_at, valid_until
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14, $15)`,
		dealID,
		proposalID,
		input.Profile.BusinessName,
		input.Profile.BusinessType,
		input.Profile.Industry,
		input.RiskAssessment.Strategy,
		input.RiskAssessment.OverallRisk,
		string(input.RiskAssessment.Category),
		profileJSON,
		riskJSON,
		termsJSON,
		input.Proposal,
		string(models.DealPending),
		createdAt,
		validUntil,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: deal %s already exists", ErrDuplicateDeal, dealID)
		}
		return nil, fmt.Errorf("%w: insert failed: %v", ErrDatabaseInsertFailed, err)
	}

	// Audit log failures never fail the job.
	auditDetailsJSON, err := json.Marshal(map[string]interface{}{
		"proposalId":   proposalID,
		"strategy":     input.RiskAssessment.Strategy,
		"overallRisk":  input.RiskAssessment.OverallRisk,
		"riskCategory": input.RiskAssessment.Category,
	})
	if err != nil {
		auditDetailsJSON = []byte("{}")
	}
	_, err = h.db.ExecContext(ctx, `
		INSERT INTO audit_log (event_type, resource_type, resource_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		"deal_created",
		"deal",
		dealID,
		auditDetailsJSON,
		createdAt,
	)
	if err != nil {
		h.logger.Warn("audit log insert failed", map[string]interface{}{
			"error":  err,
			"dealId": dealID,
		})
	}

	if h.redis != nil {
		if err := database.Invalidate(ctx, h.redis, database.DashboardStatsKey); err != nil {
			h.logger.Warn("dashboard cache invalidation failed", map[string]interface{}{
				"error": err,
			})
		}
	}

	metrics.DealsCreated.WithLabelValues(string(input.RiskAssessment.Category)).Inc()

	h.logger.Info("deal record created", map[string]interface{}{
		"dealId":       dealID,
		"proposalId":   proposalID,
		"businessName": input.Profile.BusinessName,
		"overallRisk":  input.RiskAssessment.OverallRisk,
	})

	return &Output{
		DealID:     dealID,
		ProposalID: proposalID,
		Status:     models.DealPending,
		CreatedAt:  createdAt.Format(time.RFC3339),
	}, nil
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
	} else {
		h.logger.Info("job completed successfully", map[string]interface{}{
			"jobKey": job.Key,
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
