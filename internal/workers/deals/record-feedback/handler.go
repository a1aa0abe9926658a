// internal/workers/deals/record-feedback/handler.go
package recordfeedback

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "equireal-workers/internal/common/errors"
	"equireal-workers/internal/common/logger"
	"equireal-workers/internal/common/validation"
	"equireal-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "record-feedback"
)

var (
	ErrFeedbackValidationFailed = errors.New("FEEDBACK_VALIDATION_FAILED")
	ErrDatabaseInsertFailed     = errors.New("DATABASE_INSERT_FAILED")
)

type Handler struct {
	config *Config
	db     *sql.DB
	logger logger.Logger
	errHandler *apperrors.ErrorHandler
	now    func() time.Time
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		db:     db,
		logger: log,
		errHandler: apperrors.NewErrorHandler(log),
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
		// Insert failures are retried while the job has retries left;
		// validation failures become a BPMN error straight away.
		h.errHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Feedback == nil {
		input.Feedback = map[string]interface{}{}
	}
	result, err := validation.Validate(validation.SchemaFeedback, input.Feedback)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedbackValidationFailed, err)
	}
	if !result.Valid {
		return &Output{ValidationErrors: result.Errors},
			fmt.Errorf("%w: %d validation errors", ErrFeedbackValidationFailed, len(result.Errors))
	}

	raw, err := json.Marshal(input.Feedback)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedbackValidationFailed, err)
	}
	var fb models.Feedback
	if err := json.Unmarshal(raw, &fb); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedbackValidationFailed, err)
	}
	fb.ID = uuid.New().String()
	fb.CreatedAt = h.now().UTC()

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO feedback (
			id, user_type, interest_level, location, email, feedback, pilot_interest, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		fb.ID, fb.UserType, fb.InterestLevel, fb.Location, fb.Email, fb.Feedback, fb.PilotInterest, fb.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: insert failed: %v", ErrDatabaseInsertFailed, err)
	}

	h.logger.Info("feedback recorded", map[string]interface{}{
		"feedbackId":    fb.ID,
		"userType":      fb.UserType,
		"interestLevel": fb.InterestLevel,
		"pilotInterest": fb.PilotInterest,
	})

	return &Output{
		FeedbackID: fb.ID,
		CreatedAt:  fb.CreatedAt.Format(time.RFC3339),
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
