// internal/workers/lease/validate-business-profile/handler.go
package validatebusinessprofile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"equireal-workers/internal/common/logger"
	"equireal-workers/internal/common/validation"
	"equireal-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "validate-business-profile"
)

var (
	ErrProfileValidationFailed = errors.New("PROFILE_VALIDATION_FAILED")
	ErrInvalidInput            = errors.New("INVALID_INPUT")
)

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
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
		if errors.Is(err, ErrProfileValidationFailed) {
			errorCode = "PROFILE_VALIDATION_FAILED"
		} else if errors.Is(err, ErrInvalidInput) {
			errorCode = "INVALID_INPUT"
		}
		h.failJob(client, job, errorCode, err.Error(), 0)
		return
	}

	h.completeJob(client, job, output)
}

// execute returns the output alongside ErrProfileValidationFailed so callers
// can report the individual field errors.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Profile == nil {
		return nil, fmt.Errorf("%w: profile is required", ErrInvalidInput)
	}

	result, err := validation.Validate(validation.SchemaProfile, input.Profile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !result.Valid {
		h.logger.Info("profile rejected", map[string]interface{}{
			"errorCount": len(result.Errors),
		})
		return &Output{
			IsValid:          false,
			ValidationErrors: result.Errors,
			Warnings:         []string{},
		}, fmt.Errorf("%w: %d validation errors", ErrProfileValidationFailed, len(result.Errors))
	}

	raw, err := json.Marshal(input.Profile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	var profile models.BusinessProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if profile.ID == "" {
		profile.ID = uuid.New().String()
	}
	profile = profile.WithDefaults()

	warnings := validation.EnumWarnings(profile)
	if warnings == nil {
		warnings = []string{}
	}
	for _, w := range warnings {
		h.logger.Warn("profile enum not recognised", map[string]interface{}{
			"profileId": profile.ID,
			"warning":   w,
		})
	}

	h.logger.Info("profile validated", map[string]interface{}{
		"profileId":    profile.ID,
		"businessType": profile.BusinessType,
		"warnings":     len(warnings),
	})

	return &Output{
		IsValid:          true,
		Profile:          profile,
		ValidationErrors: []validation.ValidationError{},
		Warnings:         warnings,
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
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	h.logger.Info("job completed successfully", map[string]interface{}{
		"jobKey": job.Key,
	})
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

// Execute runs validation outside a Zeebe job.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
