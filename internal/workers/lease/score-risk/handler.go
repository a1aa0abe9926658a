// internal/workers/lease/score-risk/handler.go
package scorerisk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"equireal-workers/internal/common/logger"
	"equireal-workers/internal/common/metrics"
	"equireal-workers/internal/common/observability"
	"equireal-workers/internal/lease"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"
)

const (
	TaskType = "score-risk"
)

var (
	ErrUnknownStrategy = errors.New("UNKNOWN_STRATEGY")
)

type Handler struct {
	config *Config
	engine *lease.Engine
	obs    *observability.Observability
	logger logger.Logger
}

func NewHandler(config *Config, engine *lease.Engine, obs *observability.Observability, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		engine: engine,
		obs:    obs,
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
		if errors.Is(err, ErrUnknownStrategy) {
			errorCode = "UNKNOWN_STRATEGY"
		}
		h.failJob(client, job, errorCode, err.Error(), 0)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	engine := h.engine
	if input.Strategy != "" && input.Strategy != engine.StrategyName() {
		s, err := lease.Builtin(input.Strategy)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, input.Strategy)
		}
		engine = lease.NewEngine(s)
	}

	_, span := h.obs.StartSpan(ctx, "lease.score_risk",
		attribute.String("strategy", engine.StrategyName()),
		attribute.String("profile.id", input.Profile.ID),
	)
	defer span.End()

	profile := input.Profile.WithDefaults()
	risk := engine.ScoreRisk(profile)

	metrics.RiskScores.WithLabelValues(risk.Strategy).Observe(risk.OverallRisk)
	h.obs.RecordRiskScore(ctx, risk.Strategy, risk.OverallRisk)
	span.SetAttributes(attribute.Float64("risk.overall", risk.OverallRisk))

	h.logger.Info("risk scored", map[string]interface{}{
		"profileId":    profile.ID,
		"strategy":     risk.Strategy,
		"overallRisk":  risk.OverallRisk,
		"riskCategory": risk.Category,
		"factors":      len(risk.Factors),
	})

	return &Output{
		RiskAssessment: risk,
		OverallRisk:    risk.OverallRisk,
		RiskCategory:   risk.Category,
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
