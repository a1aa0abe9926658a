// internal/workers/lease/generate-deal-terms/handler.go
package generatedealterms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"equireal-workers/internal/common/logger"
	"equireal-workers/internal/lease"
	"equireal-workers/internal/lease/document"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/shopspring/decimal"
)

const (
	TaskType = "generate-deal-terms"
)

var (
	ErrMissingRiskAssessment = errors.New("MISSING_RISK_ASSESSMENT")
)

type Handler struct {
	config *Config
	engine *lease.Engine
	logger logger.Logger
}

func NewHandler(config *Config, engine *lease.Engine, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		engine: engine,
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
		if errors.Is(err, ErrMissingRiskAssessment) {
			errorCode = "MISSING_RISK_ASSESSMENT"
		}
		h.failJob(client, job, errorCode, err.Error(), 0)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.RiskAssessment.Strategy == "" {
		return nil, fmt.Errorf("%w: score the profile before generating terms", ErrMissingRiskAssessment)
	}

	profile := input.Profile.WithDefaults()
	terms := h.engine.GenerateTerms(profile, input.RiskAssessment)

	discount := decimal.Zero
	if terms.MonthlyMarketRent > 0 {
		discount = decimal.NewFromFloat(terms.DeferredAmount).
			Div(decimal.NewFromFloat(terms.MonthlyMarketRent)).
			Mul(decimal.NewFromInt(100)).
			Round(1)
	}

	h.logger.Info("deal terms generated", map[string]interface{}{
		"profileId":           profile.ID,
		"riskScore":           terms.RiskScore,
		"upfrontRentPercent":  terms.UpfrontRentPercent,
		"equityPercent":       terms.EquityPercent,
		"revenueSharePercent": terms.RevenueSharePercent,
		"monthlyRent":         terms.MonthlyRent,
	})

	return &Output{
		DealTerms:       terms,
		LandlordReturn:  document.LandlordReturnFor(profile, terms),
		DiscountPercent: discount.InexactFloat64(),
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
