// internal/workers/lease/render-documents/handler.go
package renderdocuments

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
)

const (
	TaskType = "render-documents"
)

var (
	ErrDocumentRenderFailed = errors.New("DOCUMENT_RENDER_FAILED")
	ErrMissingDealTerms     = errors.New("MISSING_DEAL_TERMS")
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
		switch {
		case errors.Is(err, ErrMissingDealTerms):
			errorCode = "MISSING_DEAL_TERMS"
		case errors.Is(err, ErrDocumentRenderFailed):
			errorCode = "DOCUMENT_RENDER_FAILED"
		}
		h.failJob(client, job, errorCode, err.Error(), 0)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.DealTerms.MonthlyMarketRent == 0 {
		return nil, fmt.Errorf("%w: generate terms before rendering", ErrMissingDealTerms)
	}

	profile := input.Profile.WithDefaults()
	docs, err := h.engine.RenderDocuments(profile, input.RiskAssessment, input.DealTerms)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDocumentRenderFailed, err)
	}

	output := &Output{
		ProposalID: docs.ProposalID,
		ContractID: docs.ContractID,
		Proposal:   docs.Proposal,
		Contract:   docs.Contract,
		ValidUntil: docs.ValidUntil,
	}

	if input.IncludeHTML {
		if output.ProposalHTML, err = document.ToHTML(docs.Proposal); err != nil {
			return nil, fmt.Errorf("%w: proposal html: %v", ErrDocumentRenderFailed, err)
		}
		if output.ContractHTML, err = document.ToHTML(docs.Contract); err != nil {
			return nil, fmt.Errorf("%w: contract html: %v", ErrDocumentRenderFailed, err)
		}
	}

	h.logger.Info("documents rendered", map[string]interface{}{
		"proposalId":    output.ProposalID,
		"proposalBytes": len(output.Proposal),
		"contractBytes": len(output.Contract),
		"html":          input.IncludeHTML,
	})

	return output, nil
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
