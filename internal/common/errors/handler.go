// internal/common/errors/handler.go
package errors

import (
	"context"
	"encoding/json"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// ErrorHandler turns a worker error into the matching Zeebe command: a failed
// job while the code is retryable and the job still has retries, otherwise a
// BPMN error the process can catch.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	stdErr := Normalize(err)
	bpmnErr := ConvertToBPMNError(stdErr)

	retries := remainingRetries(bpmnErr, job.Retries)
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":          job.Key,
		"taskType":        job.Type,
		"processInstance": job.ProcessInstanceKey,
		"errorCode":       string(stdErr.Code),
		"category":        GetErrorCategory(stdErr.Code),
		"details":         stdErr.Details,
		"retriesLeft":     retries,
	})

	vars, _ := json.Marshal(bpmnErr.ToErrorVariables())
	if retries > 0 {
		h.failJob(ctx, client, job, bpmnErr, retries, vars)
		return
	}
	h.throwError(ctx, client, job, bpmnErr, vars)
}

// remainingRetries caps the code's retry budget by what the job has left.
// Zero means the error is thrown instead of retried.
func remainingRetries(bpmnErr *BPMNError, jobRetries int32) int32 {
	if !bpmnErr.Retryable || bpmnErr.Retries <= 0 || jobRetries <= 0 {
		return 0
	}
	budget := int32(bpmnErr.Retries)
	if jobRetries-1 < budget {
		return jobRetries - 1
	}
	return budget
}

func (h *ErrorHandler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError, retries int32, vars []byte) {
	cmd := client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(retries).
		ErrorMessage(bpmnErr.Message)

	if withVars, err := cmd.VariablesFromString(string(vars)); err == nil {
		_, err = withVars.Send(ctx)
		h.logSendFailure("fail job", job, err)
		return
	}
	_, err := cmd.Send(ctx)
	h.logSendFailure("fail job", job, err)
}

func (h *ErrorHandler) throwError(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError, vars []byte) {
	cmd := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(bpmnErr.Code).
		ErrorMessage(bpmnErr.Message)

	if withVars, err := cmd.VariablesFromString(string(vars)); err == nil {
		_, err = withVars.Send(ctx)
		h.logSendFailure("throw error", job, err)
		return
	}
	_, err := cmd.Send(ctx)
	h.logSendFailure("throw error", job, err)
}

func (h *ErrorHandler) logSendFailure(command string, job entities.Job, err error) {
	if err == nil {
		return
	}
	h.logger.Error("failed to send "+command+" command", map[string]interface{}{
		"jobKey": job.Key,
		"error":  err,
	})
}
