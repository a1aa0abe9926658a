// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"equireal-workers/internal/common/config"
	"equireal-workers/internal/common/logger"
	"equireal-workers/internal/common/metrics"
	"equireal-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// Outcome labels recorded for a finished job.
const (
	OutcomeCompleted = ""
	OutcomeBPMNError = "BPMN_ERROR"
	OutcomeFailed    = "JOB_FAILED"
)

// StartWorker opens a job worker for taskType. A disabled worker is logged
// and nil is returned.
func StartWorker(
	client zbc.Client,
	taskType string,
	wcfg config.WorkerConfig,
	handler worker.JobHandler,
	obs *observability.Observability,
	log logger.Logger,
) worker.JobWorker {
	if !wcfg.Enabled {
		log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return nil
	}

	jw := client.NewJobWorker().
		JobType(taskType).
		Handler(Instrument(taskType, handler, obs)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
	return jw
}

// Instrument wraps handler so every job is timed and its outcome counted,
// both in Prometheus and in the otel meter.
func Instrument(taskType string, handler worker.JobHandler, obs *observability.Observability) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		timer := metrics.StartJob(taskType)
		start := time.Now()
		tc := &trackingClient{JobClient: client}

		handler(tc, job)

		timer.Done(tc.outcome)
		status := "completed"
		if tc.outcome != OutcomeCompleted {
			status = "failed"
		}
		ctx := context.Background()
		obs.RecordJobProcessed(ctx, taskType, status)
		obs.RecordJobDuration(ctx, taskType, time.Since(start), status)
	}
}

// trackingClient notes whether a handler threw or failed its job.
type trackingClient struct {
	worker.JobClient
	outcome string
}

func (c *trackingClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	c.outcome = OutcomeBPMNError
	return c.JobClient.NewThrowErrorCommand()
}

func (c *trackingClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	c.outcome = OutcomeFailed
	return c.JobClient.NewFailJobCommand()
}
