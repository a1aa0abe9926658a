// internal/common/camunda/camunda_test.go
package camunda

import (
	"context"
	"errors"
	"testing"
	"time"

	"equireal-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Retry
// ==========================

func newRetryClient(maxRetries int) *Client {
	return &Client{config: &ClientConfig{RetryConfig: &RetryConfig{
		MaxRetries: maxRetries,
		BaseDelay:  time.Millisecond,
		MaxDelay:   2 * time.Millisecond,
	}}}
}

func TestExecuteWithRetry_RecoversFromTransientError(t *testing.T) {
	c := newRetryClient(3)
	calls := 0
	result, err := c.ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("rpc error: code = Unavailable")
		}
		return "ok", nil
	}, "topology")

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
}

func TestExecuteWithRetry_PermanentErrorIsNotRetried(t *testing.T) {
	c := newRetryClient(3)
	calls := 0
	_, err := c.ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
		calls++
		return nil, errors.New("process definition not found")
	}, "create-instance")

	assert.Equal(t, 1, calls)
	assert.True(t, errors.Is(err, ErrBrokerRejected))
}

func TestExecuteWithRetry_ExhaustsRetries(t *testing.T) {
	c := newRetryClient(2)
	calls := 0
	_, err := c.ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
		calls++
		return nil, errors.New("context deadline exceeded")
	}, "topology")

	assert.Equal(t, 3, calls)
	assert.True(t, errors.Is(err, ErrBrokerTimeout))
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestExecuteWithRetry_Cancelled(t *testing.T) {
	c := &Client{config: &ClientConfig{RetryConfig: &RetryConfig{
		MaxRetries: 5, BaseDelay: time.Hour, MaxDelay: time.Hour,
	}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ExecuteWithRetry(ctx, func(context.Context) (interface{}, error) {
		return nil, errors.New("connection refused")
	}, "topology")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestIsRetryableZeebeError(t *testing.T) {
	tests := map[string]bool{
		"dial tcp: connection refused":                                true,
		"transport is closing: broken pipe":                           true,
		"rpc error: code = DeadlineExceeded desc = deadline exceeded": true,
		"NOT_FOUND: job 42 not found":                                 false,
		"INVALID_ARGUMENT: bad variables":                             false,
	}
	for msg, want := range tests {
		assert.Equal(t, want, isRetryableZeebeError(errors.New(msg)), msg)
	}
}

// ==========================
// Instrumentation
// ==========================

type fakeJobClient struct {
	worker.JobClient
	thrown int
	failed int
}

func (f *fakeJobClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	f.thrown++
	return nil
}

func (f *fakeJobClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	f.failed++
	return nil
}

func TestInstrument_RecordsOutcome(t *testing.T) {
	const taskType = "instrument-test"

	throwing := Instrument(taskType, func(client worker.JobClient, job entities.Job) {
		client.NewThrowErrorCommand()
	}, nil)
	fc := &fakeJobClient{}
	throwing(fc, entities.Job{})
	assert.Equal(t, 1, fc.thrown)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WorkerJobsFailed.WithLabelValues(taskType, OutcomeBPMNError)))

	quiet := Instrument(taskType, func(worker.JobClient, entities.Job) {}, nil)
	quiet(&fakeJobClient{}, entities.Job{})
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WorkerJobsCompleted.WithLabelValues(taskType)))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.WorkerJobsActive.WithLabelValues(taskType)))
}
