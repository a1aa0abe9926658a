// internal/common/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	RiskScores = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lease_risk_score",
			Help:    "Overall risk scores produced, by strategy",
			Buckets: prometheus.LinearBuckets(10, 10, 9),
		},
		[]string{"strategy"},
	)

	DealsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lease_deals_created_total",
			Help: "Deals persisted, by risk category",
		},
		[]string{"risk_category"},
	)

	DealDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lease_deal_decisions_total",
			Help: "Landlord decisions applied to pending deals",
		},
		[]string{"status"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lease_cache_lookups_total",
			Help: "Redis cache lookups, by cache and result",
		},
		[]string{"cache", "result"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lease_notifications_total",
			Help: "Notifications attempted, by channel and outcome",
		},
		[]string{"channel", "outcome"},
	)

	SchedulerRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lease_scheduler_runs_total",
			Help: "Scheduled maintenance runs, by job and outcome",
		},
		[]string{"job", "outcome"},
	)
)

// JobTimer tracks one in-flight job for a worker.
type JobTimer struct {
	taskType string
	start    time.Time
}

// StartJob marks a job active for taskType.
func StartJob(taskType string) *JobTimer {
	WorkerJobsActive.WithLabelValues(taskType).Inc()
	return &JobTimer{taskType: taskType, start: time.Now()}
}

// Done records the outcome. An empty errorCode counts as a completion.
func (j *JobTimer) Done(errorCode string) {
	WorkerJobsActive.WithLabelValues(j.taskType).Dec()
	WorkerJobDuration.WithLabelValues(j.taskType).Observe(time.Since(j.start).Seconds())
	if errorCode == "" {
		WorkerJobsCompleted.WithLabelValues(j.taskType).Inc()
		return
	}
	WorkerJobsFailed.WithLabelValues(j.taskType, errorCode).Inc()
}

// CacheResult records a hit or a miss for cache.
func CacheResult(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookups.WithLabelValues(cache, result).Inc()
}
