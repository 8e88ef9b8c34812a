// internal/common/metrics/metrics.go
package metrics

import (
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

	PredictionsScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictions_scored_total",
			Help: "Total number of churn predictions produced, by risk outcome",
		},
		[]string{"risk"},
	)

	ChurnProbability = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "churn_probability",
			Help:    "Distribution of predicted churn probabilities",
			Buckets: prometheus.LinearBuckets(0.0, 0.1, 11),
		},
	)

	RetentionOffersSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retention_offers_sent_total",
			Help: "Total number of retention offers delivered, by channel",
		},
		[]string{"channel"},
	)
)
