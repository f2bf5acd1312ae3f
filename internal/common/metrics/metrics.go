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

	MatchesEvaluated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "neighborhood_matches_evaluated_total",
			Help: "Neighborhoods scored across all match batches",
		},
	)

	MatchesReturned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "neighborhood_matches_returned_total",
			Help: "Matches that cleared thresholds and truncation",
		},
	)

	MatchScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "neighborhood_match_score",
			Help:    "Final score of returned matches",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	MatchConfidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "neighborhood_match_confidence",
			Help:    "Confidence of returned matches",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	CatalogFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "catalog_fetch_duration_seconds",
			Help: "Time spent loading the neighborhood catalog",
		},
		[]string{"source"},
	)

	CatalogCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_hits_total",
			Help: "Catalog cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	DigestsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_digests_sent_total",
			Help: "Match digests delivered, by channel and result",
		},
		[]string{"channel", "result"},
	)
)
