package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Worker-side pipeline metrics, labelled by terminal status so failure rates
// are visible without parsing logs.
var (
	JobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "audioscribe",
		Name:      "jobs_processed_total",
		Help:      "Jobs moved to a terminal state, by status.",
	}, []string{"status"})

	ProcessingSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "audioscribe",
		Name:      "job_processing_seconds",
		Help:      "Wall-clock time spent processing one job.",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
	})

	UploadsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "audioscribe",
		Name:      "uploads_accepted_total",
		Help:      "Uploads accepted and enqueued.",
	})

	UploadsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "audioscribe",
		Name:      "uploads_rejected_total",
		Help:      "Uploads rejected before enqueue.",
	})
)
