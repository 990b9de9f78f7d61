package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	StatusSent   = "sent"
	StatusFailed = "failed"

	ResultInserted = "inserted"
	ResultSkipped  = "skipped"
	ResultFailed   = "failed"
)

var (
	// alert emails by outcome
	AlertNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "job_alert_notifications_total",
			Help: "Job alert emails attempted, by outcome",
		},
		[]string{"status"},
	)

	AlertDispatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "job_alert_dispatch_duration_seconds",
			Help:    "Time spent matching and notifying subscribers for one new job",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
	)

	ExternalJobsSynced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "external_jobs_synced_total",
			Help: "External jobs processed during sync, by source and result",
		},
		[]string{"source", "result"},
	)
)
