package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChecksTotal tracks health probes per type, provider and outcome
	ChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthwatch_checks_total",
			Help: "Total number of integration health checks",
		},
		[]string{"type", "provider", "result"},
	)

	// CheckDuration tracks probe wall-clock duration
	CheckDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "healthwatch_check_duration_seconds",
			Help:    "Health probe duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"type", "provider", "success"},
	)

	// SweepsTotal tracks scheduling sweeps
	SweepsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "healthwatch_sweeps_total",
			Help: "Total number of scheduling sweeps",
		},
	)

	// SweepSkips tracks integrations skipped during a sweep, by reason
	SweepSkips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthwatch_sweep_skips_total",
			Help: "Integrations skipped during sweeps",
		},
		[]string{"reason"},
	)

	// JobsEnqueued tracks check jobs accepted by the queue
	JobsEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthwatch_jobs_enqueued_total",
			Help: "Check jobs enqueued",
		},
		[]string{"type"},
	)

	// JobsExecuted tracks check jobs executed by the worker
	JobsExecuted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthwatch_jobs_executed_total",
			Help: "Check jobs executed",
		},
		[]string{"type", "result"},
	)

	// QueueDepth tracks the number of scheduled jobs
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "healthwatch_queue_depth",
			Help: "Number of scheduled check jobs",
		},
	)

	// Deactivations tracks integrations deactivated after sustained failure
	Deactivations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthwatch_deactivations_total",
			Help: "Integrations deactivated due to sustained failure",
		},
		[]string{"type", "provider"},
	)

	// AlertsSent tracks alert deliveries
	AlertsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthwatch_alerts_sent_total",
			Help: "Alerts sent to the alerting collaborator",
		},
		[]string{"event", "result"},
	)
)
