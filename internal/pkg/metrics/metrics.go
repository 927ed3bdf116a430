// Package metrics provides Prometheus metrics for the compliance engine
// (RED + audit pipeline). Scrapeable at /metrics; dashboards and alerts
// rely on these names.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "auditops"

var (
	// HTTPRequestTotal counts requests by method, path, status (RED: rate).
	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by method, path, and status.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDurationSeconds is request latency histogram (RED: duration).
	HTTPRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2.5, 10), // 1ms to ~9.3s
		},
		[]string{"method", "path"},
	)

	// AuditsStartedTotal counts audit orchestrations begun.
	AuditsStartedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audits_started_total",
			Help:      "Total number of audit orchestrations started.",
		},
	)

	// AuditsFinishedTotal counts audits by terminal status.
	AuditsFinishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audits_finished_total",
			Help:      "Total number of audits reaching a terminal status.",
		},
		[]string{"status"},
	)

	// AuditDurationSeconds is full-audit latency, catalog iteration included.
	AuditDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "audit_duration_seconds",
			Help:      "Audit orchestration duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s to ~4.3min
		},
	)

	// ChecksTotal counts individual check outcomes by evidence status.
	ChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checks_total",
			Help:      "Total number of compliance check executions by outcome.",
		},
		[]string{"status"},
	)

	// WebhookRejectionsTotal counts inbound webhooks dropped for a bad signature.
	WebhookRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_rejections_total",
			Help:      "Total number of webhook deliveries rejected for an invalid signature.",
		},
	)

	// DBQueryDurationSeconds is storage latency on the audit pipeline paths.
	DBQueryDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_query_duration_seconds",
			Help:      "Database query duration in seconds by operation.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2.5, 10), // 0.5ms to ~1.9s
		},
		[]string{"operation"},
	)

	// WorkerQueueDepth is the current number of audits waiting for a worker.
	WorkerQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "worker_queue_depth",
			Help:      "Number of audits queued and not yet picked up by a worker.",
		},
	)
)
