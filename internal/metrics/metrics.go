package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AuditRecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "project_tracker_audit_records_total",
		Help: "Audit records written, by action type",
	}, []string{"action"})

	AuditRecordsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "project_tracker_audit_records_failed_total",
		Help: "Audit writes rejected by the audit store",
	})

	AuditPayloadFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "project_tracker_audit_payload_fallbacks_total",
		Help: "Audit payloads replaced by the minimal fallback payload",
	})

	AuditNotificationsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "project_tracker_audit_notifications_failed_total",
		Help: "Audit notifications that could not be delivered",
	})

	AuditRecordsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "project_tracker_audit_records_deleted_total",
		Help: "Audit records removed by retention cleanup",
	})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "project_tracker_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
