package sysinfo

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	capabilityChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nildb_capability_checks_total",
			Help: "Total number of NUC capability verifications, by outcome",
		},
		[]string{"outcome"},
	)

	dataPlaneOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nildb_dataplane_operations_total",
			Help: "Total number of data-plane operations, by kind and outcome",
		},
		[]string{"op", "outcome"},
	)

	dataPlaneOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nildb_dataplane_operation_duration_seconds",
			Help:    "Data-plane operation latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"op"},
	)

	queryRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nildb_query_runs_total",
			Help: "Total number of query runs, by mode and terminal status",
		},
		[]string{"mode", "status"},
	)

	queryRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nildb_query_run_duration_seconds",
			Help:    "Query run latency in seconds, by mode",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 300},
		},
		[]string{"mode"},
	)
)

// RecordCapabilityCheck increments the capability-check counter for the
// given outcome ("granted" or "denied").
func RecordCapabilityCheck(outcome string) {
	capabilityChecksTotal.WithLabelValues(outcome).Inc()
}

// RecordDataPlaneOp records one data-plane operation (upload/update/
// delete/flush/tail/find) with its outcome and duration.
func RecordDataPlaneOp(op, outcome string, duration time.Duration) {
	dataPlaneOpsTotal.WithLabelValues(op, outcome).Inc()
	dataPlaneOpDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordQueryRun records one completed query run (mode is "sync" or
// "background"; status is the terminal QueryRun status).
func RecordQueryRun(mode, status string, duration time.Duration) {
	queryRunsTotal.WithLabelValues(mode, status).Inc()
	queryRunDuration.WithLabelValues(mode).Observe(duration.Seconds())
}
