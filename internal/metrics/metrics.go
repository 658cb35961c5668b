// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run outcomes recorded by RecordRun.
const (
	OutcomeOK               = "ok"
	OutcomeValidationFailed = "validation_failed"
	OutcomeInsufficient     = "insufficient_candidates"
	OutcomeError            = "error"
)

var (
	// Selection Metrics
	SelectionRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortlist_selection_runs_total",
			Help: "Total number of selection runs by outcome",
		},
		[]string{"category", "outcome"},
	)

	SelectionRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shortlist_selection_run_duration_seconds",
			Help:    "Duration of a full selection run in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"category"},
	)

	SelectionPoolSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shortlist_candidate_pool_size",
			Help:    "Number of candidates after aggregation",
			Buckets: []float64{1, 2, 3, 5, 10, 20, 50, 100},
		},
	)

	MergeCases = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortlist_merge_cases_total",
			Help: "Final merge decisions by case",
		},
		[]string{"category", "merge_case"},
	)

	ValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortlist_validation_failures_total",
			Help: "Failed validation checks after auto-repair",
		},
		[]string{"check"},
	)

	DiversityRepairs = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shortlist_diversity_repairs_total",
			Help: "Slot substitutions made by brand diversity repair",
		},
	)

	// Collection Metrics
	CollectDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shortlist_collect_duration_seconds",
			Help:    "Duration of one source fetch in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	CollectErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortlist_collect_errors_total",
			Help: "Source fetch failures",
		},
		[]string{"source"},
	)

	CollectRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortlist_collect_records_total",
			Help: "Records returned by sources",
		},
		[]string{"source"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Storage Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	SnapshotOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortlist_snapshot_operations_total",
			Help: "Snapshot store operations by result",
		},
		[]string{"operation", "result"},
	)

	// Event Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortlist_events_published_total",
			Help: "Events published by topic",
		},
		[]string{"topic"},
	)

	EventPublishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortlist_event_publish_errors_total",
			Help: "Event publish failures by topic",
		},
		[]string{"topic"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortlist_cache_requests_total",
			Help: "Read cache lookups by cache and result (hit, miss)",
		},
		[]string{"cache", "result"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	SchedulerLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shortlist_scheduler_last_success_timestamp",
			Help: "Unix timestamp of the last successful scheduled run",
		},
	)
)

// RecordRun records the outcome of a selection run.
func RecordRun(category, outcome string, duration time.Duration, poolSize int) {
	SelectionRuns.WithLabelValues(category, outcome).Inc()
	SelectionRunDuration.WithLabelValues(category).Observe(duration.Seconds())
	if poolSize > 0 {
		SelectionPoolSize.Observe(float64(poolSize))
	}
}

// RecordMerge records the merge case and any failing checks of a completed run.
func RecordMerge(category, mergeCase string, failedChecks []string, repairs int) {
	MergeCases.WithLabelValues(category, mergeCase).Inc()
	for _, check := range failedChecks {
		ValidationFailures.WithLabelValues(check).Inc()
	}
	if repairs > 0 {
		DiversityRepairs.Add(float64(repairs))
	}
}

// RecordCollect records one source fetch.
func RecordCollect(source string, duration time.Duration, records int, err error) {
	CollectDuration.WithLabelValues(source).Observe(duration.Seconds())
	if err != nil {
		CollectErrors.WithLabelValues(source).Inc()
		return
	}
	CollectRecords.WithLabelValues(source).Add(float64(records))
}

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordSnapshot records a snapshot store operation.
func RecordSnapshot(operation string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	SnapshotOperations.WithLabelValues(operation, result).Inc()
}

// RecordPublish records an event publish attempt.
func RecordPublish(topic string, err error) {
	if err != nil {
		EventPublishErrors.WithLabelValues(topic).Inc()
		return
	}
	EventsPublished.WithLabelValues(topic).Inc()
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
