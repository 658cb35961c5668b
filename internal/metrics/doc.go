// Shortlist - Product Selection and Merge Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shortlist

/*
Package metrics exposes Prometheus instrumentation for the selection engine
and its surrounding services.

Metrics are registered with the default registry through promauto and served
at /metrics by the API router:

	curl http://localhost:8080/metrics

Selection Metrics:
  - shortlist_selection_runs_total: runs by category and outcome (counter)
  - shortlist_selection_run_duration_seconds: end-to-end run time (histogram)
  - shortlist_candidate_pool_size: candidates after aggregation (histogram)
  - shortlist_merge_cases_total: merge decisions by case (counter)
  - shortlist_validation_failures_total: checks still failing after repair (counter)
  - shortlist_diversity_repairs_total: diversity substitutions (counter)

Collection Metrics:
  - shortlist_collect_duration_seconds, shortlist_collect_errors_total,
    shortlist_collect_records_total: per-source fetch statistics
  - circuit_breaker_state, circuit_breaker_requests_total,
    circuit_breaker_state_transitions_total: per-source breaker state

Storage and Events:
  - duckdb_query_duration_seconds, duckdb_query_errors_total
  - shortlist_snapshot_operations_total
  - shortlist_events_published_total, shortlist_event_publish_errors_total

API Metrics:
  - api_requests_total, api_request_duration_seconds, api_active_requests,
    api_rate_limit_hits_total
  - shortlist_cache_requests_total: API read cache hits and misses
*/
package metrics
