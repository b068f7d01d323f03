// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered on the default registry through promauto and
exposed at /metrics in Prometheus text format:

	curl http://localhost:8090/metrics

# Available Metrics

Store Metrics:
  - store_query_duration_seconds: Query execution time (histogram)
    Labels: operation, table
  - store_query_errors_total: Failed queries (counter)
  - store_missing_table_total: Queries answered empty for an absent table

Recommendation Metrics:
  - recommend_requests_total: Requests by kind and outcome
  - recommend_request_duration_seconds: Request latency
  - recommend_signal_candidates: Candidates per signal
  - recommend_degraded_total: Requests served with a missing signal
  - recommend_backfilled_items_total, recommend_stale_references_total

Rebuild Metrics:
  - recommend_rebuilds_total, recommend_rebuild_duration_seconds
  - recommend_snapshot_version, recommend_snapshot_size

Embedding Metrics:
  - embedding_requests_total, embedding_request_duration_seconds
  - embedding_cache_lookups_total
  - circuit_breaker_state, circuit_breaker_state_transitions_total

API and Event Metrics:
  - api_requests_total, api_request_duration_seconds, api_active_requests
  - api_rate_limit_hits_total
  - events_published_total, events_consumed_total

# Usage

	start := time.Now()
	rows, err := db.QueryContext(ctx, query)
	metrics.RecordDBQuery("select", "books", time.Since(start), err)

# Thread Safety

All functions are safe for concurrent use; Prometheus collectors are
internally synchronized.
*/
package metrics
