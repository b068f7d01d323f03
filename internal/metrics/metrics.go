// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Integration for Production Observability
// This package provides instrumentation for:
// - Store query performance (DuckDB / SQLite)
// - Recommendation latency, fallbacks and stale references
// - Cache rebuilds and snapshot state
// - Dense embedding backend calls
// - API endpoint latency and throughput
// - Event processing

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_query_duration_seconds",
			Help:    "Duration of catalog and interaction store queries in seconds",
			Buckets: prometheus.DefBuckets, // 0.005s, 0.01s, 0.025s, 0.05s, 0.1s, 0.25s, 0.5s, 1s, 2.5s, 5s, 10s
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_query_errors_total",
			Help: "Total number of store query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	DBMissingTables = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_missing_table_total",
			Help: "Queries answered empty because the source table does not exist",
		},
		[]string{"table"},
	)

	// Recommendation Metrics
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_requests_total",
			Help: "Total number of recommendation requests",
		},
		[]string{"kind", "outcome"}, // kind: "user", "similar"; outcome: "ok", "empty", "invalid", "cached"
	)

	RecommendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommend_request_duration_seconds",
			Help:    "Recommendation request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"kind"},
	)

	RecommendSignalSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommend_signal_candidates",
			Help:    "Number of candidates contributed by each signal",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		},
		[]string{"signal"}, // "content", "association", "popularity"
	)

	RecommendDegraded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_degraded_total",
			Help: "Requests where a signal or data source was unavailable",
		},
		[]string{"reason"},
	)

	RecommendBackfilled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommend_backfilled_items_total",
			Help: "Items appended from the popularity ranking to fill short lists",
		},
	)

	RecommendStaleReferences = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommend_stale_references_total",
			Help: "Recommended item ids that no longer resolve in the catalog",
		},
	)

	// Rebuild Metrics
	RebuildTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_rebuilds_total",
			Help: "Total number of cache rebuilds",
		},
		[]string{"outcome"}, // "success", "failure"
	)

	RebuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_rebuild_duration_seconds",
			Help:    "Cache rebuild duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
	)

	SnapshotVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommend_snapshot_version",
			Help: "Version of the active recommendation snapshot",
		},
	)

	SnapshotItems = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "recommend_snapshot_size",
			Help: "Size of the active snapshot by component",
		},
		[]string{"component"}, // "items", "vocabulary", "rules", "transactions"
	)

	ResponseCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommend_cache_hits_total",
			Help: "Total number of response cache hits",
		},
	)

	ResponseCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommend_cache_misses_total",
			Help: "Total number of response cache misses",
		},
	)

	// Embedding Metrics
	EmbeddingRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedding_requests_total",
			Help: "Total number of dense embedding backend calls",
		},
		[]string{"outcome"}, // "success", "failure", "rejected"
	)

	EmbeddingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "embedding_request_duration_seconds",
			Help:    "Dense embedding backend call duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	EmbeddingCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedding_cache_lookups_total",
			Help: "Embedding cache lookups by result",
		},
		[]string{"result"}, // "hit", "miss"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
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
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}, // Optimized for API latency
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

	// Event Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of events published",
		},
		[]string{"topic", "outcome"},
	)

	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_consumed_total",
			Help: "Total number of events consumed",
		},
		[]string{"topic", "outcome"}, // outcome: "processed", "failed", "malformed"
	)

	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_dropped_total",
			Help: "Total number of events dropped because the publish queue was full",
		},
		[]string{"topic"},
	)
)

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordMissingTable records a query short-circuited by an absent table.
func RecordMissingTable(table string) {
	DBMissingTables.WithLabelValues(table).Inc()
}

// RecordRecommendation records a served recommendation request.
func RecordRecommendation(kind, outcome string, duration time.Duration) {
	RecommendRequests.WithLabelValues(kind, outcome).Inc()
	RecommendDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordSignal records the candidate count of one signal.
func RecordSignal(signal string, candidates int) {
	RecommendSignalSize.WithLabelValues(signal).Observe(float64(candidates))
}

// RecordDegraded records a degraded request.
func RecordDegraded(reason string) {
	RecommendDegraded.WithLabelValues(reason).Inc()
}

// RecordBackfill records items added from the popularity ranking.
func RecordBackfill(n int) {
	if n > 0 {
		RecommendBackfilled.Add(float64(n))
	}
}

// RecordStaleReference records an item id that failed to resolve.
func RecordStaleReference() {
	RecommendStaleReferences.Inc()
}

// RecordCacheLookup records a response cache lookup.
func RecordCacheLookup(hit bool) {
	if hit {
		ResponseCacheHits.Inc()
	} else {
		ResponseCacheMisses.Inc()
	}
}

// RecordRebuild records a cache rebuild and, on success, the snapshot shape.
func RecordRebuild(duration time.Duration, err error) {
	RebuildDuration.Observe(duration.Seconds())
	if err != nil {
		RebuildTotal.WithLabelValues("failure").Inc()
		return
	}
	RebuildTotal.WithLabelValues("success").Inc()
}

// RecordSnapshot publishes the size of the active snapshot.
func RecordSnapshot(version int64, items, vocabulary, rules, transactions int) {
	SnapshotVersion.Set(float64(version))
	SnapshotItems.WithLabelValues("items").Set(float64(items))
	SnapshotItems.WithLabelValues("vocabulary").Set(float64(vocabulary))
	SnapshotItems.WithLabelValues("rules").Set(float64(rules))
	SnapshotItems.WithLabelValues("transactions").Set(float64(transactions))
}

// RecordEmbedding records a dense embedding backend call.
func RecordEmbedding(outcome string, duration time.Duration) {
	EmbeddingRequests.WithLabelValues(outcome).Inc()
	if outcome != "rejected" {
		EmbeddingDuration.Observe(duration.Seconds())
	}
}

// RecordEmbeddingCache records an embedding cache lookup.
func RecordEmbeddingCache(hit bool) {
	if hit {
		EmbeddingCacheLookups.WithLabelValues("hit").Inc()
	} else {
		EmbeddingCacheLookups.WithLabelValues("miss").Inc()
	}
}

// RecordCircuitBreakerTransition records a breaker state change.
// States are encoded 0=closed, 1=half-open, 2=open.
func RecordCircuitBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	switch to {
	case "closed":
		CircuitBreakerState.WithLabelValues(name).Set(0)
	case "half-open":
		CircuitBreakerState.WithLabelValues(name).Set(1)
	case "open":
		CircuitBreakerState.WithLabelValues(name).Set(2)
	}
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

// RecordRateLimitHit records a request rejected by the rate limiter.
func RecordRateLimitHit(endpoint string) {
	APIRateLimitHits.WithLabelValues(endpoint).Inc()
}

// RecordEventPublished records an event publish attempt.
func RecordEventPublished(topic string, err error) {
	if err != nil {
		EventsPublished.WithLabelValues(topic, "failed").Inc()
		return
	}
	EventsPublished.WithLabelValues(topic, "ok").Inc()
}

// RecordEventDropped records an event dropped before publishing.
func RecordEventDropped(topic string) {
	EventsDropped.WithLabelValues(topic).Inc()
}

// RecordEventConsumed records the outcome of handling one event.
func RecordEventConsumed(topic, outcome string) {
	EventsConsumed.WithLabelValues(topic, outcome).Inc()
}
