// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	io_prometheus_client "github.com/prometheus/client_model/go"
)

// getCounterValue extracts the value from a Prometheus counter
func getCounterValue(counter prometheus.Counter) float64 {
	var m io_prometheus_client.Metric
	if err := counter.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

// getGaugeValue extracts the value from a Prometheus gauge
func getGaugeValue(gauge prometheus.Gauge) float64 {
	var m io_prometheus_client.Metric
	if err := gauge.Write(&m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}

// TestRecordDBQuery tests database query metric recording
func TestRecordDBQuery(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		table     string
		duration  time.Duration
		err       error
		wantError string
	}{
		{
			name:      "successful select",
			operation: "select",
			table:     "books",
			duration:  10 * time.Millisecond,
		},
		{
			name:      "failed query with short error",
			operation: "select",
			table:     "purchases",
			duration:  100 * time.Millisecond,
			err:       errors.New("connection refused"),
			wantError: "connection refused",
		},
		{
			name:      "failed query with long error - should truncate to 50 chars",
			operation: "select",
			table:     "user_interactions",
			duration:  50 * time.Millisecond,
			err:       errors.New("this is a very long error message that exceeds fifty characters and should be truncated properly"),
			wantError: "this is a very long error message that exceeds fif",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			RecordDBQuery(tt.operation, tt.table, tt.duration, tt.err)
			if tt.wantError == "" {
				return
			}
			got := testutil.ToFloat64(DBQueryErrors.WithLabelValues(tt.operation, tt.table, tt.wantError))
			if got < 1 {
				t.Errorf("error counter for %q = %v, want >= 1", tt.wantError, got)
			}
		})
	}
}

func TestRecordRecommendation(t *testing.T) {
	before := testutil.ToFloat64(RecommendRequests.WithLabelValues("user", "ok"))
	RecordRecommendation("user", "ok", 3*time.Millisecond)
	after := testutil.ToFloat64(RecommendRequests.WithLabelValues("user", "ok"))
	if after != before+1 {
		t.Errorf("recommend_requests_total = %v, want %v", after, before+1)
	}
}

func TestRecordBackfill(t *testing.T) {
	before := getCounterValue(RecommendBackfilled)
	RecordBackfill(0)
	RecordBackfill(3)
	if got := getCounterValue(RecommendBackfilled); got != before+3 {
		t.Errorf("backfilled = %v, want %v", got, before+3)
	}
}

func TestRecordCacheLookup(t *testing.T) {
	hits, misses := getCounterValue(ResponseCacheHits), getCounterValue(ResponseCacheMisses)
	RecordCacheLookup(true)
	RecordCacheLookup(false)
	RecordCacheLookup(false)
	if got := getCounterValue(ResponseCacheHits); got != hits+1 {
		t.Errorf("hits = %v, want %v", got, hits+1)
	}
	if got := getCounterValue(ResponseCacheMisses); got != misses+2 {
		t.Errorf("misses = %v, want %v", got, misses+2)
	}
}

func TestRecordRebuild(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		outcome string
	}{
		{"success", nil, "success"},
		{"failure", errors.New("store unavailable"), "failure"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(RebuildTotal.WithLabelValues(tt.outcome))
			RecordRebuild(time.Second, tt.err)
			if got := testutil.ToFloat64(RebuildTotal.WithLabelValues(tt.outcome)); got != before+1 {
				t.Errorf("rebuilds{%s} = %v, want %v", tt.outcome, got, before+1)
			}
		})
	}
}

func TestRecordSnapshot(t *testing.T) {
	RecordSnapshot(7, 120, 900, 35, 40)

	if got := getGaugeValue(SnapshotVersion); got != 7 {
		t.Errorf("snapshot version = %v, want 7", got)
	}
	tests := map[string]float64{"items": 120, "vocabulary": 900, "rules": 35, "transactions": 40}
	for component, want := range tests {
		if got := getGaugeValue(SnapshotItems.WithLabelValues(component)); got != want {
			t.Errorf("snapshot %s = %v, want %v", component, got, want)
		}
	}
}

func TestRecordCircuitBreakerTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     float64
	}{
		{"closed", "open", 2},
		{"open", "half-open", 1},
		{"half-open", "closed", 0},
	}
	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			RecordCircuitBreakerTransition("embedding", tt.from, tt.to)
			if got := getGaugeValue(CircuitBreakerState.WithLabelValues("embedding")); got != tt.want {
				t.Errorf("state = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecordEventMetrics(t *testing.T) {
	before := testutil.ToFloat64(EventsPublished.WithLabelValues("catalog.changed", "failed"))
	RecordEventPublished("catalog.changed", errors.New("broker down"))
	RecordEventPublished("catalog.changed", nil)
	if got := testutil.ToFloat64(EventsPublished.WithLabelValues("catalog.changed", "failed")); got != before+1 {
		t.Errorf("failed publishes = %v, want %v", got, before+1)
	}

	RecordEventConsumed("interaction.recorded", "processed")
	if got := testutil.ToFloat64(EventsConsumed.WithLabelValues("interaction.recorded", "processed")); got < 1 {
		t.Errorf("consumed = %v, want >= 1", got)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := getGaugeValue(APIActiveRequests)
	TrackActiveRequest(true)
	if got := getGaugeValue(APIActiveRequests); got != before+1 {
		t.Errorf("active = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
	if got := getGaugeValue(APIActiveRequests); got != before {
		t.Errorf("active = %v, want %v", got, before)
	}
}

// TestMetricGathering tests that metrics can be gathered using testutil
func TestMetricGathering(t *testing.T) {
	RecordDBQuery("select", "books", time.Millisecond, nil)
	RecordAPIRequest("GET", "/api/v1/recommendations/user/{userID}", "200", time.Millisecond)
	RecordEmbedding("success", time.Millisecond)
	RecordEmbeddingCache(true)

	problems, err := testutil.GatherAndLint(prometheus.DefaultGatherer)
	if err != nil {
		t.Logf("Lint errors (may be expected): %v", err)
	}
	for _, p := range problems {
		t.Logf("Metric lint problem: %s", p.Text)
	}
}
