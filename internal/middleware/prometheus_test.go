// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/shelfmark/internal/metrics"
)

func chiAdapter(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

func TestPrometheusMetrics_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(chiAdapter(PrometheusMetrics))
	r.Get("/books/{itemID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	counter := metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, "/books/{itemID}", "418")
	before := testutil.ToFloat64(counter)

	for _, path := range []string{"/books/1", "/books/2", "/books/3"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusTeapot {
			t.Fatalf("status = %d, want 418", rec.Code)
		}
	}

	if got := testutil.ToFloat64(counter) - before; got != 3 {
		t.Errorf("api_requests_total delta = %v, want 3", got)
	}
}

func TestPrometheusMetrics_Unmatched(t *testing.T) {
	handler := PrometheusMetrics(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	counter := metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, unmatchedEndpoint, "404")
	before := testutil.ToFloat64(counter)

	handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/no/such/path", nil))

	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("unmatched delta = %v, want 1", got)
	}
}

func TestPrometheusMetrics_ActiveRequests(t *testing.T) {
	before := testutil.ToFloat64(metrics.APIActiveRequests)

	var during float64
	handler := PrometheusMetrics(func(w http.ResponseWriter, _ *http.Request) {
		during = testutil.ToFloat64(metrics.APIActiveRequests)
		w.WriteHeader(http.StatusOK)
	})
	handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if during != before+1 {
		t.Errorf("active during request = %v, want %v", during, before+1)
	}
	if after := testutil.ToFloat64(metrics.APIActiveRequests); after != before {
		t.Errorf("active after request = %v, want %v", after, before)
	}
}

func TestMetricsResponseWriter(t *testing.T) {
	tests := []struct {
		name  string
		write func(w http.ResponseWriter)
		want  int
	}{
		{"explicit status", func(w http.ResponseWriter) { w.WriteHeader(http.StatusCreated) }, http.StatusCreated},
		{"default status", func(w http.ResponseWriter) { _, _ = w.Write([]byte("ok")) }, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			rw := &metricsResponseWriter{ResponseWriter: rec, statusCode: http.StatusOK}
			tt.write(rw)
			if rw.statusCode != tt.want {
				t.Errorf("statusCode = %d, want %d", rw.statusCode, tt.want)
			}
			if rec.Code != tt.want {
				t.Errorf("recorder code = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
