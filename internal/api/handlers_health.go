// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package api

import (
	"context"
	"net/http"
	"time"
)

// healthPingTimeout bounds the store ping made by health checks.
const healthPingTimeout = 2 * time.Second

// HealthStatus is the payload of GET /api/v1/health.
type HealthStatus struct {
	Status            string    `json:"status"` // "healthy" or "degraded"
	Version           string    `json:"version"`
	DatabaseConnected bool      `json:"database_connected"`
	CachesReady       bool      `json:"caches_ready"`
	SnapshotVersion   int64     `json:"snapshot_version"`
	LastRebuildAt     time.Time `json:"last_rebuild_at,omitempty"`
	LastRebuildError  string    `json:"last_rebuild_error,omitempty"`
	Uptime            float64   `json:"uptime_seconds"`
}

// Health handles GET /api/v1/health.
// It always answers 200; degradation is reported in the body.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	dbConnected := h.pingStore(r.Context())
	status := h.engine.Status()

	health := HealthStatus{
		Status:            "healthy",
		Version:           h.config.Version,
		DatabaseConnected: dbConnected,
		CachesReady:       status.Ready,
		SnapshotVersion:   status.Version,
		LastRebuildAt:     status.LastRebuildAt,
		LastRebuildError:  status.LastError,
		Uptime:            time.Since(h.startTime).Seconds(),
	}
	if !dbConnected || !status.Ready {
		health.Status = "degraded"
	}

	NewResponseWriter(w, r).Success(health)
}

// HealthLive handles GET /api/v1/health/live.
// Returns 200 while the process is alive, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles GET /api/v1/health/ready.
// Returns 200 once the store answers and a snapshot has been built, 503 otherwise.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if !h.pingStore(r.Context()) {
		rw.ServiceUnavailable("Database not reachable")
		return
	}
	if !h.engine.Status().Ready {
		rw.ServiceUnavailable("Recommendation caches not built yet")
		return
	}

	rw.Success(map[string]interface{}{
		"ready": true,
	})
}

// pingStore reports whether the store answers. A handler built without a
// store treats it as reachable.
func (h *Handler) pingStore(ctx context.Context) bool {
	if h.store == nil {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()
	return h.store.Ping(ctx) == nil
}
