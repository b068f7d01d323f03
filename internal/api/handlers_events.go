// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package api

import (
	"net/http"
	"strings"

	"github.com/tomtom215/shelfmark/internal/events"
	"github.com/tomtom215/shelfmark/internal/models"
)

// RecordInteraction handles POST /api/v1/events/interactions.
//
// The CRUD layer calls this after it has written an interaction row so that
// the user's cached recommendations are evicted. The row itself is not
// written here.
func (h *Handler) RecordInteraction(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req interactionRequest
	if err := decodeBody(w, r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if !validateRequest(rw, &req) {
		return
	}

	ev := events.InteractionRecorded{
		UserID:     req.UserID,
		ItemID:     req.ItemID,
		Action:     models.ActionType(strings.ToLower(req.Action)),
		OccurredAt: req.OccurredAt,
	}
	if err := h.publisher.PublishInteractionRecorded(r.Context(), ev); err != nil {
		h.logger.Warn().Err(err).Int("user_id", req.UserID).Msg("Failed to publish interaction event")
		rw.ServiceUnavailable("Event bus unavailable")
		return
	}

	rw.Accepted(map[string]interface{}{
		"published": events.TopicInteractionRecorded,
	})
}

// CatalogChanged handles POST /api/v1/events/catalog.
// A catalog change schedules a debounced cache rebuild.
func (h *Handler) CatalogChanged(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req catalogChangeRequest
	if err := decodeBody(w, r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if !validateRequest(rw, &req) {
		return
	}

	ev := events.CatalogChanged{
		ItemIDs: req.ItemIDs,
		Reason:  req.Reason,
	}
	if err := h.publisher.PublishCatalogChanged(r.Context(), ev); err != nil {
		h.logger.Warn().Err(err).Int("items", len(req.ItemIDs)).Msg("Failed to publish catalog event")
		rw.ServiceUnavailable("Event bus unavailable")
		return
	}

	rw.Accepted(map[string]interface{}{
		"published": events.TopicCatalogChanged,
	})
}
