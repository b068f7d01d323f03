// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/shelfmark/internal/logging"
	"github.com/tomtom215/shelfmark/internal/models"
	"github.com/tomtom215/shelfmark/internal/recommend"
)

const (
	// noRecommendationsMessage accompanies an empty list. An empty list is
	// a valid answer, not an error.
	noRecommendationsMessage = "No recommendations available"

	responseTypeHybrid = "hybrid"
)

// UserRecommendationsResponse is the data payload of the user endpoint.
type UserRecommendationsResponse struct {
	UserID          int                     `json:"user_id"`
	Type            string                  `json:"type"`
	Count           int                     `json:"count"`
	Recommendations []models.Recommendation `json:"recommendations"`
	Message         string                  `json:"message,omitempty"`
}

// SimilarBooksResponse is the data payload of the similar-books endpoint.
type SimilarBooksResponse struct {
	BookID       int                     `json:"book_id"`
	Count        int                     `json:"count"`
	SimilarBooks []models.Recommendation `json:"similar_books"`
	Message      string                  `json:"message,omitempty"`
}

// RebuildResponse is the data payload of the rebuild endpoint.
type RebuildResponse struct {
	State  string            `json:"state"`
	Status *recommend.Status `json:"status,omitempty"`
}

// UserRecommendations handles GET /api/v1/recommendations/user/{userID}?k=5
func (h *Handler) UserRecommendations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	req, ok := h.parseListRequest(rw, r, "userID")
	if !ok {
		return
	}

	recs, err := h.engine.Recommend(r.Context(), req.ID, req.K)
	if err != nil {
		h.engineError(rw, err)
		return
	}

	resp := UserRecommendationsResponse{
		UserID:          req.ID,
		Type:            responseTypeHybrid,
		Count:           len(recs),
		Recommendations: responseList(recs),
	}
	if len(recs) == 0 {
		resp.Message = noRecommendationsMessage
	}
	rw.Success(resp)
}

// SimilarBooks handles GET /api/v1/recommendations/similar/{itemID}?k=5
func (h *Handler) SimilarBooks(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	req, ok := h.parseListRequest(rw, r, "itemID")
	if !ok {
		return
	}

	recs, err := h.engine.SimilarTo(r.Context(), req.ID, req.K)
	if err != nil {
		h.engineError(rw, err)
		return
	}

	resp := SimilarBooksResponse{
		BookID:       req.ID,
		Count:        len(recs),
		SimilarBooks: responseList(recs),
	}
	if len(recs) == 0 {
		resp.Message = noRecommendationsMessage
	}
	rw.Success(resp)
}

// RebuildCaches handles POST /api/v1/recommendations/rebuild.
//
// By default the rebuild runs in the background and the response is 202.
// With ?wait=true the request blocks until the rebuild finishes and returns
// the new status. Concurrent triggers share one rebuild.
func (h *Handler) RebuildCaches(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if queryBool(r, "wait") {
		ctx, cancel := context.WithTimeout(r.Context(), h.config.RebuildTimeout)
		defer cancel()

		if err := h.engine.RebuildCaches(ctx); err != nil {
			logging.CtxErr(r.Context(), err).Msg("Requested cache rebuild failed")
			rw.Error(http.StatusInternalServerError, ErrCodeRebuildFailed, "Cache rebuild failed; previous caches remain active")
			return
		}
		status := h.engine.Status()
		rw.Success(RebuildResponse{State: "completed", Status: &status})
		return
	}

	// The rebuild outlives the request but keeps its request id for logs.
	ctx := context.WithoutCancel(r.Context())
	go func() {
		ctx, cancel := context.WithTimeout(ctx, h.config.RebuildTimeout)
		defer cancel()

		start := time.Now()
		if err := h.engine.RebuildCaches(ctx); err != nil {
			logging.CtxErr(ctx, err).Msg("Background cache rebuild failed")
			return
		}
		logging.CtxInfo(ctx).Dur("duration", time.Since(start)).Msg("Background cache rebuild completed")
	}()

	rw.Accepted(RebuildResponse{State: "started"})
}

// Status handles GET /api/v1/recommendations/status
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.engine.Status())
}

// parseListRequest reads the path id and k, applying the configured default
// and maximum for k. On failure the 400 has already been written.
func (h *Handler) parseListRequest(rw *ResponseWriter, r *http.Request, idParam string) (listRequest, bool) {
	id, err := pathInt(r, idParam)
	if err != nil {
		rw.BadRequest(err.Error())
		return listRequest{}, false
	}
	k, err := queryInt(r, "k", h.config.DefaultK)
	if err != nil {
		rw.BadRequest(err.Error())
		return listRequest{}, false
	}

	req := listRequest{ID: id, K: k}
	if !validateRequest(rw, &req) {
		return listRequest{}, false
	}
	if req.K > h.config.MaxK {
		rw.ValidationError(fmt.Sprintf("k must be at most %d", h.config.MaxK), map[string]interface{}{
			"field": "k",
			"tag":   "max",
			"value": req.K,
		})
		return listRequest{}, false
	}
	return req, true
}

func (h *Handler) engineError(rw *ResponseWriter, err error) {
	if errors.Is(err, recommend.ErrInvalidArgument) {
		rw.ValidationError(err.Error(), nil)
		return
	}
	rw.InternalError("Failed to generate recommendations", err)
}

// responseList copies recs with scores rounded to two decimals. Empty lists
// serialise as [] rather than null.
func responseList(recs []models.Recommendation) []models.Recommendation {
	out := make([]models.Recommendation, len(recs))
	for i, rec := range recs {
		rec.Score = models.RoundScore(rec.Score)
		out[i] = rec
	}
	return out
}
