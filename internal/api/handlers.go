// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package api

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfmark/internal/events"
	"github.com/tomtom215/shelfmark/internal/models"
	"github.com/tomtom215/shelfmark/internal/recommend"
)

// Recommender is the part of recommend.Engine the handlers use.
type Recommender interface {
	Recommend(ctx context.Context, userID, k int) ([]models.Recommendation, error)
	SimilarTo(ctx context.Context, itemID, k int) ([]models.Recommendation, error)
	RebuildCaches(ctx context.Context) error
	Status() recommend.Status
}

// Pinger reports store reachability for readiness checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// EventPublisher accepts change notifications from the CRUD layer.
type EventPublisher interface {
	PublishCatalogChanged(ctx context.Context, ev events.CatalogChanged) error
	PublishInteractionRecorded(ctx context.Context, ev events.InteractionRecorded) error
}

// HandlerConfig carries the request limits enforced at the HTTP boundary.
type HandlerConfig struct {
	DefaultK       int
	MaxK           int
	RebuildTimeout time.Duration
	Version        string
}

// Handler serves the recommendation read surface.
type Handler struct {
	engine    Recommender
	store     Pinger
	publisher EventPublisher // optional; event ingestion routes are not mounted when nil
	config    HandlerConfig
	logger    zerolog.Logger
	startTime time.Time
}

// NewHandler creates a handler. store and publisher may be nil.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewHandler(cfg HandlerConfig, engine Recommender, store Pinger, publisher EventPublisher, logger zerolog.Logger) (*Handler, error) {
	if engine == nil {
		return nil, fmt.Errorf("recommender is required")
	}
	if cfg.DefaultK < 0 {
		return nil, fmt.Errorf("default k must be non-negative, got %d", cfg.DefaultK)
	}
	if cfg.MaxK < cfg.DefaultK {
		return nil, fmt.Errorf("max k (%d) must be at least default k (%d)", cfg.MaxK, cfg.DefaultK)
	}
	if cfg.RebuildTimeout <= 0 {
		cfg.RebuildTimeout = 10 * time.Minute
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	return &Handler{
		engine:    engine,
		store:     store,
		publisher: publisher,
		config:    cfg,
		logger:    logger.With().Str("component", "api").Logger(),
		startTime: time.Now(),
	}, nil
}
