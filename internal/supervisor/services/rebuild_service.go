// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Rebuilder rebuilds the engine's derived caches.
type Rebuilder interface {
	RebuildCaches(ctx context.Context) error
}

// RebuildServiceConfig holds the rebuild schedule.
type RebuildServiceConfig struct {
	// RebuildOnStartup builds the first snapshot as soon as the service
	// starts instead of waiting for the first request.
	RebuildOnStartup bool

	// Interval between scheduled rebuilds. Zero or negative disables the
	// schedule.
	Interval time.Duration
}

// RebuildService keeps the engine snapshot fresh. A failed rebuild keeps
// the previous snapshot and is retried on the next tick; it never stops
// the service.
type RebuildService struct {
	engine Rebuilder
	config RebuildServiceConfig
	logger zerolog.Logger
	name   string
}

// NewRebuildService creates a rebuild scheduler for engine.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewRebuildService(engine Rebuilder, cfg RebuildServiceConfig, logger zerolog.Logger) *RebuildService {
	return &RebuildService{
		engine: engine,
		config: cfg,
		logger: logger.With().Str("service", "rebuild").Logger(),
		name:   "rebuild-scheduler",
	}
}

// Serve implements suture.Service.
func (s *RebuildService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("rebuild_on_startup", s.config.RebuildOnStartup).
		Dur("interval", s.config.Interval).
		Msg("Rebuild scheduler starting")

	if s.config.RebuildOnStartup {
		s.rebuild(ctx, "startup")
	}

	if s.config.Interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Rebuild scheduler shutting down")
			return ctx.Err()
		case <-ticker.C:
			s.rebuild(ctx, "scheduled")
		}
	}
}

func (s *RebuildService) rebuild(ctx context.Context, trigger string) {
	start := time.Now()
	if err := s.engine.RebuildCaches(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Warn().Err(err).Str("trigger", trigger).Msg("Snapshot rebuild failed, keeping previous snapshot")
		return
	}
	s.logger.Info().
		Str("trigger", trigger).
		Dur("duration", time.Since(start)).
		Msg("Snapshot rebuilt")
}

// String returns the service name for logging.
func (s *RebuildService) String() string {
	return s.name
}
