// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfmark/internal/config"
	"github.com/tomtom215/shelfmark/internal/database"
	"github.com/tomtom215/shelfmark/internal/events"
	"github.com/tomtom215/shelfmark/internal/logging"
	"github.com/tomtom215/shelfmark/internal/supervisor"
	"github.com/tomtom215/shelfmark/internal/supervisor/services"
)

// EventComponents holds the event bus pieces shared between the engine,
// the HTTP handlers and the router service.
type EventComponents struct {
	Transport *events.Transport
	Publisher *events.Publisher
}

// Close releases the transport.
func (c *EventComponents) Close() error {
	if c == nil || c.Transport == nil {
		return nil
	}
	return c.Transport.Close()
}

// initEventTransport opens the configured bus. It returns nil when events
// are disabled.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func initEventTransport(ctx context.Context, cfg *config.EventsConfig, logger zerolog.Logger) (*EventComponents, error) {
	if !cfg.Enabled {
		logger.Info().Msg("Event bus disabled")
		return nil, nil
	}

	transport, err := events.NewTransport(ctx, cfg, logging.NewWatermillAdapter(logger))
	if err != nil {
		return nil, fmt.Errorf("create event transport: %w", err)
	}

	logger.Info().
		Str("transport", transport.Name()).
		Bool("log_deliveries", cfg.LogDeliveries).
		Msg("Event transport initialized")

	return &EventComponents{
		Transport: transport,
		Publisher: events.NewPublisher(transport.Publisher, logger),
	}, nil
}

// registerDeliveryDispatcher queues delivery events for the publisher and
// adds the draining service to the messaging layer. It returns nil when
// deliveries are not logged.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func registerDeliveryDispatcher(
	cfg *config.EventsConfig,
	components *EventComponents,
	tree *supervisor.SupervisorTree,
	logger zerolog.Logger,
) *events.DeliveryDispatcher {
	if components == nil || !cfg.LogDeliveries {
		return nil
	}

	dispatcher := events.NewDeliveryDispatcher(components.Publisher, cfg.DeliveryBuffer, logger)
	tree.AddMessagingService(dispatcher)

	logger.Info().Int("buffer", cfg.DeliveryBuffer).Msg("Delivery dispatcher added to supervisor tree")
	return dispatcher
}

// registerEventRouter adds the event router to the messaging layer. Each
// restart builds a fresh router over the shared transport.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func registerEventRouter(
	cfg *config.Config,
	components *EventComponents,
	engine events.Engine,
	db *database.DB,
	tree *supervisor.SupervisorTree,
	logger zerolog.Logger,
) {
	if components == nil {
		return
	}

	var deliveries events.DeliveryLog
	if cfg.Events.LogDeliveries {
		deliveries = db
	}

	routerCfg := events.RouterConfigFromEvents(&cfg.Events, cfg.Recommend.RebuildTimeout)
	tree.AddMessagingService(services.NewEventRouterService(func() (services.EventRouter, error) {
		router, err := events.NewRouter(routerCfg, components.Transport, engine, deliveries, logger)
		if err != nil {
			return nil, err
		}
		return router, nil
	}))

	logger.Info().Msg("Event router added to supervisor tree")
}
