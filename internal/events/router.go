// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfmark/internal/config"
	"github.com/tomtom215/shelfmark/internal/database"
	"github.com/tomtom215/shelfmark/internal/logging"
	"github.com/tomtom215/shelfmark/internal/metrics"
	"github.com/tomtom215/shelfmark/internal/models"
)

// TopicPoison receives messages that still fail after all retries.
const TopicPoison = "events.poison"

var errMalformed = errors.New("malformed event payload")

// Engine is the part of the recommendation engine driven by events.
type Engine interface {
	RebuildCaches(ctx context.Context) error
	InvalidateUser(userID int) int
}

// DeliveryLog persists served recommendation lists.
type DeliveryLog interface {
	InsertRecommendationLog(ctx context.Context, userID int, recs []models.Recommendation, at time.Time) error
}

// RouterConfig holds handler and middleware settings.
type RouterConfig struct {
	CloseTimeout         time.Duration
	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RebuildDebounce      time.Duration
	RebuildTimeout       time.Duration
}

// RouterConfigFromEvents derives the router settings from the events
// configuration section.
func RouterConfigFromEvents(cfg *config.EventsConfig, rebuildTimeout time.Duration) RouterConfig {
	return RouterConfig{
		CloseTimeout:         cfg.CloseTimeout,
		RetryMaxRetries:      cfg.RetryCount,
		RetryInitialInterval: cfg.RetryInitialInterval,
		RetryMaxInterval:     10 * cfg.RetryInitialInterval,
		RebuildDebounce:      cfg.RebuildDebounce,
		RebuildTimeout:       rebuildTimeout,
	}
}

// Router consumes the shelfmark topics and applies them to the engine.
type Router struct {
	router     *message.Router
	engine     Engine
	deliveries DeliveryLog
	debouncer  *debouncer
	cfg        RouterConfig
	logger     zerolog.Logger

	missingLogOnce sync.Once
}

// NewRouter registers the catalog and interaction handlers, plus the
// delivery handler when deliveries is non-nil. When poison is non-nil,
// messages failing every retry are forwarded to TopicPoison.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewRouter(
	cfg RouterConfig,
	transport *Transport,
	engine Engine,
	deliveries DeliveryLog,
	logger zerolog.Logger,
) (*Router, error) {
	if transport == nil || transport.Subscriber == nil {
		return nil, fmt.Errorf("event transport is required")
	}
	if engine == nil {
		return nil, fmt.Errorf("engine is required")
	}

	logger = logger.With().Str("component", "event_router").Logger()

	wmRouter, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: cfg.CloseTimeout,
	}, logging.NewWatermillAdapter(logger))
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	r := &Router{
		router:     wmRouter,
		engine:     engine,
		deliveries: deliveries,
		cfg:        cfg,
		logger:     logger,
	}
	r.debouncer = newDebouncer(cfg.RebuildDebounce, r.rebuild)

	// Outermost first: failures surviving every retry go to the poison
	// topic, Recoverer turns handler panics into retryable errors.
	if transport.Publisher != nil {
		poison, err := middleware.PoisonQueue(transport.Publisher, TopicPoison)
		if err != nil {
			return nil, fmt.Errorf("create poison queue middleware: %w", err)
		}
		wmRouter.AddMiddleware(poison)
	}
	wmRouter.AddMiddleware(
		middleware.Retry{
			MaxRetries:      cfg.RetryMaxRetries,
			InitialInterval: cfg.RetryInitialInterval,
			MaxInterval:     cfg.RetryMaxInterval,
			Multiplier:      2,
			Logger:          logging.NewWatermillAdapter(logger),
		}.Middleware,
		middleware.Recoverer,
	)

	wmRouter.AddNoPublisherHandler("catalog-changed", TopicCatalogChanged, transport.Subscriber,
		r.consume(TopicCatalogChanged, r.handleCatalogChanged))
	wmRouter.AddNoPublisherHandler("interaction-recorded", TopicInteractionRecorded, transport.Subscriber,
		r.consume(TopicInteractionRecorded, r.handleInteractionRecorded))
	if deliveries != nil {
		wmRouter.AddNoPublisherHandler("recommendation-delivered", TopicRecommendationDelivered, transport.Subscriber,
			r.consume(TopicRecommendationDelivered, r.handleRecommendationDelivered))
	}

	return r, nil
}

// Run processes messages until ctx is canceled or Close is called.
func (r *Router) Run(ctx context.Context) error {
	defer r.debouncer.Stop()
	return r.router.Run(ctx)
}

// Running is closed once every handler is subscribed.
func (r *Router) Running() chan struct{} {
	return r.router.Running()
}

// Close stops the router, waiting up to CloseTimeout for in-flight
// handlers.
func (r *Router) Close() error {
	r.debouncer.Stop()
	return r.router.Close()
}

// consume adapts a typed handler: malformed payloads are acknowledged and
// dropped, other errors are returned for retry.
func (r *Router) consume(topic string, fn func(ctx context.Context, msg *message.Message) error) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		ctx := messageContext(msg)
		err := fn(ctx, msg)
		switch {
		case err == nil:
			metrics.RecordEventConsumed(topic, "ok")
			return nil
		case errors.Is(err, errMalformed):
			metrics.RecordEventConsumed(topic, "malformed")
			r.eventLogger(ctx).Warn().Err(err).
				Str("topic", topic).
				Str("message_id", msg.UUID).
				Msg("Dropping malformed event")
			return nil
		default:
			metrics.RecordEventConsumed(topic, "error")
			return err
		}
	}
}

func (r *Router) handleCatalogChanged(ctx context.Context, msg *message.Message) error {
	var ev CatalogChanged
	if err := decode(msg, &ev); err != nil {
		return err
	}

	r.eventLogger(ctx).Debug().
		Ints("item_ids", ev.ItemIDs).
		Str("reason", ev.Reason).
		Msg("Catalog changed, scheduling rebuild")
	r.debouncer.Trigger()
	return nil
}

func (r *Router) handleInteractionRecorded(ctx context.Context, msg *message.Message) error {
	var ev InteractionRecorded
	if err := decode(msg, &ev); err != nil {
		return err
	}
	if ev.UserID <= 0 {
		return fmt.Errorf("%w: user_id %d", errMalformed, ev.UserID)
	}

	evicted := r.engine.InvalidateUser(ev.UserID)
	r.eventLogger(ctx).Debug().
		Int("user_id", ev.UserID).
		Str("action", string(ev.Action)).
		Int("evicted", evicted).
		Msg("Interaction recorded")
	return nil
}

func (r *Router) handleRecommendationDelivered(ctx context.Context, msg *message.Message) error {
	var ev RecommendationDelivered
	if err := decode(msg, &ev); err != nil {
		return err
	}
	if ev.UserID <= 0 || len(ev.Recommendations) == 0 {
		return nil
	}

	err := r.deliveries.InsertRecommendationLog(ctx, ev.UserID, ev.Recommendations, ev.DeliveredAt)
	if errors.Is(err, database.ErrTableMissing) {
		r.missingLogOnce.Do(func() {
			r.logger.Warn().Err(err).Msg("Recommendation log table missing, deliveries will not be recorded")
		})
		return nil
	}
	return err
}

// eventLogger adds the event's correlation id to the router logger.
func (r *Router) eventLogger(ctx context.Context) *zerolog.Logger {
	l := r.logger
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		l = l.With().Str("correlation_id", id).Logger()
	}
	return &l
}

// rebuild runs after the debounce delay. It is detached from any message
// context.
func (r *Router) rebuild() {
	ctx := context.Background()
	if r.cfg.RebuildTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.RebuildTimeout)
		defer cancel()
	}

	if err := r.engine.RebuildCaches(ctx); err != nil {
		r.logger.Error().Err(err).Msg("Event-triggered rebuild failed, keeping previous snapshot")
		return
	}
	r.logger.Info().Msg("Event-triggered rebuild complete")
}
