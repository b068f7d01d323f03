// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package events

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfmark/internal/metrics"
	"github.com/tomtom215/shelfmark/internal/models"
)

// DefaultDeliveryBuffer is the queue size used when none is configured.
const DefaultDeliveryBuffer = 1024

// DeliverySink receives served recommendation lists. *Publisher implements
// it.
type DeliverySink interface {
	RecommendationsDelivered(ctx context.Context, userID int, recs []models.Recommendation)
}

type delivery struct {
	ctx    context.Context
	userID int
	recs   []models.Recommendation
}

// DeliveryDispatcher moves delivery events off the request path. Enqueue
// never blocks: when the queue is full the event is dropped and counted.
// Serve drains the queue into the sink and runs as a supervised service.
type DeliveryDispatcher struct {
	sink   DeliverySink
	queue  chan delivery
	logger zerolog.Logger
}

// NewDeliveryDispatcher creates a dispatcher with a queue of buffer events.
// A non-positive buffer uses DefaultDeliveryBuffer.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewDeliveryDispatcher(sink DeliverySink, buffer int, logger zerolog.Logger) *DeliveryDispatcher {
	if buffer <= 0 {
		buffer = DefaultDeliveryBuffer
	}
	return &DeliveryDispatcher{
		sink:   sink,
		queue:  make(chan delivery, buffer),
		logger: logger.With().Str("component", "delivery_dispatcher").Logger(),
	}
}

// RecommendationsDelivered queues a delivery event. The request context's
// values travel with the event but its cancellation does not.
func (d *DeliveryDispatcher) RecommendationsDelivered(ctx context.Context, userID int, recs []models.Recommendation) {
	select {
	case d.queue <- delivery{ctx: context.WithoutCancel(ctx), userID: userID, recs: recs}:
	default:
		metrics.RecordEventDropped(TopicRecommendationDelivered)
		d.logger.Warn().Int("user_id", userID).Msg("delivery queue full, dropping delivery event")
	}
}

// Pending returns the number of queued events.
func (d *DeliveryDispatcher) Pending() int {
	return len(d.queue)
}

// Serve publishes queued events until ctx is cancelled. Events still
// queued at shutdown are dropped.
func (d *DeliveryDispatcher) Serve(ctx context.Context) error {
	d.logger.Info().Int("buffer", cap(d.queue)).Msg("Delivery dispatcher started")
	for {
		select {
		case <-ctx.Done():
			if n := len(d.queue); n > 0 {
				d.logger.Warn().Int("pending", n).Msg("Delivery dispatcher stopping with queued events")
			}
			return ctx.Err()
		case ev := <-d.queue:
			d.sink.RecommendationsDelivered(ev.ctx, ev.userID, ev.recs)
		}
	}
}

// String implements fmt.Stringer for suture logging.
func (d *DeliveryDispatcher) String() string {
	return "delivery-dispatcher"
}
