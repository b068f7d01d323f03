// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfmark/internal/metrics"
	"github.com/tomtom215/shelfmark/internal/models"
)

// Publisher encodes domain events onto the bus.
type Publisher struct {
	pub    message.Publisher
	logger zerolog.Logger
	now    func() time.Time
}

// NewPublisher wraps pub.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewPublisher(pub message.Publisher, logger zerolog.Logger) *Publisher {
	return &Publisher{
		pub:    pub,
		logger: logger.With().Str("component", "event_publisher").Logger(),
		now:    time.Now,
	}
}

// PublishCatalogChanged announces a catalog edit.
func (p *Publisher) PublishCatalogChanged(ctx context.Context, ev CatalogChanged) error {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = p.now().UTC()
	}
	return p.publish(ctx, TopicCatalogChanged, ev)
}

// PublishInteractionRecorded announces a user action.
func (p *Publisher) PublishInteractionRecorded(ctx context.Context, ev InteractionRecorded) error {
	if ev.UserID <= 0 {
		return fmt.Errorf("interaction event requires a positive user id")
	}
	if !ev.Action.Valid() {
		return fmt.Errorf("unknown action type %q", ev.Action)
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = p.now().UTC()
	}
	return p.publish(ctx, TopicInteractionRecorded, ev)
}

// RecommendationsDelivered publishes a delivery event for a served list.
// Publish failures are logged; serving never fails because of them.
func (p *Publisher) RecommendationsDelivered(ctx context.Context, userID int, recs []models.Recommendation) {
	ev := RecommendationDelivered{
		UserID:          userID,
		Recommendations: recs,
		DeliveredAt:     p.now().UTC(),
	}
	if err := p.publish(ctx, TopicRecommendationDelivered, ev); err != nil {
		p.logger.Warn().Err(err).Int("user_id", userID).Msg("Failed to publish delivery event")
	}
}

func (p *Publisher) publish(ctx context.Context, topic string, payload any) error {
	msg, err := newMessage(ctx, payload)
	if err != nil {
		metrics.RecordEventPublished(topic, err)
		return err
	}

	err = p.pub.Publish(topic, msg)
	metrics.RecordEventPublished(topic, err)
	if err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}

	p.logger.Debug().Str("topic", topic).Str("message_id", msg.UUID).Msg("Event published")
	return nil
}
