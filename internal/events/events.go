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
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/shelfmark/internal/logging"
	"github.com/tomtom215/shelfmark/internal/models"
)

// Topic names.
const (
	TopicCatalogChanged          = "catalog.changed"
	TopicInteractionRecorded     = "interaction.recorded"
	TopicRecommendationDelivered = "recommendation.delivered"
)

// metadataCorrelationID carries the request correlation id across the bus.
const metadataCorrelationID = "correlation_id"

// CatalogChanged announces catalog edits. ItemIDs may be empty when the
// producer does not track which books changed.
type CatalogChanged struct {
	ItemIDs    []int     `json:"item_ids,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// InteractionRecorded announces one user action.
type InteractionRecorded struct {
	UserID     int               `json:"user_id"`
	ItemID     *int              `json:"item_id,omitempty"`
	Action     models.ActionType `json:"action_type"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// RecommendationDelivered records a list served to a user.
type RecommendationDelivered struct {
	UserID          int                     `json:"user_id"`
	Recommendations []models.Recommendation `json:"recommendations"`
	DeliveredAt     time.Time               `json:"delivered_at"`
}

// newMessage encodes payload into a Watermill message with a fresh id and
// the correlation id from ctx, if any.
func newMessage(ctx context.Context, payload any) (*message.Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), data)
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		msg.Metadata.Set(metadataCorrelationID, id)
	}
	return msg, nil
}

// decode unmarshals a message payload. Malformed payloads are not
// retryable.
func decode(msg *message.Message, v any) error {
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return fmt.Errorf("%w: %w", errMalformed, err)
	}
	return nil
}

// messageContext restores the correlation id carried by msg.
func messageContext(msg *message.Message) context.Context {
	ctx := msg.Context()
	if id := msg.Metadata.Get(metadataCorrelationID); id != "" {
		ctx = logging.ContextWithCorrelationID(ctx, id)
	}
	return ctx
}
