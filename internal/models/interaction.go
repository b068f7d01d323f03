// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package models

import "time"

// ActionType classifies an entry in the interaction log.
type ActionType string

const (
	ActionView        ActionType = "view"
	ActionSearch      ActionType = "search"
	ActionBorrow      ActionType = "borrow"
	ActionReservation ActionType = "reservation"
	ActionPurchase    ActionType = "purchase"
)

// Valid reports whether t is one of the known action types.
func (t ActionType) Valid() bool {
	switch t {
	case ActionView, ActionSearch, ActionBorrow, ActionReservation, ActionPurchase:
		return true
	default:
		return false
	}
}

// Consumption reports whether the action counts towards a user's history.
// Only borrows and purchases do; views, searches and reservations are
// recorded but never exclude an item from recommendations.
func (t ActionType) Consumption() bool {
	return t == ActionBorrow || t == ActionPurchase
}

// Interaction is a single row of the append-only interaction log.
type Interaction struct {
	UserID int `json:"user_id"`

	// ItemID is nil for actions without a book (searches).
	ItemID *int `json:"item_id,omitempty"`

	Action    ActionType `json:"action_type"`
	Timestamp time.Time  `json:"timestamp"`

	// Payload is the opaque interaction_data column.
	Payload string `json:"payload,omitempty"`
}

// HasItem reports whether the interaction references a book.
func (i *Interaction) HasItem() bool {
	return i.ItemID != nil && *i.ItemID > 0
}
