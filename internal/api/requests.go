// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package api

import "time"

// listRequest holds the validated parameters of the two ranked-list
// endpoints. The upper bound on K is checked against HandlerConfig.MaxK
// separately since it is configurable.
type listRequest struct {
	ID int `query:"id" validate:"gt=0"`
	K  int `query:"k" validate:"gte=0"`
}

// interactionRequest is the body of POST /api/v1/events/interactions.
type interactionRequest struct {
	UserID     int       `json:"user_id" validate:"gt=0"`
	ItemID     *int      `json:"item_id" validate:"omitempty,gt=0"`
	Action     string    `json:"action_type" validate:"required,action"`
	OccurredAt time.Time `json:"occurred_at"`
}

// catalogChangeRequest is the body of POST /api/v1/events/catalog.
type catalogChangeRequest struct {
	ItemIDs []int  `json:"item_ids" validate:"max=1000,dive,gt=0"`
	Reason  string `json:"reason" validate:"omitempty,oneof=created updated deleted bulk"`
}
