// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is built on first use and shared by every HTTP
// handler. Field names in messages come from the json or query struct tags,
// so a client sees the parameter name it actually sent.
//
// # Quick Start
//
//	type recommendationsRequest struct {
//	    UserID int `query:"user_id" validate:"gt=0"`
//	    K      int `query:"k" validate:"gte=0,lte=100"`
//	}
//
//	if err := validation.ValidateStruct(&req); err != nil {
//	    apiErr := err.ToAPIError()
//	    respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
//	    return
//	}
//
// # Custom Validators
//
//   - action: the value, lowercased, must be a known interaction action
//     type (view, search, borrow, reservation, purchase).
//
// # API Error Integration
//
// ToAPIError produces the VALIDATION_FAILED error used by the api package:
//
//	{
//	    "code": "VALIDATION_FAILED",
//	    "message": "k must be less than or equal to 100",
//	    "details": {"field": "k", "tag": "lte", "value": 500}
//	}
//
// Multiple failures are joined with "; " and listed under details.fields.
package validation
