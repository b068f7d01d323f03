// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

/*
Package models defines the data structures shared across Shelfmark.

The catalog and the interaction log are owned by an external system; Shelfmark
only reads them. The types here are the read-side view of those tables plus
the response shape returned to callers.

Key Components:

  - Book: a catalog row (books table)
  - Interaction: a user action from the interaction log
  - ActionType: the closed set of interaction kinds
  - Recommendation: the response shape (metadata + score + provenance)
  - Provenance: which signal(s) produced a recommendation

Usage Example:

	import "github.com/tomtom215/shelfmark/internal/models"

	rec := models.NewRecommendation(book, 0.82, models.ProvenanceContent)

Thread Safety:

Values are plain data and are not synchronized. Callers that share slices
across goroutines must not mutate them.
*/
package models
