// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package models

import "math"

// Provenance tags which candidate list(s) produced a recommendation.
type Provenance string

const (
	ProvenanceHybrid      Provenance = "hybrid_content_association"
	ProvenanceContent     Provenance = "content_based"
	ProvenanceAssociation Provenance = "association_rules"
	ProvenancePopular     Provenance = "popular"
	ProvenanceGeneral     Provenance = "general"
)

// Recommendation is the response shape for both personalised and
// similar-item results.
type Recommendation struct {
	ID              int        `json:"id"`
	Title           string     `json:"title"`
	Author          string     `json:"author"`
	Category        string     `json:"category"`
	Description     string     `json:"description"`
	CoverImage      string     `json:"cover_image"`
	AvailableCopies int        `json:"available_copies"`
	Score           float64    `json:"score"`
	Type            Provenance `json:"recommendation_type"`
}

// NewRecommendation combines resolved book metadata with a score and tag.
func NewRecommendation(b *Book, score float64, tag Provenance) Recommendation {
	desc := b.Description
	if desc == "" {
		desc = DefaultDescription
	}
	return Recommendation{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		Category:        b.Category,
		Description:     desc,
		CoverImage:      b.CoverImage,
		AvailableCopies: b.AvailableCopies,
		Score:           score,
		Type:            tag,
	}
}

// RoundScore rounds a blended score to two decimals for API responses.
func RoundScore(score float64) float64 {
	return math.Round(score*100) / 100
}
