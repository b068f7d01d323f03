// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package models

import "testing"

func TestBookDocument(t *testing.T) {
	tests := []struct {
		name string
		book Book
		want string
	}{
		{"all fields", Book{Title: "Dune", Author: "Frank Herbert", Category: "Fiction", Description: "Desert planet"}, "Dune Frank Herbert Fiction Desert planet"},
		{"missing description", Book{Title: "Dune", Author: "Frank Herbert", Category: "Fiction"}, "Dune Frank Herbert Fiction"},
		{"whitespace only", Book{Title: "  ", Author: "\t"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.book.Document(); got != tt.want {
				t.Errorf("Document() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestActionType(t *testing.T) {
	tests := []struct {
		action      ActionType
		valid       bool
		consumption bool
	}{
		{ActionView, true, false},
		{ActionSearch, true, false},
		{ActionBorrow, true, true},
		{ActionReservation, true, false},
		{ActionPurchase, true, true},
		{ActionType("return"), false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			if got := tt.action.Valid(); got != tt.valid {
				t.Errorf("Valid() = %v, want %v", got, tt.valid)
			}
			if got := tt.action.Consumption(); got != tt.consumption {
				t.Errorf("Consumption() = %v, want %v", got, tt.consumption)
			}
		})
	}
}

func TestInteractionHasItem(t *testing.T) {
	id := 7
	zero := 0
	if (&Interaction{}).HasItem() {
		t.Error("nil item id should not count")
	}
	if (&Interaction{ItemID: &zero}).HasItem() {
		t.Error("zero item id should not count")
	}
	if !(&Interaction{ItemID: &id}).HasItem() {
		t.Error("positive item id should count")
	}
}

func TestRoundScore(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0.6000000000000001, 0.6},
		{0.456, 0.46},
		{0.454, 0.45},
		{0.1, 0.1},
		{1.3333333333333333, 1.33},
		{0, 0},
	}
	for _, tt := range tests {
		if got := RoundScore(tt.in); got != tt.want {
			t.Errorf("RoundScore(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewRecommendationDefaultsDescription(t *testing.T) {
	rec := NewRecommendation(&Book{ID: 3, Title: "Emma"}, 0.5, ProvenancePopular)
	if rec.Description != DefaultDescription {
		t.Errorf("Description = %q, want default", rec.Description)
	}
	if rec.ID != 3 || rec.Score != 0.5 || rec.Type != ProvenancePopular {
		t.Errorf("unexpected recommendation %+v", rec)
	}
}
