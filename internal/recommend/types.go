// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package recommend

import (
	"time"

	"github.com/tomtom215/shelfmark/internal/recommend/algorithms"
)

// SignalSource names one of the three candidate lists.
type SignalSource string

const (
	SourceContent     SignalSource = "content"
	SourceAssociation SignalSource = "association"
	SourcePopularity  SignalSource = "popularity"
)

// Signal is the outcome of one candidate source for one request. A degraded
// signal carries the reason in Err and contributes no items.
type Signal struct {
	Source SignalSource
	Weight float64
	Items  []algorithms.Scored
	Err    error
}

// Degraded reports whether the signal failed to produce candidates.
func (s Signal) Degraded() bool {
	return s.Err != nil
}

// Status describes the active snapshot and rebuild state.
type Status struct {
	Ready            bool      `json:"ready"`
	Version          int64     `json:"version"`
	BuiltAt          time.Time `json:"built_at,omitempty"`
	BuildDurationMs  int64     `json:"build_duration_ms"`
	Items            int       `json:"items"`
	Vocabulary       int       `json:"vocabulary"`
	Rules            int       `json:"rules"`
	Transactions     int       `json:"transactions"`
	FrequentItemsets int       `json:"frequent_itemsets"`
	RulesTruncated   bool      `json:"rules_truncated"`
	Borrows          int       `json:"borrows"`
	DenseCapable     bool      `json:"dense_capable"`
	DenseActive      bool      `json:"dense_active"`
	Rebuilding       bool      `json:"rebuilding"`
	Rebuilds         int64     `json:"rebuilds"`
	LastRebuildAt    time.Time `json:"last_rebuild_at,omitempty"`
	LastError        string    `json:"last_error,omitempty"`
}
