// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package algorithms

import (
	"context"
	"sort"
	"time"
)

// Scored is a candidate item with the score a single signal assigned it.
type Scored struct {
	ItemID int     `json:"item_id"`
	Score  float64 `json:"score"`
}

// BaseModel carries the metadata shared by every built model.
// Models are immutable after construction; a rebuild produces a new value.
type BaseModel struct {
	name    string
	builtAt time.Time
}

// NewBaseModel stamps a model with its name and build time.
func NewBaseModel(name string) BaseModel {
	return BaseModel{name: name, builtAt: time.Now()}
}

// Name returns the model identifier.
func (b *BaseModel) Name() string {
	return b.name
}

// BuiltAt returns when the model was built.
func (b *BaseModel) BuiltAt() time.Time {
	return b.builtAt
}

// sortScored orders by score descending, then item id ascending.
func sortScored(items []Scored) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ItemID < items[j].ItemID
	})
}

// topK sorts scores and returns at most k entries. k <= 0 returns nil.
func topK(scores map[int]float64, k int) []Scored {
	if k <= 0 || len(scores) == 0 {
		return nil
	}
	out := make([]Scored, 0, len(scores))
	for id, s := range scores {
		out = append(out, Scored{ItemID: id, Score: s})
	}
	sortScored(out)
	if len(out) > k {
		out = out[:k]
	}
	return out
}

// toSet converts ids into a membership set.
func toSet(ids []int) map[int]struct{} {
	set := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// ContextCancelled checks if the context has been cancelled.
// Long-running build loops call this between units of work.
func ContextCancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
