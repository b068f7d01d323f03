// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package algorithms

import (
	"sort"

	"github.com/tomtom215/shelfmark/internal/models"
)

// PopularityRanking orders catalog items by how often they were borrowed.
//
// This signal is useful for:
//   - Cold start users with no history
//   - Backfilling short personalised lists
//   - Fallback when the other signals are empty
//
// Every catalog item is ranked, including those never borrowed, so an empty
// interaction log still yields the catalog in ascending id order.
type PopularityRanking struct {
	BaseModel

	counts    map[int]int
	sortedIDs []int // count descending, id ascending
}

// BuildPopularity counts borrow actions per catalog item. Interactions for
// items missing from the catalog are ignored.
//
//nolint:gocritic // rangeValCopy: Interaction is passed by value in range, acceptable for clarity
func BuildPopularity(items []models.Book, interactions []models.Interaction) *PopularityRanking {
	p := &PopularityRanking{
		BaseModel: NewBaseModel("popularity"),
		counts:    make(map[int]int, len(items)),
	}

	for i := range items {
		p.counts[items[i].ID] = 0
	}

	for _, inter := range interactions {
		if inter.Action != models.ActionBorrow || !inter.HasItem() {
			continue
		}
		if _, ok := p.counts[*inter.ItemID]; ok {
			p.counts[*inter.ItemID]++
		}
	}

	p.sortedIDs = make([]int, 0, len(p.counts))
	for id := range p.counts {
		p.sortedIDs = append(p.sortedIDs, id)
	}
	sort.Slice(p.sortedIDs, func(i, j int) bool {
		a, b := p.sortedIDs[i], p.sortedIDs[j]
		if p.counts[a] != p.counts[b] {
			return p.counts[a] > p.counts[b]
		}
		return a < b
	})

	return p
}

// Len returns the number of ranked items.
func (p *PopularityRanking) Len() int {
	return len(p.sortedIDs)
}

// Count returns the borrow count of itemID.
func (p *PopularityRanking) Count(itemID int) int {
	return p.counts[itemID]
}

// TotalBorrows returns the number of borrows counted across the catalog.
func (p *PopularityRanking) TotalBorrows() int {
	total := 0
	for _, c := range p.counts {
		total += c
	}
	return total
}

// GetTopK returns the top K most popular item IDs.
func (p *PopularityRanking) GetTopK(k int) []int {
	return p.TopExcluding(k, nil)
}

// TopExcluding returns up to k item ids in popularity order, skipping ids in
// exclude. k <= 0 returns nil.
func (p *PopularityRanking) TopExcluding(k int, exclude map[int]struct{}) []int {
	if k <= 0 || len(p.sortedIDs) == 0 {
		return nil
	}

	result := make([]int, 0, min(k, len(p.sortedIDs)))
	for _, id := range p.sortedIDs {
		if _, skip := exclude[id]; skip {
			continue
		}
		result = append(result, id)
		if len(result) == k {
			break
		}
	}
	return result
}

// Ranked returns the full ranking. The slice must not be modified.
func (p *PopularityRanking) Ranked() []int {
	return p.sortedIDs
}
