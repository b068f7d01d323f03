// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package recommend

import (
	"sort"

	"github.com/tomtom215/shelfmark/internal/models"
)

// candidate is a blended item awaiting metadata resolution.
type candidate struct {
	ItemID int
	Score  float64
	Tag    models.Provenance
}

// membership records which signals listed an item.
type membership uint8

const (
	inContent membership = 1 << iota
	inAssociation
	inPopularity
)

func sourceBit(s SignalSource) membership {
	switch s {
	case SourceContent:
		return inContent
	case SourceAssociation:
		return inAssociation
	case SourcePopularity:
		return inPopularity
	default:
		return 0
	}
}

// rankContribution converts a rank into a weighted score: an item at
// zero-based position i of an n-item list contributes w * (1 - i/n).
func rankContribution(weight float64, rank, n int) float64 {
	if n <= 0 {
		return 0
	}
	return weight * (1 - float64(rank)/float64(n))
}

// provenance maps list membership to a recommendation tag.
func provenance(m membership) models.Provenance {
	switch m {
	case inContent | inAssociation:
		return models.ProvenanceHybrid
	case inContent:
		return models.ProvenanceContent
	case inAssociation:
		return models.ProvenanceAssociation
	case inPopularity:
		return models.ProvenancePopular
	default:
		return models.ProvenanceGeneral
	}
}

// blend accumulates rank contributions from every signal, tags each item by
// membership and returns all items by score descending, id ascending.
// Degraded signals contribute nothing. An item listed twice by the same
// signal only counts at its first position.
func blend(signals []Signal) []candidate {
	scores := make(map[int]float64)
	members := make(map[int]membership)

	for _, s := range signals {
		if s.Degraded() || len(s.Items) == 0 {
			continue
		}
		bit := sourceBit(s.Source)
		n := len(s.Items)
		for i, item := range s.Items {
			if members[item.ItemID]&bit != 0 {
				continue
			}
			scores[item.ItemID] += rankContribution(s.Weight, i, n)
			members[item.ItemID] |= bit
		}
	}

	out := make([]candidate, 0, len(scores))
	for id, score := range scores {
		out = append(out, candidate{ItemID: id, Score: score, Tag: provenance(members[id])})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out
}
