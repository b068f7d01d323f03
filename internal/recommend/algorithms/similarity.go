// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package algorithms

import (
	"github.com/tomtom215/shelfmark/internal/recommend/features"
)

// SimilarityWeights controls how lexical and dense cosine similarity are
// combined when both are available for a pair of items.
type SimilarityWeights struct {
	Lexical float64 `json:"lexical"`
	Dense   float64 `json:"dense"`
}

// DefaultSimilarityWeights returns the 0.4 lexical / 0.6 dense blend.
func DefaultSimilarityWeights() SimilarityWeights {
	return SimilarityWeights{Lexical: 0.4, Dense: 0.6}
}

// SimilarityIndex answers item-item similarity queries over a feature Set.
//
// The similarity between items a and b is
//
//	sim(a, b) = w_lex * cos(lex_a, lex_b) + w_dense * cos(dense_a, dense_b)
//
// when both items carry dense vectors, and cos(lex_a, lex_b) otherwise.
// Similarities are computed on demand; nothing is precomputed per pair.
type SimilarityIndex struct {
	BaseModel

	features *features.Set
	weights  SimilarityWeights
}

// NewSimilarityIndex wraps a feature set. A nil set behaves as empty.
func NewSimilarityIndex(set *features.Set, weights SimilarityWeights) *SimilarityIndex {
	if set == nil {
		set = features.EmptySet()
	}
	return &SimilarityIndex{
		BaseModel: NewBaseModel("content"),
		features:  set,
		weights:   weights,
	}
}

// Features returns the underlying feature set.
func (s *SimilarityIndex) Features() *features.Set {
	return s.features
}

// Similarity returns sim(a, b). ok is false when either item has no features.
func (s *SimilarityIndex) Similarity(a, b int) (float64, bool) {
	fa, ok := s.features.Get(a)
	if !ok {
		return 0, false
	}
	fb, ok := s.features.Get(b)
	if !ok {
		return 0, false
	}
	return s.pair(fa, fb), true
}

func (s *SimilarityIndex) pair(a, b *features.ItemFeatures) float64 {
	lex := a.Lexical.Dot(b.Lexical)
	if a.Dense == nil || b.Dense == nil {
		return lex
	}
	return s.weights.Lexical*lex + s.weights.Dense*features.DenseCosine(a.Dense, b.Dense)
}

// SimilarItems returns up to k items most similar to itemID, excluding
// itemID itself. Items with non-positive similarity are not returned.
// An unknown itemID yields an empty list.
func (s *SimilarityIndex) SimilarItems(itemID, k int) []Scored {
	target, ok := s.features.Get(itemID)
	if !ok || k <= 0 {
		return nil
	}

	scores := make(map[int]float64)
	for _, id := range s.features.IDs() {
		if id == itemID {
			continue
		}
		f, _ := s.features.Get(id)
		if sim := s.pair(target, f); sim > 0 {
			scores[id] = sim
		}
	}
	return topK(scores, k)
}

// ContentCandidates scores every item outside history and exclude by its
// maximum similarity to any history item, and returns the top k.
// History items without features are skipped.
func (s *SimilarityIndex) ContentCandidates(history []int, exclude map[int]struct{}, k int) []Scored {
	if len(history) == 0 || k <= 0 {
		return nil
	}

	seeds := make([]*features.ItemFeatures, 0, len(history))
	for _, id := range history {
		if f, ok := s.features.Get(id); ok {
			seeds = append(seeds, f)
		}
	}
	if len(seeds) == 0 {
		return nil
	}

	historySet := toSet(history)
	scores := make(map[int]float64)
	for _, id := range s.features.IDs() {
		if _, ok := historySet[id]; ok {
			continue
		}
		if _, ok := exclude[id]; ok {
			continue
		}
		f, _ := s.features.Get(id)

		var best float64
		for _, seed := range seeds {
			if sim := s.pair(seed, f); sim > best {
				best = sim
			}
		}
		if best > 0 {
			scores[id] = best
		}
	}
	return topK(scores, k)
}
