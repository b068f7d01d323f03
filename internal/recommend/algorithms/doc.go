// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

// Package algorithms implements the three candidate signals of the hybrid
// recommender.
//
// # Signals
//
//   - SimilarityIndex: cosine similarity over item feature vectors, blending
//     lexical (TF-IDF) and dense similarity when both are present.
//   - RuleSet: association rules mined with Apriori from per-user item sets.
//   - PopularityRanking: items ordered by borrow count.
//
// Each signal returns a ranked []Scored list. Ranking ties are always broken
// by ascending item id so identical inputs give identical outputs.
//
// # Lifecycle
//
// Models are built in one pass from a data snapshot and never mutated
// afterwards. Rebuilding constructs fresh models which the engine swaps in
// atomically, so readers need no locking.
package algorithms
