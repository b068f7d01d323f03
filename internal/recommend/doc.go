// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

// Package recommend implements the hybrid book recommendation engine.
//
// # Architecture
//
// Three candidate signals are combined per request:
//
//   - Content: items lexically (and optionally semantically) similar to the
//     user's borrowed or purchased books
//   - Association: consequents of rules mined from per-user item sets
//   - Popularity: items ordered by borrow count
//
// Each signal's list is rank-normalised (position i of n contributes
// w*(1-i/n)), summed per item, ranked and truncated to k. Short lists are
// backfilled from popularity. Every item is resolved against the live
// catalog before it is returned; deleted items are skipped.
//
// # Snapshots
//
// Feature vectors, association rules and the popularity ranking are derived
// caches. They are built together into one immutable snapshot which is
// published with an atomic pointer swap. Requests load the pointer once and
// never observe a half-built generation. Rebuilds are shared through
// singleflight so at most one runs at a time.
//
// # Degradation
//
// The engine never fails a valid request. Missing tables, an unreachable
// store, an absent embedding backend or too little data for mining each
// remove one signal, and the remaining signals carry the response. With no
// signals at all the answer is plain popularity.
//
// # Usage
//
//	extractor, _ := features.NewExtractor(logger, features.WithEmbedder(emb))
//	engine, err := recommend.NewEngine(recommend.DefaultConfig(), store, extractor, logger)
//	if err != nil {
//	    return err
//	}
//	_ = engine.RebuildCaches(ctx)
//	recs, err := engine.Recommend(ctx, userID, 5)
package recommend
