// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

// Package embedding provides the optional dense embedding backend used by
// the feature extractor.
//
// OpenAIEmbedder talks to any OpenAI-compatible embeddings endpoint. Calls
// are rate limited with golang.org/x/time/rate and guarded by a
// sony/gobreaker circuit breaker, so a failing backend is rejected quickly
// and the extractor falls back to lexical vectors.
//
// CachedEmbedder wraps any Embedder with a BadgerDB store keyed by model
// and document hash. Catalog rebuilds re-embed only changed documents.
//
// Both types satisfy features.Embedder.
package embedding
