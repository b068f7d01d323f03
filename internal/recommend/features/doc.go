// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

// Package features turns catalog entries into numeric feature vectors.
//
// Every book contributes one document (title, author, category and
// description). The extractor fits a TF-IDF model over the whole corpus
// using English stop-word removal and, when a dense embedding backend is
// configured, attaches a sentence embedding per book.
//
// # Vectors
//
// Lexical vectors are sparse and L2-normalised, so cosine similarity is a
// plain dot product. Dense vectors are L2-normalised as well. A Set is
// immutable once returned from Extract and is shared by every reader of the
// snapshot that owns it.
//
// # Degradation
//
// An empty or all-stop-word corpus yields an empty Set. A dense backend
// failure during extraction is logged and the Set is built lexical-only.
package features
