// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package features

import (
	"math"
	"sort"
)

// tfidfModel is a fitted vocabulary with smoothed inverse document
// frequencies:
//
//	idf(t) = ln((1 + n) / (1 + df(t))) + 1
//
// Term weights are raw counts times idf, then L2-normalised per document.
type tfidfModel struct {
	vocabulary map[string]int
	idf        []float64
}

// fitTransform fits the model over docs (already tokenised) and returns one
// vector per document in input order. The model is nil when the corpus has
// no terms at all.
func fitTransform(docs [][]string) (*tfidfModel, []SparseVector) {
	df := make(map[string]int)
	for _, terms := range docs {
		seen := make(map[string]struct{}, len(terms))
		for _, t := range terms {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}
	if len(df) == 0 {
		return nil, nil
	}

	// Alphabetical vocabulary keeps indices stable across rebuilds of the
	// same corpus.
	terms := make([]string, 0, len(df))
	for t := range df {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	n := float64(len(docs))
	m := &tfidfModel{
		vocabulary: make(map[string]int, len(terms)),
		idf:        make([]float64, len(terms)),
	}
	for i, t := range terms {
		m.vocabulary[t] = i
		m.idf[i] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}

	vectors := make([]SparseVector, len(docs))
	for i, doc := range docs {
		vectors[i] = m.transform(doc)
	}
	return m, vectors
}

// transform weights a tokenised document against the fitted vocabulary.
// Out-of-vocabulary terms are ignored.
func (m *tfidfModel) transform(doc []string) SparseVector {
	counts := make(map[int]float64, len(doc))
	for _, t := range doc {
		if idx, ok := m.vocabulary[t]; ok {
			counts[idx]++
		}
	}

	v := SparseVector{
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for idx := range counts {
		v.Indices = append(v.Indices, idx)
	}
	sort.Ints(v.Indices)
	for _, idx := range v.Indices {
		v.Values = append(v.Values, counts[idx]*m.idf[idx])
	}
	v.normalize()
	return v
}
