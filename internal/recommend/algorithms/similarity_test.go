// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package algorithms

import (
	"context"
	"math"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfmark/internal/models"
	"github.com/tomtom215/shelfmark/internal/recommend/features"
)

// staticEmbedder maps document text to a fixed vector.
type staticEmbedder map[string][]float32

func (s staticEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = s[t]
	}
	return out, nil
}

func (s staticEmbedder) Model() string { return "static" }

func testCatalog() []models.Book {
	return []models.Book{
		{ID: 1, Title: "space travel novel"},
		{ID: 2, Title: "space opera novel"},
		{ID: 3, Title: "cooking recipes"},
		{ID: 4, Title: "galaxy travel guide"},
	}
}

func buildIndex(t *testing.T, books []models.Book, opts ...features.ExtractorOption) *SimilarityIndex {
	t.Helper()
	x, err := features.NewExtractor(zerolog.Nop(), opts...)
	if err != nil {
		t.Fatalf("NewExtractor() error = %v", err)
	}
	return NewSimilarityIndex(x.Extract(context.Background(), books), DefaultSimilarityWeights())
}

func TestSimilarityIndex_SimilarItems(t *testing.T) {
	idx := buildIndex(t, testCatalog())

	tests := []struct {
		name   string
		itemID int
		k      int
		verify func(t *testing.T, got []Scored)
	}{
		{
			name:   "excludes the item itself",
			itemID: 1,
			k:      10,
			verify: func(t *testing.T, got []Scored) {
				for _, s := range got {
					if s.ItemID == 1 {
						t.Error("SimilarItems() returned the query item")
					}
				}
			},
		},
		{
			name:   "ranks shared vocabulary first",
			itemID: 1,
			k:      1,
			verify: func(t *testing.T, got []Scored) {
				if len(got) != 1 || got[0].ItemID != 2 {
					t.Errorf("SimilarItems() = %v, want item 2 first", got)
				}
			},
		},
		{
			name:   "omits unrelated items",
			itemID: 3,
			k:      10,
			verify: func(t *testing.T, got []Scored) {
				if len(got) != 0 {
					t.Errorf("SimilarItems() = %v, want empty", got)
				}
			},
		},
		{
			name:   "unknown item",
			itemID: 99,
			k:      5,
			verify: func(t *testing.T, got []Scored) {
				if got != nil {
					t.Errorf("SimilarItems() = %v, want nil", got)
				}
			},
		},
		{
			name:   "zero k",
			itemID: 1,
			k:      0,
			verify: func(t *testing.T, got []Scored) {
				if got != nil {
					t.Errorf("SimilarItems() = %v, want nil", got)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.verify(t, idx.SimilarItems(tt.itemID, tt.k))
		})
	}
}

func TestSimilarityIndex_ContentCandidates(t *testing.T) {
	idx := buildIndex(t, testCatalog())

	tests := []struct {
		name    string
		history []int
		exclude map[int]struct{}
		k       int
		want    []int
	}{
		{"empty history", nil, nil, 5, nil},
		{"history without features", []int{42}, nil, 5, nil},
		{"excludes history", []int{1}, nil, 5, []int{2, 4}},
		{"honours exclude set", []int{1}, map[int]struct{}{2: {}}, 5, []int{4}},
		{"truncates to k", []int{1}, nil, 1, []int{2}},
		{"max over history", []int{1, 3}, nil, 5, []int{2, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := idx.ContentCandidates(tt.history, tt.exclude, tt.k)
			if len(got) != len(tt.want) {
				t.Fatalf("ContentCandidates() = %v, want ids %v", got, tt.want)
			}
			for i, id := range tt.want {
				if got[i].ItemID != id {
					t.Errorf("position %d = %d, want %d", i, got[i].ItemID, id)
				}
			}
		})
	}
}

func TestSimilarityIndex_ContentCandidatesUsesMax(t *testing.T) {
	idx := buildIndex(t, testCatalog())

	got := idx.ContentCandidates([]int{1, 3}, nil, 5)
	for _, s := range got {
		direct, _ := idx.Similarity(1, s.ItemID)
		if math.Abs(s.Score-direct) > 1e-9 {
			t.Errorf("item %d score = %v, want max similarity %v", s.ItemID, s.Score, direct)
		}
	}
}

func TestSimilarityIndex_DenseBlend(t *testing.T) {
	books := []models.Book{
		{ID: 1, Title: "space travel"},
		{ID: 2, Title: "space opera"},
	}
	emb := staticEmbedder{
		"space travel": {1, 0},
		"space opera":  {1, 0},
	}

	lexOnly := buildIndex(t, books)
	blended := buildIndex(t, books, features.WithEmbedder(emb))

	lex, ok := lexOnly.Similarity(1, 2)
	if !ok {
		t.Fatal("Similarity() ok = false")
	}
	got, _ := blended.Similarity(1, 2)
	want := 0.4*lex + 0.6*1.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("blended similarity = %v, want %v", got, want)
	}
}

func TestSimilarityIndex_NilSet(t *testing.T) {
	idx := NewSimilarityIndex(nil, DefaultSimilarityWeights())
	if idx.Features().Len() != 0 {
		t.Error("nil set should behave as empty")
	}
	if got := idx.ContentCandidates([]int{1}, nil, 3); got != nil {
		t.Errorf("ContentCandidates() = %v, want nil", got)
	}
}
