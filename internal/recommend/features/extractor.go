// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package features

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfmark/internal/models"
)

// defaultBatchSize bounds the number of documents sent per embedding call.
const defaultBatchSize = 64

// Embedder produces dense sentence embeddings.
type Embedder interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Model identifies the embedding model.
	Model() string
}

// ItemFeatures is the feature vector of one catalog item.
type ItemFeatures struct {
	Lexical SparseVector

	// Dense is nil when no dense embedding is available for the item.
	Dense []float64
}

// Set maps item ids to their feature vectors.
type Set struct {
	items     map[int]*ItemFeatures
	ids       []int
	vocabSize int
	dense     bool
	builtAt   time.Time
}

// EmptySet returns a Set with no items.
func EmptySet() *Set {
	return &Set{items: map[int]*ItemFeatures{}, builtAt: time.Now()}
}

// Get returns the features of itemID.
func (s *Set) Get(itemID int) (*ItemFeatures, bool) {
	f, ok := s.items[itemID]
	return f, ok
}

// Len returns the number of items with features.
func (s *Set) Len() int {
	return len(s.items)
}

// IDs returns the item ids in ascending order. The slice must not be modified.
func (s *Set) IDs() []int {
	return s.ids
}

// VocabularySize returns the number of distinct lexical terms.
func (s *Set) VocabularySize() int {
	return s.vocabSize
}

// HasDense reports whether dense vectors were attached during extraction.
func (s *Set) HasDense() bool {
	return s.dense
}

// BuiltAt returns when the set was extracted.
func (s *Set) BuiltAt() time.Time {
	return s.builtAt
}

// Extractor builds feature Sets from the catalog.
type Extractor struct {
	analyzer  *Analyzer
	embedder  Embedder
	hasDense  bool
	batchSize int
	logger    zerolog.Logger
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithEmbedder attaches a dense embedding backend. A nil embedder leaves the
// extractor lexical-only.
func WithEmbedder(e Embedder) ExtractorOption {
	return func(x *Extractor) {
		x.embedder = e
	}
}

// WithBatchSize sets the number of documents per embedding request.
func WithBatchSize(n int) ExtractorOption {
	return func(x *Extractor) {
		if n > 0 {
			x.batchSize = n
		}
	}
}

// NewExtractor creates an extractor. The dense capability is fixed here and
// never re-probed.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewExtractor(logger zerolog.Logger, opts ...ExtractorOption) (*Extractor, error) {
	analyzer, err := NewAnalyzer()
	if err != nil {
		return nil, fmt.Errorf("build analyzer: %w", err)
	}

	x := &Extractor{
		analyzer:  analyzer,
		batchSize: defaultBatchSize,
		logger:    logger.With().Str("component", "features").Logger(),
	}
	for _, opt := range opts {
		opt(x)
	}
	x.hasDense = x.embedder != nil
	return x, nil
}

// HasDenseEmbeddings reports whether a dense backend is configured.
func (x *Extractor) HasDenseEmbeddings() bool {
	return x.hasDense
}

// Extract computes features for every book. It never fails: a degenerate
// corpus gives an empty Set and a dense failure gives a lexical-only Set.
func (x *Extractor) Extract(ctx context.Context, books []models.Book) *Set {
	if len(books) == 0 {
		x.logger.Debug().Msg("empty catalog, no features extracted")
		return EmptySet()
	}

	ordered := make([]models.Book, len(books))
	copy(ordered, books)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	docs := make([]string, len(ordered))
	tokens := make([][]string, len(ordered))
	for i := range ordered {
		docs[i] = ordered[i].Document()
		tokens[i] = x.analyzer.Tokens(docs[i])
	}

	model, vectors := fitTransform(tokens)
	if model == nil {
		x.logger.Warn().Int("documents", len(docs)).Msg("corpus has no terms after stop-word removal")
		return EmptySet()
	}

	set := &Set{
		items:     make(map[int]*ItemFeatures, len(ordered)),
		ids:       make([]int, 0, len(ordered)),
		vocabSize: len(model.idf),
		builtAt:   time.Now(),
	}
	for i := range ordered {
		id := ordered[i].ID
		if _, dup := set.items[id]; dup {
			continue
		}
		set.items[id] = &ItemFeatures{Lexical: vectors[i]}
		set.ids = append(set.ids, id)
	}

	if x.hasDense {
		set.dense = x.attachDense(ctx, set, ordered, docs)
	}

	x.logger.Debug().
		Int("items", set.Len()).
		Int("vocabulary", set.vocabSize).
		Bool("dense", set.dense).
		Msg("features extracted")

	return set
}

// attachDense embeds docs in batches and stores the unit vectors on set.
// Any backend error abandons dense features for the whole set.
func (x *Extractor) attachDense(ctx context.Context, set *Set, books []models.Book, docs []string) bool {
	dense := make([][]float64, len(docs))
	for start := 0; start < len(docs); start += x.batchSize {
		end := min(start+x.batchSize, len(docs))

		vecs, err := x.embedder.Embed(ctx, docs[start:end])
		if err == nil && len(vecs) != end-start {
			err = fmt.Errorf("embedder returned %d vectors for %d documents", len(vecs), end-start)
		}
		if err != nil {
			x.logger.Warn().Err(err).
				Str("model", x.embedder.Model()).
				Msg("dense embedding failed, continuing lexical-only")
			return false
		}
		for i, v := range vecs {
			dense[start+i] = toUnitFloat64(v)
		}
	}

	for i := range books {
		if f, ok := set.items[books[i].ID]; ok && f.Dense == nil {
			f.Dense = dense[i]
		}
	}
	return true
}
