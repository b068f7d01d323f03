// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfmark/internal/metrics"
)

const vectorKeyPrefix = "vec:"

// OpenCache opens the BadgerDB store backing CachedEmbedder. An empty path
// opens an in-memory store.
func OpenCache(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open embedding cache: %w", err)
	}
	return db, nil
}

// CachedEmbedder serves vectors from BadgerDB and forwards misses to the
// wrapped embedder in a single batch.
type CachedEmbedder struct {
	inner  Embedder
	db     *badger.DB
	logger zerolog.Logger
}

// NewCachedEmbedder wraps inner with the cache in db. The caller owns db.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewCachedEmbedder(inner Embedder, db *badger.DB, logger zerolog.Logger) *CachedEmbedder {
	return &CachedEmbedder{
		inner:  inner,
		db:     db,
		logger: logger.With().Str("component", "embedding_cache").Logger(),
	}
}

// Model returns the wrapped embedder's model.
func (c *CachedEmbedder) Model() string {
	return c.inner.Model()
}

// Embed returns cached vectors where present and embeds the rest. Cache
// write failures are logged and do not fail the call.
func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	keys := make([][]byte, len(texts))
	for i, text := range texts {
		keys[i] = c.key(text)
	}

	var missing []int
	err := c.db.View(func(txn *badger.Txn) error {
		for i, key := range keys {
			item, err := txn.Get(key)
			if errors.Is(err, badger.ErrKeyNotFound) {
				missing = append(missing, i)
				continue
			}
			if err != nil {
				return err
			}
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &out[i])
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.logger.Warn().Err(err).Msg("Embedding cache read failed, embedding all documents")
		missing = missing[:0]
		for i := range texts {
			out[i] = nil
			missing = append(missing, i)
		}
	}

	for range len(texts) - len(missing) {
		metrics.RecordEmbeddingCache(true)
	}
	for range missing {
		metrics.RecordEmbeddingCache(false)
	}
	if len(missing) == 0 {
		return out, nil
	}

	pending := make([]string, len(missing))
	for j, i := range missing {
		pending[j] = texts[i]
	}
	vecs, err := c.inner.Embed(ctx, pending)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(pending) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d documents", len(vecs), len(pending))
	}

	for j, i := range missing {
		out[i] = vecs[j]
	}
	c.store(keys, missing, vecs)

	return out, nil
}

func (c *CachedEmbedder) store(keys [][]byte, missing []int, vecs [][]float32) {
	wb := c.db.NewWriteBatch()
	defer wb.Cancel()

	for j, i := range missing {
		if len(vecs[j]) == 0 {
			continue
		}
		data, err := json.Marshal(vecs[j])
		if err != nil {
			c.logger.Warn().Err(err).Msg("Failed to encode embedding")
			return
		}
		if err := wb.Set(keys[i], data); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to queue embedding cache write")
			return
		}
	}
	if err := wb.Flush(); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to write embedding cache")
	}
}

// key scopes a document hash by model so switching models never serves
// stale vectors.
func (c *CachedEmbedder) key(text string) []byte {
	sum := sha256.Sum256([]byte(text))
	return []byte(vectorKeyPrefix + c.inner.Model() + ":" + hex.EncodeToString(sum[:]))
}
