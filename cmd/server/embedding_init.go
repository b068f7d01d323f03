// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfmark/internal/config"
	"github.com/tomtom215/shelfmark/internal/embedding"
	"github.com/tomtom215/shelfmark/internal/recommend"
	"github.com/tomtom215/shelfmark/internal/recommend/features"
)

// initEmbedder resolves the dense embedding backend once at startup.
//
// It returns a nil embedder when embeddings are disabled or the backend
// cannot be reached; the engine then runs lexical-only and the failure is
// logged a single time. The returned closer releases the vector cache and
// is never nil.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func initEmbedder(ctx context.Context, cfg *config.EmbeddingConfig, logger zerolog.Logger) (features.Embedder, io.Closer) {
	closer := io.Closer(nopCloser{})
	if !cfg.Enabled {
		logger.Info().Msg("Dense embeddings disabled, using lexical similarity only")
		return nil, closer
	}

	backend, err := embedding.NewOpenAIEmbedder(cfg, logger)
	if err != nil {
		logModelUnavailable(logger, cfg.Model, err)
		return nil, closer
	}

	if cfg.ProbeOnStartup {
		if _, err := backend.Probe(ctx); err != nil {
			logModelUnavailable(logger, cfg.Model, err)
			return nil, closer
		}
	}

	if !cfg.CacheEnabled {
		return backend, closer
	}

	cacheDB, err := embedding.OpenCache(cfg.CachePath)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.CachePath).Msg("Embedding cache unavailable, continuing uncached")
		return backend, closer
	}
	logger.Info().Str("path", cfg.CachePath).Msg("Embedding cache opened")

	return embedding.NewCachedEmbedder(backend, cacheDB, logger), cacheDB
}

//nolint:gocritic // zerolog.Logger is designed to be passed by value
func logModelUnavailable(logger zerolog.Logger, model string, err error) {
	logger.Warn().
		Err(fmt.Errorf("%w: %w", recommend.ErrModelUnavailable, err)).
		Str("model", model).
		Msg("Embedding model unavailable, falling back to lexical similarity")
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
