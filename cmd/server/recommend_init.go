// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package main

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfmark/internal/config"
	"github.com/tomtom215/shelfmark/internal/database"
	"github.com/tomtom215/shelfmark/internal/recommend"
	"github.com/tomtom215/shelfmark/internal/recommend/algorithms"
	"github.com/tomtom215/shelfmark/internal/recommend/features"
	"github.com/tomtom215/shelfmark/internal/supervisor"
	"github.com/tomtom215/shelfmark/internal/supervisor/services"
)

// initRecommend builds the engine and registers its rebuild scheduler in the
// data layer of the tree. embedder may be nil (lexical-only).
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func initRecommend(
	cfg *config.Config,
	db *database.DB,
	embedder features.Embedder,
	listener recommend.DeliveryListener,
	tree *supervisor.SupervisorTree,
	logger zerolog.Logger,
) (*recommend.Engine, error) {
	var extractorOpts []features.ExtractorOption
	if embedder != nil {
		extractorOpts = append(extractorOpts,
			features.WithEmbedder(embedder),
			features.WithBatchSize(cfg.Embedding.BatchSize),
		)
	}
	extractor, err := features.NewExtractor(logger, extractorOpts...)
	if err != nil {
		return nil, fmt.Errorf("create feature extractor: %w", err)
	}

	var opts []recommend.Option
	if listener != nil {
		opts = append(opts, recommend.WithDeliveryListener(listener))
	}

	engine, err := recommend.NewEngine(buildEngineConfig(&cfg.Recommend), db, extractor, logger, opts...)
	if err != nil {
		return nil, fmt.Errorf("create recommendation engine: %w", err)
	}

	logger.Info().
		Float64("content_weight", cfg.Recommend.ContentWeight).
		Float64("association_weight", cfg.Recommend.AssociationWeight).
		Float64("popularity_weight", cfg.Recommend.PopularityWeight).
		Bool("dense", engine.HasDenseEmbeddings()).
		Dur("rebuild_interval", cfg.Recommend.RebuildInterval).
		Bool("rebuild_on_startup", cfg.Recommend.RebuildOnStartup).
		Msg("Recommendation engine initialized")

	tree.AddDataService(services.NewRebuildService(engine, services.RebuildServiceConfig{
		RebuildOnStartup: cfg.Recommend.RebuildOnStartup,
		Interval:         cfg.Recommend.RebuildInterval,
	}, logger))

	return engine, nil
}

// buildEngineConfig maps the recommend section of the application config
// onto the engine's configuration.
func buildEngineConfig(rc *config.RecommendConfig) *recommend.Config {
	cfg := recommend.DefaultConfig()

	cfg.Weights = recommend.BlendWeights{
		Content:     rc.ContentWeight,
		Association: rc.AssociationWeight,
		Popularity:  rc.PopularityWeight,
	}
	cfg.Similarity = algorithms.SimilarityWeights{
		Lexical: rc.LexicalWeight,
		Dense:   rc.DenseWeight,
	}
	cfg.Candidates = recommend.CandidateConfig{
		ContentMultiplier:     rc.ContentMultiplier,
		AssociationMultiplier: rc.AssociationMultiplier,
		PopularityMultiplier:  rc.PopularityMultiplier,
	}
	cfg.Association = algorithms.AssociationConfig{
		MinSupport:      rc.MinSupport,
		MinConfidence:   rc.MinConfidence,
		MaxItemsetLen:   rc.MaxItemsetLen,
		MinSupportCount: rc.MinSupportCount,
		MaxItemsets:     rc.MaxItemsets,
		MaxRules:        rc.MaxRules,
	}
	cfg.BackfillScore = rc.BackfillScore
	cfg.Limits = recommend.LimitsConfig{
		DefaultK:       rc.DefaultK,
		MaxK:           rc.MaxK,
		RequestTimeout: rc.RequestTimeout,
	}
	cfg.Rebuild = recommend.RebuildConfig{
		Timeout:         rc.RebuildTimeout,
		MinInteractions: rc.MinInteractions,
	}
	cfg.Cache = recommend.CacheConfig{
		Enabled:    rc.CacheEnabled,
		TTL:        rc.CacheTTL,
		MaxEntries: rc.CacheMaxEntries,
	}

	return cfg
}
