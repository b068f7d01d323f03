// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package recommend

import (
	"fmt"
	"time"

	"github.com/tomtom215/shelfmark/internal/recommend/algorithms"
)

// Config contains all configuration for the recommendation engine.
type Config struct {
	// Weights defines the contribution of each signal to the blended score.
	Weights BlendWeights `json:"weights"`

	// Similarity defines the lexical/dense blend for item similarity.
	Similarity algorithms.SimilarityWeights `json:"similarity"`

	// Candidates controls how many candidates each signal contributes.
	Candidates CandidateConfig `json:"candidates"`

	// Association contains Apriori thresholds.
	Association algorithms.AssociationConfig `json:"association"`

	// BackfillScore is the score assigned to items appended from the
	// popularity ranking when the blended list is short.
	// Default: 0.1.
	BackfillScore float64 `json:"backfill_score"`

	// Limits contains operational limits.
	Limits LimitsConfig `json:"limits"`

	// Rebuild contains cache rebuild parameters.
	Rebuild RebuildConfig `json:"rebuild"`

	// Cache contains response caching parameters.
	Cache CacheConfig `json:"cache"`
}

// BlendWeights defines the relative contribution of each signal.
type BlendWeights struct {
	Content     float64 `json:"content"`
	Association float64 `json:"association"`
	Popularity  float64 `json:"popularity"`
}

// Sum returns the total weight.
func (w BlendWeights) Sum() float64 {
	return w.Content + w.Association + w.Popularity
}

// CandidateConfig multiplies the requested k to size each signal's list.
type CandidateConfig struct {
	// ContentMultiplier sizes the content list. Default: 3.
	ContentMultiplier int `json:"content_multiplier"`

	// AssociationMultiplier sizes the association list. Default: 3.
	AssociationMultiplier int `json:"association_multiplier"`

	// PopularityMultiplier sizes the popularity list. Default: 2.
	PopularityMultiplier int `json:"popularity_multiplier"`
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	// DefaultK is the number of recommendations returned when the caller
	// does not specify one.
	// Default: 5.
	DefaultK int `json:"default_k"`

	// MaxK is the largest k accepted at the API boundary.
	// Default: 100.
	MaxK int `json:"max_k"`

	// RequestTimeout bounds store calls made while serving one request.
	// Default: 10s.
	RequestTimeout time.Duration `json:"request_timeout"`
}

// RebuildConfig contains cache rebuild parameters.
type RebuildConfig struct {
	// Timeout is the maximum time allowed for one rebuild.
	// Default: 10m.
	Timeout time.Duration `json:"timeout"`

	// MinInteractions is the number of borrows below which a data sparsity
	// warning is logged after a rebuild. Rebuilds proceed regardless.
	// Default: 100.
	MinInteractions int `json:"min_interactions"`
}

// CacheConfig contains response caching parameters.
type CacheConfig struct {
	// Enabled controls whether responses are cached.
	// Default: true.
	Enabled bool `json:"enabled"`

	// TTL is the cache entry time-to-live. Cached responses may miss a
	// borrow made within the TTL.
	// Default: 30s.
	TTL time.Duration `json:"ttl"`

	// MaxEntries is the maximum number of cached responses.
	// Default: 10000.
	MaxEntries int `json:"max_entries"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		Weights: BlendWeights{
			Content:     0.4,
			Association: 0.4,
			Popularity:  0.2,
		},
		Similarity: algorithms.DefaultSimilarityWeights(),
		Candidates: CandidateConfig{
			ContentMultiplier:     3,
			AssociationMultiplier: 3,
			PopularityMultiplier:  2,
		},
		Association:   algorithms.DefaultAssociationConfig(),
		BackfillScore: 0.1,
		Limits: LimitsConfig{
			DefaultK:       5,
			MaxK:           100,
			RequestTimeout: 10 * time.Second,
		},
		Rebuild: RebuildConfig{
			Timeout:         10 * time.Minute,
			MinInteractions: 100,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        30 * time.Second,
			MaxEntries: 10000,
		},
	}
}

// Validate checks the configuration for errors.
//
//nolint:gocyclo // validation needs to check many fields
func (c *Config) Validate() error {
	if c.Weights.Content < 0 || c.Weights.Association < 0 || c.Weights.Popularity < 0 {
		return fmt.Errorf("weights must be non-negative, got %+v", c.Weights)
	}
	if c.Weights.Sum() <= 0 {
		return fmt.Errorf("weights must sum to a positive value, got %+v", c.Weights)
	}

	if c.Similarity.Lexical < 0 || c.Similarity.Dense < 0 {
		return fmt.Errorf("similarity weights must be non-negative, got %+v", c.Similarity)
	}
	if c.Similarity.Lexical+c.Similarity.Dense <= 0 {
		return fmt.Errorf("similarity weights must sum to a positive value, got %+v", c.Similarity)
	}

	if c.Candidates.ContentMultiplier < 1 || c.Candidates.AssociationMultiplier < 1 || c.Candidates.PopularityMultiplier < 1 {
		return fmt.Errorf("candidate multipliers must be positive, got %+v", c.Candidates)
	}

	if c.Association.MinSupport <= 0 || c.Association.MinSupport > 1 {
		return fmt.Errorf("association.min_support must be in (0, 1], got %f", c.Association.MinSupport)
	}
	if c.Association.MinConfidence < 0 || c.Association.MinConfidence > 1 {
		return fmt.Errorf("association.min_confidence must be in [0, 1], got %f", c.Association.MinConfidence)
	}
	if c.Association.MaxItemsetLen < 0 {
		return fmt.Errorf("association.max_itemset_len must be non-negative, got %d", c.Association.MaxItemsetLen)
	}
	if c.Association.MinSupportCount < 0 || c.Association.MaxItemsets < 0 || c.Association.MaxRules < 0 {
		return fmt.Errorf("association count limits must be non-negative, got %+v", c.Association)
	}

	if c.BackfillScore < 0 {
		return fmt.Errorf("backfill_score must be non-negative, got %f", c.BackfillScore)
	}

	if c.Limits.DefaultK < 1 {
		return fmt.Errorf("limits.default_k must be positive, got %d", c.Limits.DefaultK)
	}
	if c.Limits.MaxK < c.Limits.DefaultK {
		return fmt.Errorf("limits.max_k must be >= limits.default_k, got %d < %d", c.Limits.MaxK, c.Limits.DefaultK)
	}
	if c.Limits.RequestTimeout <= 0 {
		return fmt.Errorf("limits.request_timeout must be positive, got %v", c.Limits.RequestTimeout)
	}

	if c.Rebuild.Timeout <= 0 {
		return fmt.Errorf("rebuild.timeout must be positive, got %v", c.Rebuild.Timeout)
	}
	if c.Rebuild.MinInteractions < 0 {
		return fmt.Errorf("rebuild.min_interactions must be non-negative, got %d", c.Rebuild.MinInteractions)
	}

	if c.Cache.Enabled {
		if c.Cache.TTL <= 0 {
			return fmt.Errorf("cache.ttl must be positive when caching is enabled, got %v", c.Cache.TTL)
		}
		if c.Cache.MaxEntries < 1 {
			return fmt.Errorf("cache.max_entries must be positive when caching is enabled, got %d", c.Cache.MaxEntries)
		}
	}

	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	// Direct field copy - all nested structs contain only value types (no pointers/slices)
	cp := *c
	return &cp
}
