// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package recommend

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() error = %v", err)
	}

	if cfg.Weights.Content != 0.4 || cfg.Weights.Association != 0.4 || cfg.Weights.Popularity != 0.2 {
		t.Errorf("Weights = %+v, want 0.4/0.4/0.2", cfg.Weights)
	}
	if cfg.Similarity.Lexical != 0.4 || cfg.Similarity.Dense != 0.6 {
		t.Errorf("Similarity = %+v, want 0.4/0.6", cfg.Similarity)
	}
	if cfg.Candidates.ContentMultiplier != 3 || cfg.Candidates.AssociationMultiplier != 3 || cfg.Candidates.PopularityMultiplier != 2 {
		t.Errorf("Candidates = %+v, want 3/3/2", cfg.Candidates)
	}
	if cfg.Association.MinSupport != 0.01 || cfg.Association.MinConfidence != 0.3 {
		t.Errorf("Association = %+v, want 0.01/0.3", cfg.Association)
	}
	if cfg.BackfillScore != 0.1 {
		t.Errorf("BackfillScore = %v, want 0.1", cfg.BackfillScore)
	}
	if cfg.Limits.DefaultK != 5 {
		t.Errorf("Limits.DefaultK = %d, want 5", cfg.Limits.DefaultK)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"negative weight", func(c *Config) { c.Weights.Content = -0.1 }, true},
		{"zero weights", func(c *Config) { c.Weights = BlendWeights{} }, true},
		{"popularity only", func(c *Config) { c.Weights = BlendWeights{Popularity: 1} }, false},
		{"zero similarity weights", func(c *Config) { c.Similarity.Lexical, c.Similarity.Dense = 0, 0 }, true},
		{"zero multiplier", func(c *Config) { c.Candidates.PopularityMultiplier = 0 }, true},
		{"zero support", func(c *Config) { c.Association.MinSupport = 0 }, true},
		{"support above one", func(c *Config) { c.Association.MinSupport = 1.5 }, true},
		{"confidence above one", func(c *Config) { c.Association.MinConfidence = 1.1 }, true},
		{"negative itemset length", func(c *Config) { c.Association.MaxItemsetLen = -1 }, true},
		{"negative rule cap", func(c *Config) { c.Association.MaxRules = -1 }, true},
		{"unset caps use defaults", func(c *Config) { c.Association.MaxItemsets, c.Association.MaxRules = 0, 0 }, false},
		{"negative backfill", func(c *Config) { c.BackfillScore = -1 }, true},
		{"zero default k", func(c *Config) { c.Limits.DefaultK = 0 }, true},
		{"max below default", func(c *Config) { c.Limits.MaxK = 2 }, true},
		{"zero request timeout", func(c *Config) { c.Limits.RequestTimeout = 0 }, true},
		{"zero rebuild timeout", func(c *Config) { c.Rebuild.Timeout = 0 }, true},
		{"cache without ttl", func(c *Config) { c.Cache.TTL = 0 }, true},
		{"disabled cache ignores ttl", func(c *Config) { c.Cache.Enabled = false; c.Cache.TTL = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigClone(t *testing.T) {
	cfg := DefaultConfig()
	clone := cfg.Clone()
	clone.Weights.Content = 0.9
	clone.Cache.TTL = time.Hour

	if cfg.Weights.Content != 0.4 {
		t.Error("modifying clone changed original weights")
	}
	if cfg.Cache.TTL != 30*time.Second {
		t.Error("modifying clone changed original cache ttl")
	}
}
