// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/shelfmark/config.yaml",
	"/etc/shelfmark/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8390,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Database: DatabaseConfig{
			Driver:       "duckdb",
			Path:         "/data/library.duckdb",
			MaxMemory:    "1GB",
			Threads:      0, // 0 = use runtime.NumCPU()
			QueryTimeout: 10 * time.Second,
			Sources:      []string{SourceUserInteractions, SourcePurchases},
			CreateSchema: false,
		},
		Recommend: RecommendConfig{
			ContentWeight:         0.4,
			AssociationWeight:     0.4,
			PopularityWeight:      0.2,
			LexicalWeight:         0.4,
			DenseWeight:           0.6,
			ContentMultiplier:     3,
			AssociationMultiplier: 3,
			PopularityMultiplier:  2,
			MinSupport:            0.01,
			MinConfidence:         0.3,
			MaxItemsetLen:         4,
			MinSupportCount:       2,
			MaxItemsets:           20000,
			MaxRules:              10000,
			BackfillScore:         0.1,
			DefaultK:              5,
			MaxK:                  100,
			RequestTimeout:        10 * time.Second,
			RebuildInterval:       time.Hour,
			RebuildOnStartup:      true,
			RebuildTimeout:        10 * time.Minute,
			MinInteractions:       100,
			CacheEnabled:          true,
			CacheTTL:              30 * time.Second,
			CacheMaxEntries:       10000,
		},
		// Dense embeddings are opt-in; lexical similarity works without them.
		Embedding: EmbeddingConfig{
			Enabled:            false,
			Model:              "text-embedding-3-small",
			BatchSize:          64,
			Timeout:            30 * time.Second,
			ProbeOnStartup:     true,
			RequestsPerSecond:  5,
			Burst:              5,
			BreakerMaxFailures: 5,
			BreakerTimeout:     time.Minute,
			CacheEnabled:       true,
			CachePath:          "/data/embeddings",
		},
		Events: EventsConfig{
			Enabled:              true,
			Transport:            "memory",
			NATSURL:              "nats://127.0.0.1:4222",
			QueueGroup:           "shelfmark",
			RebuildDebounce:      5 * time.Second,
			LogDeliveries:        true,
			DeliveryBuffer:       1024,
			RetryCount:           3,
			RetryInitialInterval: 100 * time.Millisecond,
			CloseTimeout:         30 * time.Second,
		},
		Security: SecurityConfig{
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// Precedence is ENV > File > Defaults. The result is validated before it is
// returned.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// DB_PATH -> database.path
	// RECOMMEND_MIN_SUPPORT -> recommend.min_support
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// FindConfigFile returns the config file LoadWithKoanf would read, or an
// empty string when none exists.
func FindConfigFile() string {
	return findConfigFile()
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"database.sources",
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// This is necessary because env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// If it's already a slice (from YAML file), skip
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		if strVal, ok := val.(string); ok {
			if strVal == "" {
				continue
			}
			parts := strings.Split(strVal, ",")
			trimmed := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					trimmed = append(trimmed, p)
				}
			}
			if len(trimmed) > 0 {
				if err := k.Set(path, trimmed); err != nil {
					return fmt.Errorf("failed to set %s: %w", path, err)
				}
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
var envMappings = map[string]string{
	// Server mappings
	"http_port":    "server.port",
	"http_host":    "server.host",
	"http_timeout": "server.timeout",
	"environment":  "server.environment",

	// Database mappings
	"db_driver":        "database.driver",
	"db_path":          "database.path",
	"db_max_memory":    "database.max_memory",
	"db_threads":       "database.threads",
	"db_query_timeout": "database.query_timeout",
	"db_sources":       "database.sources",
	"db_create_schema": "database.create_schema",

	// Recommendation engine mappings
	"recommend_content_weight":         "recommend.content_weight",
	"recommend_association_weight":     "recommend.association_weight",
	"recommend_popularity_weight":      "recommend.popularity_weight",
	"recommend_lexical_weight":         "recommend.lexical_weight",
	"recommend_dense_weight":           "recommend.dense_weight",
	"recommend_content_multiplier":     "recommend.content_multiplier",
	"recommend_association_multiplier": "recommend.association_multiplier",
	"recommend_popularity_multiplier":  "recommend.popularity_multiplier",
	"recommend_min_support":            "recommend.min_support",
	"recommend_min_confidence":         "recommend.min_confidence",
	"recommend_max_itemset_len":        "recommend.max_itemset_len",
	"recommend_min_support_count":      "recommend.min_support_count",
	"recommend_max_itemsets":           "recommend.max_itemsets",
	"recommend_max_rules":              "recommend.max_rules",
	"recommend_backfill_score":         "recommend.backfill_score",
	"recommend_default_k":              "recommend.default_k",
	"recommend_max_k":                  "recommend.max_k",
	"recommend_request_timeout":        "recommend.request_timeout",
	"recommend_rebuild_interval":       "recommend.rebuild_interval",
	"recommend_rebuild_on_startup":     "recommend.rebuild_on_startup",
	"recommend_rebuild_timeout":        "recommend.rebuild_timeout",
	"recommend_min_interactions":       "recommend.min_interactions",
	"recommend_cache_enabled":          "recommend.cache_enabled",
	"recommend_cache_ttl":              "recommend.cache_ttl",
	"recommend_cache_max_entries":      "recommend.cache_max_entries",

	// Embedding backend mappings
	"embedding_enabled":              "embedding.enabled",
	"embedding_base_url":             "embedding.base_url",
	"embedding_api_key":              "embedding.api_key",
	"openai_api_key":                 "embedding.api_key",
	"embedding_model":                "embedding.model",
	"embedding_batch_size":           "embedding.batch_size",
	"embedding_timeout":              "embedding.timeout",
	"embedding_probe_on_startup":     "embedding.probe_on_startup",
	"embedding_requests_per_second":  "embedding.requests_per_second",
	"embedding_burst":                "embedding.burst",
	"embedding_breaker_max_failures": "embedding.breaker_max_failures",
	"embedding_breaker_timeout":      "embedding.breaker_timeout",
	"embedding_cache_enabled":        "embedding.cache_enabled",
	"embedding_cache_path":           "embedding.cache_path",

	// Event transport mappings
	"events_enabled":          "events.enabled",
	"events_transport":        "events.transport",
	"nats_url":                "events.nats_url",
	"events_queue_group":      "events.queue_group",
	"events_rebuild_debounce": "events.rebuild_debounce",
	"events_log_deliveries":   "events.log_deliveries",
	"events_delivery_buffer":  "events.delivery_buffer",
	"events_retry_count":      "events.retry_count",
	"events_retry_interval":   "events.retry_initial_interval",
	"events_close_timeout":    "events.close_timeout",

	// Security mappings
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",

	// Logging mappings
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
// Unmapped variables return an empty string and are skipped, which keeps
// unrelated environment variables out of the configuration.
//
// Examples:
//   - DB_PATH -> database.path
//   - RECOMMEND_MIN_SUPPORT -> recommend.min_support
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}

// WatchConfigFile sets up a file watcher for hot-reload capability.
// Note: The caller is responsible for mutex protection when accessing
// configuration during reloads.
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)

	return provider.Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
