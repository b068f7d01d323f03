// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration loaded from defaults, an
// optional config file and environment variables.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml) for persistent settings
//  3. Environment Variables: Override any setting via environment variables
//
// Configuration Categories:
//
//  1. Data:
//     - Database: catalog and interaction store (DuckDB or SQLite)
//     - Embedding: optional dense embedding backend
//
//  2. Engine:
//     - Recommend: blend weights, mining thresholds, limits, rebuild cadence
//     - Events: catalog/interaction/delivery event transport
//
//  3. Surface:
//     - Server: HTTP listener
//     - Security: CORS and rate limiting
//
//  4. Observability:
//     - Logging: Log levels and output formats
//
// Config is immutable after Load() and safe for concurrent read access.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Recommend RecommendConfig `koanf:"recommend"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	Events    EventsConfig    `koanf:"events"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // "development", "staging" or "production"
}

// Address returns the listen address in host:port form.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Interaction sources understood by the store adapter.
const (
	SourceUserInteractions = "user_interactions"
	SourcePurchases        = "purchases"
	SourceBookIssues       = "book_issues"
)

// DatabaseConfig holds catalog and interaction store settings.
//
// Environment Variables:
//   - DB_DRIVER: duckdb or sqlite (default: duckdb)
//   - DB_PATH: database file path, ":memory:" for an in-memory store
//   - DB_SOURCES: comma-separated interaction sources
//     (default: user_interactions,purchases)
type DatabaseConfig struct {
	Driver    string `koanf:"driver"`
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"` // DuckDB only
	Threads   int    `koanf:"threads"`    // DuckDB threads (0 = use NumCPU)

	// QueryTimeout bounds every store query.
	QueryTimeout time.Duration `koanf:"query_timeout"`

	// Sources lists the tables that contribute to user histories. Missing
	// tables are tolerated and read as empty.
	Sources []string `koanf:"sources"`

	// CreateSchema creates the catalog and interaction tables when absent.
	// Intended for local development and tests; production databases are
	// owned by the library application.
	CreateSchema bool `koanf:"create_schema"`
}

// RecommendConfig holds recommendation engine settings.
//
// Blend weights and similarity weights must each be non-negative with a
// positive sum.
type RecommendConfig struct {
	ContentWeight     float64 `koanf:"content_weight"`
	AssociationWeight float64 `koanf:"association_weight"`
	PopularityWeight  float64 `koanf:"popularity_weight"`

	LexicalWeight float64 `koanf:"lexical_weight"`
	DenseWeight   float64 `koanf:"dense_weight"`

	ContentMultiplier     int `koanf:"content_multiplier"`
	AssociationMultiplier int `koanf:"association_multiplier"`
	PopularityMultiplier  int `koanf:"popularity_multiplier"`

	MinSupport      float64 `koanf:"min_support"`
	MinConfidence   float64 `koanf:"min_confidence"`
	MaxItemsetLen   int     `koanf:"max_itemset_len"`
	MinSupportCount int     `koanf:"min_support_count"`
	MaxItemsets     int     `koanf:"max_itemsets"`
	MaxRules        int     `koanf:"max_rules"`

	BackfillScore float64 `koanf:"backfill_score"`

	DefaultK       int           `koanf:"default_k"`
	MaxK           int           `koanf:"max_k"`
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// RebuildInterval is the period of scheduled cache rebuilds. Zero
	// disables the scheduler.
	RebuildInterval  time.Duration `koanf:"rebuild_interval"`
	RebuildOnStartup bool          `koanf:"rebuild_on_startup"`
	RebuildTimeout   time.Duration `koanf:"rebuild_timeout"`

	// MinInteractions is the borrow count below which a sparsity warning
	// is logged after each rebuild.
	MinInteractions int `koanf:"min_interactions"`

	CacheEnabled    bool          `koanf:"cache_enabled"`
	CacheTTL        time.Duration `koanf:"cache_ttl"`
	CacheMaxEntries int           `koanf:"cache_max_entries"`
}

// EmbeddingConfig holds the optional dense embedding backend settings.
// Any OpenAI-compatible embeddings endpoint is supported.
type EmbeddingConfig struct {
	Enabled bool   `koanf:"enabled"`
	BaseURL string `koanf:"base_url"` // empty uses the OpenAI default
	APIKey  string `koanf:"api_key"`
	Model   string `koanf:"model"`

	BatchSize int           `koanf:"batch_size"`
	Timeout   time.Duration `koanf:"timeout"`

	// ProbeOnStartup embeds a short text at startup and disables the
	// backend for the process lifetime when it fails.
	ProbeOnStartup bool `koanf:"probe_on_startup"`

	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`

	BreakerMaxFailures uint32        `koanf:"breaker_max_failures"`
	BreakerTimeout     time.Duration `koanf:"breaker_timeout"`

	// CacheEnabled persists vectors keyed by model and text. An empty
	// CachePath keeps the cache in memory.
	CacheEnabled bool   `koanf:"cache_enabled"`
	CachePath    string `koanf:"cache_path"`
}

// EventsConfig holds event transport settings.
type EventsConfig struct {
	Enabled bool `koanf:"enabled"`

	// Transport is "memory" (in-process) or "nats" (JetStream).
	Transport string `koanf:"transport"`

	NATSURL    string `koanf:"nats_url"`
	QueueGroup string `koanf:"queue_group"`

	// RebuildDebounce coalesces bursts of catalog change events into one
	// rebuild.
	RebuildDebounce time.Duration `koanf:"rebuild_debounce"`

	// LogDeliveries records served recommendations in recommendation_logs.
	LogDeliveries bool `koanf:"log_deliveries"`

	// DeliveryBuffer is the number of delivery events queued for
	// publishing. Events beyond it are dropped.
	DeliveryBuffer int `koanf:"delivery_buffer"`

	RetryCount           int           `koanf:"retry_count"`
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval"`
	CloseTimeout         time.Duration `koanf:"close_timeout"`
}

// SecurityConfig holds HTTP surface protection settings
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	// Default: false
	Caller bool `koanf:"caller"`
}

// Load reads configuration using the layered approach:
//  1. Built-in defaults
//  2. Config file (config.yaml if exists, or path specified in CONFIG_PATH env var)
//  3. Environment variables
//
// See LoadWithKoanf() for the underlying implementation.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
