// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateDatabase,
		c.validateRecommend,
		c.validateEmbedding,
		c.validateEvents,
		c.validateRateLimits,
		c.validateLogging,
	}

	for _, validator := range validators {
		if err := validator(); err != nil {
			return err
		}
	}
	return nil
}

// validateServer validates HTTP server configuration
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

var validDrivers = map[string]bool{
	"duckdb": true,
	"sqlite": true,
}

var validSources = map[string]bool{
	SourceUserInteractions: true,
	SourcePurchases:        true,
	SourceBookIssues:       true,
}

// validateDatabase validates store configuration
func (c *Config) validateDatabase() error {
	if !validDrivers[c.Database.Driver] {
		return fmt.Errorf("DB_DRIVER must be one of: duckdb, sqlite")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("DB_PATH is required")
	}
	if c.Database.QueryTimeout <= 0 {
		return fmt.Errorf("DB_QUERY_TIMEOUT must be positive")
	}
	if len(c.Database.Sources) == 0 {
		return fmt.Errorf("DB_SOURCES must name at least one interaction source")
	}
	for _, s := range c.Database.Sources {
		if !validSources[s] {
			return fmt.Errorf("DB_SOURCES contains unknown source %q (valid: user_interactions, purchases, book_issues)", s)
		}
	}
	return nil
}

// Recommendation limits
const (
	maxItemsetLenLimit = 16
	maxKLimit          = 1000
)

// validateRecommend validates recommendation engine configuration
//
//nolint:gocyclo // validation needs to check many fields
func (c *Config) validateRecommend() error {
	r := &c.Recommend

	if r.ContentWeight < 0 || r.AssociationWeight < 0 || r.PopularityWeight < 0 {
		return fmt.Errorf("recommend blend weights must be non-negative")
	}
	if r.ContentWeight+r.AssociationWeight+r.PopularityWeight <= 0 {
		return fmt.Errorf("recommend blend weights must sum to a positive value")
	}
	if r.LexicalWeight < 0 || r.DenseWeight < 0 {
		return fmt.Errorf("recommend similarity weights must be non-negative")
	}
	if r.LexicalWeight+r.DenseWeight <= 0 {
		return fmt.Errorf("recommend similarity weights must sum to a positive value")
	}

	if r.ContentMultiplier < 1 || r.AssociationMultiplier < 1 || r.PopularityMultiplier < 1 {
		return fmt.Errorf("recommend candidate multipliers must be at least 1")
	}

	if r.MinSupport <= 0 || r.MinSupport > 1 {
		return fmt.Errorf("RECOMMEND_MIN_SUPPORT must be in (0, 1]")
	}
	if r.MinConfidence < 0 || r.MinConfidence > 1 {
		return fmt.Errorf("RECOMMEND_MIN_CONFIDENCE must be in [0, 1]")
	}
	if r.MaxItemsetLen < 2 || r.MaxItemsetLen > maxItemsetLenLimit {
		return fmt.Errorf("RECOMMEND_MAX_ITEMSET_LEN must be between 2 and %d", maxItemsetLenLimit)
	}
	if r.MinSupportCount < 1 {
		return fmt.Errorf("RECOMMEND_MIN_SUPPORT_COUNT must be at least 1")
	}
	if r.MaxItemsets < 1 || r.MaxRules < 1 {
		return fmt.Errorf("RECOMMEND_MAX_ITEMSETS and RECOMMEND_MAX_RULES must be positive")
	}
	if r.BackfillScore < 0 {
		return fmt.Errorf("RECOMMEND_BACKFILL_SCORE must be non-negative")
	}

	if r.DefaultK < 1 || r.MaxK < r.DefaultK || r.MaxK > maxKLimit {
		return fmt.Errorf("RECOMMEND_DEFAULT_K and RECOMMEND_MAX_K must satisfy 1 <= default_k <= max_k <= %d", maxKLimit)
	}
	if r.RequestTimeout <= 0 {
		return fmt.Errorf("RECOMMEND_REQUEST_TIMEOUT must be positive")
	}

	if r.RebuildInterval < 0 {
		return fmt.Errorf("RECOMMEND_REBUILD_INTERVAL must not be negative")
	}
	if r.RebuildInterval > 0 && r.RebuildInterval < time.Minute {
		return fmt.Errorf("RECOMMEND_REBUILD_INTERVAL must be at least 1m when enabled")
	}
	if r.RebuildTimeout <= 0 {
		return fmt.Errorf("RECOMMEND_REBUILD_TIMEOUT must be positive")
	}
	if r.MinInteractions < 0 {
		return fmt.Errorf("RECOMMEND_MIN_INTERACTIONS must not be negative")
	}

	if r.CacheEnabled && (r.CacheTTL <= 0 || r.CacheMaxEntries < 1) {
		return fmt.Errorf("RECOMMEND_CACHE_TTL and RECOMMEND_CACHE_MAX_ENTRIES must be positive when caching is enabled")
	}
	return nil
}

// validateEmbedding validates the embedding backend (only if enabled)
func (c *Config) validateEmbedding() error {
	e := &c.Embedding
	if !e.Enabled {
		return nil
	}

	if e.BaseURL != "" {
		if err := validateEndpointURL(e.BaseURL, "EMBEDDING_BASE_URL"); err != nil {
			return err
		}
	}
	if e.BaseURL == "" && e.APIKey == "" {
		return fmt.Errorf("EMBEDDING_API_KEY is required when using the default OpenAI endpoint")
	}
	if e.APIKey != "" && containsPlaceholder(e.APIKey) {
		return fmt.Errorf("EMBEDDING_API_KEY appears to be a placeholder value")
	}
	if e.Model == "" {
		return fmt.Errorf("EMBEDDING_MODEL is required when EMBEDDING_ENABLED=true")
	}
	if e.BatchSize < 1 || e.BatchSize > 2048 {
		return fmt.Errorf("EMBEDDING_BATCH_SIZE must be between 1 and 2048")
	}
	if e.Timeout <= 0 {
		return fmt.Errorf("EMBEDDING_TIMEOUT must be positive")
	}
	if e.RequestsPerSecond <= 0 || e.Burst < 1 {
		return fmt.Errorf("EMBEDDING_REQUESTS_PER_SECOND and EMBEDDING_BURST must be positive")
	}
	if e.BreakerMaxFailures < 1 || e.BreakerTimeout <= 0 {
		return fmt.Errorf("EMBEDDING_BREAKER_MAX_FAILURES and EMBEDDING_BREAKER_TIMEOUT must be positive")
	}
	return nil
}

var validTransports = map[string]bool{
	"memory": true,
	"nats":   true,
}

// validateEvents validates event transport configuration (only if enabled)
func (c *Config) validateEvents() error {
	e := &c.Events
	if !e.Enabled {
		return nil
	}

	if !validTransports[e.Transport] {
		return fmt.Errorf("EVENTS_TRANSPORT must be one of: memory, nats")
	}
	if e.Transport == "nats" {
		if err := validateNATSURL(e.NATSURL); err != nil {
			return fmt.Errorf("NATS_URL is invalid: %w", err)
		}
		if e.QueueGroup == "" {
			return fmt.Errorf("EVENTS_QUEUE_GROUP is required for the nats transport")
		}
	}
	if e.RebuildDebounce < 0 {
		return fmt.Errorf("EVENTS_REBUILD_DEBOUNCE must not be negative")
	}
	if e.LogDeliveries && e.DeliveryBuffer < 1 {
		return fmt.Errorf("EVENTS_DELIVERY_BUFFER must be positive when EVENTS_LOG_DELIVERIES is set")
	}
	if e.RetryCount < 0 || e.RetryInitialInterval < 0 {
		return fmt.Errorf("EVENTS_RETRY_COUNT and EVENTS_RETRY_INTERVAL must not be negative")
	}
	if e.CloseTimeout <= 0 {
		return fmt.Errorf("EVENTS_CLOSE_TIMEOUT must be positive")
	}
	return nil
}

// Rate limit constants
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

// validateRateLimits validates rate limiting configuration bounds.
func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}

	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

// HasWildcardCORS reports whether any origin is allowed.
func (c *Config) HasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// placeholderPatterns defines common placeholder patterns that indicate
// the user forgot to set a real value.
var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_API_KEY",
	"PLACEHOLDER",
	"EXAMPLE",
}

// containsPlaceholder checks if a value contains common placeholder patterns.
func containsPlaceholder(value string) bool {
	upperValue := strings.ToUpper(value)
	for _, pattern := range placeholderPatterns {
		if strings.Contains(upperValue, pattern) {
			return true
		}
	}
	return false
}
