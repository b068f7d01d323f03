// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

/*
Package config provides centralized configuration management for Shelfmark.

Configuration is layered with Koanf v2: built-in defaults, then an optional
YAML file, then environment variables. The merged result is validated once
and treated as immutable afterwards.

# Configuration Sources

  - Defaults: defaultConfig() in koanf.go
  - Config file: CONFIG_PATH, or config.yaml / config.yml in the working
    directory, or /etc/shelfmark/config.yaml
  - Environment variables: explicit mapping table (unmapped variables are
    ignored)

# Environment Variables

Server:
  - HTTP_HOST, HTTP_PORT (default: 0.0.0.0:8390), HTTP_TIMEOUT
  - ENVIRONMENT: development, staging, production

Database:
  - DB_DRIVER: duckdb (default) or sqlite
  - DB_PATH: database file (default: /data/library.duckdb)
  - DB_SOURCES: user_interactions,purchases[,book_issues]
  - DB_QUERY_TIMEOUT, DB_MAX_MEMORY, DB_THREADS, DB_CREATE_SCHEMA

Recommendation engine:
  - RECOMMEND_CONTENT_WEIGHT / _ASSOCIATION_WEIGHT / _POPULARITY_WEIGHT
    (default: 0.4 / 0.4 / 0.2)
  - RECOMMEND_LEXICAL_WEIGHT / _DENSE_WEIGHT (default: 0.4 / 0.6)
  - RECOMMEND_MIN_SUPPORT (0.01), RECOMMEND_MIN_CONFIDENCE (0.3),
    RECOMMEND_MAX_ITEMSET_LEN (4), RECOMMEND_MIN_SUPPORT_COUNT (2),
    RECOMMEND_MAX_ITEMSETS (20000), RECOMMEND_MAX_RULES (10000)
  - RECOMMEND_DEFAULT_K (5), RECOMMEND_MAX_K (100)
  - RECOMMEND_REBUILD_INTERVAL (1h, 0 disables), RECOMMEND_REBUILD_ON_STARTUP
  - RECOMMEND_MIN_INTERACTIONS (100)
  - RECOMMEND_CACHE_ENABLED, RECOMMEND_CACHE_TTL, RECOMMEND_CACHE_MAX_ENTRIES

Embeddings (optional):
  - EMBEDDING_ENABLED, EMBEDDING_BASE_URL, EMBEDDING_API_KEY (or OPENAI_API_KEY)
  - EMBEDDING_MODEL (default: text-embedding-3-small), EMBEDDING_BATCH_SIZE
  - EMBEDDING_REQUESTS_PER_SECOND, EMBEDDING_BURST
  - EMBEDDING_BREAKER_MAX_FAILURES, EMBEDDING_BREAKER_TIMEOUT
  - EMBEDDING_CACHE_ENABLED, EMBEDDING_CACHE_PATH

Events:
  - EVENTS_ENABLED, EVENTS_TRANSPORT (memory or nats), NATS_URL
  - EVENTS_REBUILD_DEBOUNCE, EVENTS_LOG_DELIVERIES, EVENTS_DELIVERY_BUFFER (1024)

Security and logging:
  - CORS_ORIGINS, RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

# Usage

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}
	db, err := database.New(&cfg.Database, logger)
*/
package config
