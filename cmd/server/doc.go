// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

/*
Package main is the entry point for the Shelfmark recommendation server.

Shelfmark reads a library's catalog and interaction log, builds content,
association and popularity signals, and serves blended book recommendations
over HTTP.

# Application Architecture

The server runs under a Suture v4 supervisor tree:

	RootSupervisor ("shelfmark")
	├── DataSupervisor ("data-layer")
	│   └── Rebuild scheduler (startup warm-up + periodic rebuild)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── Event router (catalog, interaction, delivery handlers)
	│   └── Delivery dispatcher (queued delivery publishes)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (chi)

Component initialization order:

 1. Configuration: Koanf v2 with defaults, YAML file and environment
 2. Logging: zerolog with JSON/console output modes
 3. Database: DuckDB (default) or SQLite, read-only over the library schema
 4. Embeddings (optional): OpenAI-compatible backend, probed once, badger cache
 5. Events (optional): Watermill over gochannel or NATS JetStream
 6. Engine: feature extractor + recommendation engine
 7. Supervisor Tree and HTTP Server

# Configuration

Priority: Environment variables > Config file > Defaults

	# Server
	HTTP_PORT=8390
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console

	# Store
	DB_DRIVER=duckdb             # duckdb or sqlite
	DB_PATH=/data/library.duckdb
	DB_SOURCES=user_interactions,purchases,book_issues

	# Recommendation
	RECOMMEND_DEFAULT_K=5
	RECOMMEND_MAX_K=100
	RECOMMEND_REBUILD_INTERVAL=1h

	# Dense embeddings (optional)
	EMBEDDING_ENABLED=true
	EMBEDDING_BASE_URL=http://localhost:11434/v1
	EMBEDDING_MODEL=nomic-embed-text

	# Events
	EVENTS_TRANSPORT=memory      # memory or nats
	NATS_URL=nats://nats:4222

A YAML file at CONFIG_PATH (or ./config.yaml) may set any key; see
internal/config.

# Signal Handling

SIGINT and SIGTERM cancel the root context. The supervisor stops the HTTP
server (draining in-flight requests), the event router and the scheduler,
then the event transport, embedding cache and database are closed.
*/
package main
