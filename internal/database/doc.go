// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

// Package database is the storage adapter between the recommendation engine
// and the library's relational database.
//
// # Overview
//
// The library application owns the schema; this package only reads it,
// apart from the append-only recommendation_logs table. Two database/sql
// drivers are supported:
//   - DuckDB (github.com/duckdb/duckdb-go/v2), the production default
//   - SQLite (modernc.org/sqlite), pure Go, used for small deployments and tests
//
// # Files
//
//   - database.go: connection lifecycle, DSN construction, query timeouts
//   - database_connection.go: pool configuration and driver error classification
//   - schema.go: optional creation of the library tables
//   - store.go: the engine's data provider queries and the recommendation log
//
// # Interaction Sources
//
// Interactions are assembled from the tables listed in
// config.DatabaseConfig.Sources, in order:
//   - user_interactions: the logged action stream (view, search, borrow, reservation, purchase)
//   - purchases: each row is a purchase
//   - book_issues: each row is a borrow
//
// A configured source whose table does not exist reads as empty. The
// condition is counted in the store_missing_table_total metric and
// logged at debug level.
//
// # Usage
//
//	db, err := database.New(&cfg.Database, logger)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	history, err := db.GetUserHistory(ctx, userID)
//
// # Concurrency
//
// All exported methods are safe for concurrent use.
package database
