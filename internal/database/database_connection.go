// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package database

import (
	"errors"
	"runtime"
	"strings"
	"time"
)

// ErrTableMissing is returned by writes against a table the library
// database does not have.
var ErrTableMissing = errors.New("table does not exist")

// configureConnectionPool sets connection pool parameters.
//
// An in-memory SQLite database lives and dies with its connection, so the
// pool is pinned to a single connection that never expires.
func (db *DB) configureConnectionPool() {
	if db.cfg.Driver == DriverSQLite && db.cfg.Path == memoryPath {
		db.conn.SetMaxOpenConns(1)
		db.conn.SetMaxIdleConns(1)
		db.conn.SetConnMaxLifetime(0)
		db.conn.SetConnMaxIdleTime(0)
		return
	}

	db.conn.SetMaxOpenConns(runtime.NumCPU())
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}

// isMissingTable reports whether err is the driver's "unknown table" error.
//
//	sqlite: "SQL logic error: no such table: purchases (1)"
//	duckdb: "Catalog Error: Table with name purchases does not exist!"
func isMissingTable(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if strings.Contains(msg, "no such table") {
		return true
	}
	return strings.Contains(msg, "Catalog Error") && strings.Contains(msg, "does not exist")
}

// isConnectionError checks if an error indicates database connection loss
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "bad connection") ||
		strings.Contains(msg, "database is closed")
}
