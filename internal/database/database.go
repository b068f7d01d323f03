// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/tomtom215/shelfmark/internal/config"
)

// Supported database/sql driver names.
const (
	DriverDuckDB = "duckdb"
	DriverSQLite = "sqlite"
)

// memoryPath selects an in-memory database for either driver.
const memoryPath = ":memory:"

// DB wraps the library database connection and provides the read
// queries the recommendation engine depends on, plus the append-only
// recommendation log.
type DB struct {
	conn    *sql.DB
	cfg     *config.DatabaseConfig
	logger  zerolog.Logger
	sources []string
}

// New opens the database named by cfg. When cfg.CreateSchema is set the
// library tables are created if they do not exist yet.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func New(cfg *config.DatabaseConfig, logger zerolog.Logger) (*DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}

	dsn, err := dataSourceName(cfg)
	if err != nil {
		return nil, err
	}

	// Ensure parent directory exists for database file
	if cfg.Path != memoryPath {
		if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}

	conn, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{
		conn:    conn,
		cfg:     cfg,
		logger:  logger.With().Str("component", "database").Str("driver", cfg.Driver).Logger(),
		sources: append([]string(nil), cfg.Sources...),
	}

	db.configureConnectionPool()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.CreateSchema {
		if err := db.EnsureSchema(ctx); err != nil {
			closeQuietly(conn)
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	db.logger.Info().
		Str("path", cfg.Path).
		Strs("sources", db.sources).
		Msg("Database opened")

	return db, nil
}

// dataSourceName builds the driver-specific connection string.
func dataSourceName(cfg *config.DatabaseConfig) (string, error) {
	switch cfg.Driver {
	case DriverDuckDB:
		if cfg.Path == memoryPath {
			return "", nil
		}
		threads := cfg.Threads
		if threads <= 0 {
			threads = runtime.NumCPU()
		}
		dsn := fmt.Sprintf("%s?access_mode=read_write&threads=%d", cfg.Path, threads)
		if cfg.MaxMemory != "" {
			dsn += "&max_memory=" + cfg.MaxMemory
		}
		return dsn, nil
	case DriverSQLite:
		if cfg.Path == memoryPath {
			return memoryPath, nil
		}
		return "file:" + cfg.Path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Driver returns the database/sql driver name in use.
func (db *DB) Driver() string {
	return db.cfg.Driver
}

// Conn returns the underlying SQL database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Ping checks if the database connection is alive
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// Close closes the database connection. DuckDB databases are checkpointed
// first so the WAL is flushed into the main file.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}

	if db.cfg.Driver == DriverDuckDB && db.cfg.Path != memoryPath {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
			db.logger.Warn().Err(err).Msg("Failed to checkpoint database before close")
		}
		cancel()
	}

	return db.conn.Close()
}

// queryContext bounds a store call by the configured query timeout.
func (db *DB) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if db.cfg.QueryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, db.cfg.QueryTimeout)
}
