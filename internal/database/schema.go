// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package database

import (
	"context"
	"fmt"
	"strings"
)

// schemaTables lists the tables EnsureSchema creates, in dependency order.
// Each definition carries an {{id}} placeholder for the dialect-specific
// surrogate key column.
var schemaTables = []struct {
	name    string
	columns string
}{
	{"books", `
		{{id}},
		title TEXT NOT NULL,
		author TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		description TEXT,
		cover_image TEXT,
		available_copies INTEGER DEFAULT 1`},
	{"user_interactions", `
		{{id}},
		user_id INTEGER NOT NULL,
		book_id INTEGER,
		action_type TEXT NOT NULL,
		"timestamp" TIMESTAMP NOT NULL,
		interaction_data TEXT`},
	{"purchases", `
		{{id}},
		user_id INTEGER,
		book_id INTEGER,
		amount DECIMAL(10,2) NOT NULL DEFAULT 0,
		status TEXT DEFAULT 'completed',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP`},
	{"book_issues", `
		{{id}},
		book_id INTEGER,
		user_id INTEGER,
		issue_date DATE NOT NULL,
		due_date DATE,
		return_date DATE,
		status TEXT DEFAULT 'issued'`},
	{"recommendation_logs", `
		{{id}},
		user_id INTEGER NOT NULL,
		book_id INTEGER NOT NULL,
		recommendation_time TIMESTAMP NOT NULL,
		recommendation_type TEXT NOT NULL,
		score REAL,
		clicked INTEGER DEFAULT 0,
		borrowed INTEGER DEFAULT 0`},
}

var schemaIndexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_interactions_user ON user_interactions(user_id)",
	"CREATE INDEX IF NOT EXISTS idx_interactions_book ON user_interactions(book_id)",
	"CREATE INDEX IF NOT EXISTS idx_interactions_action ON user_interactions(action_type)",
	"CREATE INDEX IF NOT EXISTS idx_purchases_user ON purchases(user_id)",
	"CREATE INDEX IF NOT EXISTS idx_book_issues_user ON book_issues(user_id)",
}

// EnsureSchema creates the library tables used by the engine when they do
// not exist. Existing tables are left untouched.
func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, table := range schemaTables {
		for _, stmt := range db.createTableStatements(table.name, table.columns) {
			if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("create table %s: %w", table.name, err)
			}
		}
	}

	for _, stmt := range schemaIndexes {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	db.logger.Debug().Int("tables", len(schemaTables)).Msg("Schema ensured")
	return nil
}

// createTableStatements renders one table for the active dialect. SQLite
// assigns INTEGER PRIMARY KEY values itself; DuckDB needs a sequence.
func (db *DB) createTableStatements(name, columns string) []string {
	var idColumn string
	var stmts []string

	switch db.cfg.Driver {
	case DriverDuckDB:
		seq := name + "_id_seq"
		stmts = append(stmts, fmt.Sprintf("CREATE SEQUENCE IF NOT EXISTS %s START 1", seq))
		idColumn = fmt.Sprintf("id BIGINT PRIMARY KEY DEFAULT nextval('%s')", seq)
	default:
		idColumn = "id INTEGER PRIMARY KEY"
	}

	body := strings.ReplaceAll(columns, "{{id}}", idColumn)
	return append(stmts, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s\n\t)", name, body))
}
