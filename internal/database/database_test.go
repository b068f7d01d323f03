// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package database

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfmark/internal/config"
	"github.com/tomtom215/shelfmark/internal/metrics"
	"github.com/tomtom215/shelfmark/internal/models"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// setupTestDB opens an in-memory SQLite database with the library schema.
func setupTestDB(t *testing.T, sources ...string) *DB {
	t.Helper()

	if len(sources) == 0 {
		sources = []string{config.SourceUserInteractions, config.SourcePurchases}
	}

	db, err := New(&config.DatabaseConfig{
		Driver:       DriverSQLite,
		Path:         memoryPath,
		QueryTimeout: 5 * time.Second,
		Sources:      sources,
		CreateSchema: true,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func mustExec(t *testing.T, db *DB, query string, args ...any) {
	t.Helper()
	if _, err := db.Conn().ExecContext(context.Background(), query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

func seedBooks(t *testing.T, db *DB) {
	t.Helper()
	mustExec(t, db, `INSERT INTO books (id, title, author, category, description, cover_image, available_copies) VALUES
		(1, 'Dune', 'Frank Herbert', 'Science Fiction', 'Desert planet politics', 'dune.jpg', 2),
		(2, 'Foundation', 'Isaac Asimov', 'Science Fiction', NULL, NULL, NULL),
		(3, 'Salt Fat Acid Heat', 'Samin Nosrat', 'Cooking', 'Elements of good cooking', '', 1)`)
}

func seedInteraction(t *testing.T, db *DB, user int, book any, action string, offset time.Duration) {
	t.Helper()
	mustExec(t, db,
		`INSERT INTO user_interactions (user_id, book_id, action_type, "timestamp", interaction_data) VALUES (?, ?, ?, ?, ?)`,
		user, book, action, baseTime.Add(offset), `{"source":"test"}`)
}

func TestNew(t *testing.T) {
	t.Run("unsupported driver", func(t *testing.T) {
		_, err := New(&config.DatabaseConfig{Driver: "postgres", Path: memoryPath}, zerolog.Nop())
		if err == nil || !strings.Contains(err.Error(), "unsupported database driver") {
			t.Fatalf("expected unsupported driver error, got %v", err)
		}
	})

	t.Run("nil config", func(t *testing.T) {
		if _, err := New(nil, zerolog.Nop()); err == nil {
			t.Fatal("expected error for nil config")
		}
	})

	t.Run("sqlite memory", func(t *testing.T) {
		db := setupTestDB(t)
		if db.Driver() != DriverSQLite {
			t.Errorf("Driver() = %q", db.Driver())
		}
		if err := db.Ping(context.Background()); err != nil {
			t.Errorf("Ping() error = %v", err)
		}
	})
}

func TestDataSourceName(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.DatabaseConfig
		want string
	}{
		{"duckdb memory", config.DatabaseConfig{Driver: DriverDuckDB, Path: memoryPath}, ""},
		{"duckdb file", config.DatabaseConfig{Driver: DriverDuckDB, Path: "/data/lib.duckdb", Threads: 4},
			"/data/lib.duckdb?access_mode=read_write&threads=4"},
		{"duckdb max memory", config.DatabaseConfig{Driver: DriverDuckDB, Path: "/data/lib.duckdb", Threads: 2, MaxMemory: "1GB"},
			"/data/lib.duckdb?access_mode=read_write&threads=2&max_memory=1GB"},
		{"sqlite memory", config.DatabaseConfig{Driver: DriverSQLite, Path: memoryPath}, memoryPath},
		{"sqlite file", config.DatabaseConfig{Driver: DriverSQLite, Path: "/data/lib.db"},
			"file:/data/lib.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := dataSourceName(&tt.cfg)
			if err != nil {
				t.Fatalf("dataSourceName() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("dataSourceName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	if err := db.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("second EnsureSchema() error = %v", err)
	}
}

func TestCreateTableStatements_DuckDB(t *testing.T) {
	db := &DB{cfg: &config.DatabaseConfig{Driver: DriverDuckDB}}
	stmts := db.createTableStatements("books", "\n\t\t{{id}},\n\t\ttitle TEXT")
	if len(stmts) != 2 {
		t.Fatalf("expected sequence and table statements, got %d", len(stmts))
	}
	if !strings.HasPrefix(stmts[0], "CREATE SEQUENCE IF NOT EXISTS books_id_seq") {
		t.Errorf("unexpected sequence statement: %s", stmts[0])
	}
	if !strings.Contains(stmts[1], "DEFAULT nextval('books_id_seq')") {
		t.Errorf("table statement missing sequence default: %s", stmts[1])
	}
}

func TestListItems(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	books, err := db.ListItems(ctx)
	if err != nil {
		t.Fatalf("ListItems() on empty catalog error = %v", err)
	}
	if len(books) != 0 {
		t.Fatalf("expected empty catalog, got %d books", len(books))
	}

	seedBooks(t, db)
	books, err = db.ListItems(ctx)
	if err != nil {
		t.Fatalf("ListItems() error = %v", err)
	}
	if len(books) != 3 {
		t.Fatalf("expected 3 books, got %d", len(books))
	}
	for i, want := range []int{1, 2, 3} {
		if books[i].ID != want {
			t.Errorf("books[%d].ID = %d, want %d", i, books[i].ID, want)
		}
	}

	// NULL columns come back empty.
	if books[1].Description != "" || books[1].CoverImage != "" || books[1].AvailableCopies != 0 {
		t.Errorf("expected NULL columns to be empty, got %+v", books[1])
	}
	if books[0].Author != "Frank Herbert" || books[0].AvailableCopies != 2 {
		t.Errorf("unexpected book 1: %+v", books[0])
	}
}

func TestGetItem(t *testing.T) {
	db := setupTestDB(t)
	seedBooks(t, db)
	ctx := context.Background()

	book, err := db.GetItem(ctx, 3)
	if err != nil {
		t.Fatalf("GetItem(3) error = %v", err)
	}
	if book.Title != "Salt Fat Acid Heat" || book.Category != "Cooking" {
		t.Errorf("unexpected book: %+v", book)
	}

	_, err = db.GetItem(ctx, 42)
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("GetItem(42) error = %v, want ErrNotFound", err)
	}
}

func TestListInteractions(t *testing.T) {
	db := setupTestDB(t, config.SourceUserInteractions, config.SourcePurchases, config.SourceBookIssues)
	seedBooks(t, db)
	ctx := context.Background()

	seedInteraction(t, db, 1, 1, "view", 0)
	seedInteraction(t, db, 1, nil, "search", time.Minute)
	seedInteraction(t, db, 2, 2, "BORROW", 2*time.Minute)
	seedInteraction(t, db, 2, 3, "rate", 3*time.Minute)
	mustExec(t, db, "INSERT INTO purchases (user_id, book_id, amount, created_at) VALUES (3, 3, 9.99, ?)", baseTime)
	mustExec(t, db, "INSERT INTO book_issues (book_id, user_id, issue_date) VALUES (1, 4, ?)", "2026-02-01")

	got, err := db.ListInteractions(ctx)
	if err != nil {
		t.Fatalf("ListInteractions() error = %v", err)
	}

	type row struct {
		user   int
		item   int
		action models.ActionType
	}
	var rows []row
	for _, in := range got {
		item := 0
		if in.ItemID != nil {
			item = *in.ItemID
		}
		rows = append(rows, row{in.UserID, item, in.Action})
	}

	want := []row{
		{1, 1, models.ActionView},
		{1, 0, models.ActionSearch},
		{2, 2, models.ActionBorrow},
		{3, 3, models.ActionPurchase},
		{4, 1, models.ActionBorrow},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("ListInteractions() = %+v, want %+v", rows, want)
	}

	if got[0].Payload != `{"source":"test"}` {
		t.Errorf("payload = %q", got[0].Payload)
	}
	if !got[0].Timestamp.Equal(baseTime) {
		t.Errorf("timestamp = %v, want %v", got[0].Timestamp, baseTime)
	}
	if got[4].Timestamp.IsZero() {
		t.Error("expected book issue date to be parsed")
	}
}

func TestHistories(t *testing.T) {
	db := setupTestDB(t)
	seedBooks(t, db)
	ctx := context.Background()

	seedInteraction(t, db, 1, 3, "borrow", 0)
	seedInteraction(t, db, 1, 1, "purchase", time.Minute)
	seedInteraction(t, db, 1, 1, "borrow", 2*time.Minute)
	seedInteraction(t, db, 1, 2, "view", 3*time.Minute)
	seedInteraction(t, db, 2, 2, "reservation", 0)
	mustExec(t, db, "INSERT INTO purchases (user_id, book_id, amount) VALUES (1, 2, 5), (3, 1, 5)")

	history, err := db.GetUserHistory(ctx, 1)
	if err != nil {
		t.Fatalf("GetUserHistory() error = %v", err)
	}
	if want := []int{1, 2, 3}; !reflect.DeepEqual(history, want) {
		t.Errorf("GetUserHistory(1) = %v, want %v", history, want)
	}

	history, err = db.GetUserHistory(ctx, 2)
	if err != nil {
		t.Fatalf("GetUserHistory(2) error = %v", err)
	}
	if len(history) != 0 {
		t.Errorf("views and reservations must not enter history, got %v", history)
	}

	all, err := db.GetAllHistories(ctx)
	if err != nil {
		t.Fatalf("GetAllHistories() error = %v", err)
	}
	want := map[int][]int{1: {1, 2, 3}, 3: {1}}
	if !reflect.DeepEqual(all, want) {
		t.Errorf("GetAllHistories() = %v, want %v", all, want)
	}
}

func TestMissingSourceTable(t *testing.T) {
	db := setupTestDB(t)
	seedBooks(t, db)
	ctx := context.Background()

	seedInteraction(t, db, 1, 1, "borrow", 0)
	mustExec(t, db, "DROP TABLE purchases")

	before := testutil.ToFloat64(metrics.DBMissingTables.WithLabelValues(config.SourcePurchases))

	got, err := db.ListInteractions(ctx)
	if err != nil {
		t.Fatalf("ListInteractions() with missing table error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 interaction, got %d", len(got))
	}

	history, err := db.GetUserHistory(ctx, 1)
	if err != nil {
		t.Fatalf("GetUserHistory() with missing table error = %v", err)
	}
	if !reflect.DeepEqual(history, []int{1}) {
		t.Errorf("GetUserHistory() = %v", history)
	}

	after := testutil.ToFloat64(metrics.DBMissingTables.WithLabelValues(config.SourcePurchases))
	if after-before != 2 {
		t.Errorf("missing table counter delta = %v, want 2", after-before)
	}
}

func TestGetUserRatings(t *testing.T) {
	db := setupTestDB(t)
	ratings, err := db.GetUserRatings(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetUserRatings() error = %v", err)
	}
	if ratings == nil || len(ratings) != 0 {
		t.Errorf("GetUserRatings() = %v, want empty map", ratings)
	}
}

func TestInsertRecommendationLog(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	recs := []models.Recommendation{
		{ID: 2, Score: 0.8, Type: models.ProvenanceHybrid},
		{ID: 5, Score: 0.1, Type: models.ProvenancePopular},
	}
	if err := db.InsertRecommendationLog(ctx, 7, recs, baseTime); err != nil {
		t.Fatalf("InsertRecommendationLog() error = %v", err)
	}
	if err := db.InsertRecommendationLog(ctx, 7, nil, baseTime); err != nil {
		t.Fatalf("InsertRecommendationLog() with no recommendations error = %v", err)
	}

	rows, err := db.Conn().QueryContext(ctx,
		"SELECT user_id, book_id, recommendation_type, score, clicked, borrowed FROM recommendation_logs ORDER BY id")
	if err != nil {
		t.Fatalf("query logs: %v", err)
	}
	defer rows.Close()

	var n int
	for rows.Next() {
		var (
			user, book, clicked, borrowed int
			kind                          string
			score                         float64
		)
		if err := rows.Scan(&user, &book, &kind, &score, &clicked, &borrowed); err != nil {
			t.Fatalf("scan: %v", err)
		}
		if user != 7 || book != recs[n].ID || kind != string(recs[n].Type) || score != recs[n].Score {
			t.Errorf("row %d = (%d, %d, %s, %v)", n, user, book, kind, score)
		}
		if clicked != 0 || borrowed != 0 {
			t.Errorf("row %d: clicked/borrowed should default to 0", n)
		}
		n++
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows: %v", err)
	}
	if n != len(recs) {
		t.Errorf("expected %d log rows, got %d", len(recs), n)
	}

	t.Run("missing table", func(t *testing.T) {
		mustExec(t, db, "DROP TABLE recommendation_logs")
		err := db.InsertRecommendationLog(ctx, 7, recs, baseTime)
		if !errors.Is(err, ErrTableMissing) {
			t.Errorf("expected ErrTableMissing, got %v", err)
		}
	})
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want time.Time
	}{
		{"time value", baseTime, baseTime},
		{"rfc3339", "2026-03-01T12:00:00Z", baseTime},
		{"sql datetime", "2026-03-01 12:00:00", baseTime},
		{"bytes", []byte("2026-03-01 12:00:00"), baseTime},
		{"date only", "2026-03-01", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"unix seconds", baseTime.Unix(), baseTime},
		{"garbage", "yesterday", time.Time{}},
		{"nil", nil, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseTimestamp(tt.in); !got.Equal(tt.want) {
				t.Errorf("parseTimestamp(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsMissingTable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("SQL logic error: no such table: purchases (1)"), true},
		{errors.New("Catalog Error: Table with name purchases does not exist!"), true},
		{errors.New("Catalog Error: Scalar Function with name foo does not exist!"), true},
		{errors.New("syntax error"), false},
	}
	for _, tt := range tests {
		if got := isMissingTable(tt.err); got != tt.want {
			t.Errorf("isMissingTable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
