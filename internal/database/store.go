// Shelfmark - Library Book Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfmark

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tomtom215/shelfmark/internal/config"
	"github.com/tomtom215/shelfmark/internal/metrics"
	"github.com/tomtom215/shelfmark/internal/models"
)

const bookColumns = `
	id,
	COALESCE(title, '') AS title,
	COALESCE(author, '') AS author,
	COALESCE(category, '') AS category,
	COALESCE(description, '') AS description,
	COALESCE(cover_image, '') AS cover_image,
	COALESCE(available_copies, 0) AS available_copies`

// historyQueries select distinct (user_id, book_id) consumption pairs per
// source. Every query ends in a WHERE clause so a user filter can be
// appended.
var historyQueries = map[string]string{
	config.SourceUserInteractions: `
		SELECT DISTINCT user_id, book_id FROM user_interactions
		WHERE user_id IS NOT NULL AND book_id IS NOT NULL
		  AND action_type IN ('borrow', 'purchase')`,
	config.SourcePurchases: `
		SELECT DISTINCT user_id, book_id FROM purchases
		WHERE user_id IS NOT NULL AND book_id IS NOT NULL`,
	config.SourceBookIssues: `
		SELECT DISTINCT user_id, book_id FROM book_issues
		WHERE user_id IS NOT NULL AND book_id IS NOT NULL`,
}

// ListItems returns every catalog item ordered by id. Text columns that
// are NULL come back empty.
func (db *DB) ListItems(ctx context.Context) ([]models.Book, error) {
	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, "SELECT "+bookColumns+" FROM books ORDER BY id")
	if err != nil {
		db.recordQuery("list_items", "books", start, err)
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer closeWithLog(rows, db.logger, "rows")

	var books []models.Book
	for rows.Next() {
		var b models.Book
		if err := scanBook(rows, &b); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, b)
	}
	err = rows.Err()
	db.recordQuery("list_items", "books", start, err)
	if err != nil {
		return nil, fmt.Errorf("iterate books: %w", err)
	}
	return books, nil
}

// GetItem returns one catalog item. A missing row yields an error wrapping
// models.ErrNotFound.
func (db *DB) GetItem(ctx context.Context, itemID int) (*models.Book, error) {
	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	start := time.Now()
	row := db.conn.QueryRowContext(ctx, "SELECT "+bookColumns+" FROM books WHERE id = ?", itemID)

	var b models.Book
	err := scanBook(row, &b)
	if errors.Is(err, sql.ErrNoRows) {
		db.recordQuery("get_item", "books", start, nil)
		return nil, fmt.Errorf("book %d: %w", itemID, models.ErrNotFound)
	}
	db.recordQuery("get_item", "books", start, err)
	if err != nil {
		return nil, fmt.Errorf("query book %d: %w", itemID, err)
	}
	return &b, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner, b *models.Book) error {
	return row.Scan(&b.ID, &b.Title, &b.Author, &b.Category, &b.Description, &b.CoverImage, &b.AvailableCopies)
}

// ListInteractions returns the interaction log assembled from every
// configured source, in source order then row order. Purchases are
// reported as purchase actions and book issues as borrows. Rows with an
// unrecognised action type are skipped. Missing source tables read as
// empty.
func (db *DB) ListInteractions(ctx context.Context) ([]models.Interaction, error) {
	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	var out []models.Interaction
	for _, source := range db.sources {
		var (
			part []models.Interaction
			err  error
		)
		switch source {
		case config.SourceUserInteractions:
			part, err = db.listLoggedInteractions(ctx)
		case config.SourcePurchases:
			part, err = db.listSourceRows(ctx, source,
				`SELECT user_id, book_id, created_at FROM purchases
				 WHERE user_id IS NOT NULL AND book_id IS NOT NULL ORDER BY id`,
				models.ActionPurchase)
		case config.SourceBookIssues:
			part, err = db.listSourceRows(ctx, source,
				`SELECT user_id, book_id, issue_date FROM book_issues
				 WHERE user_id IS NOT NULL AND book_id IS NOT NULL ORDER BY id`,
				models.ActionBorrow)
		default:
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, part...)
	}
	return out, nil
}

func (db *DB) listLoggedInteractions(ctx context.Context) ([]models.Interaction, error) {
	const query = `
		SELECT user_id, book_id, action_type, "timestamp", COALESCE(interaction_data, '')
		FROM user_interactions
		WHERE user_id IS NOT NULL
		ORDER BY id`

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, db.sourceError("list_interactions", config.SourceUserInteractions, start, err)
	}
	defer closeWithLog(rows, db.logger, "rows")

	var (
		out     []models.Interaction
		skipped int
	)
	for rows.Next() {
		var (
			userID  int
			bookID  sql.NullInt64
			action  string
			ts      any
			payload string
		)
		if err := rows.Scan(&userID, &bookID, &action, &ts, &payload); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}

		at := models.ActionType(strings.ToLower(strings.TrimSpace(action)))
		if !at.Valid() {
			skipped++
			continue
		}

		in := models.Interaction{
			UserID:    userID,
			Action:    at,
			Timestamp: parseTimestamp(ts),
			Payload:   payload,
		}
		if bookID.Valid {
			id := int(bookID.Int64)
			in.ItemID = &id
		}
		out = append(out, in)
	}
	err = rows.Err()
	db.recordQuery("list_interactions", config.SourceUserInteractions, start, err)
	if err != nil {
		return nil, fmt.Errorf("iterate interactions: %w", err)
	}

	if skipped > 0 {
		db.logger.Debug().Int("skipped", skipped).Msg("Ignored interactions with unknown action types")
	}
	return out, nil
}

func (db *DB) listSourceRows(ctx context.Context, source, query string, action models.ActionType) ([]models.Interaction, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, db.sourceError("list_interactions", source, start, err)
	}
	defer closeWithLog(rows, db.logger, "rows")

	var out []models.Interaction
	for rows.Next() {
		var (
			userID int
			bookID int
			ts     any
		)
		if err := rows.Scan(&userID, &bookID, &ts); err != nil {
			return nil, fmt.Errorf("scan %s: %w", source, err)
		}
		id := bookID
		out = append(out, models.Interaction{
			UserID:    userID,
			ItemID:    &id,
			Action:    action,
			Timestamp: parseTimestamp(ts),
		})
	}
	err = rows.Err()
	db.recordQuery("list_interactions", source, start, err)
	if err != nil {
		return nil, fmt.Errorf("iterate %s: %w", source, err)
	}
	return out, nil
}

// GetUserHistory returns the distinct ids of items the user borrowed or
// purchased across every configured source, ascending.
func (db *DB) GetUserHistory(ctx context.Context, userID int) ([]int, error) {
	histories, err := db.histories(ctx, "get_user_history", &userID)
	if err != nil {
		return nil, err
	}
	return histories[userID], nil
}

// GetAllHistories returns GetUserHistory for every user with at least one
// consumed item.
func (db *DB) GetAllHistories(ctx context.Context) (map[int][]int, error) {
	return db.histories(ctx, "get_all_histories", nil)
}

func (db *DB) histories(ctx context.Context, operation string, userID *int) (map[int][]int, error) {
	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	sets := make(map[int]map[int]struct{})
	for _, source := range db.sources {
		query, ok := historyQueries[source]
		if !ok {
			continue
		}
		var args []any
		if userID != nil {
			query += " AND user_id = ?"
			args = append(args, *userID)
		}
		if err := db.collectPairs(ctx, operation, source, query, args, sets); err != nil {
			return nil, err
		}
	}

	out := make(map[int][]int, len(sets))
	for user, items := range sets {
		ids := make([]int, 0, len(items))
		for id := range items {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		out[user] = ids
	}
	return out, nil
}

func (db *DB) collectPairs(ctx context.Context, operation, source, query string, args []any, sets map[int]map[int]struct{}) error {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return db.sourceError(operation, source, start, err)
	}
	defer closeWithLog(rows, db.logger, "rows")

	for rows.Next() {
		var user, item int
		if err := rows.Scan(&user, &item); err != nil {
			return fmt.Errorf("scan %s history: %w", source, err)
		}
		if sets[user] == nil {
			sets[user] = make(map[int]struct{})
		}
		sets[user][item] = struct{}{}
	}
	err = rows.Err()
	db.recordQuery(operation, source, start, err)
	if err != nil {
		return fmt.Errorf("iterate %s history: %w", source, err)
	}
	return nil
}

// GetUserRatings returns the user's explicit ratings by item id. Explicit
// ratings are not collected by the library application, so the mapping is
// always empty.
func (db *DB) GetUserRatings(_ context.Context, _ int) (map[int]int, error) {
	return map[int]int{}, nil
}

// InsertRecommendationLog appends one recommendation_logs row per served
// recommendation in a single transaction. A missing table yields an error
// wrapping ErrTableMissing.
func (db *DB) InsertRecommendationLog(ctx context.Context, userID int, recs []models.Recommendation, at time.Time) error {
	if len(recs) == 0 {
		return nil
	}

	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	start := time.Now()
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		db.recordQuery("insert_recommendation_log", "recommendation_logs", start, err)
		return fmt.Errorf("begin transaction: %w", err)
	}

	const stmt = `INSERT INTO recommendation_logs
		(user_id, book_id, recommendation_time, recommendation_type, score)
		VALUES (?, ?, ?, ?, ?)`

	for _, r := range recs {
		if _, err := tx.ExecContext(ctx, stmt, userID, r.ID, at.UTC(), string(r.Type), r.Score); err != nil {
			_ = tx.Rollback()
			if isMissingTable(err) {
				db.recordQuery("insert_recommendation_log", "recommendation_logs", start, nil)
				metrics.RecordMissingTable("recommendation_logs")
				return fmt.Errorf("recommendation_logs: %w", ErrTableMissing)
			}
			db.recordQuery("insert_recommendation_log", "recommendation_logs", start, err)
			return fmt.Errorf("insert recommendation log: %w", err)
		}
	}

	err = tx.Commit()
	db.recordQuery("insert_recommendation_log", "recommendation_logs", start, err)
	if err != nil {
		return fmt.Errorf("commit recommendation log: %w", err)
	}
	return nil
}

// sourceError converts a failed source query into the adapter's result: a
// missing optional table reads as empty (nil error), anything else is
// returned wrapped.
func (db *DB) sourceError(operation, source string, start time.Time, err error) error {
	if isMissingTable(err) {
		db.recordQuery(operation, source, start, nil)
		metrics.RecordMissingTable(source)
		db.logger.Debug().Str("source", source).Msg("Interaction source table missing, treating as empty")
		return nil
	}
	db.recordQuery(operation, source, start, err)
	return fmt.Errorf("query %s: %w", source, err)
}

func (db *DB) recordQuery(operation, table string, start time.Time, err error) {
	metrics.RecordDBQuery(operation, table, time.Since(start), err)
	if isConnectionError(err) {
		db.logger.Error().Err(err).Str("operation", operation).Msg("Database connection lost")
	}
}

// timestampLayouts are the textual timestamp forms found in library
// databases written by different clients.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimestamp converts a scanned timestamp column into a time. Drivers
// return time.Time for typed columns and strings for untyped ones;
// unparseable values become the zero time.
func parseTimestamp(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		return parseTimestampString(t)
	case []byte:
		return parseTimestampString(string(t))
	case int64:
		return time.Unix(t, 0).UTC()
	default:
		return time.Time{}
	}
}

func parseTimestampString(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
