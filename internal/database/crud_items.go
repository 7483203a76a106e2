// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

/*
crud_items.go - Item Persistence

UpsertItems implements the dedup-aware save path: items are identified by
URL, batches run in one transaction, and a conflict updates content columns
while preserving everything the user or the scorer owns (is_read,
is_favorite, score, category, created_at). Empty incoming content never
overwrites existing content.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/techwatch/techwatch/internal/metrics"
	"github.com/techwatch/techwatch/internal/models"
)

// UpsertItems saves a batch of normalized items for one source in a single
// transaction. Returns the number of rows written (inserted or updated).
// Any failure rolls the whole batch back.
func (db *DB) UpsertItems(ctx context.Context, items []models.NormalizedItem, sourceID int64, sourceType string) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	saved := 0
	for i := range items {
		item := &items[i]
		isVideo := item.IsVideo || models.VideoSourceTypes[sourceType]

		tagsJSON, err := json.Marshal(item.Tags)
		if err != nil {
			closeQuietlyTx(tx)
			return 0, fmt.Errorf("failed to marshal tags for %s: %w", item.URL, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO items (
				source_id, source_type, external_id, title, url, content,
				author, tags, published_at, upvotes, comments_count, is_video,
				video_id, channel_id, channel_name, duration_seconds,
				view_count, thumbnail_url
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (url) DO UPDATE SET
				source_id = excluded.source_id,
				source_type = excluded.source_type,
				external_id = excluded.external_id,
				title = excluded.title,
				content = CASE WHEN excluded.content != '' THEN excluded.content ELSE items.content END,
				author = CASE WHEN excluded.author != '' THEN excluded.author ELSE items.author END,
				tags = CASE WHEN excluded.tags != '[]' THEN excluded.tags ELSE items.tags END,
				published_at = excluded.published_at,
				upvotes = CASE WHEN excluded.upvotes > 0 THEN excluded.upvotes ELSE items.upvotes END,
				comments_count = CASE WHEN excluded.comments_count > 0 THEN excluded.comments_count ELSE items.comments_count END,
				is_video = excluded.is_video,
				video_id = CASE WHEN excluded.video_id != '' THEN excluded.video_id ELSE items.video_id END,
				channel_id = CASE WHEN excluded.channel_id != '' THEN excluded.channel_id ELSE items.channel_id END,
				channel_name = CASE WHEN excluded.channel_name != '' THEN excluded.channel_name ELSE items.channel_name END,
				duration_seconds = CASE WHEN excluded.duration_seconds > 0 THEN excluded.duration_seconds ELSE items.duration_seconds END,
				view_count = CASE WHEN excluded.view_count > 0 THEN excluded.view_count ELSE items.view_count END,
				thumbnail_url = CASE WHEN excluded.thumbnail_url != '' THEN excluded.thumbnail_url ELSE items.thumbnail_url END,
				updated_at = now()`,
			sourceID, sourceType, item.ExternalID, item.Title, item.URL, item.Content,
			item.Author, string(tagsJSON), item.PublishedAt, item.Upvotes,
			item.CommentsCount, isVideo, item.VideoID, item.ChannelID,
			item.ChannelName, item.DurationSeconds, item.ViewCount,
			item.ThumbnailURL,
		)
		if err != nil {
			closeQuietlyTx(tx)
			metrics.RecordDBQuery("UPSERT", "items", time.Since(start), err)
			return 0, fmt.Errorf("failed to upsert item %s: %w", item.URL, err)
		}
		saved++
	}

	if err := tx.Commit(); err != nil {
		metrics.RecordDBQuery("UPSERT", "items", time.Since(start), err)
		return 0, fmt.Errorf("failed to commit item batch: %w", err)
	}

	metrics.RecordDBQuery("UPSERT", "items", time.Since(start), nil)
	return saved, nil
}

// GetItemByURL returns the item with the given URL, or ErrNotFound.
func (db *DB) GetItemByURL(ctx context.Context, url string) (*models.Item, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx, selectItemColumns+` FROM items WHERE url = ?`, url)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("item %q: %w", url, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get item by url: %w", err)
	}
	return item, nil
}

// GetItemsByIDs returns the items with the given ids, in no particular order.
func (db *DB) GetItemsByIDs(ctx context.Context, ids []int64) ([]models.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	placeholders, args := placeholdersFor(ids)
	query := selectItemColumns + fmt.Sprintf(` FROM items WHERE id IN (%s)`, placeholders)

	return db.queryItems(ctx, query, args...)
}

// ListItems returns items matching the filter, newest first by default.
func (db *DB) ListItems(ctx context.Context, filter ItemFilter) ([]models.Item, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	whereClause, args := filter.buildWhereClause()
	query := selectItemColumns + ` FROM items WHERE 1=1` + whereClause

	query += ` ORDER BY ` + filter.orderBy()
	limit, offset := filter.limitOffset()
	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	return db.queryItems(ctx, query, args...)
}

// UnscoredItems returns up to limit items without a relevance score,
// newest first.
func (db *DB) UnscoredItems(ctx context.Context, limit int) ([]models.Item, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := selectItemColumns + `
		FROM items
		WHERE score IS NULL OR score = 0
		ORDER BY created_at DESC
		LIMIT ?`
	return db.queryItems(ctx, query, limit)
}

// RecentItemIDs returns the ids of the most recently ingested items.
func (db *DB) RecentItemIDs(ctx context.Context, limit int) ([]int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id FROM items ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent item ids: %w", err)
	}
	defer closeWithLog(rows, "item id rows")

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan item id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateItemScore writes the global relevance score and category for an item.
func (db *DB) UpdateItemScore(ctx context.Context, itemID int64, score float64, category string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `
		UPDATE items SET score = ?, category = ?, updated_at = current_timestamp
		WHERE id = ?`, score, category, itemID)
	if err != nil {
		return fmt.Errorf("failed to update score for item %d: %w", itemID, err)
	}
	return nil
}

// ResetItemScores clears all global scores so a full rescore can run.
func (db *DB) ResetItemScores(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `UPDATE items SET score = NULL, category = ''`)
	if err != nil {
		return fmt.Errorf("failed to reset item scores: %w", err)
	}
	return nil
}

// ItemsWithoutSummary returns items that have content but no summary yet.
func (db *DB) ItemsWithoutSummary(ctx context.Context, limit int) ([]models.Item, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := selectItemColumns + `
		FROM items
		WHERE summary = '' AND content != ''
		ORDER BY created_at DESC
		LIMIT ?`
	return db.queryItems(ctx, query, limit)
}

// UpdateItemSummary writes an AI-generated summary for an item.
func (db *DB) UpdateItemSummary(ctx context.Context, itemID int64, summary string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `
		UPDATE items SET summary = ?, updated_at = current_timestamp
		WHERE id = ?`, summary, itemID)
	if err != nil {
		return fmt.Errorf("failed to update summary for item %d: %w", itemID, err)
	}
	return nil
}

// CountItems returns the total number of stored items.
func (db *DB) CountItems(ctx context.Context) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return count, nil
}

const selectItemColumns = `
	SELECT id, source_id, source_type, external_id, title, url, content,
		summary, author, tags, published_at, upvotes, comments_count, score,
		category, is_read, is_favorite, is_video, video_id, channel_id,
		channel_name, duration_seconds, view_count, thumbnail_url,
		created_at, updated_at`

func (db *DB) queryItems(ctx context.Context, query string, args ...interface{}) ([]models.Item, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer closeWithLog(rows, "item rows")

	var items []models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}
	return items, nil
}

func scanItem(row rowScanner) (*models.Item, error) {
	var (
		item     models.Item
		tagsJSON string
		score    sql.NullFloat64
	)
	err := row.Scan(&item.ID, &item.SourceID, &item.SourceType, &item.ExternalID,
		&item.Title, &item.URL, &item.Content, &item.Summary, &item.Author,
		&tagsJSON, &item.PublishedAt, &item.Upvotes, &item.CommentsCount,
		&score, &item.Category, &item.IsRead, &item.IsFavorite, &item.IsVideo,
		&item.VideoID, &item.ChannelID, &item.ChannelName,
		&item.DurationSeconds, &item.ViewCount, &item.ThumbnailURL,
		&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if score.Valid {
		item.Score = score.Float64
	}
	if err := json.Unmarshal([]byte(tagsJSON), &item.Tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags for item %d: %w", item.ID, err)
	}
	return &item, nil
}

// placeholdersFor builds a "?, ?, ?" list and the matching args slice.
func placeholdersFor(ids []int64) (string, []interface{}) {
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return join(placeholders, ","), args
}

// closeQuietlyTx rolls back a transaction, ignoring the error.
func closeQuietlyTx(tx *sql.Tx) {
	_ = tx.Rollback() // rollback after failure is best-effort
}
