// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/techwatch/techwatch/internal/models"
)

// KeywordActivity returns how many items published since the given time
// mention the keyword in their title, and the average relevance score of
// those items. The window filters on published_at so backfilled old items
// never inflate a day's activity. Matching is a case-insensitive substring
// match; unscored items count as 0.
func (db *DB) KeywordActivity(ctx context.Context, keyword string, since time.Time) (count int, avgScore float64, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	pattern := "%" + strings.ToLower(keyword) + "%"
	err = db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(AVG(COALESCE(score, 0)), 0)
		FROM items
		WHERE lower(title) LIKE ? AND published_at >= ?`,
		pattern, since).Scan(&count, &avgScore)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query keyword activity for %q: %w", keyword, err)
	}
	return count, avgScore, nil
}

// UpsertTrend writes one keyword/day aggregate. Re-running a detection pass
// for the same day overwrites the previous row.
func (db *DB) UpsertTrend(ctx context.Context, trend *models.Trend) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO trends (keyword, category, date, item_count, avg_score, trend_score)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (keyword, date) DO UPDATE SET
			category = excluded.category,
			item_count = excluded.item_count,
			avg_score = excluded.avg_score,
			trend_score = excluded.trend_score`,
		trend.Keyword, trend.Category, trend.Date, trend.ItemCount, trend.AvgScore, trend.TrendScore)
	if err != nil {
		return fmt.Errorf("failed to upsert trend %q/%s: %w",
			trend.Keyword, trend.Date.Format("2006-01-02"), err)
	}
	return nil
}

// ListTrends returns trend rows for the given day, highest trend score first.
func (db *DB) ListTrends(ctx context.Context, date time.Time, limit int) ([]models.Trend, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if limit <= 0 {
		limit = DefaultPageSize
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, keyword, category, date, item_count, avg_score, trend_score, created_at
		FROM trends WHERE date = ?
		ORDER BY trend_score DESC
		LIMIT ?`, date, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trends: %w", err)
	}
	defer closeWithLog(rows, "trend rows")

	var trends []models.Trend
	for rows.Next() {
		var t models.Trend
		if err := rows.Scan(&t.ID, &t.Keyword, &t.Category, &t.Date, &t.ItemCount, &t.AvgScore, &t.TrendScore, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trend: %w", err)
		}
		trends = append(trends, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trends: %w", err)
	}
	return trends, nil
}

// DeleteTrendsOlderThan removes trend rows older than the cutoff and returns
// how many rows were deleted.
func (db *DB) DeleteTrendsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx, `DELETE FROM trends WHERE date < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old trends: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted trends: %w", err)
	}
	return deleted, nil
}
