// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

/*
schema.go - Database Schema Management

This file manages the DuckDB schema: sequences, tables, and indexes.

Tables:
  - sources: configured content sources, one row per scraper plugin instance
  - items: deduplicated content items (unique index on url)
  - keywords: global interest keywords with category and weight
  - user_keywords: per-user interest keywords
  - user_item_scores: personalized scores, one row per (user, item)
  - trends: daily per-keyword activity aggregates (unique on keyword+date)
  - ingestion_runs: one row per orchestrated ingestion pass
  - youtube_channels: channel registry for the youtube_rss plugin

Schema Strategy (Pre-Release):
All columns are defined in the initial CREATE TABLE statements; there is no
migration machinery yet. DuckDB does not support IDENTITY with PRIMARY KEY,
so integer ids come from explicit sequences.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates sequences and core tables.
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

// tableCreationQueries returns the DDL statements in dependency order.
func tableCreationQueries() []string {
	return []string{
		`CREATE SEQUENCE IF NOT EXISTS seq_sources_id START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_items_id START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_keywords_id START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_user_keywords_id START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_trends_id START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_runs_id START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_channels_id START 1`,

		`CREATE TABLE IF NOT EXISTS sources (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_sources_id'),
			name TEXT NOT NULL,
			source_type TEXT NOT NULL UNIQUE,
			config TEXT NOT NULL DEFAULT '{}',
			is_active BOOLEAN NOT NULL DEFAULT true,
			last_scraped_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp,
			updated_at TIMESTAMP NOT NULL DEFAULT current_timestamp
		)`,

		`CREATE TABLE IF NOT EXISTS items (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_items_id'),
			source_id BIGINT NOT NULL,
			source_type TEXT NOT NULL,
			external_id TEXT NOT NULL,
			title TEXT NOT NULL,
			url TEXT NOT NULL UNIQUE,
			content TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT '',
			author TEXT NOT NULL DEFAULT '',
			tags TEXT NOT NULL DEFAULT '[]',
			published_at TIMESTAMP NOT NULL,
			upvotes BIGINT NOT NULL DEFAULT 0,
			comments_count BIGINT NOT NULL DEFAULT 0,
			score DOUBLE,
			category TEXT NOT NULL DEFAULT '',
			is_read BOOLEAN NOT NULL DEFAULT false,
			is_favorite BOOLEAN NOT NULL DEFAULT false,
			is_video BOOLEAN NOT NULL DEFAULT false,
			video_id TEXT NOT NULL DEFAULT '',
			channel_id TEXT NOT NULL DEFAULT '',
			channel_name TEXT NOT NULL DEFAULT '',
			duration_seconds BIGINT NOT NULL DEFAULT 0,
			view_count BIGINT NOT NULL DEFAULT 0,
			thumbnail_url TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp,
			updated_at TIMESTAMP NOT NULL DEFAULT current_timestamp
		)`,

		`CREATE TABLE IF NOT EXISTS keywords (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_keywords_id'),
			keyword TEXT NOT NULL UNIQUE,
			category TEXT NOT NULL DEFAULT 'other',
			weight DOUBLE NOT NULL DEFAULT 1.0,
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp
		)`,

		`CREATE TABLE IF NOT EXISTS user_keywords (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_user_keywords_id'),
			user_id BIGINT NOT NULL,
			keyword TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT 'other',
			weight DOUBLE NOT NULL DEFAULT 1.0,
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp,
			UNIQUE (user_id, keyword)
		)`,

		`CREATE TABLE IF NOT EXISTS user_item_scores (
			user_id BIGINT NOT NULL,
			item_id BIGINT NOT NULL,
			score DOUBLE NOT NULL,
			keyword_matches INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp,
			PRIMARY KEY (user_id, item_id)
		)`,

		`CREATE TABLE IF NOT EXISTS trends (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_trends_id'),
			keyword TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			date DATE NOT NULL,
			item_count INTEGER NOT NULL DEFAULT 0,
			avg_score DOUBLE NOT NULL DEFAULT 0,
			trend_score DOUBLE NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp,
			UNIQUE (keyword, date)
		)`,

		`CREATE TABLE IF NOT EXISTS ingestion_runs (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_runs_id'),
			task_id TEXT NOT NULL UNIQUE,
			status TEXT NOT NULL,
			started_at TIMESTAMP NOT NULL DEFAULT current_timestamp,
			completed_at TIMESTAMP,
			items_found INTEGER NOT NULL DEFAULT 0,
			items_saved INTEGER NOT NULL DEFAULT 0,
			sources_succeeded INTEGER NOT NULL DEFAULT 0,
			sources_failed INTEGER NOT NULL DEFAULT 0,
			error_message TEXT NOT NULL DEFAULT '',
			sources TEXT NOT NULL DEFAULT '[]'
		)`,

		`CREATE TABLE IF NOT EXISTS youtube_channels (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_channels_id'),
			channel_id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT true,
			last_video_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp
		)`,
	}
}

// createIndexes creates indexes for frequent query patterns.
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_items_published_at ON items (published_at)`,
		`CREATE INDEX IF NOT EXISTS idx_items_source_type ON items (source_type)`,
		`CREATE INDEX IF NOT EXISTS idx_items_score ON items (score)`,
		`CREATE INDEX IF NOT EXISTS idx_items_category ON items (category)`,
		`CREATE INDEX IF NOT EXISTS idx_items_created_at ON items (created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_trends_date ON trends (date)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON ingestion_runs (started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_user_keywords_user ON user_keywords (user_id)`,
	}

	for _, query := range indexes {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", query, err)
		}
	}
	return nil
}
