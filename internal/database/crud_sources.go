// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/techwatch/techwatch/internal/models"
)

// CreateSource inserts a new source and returns it with the assigned id.
func (db *DB) CreateSource(ctx context.Context, source *models.Source) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	cfgJSON, err := json.Marshal(source.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal source config: %w", err)
	}

	err = db.conn.QueryRowContext(ctx, `
		INSERT INTO sources (name, source_type, config, is_active)
		VALUES (?, ?, ?, ?)
		RETURNING id, created_at, updated_at`,
		source.Name, source.SourceType, string(cfgJSON), source.IsActive,
	).Scan(&source.ID, &source.CreatedAt, &source.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert source %s: %w", source.SourceType, err)
	}
	return nil
}

// GetSourceByType returns the source configured for the given plugin type.
// Returns ErrSourceNotFound when no row exists.
func (db *DB) GetSourceByType(ctx context.Context, sourceType string) (*models.Source, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx, `
		SELECT id, name, source_type, config, is_active, last_scraped_at, created_at, updated_at
		FROM sources WHERE source_type = ?`, sourceType)

	source, err := scanSource(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("source type %q: %w", sourceType, ErrSourceNotFound)
		}
		return nil, fmt.Errorf("failed to get source %s: %w", sourceType, err)
	}
	return source, nil
}

// ListSources returns all sources, optionally restricted to active ones.
func (db *DB) ListSources(ctx context.Context, onlyActive bool) ([]models.Source, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `
		SELECT id, name, source_type, config, is_active, last_scraped_at, created_at, updated_at
		FROM sources`
	if onlyActive {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY id`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer closeWithLog(rows, "sources rows")

	var sources []models.Source
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		sources = append(sources, *source)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sources: %w", err)
	}
	return sources, nil
}

// TouchSourceScraped updates last_scraped_at for a source after a scrape.
func (db *DB) TouchSourceScraped(ctx context.Context, sourceID int64, at time.Time) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `
		UPDATE sources SET last_scraped_at = ?, updated_at = current_timestamp
		WHERE id = ?`, at, sourceID)
	if err != nil {
		return fmt.Errorf("failed to touch source %d: %w", sourceID, err)
	}
	return nil
}

// SetSourceActive enables or disables a source.
func (db *DB) SetSourceActive(ctx context.Context, sourceID int64, active bool) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx, `
		UPDATE sources SET is_active = ?, updated_at = current_timestamp
		WHERE id = ?`, active, sourceID)
	if err != nil {
		return fmt.Errorf("failed to update source %d: %w", sourceID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("source %d: %w", sourceID, ErrNotFound)
	}
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSource(row rowScanner) (*models.Source, error) {
	var (
		source  models.Source
		cfgJSON string
		scraped sql.NullTime
	)
	err := row.Scan(&source.ID, &source.Name, &source.SourceType, &cfgJSON,
		&source.IsActive, &scraped, &source.CreatedAt, &source.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if scraped.Valid {
		source.LastScrapedAt = &scraped.Time
	}
	if err := json.Unmarshal([]byte(cfgJSON), &source.Config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config for source %d: %w", source.ID, err)
	}
	return &source, nil
}
