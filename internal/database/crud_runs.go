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

	json "github.com/goccy/go-json"

	"github.com/techwatch/techwatch/internal/models"
)

// CreateRun opens a new ingestion run record with status running.
func (db *DB) CreateRun(ctx context.Context, run *models.IngestionRun) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	err := db.conn.QueryRowContext(ctx, `
		INSERT INTO ingestion_runs (task_id, status)
		VALUES (?, ?)
		RETURNING id, started_at`,
		run.TaskID, models.RunStatusRunning,
	).Scan(&run.ID, &run.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to insert ingestion run %s: %w", run.TaskID, err)
	}
	run.Status = models.RunStatusRunning
	return nil
}

// CompleteRun finalizes a run with its terminal status and counters.
// A run is completed exactly once; the per-source records are stored as JSON.
func (db *DB) CompleteRun(ctx context.Context, run *models.IngestionRun) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	sourcesJSON, err := json.Marshal(run.Sources)
	if err != nil {
		return fmt.Errorf("failed to marshal run sources: %w", err)
	}

	res, err := db.conn.ExecContext(ctx, `
		UPDATE ingestion_runs SET
			status = ?,
			completed_at = current_timestamp,
			items_found = ?,
			items_saved = ?,
			sources_succeeded = ?,
			sources_failed = ?,
			error_message = ?,
			sources = ?
		WHERE task_id = ? AND status = ?`,
		run.Status, run.ItemsFound, run.ItemsSaved, run.SourcesSucceeded,
		run.SourcesFailed, run.ErrorMessage, string(sourcesJSON),
		run.TaskID, models.RunStatusRunning)
	if err != nil {
		return fmt.Errorf("failed to complete run %s: %w", run.TaskID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s is not running: %w", run.TaskID, ErrNotFound)
	}
	return nil
}

// GetRunByTaskID returns the run with the given task id, or ErrNotFound.
func (db *DB) GetRunByTaskID(ctx context.Context, taskID string) (*models.IngestionRun, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx, selectRunColumns+`
		FROM ingestion_runs WHERE task_id = ?`, taskID)

	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("run %s: %w", taskID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get run %s: %w", taskID, err)
	}
	return run, nil
}

// ListRuns returns the most recent ingestion runs, newest first.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]models.IngestionRun, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	rows, err := db.conn.QueryContext(ctx, selectRunColumns+`
		FROM ingestion_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer closeWithLog(rows, "run rows")

	var runs []models.IngestionRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// GetRunStats aggregates ingestion history for the stats endpoint.
func (db *DB) GetRunStats(ctx context.Context) (*models.RunStats, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	stats := &models.RunStats{StatusCounts: make(map[string]int)}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT status, COUNT(*), COALESCE(SUM(items_found), 0), COALESCE(SUM(items_saved), 0)
		FROM ingestion_runs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to query run stats: %w", err)
	}
	defer closeWithLog(rows, "run stats rows")

	for rows.Next() {
		var (
			status       string
			count        int
			found, saved int
		)
		if err := rows.Scan(&status, &count, &found, &saved); err != nil {
			return nil, fmt.Errorf("failed to scan run stats: %w", err)
		}
		stats.StatusCounts[status] = count
		stats.TotalRuns += count
		stats.TotalItemsFound += found
		stats.TotalItemsSaved += saved
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run stats: %w", err)
	}

	// Skipped runs did no source work; they count in the totals but not
	// against the success rate.
	completed := stats.TotalRuns - stats.StatusCounts[models.RunStatusRunning] -
		stats.StatusCounts[models.RunStatusSkipped]
	if completed > 0 {
		succeeded := stats.StatusCounts[models.RunStatusSuccess] + stats.StatusCounts[models.RunStatusPartialSuccess]
		stats.SuccessRate = float64(succeeded) / float64(completed)
	}

	var last sql.NullTime
	err = db.conn.QueryRowContext(ctx, `SELECT MAX(started_at) FROM ingestion_runs`).Scan(&last)
	if err != nil {
		return nil, fmt.Errorf("failed to query last run time: %w", err)
	}
	if last.Valid {
		stats.LastRunAt = &last.Time
	}

	return stats, nil
}

const selectRunColumns = `
	SELECT id, task_id, status, started_at, completed_at, items_found,
		items_saved, sources_succeeded, sources_failed, error_message, sources`

func scanRun(row rowScanner) (*models.IngestionRun, error) {
	var (
		run         models.IngestionRun
		completedAt sql.NullTime
		sourcesJSON string
	)
	err := row.Scan(&run.ID, &run.TaskID, &run.Status, &run.StartedAt, &completedAt,
		&run.ItemsFound, &run.ItemsSaved, &run.SourcesSucceeded, &run.SourcesFailed,
		&run.ErrorMessage, &sourcesJSON)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	if err := json.Unmarshal([]byte(sourcesJSON), &run.Sources); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sources for run %s: %w", run.TaskID, err)
	}
	return &run, nil
}
