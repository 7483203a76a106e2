// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package models

import "time"

// Ingestion run statuses. A run starts as running and is completed exactly
// once with one of the terminal statuses. Skipped marks a run that ended
// without any source work, e.g. no active sources matched the request.
const (
	RunStatusRunning        = "running"
	RunStatusSuccess        = "success"
	RunStatusPartialSuccess = "partial_success"
	RunStatusFailed         = "failed"
	RunStatusSkipped        = "skipped"
)

// IngestionRun records one orchestrated ingestion pass across all active
// sources. TaskID is a UUID handed back to API callers for status polling.
type IngestionRun struct {
	ID               int64             `json:"id"`
	TaskID           string            `json:"task_id"`
	Status           string            `json:"status"`
	StartedAt        time.Time         `json:"started_at"`
	CompletedAt      *time.Time        `json:"completed_at,omitempty"`
	ItemsFound       int               `json:"items_found"`
	ItemsSaved       int               `json:"items_saved"`
	SourcesSucceeded int               `json:"sources_succeeded"`
	SourcesFailed    int               `json:"sources_failed"`
	ErrorMessage     string            `json:"error_message,omitempty"`
	Sources          []SourceRunRecord `json:"sources,omitempty"`
}

// SourceRunRecord is the per-source outcome inside an ingestion run.
type SourceRunRecord struct {
	SourceType string        `json:"source_type"`
	Success    bool          `json:"success"`
	ItemsFound int           `json:"items_found"`
	ItemsSaved int           `json:"items_saved"`
	FromCache  bool          `json:"from_cache"`
	Duration   time.Duration `json:"duration_ms"`
	Error      string        `json:"error,omitempty"`
}

// RunStats summarizes ingestion history for the stats endpoint.
type RunStats struct {
	TotalRuns       int            `json:"total_runs"`
	StatusCounts    map[string]int `json:"status_counts"`
	TotalItemsFound int            `json:"total_items_found"`
	TotalItemsSaved int            `json:"total_items_saved"`
	SuccessRate     float64        `json:"success_rate"`
	LastRunAt       *time.Time     `json:"last_run_at,omitempty"`
}
