// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

// Package pipeline drives ingestion: the orchestrator runs every active
// source through its scraper plugin, persists the normalized output, and
// records per-run telemetry.
package pipeline

import (
	"context"
	"fmt"

	"github.com/techwatch/techwatch/internal/database"
	"github.com/techwatch/techwatch/internal/logging"
	"github.com/techwatch/techwatch/internal/metrics"
	"github.com/techwatch/techwatch/internal/models"
)

// SaveItems validates a scrape batch and upserts the valid items for one
// source. Invalid items are dropped with a warning; a bad item never fails
// the batch. Returns how many rows were written.
func SaveItems(ctx context.Context, db *database.DB, source *models.Source, items []models.NormalizedItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	valid := make([]models.NormalizedItem, 0, len(items))
	for i := range items {
		if err := items[i].Validate(); err != nil {
			metrics.ScrapeItemsDropped.WithLabelValues(source.SourceType).Inc()
			logging.Warn().Str("source", source.SourceType).Err(err).Msg("Dropping invalid item")
			continue
		}
		valid = append(valid, items[i])
	}
	if len(valid) == 0 {
		return 0, nil
	}

	saved, err := db.UpsertItems(ctx, valid, source.ID, source.SourceType)
	if err != nil {
		return 0, fmt.Errorf("failed to save items for %s: %w", source.SourceType, err)
	}

	metrics.ScrapeItemsSaved.WithLabelValues(source.SourceType).Add(float64(saved))
	return saved, nil
}
