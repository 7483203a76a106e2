// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

// Package trends aggregates keyword activity into daily trend rows. The
// detector runs once a day over every active keyword; cleanup trims rows
// past the retention window.
package trends

import (
	"context"
	"fmt"
	"time"

	"github.com/techwatch/techwatch/internal/config"
	"github.com/techwatch/techwatch/internal/database"
	"github.com/techwatch/techwatch/internal/logging"
	"github.com/techwatch/techwatch/internal/metrics"
	"github.com/techwatch/techwatch/internal/models"
)

const (
	defaultWindowDays    = 7
	defaultRetentionDays = 90
)

// Detector writes one trend row per active keyword per day.
type Detector struct {
	db            *database.DB
	windowDays    int
	retentionDays int
}

// NewDetector builds the trend detector. A nil cfg uses the defaults.
func NewDetector(db *database.DB, cfg *config.TrendsConfig) *Detector {
	window := defaultWindowDays
	retention := defaultRetentionDays
	if cfg != nil && cfg.WindowDays > 0 {
		window = cfg.WindowDays
	}
	if cfg != nil && cfg.RetentionDays > 0 {
		retention = cfg.RetentionDays
	}
	return &Detector{db: db, windowDays: window, retentionDays: retention}
}

// Detect aggregates activity over the sliding window for every active
// keyword and upserts the rows for today. Keywords with no activity are
// skipped. Returns how many trend rows were written.
func (d *Detector) Detect(ctx context.Context) (int, error) {
	keywords, err := d.db.ActiveKeywords(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load keywords: %w", err)
	}
	if len(keywords) == 0 {
		logging.Debug().Msg("No active keywords, skipping trend detection")
		return 0, nil
	}

	now := time.Now().UTC()
	day := now.Truncate(24 * time.Hour)
	since := now.AddDate(0, 0, -d.windowDays)

	written := 0
	for _, kw := range keywords {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		count, avgScore, err := d.db.KeywordActivity(ctx, kw.Keyword, since)
		if err != nil {
			return written, err
		}
		if count == 0 {
			continue
		}

		trend := &models.Trend{
			Keyword:    kw.Keyword,
			Category:   kw.Category,
			Date:       day,
			ItemCount:  count,
			AvgScore:   avgScore,
			TrendScore: trendScore(count, kw.Weight, avgScore),
		}
		if err := d.db.UpsertTrend(ctx, trend); err != nil {
			return written, err
		}
		written++
	}

	metrics.TrendsDetected.Add(float64(written))
	logging.Info().Int("keywords", len(keywords)).Int("trends", written).
		Int("window_days", d.windowDays).Msg("Trend detection complete")
	return written, nil
}

// Cleanup removes trend rows older than the retention window and returns
// how many were deleted.
func (d *Detector) Cleanup(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -d.retentionDays)
	deleted, err := d.db.DeleteTrendsOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	metrics.TrendRowsDeleted.Add(float64(deleted))
	if deleted > 0 {
		logging.Info().Int64("deleted", deleted).
			Time("cutoff", cutoff).Msg("Old trend rows removed")
	}
	return deleted, nil
}

// trendScore weighs raw volume by keyword weight and average relevance.
// More mentions of a heavier keyword with better-scoring items trend higher.
func trendScore(count int, weight, avgScore float64) float64 {
	if weight == 0 {
		weight = 1.0
	}
	return float64(count) * weight * avgScore / 10
}
