// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/techwatch/techwatch/internal/config"
	"github.com/techwatch/techwatch/internal/database"
	"github.com/techwatch/techwatch/internal/logging"
	"github.com/techwatch/techwatch/internal/metrics"
	"github.com/techwatch/techwatch/internal/nlp"
)

const (
	defaultSummarizeBatch = 50
	summaryMaxWords       = 60
)

// SummaryJob backfills item summaries through the Anthropic API. Runs
// daily over items that have content but no summary yet.
type SummaryJob struct {
	db         *database.DB
	summarizer *nlp.Summarizer
	batchSize  int
}

// NewSummaryJob builds the summarization job. A nil or unconfigured
// summarizer disables it.
func NewSummaryJob(db *database.DB, summarizer *nlp.Summarizer, cfg *config.ScoringConfig) *SummaryJob {
	batch := defaultSummarizeBatch
	if cfg != nil && cfg.SummarizeBatch > 0 {
		batch = cfg.SummarizeBatch
	}
	return &SummaryJob{db: db, summarizer: summarizer, batchSize: batch}
}

// Run summarizes one batch of items without summaries, oldest debt first.
// Per-item API failures are logged and skipped so one bad item does not
// starve the rest of the batch. Returns how many summaries were written.
func (j *SummaryJob) Run(ctx context.Context) (int, error) {
	if !j.summarizer.Enabled() {
		logging.Debug().Msg("Summarizer not configured, skipping summarization pass")
		return 0, nil
	}
	start := time.Now()

	items, err := j.db.ItemsWithoutSummary(ctx, j.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to select items for summarization: %w", err)
	}
	if len(items) == 0 {
		return 0, nil
	}

	written := 0
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		summary, err := j.summarizer.Summarize(ctx, item.Title, item.Content, summaryMaxWords)
		if err != nil {
			logging.Warn().Int64("item_id", item.ID).Err(err).Msg("Summarization failed for item")
			continue
		}
		if summary == "" {
			continue
		}

		if err := j.db.UpdateItemSummary(ctx, item.ID, summary); err != nil {
			return written, fmt.Errorf("failed to save summary for item %d: %w", item.ID, err)
		}
		written++
	}

	metrics.RecordScoringPass("summarize", time.Since(start), written)
	logging.Info().Int("candidates", len(items)).Int("summarized", written).
		Msg("Summarization pass complete")
	return written, nil
}
