// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

// Package scoring runs the relevance scoring jobs: the global pass that
// writes score and category onto items, and the per-user pass that
// maintains personalized scores from user keyword sets.
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

// defaultBatchSize bounds one global scoring pass.
const defaultBatchSize = 500

// Job is the global relevance scoring job. It scores items that have no
// score yet against the active keyword set.
type Job struct {
	db        *database.DB
	scorer    *nlp.Scorer
	batchSize int
}

// NewJob builds the global scoring job.
func NewJob(db *database.DB, scorer *nlp.Scorer, cfg *config.ScoringConfig) *Job {
	batch := defaultBatchSize
	if cfg != nil && cfg.BatchSize > 0 {
		batch = cfg.BatchSize
	}
	if scorer == nil {
		scorer = nlp.NewScorer(nil)
	}
	return &Job{db: db, scorer: scorer, batchSize: batch}
}

// Run scores one batch of unscored items. Returns how many were scored;
// zero means the backlog is empty.
func (j *Job) Run(ctx context.Context) (int, error) {
	start := time.Now()

	keywords, err := j.db.ActiveKeywords(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load keywords: %w", err)
	}
	if len(keywords) == 0 {
		logging.Warn().Msg("No active keywords, skipping scoring pass")
		return 0, nil
	}

	items, err := j.db.UnscoredItems(ctx, j.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to load unscored items: %w", err)
	}
	if len(items) == 0 {
		logging.Debug().Msg("No items to score")
		return 0, nil
	}

	scored := 0
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return scored, err
		}

		result := j.scorer.Score(item.Title+" "+item.Content, keywords)
		if err := j.db.UpdateItemScore(ctx, item.ID, result.OverallScore, result.Category); err != nil {
			logging.Error().Int64("item_id", item.ID).Err(err).Msg("Failed to store score")
			continue
		}
		scored++
	}

	metrics.RecordScoringPass("global", time.Since(start), scored)
	logging.Info().Int("scored", scored).Int("batch", len(items)).
		Dur("duration", time.Since(start)).Msg("Scoring pass complete")
	return scored, nil
}

// ScoreItems scores a specific set of items regardless of their current
// score. Used after keyword edits and by the API.
func (j *Job) ScoreItems(ctx context.Context, itemIDs []int64) (int, error) {
	if len(itemIDs) == 0 {
		return 0, nil
	}

	keywords, err := j.db.ActiveKeywords(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load keywords: %w", err)
	}
	if len(keywords) == 0 {
		return 0, nil
	}

	items, err := j.db.GetItemsByIDs(ctx, itemIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to load items: %w", err)
	}

	scored := 0
	for _, item := range items {
		result := j.scorer.Score(item.Title+" "+item.Content, keywords)
		if err := j.db.UpdateItemScore(ctx, item.ID, result.OverallScore, result.Category); err != nil {
			logging.Error().Int64("item_id", item.ID).Err(err).Msg("Failed to store score")
			continue
		}
		scored++
	}
	return scored, nil
}

// RescoreAll rescans the whole item table with the current keyword set.
// With force, existing scores are wiped first so every item requalifies as
// unscored; without it only the unscored backlog is drained.
//
// Items that legitimately score zero stay in the unscored set, so batches
// are tracked by id and the drain stops once a batch brings nothing new.
func (j *Job) RescoreAll(ctx context.Context, force bool) (int, error) {
	if force {
		if err := j.db.ResetItemScores(ctx); err != nil {
			return 0, fmt.Errorf("failed to reset scores: %w", err)
		}
	}

	keywords, err := j.db.ActiveKeywords(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load keywords: %w", err)
	}
	if len(keywords) == 0 {
		logging.Warn().Msg("No active keywords, skipping rescore")
		return 0, nil
	}

	start := time.Now()
	seen := make(map[int64]bool)
	total := 0
	for {
		// Grow the window past items already seen so zero-scored entries
		// cannot pin the batch.
		items, err := j.db.UnscoredItems(ctx, j.batchSize+len(seen))
		if err != nil {
			return total, fmt.Errorf("failed to load unscored items: %w", err)
		}

		progress := false
		for _, item := range items {
			if seen[item.ID] {
				continue
			}
			seen[item.ID] = true
			progress = true

			if err := ctx.Err(); err != nil {
				return total, err
			}
			result := j.scorer.Score(item.Title+" "+item.Content, keywords)
			if err := j.db.UpdateItemScore(ctx, item.ID, result.OverallScore, result.Category); err != nil {
				logging.Error().Int64("item_id", item.ID).Err(err).Msg("Failed to store score")
				continue
			}
			total++
		}
		if !progress {
			break
		}
	}

	metrics.RecordScoringPass("rescore", time.Since(start), total)
	logging.Info().Int("scored", total).Bool("force", force).
		Dur("duration", time.Since(start)).Msg("Rescore complete")
	return total, nil
}
