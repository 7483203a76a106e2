// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package scoring

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/techwatch/techwatch/internal/config"
	"github.com/techwatch/techwatch/internal/database"
	"github.com/techwatch/techwatch/internal/logging"
	"github.com/techwatch/techwatch/internal/metrics"
	"github.com/techwatch/techwatch/internal/models"
)

const (
	// defaultRescoreLimit bounds how many recent items a full user rescore
	// touches.
	defaultRescoreLimit = 1000

	// matchBase is the score contribution per keyword match before boosts.
	matchBase = 20.0

	// Location boosts: a keyword in the title says more than one buried in
	// the body.
	titleBoost = 2.0
	tagBoost   = 1.5

	// maxMatchBonus caps the bonus for matching many keywords.
	maxMatchBonus = 25.0
)

// UserScorer maintains personalized item scores from per-user keyword
// sets. Personal scores blend a keyword-match score with the item's global
// score, 80/20.
type UserScorer struct {
	db           *database.DB
	rescoreLimit int
}

// NewUserScorer builds the per-user scoring service.
func NewUserScorer(db *database.DB, cfg *config.ScoringConfig) *UserScorer {
	limit := defaultRescoreLimit
	if cfg != nil && cfg.RescoreLimit > 0 {
		limit = cfg.RescoreLimit
	}
	return &UserScorer{db: db, rescoreLimit: limit}
}

// ScoreItem computes the personalized score of one item. Users without
// keywords get the item's global score unchanged.
func (u *UserScorer) ScoreItem(item models.Item, keywords []models.UserKeyword) float64 {
	score, _ := u.scoreItemMatches(item, keywords)
	return score
}

// scoreItemMatches returns the personalized score together with how many
// keywords matched, so the match count can be persisted alongside the score.
func (u *UserScorer) scoreItemMatches(item models.Item, keywords []models.UserKeyword) (float64, int) {
	if len(keywords) == 0 {
		return item.Score, 0
	}

	title := strings.ToLower(item.Title)
	tags := strings.ToLower(strings.Join(item.Tags, " "))
	full := title + " " + strings.ToLower(item.Content) + " " +
		strings.ToLower(item.Summary) + " " + tags

	var total, totalWeight float64
	matches := 0
	for _, kw := range keywords {
		keyword := strings.ToLower(kw.Keyword)
		weight := kw.Weight
		if weight == 0 {
			weight = 1.0
		}
		totalWeight += weight

		if !strings.Contains(full, keyword) {
			continue
		}
		boost := 1.0
		switch {
		case strings.Contains(title, keyword):
			boost = titleBoost
		case strings.Contains(tags, keyword):
			boost = tagBoost
		}
		total += weight * boost * matchBase
		matches++
	}

	if matches == 0 {
		return math.Max(0, item.Score*0.3), 0
	}

	matchBonus := math.Min(float64(matches)*5, maxMatchBonus)
	raw := total/totalWeight + matchBonus

	final := raw*0.8 + item.Score*0.2
	return math.Max(0, math.Min(100, final)), matches
}

// ScoreForUser scores a batch of items for one user and upserts the
// results. A nil itemIDs slice selects items the user has no score for
// yet, newest first, up to limit. Users without active keywords are
// skipped. Returns how many items were scored.
func (u *UserScorer) ScoreForUser(ctx context.Context, userID int64, itemIDs []int64, limit int) (int, error) {
	start := time.Now()
	if limit <= 0 {
		limit = u.rescoreLimit
	}

	keywords, err := u.db.UserKeywords(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to load user keywords: %w", err)
	}
	if len(keywords) == 0 {
		logging.Debug().Int64("user_id", userID).Msg("User has no keywords, skipping scoring")
		return 0, nil
	}

	if itemIDs == nil {
		itemIDs, err = u.db.UnscoredItemIDsForUser(ctx, userID, limit)
		if err != nil {
			return 0, fmt.Errorf("failed to select items: %w", err)
		}
	} else if len(itemIDs) > limit {
		itemIDs = itemIDs[:limit]
	}
	if len(itemIDs) == 0 {
		return 0, nil
	}

	items, err := u.db.GetItemsByIDs(ctx, itemIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to load items: %w", err)
	}

	scores := make([]models.UserItemScore, 0, len(items))
	for _, item := range items {
		score, matched := u.scoreItemMatches(item, keywords)
		scores = append(scores, models.UserItemScore{
			UserID:         userID,
			ItemID:         item.ID,
			Score:          score,
			KeywordMatches: matched,
		})
	}
	if err := u.db.SaveUserScores(ctx, scores); err != nil {
		return 0, fmt.Errorf("failed to save user scores: %w", err)
	}

	metrics.RecordScoringPass("user", time.Since(start), len(scores))
	logging.Info().Int64("user_id", userID).Int("scored", len(scores)).
		Msg("Personalized scoring complete")
	return len(scores), nil
}

// RescoreUser wipes a user's scores and recomputes them over the most
// recent items. Called after the user edits their keyword set.
func (u *UserScorer) RescoreUser(ctx context.Context, userID int64) (int, error) {
	if err := u.db.DeleteUserScores(ctx, userID); err != nil {
		return 0, fmt.Errorf("failed to clear user scores: %w", err)
	}
	return u.ScoreForUser(ctx, userID, nil, u.rescoreLimit)
}

// ScoreAllUsers runs a scoring pass for every user that has keywords.
// Called after ingestion so fresh items get personal scores promptly.
func (u *UserScorer) ScoreAllUsers(ctx context.Context) (int, error) {
	userIDs, err := u.db.UserIDsWithKeywords(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list users: %w", err)
	}

	total := 0
	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		scored, err := u.ScoreForUser(ctx, userID, nil, u.rescoreLimit)
		if err != nil {
			logging.Error().Int64("user_id", userID).Err(err).Msg("Failed to score items for user")
			continue
		}
		total += scored
	}
	return total, nil
}
