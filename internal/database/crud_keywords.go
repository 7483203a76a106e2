// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package database

import (
	"context"
	"fmt"

	"github.com/techwatch/techwatch/internal/models"
)

// CreateKeyword inserts a global keyword and returns it with the assigned id.
func (db *DB) CreateKeyword(ctx context.Context, kw *models.Keyword) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	err := db.conn.QueryRowContext(ctx, `
		INSERT INTO keywords (keyword, category, weight, is_active)
		VALUES (?, ?, ?, ?)
		RETURNING id, created_at`,
		kw.Keyword, kw.Category, kw.Weight, kw.IsActive,
	).Scan(&kw.ID, &kw.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert keyword %q: %w", kw.Keyword, err)
	}
	return nil
}

// ActiveKeywords returns all active global keywords.
func (db *DB) ActiveKeywords(ctx context.Context) ([]models.Keyword, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, keyword, category, weight, is_active, created_at
		FROM keywords WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query keywords: %w", err)
	}
	defer closeWithLog(rows, "keyword rows")

	var keywords []models.Keyword
	for rows.Next() {
		var kw models.Keyword
		if err := rows.Scan(&kw.ID, &kw.Keyword, &kw.Category, &kw.Weight, &kw.IsActive, &kw.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan keyword: %w", err)
		}
		keywords = append(keywords, kw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating keywords: %w", err)
	}
	return keywords, nil
}

// CreateUserKeyword inserts a per-user keyword.
func (db *DB) CreateUserKeyword(ctx context.Context, kw *models.UserKeyword) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	err := db.conn.QueryRowContext(ctx, `
		INSERT INTO user_keywords (user_id, keyword, category, weight, is_active)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id, created_at`,
		kw.UserID, kw.Keyword, kw.Category, kw.Weight, kw.IsActive,
	).Scan(&kw.ID, &kw.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert user keyword %q: %w", kw.Keyword, err)
	}
	return nil
}

// UserKeywords returns the active keywords of one user.
func (db *DB) UserKeywords(ctx context.Context, userID int64) ([]models.UserKeyword, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, user_id, keyword, category, weight, is_active, created_at
		FROM user_keywords WHERE user_id = ? AND is_active
		ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user keywords: %w", err)
	}
	defer closeWithLog(rows, "user keyword rows")

	var keywords []models.UserKeyword
	for rows.Next() {
		var kw models.UserKeyword
		if err := rows.Scan(&kw.ID, &kw.UserID, &kw.Keyword, &kw.Category, &kw.Weight, &kw.IsActive, &kw.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user keyword: %w", err)
		}
		keywords = append(keywords, kw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user keywords: %w", err)
	}
	return keywords, nil
}

// UserIDsWithKeywords returns the ids of users holding at least one
// active keyword.
func (db *DB) UserIDsWithKeywords(ctx context.Context) ([]int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT DISTINCT user_id FROM user_keywords WHERE is_active
		ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users with keywords: %w", err)
	}
	defer closeWithLog(rows, "user id rows")

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SaveUserScores upserts a batch of personalized scores in one transaction.
func (db *DB) SaveUserScores(ctx context.Context, scores []models.UserItemScore) error {
	if len(scores) == 0 {
		return nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for _, s := range scores {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO user_item_scores (user_id, item_id, score, keyword_matches)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (user_id, item_id) DO UPDATE SET
				score = excluded.score,
				keyword_matches = excluded.keyword_matches,
				created_at = now()`,
			s.UserID, s.ItemID, s.Score, s.KeywordMatches)
		if err != nil {
			closeQuietlyTx(tx)
			return fmt.Errorf("failed to upsert user score (%d,%d): %w", s.UserID, s.ItemID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit user scores: %w", err)
	}
	return nil
}

// DeleteUserScores removes all personalized scores of one user.
// Used by the full rescore path before recomputation.
func (db *DB) DeleteUserScores(ctx context.Context, userID int64) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `DELETE FROM user_item_scores WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user scores for %d: %w", userID, err)
	}
	return nil
}

// UnscoredItemIDsForUser returns the ids of up to limit items the user has
// no personalized score for yet, newest first.
func (db *DB) UnscoredItemIDsForUser(ctx context.Context, userID int64, limit int) ([]int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT i.id FROM items i
		WHERE NOT EXISTS (
			SELECT 1 FROM user_item_scores s
			WHERE s.user_id = ? AND s.item_id = i.id
		)
		ORDER BY i.created_at DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query unscored item ids: %w", err)
	}
	defer closeWithLog(rows, "item id rows")

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan item id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UserScore returns one personalized score, or ErrNotFound.
func (db *DB) UserScore(ctx context.Context, userID, itemID int64) (float64, error) {
	s, err := db.GetUserItemScore(ctx, userID, itemID)
	if err != nil {
		return 0, err
	}
	return s.Score, nil
}

// GetUserItemScore returns one personalized score row, or ErrNotFound.
func (db *DB) GetUserItemScore(ctx context.Context, userID, itemID int64) (*models.UserItemScore, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	s := models.UserItemScore{UserID: userID, ItemID: itemID}
	err := db.conn.QueryRowContext(ctx, `
		SELECT score, keyword_matches, created_at
		FROM user_item_scores WHERE user_id = ? AND item_id = ?`,
		userID, itemID).Scan(&s.Score, &s.KeywordMatches, &s.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("user score (%d,%d): %w", userID, itemID, ErrNotFound)
	}
	return &s, nil
}
