// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package models

import "time"

// Keyword is a global interest keyword used for scrape filtering, relevance
// scoring, and trend detection. Weight scales the keyword's contribution to
// every score it participates in.
type Keyword struct {
	ID        int64     `json:"id"`
	Keyword   string    `json:"keyword"`
	Category  string    `json:"category"`
	Weight    float64   `json:"weight"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserKeyword is a per-user interest keyword. Users without any active
// keywords fall back to the global relevance score.
type UserKeyword struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Keyword   string    `json:"keyword"`
	Category  string    `json:"category"`
	Weight    float64   `json:"weight"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserItemScore is a personalized relevance score for one user and item.
// KeywordMatches records how many of the user's keywords matched, so the
// facade can explain why an item ranked where it did.
type UserItemScore struct {
	UserID         int64     `json:"user_id"`
	ItemID         int64     `json:"item_id"`
	Score          float64   `json:"score"`
	KeywordMatches int       `json:"keyword_matches"`
	CreatedAt      time.Time `json:"created_at"`
}
