// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package models

import "time"

// Trend is one keyword's aggregated activity for one calendar day.
// TrendScore is item_count * keyword_weight * avg_score / 10; rows are
// upserted on (keyword, date) so re-running a detection pass is idempotent.
type Trend struct {
	ID         int64     `json:"id"`
	Keyword    string    `json:"keyword"`
	Category   string    `json:"category"`
	Date       time.Time `json:"date"`
	ItemCount  int       `json:"item_count"`
	AvgScore   float64   `json:"avg_score"`
	TrendScore float64   `json:"trend_score"`
	CreatedAt  time.Time `json:"created_at"`
}
