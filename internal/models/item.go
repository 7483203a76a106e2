// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package models

import "time"

// Item is a persisted content item. Items are deduplicated by URL: saving
// an item whose URL already exists updates the content columns and leaves
// the user-owned flags (IsRead, IsFavorite) untouched.
type Item struct {
	ID         int64  `json:"id"`
	SourceID   int64  `json:"source_id"`
	SourceType string `json:"source_type"`
	ExternalID string `json:"external_id"`

	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content,omitempty"`
	Summary string `json:"summary,omitempty"`
	Author  string `json:"author,omitempty"`

	Tags        []string  `json:"tags,omitempty"`
	PublishedAt time.Time `json:"published_at"`

	// Upstream engagement counters, refreshed on re-ingestion.
	Upvotes       int64 `json:"upvotes,omitempty"`
	CommentsCount int64 `json:"comments_count,omitempty"`

	// Score and Category are written by the global relevance scorer.
	// A NULL/zero score marks the item as not yet scored.
	Score    float64 `json:"score"`
	Category string  `json:"category,omitempty"`

	// User-owned flags, preserved across re-ingestion.
	IsRead     bool `json:"is_read"`
	IsFavorite bool `json:"is_favorite"`

	// Video metadata, populated for video sources only.
	IsVideo         bool   `json:"is_video"`
	VideoID         string `json:"video_id,omitempty"`
	ChannelID       string `json:"channel_id,omitempty"`
	ChannelName     string `json:"channel_name,omitempty"`
	DurationSeconds int64  `json:"duration_seconds,omitempty"`
	ViewCount       int64  `json:"view_count,omitempty"`
	ThumbnailURL    string `json:"thumbnail_url,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VideoSourceTypes lists the source types whose items are videos.
// Items saved from these sources get IsVideo set by the persistence layer.
var VideoSourceTypes = map[string]bool{
	"youtube_rss":      true,
	"youtube_trending": true,
}
