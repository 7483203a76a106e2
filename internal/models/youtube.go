// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package models

import "time"

// YouTubeChannel is a registry entry for the youtube_rss plugin. The plugin
// scrapes the public RSS feed of every active channel; no API quota is spent.
type YouTubeChannel struct {
	ID          int64      `json:"id"`
	ChannelID   string     `json:"channel_id"`
	Name        string     `json:"name"`
	IsActive    bool       `json:"is_active"`
	LastVideoAt *time.Time `json:"last_video_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// FeedURL returns the public RSS feed URL for the channel.
func (c YouTubeChannel) FeedURL() string {
	return "https://www.youtube.com/feeds/videos.xml?channel_id=" + c.ChannelID
}
