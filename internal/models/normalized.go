// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// MaxTags is the maximum number of tags kept on a normalized item.
// Normalize truncates longer tag lists instead of rejecting the item.
const MaxTags = 10

// NormalizedItem is the common shape every scraper plugin emits. Items that
// fail validation are dropped with a warning before persistence; a single
// bad item never fails a batch.
type NormalizedItem struct {
	Title       string    `json:"title" validate:"required,max=500"`
	URL         string    `json:"url" validate:"required,http_url"`
	Content     string    `json:"content,omitempty" validate:"max=50000"`
	Author      string    `json:"author,omitempty"`
	SourceType  string    `json:"source_type" validate:"required,lowercase"`
	ExternalID  string    `json:"external_id" validate:"required"`
	PublishedAt time.Time `json:"published_at" validate:"required"`
	Tags        []string  `json:"tags,omitempty" validate:"max=10"`

	// Engagement counters where the upstream exposes them: HN points,
	// Reddit upvotes, Dev.to reactions.
	Upvotes       int64 `json:"upvotes,omitempty" validate:"gte=0"`
	CommentsCount int64 `json:"comments_count,omitempty" validate:"gte=0"`

	// Video metadata. Required when IsVideo is set.
	IsVideo         bool   `json:"is_video"`
	VideoID         string `json:"video_id,omitempty" validate:"required_if=IsVideo true"`
	ChannelID       string `json:"channel_id,omitempty" validate:"required_if=IsVideo true"`
	ChannelName     string `json:"channel_name,omitempty" validate:"required_if=IsVideo true"`
	DurationSeconds int64  `json:"duration_seconds,omitempty" validate:"gte=0"`
	ViewCount       int64  `json:"view_count,omitempty" validate:"gte=0"`
	ThumbnailURL    string `json:"thumbnail_url,omitempty"`
}

// itemValidator is shared; validator.Validate is safe for concurrent use.
var itemValidator = validator.New(validator.WithRequiredStructEnabled())

// Normalize cleans up fields that are repaired rather than rejected:
// whitespace around title and author, empty tags, and tag lists longer
// than MaxTags.
func (n *NormalizedItem) Normalize() {
	n.Title = strings.TrimSpace(n.Title)
	n.Author = strings.TrimSpace(n.Author)
	n.SourceType = strings.ToLower(strings.TrimSpace(n.SourceType))

	if len(n.Tags) > 0 {
		tags := make([]string, 0, len(n.Tags))
		for _, tag := range n.Tags {
			tag = strings.TrimSpace(tag)
			if tag != "" {
				tags = append(tags, tag)
			}
		}
		if len(tags) > MaxTags {
			tags = tags[:MaxTags]
		}
		n.Tags = tags
	}
}

// Validate normalizes the item and checks all field constraints.
// Returns a descriptive error for the first violated constraint.
func (n *NormalizedItem) Validate() error {
	n.Normalize()

	if n.PublishedAt.IsZero() {
		return fmt.Errorf("item %q: published_at is required", n.Title)
	}
	if !strings.HasPrefix(n.URL, "http://") && !strings.HasPrefix(n.URL, "https://") {
		return fmt.Errorf("item %q: url must be http(s), got %q", n.Title, n.URL)
	}

	if err := itemValidator.Struct(n); err != nil {
		return fmt.Errorf("item %q: %w", n.Title, err)
	}
	return nil
}
