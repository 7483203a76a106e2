// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package models

import (
	"strings"
	"testing"
	"time"
)

func validItem() NormalizedItem {
	return NormalizedItem{
		Title:       "Introducing DuckDB 1.0",
		URL:         "https://example.com/duckdb-1-0",
		SourceType:  "hackernews",
		ExternalID:  "12345",
		PublishedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNormalizedItemValid(t *testing.T) {
	item := validItem()
	if err := item.Validate(); err != nil {
		t.Fatalf("expected valid item, got: %v", err)
	}
}

func TestNormalizedItemRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*NormalizedItem)
	}{
		{"empty title", func(n *NormalizedItem) { n.Title = "" }},
		{"whitespace title", func(n *NormalizedItem) { n.Title = "   " }},
		{"title too long", func(n *NormalizedItem) { n.Title = strings.Repeat("x", 501) }},
		{"empty url", func(n *NormalizedItem) { n.URL = "" }},
		{"ftp url", func(n *NormalizedItem) { n.URL = "ftp://example.com/file" }},
		{"relative url", func(n *NormalizedItem) { n.URL = "/articles/1" }},
		{"missing external id", func(n *NormalizedItem) { n.ExternalID = "" }},
		{"missing source type", func(n *NormalizedItem) { n.SourceType = "" }},
		{"zero published_at", func(n *NormalizedItem) { n.PublishedAt = time.Time{} }},
		{"content too long", func(n *NormalizedItem) { n.Content = strings.Repeat("x", 50001) }},
		{"negative view count", func(n *NormalizedItem) { n.ViewCount = -1 }},
		{"negative duration", func(n *NormalizedItem) { n.DurationSeconds = -10 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := validItem()
			tt.mutate(&item)
			if err := item.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestNormalizedItemVideoFields(t *testing.T) {
	item := validItem()
	item.SourceType = "youtube_trending"
	item.IsVideo = true

	if err := item.Validate(); err == nil {
		t.Error("expected error for video without video metadata")
	}

	item.VideoID = "dQw4w9WgXcQ"
	item.ChannelID = "UC123"
	item.ChannelName = "Example Channel"
	item.DurationSeconds = 213
	item.ViewCount = 1000000
	if err := item.Validate(); err != nil {
		t.Errorf("expected valid video item, got: %v", err)
	}
}

func TestNormalizeTrimsTags(t *testing.T) {
	item := validItem()
	item.Tags = []string{" go ", "", "duckdb", "a", "b", "c", "d", "e", "f", "g", "h", "i"}

	if err := item.Validate(); err != nil {
		t.Fatalf("expected valid item, got: %v", err)
	}
	if len(item.Tags) != MaxTags {
		t.Errorf("expected %d tags after normalization, got %d", MaxTags, len(item.Tags))
	}
	if item.Tags[0] != "go" {
		t.Errorf("expected trimmed first tag 'go', got %q", item.Tags[0])
	}
	for _, tag := range item.Tags {
		if tag == "" {
			t.Error("expected empty tags to be removed")
		}
	}
}

func TestNormalizeLowercasesSourceType(t *testing.T) {
	item := validItem()
	item.SourceType = "HackerNews"

	if err := item.Validate(); err != nil {
		t.Fatalf("expected valid item after lowercasing, got: %v", err)
	}
	if item.SourceType != "hackernews" {
		t.Errorf("expected lowercased source type, got %q", item.SourceType)
	}
}

func TestSourceConfigAccessors(t *testing.T) {
	cfg := SourceConfig{
		"subreddits":   []interface{}{"golang", "programming"},
		"max_articles": float64(25), // JSON numbers decode as float64
		"verbose":      true,
		"feed_url":     "https://example.com/rss",
	}

	if got := cfg.GetStringSlice("subreddits"); len(got) != 2 || got[0] != "golang" {
		t.Errorf("GetStringSlice = %v", got)
	}
	if got := cfg.GetInt("max_articles", 10); got != 25 {
		t.Errorf("GetInt = %d, want 25", got)
	}
	if got := cfg.GetInt("missing", 10); got != 10 {
		t.Errorf("GetInt default = %d, want 10", got)
	}
	if !cfg.GetBool("verbose", false) {
		t.Error("GetBool = false, want true")
	}
	if got := cfg.GetString("feed_url", ""); got != "https://example.com/rss" {
		t.Errorf("GetString = %q", got)
	}
	if cfg.Has("missing") {
		t.Error("Has(missing) = true")
	}
}
