// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package plugins

import (
	"context"
	"fmt"
	"time"

	"github.com/techwatch/techwatch/internal/logging"
	"github.com/techwatch/techwatch/internal/models"
	"github.com/techwatch/techwatch/internal/scraper"
)

// maxStoryWalk bounds how many top-story ids are inspected per scrape.
const maxStoryWalk = 500

func init() {
	scraper.Register("hackernews", func(deps scraper.Deps) scraper.Plugin {
		return newHackerNews(deps)
	})
}

// hackerNews scrapes top stories through the public Firebase API.
// API docs: https://github.com/HackerNews/API
type hackerNews struct {
	http    *scraper.Client
	baseURL string
}

func newHackerNews(deps scraper.Deps) *hackerNews {
	return &hackerNews{
		// ~100 req/min is a conservative unofficial budget.
		http:    deps.NewHTTPClient("hackernews", 100, nil),
		baseURL: "https://hacker-news.firebaseio.com/v0",
	}
}

func (h *hackerNews) Name() string             { return "hackernews" }
func (h *hackerNews) DisplayName() string      { return "Hacker News" }
func (h *hackerNews) RequiredConfig() []string { return nil }

func (h *hackerNews) ValidateConfig(models.SourceConfig) error { return nil }

// hnStory is the Firebase item payload for type "story".
type hnStory struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	Deleted     bool   `json:"deleted"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Text        string `json:"text"`
	By          string `json:"by"`
	Time        int64  `json:"time"`
	Score       int64  `json:"score"`
	Descendants int64  `json:"descendants"`
}

// Scrape walks the top-story list, fetching story details until max_articles
// keyword matches are collected or the walk limit is reached.
func (h *hackerNews) Scrape(ctx context.Context, keywords []string, cfg models.SourceConfig) ([]models.NormalizedItem, error) {
	limit := maxArticles(cfg, scraper.DefaultMaxArticles)

	var storyIDs []int64
	if err := h.http.GetJSON(ctx, h.baseURL+"/topstories.json", nil, &storyIDs); err != nil {
		return nil, fmt.Errorf("failed to fetch top stories: %w", err)
	}
	if len(storyIDs) > maxStoryWalk {
		storyIDs = storyIDs[:maxStoryWalk]
	}

	items := make([]models.NormalizedItem, 0, limit)
	errors := 0
	for _, id := range storyIDs {
		if len(items) >= limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		item, err := h.fetchStory(ctx, id, keywords)
		if err != nil {
			errors++
			logging.Warn().Int64("story_id", id).Err(err).Msg("Failed to fetch story")
			continue
		}
		if item != nil {
			items = append(items, *item)
		}
	}

	logging.Info().Int("items", len(items)).Int("errors", errors).
		Msg("Fetched Hacker News stories")
	return items, nil
}

// fetchStory returns nil without error for stories that are filtered out:
// deleted, non-story types, or titles that match no keyword.
func (h *hackerNews) fetchStory(ctx context.Context, id int64, keywords []string) (*models.NormalizedItem, error) {
	var story hnStory
	url := fmt.Sprintf("%s/item/%d.json", h.baseURL, id)
	if err := h.http.GetJSON(ctx, url, nil, &story); err != nil {
		return nil, err
	}

	if story.Type != "story" || story.Deleted || story.Title == "" {
		return nil, nil
	}
	if !matchesKeywords(story.Title, keywords) {
		return nil, nil
	}

	// Ask HN and text posts have no external URL; link the discussion.
	itemURL := story.URL
	if itemURL == "" {
		itemURL = fmt.Sprintf("https://news.ycombinator.com/item?id=%d", id)
	}

	return &models.NormalizedItem{
		Title:         story.Title,
		URL:           itemURL,
		Content:       story.Text,
		Author:        story.By,
		SourceType:    "hackernews",
		ExternalID:    fmt.Sprintf("%d", id),
		PublishedAt:   time.Unix(story.Time, 0).UTC(),
		Upvotes:       story.Score,
		CommentsCount: story.Descendants,
	}, nil
}
