// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package plugins

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/techwatch/techwatch/internal/logging"
	"github.com/techwatch/techwatch/internal/models"
	"github.com/techwatch/techwatch/internal/scraper"
)

func init() {
	scraper.Register("official_blogs", func(deps scraper.Deps) scraper.Plugin {
		return newOfficialBlogs(deps)
	})
}

// officialBlogs scrapes a configured list of vendor blog RSS/Atom feeds.
type officialBlogs struct {
	http   *scraper.Client
	parser *gofeed.Parser
}

func newOfficialBlogs(deps scraper.Deps) *officialBlogs {
	return &officialBlogs{
		http:   deps.NewHTTPClient("official_blogs", 30, nil),
		parser: gofeed.NewParser(),
	}
}

func (o *officialBlogs) Name() string             { return "official_blogs" }
func (o *officialBlogs) DisplayName() string      { return "Official Blogs" }
func (o *officialBlogs) RequiredConfig() []string { return []string{"feeds"} }

func (o *officialBlogs) ValidateConfig(cfg models.SourceConfig) error {
	if len(cfg.GetStringSlice("feeds")) == 0 {
		return fmt.Errorf("config key feeds is required")
	}
	return nil
}

func (o *officialBlogs) Scrape(ctx context.Context, keywords []string, cfg models.SourceConfig) ([]models.NormalizedItem, error) {
	if err := o.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	limit := maxArticles(cfg, scraper.DefaultMaxArticles)

	var items []models.NormalizedItem
	for _, feedURL := range cfg.GetStringSlice("feeds") {
		if len(items) >= limit {
			break
		}
		fetched, err := o.scrapeFeed(ctx, feedURL, keywords)
		if err != nil {
			logging.Warn().Str("feed", feedURL).Err(err).Msg("Failed to scrape blog feed")
			continue
		}
		items = append(items, fetched...)
	}
	return dedupeByURL(items, limit), nil
}

func (o *officialBlogs) scrapeFeed(ctx context.Context, feedURL string, keywords []string) ([]models.NormalizedItem, error) {
	body, err := o.http.GetBody(ctx, feedURL, nil)
	if err != nil {
		return nil, err
	}
	feed, err := o.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := make([]models.NormalizedItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		if entry.Title == "" || entry.Link == "" {
			continue
		}
		if !matchesKeywords(entry.Title, keywords) {
			continue
		}

		publishedAt := time.Now().UTC()
		if entry.PublishedParsed != nil {
			publishedAt = entry.PublishedParsed.UTC()
		}
		var author string
		if len(entry.Authors) > 0 {
			author = entry.Authors[0].Name
		}
		externalID := entry.GUID
		if externalID == "" {
			externalID = entry.Link
		}

		items = append(items, models.NormalizedItem{
			Title:       entry.Title,
			URL:         entry.Link,
			Content:     stripHTML(entry.Description),
			Author:      author,
			SourceType:  "official_blogs",
			ExternalID:  externalID,
			PublishedAt: publishedAt,
			Tags:        entry.Categories,
		})
	}
	return items, nil
}
