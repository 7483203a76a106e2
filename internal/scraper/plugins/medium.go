// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package plugins

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/techwatch/techwatch/internal/logging"
	"github.com/techwatch/techwatch/internal/models"
	"github.com/techwatch/techwatch/internal/scraper"
)

// mediumDefaultTags are followed when the source config names none.
var mediumDefaultTags = []string{
	"programming",
	"software-engineering",
	"artificial-intelligence",
	"machine-learning",
	"python",
	"javascript",
	"rust",
	"devops",
	"kubernetes",
	"web-development",
}

// mediumMaxContent bounds how much stripped article text is kept.
const mediumMaxContent = 5000

func init() {
	scraper.Register("medium", func(deps scraper.Deps) scraper.Plugin {
		return newMedium(deps)
	})
}

// medium scrapes public RSS feeds: per tag, per publication, per user.
type medium struct {
	http    *scraper.Client
	baseURL string
	parser  *gofeed.Parser
}

func newMedium(deps scraper.Deps) *medium {
	return &medium{
		http:    deps.NewHTTPClient("medium", 30, nil),
		baseURL: "https://medium.com/feed",
		parser:  gofeed.NewParser(),
	}
}

func (m *medium) Name() string                             { return "medium" }
func (m *medium) DisplayName() string                      { return "Medium" }
func (m *medium) RequiredConfig() []string                 { return nil }
func (m *medium) ValidateConfig(models.SourceConfig) error { return nil }

func (m *medium) Scrape(ctx context.Context, keywords []string, cfg models.SourceConfig) ([]models.NormalizedItem, error) {
	limit := maxArticles(cfg, scraper.DefaultMaxArticles)

	tags := cfg.GetStringSlice("tags")
	if len(tags) == 0 {
		tags = mediumDefaultTags
	}

	var feeds []mediumFeed
	for _, tag := range tags {
		feeds = append(feeds, mediumFeed{url: m.baseURL + "/tag/" + tag, label: tag})
	}
	for _, pub := range cfg.GetStringSlice("publications") {
		feeds = append(feeds, mediumFeed{url: m.baseURL + "/" + pub, label: pub})
	}
	for _, user := range cfg.GetStringSlice("users") {
		feeds = append(feeds, mediumFeed{url: m.baseURL + "/@" + user, label: "@" + user})
	}

	var items []models.NormalizedItem
	for _, feed := range feeds {
		if len(items) >= limit {
			break
		}
		fetched, err := m.scrapeFeed(ctx, feed, keywords)
		if err != nil {
			logging.Warn().Str("feed", feed.url).Err(err).Msg("Failed to scrape Medium feed")
			continue
		}
		items = append(items, fetched...)
	}
	return dedupeByURL(items, limit), nil
}

type mediumFeed struct {
	url   string
	label string
}

func (m *medium) scrapeFeed(ctx context.Context, feed mediumFeed, keywords []string) ([]models.NormalizedItem, error) {
	body, err := m.http.GetBody(ctx, feed.url, nil)
	if err != nil {
		return nil, err
	}
	parsed, err := m.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	items := make([]models.NormalizedItem, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		if item, ok := m.normalize(entry, keywords, feed.label); ok {
			items = append(items, item)
		}
	}
	return items, nil
}

func (m *medium) normalize(entry *gofeed.Item, keywords []string, label string) (models.NormalizedItem, bool) {
	if entry.Title == "" || entry.Link == "" {
		return models.NormalizedItem{}, false
	}

	raw := entry.Content
	if raw == "" {
		raw = entry.Description
	}
	text := stripHTML(raw)

	// Keyword filter over title and body; feeds are broad so the body
	// matters here.
	if !matchesKeywords(entry.Title+" "+text, keywords) {
		return models.NormalizedItem{}, false
	}

	// Medium links carry tracking query parameters.
	link := entry.Link
	if idx := strings.Index(link, "?"); idx > 0 {
		link = link[:idx]
	}

	publishedAt := time.Now().UTC()
	if entry.PublishedParsed != nil {
		publishedAt = entry.PublishedParsed.UTC()
	}
	var author string
	if len(entry.Authors) > 0 {
		author = entry.Authors[0].Name
	}

	tags := []string{label}
	for _, category := range entry.Categories {
		if len(tags) >= 5 {
			break
		}
		if category != "" && category != label {
			tags = append(tags, category)
		}
	}

	// Post slugs end in a hex id, e.g. .../my-title-3f2a9c1b04d7.
	externalID := link
	if idx := strings.LastIndex(link, "-"); idx > 0 && idx < len(link)-1 {
		externalID = link[idx+1:]
	}

	if len(text) > mediumMaxContent {
		text = text[:mediumMaxContent]
	}

	return models.NormalizedItem{
		Title:       entry.Title,
		URL:         link,
		Content:     text,
		Author:      author,
		SourceType:  "medium",
		ExternalID:  externalID,
		PublishedAt: publishedAt,
		Tags:        tags,
	}, true
}
