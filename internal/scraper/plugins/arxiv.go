// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package plugins

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/techwatch/techwatch/internal/logging"
	"github.com/techwatch/techwatch/internal/models"
	"github.com/techwatch/techwatch/internal/scraper"
)

// arxivCategories are the AI/ML research categories searched by default.
var arxivCategories = []string{"cs.AI", "cs.CL", "cs.LG", "cs.MA"}

func init() {
	scraper.Register("arxiv", func(deps scraper.Deps) scraper.Plugin {
		return newArxiv(deps)
	})
}

// arxiv scrapes recent papers through the arXiv Atom API.
// API docs: https://info.arxiv.org/help/api/index.html
type arxiv struct {
	http    *scraper.Client
	baseURL string
	parser  *gofeed.Parser
}

func newArxiv(deps scraper.Deps) *arxiv {
	return &arxiv{
		// arXiv asks for no more than one request per 3 seconds.
		http:    deps.NewHTTPClient("arxiv", 20, nil),
		baseURL: "https://export.arxiv.org/api/query",
		parser:  gofeed.NewParser(),
	}
}

func (a *arxiv) Name() string                             { return "arxiv" }
func (a *arxiv) DisplayName() string                      { return "arXiv" }
func (a *arxiv) RequiredConfig() []string                 { return nil }
func (a *arxiv) ValidateConfig(models.SourceConfig) error { return nil }

func (a *arxiv) Scrape(ctx context.Context, keywords []string, cfg models.SourceConfig) ([]models.NormalizedItem, error) {
	limit := maxArticles(cfg, scraper.DefaultMaxArticles)

	body, err := a.http.GetBody(ctx, a.queryURL(keywords, limit), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query arxiv: %w", err)
	}
	feed, err := a.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse arxiv feed: %w", err)
	}

	items := make([]models.NormalizedItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		item, ok := a.normalize(entry)
		if !ok {
			logging.Warn().Str("entry", entry.GUID).Msg("Skipping malformed arXiv entry")
			continue
		}
		items = append(items, item)
	}
	return dedupeByURL(items, limit), nil
}

// queryURL builds the search query: all configured categories, optionally
// restricted to entries mentioning any keyword, newest submissions first.
func (a *arxiv) queryURL(keywords []string, limit int) string {
	catQuery := make([]string, len(arxivCategories))
	for i, cat := range arxivCategories {
		catQuery[i] = "cat:" + cat
	}
	search := "(" + strings.Join(catQuery, " OR ") + ")"

	if len(keywords) > 0 {
		kwQuery := make([]string, len(keywords))
		for i, kw := range keywords {
			kwQuery[i] = "all:" + kw
		}
		search += " AND (" + strings.Join(kwQuery, " OR ") + ")"
	}

	query := url.Values{
		"search_query": {search},
		"max_results":  {fmt.Sprintf("%d", limit)},
		"sortBy":       {"submittedDate"},
		"sortOrder":    {"descending"},
	}
	return a.baseURL + "?" + query.Encode()
}

func (a *arxiv) normalize(entry *gofeed.Item) (models.NormalizedItem, bool) {
	if entry.Title == "" || entry.GUID == "" {
		return models.NormalizedItem{}, false
	}

	// Entry ids look like http://arxiv.org/abs/2401.00001v1.
	parts := strings.Split(entry.GUID, "/")
	arxivID := parts[len(parts)-1]

	link := entry.Link
	if link == "" {
		link = entry.GUID
	}

	publishedAt := time.Now().UTC()
	if entry.PublishedParsed != nil {
		publishedAt = entry.PublishedParsed.UTC()
	}

	authors := make([]string, 0, len(entry.Authors))
	for _, author := range entry.Authors {
		if author.Name != "" {
			authors = append(authors, author.Name)
		}
	}

	// The primary category leads the category list.
	var tags []string
	if len(entry.Categories) > 0 {
		tags = []string{entry.Categories[0]}
	}

	return models.NormalizedItem{
		Title:       strings.Join(strings.Fields(entry.Title), " "),
		URL:         link,
		Content:     strings.Join(strings.Fields(entry.Description), " "),
		Author:      strings.Join(authors, ", "),
		SourceType:  "arxiv",
		ExternalID:  arxivID,
		PublishedAt: publishedAt,
		Tags:        tags,
	}, true
}
