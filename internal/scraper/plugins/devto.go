// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package plugins

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/techwatch/techwatch/internal/logging"
	"github.com/techwatch/techwatch/internal/models"
	"github.com/techwatch/techwatch/internal/scraper"
)

// devtoMaxTagQueries bounds how many keyword tags are queried per scrape.
const devtoMaxTagQueries = 5

func init() {
	scraper.Register("devto", func(deps scraper.Deps) scraper.Plugin {
		return newDevto(deps)
	})
}

// devto scrapes articles through the Forem REST API.
// API docs: https://developers.forem.com/api
type devto struct {
	http    *scraper.Client
	baseURL string
}

func newDevto(deps scraper.Deps) *devto {
	return &devto{
		http:    deps.NewHTTPClient("devto", 20, nil),
		baseURL: "https://dev.to/api",
	}
}

func (d *devto) Name() string                             { return "devto" }
func (d *devto) DisplayName() string                      { return "Dev.to" }
func (d *devto) RequiredConfig() []string                 { return nil }
func (d *devto) ValidateConfig(models.SourceConfig) error { return nil }

type devtoArticle struct {
	ID             int64    `json:"id"`
	Title          string   `json:"title"`
	URL            string   `json:"url"`
	Description    string   `json:"description"`
	PublishedAt    string   `json:"published_at"`
	TagList        []string `json:"tag_list"`
	ReactionsCount int64    `json:"positive_reactions_count"`
	CommentsCount  int64    `json:"comments_count"`
	User           struct {
		Name     string `json:"name"`
		Username string `json:"username"`
	} `json:"user"`
}

// Scrape queries keywords as Dev.to tags, or the fresh article list when no
// keywords are given. Tags are Dev.to's keyword system, so tag results skip
// the title pre-filter.
func (d *devto) Scrape(ctx context.Context, keywords []string, cfg models.SourceConfig) ([]models.NormalizedItem, error) {
	limit := maxArticles(cfg, scraper.DefaultMaxArticles)
	perPage := limit
	if perPage > 100 {
		perPage = 100
	}

	var items []models.NormalizedItem
	if len(keywords) > 0 {
		tags := keywords
		if len(tags) > devtoMaxTagQueries {
			tags = tags[:devtoMaxTagQueries]
		}
		for _, keyword := range tags {
			if len(items) >= limit {
				break
			}
			fetched, err := d.fetch(ctx, devtoTag(keyword), perPage)
			if err != nil {
				logging.Warn().Str("tag", keyword).Err(err).Msg("Failed to fetch Dev.to tag")
				continue
			}
			items = append(items, fetched...)
		}
	} else {
		fetched, err := d.fetch(ctx, "", perPage)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch latest articles: %w", err)
		}
		items = fetched
	}

	return dedupeByURL(items, limit), nil
}

// devtoTag normalizes a keyword into Dev.to tag form: lowercase, no spaces.
func devtoTag(keyword string) string {
	return strings.ReplaceAll(strings.ToLower(keyword), " ", "")
}

func (d *devto) fetch(ctx context.Context, tag string, perPage int) ([]models.NormalizedItem, error) {
	query := url.Values{
		"per_page": {fmt.Sprintf("%d", perPage)},
		"state":    {"fresh"},
	}
	if tag != "" {
		query.Set("tag", tag)
	}

	var articles []devtoArticle
	if err := d.http.GetJSON(ctx, d.baseURL+"/articles?"+query.Encode(), nil, &articles); err != nil {
		return nil, err
	}

	items := make([]models.NormalizedItem, 0, len(articles))
	for _, article := range articles {
		if article.Title == "" || article.URL == "" || article.ID == 0 {
			continue
		}

		publishedAt, err := time.Parse(time.RFC3339, article.PublishedAt)
		if err != nil {
			publishedAt = time.Now().UTC()
		}
		author := article.User.Name
		if author == "" {
			author = article.User.Username
		}

		items = append(items, models.NormalizedItem{
			Title:         article.Title,
			URL:           article.URL,
			Content:       article.Description,
			Author:        author,
			SourceType:    "devto",
			ExternalID:    fmt.Sprintf("%d", article.ID),
			PublishedAt:   publishedAt,
			Tags:          article.TagList,
			Upvotes:       article.ReactionsCount,
			CommentsCount: article.CommentsCount,
		})
	}
	return items, nil
}
