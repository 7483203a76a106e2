// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package plugins

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/techwatch/techwatch/internal/models"
	"github.com/techwatch/techwatch/internal/scraper"
)

// hotRepoThreshold tags repos gaining more than this many stars today.
const hotRepoThreshold = 100

func init() {
	scraper.Register("github_trending", func(deps scraper.Deps) scraper.Plugin {
		return newGithubTrending(deps)
	})
}

// githubTrending scrapes github.com/trending, which has no API. The page
// markup is stable enough to parse with CSS selectors.
type githubTrending struct {
	http    *scraper.Client
	baseURL string
}

func newGithubTrending(deps scraper.Deps) *githubTrending {
	return &githubTrending{
		http:    deps.NewHTTPClient("github_trending", 30, nil),
		baseURL: "https://github.com/trending",
	}
}

func (g *githubTrending) Name() string                             { return "github_trending" }
func (g *githubTrending) DisplayName() string                      { return "GitHub Trending" }
func (g *githubTrending) RequiredConfig() []string                 { return nil }
func (g *githubTrending) ValidateConfig(models.SourceConfig) error { return nil }

// Scrape fetches the trending page, optionally scoped to a language and a
// time range ("daily", "weekly", "monthly").
func (g *githubTrending) Scrape(ctx context.Context, keywords []string, cfg models.SourceConfig) ([]models.NormalizedItem, error) {
	limit := maxArticles(cfg, scraper.DefaultMaxArticles)

	pageURL := g.baseURL
	if language := cfg.GetString("language", ""); language != "" {
		pageURL += "/" + language
	}
	if since := cfg.GetString("since", "daily"); since != "" {
		pageURL += "?since=" + since
	}

	body, err := g.http.GetBody(ctx, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch trending page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse trending page: %w", err)
	}

	now := time.Now().UTC()
	var items []models.NormalizedItem
	doc.Find("article.Box-row").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if item, ok := g.parseRepo(sel, keywords, now); ok {
			items = append(items, item)
		}
		return len(items) < limit
	})
	return items, nil
}

func (g *githubTrending) parseRepo(sel *goquery.Selection, keywords []string, now time.Time) (models.NormalizedItem, bool) {
	href, ok := sel.Find("h2 a").Attr("href")
	if !ok {
		return models.NormalizedItem{}, false
	}
	repoPath := strings.Trim(href, "/")
	if repoPath == "" {
		return models.NormalizedItem{}, false
	}
	repoName := strings.ReplaceAll(repoPath, "/", " / ")
	description := strings.TrimSpace(sel.Find("p").First().Text())

	if !matchesKeywords(repoName+" "+description, keywords) {
		return models.NormalizedItem{}, false
	}

	language := strings.TrimSpace(sel.Find(`[itemprop="programmingLanguage"]`).Text())
	stars := parseCount(sel.Find(`a[href$="/stargazers"]`).Text())
	forks := parseCount(sel.Find(`a[href$="/forks"]`).Text())
	todayStars := parseTodayStars(sel.Find("span.d-inline-block.float-sm-right").Text())

	var tags []string
	if language != "" {
		tags = append(tags, language)
	}
	if todayStars > hotRepoThreshold {
		tags = append(tags, "hot")
	}

	title := repoName
	if description != "" {
		title = fmt.Sprintf("%s - %s", repoName, truncate(description, 100))
	}
	owner := repoPath
	if idx := strings.Index(repoPath, "/"); idx > 0 {
		owner = repoPath[:idx]
	}
	content := description
	if content != "" {
		content += fmt.Sprintf(" (stars: %d, forks: %d, today: +%d)", stars, forks, todayStars)
	}

	return models.NormalizedItem{
		Title:      title,
		URL:        "https://github.com/" + repoPath,
		Content:    content,
		Author:     owner,
		SourceType: "github_trending",
		ExternalID: strings.ReplaceAll(repoPath, "/", "_"),
		// The trending page does not expose creation dates.
		PublishedAt: now,
		Tags:        tags,
	}, true
}

// parseCount reads star/fork counts like "12,345".
func parseCount(text string) int64 {
	cleaned := strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	n, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// parseTodayStars reads strings like "1,234 stars today".
func parseTodayStars(text string) int64 {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 {
		return 0
	}
	return parseCount(fields[0])
}
