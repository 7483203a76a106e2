// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package database

import (
	"context"
	"fmt"

	"github.com/techwatch/techwatch/internal/logging"
	"github.com/techwatch/techwatch/internal/models"
)

// SeedDefaults inserts the default source and keyword catalog when the
// corresponding tables are empty. Existing data is never modified, so the
// call is safe on every start.
func (db *DB) SeedDefaults(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var sourceCount int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM sources`).Scan(&sourceCount); err != nil {
		return fmt.Errorf("failed to count sources: %w", err)
	}
	if sourceCount == 0 {
		for _, src := range defaultSources() {
			s := src
			if err := db.CreateSource(ctx, &s); err != nil {
				return fmt.Errorf("failed to seed source %s: %w", s.SourceType, err)
			}
		}
		logging.Info().Int("sources", len(defaultSources())).Msg("Seeded default sources")
	}

	var keywordCount int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM keywords`).Scan(&keywordCount); err != nil {
		return fmt.Errorf("failed to count keywords: %w", err)
	}
	if keywordCount == 0 {
		for _, kw := range defaultKeywords() {
			k := kw
			if err := db.CreateKeyword(ctx, &k); err != nil {
				return fmt.Errorf("failed to seed keyword %q: %w", k.Keyword, err)
			}
		}
		logging.Info().Int("keywords", len(defaultKeywords())).Msg("Seeded default keywords")
	}

	return nil
}

// defaultSources returns one row per bundled scraper plugin. Sources whose
// plugin needs credentials start inactive so a fresh install never fails
// config validation.
func defaultSources() []models.Source {
	return []models.Source{
		{
			Name: "Hacker News", SourceType: "hackernews", IsActive: true,
			Config: models.SourceConfig{"max_articles": 30},
		},
		{
			Name: "Reddit", SourceType: "reddit", IsActive: false,
			Config: models.SourceConfig{
				"subreddits":   []string{"programming", "MachineLearning", "golang"},
				"max_articles": 25,
			},
		},
		{
			Name: "Dev.to", SourceType: "devto", IsActive: true,
			Config: models.SourceConfig{"max_articles": 25},
		},
		{
			Name: "arXiv", SourceType: "arxiv", IsActive: true,
			Config: models.SourceConfig{"max_articles": 20},
		},
		{
			Name: "Official Blogs", SourceType: "official_blogs", IsActive: true,
			Config: models.SourceConfig{
				"feeds": []string{
					"https://go.dev/blog/feed.atom",
					"https://openai.com/blog/rss.xml",
					"https://www.anthropic.com/rss.xml",
					"https://engineering.fb.com/feed/",
				},
				"max_articles": 20,
			},
		},
		{
			Name: "GitHub Trending", SourceType: "github_trending", IsActive: true,
			Config: models.SourceConfig{"language": "", "since": "daily", "max_articles": 25},
		},
		{
			Name: "Medium", SourceType: "medium", IsActive: true,
			Config: models.SourceConfig{
				"tags":         []string{"programming", "artificial-intelligence"},
				"max_articles": 20,
			},
		},
		{
			Name: "Twitter", SourceType: "twitter", IsActive: false,
			Config: models.SourceConfig{
				"accounts":     []string{"AnthropicAI", "OpenAI"},
				"max_articles": 20,
			},
		},
		{
			Name: "YouTube Channels", SourceType: "youtube_rss", IsActive: true,
			Config: models.SourceConfig{"max_articles": 20},
		},
		{
			Name: "YouTube Trending", SourceType: "youtube_trending", IsActive: false,
			Config: models.SourceConfig{
				"region_code":         "US",
				"max_articles":        20,
				"include_shorts":      false,
				"min_view_count":      1000,
				"min_keyword_matches": 0,
			},
		},
	}
}

// defaultKeywords returns the starter interest catalog.
func defaultKeywords() []models.Keyword {
	return []models.Keyword{
		{Keyword: "python", Category: "programming", Weight: 1.0, IsActive: true},
		{Keyword: "golang", Category: "programming", Weight: 1.0, IsActive: true},
		{Keyword: "rust", Category: "programming", Weight: 0.8, IsActive: true},
		{Keyword: "AI", Category: "ai_ml", Weight: 1.5, IsActive: true},
		{Keyword: "machine learning", Category: "ai_ml", Weight: 1.3, IsActive: true},
		{Keyword: "LLM", Category: "ai_ml", Weight: 1.4, IsActive: true},
		{Keyword: "claude", Category: "ai_ml", Weight: 1.5, IsActive: true},
		{Keyword: "dbt", Category: "data_engineering", Weight: 1.0, IsActive: true},
		{Keyword: "snowflake", Category: "data_engineering", Weight: 1.0, IsActive: true},
		{Keyword: "duckdb", Category: "data_engineering", Weight: 1.1, IsActive: true},
		{Keyword: "airflow", Category: "data_engineering", Weight: 0.9, IsActive: true},
		{Keyword: "kubernetes", Category: "infrastructure", Weight: 0.9, IsActive: true},
		{Keyword: "blockchain", Category: "web3", Weight: 0.6, IsActive: true},
	}
}
