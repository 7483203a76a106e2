// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

/*
plugin.go - Scraper Plugin Contract

A plugin wraps one upstream content source (Hacker News, Reddit, arXiv,
YouTube, ...) and emits NormalizedItem values. Plugins are registered by
their init functions and constructed per run through the registry, so the
orchestrator never imports a concrete source package.

Plugin Lifecycle:
 1. ValidateConfig is called with the source row's config before a scrape.
    Plugins whose credentials are missing fail here and the source is
    recorded as failed without an outbound request.
 2. Scrape runs with the run's context. Plugins must honor cancellation
    between requests; a canceled scrape returns the context error rather
    than a partial item list.
*/

//nolint:staticcheck // File documentation, not package doc
package scraper

import (
	"context"
	"net/http"
	"time"

	"github.com/techwatch/techwatch/internal/config"
	"github.com/techwatch/techwatch/internal/models"
)

// DefaultMaxArticles caps items per scrape when the source config does not
// set max_articles.
const DefaultMaxArticles = 25

// Plugin is the contract every content source implements.
type Plugin interface {
	// Name returns the source_type this plugin serves, e.g. "hackernews".
	Name() string

	// DisplayName returns the human-readable source name for the API.
	DisplayName() string

	// RequiredConfig lists config keys that must be present for a scrape.
	RequiredConfig() []string

	// ValidateConfig checks the source configuration and credentials.
	ValidateConfig(cfg models.SourceConfig) error

	// Scrape fetches and normalizes items for the given keywords.
	Scrape(ctx context.Context, keywords []string, cfg models.SourceConfig) ([]models.NormalizedItem, error)
}

// ChannelRegistry is the slice of the database layer the youtube_rss plugin
// needs. Satisfied by *database.DB.
type ChannelRegistry interface {
	ActiveYouTubeChannels(ctx context.Context) ([]models.YouTubeChannel, error)
	TouchYouTubeChannel(ctx context.Context, channelID string, videoAt time.Time) error
}

// KeywordDirectory exposes the active global keywords with their weights.
// Satisfied by *database.DB. Plugins that rank results by keyword relevance
// read weights through this instead of importing the database package.
type KeywordDirectory interface {
	ActiveKeywords(ctx context.Context) ([]models.Keyword, error)
}

// Deps carries the shared runtime every plugin builds on: the result cache,
// API quota manager, channel registry, keyword directory, and credentials.
type Deps struct {
	Cache    *ResultCache
	Quota    *QuotaManager
	Channels ChannelRegistry
	Keywords KeywordDirectory
	Sources  *config.SourcesConfig
	Scraper  *config.ScraperConfig

	// HTTP overrides every plugin's client when set. Tests use this to
	// point plugins at an httptest server with a short backoff.
	HTTP *Client
}

// NewHTTPClient builds the per-source HTTP client from the scraper config,
// honoring the test override. httpClient may carry an OAuth2 transport.
func (d Deps) NewHTTPClient(source string, requestsPerMinute float64, httpClient *http.Client) *Client {
	if d.HTTP != nil {
		return d.HTTP
	}

	opts := ClientOptions{
		Source:            source,
		RequestsPerMinute: requestsPerMinute,
		HTTPClient:        httpClient,
	}
	if d.Scraper != nil {
		opts.UserAgent = d.Scraper.UserAgent
		opts.Timeout = d.Scraper.RequestTimeout
		opts.MaxRetries = d.Scraper.MaxRetries
	}
	return NewClient(opts)
}
