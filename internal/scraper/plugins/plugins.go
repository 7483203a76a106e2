// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

/*
plugins.go - Shared Plugin Helpers

The ten source plugins live in this package, one file each. Every plugin
self-registers in its init function, so importing this package for side
effects (as cmd/server does) makes all sources available through the
scraper registry.

Common discipline across plugins:
  - quick keyword pre-filter on the title (an empty keyword list accepts
    everything)
  - per-item parse failures are logged and skipped, never fatal
  - results are deduplicated by URL and capped at max_articles
*/

//nolint:staticcheck // File documentation, not package doc
package plugins

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/techwatch/techwatch/internal/logging"
	"github.com/techwatch/techwatch/internal/models"
)

// matchesKeywords reports whether text contains any keyword,
// case-insensitively. An empty keyword list matches everything.
func matchesKeywords(text string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// dedupeByURL keeps the first occurrence of each URL and caps the result.
func dedupeByURL(items []models.NormalizedItem, limit int) []models.NormalizedItem {
	seen := make(map[string]bool, len(items))
	out := make([]models.NormalizedItem, 0, len(items))
	for _, item := range items {
		if seen[item.URL] {
			continue
		}
		seen[item.URL] = true
		out = append(out, item)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// stripHTML extracts the text content of an HTML fragment. Used for feed
// bodies that arrive as rendered HTML.
func stripHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		logging.Debug().Err(err).Msg("Failed to parse HTML fragment")
		return html
	}
	return strings.TrimSpace(doc.Text())
}

// maxArticles reads the per-source item cap from config.
func maxArticles(cfg models.SourceConfig, fallback int) int {
	limit := cfg.GetInt("max_articles", fallback)
	if limit <= 0 {
		return fallback
	}
	return limit
}

// truncate shortens s to at most n bytes on a word boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := s[:n]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}
