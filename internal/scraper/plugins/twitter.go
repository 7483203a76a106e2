// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package plugins

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/techwatch/techwatch/internal/logging"
	"github.com/techwatch/techwatch/internal/models"
	"github.com/techwatch/techwatch/internal/scraper"
)

// nitterInstances are tried in order until one answers. Public Nitter
// instances go down frequently; see the zedeus/nitter wiki for the list.
var nitterInstances = []string{
	"nitter.cz",
	"nitter.privacydev.net",
	"nitter.poast.org",
	"nitter.1d4.us",
	"nitter.kavin.rocks",
}

// tweetsPerFeed bounds how many entries are read from each account feed.
const tweetsPerFeed = 20

var (
	tweetStatusRe  = regexp.MustCompile(`/([^/]+/status/\d+)`)
	tweetIDRe      = regexp.MustCompile(`/status/(\d+)`)
	tweetAuthorRe  = regexp.MustCompile(`/([^/]+)/status/`)
	tweetHashtagRe = regexp.MustCompile(`#(\w+)`)
)

func init() {
	scraper.Register("twitter", func(deps scraper.Deps) scraper.Plugin {
		return newTwitter(deps)
	})
}

// twitter scrapes account timelines through Nitter RSS feeds, failing over
// across instances. The working instance is cached for the process
// lifetime; emitted URLs are rewritten back to twitter.com.
type twitter struct {
	http      *scraper.Client
	parser    *gofeed.Parser
	instances []string

	mu      sync.Mutex
	working string
}

func newTwitter(deps scraper.Deps) *twitter {
	return &twitter{
		http:      deps.NewHTTPClient("twitter", 30, nil),
		parser:    gofeed.NewParser(),
		instances: nitterInstances,
	}
}

func (t *twitter) Name() string             { return "twitter" }
func (t *twitter) DisplayName() string      { return "Twitter/X" }
func (t *twitter) RequiredConfig() []string { return []string{"accounts"} }

func (t *twitter) ValidateConfig(cfg models.SourceConfig) error {
	if len(cfg.GetStringSlice("accounts")) == 0 {
		return fmt.Errorf("config key accounts is required")
	}
	return nil
}

func (t *twitter) Scrape(ctx context.Context, keywords []string, cfg models.SourceConfig) ([]models.NormalizedItem, error) {
	if err := t.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	limit := maxArticles(cfg, scraper.DefaultMaxArticles)

	instance, err := t.findWorkingInstance(ctx)
	if err != nil {
		return nil, err
	}

	var items []models.NormalizedItem
	for _, account := range cfg.GetStringSlice("accounts") {
		if len(items) >= limit {
			break
		}
		feedURL := fmt.Sprintf("https://%s/%s/rss", instance, account)
		tweets, err := t.scrapeFeed(ctx, feedURL, keywords, account)
		if err != nil {
			logging.Warn().Str("account", account).Err(err).Msg("Failed to scrape account feed")
			continue
		}
		items = append(items, tweets...)
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})
	return dedupeByURL(items, limit), nil
}

// findWorkingInstance probes instances with a lightweight feed request and
// caches the first one that answers.
func (t *twitter) findWorkingInstance(ctx context.Context) (string, error) {
	t.mu.Lock()
	cached := t.working
	t.mu.Unlock()
	if cached != "" {
		return cached, nil
	}

	for _, instance := range t.instances {
		testURL := fmt.Sprintf("https://%s/github/rss", instance)
		if _, err := t.http.GetBody(ctx, testURL, nil); err != nil {
			logging.Debug().Str("instance", instance).Err(err).Msg("Nitter instance unavailable")
			continue
		}

		t.mu.Lock()
		t.working = instance
		t.mu.Unlock()
		logging.Info().Str("instance", instance).Msg("Using Nitter instance")
		return instance, nil
	}
	return "", fmt.Errorf("no working nitter instance found")
}

func (t *twitter) scrapeFeed(ctx context.Context, feedURL string, keywords []string, account string) ([]models.NormalizedItem, error) {
	body, err := t.http.GetBody(ctx, feedURL, nil)
	if err != nil {
		return nil, err
	}
	feed, err := t.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	entries := feed.Items
	if len(entries) > tweetsPerFeed {
		entries = entries[:tweetsPerFeed]
	}

	items := make([]models.NormalizedItem, 0, len(entries))
	for _, entry := range entries {
		if item, ok := t.normalize(entry, keywords, account); ok {
			items = append(items, item)
		}
	}
	return items, nil
}

func (t *twitter) normalize(entry *gofeed.Item, keywords []string, account string) (models.NormalizedItem, bool) {
	raw := entry.Title
	if raw == "" {
		raw = entry.Description
	}
	text := stripHTML(raw)
	if text == "" {
		return models.NormalizedItem{}, false
	}
	if !matchesKeywords(text, keywords) {
		return models.NormalizedItem{}, false
	}

	twitterURL := nitterToTwitterURL(entry.Link)
	if twitterURL == "" {
		return models.NormalizedItem{}, false
	}

	author := account
	if match := tweetAuthorRe.FindStringSubmatch(entry.Link); match != nil {
		author = match[1]
	}

	externalID := entry.Link
	if match := tweetIDRe.FindStringSubmatch(twitterURL); match != nil {
		externalID = match[1]
	}

	publishedAt := time.Now().UTC()
	if entry.PublishedParsed != nil {
		publishedAt = entry.PublishedParsed.UTC()
	}

	tags := []string{account}
	for _, hashtag := range tweetHashtagRe.FindAllStringSubmatch(text, 4) {
		if !strings.EqualFold(hashtag[1], account) {
			tags = append(tags, hashtag[1])
		}
	}
	if len(tags) > 5 {
		tags = tags[:5]
	}

	return models.NormalizedItem{
		Title:       fmt.Sprintf("@%s: %s", author, truncate(text, 150)),
		URL:         twitterURL,
		Content:     text,
		Author:      author,
		SourceType:  "twitter",
		ExternalID:  externalID,
		PublishedAt: publishedAt,
		Tags:        tags,
	}, true
}

// nitterToTwitterURL rewrites a Nitter status link to its twitter.com form.
func nitterToTwitterURL(nitterURL string) string {
	if nitterURL == "" {
		return ""
	}
	if match := tweetStatusRe.FindStringSubmatch(nitterURL); match != nil {
		return "https://twitter.com/" + match[1]
	}
	return nitterURL
}
