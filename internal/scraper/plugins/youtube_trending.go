// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package plugins

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"google.golang.org/api/option"
	youtube "google.golang.org/api/youtube/v3"

	"github.com/techwatch/techwatch/internal/logging"
	"github.com/techwatch/techwatch/internal/models"
	"github.com/techwatch/techwatch/internal/scraper"
)

const (
	// videosListQuotaCost is what one videos.list call costs in quota units.
	videosListQuotaCost = 100

	// techCategoryID is YouTube's "Science & Technology" category.
	techCategoryID = "28"

	// shortsMaxSeconds is the duration ceiling treated as a Short.
	shortsMaxSeconds = 60
)

func init() {
	scraper.Register("youtube_trending", func(deps scraper.Deps) scraper.Plugin {
		return newYouTubeTrending(deps)
	})
}

// youtubeTrending fetches the most popular tech-category videos through the
// Data API v3. Every call costs quota, so the shared quota manager is
// consulted before the call and charged only after it succeeds.
type youtubeTrending struct {
	quota    *scraper.QuotaManager
	keywords scraper.KeywordDirectory
	apiKey   string

	// newService is replaceable in tests.
	newService func(ctx context.Context) (*youtube.Service, error)
}

func newYouTubeTrending(deps scraper.Deps) *youtubeTrending {
	var apiKey string
	if deps.Sources != nil {
		apiKey = deps.Sources.YouTubeAPIKey
	}
	p := &youtubeTrending{
		quota:    deps.Quota,
		keywords: deps.Keywords,
		apiKey:   apiKey,
	}
	p.newService = func(ctx context.Context) (*youtube.Service, error) {
		return youtube.NewService(ctx, option.WithAPIKey(p.apiKey))
	}
	return p
}

func (y *youtubeTrending) Name() string             { return "youtube_trending" }
func (y *youtubeTrending) DisplayName() string      { return "YouTube Trending" }
func (y *youtubeTrending) RequiredConfig() []string { return nil }

func (y *youtubeTrending) ValidateConfig(models.SourceConfig) error {
	if y.apiKey == "" {
		return fmt.Errorf("youtube api key is not configured")
	}
	return nil
}

func (y *youtubeTrending) Scrape(ctx context.Context, keywords []string, cfg models.SourceConfig) ([]models.NormalizedItem, error) {
	if err := y.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	limit := maxArticles(cfg, scraper.DefaultMaxArticles)

	// An exhausted quota skips the API call without failing the run; the
	// daily reset makes the next scrape succeed again.
	ok, err := y.quota.CanSpend(ctx, videosListQuotaCost)
	if err != nil {
		return nil, fmt.Errorf("failed to check quota: %w", err)
	}
	if !ok {
		logging.Warn().Msg("YouTube API quota exhausted, skipping trending scrape")
		return []models.NormalizedItem{}, nil
	}

	svc, err := y.newService(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build youtube service: %w", err)
	}

	call := svc.Videos.List([]string{"snippet", "contentDetails", "statistics"}).
		Chart("mostPopular").
		RegionCode(cfg.GetString("region_code", "US")).
		VideoCategoryId(techCategoryID).
		MaxResults(50)
	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list trending videos: %w", err)
	}

	// The call went through; charge its quota cost now.
	if err := y.quota.Reserve(ctx, videosListQuotaCost); err != nil {
		logging.Warn().Err(err).Msg("Failed to record quota usage")
	}

	filter := trendingFilter{
		includeShorts: cfg.GetBool("include_shorts", false),
		minViews:      int64(cfg.GetInt("min_view_count", 0)),
		minMatches:    cfg.GetInt("min_keyword_matches", 0),
	}

	candidates := make([]models.NormalizedItem, 0, len(resp.Items))
	for _, video := range resp.Items {
		if item, ok := y.normalize(video); ok {
			candidates = append(candidates, item)
		}
	}

	items := rankTrendingVideos(candidates, keywords, y.keywordWeights(ctx), filter)
	return dedupeByURL(items, limit), nil
}

// trendingFilter holds the per-source tuning knobs for trending results.
type trendingFilter struct {
	includeShorts bool
	minViews      int64
	minMatches    int
}

// rankTrendingVideos filters the candidates and orders them by keyword
// relevance. Relevance is the sum of the weights of the keywords found in
// the video's title, description, and tags; view count breaks ties.
func rankTrendingVideos(candidates []models.NormalizedItem, keywords []string, weights map[string]float64, f trendingFilter) []models.NormalizedItem {
	type ranked struct {
		item      models.NormalizedItem
		relevance float64
	}
	var results []ranked
	for _, item := range candidates {
		if !f.includeShorts && item.DurationSeconds > 0 && item.DurationSeconds <= shortsMaxSeconds {
			continue
		}
		if item.ViewCount < f.minViews {
			continue
		}
		text := item.Title + " " + item.Content + " " + strings.Join(item.Tags, " ")
		relevance, matches := keywordRelevance(text, keywords, weights)
		if matches < f.minMatches {
			continue
		}
		results = append(results, ranked{item: item, relevance: relevance})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].relevance != results[j].relevance {
			return results[i].relevance > results[j].relevance
		}
		return results[i].item.ViewCount > results[j].item.ViewCount
	})

	items := make([]models.NormalizedItem, 0, len(results))
	for _, r := range results {
		items = append(items, r.item)
	}
	return items
}

// keywordWeights loads the active keyword weights. Missing directory or a
// load failure falls back to uniform weights.
func (y *youtubeTrending) keywordWeights(ctx context.Context) map[string]float64 {
	if y.keywords == nil {
		return nil
	}
	kws, err := y.keywords.ActiveKeywords(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to load keyword weights, using uniform weights")
		return nil
	}
	weights := make(map[string]float64, len(kws))
	for _, kw := range kws {
		weight := kw.Weight
		if weight == 0 {
			weight = 1.0
		}
		weights[strings.ToLower(kw.Keyword)] = weight
	}
	return weights
}

func (y *youtubeTrending) normalize(video *youtube.Video) (models.NormalizedItem, bool) {
	if video == nil || video.Id == "" || video.Snippet == nil {
		return models.NormalizedItem{}, false
	}
	snippet := video.Snippet
	if snippet.Title == "" {
		return models.NormalizedItem{}, false
	}

	publishedAt, err := time.Parse(time.RFC3339, snippet.PublishedAt)
	if err != nil {
		publishedAt = time.Now().UTC()
	}

	var duration int64
	if video.ContentDetails != nil {
		duration = parseISODuration(video.ContentDetails.Duration)
	}
	var viewCount int64
	if video.Statistics != nil {
		viewCount = int64(video.Statistics.ViewCount) //nolint:gosec // API counts fit int64
	}

	return models.NormalizedItem{
		Title:           snippet.Title,
		URL:             "https://youtube.com/watch?v=" + video.Id,
		Content:         snippet.Description,
		Author:          snippet.ChannelTitle,
		SourceType:      "youtube_trending",
		ExternalID:      video.Id,
		PublishedAt:     publishedAt,
		Tags:            snippet.Tags,
		IsVideo:         true,
		VideoID:         video.Id,
		ChannelID:       snippet.ChannelId,
		ChannelName:     snippet.ChannelTitle,
		DurationSeconds: duration,
		ViewCount:       viewCount,
		ThumbnailURL:    bestThumbnail(snippet.Thumbnails),
	}, true
}

// bestThumbnail prefers the highest resolution available.
func bestThumbnail(thumbs *youtube.ThumbnailDetails) string {
	if thumbs == nil {
		return ""
	}
	for _, t := range []*youtube.Thumbnail{thumbs.Maxres, thumbs.High, thumbs.Medium, thumbs.Default} {
		if t != nil && t.Url != "" {
			return t.Url
		}
	}
	return ""
}

// keywordRelevance sums the weights of the keywords found in text and
// counts how many matched. Keywords absent from the weights map count 1.0.
func keywordRelevance(text string, keywords []string, weights map[string]float64) (float64, int) {
	lower := strings.ToLower(text)
	var relevance float64
	matches := 0
	for _, kw := range keywords {
		keyword := strings.ToLower(kw)
		if !strings.Contains(lower, keyword) {
			continue
		}
		weight, ok := weights[keyword]
		if !ok || weight == 0 {
			weight = 1.0
		}
		relevance += weight
		matches++
	}
	return relevance, matches
}

// parseISODuration converts ISO 8601 durations like "PT4M13S" to seconds.
// Returns 0 for unparseable input; YouTube occasionally reports "P0D" for
// live streams.
func parseISODuration(iso string) int64 {
	rest, ok := strings.CutPrefix(iso, "PT")
	if !ok {
		return 0
	}

	var total, current int64
	for _, r := range rest {
		switch {
		case r >= '0' && r <= '9':
			current = current*10 + int64(r-'0')
		case r == 'H':
			total += current * 3600
			current = 0
		case r == 'M':
			total += current * 60
			current = 0
		case r == 'S':
			total += current
			current = 0
		default:
			return 0
		}
	}
	return total
}
