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

func init() {
	scraper.Register("youtube_rss", func(deps scraper.Deps) scraper.Plugin {
		return newYouTubeRSS(deps)
	})
}

// youtubeRSS monitors the upload feeds of registered channels. Feeds cost
// no API quota, so this is the cheap half of YouTube coverage; trending
// discovery lives in the youtube_trending plugin.
type youtubeRSS struct {
	http     *scraper.Client
	parser   *gofeed.Parser
	channels scraper.ChannelRegistry
}

func newYouTubeRSS(deps scraper.Deps) *youtubeRSS {
	return &youtubeRSS{
		http:     deps.NewHTTPClient("youtube_rss", 60, nil),
		parser:   gofeed.NewParser(),
		channels: deps.Channels,
	}
}

func (y *youtubeRSS) Name() string             { return "youtube_rss" }
func (y *youtubeRSS) DisplayName() string      { return "YouTube Channels" }
func (y *youtubeRSS) RequiredConfig() []string { return nil }

func (y *youtubeRSS) ValidateConfig(models.SourceConfig) error {
	if y.channels == nil {
		return fmt.Errorf("channel registry is not configured")
	}
	return nil
}

func (y *youtubeRSS) Scrape(ctx context.Context, keywords []string, cfg models.SourceConfig) ([]models.NormalizedItem, error) {
	if err := y.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	limit := maxArticles(cfg, scraper.DefaultMaxArticles)

	channels, err := y.channels.ActiveYouTubeChannels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load channel registry: %w", err)
	}
	if len(channels) == 0 {
		logging.Info().Msg("No active YouTube channels registered")
		return nil, nil
	}

	var items []models.NormalizedItem
	for _, channel := range channels {
		if len(items) >= limit {
			break
		}
		videos, newest, err := y.scrapeChannel(ctx, channel, keywords)
		if err != nil {
			logging.Warn().Str("channel", channel.ChannelID).Err(err).Msg("Failed to scrape channel feed")
			continue
		}
		items = append(items, videos...)

		if !newest.IsZero() {
			if err := y.channels.TouchYouTubeChannel(ctx, channel.ChannelID, newest); err != nil {
				logging.Warn().Str("channel", channel.ChannelID).Err(err).Msg("Failed to update channel watermark")
			}
		}
	}
	return dedupeByURL(items, limit), nil
}

// scrapeChannel returns the channel's matching videos and the newest
// publish time seen, for the registry watermark.
func (y *youtubeRSS) scrapeChannel(ctx context.Context, channel models.YouTubeChannel, keywords []string) ([]models.NormalizedItem, time.Time, error) {
	body, err := y.http.GetBody(ctx, channel.FeedURL(), nil)
	if err != nil {
		return nil, time.Time{}, err
	}
	feed, err := y.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, time.Time{}, err
	}

	var (
		items  []models.NormalizedItem
		newest time.Time
	)
	for _, entry := range feed.Items {
		videoID := youtubeVideoID(entry)
		if videoID == "" || entry.Title == "" {
			continue
		}

		publishedAt := time.Now().UTC()
		if entry.PublishedParsed != nil {
			publishedAt = entry.PublishedParsed.UTC()
		}
		if publishedAt.After(newest) {
			newest = publishedAt
		}

		if !matchesKeywords(entry.Title, keywords) {
			continue
		}

		items = append(items, models.NormalizedItem{
			Title:        entry.Title,
			URL:          "https://www.youtube.com/watch?v=" + videoID,
			Content:      entry.Description,
			Author:       channel.Name,
			SourceType:   "youtube_rss",
			ExternalID:   videoID,
			PublishedAt:  publishedAt,
			IsVideo:      true,
			VideoID:      videoID,
			ChannelID:    channel.ChannelID,
			ChannelName:  channel.Name,
			ThumbnailURL: fmt.Sprintf("https://i.ytimg.com/vi/%s/hqdefault.jpg", videoID),
		})
	}
	return items, newest, nil
}

// youtubeVideoID extracts the video id from a feed entry. Upload feed guids
// have the form "yt:video:VIDEOID"; the link's v parameter is the fallback.
func youtubeVideoID(entry *gofeed.Item) string {
	if id, ok := strings.CutPrefix(entry.GUID, "yt:video:"); ok {
		return id
	}
	parsed, err := url.Parse(entry.Link)
	if err != nil {
		return ""
	}
	return parsed.Query().Get("v")
}
