// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package plugins

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/techwatch/techwatch/internal/logging"
	"github.com/techwatch/techwatch/internal/models"
	"github.com/techwatch/techwatch/internal/scraper"
)

func init() {
	scraper.Register("reddit", func(deps scraper.Deps) scraper.Plugin {
		return newReddit(deps)
	})
}

// reddit scrapes hot posts from configured subreddits through the OAuth
// API. Authentication uses the client-credentials grant; the oauth2 package
// caches and refreshes the token internally.
type reddit struct {
	deps    scraper.Deps
	baseURL string
	authURL string
}

func newReddit(deps scraper.Deps) *reddit {
	return &reddit{
		deps:    deps,
		baseURL: "https://oauth.reddit.com",
		authURL: "https://www.reddit.com/api/v1/access_token",
	}
}

func (r *reddit) Name() string        { return "reddit" }
func (r *reddit) DisplayName() string { return "Reddit" }

func (r *reddit) RequiredConfig() []string { return []string{"subreddits"} }

func (r *reddit) ValidateConfig(cfg models.SourceConfig) error {
	if r.deps.Sources == nil || r.deps.Sources.RedditClientID == "" || r.deps.Sources.RedditClientSecret == "" {
		return fmt.Errorf("reddit credentials are not configured")
	}
	if len(cfg.GetStringSlice("subreddits")) == 0 {
		return fmt.Errorf("config key subreddits is required")
	}
	return nil
}

// redditListing is the subset of the /hot response the plugin reads.
type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	SelfText    string  `json:"selftext"`
	Author      string  `json:"author"`
	CreatedUTC  float64 `json:"created_utc"`
	Flair       string  `json:"link_flair_text"`
	Ups         int64   `json:"ups"`
	NumComments int64   `json:"num_comments"`
}

func (r *reddit) Scrape(ctx context.Context, keywords []string, cfg models.SourceConfig) ([]models.NormalizedItem, error) {
	if err := r.ValidateConfig(cfg); err != nil {
		return nil, err
	}

	limit := maxArticles(cfg, scraper.DefaultMaxArticles)
	client := r.newAuthedClient(ctx)

	var items []models.NormalizedItem
	for _, subreddit := range cfg.GetStringSlice("subreddits") {
		if len(items) >= limit {
			break
		}

		// Fetch double the target so the keyword filter has headroom.
		posts, err := r.fetchHot(ctx, client, subreddit, limit*2)
		if err != nil {
			logging.Warn().Str("subreddit", subreddit).Err(err).Msg("Failed to fetch subreddit")
			continue
		}
		for _, post := range posts {
			if len(items) >= limit {
				break
			}
			if !matchesKeywords(post.Title, keywords) {
				continue
			}
			items = append(items, r.normalize(post))
		}
	}

	return dedupeByURL(items, limit), nil
}

// newAuthedClient builds the per-scrape HTTP client with the OAuth2
// client-credentials transport injected underneath the retry layer.
func (r *reddit) newAuthedClient(ctx context.Context) *scraper.Client {
	cc := clientcredentials.Config{
		ClientID:     r.deps.Sources.RedditClientID,
		ClientSecret: r.deps.Sources.RedditClientSecret,
		TokenURL:     r.authURL,
	}
	// Reddit's OAuth budget is 60 requests per minute.
	return r.deps.NewHTTPClient("reddit", 60, cc.Client(ctx))
}

func (r *reddit) fetchHot(ctx context.Context, client *scraper.Client, subreddit string, limit int) ([]redditPost, error) {
	reqURL := fmt.Sprintf("%s/r/%s/hot?limit=%d", r.baseURL, url.PathEscape(subreddit), limit)
	header := http.Header{"User-Agent": []string{"TechWatch/1.0"}}

	var listing redditListing
	if err := client.GetJSON(ctx, reqURL, header, &listing); err != nil {
		return nil, err
	}

	posts := make([]redditPost, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		posts = append(posts, child.Data)
	}
	return posts, nil
}

func (r *reddit) normalize(post redditPost) models.NormalizedItem {
	var tags []string
	if post.Flair != "" {
		tags = []string{post.Flair}
	}
	return models.NormalizedItem{
		Title:         post.Title,
		URL:           post.URL,
		Content:       post.SelfText,
		Author:        post.Author,
		SourceType:    "reddit",
		ExternalID:    post.ID,
		PublishedAt:   time.Unix(int64(post.CreatedUTC), 0).UTC(),
		Tags:          tags,
		Upvotes:       post.Ups,
		CommentsCount: post.NumComments,
	}
}
