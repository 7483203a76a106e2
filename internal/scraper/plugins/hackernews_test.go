// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package plugins

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/techwatch/techwatch/internal/models"
)

// newHNServer serves a Firebase-shaped API from an in-memory story map.
func newHNServer(t *testing.T, order []int64, stories map[int64]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/topstories.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, "[")
		for i, id := range order {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, "%d", id)
		}
		fmt.Fprint(w, "]")
	})
	mux.HandleFunc("/item/", func(w http.ResponseWriter, r *http.Request) {
		var id int64
		if _, err := fmt.Sscanf(r.URL.Path, "/item/%d.json", &id); err != nil {
			http.NotFound(w, r)
			return
		}
		body, ok := stories[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestHackerNewsScrape(t *testing.T) {
	server := newHNServer(t, []int64{1, 2, 3, 4, 5}, map[int64]string{
		1: `{"id":1,"type":"story","title":"Rust 2.0 released","url":"https://blog.rust-lang.org/2.0","by":"steve","time":1700000000,"score":342,"descendants":187}`,
		2: `{"id":2,"type":"job","title":"Hiring Rust engineers","url":"https://example.com/jobs","time":1700000100}`,
		3: `{"id":3,"type":"story","deleted":true,"title":"Deleted rust post","time":1700000200}`,
		4: `{"id":4,"type":"story","title":"Ask HN: Learning Rust in 2026?","text":"Where do I start?","by":"newbie","time":1700000300}`,
		5: `{"id":5,"type":"story","title":"Show HN: My gardening app","url":"https://example.com/garden","by":"gardener","time":1700000400}`,
	})

	plugin := newHackerNews(testDeps(server))
	plugin.baseURL = server.URL

	items, err := plugin.Scrape(context.Background(), []string{"rust"}, models.SourceConfig{})
	if err != nil {
		t.Fatalf("Scrape failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items (job, deleted, and keyword-miss skipped), got %d", len(items))
	}

	first := items[0]
	if first.Title != "Rust 2.0 released" {
		t.Errorf("unexpected title %q", first.Title)
	}
	if first.URL != "https://blog.rust-lang.org/2.0" {
		t.Errorf("unexpected URL %q", first.URL)
	}
	if first.Author != "steve" {
		t.Errorf("unexpected author %q", first.Author)
	}
	if first.SourceType != "hackernews" {
		t.Errorf("unexpected source type %q", first.SourceType)
	}
	if first.ExternalID != "1" {
		t.Errorf("unexpected external id %q", first.ExternalID)
	}
	if first.PublishedAt.Unix() != 1700000000 {
		t.Errorf("unexpected published at %v", first.PublishedAt)
	}
	if first.Upvotes != 342 || first.CommentsCount != 187 {
		t.Errorf("expected points and comment count carried over, got %d/%d",
			first.Upvotes, first.CommentsCount)
	}

	// Text posts have no external URL; the discussion page stands in.
	askHN := items[1]
	if askHN.URL != "https://news.ycombinator.com/item?id=4" {
		t.Errorf("expected discussion URL fallback, got %q", askHN.URL)
	}
	if askHN.Content != "Where do I start?" {
		t.Errorf("expected story text carried as content, got %q", askHN.Content)
	}
}

func TestHackerNewsScrapeHonorsLimit(t *testing.T) {
	order := make([]int64, 10)
	stories := make(map[int64]string, 10)
	for i := range order {
		id := int64(i + 1)
		order[i] = id
		stories[id] = fmt.Sprintf(
			`{"id":%d,"type":"story","title":"Go story %d","url":"https://example.com/%d","by":"a","time":1700000000}`,
			id, id, id)
	}
	server := newHNServer(t, order, stories)

	plugin := newHackerNews(testDeps(server))
	plugin.baseURL = server.URL

	items, err := plugin.Scrape(context.Background(), nil, models.SourceConfig{"max_articles": 3})
	if err != nil {
		t.Fatalf("Scrape failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
}

func TestHackerNewsScrapeSkipsFetchErrors(t *testing.T) {
	server := newHNServer(t, []int64{1, 99, 2}, map[int64]string{
		1: `{"id":1,"type":"story","title":"First story","url":"https://example.com/1","by":"a","time":1700000000}`,
		2: `{"id":2,"type":"story","title":"Second story","url":"https://example.com/2","by":"b","time":1700000100}`,
	})

	plugin := newHackerNews(testDeps(server))
	plugin.baseURL = server.URL

	items, err := plugin.Scrape(context.Background(), nil, models.SourceConfig{})
	if err != nil {
		t.Fatalf("Scrape failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected the 404 story to be skipped, got %d items", len(items))
	}
}

func TestHackerNewsScrapeCanceledContext(t *testing.T) {
	server := newHNServer(t, []int64{1}, map[int64]string{
		1: `{"id":1,"type":"story","title":"A story","url":"https://example.com/1","time":1700000000}`,
	})

	plugin := newHackerNews(testDeps(server))
	plugin.baseURL = server.URL

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := plugin.Scrape(ctx, nil, models.SourceConfig{}); err == nil {
		t.Fatal("expected an error for a canceled context")
	}
}
