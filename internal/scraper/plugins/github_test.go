// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package plugins

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/techwatch/techwatch/internal/models"
)

// trendingPage mimics the markup of github.com/trending closely enough for
// the selectors under test.
const trendingPage = `<!DOCTYPE html>
<html><body>
<article class="Box-row">
  <h2><a href="/duckdb/duckdb">duckdb / duckdb</a></h2>
  <p>DuckDB is an analytical in-process SQL database management system</p>
  <span itemprop="programmingLanguage">C++</span>
  <a href="/duckdb/duckdb/stargazers">24,512</a>
  <a href="/duckdb/duckdb/forks">1,930</a>
  <span class="d-inline-block float-sm-right">312 stars today</span>
</article>
<article class="Box-row">
  <h2><a href="/someone/dotfiles">someone / dotfiles</a></h2>
  <p>My personal configuration files</p>
  <span itemprop="programmingLanguage">Shell</span>
  <a href="/someone/dotfiles/stargazers">980</a>
  <a href="/someone/dotfiles/forks">41</a>
  <span class="d-inline-block float-sm-right">12 stars today</span>
</article>
</body></html>`

func TestGithubTrendingScrape(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		w.Header().Set("Content-Type", "text/html")
		if _, err := w.Write([]byte(trendingPage)); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	t.Cleanup(server.Close)

	plugin := newGithubTrending(testDeps(server))
	plugin.baseURL = server.URL

	items, err := plugin.Scrape(context.Background(), []string{"duckdb"}, models.SourceConfig{"since": "weekly"})
	if err != nil {
		t.Fatalf("Scrape failed: %v", err)
	}
	if gotPath != "/?since=weekly" {
		t.Errorf("unexpected request path %q", gotPath)
	}
	if len(items) != 1 {
		t.Fatalf("expected only the keyword-matching repo, got %d items", len(items))
	}

	repo := items[0]
	if repo.URL != "https://github.com/duckdb/duckdb" {
		t.Errorf("unexpected URL %q", repo.URL)
	}
	if repo.Author != "duckdb" {
		t.Errorf("unexpected author %q", repo.Author)
	}
	if repo.ExternalID != "duckdb_duckdb" {
		t.Errorf("unexpected external id %q", repo.ExternalID)
	}
	wantTags := []string{"C++", "hot"}
	if len(repo.Tags) != len(wantTags) || repo.Tags[0] != wantTags[0] || repo.Tags[1] != wantTags[1] {
		t.Errorf("expected tags %v, got %v", wantTags, repo.Tags)
	}
	if repo.Content != "DuckDB is an analytical in-process SQL database management system (stars: 24512, forks: 1930, today: +312)" {
		t.Errorf("unexpected content %q", repo.Content)
	}
}

func TestGithubTrendingNoKeywordsTakesAll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if _, err := w.Write([]byte(trendingPage)); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	t.Cleanup(server.Close)

	plugin := newGithubTrending(testDeps(server))
	plugin.baseURL = server.URL

	items, err := plugin.Scrape(context.Background(), nil, models.SourceConfig{})
	if err != nil {
		t.Fatalf("Scrape failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected both repos, got %d", len(items))
	}
	if items[1].Tags[len(items[1].Tags)-1] == "hot" {
		t.Error("12 stars today should not be tagged hot")
	}
}

func TestParseCount(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{" 12,345 ", 12345},
		{"7", 7},
		{"", 0},
		{"n/a", 0},
	}
	for _, tc := range cases {
		if got := parseCount(tc.in); got != tc.want {
			t.Errorf("parseCount(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestParseTodayStars(t *testing.T) {
	if got := parseTodayStars("1,234 stars today"); got != 1234 {
		t.Errorf("expected 1234, got %d", got)
	}
	if got := parseTodayStars(""); got != 0 {
		t.Errorf("expected 0 for empty text, got %d", got)
	}
}
