// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package scraper

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/techwatch/techwatch/internal/models"
)

// fakePlugin counts scrapes and returns canned items.
type fakePlugin struct {
	name    string
	items   []models.NormalizedItem
	err     error
	scrapes int
}

func (p *fakePlugin) Name() string                             { return p.name }
func (p *fakePlugin) DisplayName() string                      { return p.name }
func (p *fakePlugin) RequiredConfig() []string                 { return nil }
func (p *fakePlugin) ValidateConfig(models.SourceConfig) error { return nil }
func (p *fakePlugin) Scrape(context.Context, []string, models.SourceConfig) ([]models.NormalizedItem, error) {
	p.scrapes++
	return p.items, p.err
}

func TestCacheKeyDeterministic(t *testing.T) {
	cache := NewResultCache(NewMemoryKV(), time.Hour)

	cfg := models.SourceConfig{"max_articles": 30, "since": "daily"}
	key1 := cache.Key("hackernews", []string{"go", "AI"}, cfg)
	key2 := cache.Key("hackernews", []string{"AI", "go"}, cfg)
	if key1 != key2 {
		t.Errorf("keyword order changed key: %q vs %q", key1, key2)
	}
	if !strings.HasPrefix(key1, "scraper:hackernews:") {
		t.Errorf("key = %q, want scraper:hackernews: prefix", key1)
	}

	key3 := cache.Key("hackernews", []string{"rust"}, cfg)
	if key1 == key3 {
		t.Error("different keywords produced the same key")
	}
	key4 := cache.Key("reddit", []string{"go", "AI"}, cfg)
	if key1 == key4 {
		t.Error("different plugins produced the same key")
	}
}

func TestScrapeWithCache(t *testing.T) {
	cache := NewResultCache(NewMemoryKV(), time.Hour)
	plugin := &fakePlugin{
		name: "hackernews",
		items: []models.NormalizedItem{{
			Title:       "A post",
			URL:         "https://example.com/a",
			SourceType:  "hackernews",
			ExternalID:  "1",
			PublishedAt: time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
		}},
	}
	keywords := []string{"go"}
	cfg := models.SourceConfig{"max_articles": 10}
	ctx := context.Background()

	items, fromCache, err := ScrapeWithCache(ctx, cache, plugin, keywords, cfg)
	if err != nil {
		t.Fatalf("first ScrapeWithCache() failed: %v", err)
	}
	if fromCache {
		t.Error("first scrape reported as cache hit")
	}
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}

	items, fromCache, err = ScrapeWithCache(ctx, cache, plugin, keywords, cfg)
	if err != nil {
		t.Fatalf("second ScrapeWithCache() failed: %v", err)
	}
	if !fromCache {
		t.Error("second scrape with identical inputs missed the cache")
	}
	if len(items) != 1 || items[0].URL != "https://example.com/a" {
		t.Errorf("cached items = %+v, want round-tripped original", items)
	}
	if plugin.scrapes != 1 {
		t.Errorf("scrapes = %d, want 1 (second call served from cache)", plugin.scrapes)
	}
}

func TestScrapeErrorNotCached(t *testing.T) {
	cache := NewResultCache(NewMemoryKV(), time.Hour)
	plugin := &fakePlugin{name: "reddit", err: errors.New("upstream down")}

	_, _, err := ScrapeWithCache(context.Background(), cache, plugin, nil, nil)
	if err == nil {
		t.Fatal("expected scrape error")
	}

	plugin.err = nil
	_, fromCache, err := ScrapeWithCache(context.Background(), cache, plugin, nil, nil)
	if err != nil {
		t.Fatalf("ScrapeWithCache() after recovery failed: %v", err)
	}
	if fromCache {
		t.Error("failed scrape populated the cache")
	}
	if plugin.scrapes != 2 {
		t.Errorf("scrapes = %d, want 2", plugin.scrapes)
	}
}

// recordingKV remembers the TTL of the last Set.
type recordingKV struct {
	*MemoryKV
	lastTTL time.Duration
}

func (r *recordingKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	r.lastTTL = ttl
	return r.MemoryKV.Set(ctx, key, value, ttl)
}

func TestScrapeWithCachePerSourceTTL(t *testing.T) {
	kv := &recordingKV{MemoryKV: NewMemoryKV()}
	cache := NewResultCache(kv, time.Hour)
	plugin := &fakePlugin{name: "hackernews"}
	ctx := context.Background()

	cfg := models.SourceConfig{"cache_ttl_minutes": 5}
	if _, _, err := ScrapeWithCache(ctx, cache, plugin, nil, cfg); err != nil {
		t.Fatalf("ScrapeWithCache() failed: %v", err)
	}
	if kv.lastTTL != 5*time.Minute {
		t.Errorf("cache_ttl_minutes=5 wrote with TTL %v, want 5m", kv.lastTTL)
	}

	// Without the override the cache default applies.
	if _, _, err := ScrapeWithCache(ctx, cache, plugin, nil, models.SourceConfig{}); err != nil {
		t.Fatalf("ScrapeWithCache() failed: %v", err)
	}
	if kv.lastTTL != time.Hour {
		t.Errorf("default write used TTL %v, want 1h", kv.lastTTL)
	}
}

// brokenKV fails every operation to exercise the degrade path.
type brokenKV struct{}

func (brokenKV) Get(context.Context, string) (string, error) {
	return "", errors.New("redis down")
}
func (brokenKV) Set(context.Context, string, string, time.Duration) error {
	return errors.New("redis down")
}
func (brokenKV) IncrBy(context.Context, string, int64) (int64, error) {
	return 0, errors.New("redis down")
}
func (brokenKV) Expire(context.Context, string, time.Duration) error {
	return errors.New("redis down")
}

func TestCacheDegradesWhenBackendFails(t *testing.T) {
	cache := NewResultCache(brokenKV{}, time.Hour)
	plugin := &fakePlugin{name: "devto"}

	for i := 0; i < 2; i++ {
		if _, _, err := ScrapeWithCache(context.Background(), cache, plugin, nil, nil); err != nil {
			t.Fatalf("ScrapeWithCache() with broken backend failed: %v", err)
		}
	}
	if plugin.scrapes != 2 {
		t.Errorf("scrapes = %d, want 2 (broken cache always scrapes)", plugin.scrapes)
	}
}
