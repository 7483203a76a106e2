// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

/*
cache.go - Scrape Result Cache

Scrape results are cached in Redis keyed by plugin name plus a digest of the
keywords and source configuration, so a rerun with identical inputs within
the TTL serves from cache instead of hitting the upstream again.

Cache failures are never fatal: a broken Redis degrades to scraping every
time, logged at warn level and counted in metrics.
*/

//nolint:staticcheck // File documentation, not package doc
package scraper

import (
	"context"
	"crypto/md5" //nolint:gosec // cache key digest, not security
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"time"

	json "github.com/goccy/go-json"

	"github.com/techwatch/techwatch/internal/logging"
	"github.com/techwatch/techwatch/internal/metrics"
	"github.com/techwatch/techwatch/internal/models"
)

const resultCacheType = "scrape_result"

// ResultCache caches normalized scrape results per plugin invocation.
type ResultCache struct {
	kv  KV
	ttl time.Duration
}

// NewResultCache builds a result cache. A nil kv disables caching.
func NewResultCache(kv KV, ttl time.Duration) *ResultCache {
	return &ResultCache{kv: kv, ttl: ttl}
}

// Key derives the cache key for one plugin invocation. Keywords and config
// entries are sorted first so equivalent inputs always hit the same key.
func (c *ResultCache) Key(plugin string, keywords []string, cfg models.SourceConfig) string {
	sortedKeywords := append([]string(nil), keywords...)
	sort.Strings(sortedKeywords)

	cfgKeys := make([]string, 0, len(cfg))
	for key := range cfg {
		cfgKeys = append(cfgKeys, key)
	}
	sort.Strings(cfgKeys)

	h := md5.New() //nolint:gosec // cache key digest, not security
	for _, kw := range sortedKeywords {
		fmt.Fprintf(h, "%s;", kw)
	}
	for _, key := range cfgKeys {
		fmt.Fprintf(h, "%s=%v;", key, cfg[key])
	}
	digest := hex.EncodeToString(h.Sum(nil))[:8]

	return fmt.Sprintf("scraper:%s:%s", plugin, digest)
}

// Get returns the cached items for a key, or ok=false on miss or error.
func (c *ResultCache) Get(ctx context.Context, key string) ([]models.NormalizedItem, bool) {
	if c == nil || c.kv == nil {
		return nil, false
	}

	raw, err := c.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			metrics.CacheMisses.WithLabelValues(resultCacheType).Inc()
		} else {
			metrics.CacheErrors.WithLabelValues(resultCacheType, "get").Inc()
			logging.Warn().Str("key", key).Err(err).Msg("Result cache read failed")
		}
		return nil, false
	}

	var items []models.NormalizedItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		metrics.CacheErrors.WithLabelValues(resultCacheType, "get").Inc()
		logging.Warn().Str("key", key).Err(err).Msg("Result cache entry is corrupt")
		return nil, false
	}

	metrics.CacheHits.WithLabelValues(resultCacheType).Inc()
	return items, true
}

// Put stores items under a key with the cache default TTL. Failures are
// logged and swallowed.
func (c *ResultCache) Put(ctx context.Context, key string, items []models.NormalizedItem) {
	c.PutWithTTL(ctx, key, items, 0)
}

// PutWithTTL stores items under a key. A non-positive ttl uses the cache
// default.
func (c *ResultCache) PutWithTTL(ctx context.Context, key string, items []models.NormalizedItem, ttl time.Duration) {
	if c == nil || c.kv == nil {
		return
	}
	if ttl <= 0 {
		ttl = c.ttl
	}

	raw, err := json.Marshal(items)
	if err != nil {
		metrics.CacheErrors.WithLabelValues(resultCacheType, "set").Inc()
		logging.Warn().Str("key", key).Err(err).Msg("Failed to marshal cache entry")
		return
	}
	if err := c.kv.Set(ctx, key, string(raw), ttl); err != nil {
		metrics.CacheErrors.WithLabelValues(resultCacheType, "set").Inc()
		logging.Warn().Str("key", key).Err(err).Msg("Result cache write failed")
	}
}

// ScrapeWithCache runs a plugin through the result cache: cache hit skips
// the scrape entirely, a successful scrape populates the cache. The bool
// reports whether the items came from cache. A source can override the
// default cache TTL with the cache_ttl_minutes config key; fast-moving
// sources set it low, slow feeds set it high.
func ScrapeWithCache(ctx context.Context, cache *ResultCache, plugin Plugin, keywords []string, cfg models.SourceConfig) ([]models.NormalizedItem, bool, error) {
	key := cache.Key(plugin.Name(), keywords, cfg)

	if items, ok := cache.Get(ctx, key); ok {
		logging.Debug().Str("source", plugin.Name()).Str("key", key).
			Int("items", len(items)).Msg("Serving scrape from cache")
		return items, true, nil
	}

	items, err := plugin.Scrape(ctx, keywords, cfg)
	if err != nil {
		return nil, false, err
	}
	ttl := time.Duration(cfg.GetInt("cache_ttl_minutes", 0)) * time.Minute
	cache.PutWithTTL(ctx, key, items, ttl)
	return items, false, nil
}
