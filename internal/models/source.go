// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package models

import "time"

// Source is a configured content source. Each source references a scraper
// plugin by SourceType and carries a free-form Config consumed by that plugin.
type Source struct {
	ID            int64        `json:"id"`
	Name          string       `json:"name"`
	SourceType    string       `json:"source_type"`
	Config        SourceConfig `json:"config"`
	IsActive      bool         `json:"is_active"`
	LastScrapedAt *time.Time   `json:"last_scraped_at,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// SourceConfig is the per-source plugin configuration. It is persisted as a
// JSON column and interpreted by the plugin named in Source.SourceType.
type SourceConfig map[string]interface{}

// GetString returns the string value for key, or def when absent or not a string.
func (c SourceConfig) GetString(key, def string) string {
	if v, ok := c[key].(string); ok && v != "" {
		return v
	}
	return def
}

// GetInt returns the integer value for key, or def when absent.
// JSON numbers decode as float64, so both forms are accepted.
func (c SourceConfig) GetInt(key string, def int) int {
	switch v := c[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// GetBool returns the boolean value for key, or def when absent.
func (c SourceConfig) GetBool(key string, def bool) bool {
	if v, ok := c[key].(bool); ok {
		return v
	}
	return def
}

// GetStringSlice returns the string slice for key. Both native string
// slices and decoded JSON arrays are accepted. Returns nil when absent.
func (c SourceConfig) GetStringSlice(key string) []string {
	switch v := c[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Has reports whether key is present with a non-nil value.
func (c SourceConfig) Has(key string) bool {
	v, ok := c[key]
	return ok && v != nil
}
