// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package database

import (
	"fmt"
	"time"
)

// Pagination defaults applied when a filter leaves Limit unset or out of range.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ItemFilter selects items for ListItems. Zero values mean "no constraint".
type ItemFilter struct {
	SourceTypes []string
	Category    string
	MinScore    *float64
	IsVideo     *bool
	Unread      bool
	Since       *time.Time

	// Sort is one of "published_at", "created_at", "score". Default: created_at.
	Sort string

	Limit  int
	Offset int
}

// buildWhereClause constructs the SQL WHERE clause fragments and argument
// slice for the filter. The returned clause starts with " AND" or is empty.
func (f ItemFilter) buildWhereClause() (string, []interface{}) {
	whereClause := ""
	args := []interface{}{}

	if len(f.SourceTypes) > 0 {
		placeholders := make([]string, len(f.SourceTypes))
		for i, st := range f.SourceTypes {
			placeholders[i] = "?"
			args = append(args, st)
		}
		whereClause += fmt.Sprintf(" AND source_type IN (%s)", join(placeholders, ","))
	}
	if f.Category != "" {
		whereClause += " AND category = ?"
		args = append(args, f.Category)
	}
	if f.MinScore != nil {
		whereClause += " AND score >= ?"
		args = append(args, *f.MinScore)
	}
	if f.IsVideo != nil {
		whereClause += " AND is_video = ?"
		args = append(args, *f.IsVideo)
	}
	if f.Unread {
		whereClause += " AND NOT is_read"
	}
	if f.Since != nil {
		whereClause += " AND published_at >= ?"
		args = append(args, *f.Since)
	}

	return whereClause, args
}

// orderBy returns a validated ORDER BY expression. Unknown sort keys fall
// back to created_at so a filter can never inject SQL.
func (f ItemFilter) orderBy() string {
	switch f.Sort {
	case "published_at":
		return "published_at DESC"
	case "score":
		return "score DESC NULLS LAST"
	default:
		return "created_at DESC"
	}
}

// limitOffset returns the effective pagination values.
func (f ItemFilter) limitOffset() (int, int) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// join concatenates strings with a separator.
func join(strs []string, sep string) string {
	result := ""
	for i, s := range strs {
		if i > 0 {
			result += sep
		}
		result += s
	}
	return result
}
