// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/techwatch/techwatch/internal/database"
	"github.com/techwatch/techwatch/internal/logging"
)

// listItems returns ingested items filtered by the query parameters:
// source_type (comma-separated), category, min_score, is_video, unread,
// since (RFC 3339), sort, limit, offset.
func (rt *Router) listItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := database.ItemFilter{
		Category: q.Get("category"),
		Unread:   q.Get("unread") == "true",
		Sort:     q.Get("sort"),
		Limit:    rt.pageSize(queryInt(r, "limit", 0)),
		Offset:   queryInt(r, "offset", 0),
	}
	if st := q.Get("source_type"); st != "" {
		filter.SourceTypes = strings.Split(st, ",")
	}
	if raw := q.Get("min_score"); raw != "" {
		score, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "min_score must be a number")
			return
		}
		filter.MinScore = &score
	}
	if raw := q.Get("is_video"); raw != "" {
		isVideo := raw == "true"
		filter.IsVideo = &isVideo
	}
	if raw := q.Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "since must be an RFC 3339 timestamp")
			return
		}
		filter.Since = &since
	}

	items, err := rt.db.ListItems(r.Context(), filter)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to list items")
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, "failed to list items")
		return
	}
	writeList(w, items, len(items))
}

// listSources returns the configured sources. active=true restricts to
// enabled ones.
func (rt *Router) listSources(w http.ResponseWriter, r *http.Request) {
	onlyActive := r.URL.Query().Get("active") == "true"

	sources, err := rt.db.ListSources(r.Context(), onlyActive)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to list sources")
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, "failed to list sources")
		return
	}
	writeList(w, sources, len(sources))
}

// listTrends returns trend rows for one day (default today, UTC),
// highest trend score first.
func (rt *Router) listTrends(w http.ResponseWriter, r *http.Request) {
	day := time.Now().UTC().Truncate(24 * time.Hour)
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	trends, err := rt.db.ListTrends(r.Context(), day, rt.pageSize(queryInt(r, "limit", 0)))
	if err != nil {
		logging.Error().Err(err).Msg("Failed to list trends")
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, "failed to list trends")
		return
	}
	writeList(w, trends, len(trends))
}

// pageSize clamps a requested page size to the configured bounds.
func (rt *Router) pageSize(requested int) int {
	if requested <= 0 {
		if rt.cfg.DefaultPageSize > 0 {
			return rt.cfg.DefaultPageSize
		}
		return database.DefaultPageSize
	}
	max := rt.cfg.MaxPageSize
	if max <= 0 {
		max = database.MaxPageSize
	}
	if requested > max {
		return max
	}
	return requested
}
