// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/techwatch/techwatch/internal/database"
	"github.com/techwatch/techwatch/internal/logging"
)

// triggerRequest is the optional trigger body. Without keywords the run
// falls back to the active keyword table.
type triggerRequest struct {
	Keywords []string `json:"keywords"`
}

// triggerResponse is the 202 payload of a scraping trigger.
type triggerResponse struct {
	Status  string `json:"status"`
	TaskID  string `json:"task_id"`
	Message string `json:"message"`
}

// scrapingTrigger starts an ingestion run in the background and returns
// its task id for polling.
func (rt *Router) scrapingTrigger(w http.ResponseWriter, r *http.Request) {
	var req triggerRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
			return
		}
	}

	taskID, err := rt.ingestor.TriggerAsync(req.Keywords)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to trigger ingestion")
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, "failed to start ingestion run")
		return
	}

	writeData(w, http.StatusAccepted, triggerResponse{
		Status:  "accepted",
		TaskID:  taskID,
		Message: "ingestion run started",
	})
}

// scrapingStatus returns the run record for one task id.
func (rt *Router) scrapingStatus(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	if taskID == "" {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "task id is required")
		return
	}

	run, err := rt.db.GetRunByTaskID(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusNotFound, ErrCodeNotFound, "no run with task id "+taskID)
			return
		}
		logging.Error().Str("task_id", taskID).Err(err).Msg("Failed to load run")
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, "failed to load run")
		return
	}
	writeData(w, http.StatusOK, run)
}

// scrapingHistory lists recent ingestion runs, newest first.
func (rt *Router) scrapingHistory(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 0)

	runs, err := rt.db.ListRuns(r.Context(), limit)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to list runs")
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, "failed to list runs")
		return
	}
	writeList(w, runs, len(runs))
}

// scrapingStats aggregates ingestion history.
func (rt *Router) scrapingStats(w http.ResponseWriter, r *http.Request) {
	stats, err := rt.db.GetRunStats(r.Context())
	if err != nil {
		logging.Error().Err(err).Msg("Failed to load run stats")
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, "failed to load run stats")
		return
	}
	writeData(w, http.StatusOK, stats)
}

// queryInt parses an integer query parameter, returning def when absent
// or malformed.
func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
