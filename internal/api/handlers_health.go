// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package api

import (
	"net/http"

	"github.com/techwatch/techwatch/internal/logging"
)

// health reports liveness plus database reachability. The endpoint
// degrades to 503 when the store is unreachable so orchestration can
// restart the process.
func (rt *Router) health(w http.ResponseWriter, r *http.Request) {
	if err := rt.db.Ping(r.Context()); err != nil {
		logging.Warn().Err(err).Msg("Health check failed")
		writeJSON(w, http.StatusServiceUnavailable, Response{
			Success: false,
			Data:    map[string]string{"status": "degraded", "database": "unreachable"},
		})
		return
	}
	writeData(w, http.StatusOK, map[string]string{"status": "ok"})
}
