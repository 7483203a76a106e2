// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

// Package api provides the HTTP facade: scraping trigger and status,
// item listing, trends, and health. All endpoints share one response
// envelope.
package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/techwatch/techwatch/internal/logging"
)

// Response is the envelope every endpoint returns.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// Error carries a machine-readable code and a human-readable message.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Meta carries optional response metadata.
type Meta struct {
	Timestamp time.Time `json:"timestamp"`
	Count     int       `json:"count,omitempty"`
}

// Error codes used across the facade.
const (
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS"
	ErrCodeInternalError   = "INTERNAL_ERROR"
	ErrCodeConflict        = "CONFLICT"
)

func writeJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Warn().Err(err).Msg("Failed to write response")
	}
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, Response{
		Success: true,
		Data:    data,
		Meta:    &Meta{Timestamp: time.Now().UTC()},
	})
}

func writeList(w http.ResponseWriter, data interface{}, count int) {
	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    data,
		Meta:    &Meta{Timestamp: time.Now().UTC(), Count: count},
	})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Response{
		Success: false,
		Error:   &Error{Code: code, Message: message},
	})
}
