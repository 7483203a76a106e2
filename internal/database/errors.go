// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package database

import (
	"errors"
	"io"

	"github.com/techwatch/techwatch/internal/logging"
)

// Sentinel errors returned by store methods. Callers match with errors.Is.
var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")

	// ErrSourceNotFound is returned when a source type has no configured row.
	ErrSourceNotFound = errors.New("source not found")

	// ErrDuplicate is returned when an insert violates a unique constraint
	// that the caller should handle (not the item URL upsert path).
	ErrDuplicate = errors.New("duplicate entry")
)

// closeWithLog closes a resource and logs any error.
// Use this where Close errors should be acknowledged but not fail the operation.
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource and explicitly ignores any error.
// Use this in error paths where Close() errors are not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close() // cleanup is best-effort
	}
}
