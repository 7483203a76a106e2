// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

// Package database implements the DuckDB-backed store for TechWatch.
//
// The package wraps a single database/sql connection to an embedded DuckDB
// file and exposes typed CRUD methods for sources, items, keywords, user
// scores, trends, ingestion runs, and the YouTube channel registry.
//
// Conventions:
//   - Every query goes through ensureContext so no statement runs without
//     a deadline.
//   - Items are deduplicated by a unique index on url; UpsertItems updates
//     content columns on conflict and never touches user flags or scores.
//   - Integer primary keys come from DuckDB sequences.
//   - Errors are wrapped with fmt.Errorf("...: %w", err); callers match
//     sentinels from errors.go with errors.Is.
package database
