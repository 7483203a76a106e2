// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

// Package models defines the shared data types of TechWatch: sources,
// items, keywords, scores, trends, and ingestion run records. Types here
// carry no behavior beyond validation and small accessors; persistence
// lives in internal/database and business logic in the service packages.
package models
