// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package trends

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/techwatch/techwatch/internal/config"
	"github.com/techwatch/techwatch/internal/database"
	"github.com/techwatch/techwatch/internal/models"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(&config.DatabaseConfig{
		Path:      ":memory:",
		MaxMemory: "512MB",
		Threads:   2,
	})
	if err != nil {
		t.Fatalf("database.New() failed: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close() failed: %v", err)
		}
	})
	return db
}

func seedScoredItems(t *testing.T, db *database.DB, titles []string, score float64) {
	t.Helper()
	ctx := context.Background()

	source := &models.Source{
		Name:       "Test HN",
		SourceType: "hackernews",
		IsActive:   true,
		Config:     models.SourceConfig{},
	}
	if err := db.CreateSource(ctx, source); err != nil {
		t.Fatalf("CreateSource() failed: %v", err)
	}

	items := make([]models.NormalizedItem, len(titles))
	for i, title := range titles {
		items[i] = models.NormalizedItem{
			Title:       title,
			URL:         "https://example.com/" + title,
			SourceType:  "hackernews",
			ExternalID:  title,
			PublishedAt: time.Now().UTC().Add(-24 * time.Hour),
		}
	}
	if _, err := db.UpsertItems(ctx, items, source.ID, source.SourceType); err != nil {
		t.Fatalf("UpsertItems() failed: %v", err)
	}

	ids, err := db.RecentItemIDs(ctx, len(titles))
	if err != nil {
		t.Fatalf("RecentItemIDs() failed: %v", err)
	}
	for _, id := range ids {
		if err := db.UpdateItemScore(ctx, id, score, "ai_ml"); err != nil {
			t.Fatalf("UpdateItemScore() failed: %v", err)
		}
	}
}

func seedKeyword(t *testing.T, db *database.DB, keyword string, weight float64) {
	t.Helper()
	kw := &models.Keyword{Keyword: keyword, Category: "ai_ml", Weight: weight, IsActive: true}
	if err := db.CreateKeyword(context.Background(), kw); err != nil {
		t.Fatalf("CreateKeyword() failed: %v", err)
	}
}

func TestDetect(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	seedKeyword(t, db, "claude", 5.0)
	seedScoredItems(t, db, []string{
		"Claude ships new models",
		"Using Claude for code review",
		"Claude API pricing update",
		"Claude in production",
		"Why Claude changed our workflow",
	}, 60)

	d := NewDetector(db, nil)
	written, err := d.Detect(ctx)
	if err != nil {
		t.Fatalf("Detect() failed: %v", err)
	}
	if written != 1 {
		t.Fatalf("expected 1 trend row, got %d", written)
	}

	day := time.Now().UTC().Truncate(24 * time.Hour)
	trends, err := db.ListTrends(ctx, day, 10)
	if err != nil {
		t.Fatalf("ListTrends() failed: %v", err)
	}
	if len(trends) != 1 {
		t.Fatalf("expected 1 trend, got %d", len(trends))
	}

	trend := trends[0]
	if trend.Keyword != "claude" {
		t.Errorf("unexpected keyword %q", trend.Keyword)
	}
	if trend.Category != "ai_ml" {
		t.Errorf("expected keyword category carried over, got %q", trend.Category)
	}
	if trend.ItemCount != 5 {
		t.Errorf("expected 5 items, got %d", trend.ItemCount)
	}
	// 5 items * weight 5 * avg 60 / 10 = 150.
	if math.Abs(trend.TrendScore-150) > 1e-6 {
		t.Errorf("expected trend score 150, got %f", trend.TrendScore)
	}
}

func TestDetectSkipsInactiveKeyword(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	kw := &models.Keyword{Keyword: "fortran", Category: "programming", Weight: 1, IsActive: false}
	if err := db.CreateKeyword(ctx, kw); err != nil {
		t.Fatalf("CreateKeyword() failed: %v", err)
	}
	seedScoredItems(t, db, []string{"Fortran rises again"}, 50)

	written, err := NewDetector(db, nil).Detect(ctx)
	if err != nil {
		t.Fatalf("Detect() failed: %v", err)
	}
	if written != 0 {
		t.Errorf("inactive keyword produced %d trend rows", written)
	}
}

func TestDetectSkipsQuietKeyword(t *testing.T) {
	db := newTestDB(t)

	seedKeyword(t, db, "cobol", 1.0)
	seedScoredItems(t, db, []string{"Rust roundup"}, 50)

	written, err := NewDetector(db, nil).Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect() failed: %v", err)
	}
	if written != 0 {
		t.Errorf("keyword without mentions produced %d trend rows", written)
	}
}

func TestDetectIgnoresOldPublishDates(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	seedKeyword(t, db, "claude", 5.0)

	source := &models.Source{
		Name:       "Test HN",
		SourceType: "hackernews",
		IsActive:   true,
		Config:     models.SourceConfig{},
	}
	if err := db.CreateSource(ctx, source); err != nil {
		t.Fatalf("CreateSource() failed: %v", err)
	}

	// Ingested just now, but published long before the window opens. A
	// backfill of old content must not register as today's activity.
	items := []models.NormalizedItem{{
		Title:       "Claude retrospective",
		URL:         "https://example.com/retro",
		SourceType:  "hackernews",
		ExternalID:  "retro",
		PublishedAt: time.Now().UTC().AddDate(0, 0, -30),
	}}
	if _, err := db.UpsertItems(ctx, items, source.ID, source.SourceType); err != nil {
		t.Fatalf("UpsertItems() failed: %v", err)
	}

	written, err := NewDetector(db, nil).Detect(ctx)
	if err != nil {
		t.Fatalf("Detect() failed: %v", err)
	}
	if written != 0 {
		t.Errorf("item published outside the window produced %d trend rows", written)
	}
}

func TestDetectRerunOverwrites(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	seedKeyword(t, db, "duckdb", 2.0)
	seedScoredItems(t, db, []string{"DuckDB 2.0 released"}, 80)

	d := NewDetector(db, &config.TrendsConfig{WindowDays: 7, RetentionDays: 90})
	for i := 0; i < 2; i++ {
		if _, err := d.Detect(ctx); err != nil {
			t.Fatalf("Detect() run %d failed: %v", i, err)
		}
	}

	day := time.Now().UTC().Truncate(24 * time.Hour)
	trends, err := db.ListTrends(ctx, day, 10)
	if err != nil {
		t.Fatalf("ListTrends() failed: %v", err)
	}
	if len(trends) != 1 {
		t.Errorf("rerun duplicated the daily row: got %d", len(trends))
	}
}

func TestCleanup(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	old := &models.Trend{
		Keyword:    "stale",
		Date:       time.Now().UTC().AddDate(0, 0, -120),
		ItemCount:  3,
		AvgScore:   40,
		TrendScore: 12,
	}
	fresh := &models.Trend{
		Keyword:    "fresh",
		Date:       time.Now().UTC().Truncate(24 * time.Hour),
		ItemCount:  2,
		AvgScore:   50,
		TrendScore: 10,
	}
	if err := db.UpsertTrend(ctx, old); err != nil {
		t.Fatalf("UpsertTrend(old) failed: %v", err)
	}
	if err := db.UpsertTrend(ctx, fresh); err != nil {
		t.Fatalf("UpsertTrend(fresh) failed: %v", err)
	}

	deleted, err := NewDetector(db, nil).Cleanup(ctx)
	if err != nil {
		t.Fatalf("Cleanup() failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 row deleted, got %d", deleted)
	}

	trends, err := db.ListTrends(ctx, fresh.Date, 10)
	if err != nil {
		t.Fatalf("ListTrends() failed: %v", err)
	}
	if len(trends) != 1 || trends[0].Keyword != "fresh" {
		t.Errorf("fresh row missing after cleanup: %+v", trends)
	}
}
