// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/techwatch/techwatch/internal/config"
	"github.com/techwatch/techwatch/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(&config.DatabaseConfig{
		Path:      ":memory:",
		MaxMemory: "512MB",
		Threads:   2,
	})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close() failed: %v", err)
		}
	})
	return db
}

func createTestSource(t *testing.T, db *DB, sourceType string) *models.Source {
	t.Helper()

	source := &models.Source{
		Name:       "Test " + sourceType,
		SourceType: sourceType,
		IsActive:   true,
		Config:     models.SourceConfig{"max_articles": 10},
	}
	if err := db.CreateSource(context.Background(), source); err != nil {
		t.Fatalf("CreateSource() failed: %v", err)
	}
	return source
}

func testItem(url, externalID string) models.NormalizedItem {
	return models.NormalizedItem{
		Title:       "Test item " + externalID,
		URL:         url,
		Content:     "some content",
		Author:      "alice",
		SourceType:  "hackernews",
		ExternalID:  externalID,
		PublishedAt: time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
		Tags:        []string{"go", "testing"},
	}
}

func TestSourceCRUD(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.GetSourceByType(ctx, "hackernews"); !errors.Is(err, ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}

	created := createTestSource(t, db, "hackernews")
	if created.ID == 0 {
		t.Error("expected assigned id")
	}

	got, err := db.GetSourceByType(ctx, "hackernews")
	if err != nil {
		t.Fatalf("GetSourceByType() failed: %v", err)
	}
	if got.Name != created.Name {
		t.Errorf("name = %q, want %q", got.Name, created.Name)
	}
	if max := got.Config.GetInt("max_articles", 0); max != 10 {
		t.Errorf("config max_articles = %d, want 10", max)
	}

	if err := db.SetSourceActive(ctx, created.ID, false); err != nil {
		t.Fatalf("SetSourceActive() failed: %v", err)
	}
	active, err := db.ListSources(ctx, true)
	if err != nil {
		t.Fatalf("ListSources() failed: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("expected no active sources, got %d", len(active))
	}

	if err := db.SetSourceActive(ctx, 9999, true); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown source, got %v", err)
	}
}

func TestUpsertItemsDedup(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	source := createTestSource(t, db, "hackernews")

	item := testItem("https://example.com/post", "hn-1")
	item.Upvotes = 100
	item.CommentsCount = 12
	saved, err := db.UpsertItems(ctx, []models.NormalizedItem{item}, source.ID, source.SourceType)
	if err != nil {
		t.Fatalf("UpsertItems() failed: %v", err)
	}
	if saved != 1 {
		t.Fatalf("saved = %d, want 1", saved)
	}

	stored, err := db.GetItemByURL(ctx, item.URL)
	if err != nil {
		t.Fatalf("GetItemByURL() failed: %v", err)
	}

	// Simulate user and scorer state that re-ingestion must not disturb.
	if err := db.UpdateItemScore(ctx, stored.ID, 72.5, "ai_ml"); err != nil {
		t.Fatalf("UpdateItemScore() failed: %v", err)
	}
	if _, err := db.Conn().ExecContext(ctx,
		`UPDATE items SET is_read = true, is_favorite = true WHERE id = ?`, stored.ID); err != nil {
		t.Fatalf("failed to mark item read: %v", err)
	}

	// Re-ingest the same URL with a new title and empty content.
	update := item
	update.Title = "Updated title"
	update.Content = ""
	update.Author = ""
	if _, err := db.UpsertItems(ctx, []models.NormalizedItem{update}, source.ID, source.SourceType); err != nil {
		t.Fatalf("second UpsertItems() failed: %v", err)
	}

	count, err := db.CountItems(ctx)
	if err != nil {
		t.Fatalf("CountItems() failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("item count = %d, want 1 after re-ingestion", count)
	}

	got, err := db.GetItemByURL(ctx, item.URL)
	if err != nil {
		t.Fatalf("GetItemByURL() after upsert failed: %v", err)
	}
	if got.Title != "Updated title" {
		t.Errorf("title = %q, want updated title", got.Title)
	}
	if got.Content != "some content" {
		t.Errorf("content = %q, empty incoming content must not overwrite", got.Content)
	}
	if got.Author != "alice" {
		t.Errorf("author = %q, empty incoming author must not overwrite", got.Author)
	}
	if !got.IsRead || !got.IsFavorite {
		t.Error("is_read/is_favorite were reset by re-ingestion")
	}
	if got.Score != 72.5 || got.Category != "ai_ml" {
		t.Errorf("score/category = %v/%q, want 72.5/ai_ml preserved", got.Score, got.Category)
	}
	if got.Upvotes != 100 || got.CommentsCount != 12 {
		t.Errorf("engagement = %d/%d, zero incoming counts must not overwrite",
			got.Upvotes, got.CommentsCount)
	}

	// Fresh counts from the upstream refresh the stored ones.
	update.Upvotes = 150
	update.CommentsCount = 30
	if _, err := db.UpsertItems(ctx, []models.NormalizedItem{update}, source.ID, source.SourceType); err != nil {
		t.Fatalf("third UpsertItems() failed: %v", err)
	}
	got, err = db.GetItemByURL(ctx, item.URL)
	if err != nil {
		t.Fatalf("GetItemByURL() after refresh failed: %v", err)
	}
	if got.Upvotes != 150 || got.CommentsCount != 30 {
		t.Errorf("engagement = %d/%d, want refreshed 150/30", got.Upvotes, got.CommentsCount)
	}
}

func TestUpsertItemsVideoSourceType(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	source := createTestSource(t, db, "youtube_rss")

	item := testItem("https://youtube.com/watch?v=abc", "yt-1")
	item.SourceType = "youtube_rss"
	item.VideoID = "abc"
	item.ChannelID = "UC123"
	item.ChannelName = "Test Channel"

	if _, err := db.UpsertItems(ctx, []models.NormalizedItem{item}, source.ID, source.SourceType); err != nil {
		t.Fatalf("UpsertItems() failed: %v", err)
	}
	got, err := db.GetItemByURL(ctx, item.URL)
	if err != nil {
		t.Fatalf("GetItemByURL() failed: %v", err)
	}
	if !got.IsVideo {
		t.Error("items from video source types must be flagged is_video")
	}
}

func TestListItemsFilter(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	source := createTestSource(t, db, "hackernews")

	var batch []models.NormalizedItem
	for i := 0; i < 5; i++ {
		item := testItem(
			"https://example.com/post-"+string(rune('a'+i)),
			"hn-"+string(rune('a'+i)))
		item.PublishedAt = time.Date(2026, 8, 10+i, 0, 0, 0, 0, time.UTC)
		batch = append(batch, item)
	}
	if _, err := db.UpsertItems(ctx, batch, source.ID, source.SourceType); err != nil {
		t.Fatalf("UpsertItems() failed: %v", err)
	}

	since := time.Date(2026, 8, 13, 0, 0, 0, 0, time.UTC)
	items, err := db.ListItems(ctx, ItemFilter{
		SourceTypes: []string{"hackernews"},
		Since:       &since,
		Sort:        "published_at",
	})
	if err != nil {
		t.Fatalf("ListItems() failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("filtered items = %d, want 2", len(items))
	}
	if items[0].PublishedAt.Before(items[1].PublishedAt) {
		t.Error("expected published_at DESC ordering")
	}

	page, err := db.ListItems(ctx, ItemFilter{Limit: 2, Offset: 4})
	if err != nil {
		t.Fatalf("ListItems() with pagination failed: %v", err)
	}
	if len(page) != 1 {
		t.Errorf("page beyond data = %d items, want 1", len(page))
	}
}

func TestUnscoredItems(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	source := createTestSource(t, db, "hackernews")

	batch := []models.NormalizedItem{
		testItem("https://example.com/scored", "hn-1"),
		testItem("https://example.com/unscored", "hn-2"),
	}
	if _, err := db.UpsertItems(ctx, batch, source.ID, source.SourceType); err != nil {
		t.Fatalf("UpsertItems() failed: %v", err)
	}

	scored, err := db.GetItemByURL(ctx, "https://example.com/scored")
	if err != nil {
		t.Fatalf("GetItemByURL() failed: %v", err)
	}
	if err := db.UpdateItemScore(ctx, scored.ID, 55, "programming"); err != nil {
		t.Fatalf("UpdateItemScore() failed: %v", err)
	}

	unscored, err := db.UnscoredItems(ctx, 10)
	if err != nil {
		t.Fatalf("UnscoredItems() failed: %v", err)
	}
	if len(unscored) != 1 || unscored[0].URL != "https://example.com/unscored" {
		t.Fatalf("unscored = %+v, want only the unscored item", unscored)
	}

	if err := db.ResetItemScores(ctx); err != nil {
		t.Fatalf("ResetItemScores() failed: %v", err)
	}
	unscored, err = db.UnscoredItems(ctx, 10)
	if err != nil {
		t.Fatalf("UnscoredItems() after reset failed: %v", err)
	}
	if len(unscored) != 2 {
		t.Errorf("after reset unscored = %d, want 2", len(unscored))
	}
}

func TestRunLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	run := &models.IngestionRun{TaskID: "task-123"}
	if err := db.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun() failed: %v", err)
	}
	if run.Status != models.RunStatusRunning {
		t.Errorf("status = %q, want running", run.Status)
	}

	run.Status = models.RunStatusPartialSuccess
	run.ItemsFound = 40
	run.ItemsSaved = 35
	run.SourcesSucceeded = 3
	run.SourcesFailed = 1
	run.Sources = []models.SourceRunRecord{
		{SourceType: "hackernews", Success: true, ItemsFound: 40, ItemsSaved: 35},
		{SourceType: "reddit", Success: false, Error: "auth failed"},
	}
	if err := db.CompleteRun(ctx, run); err != nil {
		t.Fatalf("CompleteRun() failed: %v", err)
	}

	// A run is completed exactly once.
	if err := db.CompleteRun(ctx, run); !errors.Is(err, ErrNotFound) {
		t.Errorf("second CompleteRun() = %v, want ErrNotFound", err)
	}

	got, err := db.GetRunByTaskID(ctx, "task-123")
	if err != nil {
		t.Fatalf("GetRunByTaskID() failed: %v", err)
	}
	if got.Status != models.RunStatusPartialSuccess {
		t.Errorf("status = %q, want partial_success", got.Status)
	}
	if got.CompletedAt == nil {
		t.Error("completed_at not set")
	}
	if len(got.Sources) != 2 || got.Sources[1].Error != "auth failed" {
		t.Errorf("sources = %+v, want two per-source records", got.Sources)
	}

	if _, err := db.GetRunByTaskID(ctx, "no-such-task"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown task, got %v", err)
	}

	stats, err := db.GetRunStats(ctx)
	if err != nil {
		t.Fatalf("GetRunStats() failed: %v", err)
	}
	if stats.TotalRuns != 1 || stats.SuccessRate != 1.0 {
		t.Errorf("stats = %+v, want 1 run with 100%% success rate", stats)
	}
	if stats.LastRunAt == nil {
		t.Error("stats.LastRunAt not set")
	}
}

func TestRunStatsExcludeSkipped(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ok := &models.IngestionRun{TaskID: "task-ok"}
	if err := db.CreateRun(ctx, ok); err != nil {
		t.Fatalf("CreateRun() failed: %v", err)
	}
	ok.Status = models.RunStatusSuccess
	if err := db.CompleteRun(ctx, ok); err != nil {
		t.Fatalf("CompleteRun() failed: %v", err)
	}

	// A skipped run did no source work; it shows up in the counts but must
	// not drag the success rate down.
	skipped := &models.IngestionRun{TaskID: "task-skipped"}
	if err := db.CreateRun(ctx, skipped); err != nil {
		t.Fatalf("CreateRun() failed: %v", err)
	}
	skipped.Status = models.RunStatusSkipped
	if err := db.CompleteRun(ctx, skipped); err != nil {
		t.Fatalf("CompleteRun() failed: %v", err)
	}

	stats, err := db.GetRunStats(ctx)
	if err != nil {
		t.Fatalf("GetRunStats() failed: %v", err)
	}
	if stats.TotalRuns != 2 {
		t.Errorf("TotalRuns = %d, want 2", stats.TotalRuns)
	}
	if stats.StatusCounts[models.RunStatusSkipped] != 1 {
		t.Errorf("StatusCounts = %+v, want one skipped run", stats.StatusCounts)
	}
	if stats.SuccessRate != 1.0 {
		t.Errorf("SuccessRate = %v, want 1.0", stats.SuccessRate)
	}
}

func TestTrendUpsertIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	day := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

	trend := &models.Trend{Keyword: "duckdb", Date: day, ItemCount: 5, AvgScore: 60, TrendScore: 150}
	if err := db.UpsertTrend(ctx, trend); err != nil {
		t.Fatalf("UpsertTrend() failed: %v", err)
	}

	trend.ItemCount = 8
	trend.TrendScore = 180
	if err := db.UpsertTrend(ctx, trend); err != nil {
		t.Fatalf("second UpsertTrend() failed: %v", err)
	}

	trends, err := db.ListTrends(ctx, day, 10)
	if err != nil {
		t.Fatalf("ListTrends() failed: %v", err)
	}
	if len(trends) != 1 {
		t.Fatalf("trends = %d rows, want 1 after re-detection", len(trends))
	}
	if trends[0].ItemCount != 8 || trends[0].TrendScore != 180 {
		t.Errorf("trend = %+v, want updated counts", trends[0])
	}

	deleted, err := db.DeleteTrendsOlderThan(ctx, day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("DeleteTrendsOlderThan() failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
}

func TestKeywordActivity(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	source := createTestSource(t, db, "hackernews")

	batch := []models.NormalizedItem{
		testItem("https://example.com/1", "hn-1"),
		testItem("https://example.com/2", "hn-2"),
		testItem("https://example.com/3", "hn-3"),
		testItem("https://example.com/4", "hn-4"),
	}
	batch[0].Title = "DuckDB 2.0 released"
	batch[1].Title = "Why we moved to duckdb"
	batch[2].Title = "Unrelated post"
	// Ingested now but published long ago; the activity window filters on
	// the publish date, so this must not count.
	batch[3].Title = "DuckDB retrospective"
	batch[3].PublishedAt = time.Now().UTC().AddDate(0, 0, -30)
	for i := 0; i < 3; i++ {
		batch[i].PublishedAt = time.Now().UTC().Add(-30 * time.Minute)
	}
	if _, err := db.UpsertItems(ctx, batch, source.ID, source.SourceType); err != nil {
		t.Fatalf("UpsertItems() failed: %v", err)
	}

	first, err := db.GetItemByURL(ctx, "https://example.com/1")
	if err != nil {
		t.Fatalf("GetItemByURL() failed: %v", err)
	}
	if err := db.UpdateItemScore(ctx, first.ID, 80, "data_engineering"); err != nil {
		t.Fatalf("UpdateItemScore() failed: %v", err)
	}

	since := time.Now().Add(-time.Hour)
	count, avg, err := db.KeywordActivity(ctx, "DuckDB", since)
	if err != nil {
		t.Fatalf("KeywordActivity() failed: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2 case-insensitive title matches", count)
	}
	// One item scored 80, one unscored counting as 0.
	if avg != 40 {
		t.Errorf("avg = %v, want 40", avg)
	}
}

func TestUserScores(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	source := createTestSource(t, db, "hackernews")

	batch := []models.NormalizedItem{
		testItem("https://example.com/1", "hn-1"),
		testItem("https://example.com/2", "hn-2"),
	}
	if _, err := db.UpsertItems(ctx, batch, source.ID, source.SourceType); err != nil {
		t.Fatalf("UpsertItems() failed: %v", err)
	}
	first, err := db.GetItemByURL(ctx, "https://example.com/1")
	if err != nil {
		t.Fatalf("GetItemByURL() failed: %v", err)
	}

	scores := []models.UserItemScore{{UserID: 1, ItemID: first.ID, Score: 42, KeywordMatches: 2}}
	if err := db.SaveUserScores(ctx, scores); err != nil {
		t.Fatalf("SaveUserScores() failed: %v", err)
	}

	got, err := db.GetUserItemScore(ctx, 1, first.ID)
	if err != nil {
		t.Fatalf("GetUserItemScore() failed: %v", err)
	}
	if got.Score != 42 || got.KeywordMatches != 2 {
		t.Errorf("score = %v/%d matches, want 42/2", got.Score, got.KeywordMatches)
	}

	// Upsert path overwrites.
	scores[0].Score = 77
	scores[0].KeywordMatches = 3
	if err := db.SaveUserScores(ctx, scores); err != nil {
		t.Fatalf("second SaveUserScores() failed: %v", err)
	}
	got, err = db.GetUserItemScore(ctx, 1, first.ID)
	if err != nil {
		t.Fatalf("GetUserItemScore() after upsert failed: %v", err)
	}
	if got.Score != 77 || got.KeywordMatches != 3 {
		t.Errorf("after upsert = %v/%d matches, want 77/3", got.Score, got.KeywordMatches)
	}

	ids, err := db.UnscoredItemIDsForUser(ctx, 1, 10)
	if err != nil {
		t.Fatalf("UnscoredItemIDsForUser() failed: %v", err)
	}
	if len(ids) != 1 {
		t.Errorf("unscored for user = %d items, want 1", len(ids))
	}

	if err := db.DeleteUserScores(ctx, 1); err != nil {
		t.Fatalf("DeleteUserScores() failed: %v", err)
	}
	if _, err := db.UserScore(ctx, 1, first.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestUserKeywordRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	kw := &models.UserKeyword{UserID: 5, Keyword: "duckdb", Category: "data_engineering", Weight: 2.0, IsActive: true}
	if err := db.CreateUserKeyword(ctx, kw); err != nil {
		t.Fatalf("CreateUserKeyword() failed: %v", err)
	}

	got, err := db.UserKeywords(ctx, 5)
	if err != nil {
		t.Fatalf("UserKeywords() failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("keywords = %d, want 1", len(got))
	}
	if got[0].Category != "data_engineering" || got[0].Weight != 2.0 {
		t.Errorf("keyword = %+v, want category and weight round-tripped", got[0])
	}
}

func TestYouTubeChannelRegistry(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ch := &models.YouTubeChannel{ChannelID: "UC123", Name: "Test Channel", IsActive: true}
	if err := db.CreateYouTubeChannel(ctx, ch); err != nil {
		t.Fatalf("CreateYouTubeChannel() failed: %v", err)
	}

	newer := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)
	if err := db.TouchYouTubeChannel(ctx, "UC123", newer); err != nil {
		t.Fatalf("TouchYouTubeChannel() failed: %v", err)
	}
	// An older video must not move last_video_at backwards.
	if err := db.TouchYouTubeChannel(ctx, "UC123", older); err != nil {
		t.Fatalf("TouchYouTubeChannel() with older time failed: %v", err)
	}

	channels, err := db.ActiveYouTubeChannels(ctx)
	if err != nil {
		t.Fatalf("ActiveYouTubeChannels() failed: %v", err)
	}
	if len(channels) != 1 {
		t.Fatalf("channels = %d, want 1", len(channels))
	}
	if channels[0].LastVideoAt == nil || !channels[0].LastVideoAt.Equal(newer) {
		t.Errorf("last_video_at = %v, want %v", channels[0].LastVideoAt, newer)
	}
}

func TestSeedDefaults(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.SeedDefaults(ctx); err != nil {
		t.Fatalf("SeedDefaults() failed: %v", err)
	}

	sources, err := db.ListSources(ctx, false)
	if err != nil {
		t.Fatalf("ListSources() failed: %v", err)
	}
	if len(sources) != len(defaultSources()) {
		t.Errorf("seeded sources = %d, want %d", len(sources), len(defaultSources()))
	}
	keywords, err := db.ActiveKeywords(ctx)
	if err != nil {
		t.Fatalf("ActiveKeywords() failed: %v", err)
	}
	if len(keywords) == 0 {
		t.Error("expected seeded keywords")
	}

	// Seeding again must not duplicate anything.
	if err := db.SeedDefaults(ctx); err != nil {
		t.Fatalf("second SeedDefaults() failed: %v", err)
	}
	sources, err = db.ListSources(ctx, false)
	if err != nil {
		t.Fatalf("ListSources() after reseed failed: %v", err)
	}
	if len(sources) != len(defaultSources()) {
		t.Errorf("sources after reseed = %d, want %d", len(sources), len(defaultSources()))
	}
}
