// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

/*
Package main is the TechWatch server entrypoint.

Startup order: configuration, logging, the DuckDB store, the scraper
dependencies (Redis-backed cache and quota when configured), the scoring
and trend jobs, the ingestion orchestrator, and finally the supervision
tree running the scheduler and the HTTP API. SIGINT or SIGTERM drains
the tree and shuts the process down cleanly.
*/
package main //nolint:staticcheck // File documentation, not package doc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/techwatch/techwatch/internal/api"
	"github.com/techwatch/techwatch/internal/config"
	"github.com/techwatch/techwatch/internal/database"
	"github.com/techwatch/techwatch/internal/logging"
	"github.com/techwatch/techwatch/internal/nlp"
	"github.com/techwatch/techwatch/internal/pipeline"
	"github.com/techwatch/techwatch/internal/scheduler"
	"github.com/techwatch/techwatch/internal/scoring"
	"github.com/techwatch/techwatch/internal/scraper"
	"github.com/techwatch/techwatch/internal/supervisor"
	"github.com/techwatch/techwatch/internal/trends"

	_ "github.com/techwatch/techwatch/internal/scraper/plugins"
)

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("Server exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("addr", cfg.Server.Addr()).
		Msg("Starting techwatch server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Warn().Err(err).Msg("Failed to close database")
		}
	}()

	if cfg.Database.SeedData {
		if err := db.SeedDefaults(ctx); err != nil {
			return fmt.Errorf("failed to seed defaults: %w", err)
		}
	}

	var kv scraper.KV
	if cfg.Redis.Enabled {
		redisKV, err := scraper.NewRedisKV(cfg.Redis.URL)
		if err != nil {
			logging.Warn().Err(err).Msg("Redis unavailable, running without scrape cache and quotas")
		} else {
			defer func() {
				if err := redisKV.Close(); err != nil {
					logging.Warn().Err(err).Msg("Failed to close redis connection")
				}
			}()
			kv = redisKV
		}
	}

	deps := scraper.Deps{
		Cache:    scraper.NewResultCache(kv, cfg.Scraper.CacheTTL),
		Quota:    scraper.NewQuotaManager(kv),
		Channels: db,
		Keywords: db,
		Sources:  &cfg.Sources,
		Scraper:  &cfg.Scraper,
	}

	scorer := scoring.NewJob(db, nlp.NewScorer(nil), &cfg.Scoring)
	users := scoring.NewUserScorer(db, &cfg.Scoring)
	summaries := scoring.NewSummaryJob(db, nlp.NewSummarizer(cfg.Sources.AnthropicAPIKey), &cfg.Scoring)
	orchestrator := pipeline.New(db, deps, &cfg.Scraper, scorer, users)
	detector := trends.NewDetector(db, &cfg.Trends)

	logger := slog.New(logging.NewSlogHandler())
	tree, err := supervisor.NewTree(logger, supervisor.DefaultTreeConfig())
	if err != nil {
		return fmt.Errorf("failed to build supervision tree: %w", err)
	}

	if cfg.Scheduler.Enabled {
		tree.AddJobService(buildScheduler(cfg, orchestrator, scorer, users, summaries, detector))
	} else {
		logging.Info().Msg("Scheduler disabled, ingestion runs only on API triggers")
	}

	router := api.NewRouter(db, orchestrator, &cfg.API)
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  2 * cfg.Server.Timeout,
	}
	tree.AddAPIService(supervisor.NewHTTPService(server, 10*time.Second))

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervision tree failed: %w", err)
	}
	logging.Info().Msg("Server stopped")
	return nil
}

// buildScheduler registers the periodic jobs. Ingestion runs on an
// interval, scoring hourly, summarization and trend detection daily,
// and trend cleanup weekly.
func buildScheduler(
	cfg *config.Config,
	orchestrator *pipeline.Orchestrator,
	scorer *scoring.Job,
	users *scoring.UserScorer,
	summaries *scoring.SummaryJob,
	detector *trends.Detector,
) *scheduler.Scheduler {
	sched := scheduler.New()

	ingestInterval := cfg.Scheduler.IngestInterval
	if ingestInterval <= 0 {
		ingestInterval = time.Hour
	}

	sched.Add("ingest", scheduler.Every(ingestInterval), func(ctx context.Context) error {
		_, err := orchestrator.IngestAll(ctx, nil)
		return err
	})
	// Trending gets its own run offset from the full ingest; the shared
	// quota manager keeps the combined API spend inside the daily budget.
	sched.Add("ingest-youtube-trending", scheduler.Every(ingestInterval), func(ctx context.Context) error {
		_, err := orchestrator.IngestSources(ctx, nil, []string{"youtube_trending"})
		return err
	})
	sched.Add("score", scheduler.HourlyAt(cfg.Scheduler.ScoringMinute), func(ctx context.Context) error {
		if _, err := scorer.Run(ctx); err != nil {
			return err
		}
		_, err := users.ScoreAllUsers(ctx)
		return err
	})
	sched.Add("summarize", scheduler.DailyAt(cfg.Scheduler.SummarizeHour), func(ctx context.Context) error {
		_, err := summaries.Run(ctx)
		return err
	})
	sched.Add("trends", scheduler.DailyAt(cfg.Scheduler.TrendsHour), func(ctx context.Context) error {
		_, err := detector.Detect(ctx)
		return err
	})
	sched.Add("trend-cleanup", scheduler.WeeklyAt{
		Weekday: cfg.Scheduler.CleanupWeekday,
		Hour:    cfg.Scheduler.CleanupHour,
	}, func(ctx context.Context) error {
		_, err := detector.Cleanup(ctx)
		return err
	})

	return sched
}
