// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

/*
orchestrator.go - Ingestion Orchestrator

One IngestAll pass is one ingestion run: load the active sources, scrape
them concurrently through the plugin registry with a bounded worker pool,
persist each source's items, and complete the run record with per-source
outcomes. A failing source never takes the run down; it is recorded and
the run finishes as partial_success.

Runs carry two deadlines: past the soft deadline the run logs a warning,
at the hard deadline its context is canceled outright.
*/

//nolint:staticcheck // File documentation, not package doc
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/techwatch/techwatch/internal/config"
	"github.com/techwatch/techwatch/internal/database"
	"github.com/techwatch/techwatch/internal/logging"
	"github.com/techwatch/techwatch/internal/metrics"
	"github.com/techwatch/techwatch/internal/models"
	"github.com/techwatch/techwatch/internal/scoring"
	"github.com/techwatch/techwatch/internal/scraper"
)

const (
	defaultMaxConcurrent = 4
	maxConcurrentCap     = 8

	defaultSoftDeadline = 25 * time.Minute
	defaultHardDeadline = 30 * time.Minute
)

// Orchestrator runs ingestion passes over the configured sources.
type Orchestrator struct {
	db   *database.DB
	deps scraper.Deps
	cfg  *config.ScraperConfig

	// Downstream jobs chained after runs that saved items. Both optional.
	scorer *scoring.Job
	users  *scoring.UserScorer
}

// New builds the orchestrator. scorer and users may be nil to disable
// post-run scoring.
func New(db *database.DB, deps scraper.Deps, cfg *config.ScraperConfig, scorer *scoring.Job, users *scoring.UserScorer) *Orchestrator {
	return &Orchestrator{db: db, deps: deps, cfg: cfg, scorer: scorer, users: users}
}

// IngestAll runs every active source. An empty keyword list falls back to
// the active keyword table, then to the configured defaults.
func (o *Orchestrator) IngestAll(ctx context.Context, keywords []string) (*models.IngestionRun, error) {
	return o.ingest(ctx, keywords, nil)
}

// IngestSources runs only the active sources of the given types. Used by
// the scheduler for source-specific passes.
func (o *Orchestrator) IngestSources(ctx context.Context, keywords []string, sourceTypes []string) (*models.IngestionRun, error) {
	if len(sourceTypes) == 0 {
		return nil, fmt.Errorf("no source types given")
	}
	want := make(map[string]bool, len(sourceTypes))
	for _, st := range sourceTypes {
		want[st] = true
	}
	return o.ingest(ctx, keywords, want)
}

// TriggerAsync opens a run record and starts the ingestion in the
// background, returning the task id for status polling right away. Used
// by the scraping trigger endpoint.
func (o *Orchestrator) TriggerAsync(keywords []string) (string, error) {
	run, err := o.newRun(context.Background())
	if err != nil {
		return "", err
	}
	go func() {
		if _, err := o.run(context.Background(), run, keywords, nil); err != nil {
			logging.Error().Str("task_id", run.TaskID).Err(err).Msg("Triggered ingestion run failed")
		}
	}()
	return run.TaskID, nil
}

func (o *Orchestrator) newRun(ctx context.Context) (*models.IngestionRun, error) {
	run := &models.IngestionRun{
		TaskID:    uuid.NewString(),
		Status:    models.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := o.db.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create run record: %w", err)
	}
	return run, nil
}

func (o *Orchestrator) ingest(ctx context.Context, keywords []string, want map[string]bool) (*models.IngestionRun, error) {
	run, err := o.newRun(ctx)
	if err != nil {
		return nil, err
	}
	return o.run(ctx, run, keywords, want)
}

func (o *Orchestrator) run(ctx context.Context, run *models.IngestionRun, keywords []string, want map[string]bool) (*models.IngestionRun, error) {
	hard := defaultHardDeadline
	soft := defaultSoftDeadline
	if o.cfg != nil && o.cfg.HardDeadline > 0 {
		hard = o.cfg.HardDeadline
	}
	if o.cfg != nil && o.cfg.SoftDeadline > 0 {
		soft = o.cfg.SoftDeadline
	}
	runCtx, cancel := context.WithTimeout(ctx, hard)
	defer cancel()

	keywords, err := o.resolveKeywords(runCtx, keywords)
	if err != nil {
		return o.failRun(ctx, run, fmt.Errorf("failed to resolve keywords: %w", err))
	}

	sources, err := o.db.ListSources(runCtx, true)
	if err != nil {
		return o.failRun(ctx, run, fmt.Errorf("failed to list sources: %w", err))
	}
	if want != nil {
		filtered := sources[:0]
		for _, src := range sources {
			if want[src.SourceType] {
				filtered = append(filtered, src)
			}
		}
		sources = filtered
	}
	if len(sources) == 0 {
		run.Status = models.RunStatusSkipped
		if err := o.db.CompleteRun(ctx, run); err != nil {
			return nil, err
		}
		logging.Info().Str("task_id", run.TaskID).Msg("No active sources, run skipped")
		return run, nil
	}

	logging.Info().Str("task_id", run.TaskID).Int("sources", len(sources)).
		Int("keywords", len(keywords)).Msg("Starting ingestion run")

	concurrent := defaultMaxConcurrent
	if o.cfg != nil && o.cfg.MaxConcurrent > 0 {
		concurrent = o.cfg.MaxConcurrent
	}
	if concurrent > maxConcurrentCap {
		concurrent = maxConcurrentCap
	}

	records := make([]models.SourceRunRecord, len(sources))
	var g errgroup.Group
	g.SetLimit(concurrent)
	for i := range sources {
		i := i
		g.Go(func() error {
			records[i] = o.ingestSource(runCtx, &sources[i], keywords)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	if elapsed := time.Since(run.StartedAt); elapsed > soft {
		logging.Warn().Str("task_id", run.TaskID).Dur("elapsed", elapsed).
			Dur("soft_deadline", soft).Msg("Ingestion run exceeded soft deadline")
	}

	run.Sources = records
	for _, rec := range records {
		run.ItemsFound += rec.ItemsFound
		run.ItemsSaved += rec.ItemsSaved
		if rec.Success {
			run.SourcesSucceeded++
		} else {
			run.SourcesFailed++
		}
	}
	switch {
	case run.SourcesFailed == 0:
		run.Status = models.RunStatusSuccess
	case run.SourcesSucceeded > 0:
		run.Status = models.RunStatusPartialSuccess
	default:
		run.Status = models.RunStatusFailed
		run.ErrorMessage = "all sources failed"
	}

	// Complete with the parent context: the hard deadline must not stop
	// the run record from being written.
	if err := o.db.CompleteRun(ctx, run); err != nil {
		return run, fmt.Errorf("failed to complete run: %w", err)
	}

	duration := time.Since(run.StartedAt)
	metrics.RecordIngestionRun(run.Status, duration)
	logging.Info().Str("task_id", run.TaskID).Str("status", run.Status).
		Int("found", run.ItemsFound).Int("saved", run.ItemsSaved).
		Int("failed_sources", run.SourcesFailed).Dur("duration", duration).
		Msg("Ingestion run complete")

	o.chainScoring(ctx, run)
	return run, nil
}

// ingestSource runs one source end to end and returns its record. Never
// panics the run; every failure mode lands in the record.
func (o *Orchestrator) ingestSource(ctx context.Context, source *models.Source, keywords []string) models.SourceRunRecord {
	start := time.Now()
	record := models.SourceRunRecord{SourceType: source.SourceType}
	fail := func(err error) models.SourceRunRecord {
		record.Error = err.Error()
		record.Duration = time.Since(start)
		metrics.RecordScrape(source.SourceType, record.Duration, 0, err)
		logging.Error().Str("source", source.SourceType).Err(err).Msg("Source ingestion failed")
		return record
	}

	plugin, err := scraper.New(source.SourceType, o.deps)
	if err != nil {
		return fail(err)
	}
	if err := plugin.ValidateConfig(source.Config); err != nil {
		return fail(fmt.Errorf("invalid config: %w", err))
	}

	items, fromCache, err := scraper.ScrapeWithCache(ctx, o.deps.Cache, plugin, keywords, source.Config)
	if err != nil {
		return fail(err)
	}
	record.FromCache = fromCache
	record.ItemsFound = len(items)

	saved, err := SaveItems(ctx, o.db, source, items)
	if err != nil {
		return fail(err)
	}
	record.ItemsSaved = saved
	record.Success = true
	record.Duration = time.Since(start)

	metrics.RecordScrape(source.SourceType, record.Duration, record.ItemsFound, nil)
	if err := o.db.TouchSourceScraped(ctx, source.ID, time.Now().UTC()); err != nil {
		logging.Warn().Str("source", source.SourceType).Err(err).Msg("Failed to update last_scraped_at")
	}

	logging.Info().Str("source", source.SourceType).Int("found", record.ItemsFound).
		Int("saved", record.ItemsSaved).Bool("from_cache", record.FromCache).
		Dur("duration", record.Duration).Msg("Source ingested")
	return record
}

// resolveKeywords picks the scrape keyword list: the caller's, else the
// active keyword table, else the configured defaults.
func (o *Orchestrator) resolveKeywords(ctx context.Context, keywords []string) ([]string, error) {
	if len(keywords) > 0 {
		return keywords, nil
	}

	active, err := o.db.ActiveKeywords(ctx)
	if err != nil {
		return nil, err
	}
	if len(active) > 0 {
		out := make([]string, len(active))
		for i, kw := range active {
			out[i] = kw.Keyword
		}
		return out, nil
	}

	if o.cfg != nil {
		return o.cfg.DefaultKeywords, nil
	}
	return nil, nil
}

// chainScoring triggers the scoring jobs after a run that saved items.
// Best-effort: scoring failures are logged, never returned.
func (o *Orchestrator) chainScoring(ctx context.Context, run *models.IngestionRun) {
	if o.cfg != nil && !o.cfg.RunScoring {
		return
	}
	if run.ItemsSaved == 0 || o.scorer == nil {
		return
	}

	if _, err := o.scorer.Run(ctx); err != nil {
		logging.Error().Str("task_id", run.TaskID).Err(err).Msg("Post-run scoring failed")
	}
	if o.users != nil {
		if _, err := o.users.ScoreAllUsers(ctx); err != nil {
			logging.Error().Str("task_id", run.TaskID).Err(err).Msg("Post-run user scoring failed")
		}
	}
}

// failRun marks the run failed before any source work happened.
func (o *Orchestrator) failRun(ctx context.Context, run *models.IngestionRun, cause error) (*models.IngestionRun, error) {
	run.Status = models.RunStatusFailed
	run.ErrorMessage = cause.Error()
	if err := o.db.CompleteRun(ctx, run); err != nil {
		logging.Error().Str("task_id", run.TaskID).Err(err).Msg("Failed to complete failed run")
	}
	metrics.RecordIngestionRun(models.RunStatusFailed, time.Since(run.StartedAt))
	return run, cause
}
