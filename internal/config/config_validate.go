// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the configuration for invalid or inconsistent values.
// It returns an error describing the first problem found. Missing source
// credentials are not an error here; the affected plugins are skipped at
// run time instead.
func (c *Config) Validate() error {
	var errs []string

	if c.Database.Path == "" {
		errs = append(errs, "database.path must not be empty")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.Environment != "development" && c.Server.Environment != "production" {
		errs = append(errs, fmt.Sprintf("server.environment must be development or production, got %q", c.Server.Environment))
	}

	if c.API.DefaultPageSize < 1 {
		errs = append(errs, "api.default_page_size must be at least 1")
	}
	if c.API.MaxPageSize < c.API.DefaultPageSize {
		errs = append(errs, "api.max_page_size must be >= api.default_page_size")
	}

	if c.Scraper.MaxConcurrent < 1 || c.Scraper.MaxConcurrent > 32 {
		errs = append(errs, fmt.Sprintf("scraper.max_concurrent must be 1-32, got %d", c.Scraper.MaxConcurrent))
	}
	if c.Scraper.MaxRetries < 0 || c.Scraper.MaxRetries > 10 {
		errs = append(errs, fmt.Sprintf("scraper.max_retries must be 0-10, got %d", c.Scraper.MaxRetries))
	}
	if c.Scraper.HardDeadline < c.Scraper.SoftDeadline {
		errs = append(errs, "scraper.hard_deadline must be >= scraper.soft_deadline")
	}
	if c.Scraper.UserAgent == "" {
		errs = append(errs, "scraper.user_agent must not be empty")
	}

	if c.Scoring.BatchSize < 1 {
		errs = append(errs, "scoring.batch_size must be at least 1")
	}
	if c.Scoring.RescoreLimit < 1 {
		errs = append(errs, "scoring.rescore_limit must be at least 1")
	}

	if c.Trends.WindowDays < 1 {
		errs = append(errs, "trends.window_days must be at least 1")
	}
	if c.Trends.RetentionDays < c.Trends.WindowDays {
		errs = append(errs, "trends.retention_days must be >= trends.window_days")
	}

	if c.Scheduler.ScoringMinute < 0 || c.Scheduler.ScoringMinute > 59 {
		errs = append(errs, fmt.Sprintf("scheduler.scoring_minute must be 0-59, got %d", c.Scheduler.ScoringMinute))
	}
	for name, hour := range map[string]int{
		"scheduler.summarize_hour": c.Scheduler.SummarizeHour,
		"scheduler.trends_hour":    c.Scheduler.TrendsHour,
		"scheduler.cleanup_hour":   c.Scheduler.CleanupHour,
	} {
		if hour < 0 || hour > 23 {
			errs = append(errs, fmt.Sprintf("%s must be 0-23, got %d", name, hour))
		}
	}

	if c.Redis.Enabled && c.Redis.URL == "" {
		errs = append(errs, "redis.url must not be empty when redis is enabled")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
