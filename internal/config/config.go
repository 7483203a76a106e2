// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

// Package config provides layered configuration for TechWatch.
//
// Configuration is loaded with Koanf v2 from three layers with clear
// precedence: environment variables > YAML config file > built-in defaults.
// Every setting has a sensible default so the server starts with nothing but
// a writable data directory.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the TechWatch server.
type Config struct {
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	Server    ServerConfig    `koanf:"server"`
	API       APIConfig       `koanf:"api"`
	Scraper   ScraperConfig   `koanf:"scraper"`
	Sources   SourcesConfig   `koanf:"sources"`
	Scoring   ScoringConfig   `koanf:"scoring"`
	Trends    TrendsConfig    `koanf:"trends"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// DatabaseConfig configures the embedded DuckDB store.
type DatabaseConfig struct {
	// Path is the DuckDB database file. ":memory:" is accepted for tests.
	Path string `koanf:"path"`

	// MaxMemory bounds DuckDB memory usage, e.g. "2GB".
	MaxMemory string `koanf:"max_memory"`

	// Threads limits DuckDB worker threads. 0 = runtime.NumCPU().
	Threads int `koanf:"threads"`

	// SeedData inserts the default source and keyword catalog on first
	// start when the tables are empty.
	SeedData bool `koanf:"seed_data"`
}

// RedisConfig configures the Redis connection used for scrape result
// caching and YouTube quota accounting. Redis is optional: when it is
// unreachable the pipeline runs with caching disabled.
type RedisConfig struct {
	// URL is a redis:// connection URL.
	URL string `koanf:"url"`

	// Enabled toggles Redis usage entirely.
	Enabled bool `koanf:"enabled"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`

	// Environment is "development" or "production".
	Environment string `koanf:"environment"`
}

// APIConfig configures the HTTP API surface.
type APIConfig struct {
	DefaultPageSize int           `koanf:"default_page_size"`
	MaxPageSize     int           `koanf:"max_page_size"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// ScraperConfig configures the scraper runtime and ingestion orchestrator.
type ScraperConfig struct {
	// UserAgent is sent on every outbound scrape request.
	UserAgent string `koanf:"user_agent"`

	// MaxConcurrent bounds how many sources scrape in parallel.
	MaxConcurrent int `koanf:"max_concurrent"`

	// MaxRetries bounds retry attempts per outbound request.
	MaxRetries int `koanf:"max_retries"`

	// RequestTimeout is the per-request HTTP timeout.
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// CacheTTL is the default scrape result cache lifetime.
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// SoftDeadline is the soft time budget for a full ingestion run.
	SoftDeadline time.Duration `koanf:"soft_deadline"`

	// HardDeadline cancels a run outright.
	HardDeadline time.Duration `koanf:"hard_deadline"`

	// DefaultKeywords seed ingestion when no active keywords exist.
	DefaultKeywords []string `koanf:"default_keywords"`

	// RunScoring triggers the global scorer after runs that saved items.
	RunScoring bool `koanf:"run_scoring"`
}

// SourcesConfig holds per-source credentials. Sources without credentials
// configured fail plugin config validation and are skipped at run time.
type SourcesConfig struct {
	RedditClientID     string `koanf:"reddit_client_id"`
	RedditClientSecret string `koanf:"reddit_client_secret"`
	YouTubeAPIKey      string `koanf:"youtube_api_key"`
	DevtoAPIKey        string `koanf:"devto_api_key"`
	AnthropicAPIKey    string `koanf:"anthropic_api_key"`
}

// ScoringConfig configures the relevance scoring jobs.
type ScoringConfig struct {
	// BatchSize bounds how many items a scoring pass loads at once.
	BatchSize int `koanf:"batch_size"`

	// RescoreLimit bounds how many recent items a user rescore touches.
	RescoreLimit int `koanf:"rescore_limit"`

	// SummarizeBatch bounds how many items one summarization pass sends
	// to the Anthropic API.
	SummarizeBatch int `koanf:"summarize_batch"`
}

// TrendsConfig configures trend detection.
type TrendsConfig struct {
	// WindowDays is the sliding window for trend aggregation.
	WindowDays int `koanf:"window_days"`

	// RetentionDays bounds how long trend rows are kept.
	RetentionDays int `koanf:"retention_days"`
}

// SchedulerConfig configures the periodic task scheduler.
type SchedulerConfig struct {
	Enabled bool `koanf:"enabled"`

	// IngestInterval is the period of full ingestion runs.
	IngestInterval time.Duration `koanf:"ingest_interval"`

	// ScoringMinute is the minute past each hour the scoring pass runs.
	ScoringMinute int `koanf:"scoring_minute"`

	// SummarizeHour is the UTC hour of the daily summarization pass.
	SummarizeHour int `koanf:"summarize_hour"`

	// TrendsHour is the UTC hour of the daily trend detection pass.
	TrendsHour int `koanf:"trends_hour"`

	// CleanupWeekday and CleanupHour schedule the weekly trend cleanup.
	CleanupWeekday time.Weekday `koanf:"cleanup_weekday"`
	CleanupHour    int          `koanf:"cleanup_hour"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Addr returns the host:port the HTTP server binds to.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsProduction reports whether the server runs in production mode.
func (c ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}
