// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/techwatch/config.yaml",
	"/etc/techwatch/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:      "/data/techwatch.duckdb",
			MaxMemory: "2GB",
			Threads:   0, // 0 = use runtime.NumCPU()
			SeedData:  true,
		},
		Redis: RedisConfig{
			URL:     "redis://127.0.0.1:6379/0",
			Enabled: true,
		},
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8642,
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		API: APIConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Scraper: ScraperConfig{
			UserAgent:      "TechWatch/1.0 (+https://github.com/techwatch/techwatch)",
			MaxConcurrent:  8,
			MaxRetries:     3,
			RequestTimeout: 30 * time.Second,
			CacheTTL:       time.Hour,
			SoftDeadline:   25 * time.Minute,
			HardDeadline:   30 * time.Minute,
			DefaultKeywords: []string{
				"python", "AI", "machine learning", "blockchain",
			},
			RunScoring: true,
		},
		Sources: SourcesConfig{},
		Scoring: ScoringConfig{
			BatchSize:      500,
			RescoreLimit:   1000,
			SummarizeBatch: 50,
		},
		Trends: TrendsConfig{
			WindowDays:    7,
			RetentionDays: 90,
		},
		Scheduler: SchedulerConfig{
			Enabled:        true,
			IngestInterval: 6 * time.Hour,
			ScoringMinute:  15,
			SummarizeHour:  9,
			TrendsHour:     10,
			CleanupWeekday: time.Sunday,
			CleanupHour:    3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in defaults
//  2. Config file: optional YAML config file (if exists)
//  3. Environment variables: override any setting
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Comma-separated env values for slice fields
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths defines which config paths are parsed as comma-separated
// slices when they arrive via environment variables.
var sliceConfigPaths = []string{
	"api.cors_origins",
	"scraper.default_keywords",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. Env vars come in as strings but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		// Already a slice (from YAML file)
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}
		if strVal, ok := val.(string); ok {
			if strVal == "" {
				continue
			}
			parts := strings.Split(strVal, ",")
			trimmed := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					trimmed = append(trimmed, p)
				}
			}
			if len(trimmed) > 0 {
				if err := k.Set(path, trimmed); err != nil {
					return fmt.Errorf("failed to set %s: %w", path, err)
				}
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config paths.
//
// Examples:
//   - DATABASE_PATH -> database.path
//   - REDIS_URL -> redis.url
//   - YOUTUBE_API_KEY -> sources.youtube_api_key
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Database
		"database_path":       "database.path",
		"duckdb_path":         "database.path",
		"database_max_memory": "database.max_memory",
		"database_threads":    "database.threads",
		"seed_data":           "database.seed_data",

		// Redis
		"redis_url":     "redis.url",
		"redis_enabled": "redis.enabled",

		// Server
		"http_port":    "server.port",
		"http_host":    "server.host",
		"http_timeout": "server.timeout",
		"environment":  "server.environment",

		// API
		"api_default_page_size": "api.default_page_size",
		"api_max_page_size":     "api.max_page_size",
		"rate_limit_requests":   "api.rate_limit_reqs",
		"rate_limit_window":     "api.rate_limit_window",
		"cors_origins":          "api.cors_origins",

		// Scraper runtime
		"scraper_user_agent":      "scraper.user_agent",
		"scraper_max_concurrent":  "scraper.max_concurrent",
		"scraper_max_retries":     "scraper.max_retries",
		"scraper_request_timeout": "scraper.request_timeout",
		"scraper_cache_ttl":       "scraper.cache_ttl",
		"scraper_soft_deadline":   "scraper.soft_deadline",
		"scraper_hard_deadline":   "scraper.hard_deadline",
		"default_keywords":        "scraper.default_keywords",
		"run_scoring":             "scraper.run_scoring",

		// Source credentials
		"reddit_client_id":     "sources.reddit_client_id",
		"reddit_client_secret": "sources.reddit_client_secret",
		"youtube_api_key":      "sources.youtube_api_key",
		"devto_api_key":        "sources.devto_api_key",
		"anthropic_api_key":    "sources.anthropic_api_key",

		// Scoring
		"scoring_batch_size":      "scoring.batch_size",
		"scoring_rescore_limit":   "scoring.rescore_limit",
		"scoring_summarize_batch": "scoring.summarize_batch",

		// Trends
		"trends_window_days":    "trends.window_days",
		"trends_retention_days": "trends.retention_days",

		// Scheduler
		"scheduler_enabled":         "scheduler.enabled",
		"scheduler_ingest_interval": "scheduler.ingest_interval",
		"scheduler_scoring_minute":  "scheduler.scoring_minute",
		"scheduler_summarize_hour":  "scheduler.summarize_hour",
		"scheduler_trends_hour":     "scheduler.trends_hour",
		"scheduler_cleanup_hour":    "scheduler.cleanup_hour",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// Unmapped keys are skipped so random environment variables do not
	// pollute the config.
	return ""
}
