// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for production observability. Instruments:
// - Scrape operations per source (duration, errors, items)
// - Scrape result cache and YouTube API quota
// - Ingestion run outcomes
// - Scoring and trend detection jobs
// - Database query performance (DuckDB)
// - API endpoint latency and throughput

var (
	// Scrape Metrics
	ScrapeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scrape_duration_seconds",
			Help:    "Duration of scrape operations per source in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300}, // Scrapes can take minutes
		},
		[]string{"source"},
	)

	ScrapeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrape_errors_total",
			Help: "Total number of failed scrape operations",
		},
		[]string{"source", "error_type"}, // "http", "parse", "config", "quota"
	)

	ScrapeItemsFound = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrape_items_found_total",
			Help: "Total number of items returned by scrapers before persistence",
		},
		[]string{"source"},
	)

	ScrapeItemsSaved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrape_items_saved_total",
			Help: "Total number of items persisted after URL deduplication",
		},
		[]string{"source"},
	)

	ScrapeItemsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrape_items_dropped_total",
			Help: "Total number of items dropped by validation",
		},
		[]string{"source"},
	)

	// Outbound HTTP Metrics
	HTTPRequestRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_http_retries_total",
			Help: "Total number of retried outbound HTTP requests",
		},
		[]string{"source", "reason"}, // "429", "5xx", "network"
	)

	HTTPRateLimitWaits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_rate_limit_waits_total",
			Help: "Total number of requests delayed by the token bucket",
		},
		[]string{"source"},
	)

	// Result Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "scrape_result", "embedding"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_errors_total",
			Help: "Total number of cache backend errors (logged and ignored)",
		},
		[]string{"cache_type", "operation"}, // operation: "get", "set"
	)

	// YouTube API Quota Metrics
	QuotaUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "youtube_quota_units_used",
			Help: "YouTube Data API quota units used today",
		},
	)

	QuotaExhausted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "youtube_quota_exhausted_total",
			Help: "Total number of API calls skipped because the daily quota was exhausted",
		},
	)

	// Ingestion Run Metrics
	IngestionRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestion_runs_total",
			Help: "Total number of completed ingestion runs by status",
		},
		[]string{"status"}, // "success", "partial_success", "failed"
	)

	IngestionRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingestion_run_duration_seconds",
			Help:    "Duration of full ingestion runs in seconds",
			Buckets: []float64{10, 30, 60, 120, 300, 600, 1200, 1800},
		},
	)

	IngestionLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ingestion_last_success_timestamp",
			Help: "Unix timestamp of the last successful ingestion run",
		},
	)

	// Scoring Metrics
	ScoringDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scoring_duration_seconds",
			Help:    "Duration of scoring passes in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		},
		[]string{"job"}, // "global", "user", "rescore"
	)

	ItemsScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "items_scored_total",
			Help: "Total number of items scored",
		},
		[]string{"job"},
	)

	// Trend Detection Metrics
	TrendsDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trends_detected_total",
			Help: "Total number of trend rows written",
		},
	)

	TrendRowsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trend_rows_deleted_total",
			Help: "Total number of trend rows removed by cleanup",
		},
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordScrape records the outcome of one source scrape.
func RecordScrape(source string, duration time.Duration, itemsFound int, err error) {
	ScrapeDuration.WithLabelValues(source).Observe(duration.Seconds())
	ScrapeItemsFound.WithLabelValues(source).Add(float64(itemsFound))
	if err != nil {
		ScrapeErrors.WithLabelValues(source, classifyScrapeError(err)).Inc()
	}
}

// RecordDBQuery records a database query metric.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordIngestionRun records a completed ingestion run.
func RecordIngestionRun(status string, duration time.Duration) {
	IngestionRuns.WithLabelValues(status).Inc()
	IngestionRunDuration.Observe(duration.Seconds())
	if status == "success" {
		IngestionLastSuccess.Set(float64(time.Now().Unix()))
	}
}

// RecordScoringPass records a completed scoring pass.
func RecordScoringPass(job string, duration time.Duration, itemsScored int) {
	ScoringDuration.WithLabelValues(job).Observe(duration.Seconds())
	ItemsScored.WithLabelValues(job).Add(float64(itemsScored))
}

// classifyScrapeError buckets scrape errors into a low-cardinality label.
func classifyScrapeError(err error) string {
	msg := err.Error()
	switch {
	case contains(msg, "quota"):
		return "quota"
	case contains(msg, "config"):
		return "config"
	case contains(msg, "parse"):
		return "parse"
	default:
		return "http"
	}
}

// contains reports whether substr occurs anywhere in s.
func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
