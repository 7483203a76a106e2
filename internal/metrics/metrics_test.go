// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordScrape(t *testing.T) {
	before := testutil.ToFloat64(ScrapeItemsFound.WithLabelValues("hackernews"))

	RecordScrape("hackernews", 2*time.Second, 42, nil)

	after := testutil.ToFloat64(ScrapeItemsFound.WithLabelValues("hackernews"))
	if after-before != 42 {
		t.Errorf("expected 42 items recorded, got %v", after-before)
	}
}

func TestRecordScrapeError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		errorType string
	}{
		{"quota error", errors.New("youtube quota exhausted"), "quota"},
		{"config error", errors.New("invalid config: missing subreddits"), "config"},
		{"parse error", errors.New("failed to parse feed"), "parse"},
		{"generic error", errors.New("connection refused"), "http"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(ScrapeErrors.WithLabelValues("reddit", tt.errorType))
			RecordScrape("reddit", time.Second, 0, tt.err)
			after := testutil.ToFloat64(ScrapeErrors.WithLabelValues("reddit", tt.errorType))
			if after-before != 1 {
				t.Errorf("expected error counted as %q", tt.errorType)
			}
		})
	}
}

func TestRecordIngestionRun(t *testing.T) {
	before := testutil.ToFloat64(IngestionRuns.WithLabelValues("partial_success"))

	RecordIngestionRun("partial_success", 90*time.Second)

	after := testutil.ToFloat64(IngestionRuns.WithLabelValues("partial_success"))
	if after-before != 1 {
		t.Error("expected partial_success run counted")
	}
}

func TestRecordIngestionRunSuccessUpdatesTimestamp(t *testing.T) {
	RecordIngestionRun("success", time.Minute)

	ts := testutil.ToFloat64(IngestionLastSuccess)
	if ts == 0 {
		t.Error("expected last success timestamp to be set")
	}
}

func TestRecordScoringPass(t *testing.T) {
	before := testutil.ToFloat64(ItemsScored.WithLabelValues("global"))

	RecordScoringPass("global", 5*time.Second, 500)

	after := testutil.ToFloat64(ItemsScored.WithLabelValues("global"))
	if after-before != 500 {
		t.Errorf("expected 500 items scored, got %v", after-before)
	}
}

func TestRecordDBQueryError(t *testing.T) {
	before := testutil.ToFloat64(DBQueryErrors.WithLabelValues("INSERT", "items"))

	RecordDBQuery("INSERT", "items", 10*time.Millisecond, errors.New("constraint violation"))

	after := testutil.ToFloat64(DBQueryErrors.WithLabelValues("INSERT", "items"))
	if after-before != 1 {
		t.Error("expected DB error counted")
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/api/v1/scraping/trigger", "202"))

	RecordAPIRequest("POST", "/api/v1/scraping/trigger", "202", 3*time.Millisecond)

	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/api/v1/scraping/trigger", "202"))
	if after-before != 1 {
		t.Error("expected API request counted")
	}
}

func TestMetricsLint(t *testing.T) {
	problems, err := testutil.GatherAndLint(prometheus.DefaultGatherer)
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	for _, p := range problems {
		t.Errorf("metric lint: %s: %s", p.Metric, p.Text)
	}
}
