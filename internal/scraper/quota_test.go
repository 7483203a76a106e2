// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package scraper

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestQuotaReserve(t *testing.T) {
	q := NewQuotaManager(NewMemoryKV())
	ctx := context.Background()

	if err := q.Reserve(ctx, 100); err != nil {
		t.Fatalf("Reserve(100) failed: %v", err)
	}
	used, err := q.Used(ctx)
	if err != nil {
		t.Fatalf("Used() failed: %v", err)
	}
	if used != 100 {
		t.Errorf("used = %d, want 100", used)
	}
}

func TestQuotaExhaustion(t *testing.T) {
	q := NewQuotaManager(NewMemoryKV())
	ctx := context.Background()

	if err := q.Reserve(ctx, DefaultQuotaLimit-50); err != nil {
		t.Fatalf("Reserve() failed: %v", err)
	}

	// 100 more units would cross the limit; nothing may be consumed.
	if err := q.Reserve(ctx, 100); !errors.Is(err, ErrQuotaExhausted) {
		t.Fatalf("Reserve() over limit = %v, want ErrQuotaExhausted", err)
	}
	used, err := q.Used(ctx)
	if err != nil {
		t.Fatalf("Used() failed: %v", err)
	}
	if used != DefaultQuotaLimit-50 {
		t.Errorf("used = %d, refused reservation must not consume units", used)
	}

	// The remaining 50 units are still reservable.
	if err := q.Reserve(ctx, 50); err != nil {
		t.Errorf("Reserve(50) at exact limit failed: %v", err)
	}
}

func TestQuotaResetsPerDay(t *testing.T) {
	q := NewQuotaManager(NewMemoryKV())
	day := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	q.now = func() time.Time { return day }
	ctx := context.Background()

	if err := q.Reserve(ctx, DefaultQuotaLimit); err != nil {
		t.Fatalf("Reserve() failed: %v", err)
	}
	if err := q.Reserve(ctx, 1); !errors.Is(err, ErrQuotaExhausted) {
		t.Fatalf("expected exhaustion on day one, got %v", err)
	}

	q.now = func() time.Time { return day.AddDate(0, 0, 1) }
	if err := q.Reserve(ctx, 1); err != nil {
		t.Errorf("Reserve() after day rollover failed: %v", err)
	}
}

func TestQuotaDisabledWithoutBackend(t *testing.T) {
	q := NewQuotaManager(nil)
	if err := q.Reserve(context.Background(), DefaultQuotaLimit*10); err != nil {
		t.Errorf("Reserve() without backend = %v, want nil", err)
	}
}
