// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package scraper

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/techwatch/techwatch/internal/logging"
	"github.com/techwatch/techwatch/internal/metrics"
)

// YouTube Data API quota accounting. Google resets the daily quota at
// midnight Pacific; tracking per UTC day is slightly conservative, which is
// the safe direction.
const (
	DefaultQuotaLimit  = 10000
	QuotaWarnThreshold = 9500

	// quotaKeyTTL outlives the day it tracks so a late reader still sees it.
	quotaKeyTTL = 48 * time.Hour
)

// ErrQuotaExhausted reports that a reservation would exceed the daily limit.
var ErrQuotaExhausted = errors.New("api quota exhausted")

// QuotaManager tracks daily API quota consumption in Redis so every process
// shares one budget. A nil KV disables enforcement.
type QuotaManager struct {
	kv     KV
	limit  int64
	warnAt int64

	// now is replaceable in tests.
	now func() time.Time
}

// NewQuotaManager builds a quota manager with the default daily limit.
func NewQuotaManager(kv KV) *QuotaManager {
	return &QuotaManager{
		kv:     kv,
		limit:  DefaultQuotaLimit,
		warnAt: QuotaWarnThreshold,
		now:    time.Now,
	}
}

// key returns today's quota key, e.g. "youtube_api_quota:2026-08-24".
func (q *QuotaManager) key() string {
	return "youtube_api_quota:" + q.now().UTC().Format("2006-01-02")
}

// Used returns today's consumed quota units.
func (q *QuotaManager) Used(ctx context.Context) (int64, error) {
	if q == nil || q.kv == nil {
		return 0, nil
	}

	raw, err := q.kv.Get(ctx, q.key())
	if errors.Is(err, ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read quota: %w", err)
	}
	used, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("quota value is not an integer: %w", err)
	}
	return used, nil
}

// CanSpend reports whether units are still available today without
// consuming anything. Callers that pay per successful API call check first
// and Reserve only after the call succeeds.
func (q *QuotaManager) CanSpend(ctx context.Context, units int64) (bool, error) {
	if q == nil || q.kv == nil {
		return true, nil
	}
	used, err := q.Used(ctx)
	if err != nil {
		return false, err
	}
	return used+units <= q.limit, nil
}

// Reserve consumes units from today's budget. Returns ErrQuotaExhausted
// without consuming anything when the reservation would exceed the limit.
func (q *QuotaManager) Reserve(ctx context.Context, units int64) error {
	if q == nil || q.kv == nil {
		return nil
	}

	used, err := q.Used(ctx)
	if err != nil {
		return err
	}
	if used+units > q.limit {
		metrics.QuotaExhausted.Inc()
		logging.Error().Int64("used", used).Int64("requested", units).Int64("limit", q.limit).
			Msg("YouTube API quota exhausted")
		return fmt.Errorf("%d units used, %d requested: %w", used, units, ErrQuotaExhausted)
	}

	key := q.key()
	total, err := q.kv.IncrBy(ctx, key, units)
	if err != nil {
		return fmt.Errorf("failed to reserve quota: %w", err)
	}
	if err := q.kv.Expire(ctx, key, quotaKeyTTL); err != nil {
		logging.Warn().Str("key", key).Err(err).Msg("Failed to set quota key TTL")
	}

	metrics.QuotaUsage.Set(float64(total))
	if total >= q.warnAt {
		logging.Warn().Int64("used", total).Int64("limit", q.limit).
			Msg("YouTube API quota nearly exhausted")
	}
	return nil
}
