// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/techwatch/techwatch/internal/models"
)

// CreateYouTubeChannel registers a channel for the youtube_rss plugin.
func (db *DB) CreateYouTubeChannel(ctx context.Context, ch *models.YouTubeChannel) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	err := db.conn.QueryRowContext(ctx, `
		INSERT INTO youtube_channels (channel_id, name, is_active)
		VALUES (?, ?, ?)
		RETURNING id, created_at`,
		ch.ChannelID, ch.Name, ch.IsActive,
	).Scan(&ch.ID, &ch.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert youtube channel %s: %w", ch.ChannelID, err)
	}
	return nil
}

// ActiveYouTubeChannels returns all active channels in the registry.
func (db *DB) ActiveYouTubeChannels(ctx context.Context) ([]models.YouTubeChannel, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, channel_id, name, is_active, last_video_at, created_at
		FROM youtube_channels WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query youtube channels: %w", err)
	}
	defer closeWithLog(rows, "channel rows")

	var channels []models.YouTubeChannel
	for rows.Next() {
		var (
			ch        models.YouTubeChannel
			lastVideo sql.NullTime
		)
		if err := rows.Scan(&ch.ID, &ch.ChannelID, &ch.Name, &ch.IsActive, &lastVideo, &ch.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan youtube channel: %w", err)
		}
		if lastVideo.Valid {
			ch.LastVideoAt = &lastVideo.Time
		}
		channels = append(channels, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating youtube channels: %w", err)
	}
	return channels, nil
}

// TouchYouTubeChannel records the publish time of the newest video seen for
// a channel, keeping the registry's last_video_at monotonic.
func (db *DB) TouchYouTubeChannel(ctx context.Context, channelID string, videoAt time.Time) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `
		UPDATE youtube_channels SET last_video_at = ?
		WHERE channel_id = ? AND (last_video_at IS NULL OR last_video_at < ?)`,
		videoAt, channelID, videoAt)
	if err != nil {
		return fmt.Errorf("failed to touch youtube channel %s: %w", channelID, err)
	}
	return nil
}
