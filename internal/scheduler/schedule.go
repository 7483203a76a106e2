// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package scheduler

import "time"

// Schedule computes when a task runs next. All schedules work in UTC.
type Schedule interface {
	// Next returns the first run time strictly after the given instant.
	Next(after time.Time) time.Time
}

// Every runs a task at a fixed interval.
type Every time.Duration

// Next implements Schedule.
func (e Every) Next(after time.Time) time.Time {
	return after.Add(time.Duration(e))
}

// HourlyAt runs a task once per hour at the given minute.
type HourlyAt int

// Next implements Schedule.
func (m HourlyAt) Next(after time.Time) time.Time {
	after = after.UTC()
	next := time.Date(after.Year(), after.Month(), after.Day(), after.Hour(), int(m), 0, 0, time.UTC)
	if !next.After(after) {
		next = next.Add(time.Hour)
	}
	return next
}

// DailyAt runs a task once per day at the given UTC hour.
type DailyAt int

// Next implements Schedule.
func (h DailyAt) Next(after time.Time) time.Time {
	after = after.UTC()
	next := time.Date(after.Year(), after.Month(), after.Day(), int(h), 0, 0, 0, time.UTC)
	if !next.After(after) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// WeeklyAt runs a task once per week at the given weekday and UTC hour.
type WeeklyAt struct {
	Weekday time.Weekday
	Hour    int
}

// Next implements Schedule.
func (w WeeklyAt) Next(after time.Time) time.Time {
	after = after.UTC()
	next := time.Date(after.Year(), after.Month(), after.Day(), w.Hour, 0, 0, 0, time.UTC)
	days := (int(w.Weekday) - int(after.Weekday()) + 7) % 7
	next = next.AddDate(0, 0, days)
	if !next.After(after) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}
