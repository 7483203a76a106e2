// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

/*
scheduler.go - Periodic Task Scheduler

The scheduler drives the recurring jobs: ingestion runs, scoring passes,
daily summarization and trend detection, and weekly trend cleanup. It is
hosted in the supervisor tree as a suture service; a panicking task takes
the scheduler down and the supervisor restarts it.

Tasks run in their own goroutines so a slow ingestion run never delays the
scoring tick. A task still running when its next slot arrives is skipped
for that slot rather than run twice.
*/

//nolint:staticcheck // File documentation, not package doc
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/techwatch/techwatch/internal/logging"
)

// tickInterval bounds how late a task can start after its slot.
const tickInterval = 30 * time.Second

// Task is one schedulable unit of work.
type Task func(ctx context.Context) error

type entry struct {
	name     string
	schedule Schedule
	task     Task

	next     time.Time
	inFlight atomic.Bool
}

// Scheduler runs registered tasks on their schedules. Build it with New,
// Add the tasks, then hand it to the supervisor tree.
type Scheduler struct {
	entries []*entry
	wg      sync.WaitGroup
}

// New builds an empty scheduler.
func New() *Scheduler {
	return &Scheduler{}
}

// Add registers a task. Not safe to call once Serve has started.
func (s *Scheduler) Add(name string, schedule Schedule, task Task) {
	s.entries = append(s.entries, &entry{name: name, schedule: schedule, task: task})
}

// Serve implements suture.Service. Blocks until the context is canceled,
// then waits for in-flight tasks to finish.
func (s *Scheduler) Serve(ctx context.Context) error {
	now := time.Now().UTC()
	for _, e := range s.entries {
		e.next = e.schedule.Next(now)
		logging.Info().Str("task", e.name).Time("next_run", e.next).Msg("Task scheduled")
	}

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			return ctx.Err()
		case now := <-ticker.C:
			s.runDue(ctx, now.UTC())
		}
	}
}

// runDue starts every entry whose slot has arrived. An entry still running
// from a previous slot is rescheduled without a second invocation.
func (s *Scheduler) runDue(ctx context.Context, now time.Time) {
	for _, e := range s.entries {
		if now.Before(e.next) {
			continue
		}
		e.next = e.schedule.Next(now)

		if !e.inFlight.CompareAndSwap(false, true) {
			logging.Warn().Str("task", e.name).Time("next_run", e.next).
				Msg("Task still running, skipping this slot")
			continue
		}

		e := e
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer e.inFlight.Store(false)

			start := time.Now()
			logging.Info().Str("task", e.name).Msg("Task starting")
			if err := e.task(ctx); err != nil {
				logging.Error().Str("task", e.name).Err(err).
					Dur("duration", time.Since(start)).Msg("Task failed")
				return
			}
			logging.Info().Str("task", e.name).Dur("duration", time.Since(start)).
				Msg("Task finished")
		}()
	}
}

// String implements fmt.Stringer for supervisor logs.
func (s *Scheduler) String() string {
	return "scheduler"
}
