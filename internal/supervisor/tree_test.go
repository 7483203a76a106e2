// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package supervisor

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// countingService records how often it was started and blocks until
// canceled.
type countingService struct {
	starts atomic.Int64
}

func (c *countingService) Serve(ctx context.Context) error {
	c.starts.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func (c *countingService) String() string { return "counting" }

func TestNewTreeAppliesDefaults(t *testing.T) {
	tree, err := NewTree(testLogger(), TreeConfig{})
	if err != nil {
		t.Fatalf("NewTree() failed: %v", err)
	}

	if tree.config.FailureThreshold != 5.0 {
		t.Errorf("FailureThreshold = %f", tree.config.FailureThreshold)
	}
	if tree.config.FailureDecay != 30.0 {
		t.Errorf("FailureDecay = %f", tree.config.FailureDecay)
	}
	if tree.config.FailureBackoff != 15*time.Second {
		t.Errorf("FailureBackoff = %v", tree.config.FailureBackoff)
	}
	if tree.config.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v", tree.config.ShutdownTimeout)
	}
}

func TestNewTreeKeepsExplicitConfig(t *testing.T) {
	cfg := TreeConfig{
		FailureThreshold: 2.0,
		FailureDecay:     10.0,
		FailureBackoff:   5 * time.Second,
		ShutdownTimeout:  3 * time.Second,
	}
	tree, err := NewTree(testLogger(), cfg)
	if err != nil {
		t.Fatalf("NewTree() failed: %v", err)
	}
	if tree.config != cfg {
		t.Errorf("config = %+v, want %+v", tree.config, cfg)
	}
}

func TestTreeRunsServicesInBothLayers(t *testing.T) {
	tree, err := NewTree(testLogger(), DefaultTreeConfig())
	if err != nil {
		t.Fatalf("NewTree() failed: %v", err)
	}

	job := &countingService{}
	api := &countingService{}
	tree.AddJobService(job)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	deadline := time.After(5 * time.Second)
	for job.starts.Load() == 0 || api.starts.Load() == 0 {
		select {
		case <-deadline:
			t.Fatalf("services not started: job=%d api=%d", job.starts.Load(), api.starts.Load())
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-errCh:
	case <-time.After(5 * time.Second):
		t.Fatal("tree did not stop on cancel")
	}
}

func TestTreeRestartsCrashedService(t *testing.T) {
	tree, err := NewTree(testLogger(), TreeConfig{
		FailureThreshold: 100,
		FailureDecay:     30,
		FailureBackoff:   time.Second,
		ShutdownTimeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("NewTree() failed: %v", err)
	}

	var starts atomic.Int64
	crash := serveFunc(func(ctx context.Context) error {
		if starts.Add(1) < 3 {
			return context.DeadlineExceeded
		}
		<-ctx.Done()
		return ctx.Err()
	})
	tree.AddJobService(crash)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	deadline := time.After(5 * time.Second)
	for starts.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("service restarted %d times, want 3", starts.Load())
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-errCh
}

type serveFunc func(ctx context.Context) error

func (f serveFunc) Serve(ctx context.Context) error { return f(ctx) }
