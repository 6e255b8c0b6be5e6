// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MKhiriev/go-multimatrix/internal/config"
	"github.com/MKhiriev/go-multimatrix/internal/logger"
)

// countingWorker records how many times Run was entered and blocks until
// ctx ends.
type countingWorker struct {
	runs atomic.Int32
}

func (c *countingWorker) Run(ctx context.Context) {
	c.runs.Add(1)
	<-ctx.Done()
}

type countingReaper struct {
	calls atomic.Int32
}

func (c *countingReaper) ReapVerifications(time.Time) int {
	c.calls.Add(1)
	return 1
}

func TestWorkers_Run_AllWorkersAreCalled(t *testing.T) {
	w1, w2, w3 := &countingWorker{}, &countingWorker{}, &countingWorker{}
	ws := &Workers{workers: []Worker{w1, w2, w3}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ws.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for w1.runs.Load()+w2.runs.Load()+w3.runs.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatal("workers were not started")
		}
		time.Sleep(time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	for i, w := range []*countingWorker{w1, w2, w3} {
		if got := w.runs.Load(); got != 1 {
			t.Errorf("worker[%d]: expected runs=1, got %d", i, got)
		}
	}
}

func TestWorkers_Run_Empty(t *testing.T) {
	ws := &Workers{}

	// returns immediately when there is nothing to run
	ws.Run(context.Background())
}

func TestVerificationReaper_TicksUntilCancelled(t *testing.T) {
	reaper := &countingReaper{}
	v := NewVerificationReaper(reaper, time.Millisecond, logger.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	v.Run(ctx)

	if reaper.calls.Load() < 2 {
		t.Errorf("expected several reaps, got %d", reaper.calls.Load())
	}

	after := reaper.calls.Load()
	time.Sleep(5 * time.Millisecond)
	if reaper.calls.Load() != after {
		t.Error("reaper kept running after its context ended")
	}
}

func TestNewWorkers(t *testing.T) {
	ws := NewWorkers(&countingReaper{}, config.ClientVerification{ReapInterval: time.Second}, logger.Nop())

	if len(ws.workers) != 1 {
		t.Fatalf("expected 1 worker, got %d", len(ws.workers))
	}
	if _, ok := ws.workers[0].(*VerificationReaper); !ok {
		t.Errorf("expected a *VerificationReaper, got %T", ws.workers[0])
	}
}
