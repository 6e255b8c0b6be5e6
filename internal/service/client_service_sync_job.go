// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/MKhiriev/go-multimatrix/internal/adapter"
	"github.com/MKhiriev/go-multimatrix/internal/utils"
	"github.com/MKhiriev/go-multimatrix/models"
)

// command is a closure executed on the engine goroutine.
type command struct {
	fn   func(ctx context.Context) error
	done chan error
}

type syncResult struct {
	batch models.SyncBatch
	err   error
}

// syncEngine runs the long-poll loop of one account. It is the single
// writer of the account's rooms: batches and commands are applied on its
// goroutine only.
type syncEngine struct {
	session  *AccountSession
	commands chan command

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
	wg      sync.WaitGroup
}

func newSyncEngine(session *AccountSession) *syncEngine {
	return &syncEngine{
		session:  session,
		commands: make(chan command),
	}
}

// Start stops any previous loop, then launches a new one. The loop exits
// when ctx is cancelled, Stop is called or the token is rejected.
func (e *syncEngine) Start(ctx context.Context) {
	e.StartAfter(ctx, nil)
}

// StartAfter is Start with a first step run on the loop goroutine. The loop
// begins only when prelude succeeds; commands submitted meanwhile are served.
func (e *syncEngine) StartAfter(ctx context.Context, prelude func(ctx context.Context) error) {
	e.Stop()

	e.mu.Lock()
	jobCtx, cancel := context.WithCancel(utils.WithAccountID(ctx, e.session.account.UserID))
	e.cancel = cancel
	stopped := make(chan struct{})
	e.stopped = stopped
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()
		defer close(stopped)
		if prelude != nil && !e.await(jobCtx, prelude) {
			return
		}
		e.run(jobCtx)
	}()
}

// Stop cancels the loop and blocks until it has fully exited. Safe to call
// when the loop is not running.
func (e *syncEngine) Stop() {
	e.mu.Lock()
	cancel := e.cancel
	e.cancel = nil
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	e.wg.Wait()
}

// Running reports whether the loop goroutine is alive.
func (e *syncEngine) Running() bool {
	e.mu.Lock()
	stopped := e.stopped
	e.mu.Unlock()

	if stopped == nil {
		return false
	}
	select {
	case <-stopped:
		return false
	default:
		return true
	}
}

// submit runs fn on the engine goroutine and returns its error. When the
// loop is not running fn runs on the caller's goroutine, since nothing else
// writes then.
func (e *syncEngine) submit(ctx context.Context, fn func(ctx context.Context) error) error {
	e.mu.Lock()
	stopped := e.stopped
	e.mu.Unlock()

	if stopped == nil {
		return fn(ctx)
	}

	cmd := command{fn: fn, done: make(chan error, 1)}
	select {
	case e.commands <- cmd:
	case <-stopped:
		return fn(ctx)
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-cmd.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// await runs fn in the background and serves commands until it returns.
func (e *syncEngine) await(ctx context.Context, fn func(ctx context.Context) error) bool {
	done := make(chan error, 1)
	go func() {
		done <- fn(ctx)
	}()

	for {
		select {
		case cmd := <-e.commands:
			cmd.done <- cmd.fn(ctx)
		case err := <-done:
			return err == nil && ctx.Err() == nil
		}
	}
}

func (e *syncEngine) newBackoff() retry.Backoff {
	cfg := e.session.cfg.Sync
	b := retry.NewExponential(cfg.BackoffBase)
	b = retry.WithJitterPercent(20, b)
	return retry.WithCappedDuration(cfg.BackoffMax, b)
}

func (e *syncEngine) run(ctx context.Context) {
	s := e.session
	log := s.log.With().Str("func", "syncEngine.run").Logger()

	defer func() {
		s.Client().CloseIdleConnections()
		log.Debug().Msg("sync loop stopped")
	}()

	cursor, err := s.cursors.LoadCursor(ctx, s.ID())
	if err != nil {
		log.Warn().Err(err).Msg("failed to load sync cursor, starting with an initial sync")
		cursor = ""
	}

	backoff := e.newBackoff()
	failures := 0
	synced := false

	results := make(chan syncResult, 1)
	inFlight := false
	var retryAt <-chan time.Time

	for {
		if !inFlight && retryAt == nil {
			inFlight = true
			go func(since string) {
				batch, err := s.Client().Sync(ctx, since, s.cfg.SyncTimeout)
				results <- syncResult{batch: batch, err: err}
			}(cursor)
		}

		select {
		case <-ctx.Done():
			return

		case cmd := <-e.commands:
			cmd.done <- cmd.fn(ctx)

		case <-retryAt:
			retryAt = nil

		case res := <-results:
			inFlight = false

			if res.err != nil {
				if ctx.Err() != nil {
					return
				}
				if errors.Is(res.err, adapter.ErrAuth) {
					s.setStatus(models.StatusLoggedOut, res.err)
					return
				}

				failures++
				delay, _ := backoff.Next()
				log.Warn().Err(res.err).Int("failures", failures).Dur("retry_in", delay).Msg("sync failed")

				if !synced || failures >= s.cfg.Sync.DegradedAfter {
					s.setStatus(models.StatusDegraded, res.err)
				}
				retryAt = time.After(delay)
				continue
			}

			failures = 0
			backoff = e.newBackoff()

			events := s.applyBatch(res.batch)

			if res.batch.NextCursor != "" {
				cursor = res.batch.NextCursor
				if err := s.cursors.SaveCursor(ctx, s.ID(), cursor); err != nil {
					log.Warn().Err(err).Msg("failed to persist sync cursor")
				}
			}

			s.publisher.PublishAll(events)

			synced = true
			s.setStatus(models.StatusSynced, nil)
		}
	}
}
