// Jellyboxd - Jellyfin to Letterboxd Watch Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jellyboxd

// Package dispatch hands automation jobs to background goroutines.
//
// Submit never blocks on automation work: it starts a tracked goroutine and
// returns. Job outcomes are observable only through logs and metrics.
// Each job runs on a context detached from the submitting request, so a
// client disconnect cannot cancel it. On shutdown the dispatcher stops
// accepting jobs and waits a bounded time for running ones.
package dispatch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"github.com/tomtom215/jellyboxd/internal/automation"
	"github.com/tomtom215/jellyboxd/internal/logging"
	"github.com/tomtom215/jellyboxd/internal/metrics"
)

// ErrDispatcherClosed is returned by Submit after shutdown has begun.
var ErrDispatcherClosed = errors.New("dispatcher is closed")

// Runner executes one job to completion.
type Runner interface {
	Run(ctx context.Context, job automation.Job) automation.Result
}

// Dispatcher runs submitted jobs in the background. It implements
// suture.Service; stopping the service closes and drains it.
type Dispatcher struct {
	runner       Runner
	drainTimeout time.Duration

	mu     sync.RWMutex
	closed bool

	wg       conc.WaitGroup
	inflight atomic.Int64
}

// New creates a dispatcher that drains for up to drainTimeout on shutdown.
func New(runner Runner, drainTimeout time.Duration) *Dispatcher {
	if drainTimeout <= 0 {
		drainTimeout = 2 * time.Minute
	}
	return &Dispatcher{runner: runner, drainTimeout: drainTimeout}
}

// Submit schedules job and returns immediately. ctx contributes only its
// values (request and correlation IDs); its cancellation is ignored.
func (d *Dispatcher) Submit(ctx context.Context, job automation.Job) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		metrics.DispatchRejected.Inc()
		return ErrDispatcherClosed
	}

	jobCtx := context.WithoutCancel(ctx)
	d.inflight.Add(1)
	metrics.DispatchInflight.Inc()
	metrics.DispatchSubmitted.Inc()

	d.wg.Go(func() {
		defer func() {
			d.inflight.Add(-1)
			metrics.DispatchInflight.Dec()
		}()

		var catcher panics.Catcher
		catcher.Try(func() { d.runner.Run(jobCtx, job) })
		if r := catcher.Recovered(); r != nil {
			metrics.DispatchPanics.Inc()
			logging.Ctx(jobCtx).Error().Str("job_id", job.ID).Str("panic", r.String()).
				Msg("Automation job panicked")
		}
	})
	return nil
}

// Inflight returns the number of submitted jobs that have not finished,
// including those waiting for the browser gate.
func (d *Dispatcher) Inflight() int64 {
	return d.inflight.Load()
}

// Closed reports whether the dispatcher has stopped accepting jobs.
func (d *Dispatcher) Closed() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.closed
}

// Close stops accepting jobs and waits up to timeout for running ones. It
// returns false if jobs were still running when the timeout expired; those
// are abandoned and finish (or not) on their own.
func (d *Dispatcher) Close(timeout time.Duration) bool {
	d.mu.Lock()
	alreadyClosed := d.closed
	d.closed = true
	d.mu.Unlock()
	if alreadyClosed {
		return d.inflight.Load() == 0
	}

	pending := d.inflight.Load()
	if pending > 0 {
		logging.Info().Int64("inflight", pending).Dur("timeout", timeout).
			Msg("Waiting for automation jobs to finish")
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		abandoned := d.inflight.Load()
		metrics.DispatchAbandoned.Add(float64(abandoned))
		logging.Warn().Int64("abandoned", abandoned).Msg("Drain timeout reached, abandoning automation jobs")
		return false
	}
}

// Serve blocks until ctx is canceled, then closes the dispatcher.
func (d *Dispatcher) Serve(ctx context.Context) error {
	<-ctx.Done()
	d.Close(d.drainTimeout)
	return ctx.Err()
}

// String implements fmt.Stringer for suture logging.
func (d *Dispatcher) String() string {
	return "automation-dispatcher"
}
