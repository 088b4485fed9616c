// Jellyboxd - Jellyfin to Letterboxd Watch Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jellyboxd

package tracker

import (
	"context"
	"time"

	"github.com/tomtom215/jellyboxd/internal/logging"
	"github.com/tomtom215/jellyboxd/internal/metrics"
)

// Janitor periodically prunes expired sessions and clears the state when
// the process stops. It implements suture.Service.
//
//	tree.AddAutomationService(tracker.NewJanitor(t.State(), cfg.Tracker.CleanupInterval))
type Janitor struct {
	state    *SessionState
	interval time.Duration
	now      func() time.Time
}

// NewJanitor creates a janitor for state running every interval.
func NewJanitor(state *SessionState, interval time.Duration) *Janitor {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &Janitor{state: state, interval: interval, now: time.Now}
}

// Serve runs until ctx is canceled, then clears the state.
func (j *Janitor) Serve(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.state.Clear()
			metrics.TrackedSessions.Set(0)
			return ctx.Err()
		case <-ticker.C:
			if removed := j.state.CleanupExpired(j.now()); removed > 0 {
				logging.Debug().Int("removed", removed).Int("remaining", j.state.Len()).
					Msg("Pruned idle viewing sessions")
			}
			metrics.TrackedSessions.Set(float64(j.state.Len()))
		}
	}
}

// String implements fmt.Stringer for suture logging.
func (j *Janitor) String() string {
	return "session-janitor"
}
