// Jellyboxd - Jellyfin to Letterboxd Watch Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jellyboxd

// Package tracker turns a noisy stream of Jellyfin progress events into a
// single fire-once trigger per viewing session.
//
// Each (viewer, title) key is a two-state machine:
//
//	UNHANDLED --percent >= fire threshold--> HANDLED   (returns FIRE once)
//	HANDLED   --percent <  restart floor--> UNHANDLED  (returns IGNORE, re-armed)
//
// Percentages between the floor and the threshold never change state, so
// seeking around near the end of a film cannot trigger twice.
package tracker

import (
	"strings"
	"time"

	"github.com/tomtom215/jellyboxd/internal/config"
	"github.com/tomtom215/jellyboxd/internal/metrics"
	"github.com/tomtom215/jellyboxd/internal/models"
)

// Decision is the tracker's verdict for one progress event.
type Decision int

const (
	// Ignore means nothing to do. Re-arming also returns Ignore.
	Ignore Decision = iota
	// Suppress means the session is already handled.
	Suppress
	// Fire means a mark-watched job must be dispatched, exactly once.
	Fire
)

// String returns the lowercase decision name used in responses and metrics.
func (d Decision) String() string {
	switch d {
	case Fire:
		return "fire"
	case Suppress:
		return "suppress"
	default:
		return "ignore"
	}
}

// Tracker decides FIRE, SUPPRESS or IGNORE for progress events.
type Tracker struct {
	fireThreshold float64
	restartFloor  float64
	itemTypes     map[string]struct{}

	state *SessionState
	now   func() time.Time
}

// New creates a Tracker with its own SessionState.
func New(cfg config.TrackerConfig) *Tracker {
	state := NewSessionState(cfg.MaxSessions, cfg.SessionTTL)
	state.OnEvict(func(reason EvictReason) {
		metrics.SessionEvictions.WithLabelValues(string(reason)).Inc()
	})

	itemTypes := make(map[string]struct{}, len(cfg.ItemTypes))
	for _, t := range cfg.ItemTypes {
		itemTypes[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}

	return &Tracker{
		fireThreshold: cfg.FireThreshold,
		restartFloor:  cfg.RestartFloor,
		itemTypes:     itemTypes,
		state:         state,
		now:           time.Now,
	}
}

// State returns the tracker's session state, for the janitor and status reporting.
func (t *Tracker) State() *SessionState {
	return t.state
}

// Decide applies one progress event to the session state.
//
// Events that are not playback notifications, or whose item type is not
// tracked, are ignored without touching the state.
func (t *Tracker) Decide(event models.ProgressEvent) Decision {
	if reason, filtered := t.filter(event); filtered {
		metrics.TrackerFiltered.WithLabelValues(reason).Inc()
		return t.record(Ignore)
	}

	key := event.Key()
	now := t.now()
	percent := event.Percent()

	switch {
	case percent >= t.fireThreshold:
		if t.state.MarkHandled(key, now) {
			return t.record(Fire)
		}
		return t.record(Suppress)

	case percent < t.restartFloor:
		if t.state.Rearm(key) {
			metrics.TrackerRearms.Inc()
		}
		return t.record(Ignore)

	default:
		t.state.Touch(key, now)
		return t.record(Ignore)
	}
}

func (t *Tracker) filter(event models.ProgressEvent) (string, bool) {
	if !event.IsPlayback() {
		return "notification_type", true
	}
	if event.ItemType != "" && len(t.itemTypes) > 0 {
		if _, ok := t.itemTypes[strings.ToLower(event.ItemType)]; !ok {
			return "item_type", true
		}
	}
	return "", false
}

func (t *Tracker) record(d Decision) Decision {
	metrics.TrackerDecisions.WithLabelValues(d.String()).Inc()
	metrics.TrackedSessions.Set(float64(t.state.Len()))
	return d
}
