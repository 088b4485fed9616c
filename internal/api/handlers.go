// Jellyboxd - Jellyfin to Letterboxd Watch Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jellyboxd

package api

import (
	"context"
	"time"

	"github.com/tomtom215/jellyboxd/internal/automation"
	"github.com/tomtom215/jellyboxd/internal/config"
	"github.com/tomtom215/jellyboxd/internal/credentials"
	"github.com/tomtom215/jellyboxd/internal/tracker"
)

// JobDispatcher schedules automation jobs without waiting for them.
// Implemented by *dispatch.Dispatcher.
type JobDispatcher interface {
	Submit(ctx context.Context, job automation.Job) error
	Inflight() int64
	Closed() bool
}

// BreakerReporter exposes the automation circuit breaker state.
// Implemented by *automation.Orchestrator.
type BreakerReporter interface {
	BreakerState() string
}

// Handler serves the webhook, health and status endpoints.
type Handler struct {
	config     *config.Config
	tracker    *tracker.Tracker
	directory  credentials.Directory
	dispatcher JobDispatcher
	breaker    BreakerReporter
	startTime  time.Time
	version    string
}

// NewHandler creates a new API handler with all required dependencies.
// breaker may be nil, in which case status reports "disabled".
func NewHandler(cfg *config.Config, tr *tracker.Tracker, directory credentials.Directory,
	dispatcher JobDispatcher, breaker BreakerReporter, version string) *Handler {
	return &Handler{
		config:     cfg,
		tracker:    tr,
		directory:  directory,
		dispatcher: dispatcher,
		breaker:    breaker,
		startTime:  time.Now(),
		version:    version,
	}
}
