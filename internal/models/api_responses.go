// Jellyboxd - Jellyfin to Letterboxd Watch Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jellyboxd

package models

import (
	"time"
)

// Response status values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// WebhookResponse is the body returned to Jellyfin for every webhook call.
//
// The decision reflects the tracker outcome only; automation results are
// never known at response time.
//
// Example successful response:
//
//	{"status": "ok", "decision": "fire"}
//
// Example error response:
//
//	{"status": "error", "error": "NotificationUsername is required"}
type WebhookResponse struct {
	Status   string `json:"status"`
	Decision string `json:"decision,omitempty"`
	Error    string `json:"error,omitempty"`
}

// HealthResponse is returned by the liveness and readiness probes.
type HealthResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// StatusResponse summarizes runtime state for GET /api/v1/status.
//
//	{
//	  "status": "ok",
//	  "version": "1.0.0",
//	  "uptime_seconds": 3600,
//	  "tracked_sessions": 4,
//	  "inflight_jobs": 1,
//	  "breaker_state": "closed",
//	  "accepting_jobs": true,
//	  "timestamp": "2026-10-18T12:00:00Z"
//	}
type StatusResponse struct {
	Status          string    `json:"status"`
	Version         string    `json:"version"`
	UptimeSeconds   int64     `json:"uptime_seconds"`
	TrackedSessions int       `json:"tracked_sessions"`
	InflightJobs    int64     `json:"inflight_jobs"`
	BreakerState    string    `json:"breaker_state"`
	AcceptingJobs   bool      `json:"accepting_jobs"`
	Timestamp       time.Time `json:"timestamp"`
}
