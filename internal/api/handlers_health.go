// Jellyboxd - Jellyfin to Letterboxd Watch Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jellyboxd

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/jellyboxd/internal/models"
)

// HealthLive is the Kubernetes-style liveness probe. It only proves the
// process is serving HTTP.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.HealthResponse{Status: models.StatusOK})
}

// HealthReady reports whether new automation jobs are being accepted.
// Once shutdown has begun it returns 503 so load balancers stop routing
// webhooks here while in-flight jobs drain.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if h.dispatcher.Closed() {
		respondJSON(w, http.StatusServiceUnavailable, &models.HealthResponse{
			Status: models.StatusError,
			Reason: "shutting down",
		})
		return
	}
	respondJSON(w, http.StatusOK, &models.HealthResponse{Status: models.StatusOK})
}

// Status summarizes runtime state.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	breakerState := "disabled"
	if h.breaker != nil {
		breakerState = h.breaker.BreakerState()
	}

	respondJSON(w, http.StatusOK, &models.StatusResponse{
		Status:          models.StatusOK,
		Version:         h.version,
		UptimeSeconds:   int64(time.Since(h.startTime).Seconds()),
		TrackedSessions: h.tracker.State().Len(),
		InflightJobs:    h.dispatcher.Inflight(),
		BreakerState:    breakerState,
		AcceptingJobs:   !h.dispatcher.Closed(),
		Timestamp:       time.Now().UTC(),
	})
}
