// Jellyboxd - Jellyfin to Letterboxd Watch Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jellyboxd

package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/jellyboxd/internal/automation"
	"github.com/tomtom215/jellyboxd/internal/logging"
	"github.com/tomtom215/jellyboxd/internal/metrics"
	"github.com/tomtom215/jellyboxd/internal/models"
	"github.com/tomtom215/jellyboxd/internal/tracker"
)

// JellyfinWebhook handles progress notifications from jellyfin-plugin-webhook.
// POST <webhook.path>
//
// Webhook Setup:
//  1. Install the Webhook plugin in Jellyfin
//  2. Add a Generic Destination pointing at http://jellyboxd:5000/webhook
//  3. Enable "Playback Progress" and send NotificationUsername, Name,
//     ProductionYear, PlaybackPositionTicks and RunTimeTicks
//  4. Optionally add an X-Webhook-Secret header matching WEBHOOK_SECRET
//
// The response carries the tracker decision only. On FIRE the automation job
// is dispatched in the background and its outcome is logged, never returned.
func (h *Handler) JellyfinWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.Webhook.MaxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			metrics.WebhookEvents.WithLabelValues("too_large").Inc()
			respondError(w, r, http.StatusRequestEntityTooLarge, "request body too large", err)
			return
		}
		metrics.WebhookEvents.WithLabelValues("malformed").Inc()
		respondError(w, r, http.StatusBadRequest, "failed to read request body", err)
		return
	}

	var payload models.JellyfinWebhook
	if err := json.Unmarshal(body, &payload); err != nil {
		metrics.WebhookEvents.WithLabelValues("malformed").Inc()
		respondError(w, r, http.StatusBadRequest, "invalid JSON payload", err)
		return
	}

	event, err := payload.ProgressEvent()
	if err != nil {
		metrics.WebhookEvents.WithLabelValues("malformed").Inc()
		respondError(w, r, http.StatusBadRequest, err.Error(), err)
		return
	}

	decision := h.tracker.Decide(event)
	metrics.WebhookEvents.WithLabelValues("accepted").Inc()

	log := logging.Ctx(r.Context())
	log.Debug().
		Str("viewer", logging.Sanitize(event.Viewer)).
		Str("title", logging.Sanitize(event.Title)).
		Float64("percent", event.Percent()).
		Str("decision", decision.String()).
		Msg("Progress event")

	if decision == tracker.Fire {
		h.dispatch(r.Context(), event)
	}

	respondJSON(w, http.StatusOK, &models.WebhookResponse{
		Status:   models.StatusOK,
		Decision: decision.String(),
	})
}

// dispatch resolves credentials and submits the mark-watched job. The session
// stays handled whatever happens here; a viewer without credentials is not
// retried on later events of the same session.
func (h *Handler) dispatch(ctx context.Context, event models.ProgressEvent) {
	log := logging.Ctx(ctx)

	creds, ok := h.directory.Lookup(event.Viewer)
	if !ok {
		metrics.UnmappedViewers.Inc()
		log.Warn().
			Str("viewer", logging.Sanitize(event.Viewer)).
			Str("title", logging.Sanitize(event.Title)).
			Msg("No Letterboxd credentials for viewer, skipping")
		return
	}

	job := automation.NewJob(event, creds)
	if err := h.dispatcher.Submit(ctx, job); err != nil {
		log.Error().Err(err).
			Str("job_id", job.ID).
			Str("title", logging.Sanitize(job.Title)).
			Msg("Failed to dispatch automation job")
		return
	}

	log.Info().
		Str("job_id", job.ID).
		Str("viewer", logging.Sanitize(job.Viewer)).
		Str("query", logging.Sanitize(job.Query())).
		Msg("Dispatched mark-watched job")
}
