// Jellyboxd - Jellyfin to Letterboxd Watch Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jellyboxd

package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/jellyboxd/internal/logging"
	"github.com/tomtom215/jellyboxd/internal/models"
)

// respondJSON sends a JSON response with proper headers
func respondJSON(w http.ResponseWriter, status int, response any) {
	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondError sends a webhook-shaped error response. err is logged, message
// is what the caller sees.
func respondError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	if err != nil {
		// Sanitize error output to prevent log injection attacks
		logging.Ctx(r.Context()).Warn().
			Int("status", status).
			Str("error", logging.Sanitize(err.Error())).
			Msg("API Error")
	}

	respondJSON(w, status, &models.WebhookResponse{
		Status: models.StatusError,
		Error:  message,
	})
}
