// Jellyboxd - Jellyfin to Letterboxd Watch Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jellyboxd

package models

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"
)

// ============================================================================
// Jellyfin Webhook Models (requires jellyfin-plugin-webhook)
// ============================================================================

var (
	// ErrMissingViewer is returned when NotificationUsername is absent or blank.
	ErrMissingViewer = errors.New("NotificationUsername is required")

	// ErrMissingTitle is returned when Name is absent or blank.
	ErrMissingTitle = errors.New("Name is required")

	// ErrInvalidTicks is returned when a tick field is not a non-negative int64.
	ErrInvalidTicks = errors.New("invalid tick value")
)

// Playback notification types emitted by jellyfin-plugin-webhook.
const (
	NotificationPlaybackStart    = "PlaybackStart"
	NotificationPlaybackProgress = "PlaybackProgress"
	NotificationPlaybackStop     = "PlaybackStop"
)

// JellyfinWebhook represents a webhook payload from Jellyfin.
// Requires: https://github.com/jellyfin/jellyfin-plugin-webhook
//
// Numeric fields are typed any because the plugin's template decides whether
// they are rendered as numbers or strings; ProgressEvent() normalizes them.
type JellyfinWebhook struct {
	// Event information
	NotificationType     string `json:"NotificationType,omitempty"` // "PlaybackStart", "PlaybackProgress", "PlaybackStop"
	NotificationUsername string `json:"NotificationUsername"`       // Jellyfin user that triggered the event

	// Item information
	Name           string `json:"Name"`
	ItemType       string `json:"ItemType,omitempty"` // "Movie", "Episode", "Audio"
	ItemID         string `json:"ItemId,omitempty"`
	ProductionYear any    `json:"ProductionYear,omitempty"`

	// Playback information
	PlaybackPositionTicks any `json:"PlaybackPositionTicks,omitempty"`
	RunTimeTicks          any `json:"RunTimeTicks,omitempty"`

	// Informational only
	UserID     string `json:"UserId,omitempty"`
	DeviceName string `json:"DeviceName,omitempty"`
	ClientName string `json:"ClientName,omitempty"`
}

// ProgressEvent validates the payload and converts it to a ProgressEvent.
//
// Defaults follow the webhook plugin's behaviour for partial payloads:
// a missing position is 0 and a missing runtime is 1, so a bare event
// yields 0% instead of a division by zero. A year that cannot be parsed
// is dropped rather than rejected since it only refines the search.
func (w *JellyfinWebhook) ProgressEvent() (ProgressEvent, error) {
	viewer := strings.TrimSpace(w.NotificationUsername)
	if viewer == "" {
		return ProgressEvent{}, ErrMissingViewer
	}
	title := strings.TrimSpace(w.Name)
	if title == "" {
		return ProgressEvent{}, ErrMissingTitle
	}

	position, err := ticks(w.PlaybackPositionTicks, 0)
	if err != nil {
		return ProgressEvent{}, fmt.Errorf("PlaybackPositionTicks: %w", err)
	}
	duration, err := ticks(w.RunTimeTicks, 1)
	if err != nil {
		return ProgressEvent{}, fmt.Errorf("RunTimeTicks: %w", err)
	}

	year := 0
	if w.ProductionYear != nil {
		if y, yerr := cast.ToIntE(w.ProductionYear); yerr == nil && y > 0 {
			year = y
		}
	}

	return ProgressEvent{
		Viewer:           viewer,
		Title:            title,
		Year:             year,
		PositionTicks:    position,
		DurationTicks:    duration,
		NotificationType: w.NotificationType,
		ItemType:         w.ItemType,
	}, nil
}

// ticks converts a lenient JSON value to int64, returning def when absent.
func ticks(v any, def int64) (int64, error) {
	if v == nil {
		return def, nil
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return def, nil
	}
	switch x := v.(type) {
	case bool:
		return 0, fmt.Errorf("%w: %v", ErrInvalidTicks, v)
	case float64:
		// JSON numbers arrive as float64; cast would wrap values beyond int64.
		if x != math.Trunc(x) || x < math.MinInt64 || x >= math.MaxInt64 {
			return 0, fmt.Errorf("%w: %v", ErrInvalidTicks, v)
		}
	}
	n, err := cast.ToInt64E(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidTicks, v)
	}
	return n, nil
}
