// Jellyboxd - Jellyfin to Letterboxd Watch Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jellyboxd

package models

// ProgressEvent is one normalized playback progress notification.
// It is ephemeral: the tracker reads it and never retains it.
type ProgressEvent struct {
	Viewer        string
	Title         string
	Year          int // 0 when unknown
	PositionTicks int64
	DurationTicks int64

	// Optional filter inputs; empty means unknown and never filters.
	NotificationType string
	ItemType         string
}

// Percent returns the watched percentage, clamped to [0, inf).
// A non-positive duration yields 0.
func (e ProgressEvent) Percent() float64 {
	if e.DurationTicks <= 0 {
		return 0
	}
	p := float64(e.PositionTicks) / float64(e.DurationTicks) * 100
	if p < 0 {
		return 0
	}
	return p
}

// IsPlayback reports whether the notification is a playback event.
// An empty NotificationType counts as playback, since minimal webhook
// templates often omit it.
func (e ProgressEvent) IsPlayback() bool {
	switch e.NotificationType {
	case "", NotificationPlaybackStart, NotificationPlaybackProgress, NotificationPlaybackStop:
		return true
	default:
		return false
	}
}

// Key returns the viewing-session identity of the event.
func (e ProgressEvent) Key() SessionKey {
	return SessionKey{Viewer: e.Viewer, Title: e.Title}
}

// SessionKey identifies one viewing session: one viewer watching one title.
type SessionKey struct {
	Viewer string
	Title  string
}

// String renders the key for logs.
func (k SessionKey) String() string {
	return k.Viewer + "_" + k.Title
}
