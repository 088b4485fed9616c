// Jellyboxd - Jellyfin to Letterboxd Watch Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jellyboxd

/*
Package models defines the data structures shared between the HTTP layer,
the session tracker and the automation dispatcher.

Key Components:

  - JellyfinWebhook: Inbound payload from jellyfin-plugin-webhook
  - ProgressEvent: Normalized playback progress, one per webhook
  - SessionKey: (viewer, title) identity of one viewing session
  - WebhookResponse, StatusResponse: JSON response bodies

JellyfinWebhook is deliberately lenient: the webhook plugin renders
user-editable Handlebars templates, so numeric fields arrive as JSON
numbers or as quoted strings depending on the template. ProgressEvent
is strict and carries only validated values.
*/
package models
