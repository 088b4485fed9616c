// Jellyboxd - Jellyfin to Letterboxd Watch Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jellyboxd

/*
Package api provides the HTTP layer of Jellyboxd: the Jellyfin webhook
gateway plus health, status and metrics endpoints.

Key Components:

  - Router: chi route table and middleware stack
  - Handler: request handlers wired to the tracker, credential directory
    and automation dispatcher
  - ChiMiddleware: httprate rate limiting and the shared-secret check
  - Response helpers: JSON encoding with goccy/go-json

Routes:

	POST <webhook.path>   Jellyfin progress webhook (default /webhook)
	GET  /health/live     liveness probe
	GET  /health/ready    readiness probe, 503 once shutdown has begun
	GET  /api/v1/status   tracker, dispatcher and breaker summary
	GET  /metrics         Prometheus exposition

Webhook Flow:

The handler decodes the payload, asks the tracker for a decision and, on
FIRE, resolves the viewer's Letterboxd credentials and hands a job to the
dispatcher. The response is written as soon as the decision is known:

	{"status": "ok", "decision": "fire"}

Automation results are never reported to Jellyfin and never turn into a
5xx. Malformed payloads get a 400 and leave the tracker untouched.

Usage Example:

	handler := api.NewHandler(cfg, tr, directory, dispatcher, orchestrator, version)
	router := api.NewRouter(handler, api.ChiMiddlewareConfigFromWebhook(cfg.Webhook))
	srv := &http.Server{Addr: cfg.Server.Addr(), Handler: router.SetupChi()}
*/
package api
