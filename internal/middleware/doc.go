// Jellyboxd - Jellyfin to Letterboxd Watch Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jellyboxd

/*
Package middleware provides HTTP middleware components for the application.

Key Components:

  - Request ID: UUID-based request tracking; also seeds the correlation ID
    that follows a dispatched automation job through the logs
  - Prometheus Metrics: HTTP request/response instrumentation

Both are written as func(http.HandlerFunc) http.HandlerFunc and adapted to
chi's func(http.Handler) http.Handler by the api package:

	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chiMiddleware(middleware.PrometheusMetrics))

Metrics Recorded:

  - api_requests_total{method, endpoint, status_code}
  - api_request_duration_seconds{method, endpoint}
  - api_active_requests
*/
package middleware
