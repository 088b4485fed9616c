// Jellyboxd - Jellyfin to Letterboxd Watch Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jellyboxd

/*
Package metrics provides Prometheus metrics for Jellyboxd.

All collectors are registered on the default registry through promauto and
exposed at /metrics:

	curl http://localhost:5000/metrics

# Available Metrics

Ingestion:
  - api_requests_total, api_request_duration_seconds, api_active_requests
  - api_rate_limit_hits_total
  - jellyboxd_webhook_events_total{result}

Tracker:
  - jellyboxd_tracker_decisions_total{decision}
  - jellyboxd_tracker_filtered_total{reason}
  - jellyboxd_tracker_rearms_total
  - jellyboxd_tracked_sessions
  - jellyboxd_session_evictions_total{reason}

Automation:
  - jellyboxd_dispatch_submitted_total, jellyboxd_dispatch_inflight
  - jellyboxd_automation_runs_total{outcome}
  - jellyboxd_automation_duration_seconds
  - jellyboxd_automation_step_duration_seconds{step}
  - jellyboxd_automation_gate_wait_seconds
  - circuit_breaker_state{name}, circuit_breaker_state_transitions_total

# Example Queries

Runs that did not end in a watched diary entry over the last day:

	sum by (outcome) (increase(jellyboxd_automation_runs_total{outcome!~"SUCCESS|ALREADY_WATCHED"}[1d]))
*/
package metrics
