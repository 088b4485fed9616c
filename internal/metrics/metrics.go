// Jellyboxd - Jellyfin to Letterboxd Watch Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jellyboxd

package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for:
// - HTTP request latency and throughput
// - Webhook ingestion and tracker decisions
// - Automation runs, steps and the serialization gate
// - Background dispatch and circuit breaker state

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Webhook Metrics
	WebhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jellyboxd_webhook_events_total",
			Help: "Total number of inbound webhook calls by result",
		},
		[]string{"result"}, // "accepted", "malformed", "too_large", "unauthorized", "rate_limited"
	)

	// Tracker Metrics
	TrackerDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jellyboxd_tracker_decisions_total",
			Help: "Total number of tracker decisions",
		},
		[]string{"decision"}, // "fire", "suppress", "ignore"
	)

	TrackerFiltered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jellyboxd_tracker_filtered_total",
			Help: "Events ignored before reaching the state machine",
		},
		[]string{"reason"}, // "notification_type", "item_type"
	)

	TrackerRearms = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jellyboxd_tracker_rearms_total",
			Help: "Handled sessions re-armed by dropping below the restart floor",
		},
	)

	TrackedSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jellyboxd_tracked_sessions",
			Help: "Current number of handled viewing sessions",
		},
	)

	SessionEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jellyboxd_session_evictions_total",
			Help: "Handled sessions dropped by the bound",
		},
		[]string{"reason"}, // "capacity", "expired"
	)

	// Credential Metrics
	UnmappedViewers = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jellyboxd_unmapped_viewers_total",
			Help: "FIRE decisions for viewers without Letterboxd credentials",
		},
	)

	CredentialReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jellyboxd_credential_reloads_total",
			Help: "Credential file reload attempts",
		},
		[]string{"result"}, // "success", "failure"
	)

	CredentialEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jellyboxd_credential_entries",
			Help: "Viewers currently mapped by the credentials file",
		},
	)

	// Dispatch Metrics
	DispatchSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jellyboxd_dispatch_submitted_total",
			Help: "Automation jobs accepted for background execution",
		},
	)

	DispatchRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jellyboxd_dispatch_rejected_total",
			Help: "Automation jobs rejected because the dispatcher was closed",
		},
	)

	DispatchInflight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jellyboxd_dispatch_inflight",
			Help: "Automation jobs waiting for or holding the browser gate",
		},
	)

	DispatchPanics = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jellyboxd_dispatch_panics_total",
			Help: "Automation jobs that panicked and were recovered",
		},
	)

	DispatchAbandoned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jellyboxd_dispatch_abandoned_total",
			Help: "Shutdowns that gave up waiting for in-flight jobs",
		},
	)

	// Automation Metrics
	AutomationRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jellyboxd_automation_runs_total",
			Help: "Completed automation runs by outcome",
		},
		[]string{"outcome"},
	)

	AutomationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "jellyboxd_automation_duration_seconds",
			Help:    "Wall time of automation runs, excluding gate wait",
			Buckets: []float64{1, 2.5, 5, 10, 20, 30, 45, 60, 90, 120, 180},
		},
	)

	AutomationStepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jellyboxd_automation_step_duration_seconds",
			Help:    "Duration of each automation step",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{"step"}, // "launch", "login", "search", "select", "mark"
	)

	AutomationGateWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "jellyboxd_automation_gate_wait_seconds",
			Help:    "Time jobs spend queued for the browser gate",
			Buckets: []float64{0.01, 0.1, 1, 5, 15, 30, 60, 120, 300},
		},
	)

	AutomationSnapshots = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jellyboxd_automation_snapshots_total",
			Help: "Diagnostic page snapshots by result",
		},
		[]string{"result"}, // "saved", "failed"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Application Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
		func() float64 { return time.Since(processStart).Seconds() },
	)
)

var processStart = time.Now()

// SetAppInfo publishes the build version.
func SetAppInfo(version string) {
	AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordAutomationRun records the outcome and duration of one automation run.
func RecordAutomationRun(outcome string, duration time.Duration) {
	AutomationRuns.WithLabelValues(outcome).Inc()
	AutomationDuration.Observe(duration.Seconds())
}

// RecordStep records the duration of one automation step.
func RecordStep(step string, duration time.Duration) {
	AutomationStepDuration.WithLabelValues(step).Observe(duration.Seconds())
}

// breakerStateValue maps a breaker state name to the gauge encoding.
func breakerStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}

// RecordBreakerTransition records a circuit breaker state change.
func RecordBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
}
