// Jellyboxd - Jellyfin to Letterboxd Watch Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jellyboxd

package config

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from defaults, an optional
// YAML file and environment variables.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml) for persistent settings
//  3. Environment Variables: Override any setting via environment variables
//
// Configuration Categories:
//
//  1. Ingestion:
//     - Server: HTTP listener and timeouts
//     - Webhook: Route, shared secret, rate limit and body cap
//
//  2. Core:
//     - Tracker: Fire threshold, restart floor, item filter and session bound
//     - Automation: Browser launch, step timeouts, circuit breaker, drain
//     - Site: Letterboxd URLs and selectors driven by the automation script
//     - Credentials: Viewer to Letterboxd account mapping
//
//  3. Operations:
//     - Logging: Level, format and optional rotating file
//     - Supervisor: Restart backoff for long-running services
//
// Config is immutable after LoadWithKoanf() and safe for concurrent reads.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Webhook     WebhookConfig     `koanf:"webhook"`
	Tracker     TrackerConfig     `koanf:"tracker"`
	Automation  AutomationConfig  `koanf:"automation"`
	Site        SiteConfig        `koanf:"site"`
	Credentials CredentialsConfig `koanf:"credentials"`
	Logging     LoggingConfig     `koanf:"logging"`
	Supervisor  SupervisorConfig  `koanf:"supervisor"`
}

// ServerConfig holds HTTP server settings.
//
// Environment Variables:
//   - HTTP_HOST: Bind address (default: 0.0.0.0)
//   - HTTP_PORT: Listen port (default: 5000)
//   - HTTP_SHUTDOWN_TIMEOUT: Graceful shutdown budget (default: 10s)
type ServerConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout     time.Duration `koanf:"idle_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// WebhookConfig controls the inbound Jellyfin webhook route.
//
// Environment Variables:
//   - WEBHOOK_PATH: Route path (default: /webhook)
//   - WEBHOOK_SECRET: Shared secret expected in X-Webhook-Secret (default: none)
//   - RATE_LIMIT_REQUESTS / RATE_LIMIT_WINDOW / DISABLE_RATE_LIMIT
type WebhookConfig struct {
	Path string `koanf:"path" validate:"required,urlpath"`

	// Secret, when non-empty, must match the X-Webhook-Secret header.
	Secret string `koanf:"secret"`

	// MaxBodyBytes caps the request body. Jellyfin payloads are a few KB.
	MaxBodyBytes int64 `koanf:"max_body_bytes" validate:"gte=1024"`

	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"gte=1"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// TrackerConfig holds the watch-state decision parameters.
//
// Environment Variables:
//   - WATCH_THRESHOLD: Percent at which a title counts as watched (default: 85)
//   - RESTART_FLOOR: Percent below which a session re-arms (default: 5)
//   - ITEM_TYPES: Comma-separated Jellyfin item types to track (default: Movie)
type TrackerConfig struct {
	FireThreshold float64 `koanf:"fire_threshold" validate:"gt=0,lte=100"`
	RestartFloor  float64 `koanf:"restart_floor" validate:"gte=0,lt=100"`

	// ItemTypes filters events whose ItemType is set. Empty means track all.
	ItemTypes []string `koanf:"item_types"`

	// MaxSessions bounds the handled-session set (LRU by last-seen time).
	MaxSessions int `koanf:"max_sessions" validate:"gte=1"`

	// SessionTTL expires sessions that have not been seen for this long.
	SessionTTL time.Duration `koanf:"session_ttl" validate:"gt=0"`

	// CleanupInterval is how often the janitor prunes expired sessions.
	CleanupInterval time.Duration `koanf:"cleanup_interval" validate:"gt=0"`
}

// AutomationConfig controls the headless browser runs against Letterboxd.
type AutomationConfig struct {
	// RemoteURL connects to an already running Chrome DevTools endpoint
	// (e.g. ws://chrome:9222) instead of launching a local browser.
	RemoteURL string `koanf:"remote_url" validate:"omitempty,url"`

	// ExecPath overrides the Chrome binary used for local launches.
	ExecPath string `koanf:"exec_path"`

	Headless     bool   `koanf:"headless"`
	UserAgent    string `koanf:"user_agent"`
	WindowWidth  int    `koanf:"window_width" validate:"gte=320"`
	WindowHeight int    `koanf:"window_height" validate:"gte=240"`

	// SnapshotDir receives full-page PNGs captured on unexpected failures.
	// Empty disables snapshots.
	SnapshotDir string `koanf:"snapshot_dir"`

	// DrainTimeout bounds how long shutdown waits for in-flight jobs.
	DrainTimeout time.Duration `koanf:"drain_timeout" validate:"gt=0"`

	Timeouts StepTimeouts  `koanf:"timeouts"`
	Breaker  BreakerConfig `koanf:"breaker"`
}

// StepTimeouts bounds every wait in the automation script so the
// serialization gate is always eventually released.
type StepTimeouts struct {
	Navigation    time.Duration `koanf:"navigation" validate:"gt=0"`
	CookieBanner  time.Duration `koanf:"cookie_banner" validate:"gt=0"`
	LoginFields   time.Duration `koanf:"login_fields" validate:"gt=0"`
	LoginRedirect time.Duration `koanf:"login_redirect" validate:"gt=0"`
	SearchResults time.Duration `koanf:"search_results" validate:"gt=0"`
	DetailPage    time.Duration `koanf:"detail_page" validate:"gt=0"`
	Action        time.Duration `koanf:"action" validate:"gt=0"`
	Settle        time.Duration `koanf:"settle" validate:"gte=0"`
}

// BreakerConfig configures the circuit breaker that stops launching browsers
// while Letterboxd is consistently failing.
type BreakerConfig struct {
	Enabled bool `koanf:"enabled"`

	// FailureThreshold is the number of consecutive failed runs that opens the breaker.
	FailureThreshold uint32 `koanf:"failure_threshold" validate:"gte=1"`

	// Timeout is how long the breaker stays open before allowing a probe run.
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`

	// HalfOpenRequests is the number of probe runs allowed while half-open.
	HalfOpenRequests uint32 `koanf:"half_open_requests" validate:"gte=1"`
}

// SiteConfig holds the Letterboxd URLs and selectors used by the script.
// Defaults match the live site; override them here if the markup changes.
type SiteConfig struct {
	SignInURL      string `koanf:"sign_in_url" validate:"required,url"`
	HomeURL        string `koanf:"home_url" validate:"required,url"`
	SearchURL      string `koanf:"search_url" validate:"required,url"`
	CookieBanner   string `koanf:"cookie_banner" validate:"required"`
	UsernameField  string `koanf:"username_field" validate:"required"`
	PasswordField  string `koanf:"password_field" validate:"required"`
	SearchResult   string `koanf:"search_result" validate:"required"`
	DetailRegion   string `koanf:"detail_region" validate:"required"`
	WatchedControl string `koanf:"watched_control" validate:"required"`
	WatchedMarker  string `koanf:"watched_marker" validate:"required"`
	WatchText      string `koanf:"watch_text" validate:"required"`
}

// CredentialsConfig configures the viewer to Letterboxd account mapping.
//
// Environment Variables:
//   - LETTERBOXD_USER / LETTERBOXD_PASS: Single-user credentials for every viewer
//   - CREDENTIALS_FILE: YAML file mapping viewers to accounts
//   - CREDENTIALS_ENCRYPTION_KEY: Key for "enc:" password values
type CredentialsConfig struct {
	Username string `koanf:"username"`
	Password string `koanf:"password"`

	File  string `koanf:"file"`
	Watch bool   `koanf:"watch"`

	// EncryptionKey decrypts passwords written as "enc:<base64>".
	EncryptionKey string `koanf:"encryption_key"`
}

// HasStatic reports whether single-user credentials are configured.
func (c CredentialsConfig) HasStatic() bool {
	return c.Username != "" && c.Password != ""
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level" validate:"oneof=trace debug info warn error"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`

	// Caller includes caller file and line number in logs.
	// Default: false
	Caller bool `koanf:"caller"`

	// File duplicates log output into a rotating file when set.
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `koanf:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `koanf:"max_age_days" validate:"gte=0"`
}

// SupervisorConfig tunes suture restart behaviour.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold" validate:"gt=0"`
	FailureDecay     float64       `koanf:"failure_decay" validate:"gt=0"`
	FailureBackoff   time.Duration `koanf:"failure_backoff" validate:"gt=0"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// String renders a short summary safe for startup logs (no secrets).
func (c *Config) String() string {
	return fmt.Sprintf("listen=%s webhook=%s fire=%.0f%% floor=%.0f%% breaker=%t",
		c.Server.Addr(), c.Webhook.Path, c.Tracker.FireThreshold, c.Tracker.RestartFloor,
		c.Automation.Breaker.Enabled)
}
