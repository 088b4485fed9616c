// Jellyboxd - Jellyfin to Letterboxd Watch Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jellyboxd

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/jellyboxd/config.yaml",
	"/etc/jellyboxd/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultUserAgent is a desktop Chrome user agent; Letterboxd serves a
// different layout to headless and mobile agents.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5000,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Webhook: WebhookConfig{
			Path:              "/webhook",
			Secret:            "",
			MaxBodyBytes:      1 << 20, // 1 MiB
			RateLimitRequests: 600,     // Jellyfin sends progress every ~10s per stream
			RateLimitWindow:   1 * time.Minute,
			RateLimitDisabled: false,
		},
		Tracker: TrackerConfig{
			FireThreshold:   85,
			RestartFloor:    5,
			ItemTypes:       []string{"Movie"},
			MaxSessions:     10000,
			SessionTTL:      24 * time.Hour,
			CleanupInterval: 10 * time.Minute,
		},
		Automation: AutomationConfig{
			RemoteURL:    "",
			Headless:     true,
			UserAgent:    DefaultUserAgent,
			WindowWidth:  1920,
			WindowHeight: 1080,
			SnapshotDir:  "snapshots",
			DrainTimeout: 2 * time.Minute,
			Timeouts: StepTimeouts{
				Navigation:    30 * time.Second,
				CookieBanner:  2 * time.Second,
				LoginFields:   10 * time.Second,
				LoginRedirect: 15 * time.Second,
				SearchResults: 5 * time.Second,
				DetailPage:    10 * time.Second,
				Action:        5 * time.Second,
				Settle:        2 * time.Second,
			},
			Breaker: BreakerConfig{
				Enabled:          true,
				FailureThreshold: 3,
				Timeout:          10 * time.Minute,
				HalfOpenRequests: 1,
			},
		},
		Site: SiteConfig{
			SignInURL:      "https://letterboxd.com/sign-in/",
			HomeURL:        "https://letterboxd.com/",
			SearchURL:      "https://letterboxd.com/search/",
			CookieBanner:   ".cc-btn",
			UsernameField:  "input[name='username']",
			PasswordField:  "input[name='password']",
			SearchResult:   ".results li .film-poster",
			DetailRegion:   ".sidebar",
			WatchedControl: ".action-watched",
			WatchedMarker:  "-on",
			WatchText:      "Watch",
		},
		Credentials: CredentialsConfig{
			Watch: true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			Caller:     false,
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// WATCH_THRESHOLD -> tracker.fire_threshold
	// LETTERBOXD_USER -> credentials.username
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"tracker.item_types",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars always arrive as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue // unset, or already a slice from YAML/defaults
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps the supported environment variable names (lowercased)
// to koanf config paths. WATCH_THRESHOLD, LETTERBOXD_USER and
// LETTERBOXD_PASS keep the names earlier single-file deployments used.
var envMappings = map[string]string{
	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",

	// Webhook
	"webhook_path":           "webhook.path",
	"webhook_secret":         "webhook.secret",
	"webhook_max_body_bytes": "webhook.max_body_bytes",
	"rate_limit_requests":    "webhook.rate_limit_requests",
	"rate_limit_window":      "webhook.rate_limit_window",
	"disable_rate_limit":     "webhook.rate_limit_disabled",

	// Tracker
	"watch_threshold":          "tracker.fire_threshold",
	"restart_floor":            "tracker.restart_floor",
	"item_types":               "tracker.item_types",
	"max_sessions":             "tracker.max_sessions",
	"session_ttl":              "tracker.session_ttl",
	"session_cleanup_interval": "tracker.cleanup_interval",

	// Automation
	"chrome_remote_url":         "automation.remote_url",
	"chrome_path":               "automation.exec_path",
	"browser_headless":          "automation.headless",
	"browser_user_agent":        "automation.user_agent",
	"snapshot_dir":              "automation.snapshot_dir",
	"automation_drain_timeout":  "automation.drain_timeout",
	"breaker_enabled":           "automation.breaker.enabled",
	"breaker_failure_threshold": "automation.breaker.failure_threshold",
	"breaker_timeout":           "automation.breaker.timeout",

	// Credentials
	"letterboxd_user":            "credentials.username",
	"letterboxd_pass":            "credentials.password",
	"credentials_file":           "credentials.file",
	"credentials_watch":          "credentials.watch",
	"credentials_encryption_key": "credentials.encryption_key",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
	"log_file":   "logging.file",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - WATCH_THRESHOLD -> tracker.fire_threshold
//   - LETTERBOXD_USER -> credentials.username
//   - CREDENTIALS_FILE -> credentials.file
//   - HTTP_PORT -> server.port
//   - LOG_LEVEL -> logging.level
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them
	// This prevents random environment variables from polluting config
	return ""
}
