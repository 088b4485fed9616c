// Jellyboxd - Jellyfin to Letterboxd Watch Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jellyboxd

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

// setMinimalEnv isolates a test from any config file on disk and provides
// the credentials every valid configuration needs.
func setMinimalEnv(t *testing.T) {
	t.Helper()
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("LETTERBOXD_USER", "alice_lb")
	t.Setenv("LETTERBOXD_PASS", "hunter2hunter2")
	t.Chdir(t.TempDir())
}

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 5000 {
		t.Errorf("Server.Port = %d, want 5000", cfg.Server.Port)
	}
	if cfg.Webhook.Path != "/webhook" {
		t.Errorf("Webhook.Path = %q, want /webhook", cfg.Webhook.Path)
	}
	if cfg.Webhook.MaxBodyBytes != 1<<20 {
		t.Errorf("Webhook.MaxBodyBytes = %d, want 1MiB", cfg.Webhook.MaxBodyBytes)
	}
	if cfg.Tracker.FireThreshold != 85 {
		t.Errorf("Tracker.FireThreshold = %v, want 85", cfg.Tracker.FireThreshold)
	}
	if cfg.Tracker.RestartFloor != 5 {
		t.Errorf("Tracker.RestartFloor = %v, want 5", cfg.Tracker.RestartFloor)
	}
	if !reflect.DeepEqual(cfg.Tracker.ItemTypes, []string{"Movie"}) {
		t.Errorf("Tracker.ItemTypes = %v, want [Movie]", cfg.Tracker.ItemTypes)
	}
	if cfg.Tracker.MaxSessions != 10000 {
		t.Errorf("Tracker.MaxSessions = %d, want 10000", cfg.Tracker.MaxSessions)
	}
	if cfg.Automation.Timeouts.LoginRedirect != 15*time.Second {
		t.Errorf("Timeouts.LoginRedirect = %v, want 15s", cfg.Automation.Timeouts.LoginRedirect)
	}
	if cfg.Automation.Timeouts.SearchResults != 5*time.Second {
		t.Errorf("Timeouts.SearchResults = %v, want 5s", cfg.Automation.Timeouts.SearchResults)
	}
	if cfg.Automation.Timeouts.CookieBanner != 2*time.Second {
		t.Errorf("Timeouts.CookieBanner = %v, want 2s", cfg.Automation.Timeouts.CookieBanner)
	}
	if !cfg.Automation.Breaker.Enabled {
		t.Error("Automation.Breaker.Enabled should be true by default")
	}
	if cfg.Site.WatchedControl != ".action-watched" {
		t.Errorf("Site.WatchedControl = %q, want .action-watched", cfg.Site.WatchedControl)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"WATCH_THRESHOLD", "tracker.fire_threshold"},
		{"LETTERBOXD_USER", "credentials.username"},
		{"LETTERBOXD_PASS", "credentials.password"},
		{"CREDENTIALS_FILE", "credentials.file"},
		{"HTTP_PORT", "server.port"},
		{"LOG_LEVEL", "logging.level"},
		{"ITEM_TYPES", "tracker.item_types"},
		{"chrome_remote_url", "automation.remote_url"},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := envTransformFunc(tt.input); got != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLoadWithKoanfEnvVars(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("WATCH_THRESHOLD", "90")
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ITEM_TYPES", "Movie, Episode ,")
	t.Setenv("SESSION_TTL", "2h")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Tracker.FireThreshold != 90 {
		t.Errorf("Tracker.FireThreshold = %v, want 90", cfg.Tracker.FireThreshold)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if !reflect.DeepEqual(cfg.Tracker.ItemTypes, []string{"Movie", "Episode"}) {
		t.Errorf("Tracker.ItemTypes = %v, want [Movie Episode]", cfg.Tracker.ItemTypes)
	}
	if cfg.Tracker.SessionTTL != 2*time.Hour {
		t.Errorf("Tracker.SessionTTL = %v, want 2h", cfg.Tracker.SessionTTL)
	}
	if cfg.Credentials.Username != "alice_lb" {
		t.Errorf("Credentials.Username = %q, want alice_lb", cfg.Credentials.Username)
	}

	// Defaults still apply for unset values
	if cfg.Tracker.RestartFloor != 5 {
		t.Errorf("Tracker.RestartFloor = %v, want 5 (default)", cfg.Tracker.RestartFloor)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0 (default)", cfg.Server.Host)
	}
}

func TestLoadWithKoanfConfigFile(t *testing.T) {
	dir := t.TempDir()
	configContent := `
server:
  port: 8888
tracker:
  fire_threshold: 92.5
  item_types: [Movie, Episode]
credentials:
  file: /etc/jellyboxd/credentials.yaml
automation:
  remote_url: ws://chrome:9222
  timeouts:
    login_redirect: 20s
logging:
  level: warn
`
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0o600); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, configPath)
	t.Chdir(dir)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 8888 {
		t.Errorf("Server.Port = %d, want 8888", cfg.Server.Port)
	}
	if cfg.Tracker.FireThreshold != 92.5 {
		t.Errorf("Tracker.FireThreshold = %v, want 92.5", cfg.Tracker.FireThreshold)
	}
	if !reflect.DeepEqual(cfg.Tracker.ItemTypes, []string{"Movie", "Episode"}) {
		t.Errorf("Tracker.ItemTypes = %v, want [Movie Episode]", cfg.Tracker.ItemTypes)
	}
	if cfg.Credentials.File != "/etc/jellyboxd/credentials.yaml" {
		t.Errorf("Credentials.File = %q", cfg.Credentials.File)
	}
	if cfg.Automation.RemoteURL != "ws://chrome:9222" {
		t.Errorf("Automation.RemoteURL = %q", cfg.Automation.RemoteURL)
	}
	if cfg.Automation.Timeouts.LoginRedirect != 20*time.Second {
		t.Errorf("Timeouts.LoginRedirect = %v, want 20s", cfg.Automation.Timeouts.LoginRedirect)
	}
	// Sibling defaults inside a partially overridden section survive
	if cfg.Automation.Timeouts.DetailPage != 10*time.Second {
		t.Errorf("Timeouts.DetailPage = %v, want 10s (default)", cfg.Automation.Timeouts.DetailPage)
	}
}

func TestLoadWithKoanfEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := "tracker:\n  fire_threshold: 70\nlogging:\n  level: warn\n"
	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}
	setMinimalEnv(t)
	t.Setenv(ConfigPathEnvVar, configPath)
	t.Setenv("WATCH_THRESHOLD", "95")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Tracker.FireThreshold != 95 {
		t.Errorf("Tracker.FireThreshold = %v, want 95 (env wins)", cfg.Tracker.FireThreshold)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn (from file)", cfg.Logging.Level)
	}
}

func TestLoadWithKoanfValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "threshold above 100",
			env:     map[string]string{"WATCH_THRESHOLD": "150"},
			wantErr: "tracker.fire_threshold",
		},
		{
			name:    "floor not below fire",
			env:     map[string]string{"WATCH_THRESHOLD": "50", "RESTART_FLOOR": "50"},
			wantErr: "must be below",
		},
		{
			name:    "bad log level",
			env:     map[string]string{"LOG_LEVEL": "verbose"},
			wantErr: "logging.level",
		},
		{
			name:    "relative webhook path",
			env:     map[string]string{"WEBHOOK_PATH": "hook"},
			wantErr: "webhook.path",
		},
		{
			name:    "placeholder credentials",
			env:     map[string]string{"LETTERBOXD_USER": "YOUR_USERID", "LETTERBOXD_PASS": "YOUR_PASSWORD"},
			wantErr: "placeholder",
		},
		{
			name:    "encrypted password without key",
			env:     map[string]string{"LETTERBOXD_PASS": "enc:AAAA"},
			wantErr: "CREDENTIALS_ENCRYPTION_KEY",
		},
		{
			name:    "no credentials at all",
			env:     map[string]string{"LETTERBOXD_USER": "", "LETTERBOXD_PASS": ""},
			wantErr: "no Letterboxd credentials",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setMinimalEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadWithKoanf()
			if err == nil {
				t.Fatalf("LoadWithKoanf() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadWithKoanf() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Run("env var path wins", func(t *testing.T) {
		dir := t.TempDir()
		p := filepath.Join(dir, "custom.yaml")
		if err := os.WriteFile(p, []byte("{}"), 0o600); err != nil {
			t.Fatal(err)
		}
		t.Setenv(ConfigPathEnvVar, p)
		if got := findConfigFile(); got != p {
			t.Errorf("findConfigFile() = %q, want %q", got, p)
		}
	})

	t.Run("local config.yaml", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)
		t.Setenv(ConfigPathEnvVar, "")
		if err := os.WriteFile("config.yaml", []byte("{}"), 0o600); err != nil {
			t.Fatal(err)
		}
		if got := findConfigFile(); got != "config.yaml" {
			t.Errorf("findConfigFile() = %q, want config.yaml", got)
		}
	})
}

func TestServerConfigAddr(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 5000}
	if got := s.Addr(); got != "127.0.0.1:5000" {
		t.Errorf("Addr() = %q, want 127.0.0.1:5000", got)
	}
}
