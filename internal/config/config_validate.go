// Jellyboxd - Jellyfin to Letterboxd Watch Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jellyboxd

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tomtom215/jellyboxd/internal/validation"
)

// EncryptedPrefix marks a password value that must be decrypted with
// credentials.encryption_key before use.
const EncryptedPrefix = "enc:"

// ErrNoCredentials is returned when neither single-user credentials nor a
// credentials file are configured.
var ErrNoCredentials = errors.New("no Letterboxd credentials configured: set LETTERBOXD_USER and LETTERBOXD_PASS or CREDENTIALS_FILE")

// Validate checks that required configuration is present and valid.
// Field-level rules come from validate struct tags; the checks below
// cover rules that span fields.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	if err := c.validateTracker(); err != nil {
		return err
	}

	return c.validateCredentials()
}

// validateTracker enforces 0 <= floor < fire so the dead zone between them exists.
func (c *Config) validateTracker() error {
	if c.Tracker.RestartFloor >= c.Tracker.FireThreshold {
		return fmt.Errorf("tracker.restart_floor (%.1f) must be below tracker.fire_threshold (%.1f)",
			c.Tracker.RestartFloor, c.Tracker.FireThreshold)
	}
	return nil
}

func (c *Config) validateCredentials() error {
	cc := c.Credentials

	if (cc.Username == "") != (cc.Password == "") {
		return fmt.Errorf("LETTERBOXD_USER and LETTERBOXD_PASS must be set together")
	}
	if !cc.HasStatic() && cc.File == "" {
		return ErrNoCredentials
	}

	if cc.HasStatic() {
		if containsPlaceholder(cc.Username) || containsPlaceholder(cc.Password) {
			return fmt.Errorf("LETTERBOXD_USER/LETTERBOXD_PASS contain a placeholder value; set real credentials")
		}
		if strings.HasPrefix(cc.Password, EncryptedPrefix) && cc.EncryptionKey == "" {
			return fmt.Errorf("LETTERBOXD_PASS is encrypted but CREDENTIALS_ENCRYPTION_KEY is not set")
		}
	}

	return nil
}

// placeholderPatterns defines common placeholder patterns that indicate
// the user forgot to set a real value.
var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_USERID",
	"YOUR_USERNAME",
	"YOUR_PASSWORD",
	"PLACEHOLDER",
	"EXAMPLE",
}

// containsPlaceholder checks if a value contains common placeholder patterns.
func containsPlaceholder(value string) bool {
	return containsAnyPattern(strings.ToUpper(value), placeholderPatterns)
}

// containsAnyPattern checks if a string contains any of the provided patterns
func containsAnyPattern(s string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.Contains(s, pattern) {
			return true
		}
	}
	return false
}
