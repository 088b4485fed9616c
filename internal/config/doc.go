// Jellyboxd - Jellyfin to Letterboxd Watch Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jellyboxd

/*
Package config provides centralized configuration management for Jellyboxd.

Configuration is layered with Koanf v2: struct defaults, then an optional
YAML file, then environment variables. The YAML file is looked up at
$CONFIG_PATH, ./config.yaml and /etc/jellyboxd/config.yaml in that order.

# Environment Variables

Only the variables listed in envMappings are read; anything else in the
environment is ignored.

Core:
  - WATCH_THRESHOLD: Percent at which a title counts as watched (default: 85)
  - RESTART_FLOOR: Percent below which a viewing session re-arms (default: 5)
  - ITEM_TYPES: Comma-separated Jellyfin item types to track (default: Movie)
  - LETTERBOXD_USER, LETTERBOXD_PASS: Single-user credentials
  - CREDENTIALS_FILE: YAML file mapping Jellyfin users to Letterboxd accounts
  - CREDENTIALS_ENCRYPTION_KEY: Key for "enc:" password values

HTTP:
  - HTTP_HOST, HTTP_PORT: Listen address (default: 0.0.0.0:5000)
  - WEBHOOK_PATH: Webhook route (default: /webhook)
  - WEBHOOK_SECRET: Optional shared secret (X-Webhook-Secret header)

Browser:
  - CHROME_REMOTE_URL: DevTools endpoint of an external Chrome
  - CHROME_PATH: Local Chrome binary
  - SNAPSHOT_DIR: Where failure screenshots are written

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_FILE

# Example config.yaml

	tracker:
	  fire_threshold: 90
	  item_types: [Movie, Episode]
	credentials:
	  file: /etc/jellyboxd/credentials.yaml
	automation:
	  remote_url: ws://chrome:9222
	  breaker:
	    failure_threshold: 5
*/
package config
