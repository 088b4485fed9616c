// Jellyboxd - Jellyfin to Letterboxd Watch Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jellyboxd

/*
Package main is the entry point for the Jellyboxd server.

Jellyboxd listens for Jellyfin playback-progress webhooks and, once a viewer
passes the watch threshold of a film, drives a headless Chrome session that
marks the film watched on the viewer's Letterboxd account. Each viewing
session triggers at most once; restarting a film from the beginning re-arms
it.

# Application Architecture

	RootSupervisor ("jellyboxd")
	├── AutomationSupervisor ("automation-layer")
	│   ├── automation-dispatcher
	│   ├── session-janitor
	│   └── credentials-watcher (optional)
	└── APISupervisor ("api-layer")
	    └── http-server

Component initialization order:

 1. Configuration: Koanf v2 with defaults, config.yaml and environment variables
 2. Logging: zerolog with JSON/console output and optional rotating file
 3. Tracker: in-memory session state bounded by LRU capacity and idle TTL
 4. Credentials: single-user env credentials and/or a per-viewer YAML file
 5. Automation: chromedp launcher, orchestrator with gate and circuit breaker
 6. Dispatcher: fire-and-forget job runner with drain on shutdown
 7. HTTP Server: chi router with webhook, health, status and metrics routes
 8. Supervisor Tree: suture v4

# Configuration

Core environment variables:

	HTTP_PORT=5000                  # listen port
	WEBHOOK_SECRET=<random>         # optional X-Webhook-Secret value
	WATCH_THRESHOLD=85              # percent that counts as watched
	RESTART_FLOOR=5                 # percent below which a session re-arms
	LETTERBOXD_USER=<username>      # single-user mode
	LETTERBOXD_PASS=<password>      # plain or enc:<base64>
	CREDENTIALS_FILE=viewers.yaml   # multi-user mode
	CREDENTIALS_ENCRYPTION_KEY=...  # decrypts enc: passwords
	CHROME_REMOTE_URL=ws://chrome:9222
	LOG_LEVEL=info

# Encrypting Passwords

	echo -n 'my-letterboxd-password' | \
	  CREDENTIALS_ENCRYPTION_KEY=... jellyboxd -encrypt-password

prints an enc: value usable in LETTERBOXD_PASS or the credentials file.

# Signal Handling

On SIGINT or SIGTERM the HTTP server stops accepting connections, readiness
turns 503, and in-flight browser runs are given automation.drain_timeout to
finish before they are abandoned.
*/
package main
