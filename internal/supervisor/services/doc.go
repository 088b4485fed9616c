// Jellyboxd - Jellyfin to Letterboxd Watch Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jellyboxd

/*
Package services provides suture.Service wrappers for components whose
lifecycle is not already Serve(ctx) shaped.

Each wrapper implements the suture.Service interface:

	type Service interface {
	    Serve(ctx context.Context) error
	}

HTTP Server (HTTPServerService):
  - Wraps *http.Server with graceful shutdown
  - Converts the blocking ListenAndServe pattern to Serve
  - Returns listener errors so the supervisor restarts it with backoff

The tracker janitor, credential file watcher and automation dispatcher
implement Serve themselves and are added to the tree directly.
*/
package services
