// Jellyboxd - Jellyfin to Letterboxd Watch Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jellyboxd

/*
Package supervisor provides process supervision for Jellyboxd using suture v4.

# Overview

Every long-running component runs as a supervised service:

	RootSupervisor ("jellyboxd")
	├── AutomationSupervisor ("automation-layer")
	│   ├── automation-dispatcher   (drains in-flight jobs on stop)
	│   ├── session-janitor         (prunes idle tracker sessions)
	│   └── credentials-watcher     (if credentials.file and credentials.watch)
	└── APISupervisor ("api-layer")
	    └── http-server

Crashed services are restarted with suture's decaying failure counter and
backoff. Events are logged through sutureslog into the zerolog stream.

# Usage Example

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"),
	    supervisor.TreeConfigFrom(cfg))
	if err != nil {
	    return err
	}
	tree.AddAutomationService(dispatcher)
	tree.AddAutomationService(tracker.NewJanitor(tr.State(), cfg.Tracker.CleanupInterval))
	tree.AddAPIService(services.NewHTTPServerService(server, addr, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err = tree.Serve(ctx)

# Shutdown

Cancelling the context stops both layers. The dispatcher refuses new jobs
immediately, so readiness turns 503, and then waits up to
automation.drain_timeout for running browser sessions. The automation
layer and root stop timeouts are stretched to DrainTimeout plus a margin
so a legitimate drain is not reported as a hung service.

If a service still does not stop, UnstoppedServiceReport lists it:

	report, _ := tree.UnstoppedServiceReport()
	for _, svc := range report {
	    logging.Warn().Str("service", svc.Name).Msg("Service did not stop")
	}
*/
package supervisor
