// Jellyboxd - Jellyfin to Letterboxd Watch Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jellyboxd

package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/tomtom215/jellyboxd/internal/config"
)

// drainMargin is added on top of the dispatcher drain so suture does not
// report the dispatcher as unstopped while it is still legitimately draining.
const drainMargin = 5 * time.Second

// TreeConfig holds supervisor tree configuration.
type TreeConfig struct {
	// FailureThreshold is the number of failures before entering backoff.
	// Default: 5
	FailureThreshold float64

	// FailureDecay is the rate at which failures decay in seconds.
	// Default: 30
	FailureDecay float64

	// FailureBackoff is the duration to wait when threshold is exceeded.
	// Default: 15s
	FailureBackoff time.Duration

	// ShutdownTimeout is the maximum time to wait for a service to stop.
	// Default: 10s
	ShutdownTimeout time.Duration

	// DrainTimeout is how long the dispatcher may wait for in-flight
	// automation jobs. The automation layer's stop timeout is extended
	// to cover it.
	DrainTimeout time.Duration
}

// DefaultTreeConfig returns suture's own defaults plus the default drain.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
		DrainTimeout:     2 * time.Minute,
	}
}

// TreeConfigFrom builds a TreeConfig from the loaded configuration.
func TreeConfigFrom(cfg *config.Config) TreeConfig {
	return TreeConfig{
		FailureThreshold: cfg.Supervisor.FailureThreshold,
		FailureDecay:     cfg.Supervisor.FailureDecay,
		FailureBackoff:   cfg.Supervisor.FailureBackoff,
		ShutdownTimeout:  cfg.Supervisor.ShutdownTimeout,
		DrainTimeout:     cfg.Automation.DrainTimeout,
	}
}

// automationStopTimeout is the stop budget for the automation layer and root.
func (c TreeConfig) automationStopTimeout() time.Duration {
	if d := c.DrainTimeout + drainMargin; d > c.ShutdownTimeout {
		return d
	}
	return c.ShutdownTimeout
}

// SupervisorTree manages the hierarchical supervisor structure for Jellyboxd.
//
// The tree is organized into two layers:
//   - automation: dispatcher, session janitor, credential file watcher
//   - api: HTTP server
//
// A crash-looping credential watcher backs off inside the automation layer
// without taking the webhook listener down with it.
type SupervisorTree struct {
	root       *suture.Supervisor
	automation *suture.Supervisor
	api        *suture.Supervisor
	logger     *slog.Logger
	config     TreeConfig
}

// NewSupervisorTree creates a new supervisor tree with the given configuration.
func NewSupervisorTree(logger *slog.Logger, config TreeConfig) (*SupervisorTree, error) {
	defaults := DefaultTreeConfig()
	if config.FailureThreshold == 0 {
		config.FailureThreshold = defaults.FailureThreshold
	}
	if config.FailureDecay == 0 {
		config.FailureDecay = defaults.FailureDecay
	}
	if config.FailureBackoff == 0 {
		config.FailureBackoff = defaults.FailureBackoff
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if config.DrainTimeout == 0 {
		config.DrainTimeout = defaults.DrainTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	// MustHook has a pointer receiver.
	eventHook := (&sutureslog.Handler{Logger: logger}).MustHook()

	spec := func(timeout time.Duration) suture.Spec {
		return suture.Spec{
			FailureThreshold: config.FailureThreshold,
			FailureDecay:     config.FailureDecay,
			FailureBackoff:   config.FailureBackoff,
			Timeout:          timeout,
		}
	}

	rootSpec := spec(config.automationStopTimeout())
	rootSpec.EventHook = eventHook

	root := suture.New("jellyboxd", rootSpec)
	automation := suture.New("automation-layer", spec(config.automationStopTimeout()))
	api := suture.New("api-layer", spec(config.ShutdownTimeout))

	root.Add(automation)
	root.Add(api)

	return &SupervisorTree{
		root:       root,
		automation: automation,
		api:        api,
		logger:     logger,
		config:     config,
	}, nil
}

// Root returns the root supervisor for direct access if needed.
func (t *SupervisorTree) Root() *suture.Supervisor {
	return t.root
}

// Config returns the effective configuration after defaults.
func (t *SupervisorTree) Config() TreeConfig {
	return t.config
}

// AddAutomationService adds a service to the automation layer supervisor.
// Use this for the dispatcher, the session janitor and the credential watcher.
func (t *SupervisorTree) AddAutomationService(svc suture.Service) suture.ServiceToken {
	return t.automation.Add(svc)
}

// AddAPIService adds a service to the API layer supervisor.
func (t *SupervisorTree) AddAPIService(svc suture.Service) suture.ServiceToken {
	return t.api.Add(svc)
}

// Serve starts the supervisor tree and blocks until the context is canceled.
func (t *SupervisorTree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground starts the supervisor tree in a background goroutine.
// Returns a channel that receives the error (or nil) when the supervisor stops.
func (t *SupervisorTree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport returns services that failed to stop within their
// timeout. Logged at exit to diagnose hung browser runs.
func (t *SupervisorTree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
