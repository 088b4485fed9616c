// Jellyboxd - Jellyfin to Letterboxd Watch Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jellyboxd

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/jellyboxd/internal/api"
	"github.com/tomtom215/jellyboxd/internal/automation"
	"github.com/tomtom215/jellyboxd/internal/config"
	"github.com/tomtom215/jellyboxd/internal/credentials"
	"github.com/tomtom215/jellyboxd/internal/dispatch"
	"github.com/tomtom215/jellyboxd/internal/logging"
	"github.com/tomtom215/jellyboxd/internal/metrics"
	"github.com/tomtom215/jellyboxd/internal/supervisor"
	"github.com/tomtom215/jellyboxd/internal/supervisor/services"
	"github.com/tomtom215/jellyboxd/internal/tracker"
	"github.com/tomtom215/jellyboxd/internal/validation"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	encrypt := flag.Bool("encrypt-password", false,
		"read a password from stdin, print its enc: form using CREDENTIALS_ENCRYPTION_KEY, and exit")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	switch {
	case *showVersion:
		fmt.Println(version)
		return
	case *encrypt:
		if err := encryptPassword(os.Getenv("CREDENTIALS_ENCRYPTION_KEY"), os.Stdin, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, "encrypt-password:", err)
			os.Exit(1)
		}
		return
	}

	// Load configuration first to get logging settings
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		var fieldErrs *validation.StructValidationError
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs.Errors() {
				logging.Error().Str("field", fe.Field()).Str("rule", fe.Tag()).Msg(fe.Error())
			}
		}
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Caller:     cfg.Logging.Caller,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})

	if err := run(cfg); err != nil {
		logging.Error().Err(err).Msg("Jellyboxd stopped with error")
		_ = logging.Close()
		os.Exit(1)
	}
	_ = logging.Close()
}

//nolint:gocyclo // Sequential wiring of every component
func run(cfg *config.Config) error {
	logging.Info().Str("version", version).Str("config", cfg.String()).Msg("Starting Jellyboxd")
	metrics.SetAppInfo(version)

	// Tracker
	tr := tracker.New(cfg.Tracker)

	// Credentials
	directory, credFile, err := credentials.New(cfg.Credentials)
	if err != nil {
		return fmt.Errorf("credentials: %w", err)
	}
	if credFile != nil {
		logging.Info().Str("file", cfg.Credentials.File).Int("viewers", credFile.Len()).
			Bool("watch", cfg.Credentials.Watch).Msg("Credential file loaded")
	}
	if cfg.Credentials.HasStatic() {
		logging.Info().Str("username", cfg.Credentials.Username).Msg("Single-user credentials configured")
	}

	// Automation
	launcher := automation.NewChromeLauncher(cfg.Automation)
	orchestrator := automation.NewOrchestrator(launcher, cfg.Automation, cfg.Site)
	dispatcher := dispatch.New(orchestrator, cfg.Automation.DrainTimeout)
	if cfg.Automation.RemoteURL != "" {
		logging.Info().Str("remote_url", cfg.Automation.RemoteURL).Msg("Using remote Chrome")
	}

	// HTTP
	handler := api.NewHandler(cfg, tr, directory, dispatcher, orchestrator, version)
	router := api.NewRouter(handler, api.ChiMiddlewareConfigFromWebhook(cfg.Webhook))
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Supervisor tree
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfigFrom(cfg))
	if err != nil {
		return fmt.Errorf("supervisor: %w", err)
	}
	tree.AddAutomationService(dispatcher)
	tree.AddAutomationService(tracker.NewJanitor(tr.State(), cfg.Tracker.CleanupInterval))
	if credFile != nil && cfg.Credentials.Watch {
		tree.AddAutomationService(credFile)
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Addr(), cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info().Msg("Starting supervisor tree")
	err = tree.Serve(ctx)

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logging.Info().Msg("Jellyboxd stopped gracefully")
	return nil
}
