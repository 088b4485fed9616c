// Jellyboxd - Jellyfin to Letterboxd Watch Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jellyboxd

// Package automation drives the scripted Letterboxd session that marks a
// title watched.
//
// A run is four steps, each with its own timeout:
//
//  1. login: sign in, dismissing the cookie banner when it shows up
//  2. search: open the results page for "<title> <year>"
//  3. select: open the first result
//  4. mark: click the watched control, or report it was already on
//
// Runs are serialized by a single-slot gate owned by the Orchestrator, so at
// most one browser is alive at a time. The gate is taken before the browser
// is launched and released only after it has been closed. Waiters are served
// in arrival order.
//
// Run never returns an error and never panics: every failure becomes an
// Outcome on the Result. There are no retries; a failed job is final for the
// trigger that produced it.
package automation

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/semaphore"

	"github.com/tomtom215/jellyboxd/internal/config"
	"github.com/tomtom215/jellyboxd/internal/logging"
	"github.com/tomtom215/jellyboxd/internal/metrics"
)

const breakerName = "letterboxd"

// Orchestrator runs automation jobs one at a time.
type Orchestrator struct {
	launcher    Launcher
	site        config.SiteConfig
	timeouts    config.StepTimeouts
	snapshotDir string

	gate    *semaphore.Weighted
	breaker *gobreaker.CircuitBreaker[Result] // nil when disabled

	pollInterval time.Duration
}

// NewOrchestrator creates an orchestrator that opens sessions with launcher.
func NewOrchestrator(launcher Launcher, cfg config.AutomationConfig, site config.SiteConfig) *Orchestrator {
	o := &Orchestrator{
		launcher:     launcher,
		site:         site,
		timeouts:     cfg.Timeouts,
		snapshotDir:  cfg.SnapshotDir,
		gate:         semaphore.NewWeighted(1),
		pollInterval: 250 * time.Millisecond,
	}
	if cfg.Breaker.Enabled {
		o.breaker = newBreaker(cfg.Breaker)
	}
	return o
}

func newBreaker(cfg config.BreakerConfig) *gobreaker.CircuitBreaker[Result] {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	return gobreaker.NewCircuitBreaker[Result](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.RecordBreakerTransition(name, from.String(), to.String())
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("Automation circuit breaker state changed")
		},
	})
}

// BreakerState returns "closed", "half-open", "open", or "disabled".
func (o *Orchestrator) BreakerState() string {
	if o.breaker == nil {
		return "disabled"
	}
	return o.breaker.State().String()
}

// Run executes job and reports how it ended. It blocks while another job
// holds the gate. ctx should not be canceled by the caller's request
// lifecycle; jobs are meant to run to completion.
func (o *Orchestrator) Run(ctx context.Context, job Job) (res Result) {
	start := time.Now()
	logger := logging.Ctx(ctx).With().
		Str("job_id", job.ID).
		Str("viewer", logging.Sanitize(job.Viewer)).
		Str("query", logging.Sanitize(job.Query())).
		Logger()

	defer func() {
		if r := recover(); r != nil {
			res = Result{Outcome: OutcomeBrowserFailed, Err: fmt.Errorf("panic: %v", r)}
		}
		res.JobID = job.ID
		res.Duration = time.Since(start)
		metrics.RecordAutomationRun(string(res.Outcome), res.Duration)

		event := logger.Info()
		switch {
		case res.Outcome == OutcomeNotFound || res.Outcome == OutcomeCircuitOpen:
			event = logger.Warn()
		case !res.Outcome.Succeeded():
			event = logger.Error()
		}
		event.Err(res.Err).Str("outcome", string(res.Outcome)).Str("step", res.Step).
			Str("snapshot", res.Snapshot).Dur("duration", res.Duration).
			Msg("Automation job finished")
	}()

	if err := o.gate.Acquire(ctx, 1); err != nil {
		return Result{Outcome: OutcomeBrowserFailed, Step: StepGate, Err: err}
	}
	defer o.gate.Release(1)
	metrics.AutomationGateWait.Observe(time.Since(start).Seconds())

	logger.Info().Msg("Automation job started")

	if o.breaker == nil {
		return o.execute(ctx, job)
	}

	res, err := o.breaker.Execute(func() (Result, error) {
		r := o.execute(ctx, job)
		if !r.Outcome.siteHealthy() {
			return r, r.Err
		}
		return r, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "rejected").Inc()
		return Result{Outcome: OutcomeCircuitOpen, Err: err}
	}
	if err != nil {
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "failure").Inc()
	} else {
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "success").Inc()
	}
	return res
}

// execute runs the steps in one fresh session. The session is closed before
// execute returns, and therefore before Run releases the gate.
func (o *Orchestrator) execute(ctx context.Context, job Job) Result {
	launchStart := time.Now()
	s, err := o.launcher.Launch(ctx)
	metrics.RecordStep(StepLaunch, time.Since(launchStart))
	if err != nil {
		return Result{Outcome: OutcomeBrowserFailed, Step: StepLaunch, Err: fmt.Errorf("launch browser: %w", err)}
	}
	defer func() {
		if err := s.Close(); err != nil {
			logging.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to close browser session")
		}
	}()

	if err := o.timed(StepLogin, func() error { return o.login(ctx, s, job) }); err != nil {
		return Result{Outcome: OutcomeLoginFailed, Step: StepLogin, Err: err}
	}

	var found StepResult
	if err := o.timed(StepSearch, func() (err error) {
		found, err = o.search(ctx, s, job.Query())
		return err
	}); err != nil {
		return Result{Outcome: OutcomePageLoadFailed, Step: StepSearch, Err: err}
	}
	if found != Present {
		return Result{Outcome: OutcomeNotFound, Step: StepSearch,
			Err: fmt.Errorf("no search results for %q", job.Query())}
	}

	if err := o.timed(StepSelect, func() error {
		return o.withTimeout(ctx, o.timeouts.Action, func(ctx context.Context) error {
			return s.Click(ctx, o.site.SearchResult)
		})
	}); err != nil {
		return Result{Outcome: OutcomePageLoadFailed, Step: StepSelect, Err: fmt.Errorf("open first result: %w", err)}
	}

	var res Result
	_ = o.timed(StepMark, func() error {
		res = o.mark(ctx, s, job)
		return nil
	})
	res.Step = StepMark
	return res
}

// login signs in and waits for the redirect to the home page.
func (o *Orchestrator) login(ctx context.Context, s Session, job Job) error {
	if err := o.withTimeout(ctx, o.timeouts.Navigation, func(ctx context.Context) error {
		return s.Navigate(ctx, o.site.SignInURL)
	}); err != nil {
		return fmt.Errorf("open sign-in page: %w", err)
	}

	if o.probe(ctx, s, o.site.CookieBanner, o.timeouts.CookieBanner) == Present {
		if err := o.withTimeout(ctx, o.timeouts.Action, func(ctx context.Context) error {
			return s.Click(ctx, o.site.CookieBanner)
		}); err != nil {
			logging.Debug().Err(err).Str("job_id", job.ID).Msg("Cookie banner dismissal failed, continuing")
		}
	}

	if err := o.withTimeout(ctx, o.timeouts.LoginFields, func(ctx context.Context) error {
		return s.WaitVisible(ctx, o.site.UsernameField)
	}); err != nil {
		return fmt.Errorf("credential fields did not appear: %w", err)
	}

	if err := o.withTimeout(ctx, o.timeouts.Action, func(ctx context.Context) error {
		if err := s.Type(ctx, o.site.UsernameField, job.Credentials.Username); err != nil {
			return err
		}
		if err := s.Type(ctx, o.site.PasswordField, job.Credentials.Password); err != nil {
			return err
		}
		return s.PressEnter(ctx, o.site.PasswordField)
	}); err != nil {
		return fmt.Errorf("submit credentials: %w", err)
	}

	if err := o.waitForLocation(ctx, s, o.site.HomeURL, o.timeouts.LoginRedirect); err != nil {
		return fmt.Errorf("no redirect after sign-in: %w", err)
	}
	return nil
}

// search opens the results page and reports whether any result is present.
// A slow render is tolerated; the final count decides.
func (o *Orchestrator) search(ctx context.Context, s Session, query string) (StepResult, error) {
	target := SearchURL(o.site.SearchURL, query)
	if err := o.withTimeout(ctx, o.timeouts.Navigation, func(ctx context.Context) error {
		return s.Navigate(ctx, target)
	}); err != nil {
		return Absent, fmt.Errorf("open search page: %w", err)
	}

	if r := o.probe(ctx, s, o.site.SearchResult, o.timeouts.SearchResults); r == Timeout {
		logging.Debug().Str("url", target).Msg("Search results slow to render, checking anyway")
	}

	return o.present(ctx, s, o.site.SearchResult)
}

// mark opens the watched state on the detail page.
func (o *Orchestrator) mark(ctx context.Context, s Session, job Job) Result {
	if err := o.withTimeout(ctx, o.timeouts.DetailPage, func(ctx context.Context) error {
		return s.WaitVisible(ctx, o.site.DetailRegion)
	}); err != nil {
		return Result{Outcome: OutcomePageLoadFailed, Err: fmt.Errorf("detail page did not load: %w", err)}
	}

	control, err := o.present(ctx, s, o.site.WatchedControl)
	if err != nil {
		return o.unexpected(ctx, s, job, fmt.Errorf("locate watched control: %w", err))
	}

	if control == Absent {
		if err := o.withTimeout(ctx, o.timeouts.Action, func(ctx context.Context) error {
			return s.ClickText(ctx, o.site.DetailRegion, o.site.WatchText)
		}); err != nil {
			return Result{Outcome: OutcomeMarkFailed, Err: fmt.Errorf("watched control missing and text fallback failed: %w", err)}
		}
		return Result{Outcome: OutcomeSuccess}
	}

	var class string
	if err := o.withTimeout(ctx, o.timeouts.Action, func(ctx context.Context) (err error) {
		class, _, err = s.Attribute(ctx, o.site.WatchedControl, "class")
		return err
	}); err != nil {
		return o.unexpected(ctx, s, job, fmt.Errorf("read watched state: %w", err))
	}
	if hasClass(class, o.site.WatchedMarker) {
		return Result{Outcome: OutcomeAlreadyWatched}
	}

	if err := o.withTimeout(ctx, o.timeouts.Action, func(ctx context.Context) error {
		return s.Click(ctx, o.site.WatchedControl)
	}); err != nil {
		return o.unexpected(ctx, s, job, fmt.Errorf("click watched control: %w", err))
	}

	// Give the site time to persist the change before the session closes.
	if err := sleep(ctx, o.timeouts.Settle); err != nil {
		return Result{Outcome: OutcomeMarkFailed, Err: err}
	}
	return Result{Outcome: OutcomeSuccess}
}

// unexpected records a MARK_FAILED result with a best-effort snapshot.
func (o *Orchestrator) unexpected(ctx context.Context, s Session, job Job, err error) Result {
	return Result{Outcome: OutcomeMarkFailed, Err: err, Snapshot: o.snapshot(ctx, s, job)}
}

// snapshot writes a full-page PNG to the snapshot directory and returns its
// path, or "" when disabled or capture failed.
func (o *Orchestrator) snapshot(ctx context.Context, s Session, job Job) string {
	if o.snapshotDir == "" {
		return ""
	}

	var png []byte
	err := o.withTimeout(ctx, o.timeouts.Navigation, func(ctx context.Context) (err error) {
		png, err = s.Screenshot(ctx)
		return err
	})
	if err == nil {
		err = os.MkdirAll(o.snapshotDir, 0o750)
	}
	path := filepath.Join(o.snapshotDir, fmt.Sprintf("%s-%s.png", time.Now().UTC().Format("20060102T150405Z"), job.ID))
	if err == nil {
		err = os.WriteFile(path, png, 0o600)
	}
	if err != nil {
		metrics.AutomationSnapshots.WithLabelValues("failed").Inc()
		logging.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to capture diagnostic snapshot")
		return ""
	}

	metrics.AutomationSnapshots.WithLabelValues("captured").Inc()
	return path
}

// probe waits up to timeout for selector to become visible.
func (o *Orchestrator) probe(ctx context.Context, s Session, selector string, timeout time.Duration) StepResult {
	err := o.withTimeout(ctx, timeout, func(ctx context.Context) error {
		return s.WaitVisible(ctx, selector)
	})
	switch {
	case err == nil:
		return Present
	case errors.Is(err, context.DeadlineExceeded):
		return Timeout
	default:
		return Absent
	}
}

// present checks for selector without waiting.
func (o *Orchestrator) present(ctx context.Context, s Session, selector string) (StepResult, error) {
	var n int
	if err := o.withTimeout(ctx, o.timeouts.Action, func(ctx context.Context) (err error) {
		n, err = s.Count(ctx, selector)
		return err
	}); err != nil {
		return Absent, err
	}
	if n == 0 {
		return Absent, nil
	}
	return Present, nil
}

// waitForLocation polls the page URL until it matches want.
func (o *Orchestrator) waitForLocation(ctx context.Context, s Session, want string, timeout time.Duration) error {
	return o.withTimeout(ctx, timeout, func(ctx context.Context) error {
		ticker := time.NewTicker(o.pollInterval)
		defer ticker.Stop()

		var last string
		for {
			if loc, err := s.Location(ctx); err == nil {
				last = loc
				if sameURL(loc, want) {
					return nil
				}
			}
			select {
			case <-ctx.Done():
				return fmt.Errorf("still at %s: %w", last, ctx.Err())
			case <-ticker.C:
			}
		}
	})
}

func (o *Orchestrator) withTimeout(ctx context.Context, d time.Duration, fn func(context.Context) error) error {
	stepCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return fn(stepCtx)
}

func (o *Orchestrator) timed(step string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.RecordStep(step, time.Since(start))
	return err
}

// SearchURL returns the results page for query under base.
func SearchURL(base, query string) string {
	return strings.TrimSuffix(base, "/") + "/" + url.PathEscape(query) + "/"
}

func sameURL(a, b string) bool {
	return strings.TrimSuffix(a, "/") == strings.TrimSuffix(b, "/")
}

func hasClass(classAttr, class string) bool {
	for _, c := range strings.Fields(classAttr) {
		if c == class {
			return true
		}
	}
	return false
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
