// Jellyboxd - Jellyfin to Letterboxd Watch Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jellyboxd

package automation

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/goccy/go-json"

	"github.com/tomtom215/jellyboxd/internal/config"
	"github.com/tomtom215/jellyboxd/internal/logging"
)

// ChromeLauncher launches Chrome through chromedp, either as a local
// process or by attaching to a remote DevTools endpoint.
type ChromeLauncher struct {
	cfg config.AutomationConfig
}

// NewChromeLauncher creates a launcher from the automation config.
func NewChromeLauncher(cfg config.AutomationConfig) *ChromeLauncher {
	return &ChromeLauncher{cfg: cfg}
}

// Launch starts a browser and opens one tab.
func (l *ChromeLauncher) Launch(ctx context.Context) (Session, error) {
	var allocCtx context.Context
	var cancelAlloc context.CancelFunc

	if l.cfg.RemoteURL != "" {
		allocCtx, cancelAlloc = chromedp.NewRemoteAllocator(ctx, l.cfg.RemoteURL)
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", l.cfg.Headless),
			chromedp.WindowSize(l.cfg.WindowWidth, l.cfg.WindowHeight),
		)
		if l.cfg.UserAgent != "" {
			opts = append(opts, chromedp.UserAgent(l.cfg.UserAgent))
		}
		if l.cfg.ExecPath != "" {
			opts = append(opts, chromedp.ExecPath(l.cfg.ExecPath))
		}
		allocCtx, cancelAlloc = chromedp.NewExecAllocator(ctx, opts...)
	}

	logger := logging.WithComponent("chromedp")
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			logger.Debug().Msgf(format, args...)
		}),
		chromedp.WithErrorf(func(format string, args ...interface{}) {
			logger.Warn().Msgf(format, args...)
		}),
	)

	// The first Run allocates the browser and binds it to browserCtx, so it
	// must not carry a step timeout.
	setup := []chromedp.Action{
		chromedp.EmulateViewport(int64(l.cfg.WindowWidth), int64(l.cfg.WindowHeight)),
	}
	if l.cfg.UserAgent != "" {
		setup = append(setup, emulation.SetUserAgentOverride(l.cfg.UserAgent))
	}
	if err := chromedp.Run(browserCtx, setup...); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	return &chromeSession{
		ctx: browserCtx,
		release: func() {
			cancelBrowser()
			cancelAlloc()
		},
	}, nil
}

type chromeSession struct {
	ctx     context.Context
	release func()
}

// run executes actions in the tab, bounded by both the tab and ctx.
func (s *chromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		defer cancelDeadline()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && runCtx.Err() != nil {
		return runCtx.Err()
	}
	return err
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, chromedp.Navigate(url))
}

func (s *chromeSession) Location(ctx context.Context) (string, error) {
	var loc string
	err := s.run(ctx, chromedp.Location(&loc))
	return loc, err
}

func (s *chromeSession) WaitVisible(ctx context.Context, selector string) error {
	return s.run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (s *chromeSession) Count(ctx context.Context, selector string) (int, error) {
	var nodes []*cdp.Node
	err := s.run(ctx, chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)))
	return len(nodes), err
}

func (s *chromeSession) Attribute(ctx context.Context, selector, name string) (string, bool, error) {
	var value string
	var ok bool
	err := s.run(ctx, chromedp.AttributeValue(selector, name, &value, &ok, chromedp.ByQuery))
	return value, ok, err
}

func (s *chromeSession) Click(ctx context.Context, selector string) error {
	return s.run(ctx, chromedp.Click(selector, chromedp.ByQuery))
}

// clickTextScript picks the innermost visible element inside scope whose
// trimmed text equals text exactly, and clicks it.
const clickTextScript = `(function(scope, text) {
	const root = document.querySelector(scope);
	if (!root) return false;
	const matches = Array.from(root.querySelectorAll('*')).filter(
		el => el.textContent.trim() === text && el.offsetParent !== null);
	const target = matches.find(el => !matches.some(o => o !== el && el.contains(o)));
	if (!target) return false;
	target.click();
	return true;
})(%s, %s)`

func (s *chromeSession) ClickText(ctx context.Context, scope, text string) error {
	scopeJS, err := json.Marshal(scope)
	if err != nil {
		return err
	}
	textJS, err := json.Marshal(text)
	if err != nil {
		return err
	}

	var clicked bool
	if err := s.run(ctx, chromedp.Evaluate(fmt.Sprintf(clickTextScript, scopeJS, textJS), &clicked)); err != nil {
		return err
	}
	if !clicked {
		return fmt.Errorf("%w: text %q in %s", ErrElementNotFound, text, scope)
	}
	return nil
}

func (s *chromeSession) Type(ctx context.Context, selector, value string) error {
	return s.run(ctx, chromedp.SendKeys(selector, value, chromedp.ByQuery))
}

func (s *chromeSession) PressEnter(ctx context.Context, selector string) error {
	return s.run(ctx, chromedp.SendKeys(selector, kb.Enter, chromedp.ByQuery))
}

func (s *chromeSession) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	// quality 100 selects PNG encoding
	err := s.run(ctx, chromedp.FullScreenshot(&buf, 100))
	return buf, err
}

// Close shuts the browser down and releases the allocator.
func (s *chromeSession) Close() error {
	err := chromedp.Cancel(s.ctx)
	s.release()
	return err
}
