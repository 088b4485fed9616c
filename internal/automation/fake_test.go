// Jellyboxd - Jellyfin to Letterboxd Watch Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jellyboxd

package automation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tomtom215/jellyboxd/internal/config"
)

func testSite() config.SiteConfig {
	return config.SiteConfig{
		SignInURL:      "https://letterboxd.com/sign-in/",
		HomeURL:        "https://letterboxd.com/",
		SearchURL:      "https://letterboxd.com/search/",
		CookieBanner:   ".cc-btn",
		UsernameField:  "input[name='username']",
		PasswordField:  "input[name='password']",
		SearchResult:   ".results li .film-poster",
		DetailRegion:   ".sidebar",
		WatchedControl: ".action-watched",
		WatchedMarker:  "-on",
		WatchText:      "Watch",
	}
}

func testAutomationConfig() config.AutomationConfig {
	return config.AutomationConfig{
		Timeouts: config.StepTimeouts{
			Navigation:    time.Second,
			CookieBanner:  20 * time.Millisecond,
			LoginFields:   50 * time.Millisecond,
			LoginRedirect: 100 * time.Millisecond,
			SearchResults: 20 * time.Millisecond,
			DetailPage:    50 * time.Millisecond,
			Action:        50 * time.Millisecond,
			Settle:        0,
		},
	}
}

// fakeSite is the scripted state of the external site.
type fakeSite struct {
	mu sync.Mutex

	bannerVisible  bool
	loginFields    bool
	loginRedirects bool
	rejectUsers    map[string]bool // usernames whose password the site refuses
	results        int
	detailVisible  bool
	controlPresent bool
	controlClass   string
	textFallback   bool
	countErr       error
	navDelay       time.Duration
	panicOnSearch  bool

	navigations []string
	clicks      []string
	typed       map[string]string
}

// happySite is a site on which a fresh title can be marked watched.
func happySite() *fakeSite {
	return &fakeSite{
		bannerVisible:  true,
		loginFields:    true,
		loginRedirects: true,
		results:        3,
		detailVisible:  true,
		controlPresent: true,
		controlClass:   "action-watched",
		typed:          make(map[string]string),
	}
}

func (f *fakeSite) clicked(target string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.clicks {
		if c == target {
			return true
		}
	}
	return false
}

type fakeLauncher struct {
	site      *fakeSite
	launchErr error

	mu       sync.Mutex
	launches int
	closes   int
	active   int
	overlap  bool
	events   []string
}

func (l *fakeLauncher) Launch(ctx context.Context) (Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.launchErr != nil {
		return nil, l.launchErr
	}
	l.launches++
	l.active++
	if l.active > 1 {
		l.overlap = true
	}
	l.events = append(l.events, "launch")
	return &fakeSession{site: l.site, launcher: l}, nil
}

func (l *fakeLauncher) counts() (launches, closes int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.launches, l.closes
}

type fakeSession struct {
	site     *fakeSite
	launcher *fakeLauncher
	loc      string
}

func (s *fakeSession) Navigate(ctx context.Context, url string) error {
	s.site.mu.Lock()
	s.site.navigations = append(s.site.navigations, url)
	delay := s.site.navDelay
	panicOnSearch := s.site.panicOnSearch
	s.site.mu.Unlock()

	if panicOnSearch && url != testSite().SignInURL {
		panic("renderer crashed")
	}
	if delay > 0 {
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
	s.loc = url
	return nil
}

func (s *fakeSession) Location(context.Context) (string, error) {
	return s.loc, nil
}

func (s *fakeSession) WaitVisible(ctx context.Context, selector string) error {
	if s.visible(selector) {
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *fakeSession) visible(selector string) bool {
	site := testSite()
	s.site.mu.Lock()
	defer s.site.mu.Unlock()
	switch selector {
	case site.CookieBanner:
		return s.site.bannerVisible
	case site.UsernameField:
		return s.site.loginFields
	case site.SearchResult:
		return s.site.results > 0
	case site.DetailRegion:
		return s.site.detailVisible
	}
	return false
}

func (s *fakeSession) Count(_ context.Context, selector string) (int, error) {
	site := testSite()
	s.site.mu.Lock()
	defer s.site.mu.Unlock()
	switch selector {
	case site.SearchResult:
		return s.site.results, nil
	case site.WatchedControl:
		if s.site.countErr != nil {
			return 0, s.site.countErr
		}
		if s.site.controlPresent {
			return 1, nil
		}
	}
	return 0, nil
}

func (s *fakeSession) Attribute(_ context.Context, _, name string) (string, bool, error) {
	s.site.mu.Lock()
	defer s.site.mu.Unlock()
	if name != "class" {
		return "", false, nil
	}
	return s.site.controlClass, true, nil
}

func (s *fakeSession) Click(_ context.Context, selector string) error {
	s.site.mu.Lock()
	defer s.site.mu.Unlock()
	s.site.clicks = append(s.site.clicks, selector)
	if selector == testSite().SearchResult {
		s.loc = "https://letterboxd.com/film/inception/"
	}
	return nil
}

func (s *fakeSession) ClickText(_ context.Context, _, text string) error {
	s.site.mu.Lock()
	defer s.site.mu.Unlock()
	if !s.site.textFallback {
		return ErrElementNotFound
	}
	s.site.clicks = append(s.site.clicks, "text:"+text)
	return nil
}

func (s *fakeSession) Type(_ context.Context, selector, value string) error {
	s.site.mu.Lock()
	defer s.site.mu.Unlock()
	s.site.typed[selector] = value
	return nil
}

func (s *fakeSession) PressEnter(context.Context, string) error {
	s.site.mu.Lock()
	defer s.site.mu.Unlock()
	if s.site.loginRedirects && !s.site.rejectUsers[s.site.typed[testSite().UsernameField]] {
		s.loc = testSite().HomeURL
	}
	return nil
}

func (s *fakeSession) Screenshot(context.Context) ([]byte, error) {
	return []byte("\x89PNG fake"), nil
}

func (s *fakeSession) Close() error {
	l := s.launcher
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closes++
	l.active--
	l.events = append(l.events, "close")
	return nil
}

var errBoom = errors.New("boom")
