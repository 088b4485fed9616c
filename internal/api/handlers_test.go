// Jellyboxd - Jellyfin to Letterboxd Watch Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jellyboxd

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/jellyboxd/internal/automation"
	"github.com/tomtom215/jellyboxd/internal/config"
	"github.com/tomtom215/jellyboxd/internal/credentials"
	"github.com/tomtom215/jellyboxd/internal/tracker"
)

// fakeDispatcher records submitted jobs instead of running them.
type fakeDispatcher struct {
	mu       sync.Mutex
	jobs     []automation.Job
	closed   bool
	err      error
	inflight int64
}

func (d *fakeDispatcher) Submit(_ context.Context, job automation.Job) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.jobs = append(d.jobs, job)
	return nil
}

func (d *fakeDispatcher) Inflight() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inflight
}

func (d *fakeDispatcher) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *fakeDispatcher) submitted() []automation.Job {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]automation.Job(nil), d.jobs...)
}

type fakeBreaker string

func (b fakeBreaker) BreakerState() string { return string(b) }

// mapDirectory resolves only the viewers it lists.
type mapDirectory map[string]credentials.Credentials

func (m mapDirectory) Lookup(viewer string) (credentials.Credentials, bool) {
	c, ok := m[viewer]
	return c, ok
}

func testConfig() *config.Config {
	return &config.Config{
		Webhook: config.WebhookConfig{
			Path:              "/webhook",
			MaxBodyBytes:      4096,
			RateLimitRequests: 1000,
			RateLimitWindow:   time.Minute,
		},
		Tracker: config.TrackerConfig{
			FireThreshold:   85,
			RestartFloor:    5,
			ItemTypes:       []string{"Movie"},
			MaxSessions:     100,
			SessionTTL:      time.Hour,
			CleanupInterval: time.Minute,
		},
	}
}

type testServer struct {
	handler    *Handler
	dispatcher *fakeDispatcher
	router     http.Handler
}

func newTestServer(t *testing.T, cfg *config.Config, directory credentials.Directory) *testServer {
	t.Helper()
	if directory == nil {
		directory = mapDirectory{
			"alice": {Username: "alice-lb", Password: "hunter2"},
		}
	}
	d := &fakeDispatcher{}
	h := NewHandler(cfg, tracker.New(cfg.Tracker), directory, d, fakeBreaker("closed"), "test")
	router := NewRouter(h, ChiMiddlewareConfigFromWebhook(cfg.Webhook)).SetupChi()
	return &testServer{handler: h, dispatcher: d, router: router}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	if req.RemoteAddr == "" {
		req.RemoteAddr = "192.0.2.10:40000"
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) post(body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return s.do(req)
}

func progressBody(viewer, title string, year int, position, runtime int64) string {
	payload := map[string]any{
		"NotificationType":      "PlaybackProgress",
		"NotificationUsername":  viewer,
		"Name":                  title,
		"ItemType":              "Movie",
		"PlaybackPositionTicks": position,
		"RunTimeTicks":          runtime,
	}
	if year > 0 {
		payload["ProductionYear"] = year
	}
	data, _ := json.Marshal(payload)
	return string(data)
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}
