// Jellyboxd - Jellyfin to Letterboxd Watch Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jellyboxd

package api

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/tomtom215/jellyboxd/internal/config"
	"github.com/tomtom215/jellyboxd/internal/logging"
	"github.com/tomtom215/jellyboxd/internal/metrics"
	"github.com/tomtom215/jellyboxd/internal/models"
)

// WebhookSecretHeader carries the shared secret configured in the Jellyfin plugin.
const WebhookSecretHeader = "X-Webhook-Secret"

// ChiMiddlewareConfig holds configuration for Chi middleware factories.
type ChiMiddlewareConfig struct {
	// Rate limiting configuration
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool
	RateLimitKeyFunc  httprate.KeyFunc

	// WebhookSecret, when non-empty, must match the X-Webhook-Secret header.
	WebhookSecret string
}

// DefaultChiMiddlewareConfig returns the defaults used when no config is given.
func DefaultChiMiddlewareConfig() *ChiMiddlewareConfig {
	return &ChiMiddlewareConfig{
		RateLimitRequests: 120,
		RateLimitWindow:   time.Minute,
	}
}

// ChiMiddlewareConfigFromWebhook maps webhook settings onto a middleware config.
func ChiMiddlewareConfigFromWebhook(cfg config.WebhookConfig) *ChiMiddlewareConfig {
	return &ChiMiddlewareConfig{
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
		RateLimitDisabled: cfg.RateLimitDisabled,
		WebhookSecret:     cfg.Secret,
	}
}

// ChiMiddleware provides Chi-compatible middleware factories.
type ChiMiddleware struct {
	config *ChiMiddlewareConfig
}

// NewChiMiddleware creates a new Chi middleware factory with the given configuration.
func NewChiMiddleware(config *ChiMiddlewareConfig) *ChiMiddleware {
	if config == nil {
		config = DefaultChiMiddlewareConfig()
	}
	return &ChiMiddleware{config: config}
}

// RateLimit returns an httprate limiter keyed by client IP. Rejections are
// counted under the given endpoint label and answered with a JSON 429.
func (m *ChiMiddleware) RateLimit(endpoint string) func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled || m.config.RateLimitRequests <= 0 {
		// Return a no-op middleware when rate limiting is disabled
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	keyFunc := m.config.RateLimitKeyFunc
	if keyFunc == nil {
		keyFunc = httprate.KeyByIP
	}

	return httprate.Limit(
		m.config.RateLimitRequests,
		m.config.RateLimitWindow,
		httprate.WithKeyFuncs(keyFunc),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.APIRateLimitHits.WithLabelValues(endpoint).Inc()
			metrics.WebhookEvents.WithLabelValues("rate_limited").Inc()
			logging.Ctx(r.Context()).Warn().
				Str("endpoint", endpoint).
				Str("remote_addr", logging.Sanitize(r.RemoteAddr)).
				Msg("Rate limit exceeded")
			respondJSON(w, http.StatusTooManyRequests, &models.WebhookResponse{
				Status: models.StatusError,
				Error:  "rate limit exceeded",
			})
		}),
	)
}

// WebhookSecret rejects requests whose X-Webhook-Secret header does not match
// the configured secret. With no secret configured it is a no-op.
func (m *ChiMiddleware) WebhookSecret() func(http.Handler) http.Handler {
	secret := []byte(m.config.WebhookSecret)
	if len(secret) == 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(r.Header.Get(WebhookSecretHeader))
			if subtle.ConstantTimeCompare(got, secret) != 1 {
				metrics.WebhookEvents.WithLabelValues("unauthorized").Inc()
				logging.Ctx(r.Context()).Warn().
					Str("remote_addr", logging.Sanitize(r.RemoteAddr)).
					Bool("header_present", len(got) > 0).
					Msg("Webhook secret mismatch")
				respondJSON(w, http.StatusUnauthorized, &models.WebhookResponse{Status: models.StatusError})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
