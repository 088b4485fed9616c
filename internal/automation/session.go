// Jellyboxd - Jellyfin to Letterboxd Watch Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jellyboxd

package automation

import "context"

// Launcher opens browser sessions.
type Launcher interface {
	Launch(ctx context.Context) (Session, error)
}

// Session is the browser capability the orchestrator drives. Selectors are
// CSS selectors. Every call is bounded by ctx; a call that waits for an
// element returns ctx.Err() when the deadline passes first.
type Session interface {
	// Navigate loads url and waits for the document to be ready.
	Navigate(ctx context.Context, url string) error

	// Location returns the current page URL.
	Location(ctx context.Context) (string, error)

	// WaitVisible blocks until an element matching selector is visible.
	WaitVisible(ctx context.Context, selector string) error

	// Count returns the number of elements matching selector without waiting.
	Count(ctx context.Context, selector string) (int, error)

	// Attribute returns the named attribute of the first match.
	Attribute(ctx context.Context, selector, name string) (string, bool, error)

	// Click clicks the first element matching selector.
	Click(ctx context.Context, selector string) error

	// ClickText clicks the innermost element inside scope whose trimmed
	// text equals text. It returns ErrElementNotFound when none matches.
	ClickText(ctx context.Context, scope, text string) error

	// Type focuses selector and types value into it.
	Type(ctx context.Context, selector, value string) error

	// PressEnter sends the Enter key to selector.
	PressEnter(ctx context.Context, selector string) error

	// Screenshot captures the full page as PNG.
	Screenshot(ctx context.Context) ([]byte, error)

	// Close tears the session down. It is called exactly once.
	Close() error
}
