// Jellyboxd - Jellyfin to Letterboxd Watch Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jellyboxd

package credentials

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/jellyboxd/internal/metrics"
)

const twoViewers = `
viewers:
  - viewer: Alice
    username: alice_lb
    password: a-pass
  - viewer: bob
    username: bob_lb
    password: b-pass
`

func TestFile_Lookup(t *testing.T) {
	f, err := NewFile(writeCredentialsFile(t, t.TempDir(), twoViewers), nil)
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}

	if f.Len() != 2 {
		t.Errorf("Len() = %d, want 2", f.Len())
	}
	tests := []struct {
		viewer   string
		wantUser string
		wantOK   bool
	}{
		{"Alice", "alice_lb", true},
		{"alice", "alice_lb", true},
		{" BOB ", "bob_lb", true},
		{"carol", "", false},
	}
	for _, tt := range tests {
		creds, ok := f.Lookup(tt.viewer)
		if ok != tt.wantOK || creds.Username != tt.wantUser {
			t.Errorf("Lookup(%q) = %v, %v; want %s, %v", tt.viewer, creds.Username, ok, tt.wantUser, tt.wantOK)
		}
	}
}

func TestFile_EncryptedPasswords(t *testing.T) {
	enc, _ := NewEncryptor("file-key")
	sealed, _ := enc.Seal("a-secret")

	path := writeCredentialsFile(t, t.TempDir(), `
viewers:
  - viewer: alice
    username: alice_lb
    password: "`+sealed+`"
`)
	f, err := NewFile(path, enc)
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}
	if creds, _ := f.Lookup("alice"); creds.Password != "a-secret" {
		t.Errorf("password = %q, want decrypted", creds.Password)
	}
}

func TestNewFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{
			name: "duplicate viewer",
			body: `
viewers:
  - {viewer: alice, username: a, password: p}
  - {viewer: ALICE, username: b, password: q}
`,
			wantErr: ErrDuplicateViewer,
		},
		{
			name: "missing password",
			body: `
viewers:
  - {viewer: alice, username: a}
`,
		},
		{
			name: "empty list",
			body: "viewers: []\n",
		},
		{
			name: "not yaml",
			body: "viewers: [unclosed\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFile(writeCredentialsFile(t, t.TempDir(), tt.body), nil)
			if err == nil {
				t.Fatal("NewFile() expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("NewFile() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFile_FailedReloadKeepsMapping(t *testing.T) {
	path := writeCredentialsFile(t, t.TempDir(), twoViewers)
	f, err := NewFile(path, nil)
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}

	before := testutil.ToFloat64(metrics.CredentialReloads.WithLabelValues("error"))
	if err := os.WriteFile(path, []byte("viewers: [broken\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := f.Reload(); err == nil {
		t.Fatal("Reload() expected error for broken file")
	}

	if got := testutil.ToFloat64(metrics.CredentialReloads.WithLabelValues("error")) - before; got != 1 {
		t.Errorf("error reloads delta = %v, want 1", got)
	}
	if _, ok := f.Lookup("alice"); !ok {
		t.Error("previous mapping should survive a failed reload")
	}
}

func TestFile_ServeReloadsOnChange(t *testing.T) {
	path := writeCredentialsFile(t, t.TempDir(), twoViewers)
	f, err := NewFile(path, nil)
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.Serve(ctx) }()

	// Give the watcher a moment to register before writing.
	time.Sleep(100 * time.Millisecond)
	updated := twoViewers + `  - viewer: carol
    username: carol_lb
    password: c-pass
`
	if err := os.WriteFile(path, []byte(updated), 0o600); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		if _, ok := f.Lookup("carol"); ok {
			break
		}
		select {
		case <-deadline:
			cancel()
			t.Fatal("credentials file change was not picked up")
		case <-time.After(20 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() error = %v, want context.Canceled", err)
	}
	if f.String() != "credentials-watcher" {
		t.Errorf("String() = %q", f.String())
	}
}

// A removed file ends the watch; a restarted Serve picks up the recreated file.
func TestFile_ServeReturnsWhenFileRemoved(t *testing.T) {
	path := writeCredentialsFile(t, t.TempDir(), twoViewers)
	f, err := NewFile(path, nil)
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- f.Serve(ctx) }()

	time.Sleep(100 * time.Millisecond)
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-done:
		if err == nil || errors.Is(err, context.Canceled) {
			t.Fatalf("Serve() error = %v, want a watch error", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve kept blocking after the watched file was removed")
	}
	if _, ok := f.Lookup("alice"); !ok {
		t.Error("mapping lost after the file was removed")
	}

	updated := twoViewers + `  - viewer: carol
    username: carol_lb
    password: c-pass
`
	if err := os.WriteFile(path, []byte(updated), 0o600); err != nil {
		t.Fatal(err)
	}

	go func() { done <- f.Serve(ctx) }()
	deadline := time.After(5 * time.Second)
	for {
		if _, ok := f.Lookup("carol"); ok {
			break
		}
		select {
		case <-deadline:
			t.Fatal("recreated credentials file was not picked up")
		case <-time.After(20 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() error = %v, want context.Canceled", err)
	}
}
