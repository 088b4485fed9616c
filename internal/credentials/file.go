// Jellyboxd - Jellyfin to Letterboxd Watch Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jellyboxd

package credentials

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/jellyboxd/internal/logging"
	"github.com/tomtom215/jellyboxd/internal/metrics"
	"github.com/tomtom215/jellyboxd/internal/validation"
)

// ErrDuplicateViewer is returned when a credentials file maps a viewer twice.
var ErrDuplicateViewer = errors.New("viewer mapped more than once")

// fileSchema is the layout of a credentials file:
//
//	viewers:
//	  - viewer: alice
//	    username: alice_lb
//	    password: enc:3q2+7w...
type fileSchema struct {
	Viewers []fileEntry `koanf:"viewers" validate:"required,min=1,dive"`
}

type fileEntry struct {
	Viewer   string `koanf:"viewer" validate:"required"`
	Username string `koanf:"username" validate:"required"`
	Password string `koanf:"password" validate:"required"`
}

// File is a Directory backed by a YAML credentials file.
//
// It also implements suture.Service: while running it watches the file and
// reloads it on change. A reload that fails keeps the previous mapping.
type File struct {
	path string
	enc  *Encryptor

	mu      sync.RWMutex
	entries map[string]Credentials
}

// NewFile loads path. The initial load must succeed.
func NewFile(path string, enc *Encryptor) (*File, error) {
	f := &File{path: path, enc: enc}
	if err := f.Reload(); err != nil {
		return nil, err
	}
	return f, nil
}

// Lookup implements Directory.
func (f *File) Lookup(viewer string) (Credentials, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	creds, ok := f.entries[normalizeViewer(viewer)]
	return creds, ok
}

// Len returns the number of mapped viewers.
func (f *File) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.entries)
}

// Reload re-reads the file and swaps the mapping in atomically.
func (f *File) Reload() error {
	entries, err := f.load()
	if err != nil {
		metrics.CredentialReloads.WithLabelValues("error").Inc()
		return fmt.Errorf("credentials file %s: %w", f.path, err)
	}

	f.mu.Lock()
	f.entries = entries
	f.mu.Unlock()

	metrics.CredentialReloads.WithLabelValues("success").Inc()
	metrics.CredentialEntries.Set(float64(len(entries)))
	return nil
}

func (f *File) load() (map[string]Credentials, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(f.path), yaml.Parser()); err != nil {
		return nil, err
	}

	var schema fileSchema
	if err := k.Unmarshal("", &schema); err != nil {
		return nil, fmt.Errorf("failed to unmarshal: %w", err)
	}
	if err := validation.ValidateStruct(&schema); err != nil {
		return nil, err
	}

	entries := make(map[string]Credentials, len(schema.Viewers))
	for i, e := range schema.Viewers {
		viewer := normalizeViewer(e.Viewer)
		if _, dup := entries[viewer]; dup {
			return nil, fmt.Errorf("viewers[%d]: %w: %s", i, ErrDuplicateViewer, e.Viewer)
		}
		password, err := Reveal(f.enc, e.Password)
		if err != nil {
			return nil, fmt.Errorf("viewers[%d].password: %w", i, err)
		}
		entries[viewer] = Credentials{Username: e.Username, Password: password}
	}
	return entries, nil
}

// Serve watches the file until ctx is canceled. The underlying watcher
// stops for good after reporting an error (the file was removed, say), so
// Serve returns that error and lets the supervisor restart it with a fresh
// watcher. Each start reloads the file to pick up changes made while no
// watcher was running.
func (f *File) Serve(ctx context.Context) error {
	provider := file.Provider(f.path)
	watchErr := make(chan error, 1)

	err := provider.Watch(func(_ interface{}, err error) {
		if err != nil {
			select {
			case watchErr <- err:
			default:
			}
			return
		}
		if err := f.Reload(); err != nil {
			logging.Error().Err(err).Msg("Credentials reload failed, keeping previous mapping")
			return
		}
		logging.Info().Int("viewers", f.Len()).Msg("Credentials file reloaded")
	})
	if err != nil {
		return fmt.Errorf("failed to watch credentials file: %w", err)
	}
	defer func() {
		if err := provider.Unwatch(); err != nil {
			logging.Warn().Err(err).Msg("Failed to stop credentials file watcher")
		}
	}()

	if err := f.Reload(); err != nil {
		logging.Error().Err(err).Msg("Credentials reload failed, keeping previous mapping")
	}
	logging.Info().Str("path", f.path).Msg("Watching credentials file for changes")

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-watchErr:
		logging.Warn().Err(err).Str("path", f.path).Msg("Credentials file watch stopped")
		return fmt.Errorf("credentials file watch stopped: %w", err)
	}
}

// String implements fmt.Stringer for suture logging.
func (f *File) String() string {
	return "credentials-watcher"
}
