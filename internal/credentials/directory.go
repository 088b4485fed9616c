// Jellyboxd - Jellyfin to Letterboxd Watch Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jellyboxd

// Package credentials maps Jellyfin viewers to Letterboxd accounts.
//
// Three directories are provided:
//
//   - Static returns one account for every viewer (single-user mode)
//   - File reads a YAML list of viewer mappings and can reload it on change
//   - Chain consults several directories in order
//
// Passwords may be stored encrypted as "enc:<base64>"; they are decrypted
// once at load time and never logged.
package credentials

import (
	"fmt"
	"strings"

	"github.com/tomtom215/jellyboxd/internal/config"
)

// Credentials is one Letterboxd login.
type Credentials struct {
	Username string
	Password string
}

// String masks the password so Credentials can be logged safely.
func (c Credentials) String() string {
	return c.Username + ":" + MaskCredential(c.Password)
}

// Directory resolves a viewer to the credentials used for automation.
type Directory interface {
	Lookup(viewer string) (Credentials, bool)
}

// Static returns the same credentials for every viewer.
type Static struct {
	creds Credentials
}

// NewStatic returns a Static directory. An encrypted password is opened with enc.
func NewStatic(username, password string, enc *Encryptor) (*Static, error) {
	plain, err := Reveal(enc, password)
	if err != nil {
		return nil, fmt.Errorf("credentials.password: %w", err)
	}
	return &Static{creds: Credentials{Username: username, Password: plain}}, nil
}

// Lookup implements Directory.
func (s *Static) Lookup(string) (Credentials, bool) {
	return s.creds, true
}

// Chain tries each directory in order and returns the first match.
type Chain []Directory

// Lookup implements Directory.
func (c Chain) Lookup(viewer string) (Credentials, bool) {
	for _, d := range c {
		if creds, ok := d.Lookup(viewer); ok {
			return creds, true
		}
	}
	return Credentials{}, false
}

// New builds the directory described by cfg. When a credentials file is
// configured the returned *File is non-nil so the caller can supervise its
// watcher; the file takes precedence over static credentials.
func New(cfg config.CredentialsConfig) (Directory, *File, error) {
	var enc *Encryptor
	if cfg.EncryptionKey != "" {
		var err error
		if enc, err = NewEncryptor(cfg.EncryptionKey); err != nil {
			return nil, nil, err
		}
	}

	var chain Chain
	var file *File
	if cfg.File != "" {
		var err error
		if file, err = NewFile(cfg.File, enc); err != nil {
			return nil, nil, err
		}
		chain = append(chain, file)
	}
	if cfg.HasStatic() {
		static, err := NewStatic(cfg.Username, cfg.Password, enc)
		if err != nil {
			return nil, nil, err
		}
		chain = append(chain, static)
	}

	if len(chain) == 1 {
		return chain[0], file, nil
	}
	return chain, file, nil
}

// normalizeViewer is the key used for viewer matching. Jellyfin usernames
// are case-insensitive, so mappings are too.
func normalizeViewer(viewer string) string {
	return strings.ToLower(strings.TrimSpace(viewer))
}
