// Jellyboxd - Jellyfin to Letterboxd Watch Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jellyboxd

package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/tomtom215/jellyboxd/internal/credentials"
)

func TestEncryptPassword_RoundTrip(t *testing.T) {
	const key = "a-long-enough-test-encryption-key"
	var out bytes.Buffer

	if err := encryptPassword(key, strings.NewReader("hunter2\n"), &out); err != nil {
		t.Fatalf("encryptPassword() error = %v", err)
	}

	sealed := strings.TrimSpace(out.String())
	if !credentials.IsEncrypted(sealed) {
		t.Fatalf("output %q is not in enc: form", sealed)
	}

	enc, err := credentials.NewEncryptor(key)
	if err != nil {
		t.Fatal(err)
	}
	plain, err := enc.Open(sealed)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if plain != "hunter2" {
		t.Errorf("round trip = %q, want hunter2", plain)
	}
}

func TestEncryptPassword_Errors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		input string
		want  error
	}{
		{"missing key", "", "hunter2\n", credentials.ErrNoEncryptionKey},
		{"empty password", "a-long-enough-test-encryption-key", "\n", credentials.ErrEmptyPlaintext},
		{"no input", "a-long-enough-test-encryption-key", "", credentials.ErrEmptyPlaintext},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := encryptPassword(tt.key, strings.NewReader(tt.input), &bytes.Buffer{})
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEncryptPassword_NoTrailingNewline(t *testing.T) {
	var out bytes.Buffer
	if err := encryptPassword("a-long-enough-test-encryption-key", strings.NewReader("pw"), &out); err != nil {
		t.Fatalf("encryptPassword() error = %v", err)
	}
	if !strings.HasSuffix(out.String(), "\n") {
		t.Error("output should end with a newline")
	}
}
