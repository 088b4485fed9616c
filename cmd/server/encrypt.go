// Jellyboxd - Jellyfin to Letterboxd Watch Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jellyboxd

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tomtom215/jellyboxd/internal/credentials"
)

// encryptPassword reads one password line from r and writes its "enc:" form
// to w, for pasting into the credentials file or LETTERBOXD_PASS.
func encryptPassword(key string, r io.Reader, w io.Writer) error {
	if key == "" {
		return credentials.ErrNoEncryptionKey
	}
	enc, err := credentials.NewEncryptor(key)
	if err != nil {
		return err
	}

	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return credentials.ErrEmptyPlaintext
	}

	sealed, err := enc.Seal(password)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, sealed)
	return err
}
