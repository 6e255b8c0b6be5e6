// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package tui

import (
	"errors"
	"strings"

	"github.com/MKhiriev/go-multimatrix/internal/adapter"
	"github.com/MKhiriev/go-multimatrix/internal/service"
)

var (
	ErrUserQuit = errors.New("quit by user")
	ErrNoEngine = errors.New("tui: engine is required")
)

// humanizeError turns engine errors into a line for the status bar.
func humanizeError(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, adapter.ErrAuth):
		return "Login rejected by the homeserver"
	case errors.Is(err, service.ErrAccountExists):
		return "This account is already signed in"
	case errors.Is(err, service.ErrNothingToLoad):
		return "Beginning of the room reached"
	case errors.Is(err, adapter.ErrUnsupported):
		return "Not supported by this homeserver connection"
	case errors.Is(err, service.ErrSessionNotRunning):
		return "Account is logged out, sign in again with 'a'"
	}

	s := strings.ToLower(err.Error())
	if errors.Is(err, adapter.ErrNetwork) ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "no such host") ||
		strings.Contains(s, "i/o timeout") ||
		strings.Contains(s, "context deadline exceeded") {
		return "Network unavailable or homeserver unreachable"
	}

	return err.Error()
}
