// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client implements the interactive client application runtime.
//
// It restores stored sessions, starts background workers and the optional
// diagnostics servers, runs the terminal UI and tears everything down in
// order when the UI exits.
package client
