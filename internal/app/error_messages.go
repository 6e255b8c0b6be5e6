// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package app contains shared application-layer constants used by the
// diagnostics handlers.
//
// Msg* constants are the messages written into response bodies when the
// underlying error must not be shown to the caller.
package app

const (
	// MsgInternalServerError replaces the error text of every 500 answer.
	MsgInternalServerError = "internal server error"

	// MsgEngineClosed is returned while the client is shutting down.
	MsgEngineClosed = "client is shutting down"
)
