// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package validators checks user input before it reaches the protocol
// adapter: login credentials, homeserver addresses and outgoing messages.
// Every rule has its own sentinel error so the UI can point at the field.
package validators

import "context"

// Validator validates a value. When fields are given, only those fields are
// checked.
type Validator interface {
	Validate(ctx context.Context, value any, fields ...string) error
}
