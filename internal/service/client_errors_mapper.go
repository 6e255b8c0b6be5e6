// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"errors"
	"fmt"

	"github.com/MKhiriev/go-multimatrix/internal/adapter"
)

// mapRestoreError translates the adapter's answer to a persisted token into
// a service error. Transient failures are not errors here: the token stays
// installed and the sync loop retries.
func mapRestoreError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, adapter.ErrAuth):
		return fmt.Errorf("%w: %w", ErrInvalidSession, err)
	case errors.Is(err, adapter.ErrNetwork):
		return nil
	}

	return err
}

// mapLoginError keeps the adapter taxonomy but adds what the user should do.
func mapLoginError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, adapter.ErrAuth):
		return fmt.Errorf("login rejected: %w", err)
	case errors.Is(err, adapter.ErrNetwork):
		return fmt.Errorf("homeserver unreachable: %w", err)
	}

	return err
}
