// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import (
	"context"

	"github.com/MKhiriev/go-multimatrix/models"
)

// Client defines the minimal lifecycle contract for runnable client
// applications.
type Client interface {
	// Run starts the client application and blocks until exit.
	Run(ctx context.Context) error
}

// Engine is the part of the engine the runtime drives directly.
type Engine interface {
	RestoreAccounts(ctx context.Context) ([]models.Account, error)
	Close()
}

// UI is the interactive front end. Run blocks until the user quits.
type UI interface {
	Run(ctx context.Context) error
}

// Runner is a set of background jobs bound to ctx.
type Runner interface {
	Run(ctx context.Context)
}
