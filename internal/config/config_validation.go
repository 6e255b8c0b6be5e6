// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import "strings"

// validate checks that the final merged [StructuredConfig] satisfies all
// application invariants before it is used at startup.
//
// Negative numbers are the only thing that can be wrong at this stage;
// zero values are filled with defaults by [NewClientConfig].
func (cfg *StructuredConfig) validate() error {
	if cfg.Sync.DegradedAfter < 0 || cfg.Sync.BackoffBase < 0 || cfg.Sync.BackoffMax < 0 {
		return ErrInvalidSyncConfigs
	}

	if cfg.Media.MaxConcurrent < 0 || cfg.Media.ByteBudget < 0 {
		return ErrInvalidMediaConfigs
	}

	if cfg.Dispatcher.BufferPerAccount < 0 {
		return ErrInvalidDispatcherConfigs
	}

	return nil
}

func (cfg *ClientConfig) validate() error {
	if cfg.Storage.DB.DSN == "" || strings.Contains(cfg.Storage.DB.DSN, ":memory:") {
		return ErrInvalidStorageConfigs
	}

	if cfg.Adapter.RequestTimeout <= 0 || cfg.Adapter.SyncTimeout <= 0 {
		return ErrInvalidAdapterConfigs
	}

	if cfg.Sync.BackoffBase > cfg.Sync.BackoffMax || cfg.Sync.DegradedAfter < 1 {
		return ErrInvalidSyncConfigs
	}

	if cfg.App.StorePassphrase == "" {
		return ErrInvalidAppConfigs
	}

	return nil
}
