// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container for the
// go-multimatrix client. It aggregates all sub-configurations and is
// populated by merging values from environment variables, command-line flags,
// and an optional JSON file.
//
// Struct tags:
//   - envPrefix: prefix applied to all nested env tag lookups (caarlos0/env).
//   - env: direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds application-level settings: the passphrase protecting
	// stored access tokens, the log file location and the version string.
	App App `envPrefix:"APP_"`

	// Storage holds the local persistence settings.
	Storage Storage `envPrefix:"STORAGE_"`

	// Adapter holds timeouts used by the Matrix protocol adapter.
	Adapter Adapter `envPrefix:"ADAPTER_"`

	// Sync holds retry and degradation settings of the per-account sync loops.
	Sync Sync `envPrefix:"SYNC_"`

	// Dispatcher holds the event feed buffering settings.
	Dispatcher Dispatcher `envPrefix:"DISPATCHER_"`

	// Media holds the download pipeline limits.
	Media Media `envPrefix:"MEDIA_"`

	// Verification holds timeouts of device verification flows.
	Verification Verification `envPrefix:"VERIFICATION_"`

	// Diagnostics holds the addresses of the optional local diagnostics
	// servers. Empty addresses disable the corresponding server.
	Diagnostics Diagnostics `envPrefix:"DIAGNOSTICS_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged on top of the values
	// already loaded from environment variables and flags.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// App holds application-level configuration values.
type App struct {
	// StorePassphrase protects access tokens persisted in the local store.
	// It is run through argon2id and never written to disk.
	// Env: APP_STORE_PASSPHRASE
	StorePassphrase string `env:"STORE_PASSPHRASE"`

	// LogFile is the path of the JSON log file. The terminal is owned by the
	// TUI, so logs never go to stdout.
	// Env: APP_LOG_FILE
	LogFile string `env:"LOG_FILE"`

	// Version is the semantic version string of the running application.
	// Env: APP_VERSION
	Version string `env:"VERSION"`
}

// Storage groups the configuration for local persistence.
type Storage struct {
	// DB holds the sqlite database settings.
	DB DB `envPrefix:"DB_"`
}

// DB holds connection settings for the local sqlite database.
type DB struct {
	// DSN is the sqlite database file path (e.g. "multimatrix.db").
	// Env: STORAGE_DB_DSN
	DSN string `env:"DSN"`
}

// Adapter holds settings of the Matrix client-server adapter.
type Adapter struct {
	// RequestTimeout bounds ordinary (non long-poll) requests.
	// Env: ADAPTER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	// SyncTimeout is the server-side long-poll timeout passed to /sync.
	// Env: ADAPTER_SYNC_TIMEOUT
	SyncTimeout time.Duration `env:"SYNC_TIMEOUT"`

	// DeviceName is the initial device display name used on login.
	// Env: ADAPTER_DEVICE_NAME
	DeviceName string `env:"DEVICE_NAME"`
}

// Sync holds the retry policy of the per-account sync loops.
type Sync struct {
	// BackoffBase is the first retry delay after a failed sync request.
	// Env: SYNC_BACKOFF_BASE
	BackoffBase time.Duration `env:"BACKOFF_BASE"`

	// BackoffMax caps the retry delay.
	// Env: SYNC_BACKOFF_MAX
	BackoffMax time.Duration `env:"BACKOFF_MAX"`

	// DegradedAfter is the number of consecutive failures after which a
	// synced account is marked Degraded.
	// Env: SYNC_DEGRADED_AFTER
	DegradedAfter int `env:"DEGRADED_AFTER"`

	// KeyFetchTimeout bounds the best-effort room key fetch issued after a
	// decryption failure.
	// Env: SYNC_KEY_FETCH_TIMEOUT
	KeyFetchTimeout time.Duration `env:"KEY_FETCH_TIMEOUT"`
}

// Dispatcher holds event feed settings.
type Dispatcher struct {
	// BufferPerAccount is the number of pending events retained per account
	// before the oldest non-critical events are dropped.
	// Env: DISPATCHER_BUFFER_PER_ACCOUNT
	BufferPerAccount int `env:"BUFFER_PER_ACCOUNT"`
}

// Media holds the media download pipeline limits.
type Media struct {
	// MaxConcurrent is the number of simultaneous downloads.
	// Env: MEDIA_MAX_CONCURRENT
	MaxConcurrent int `env:"MAX_CONCURRENT"`

	// ByteBudget is the largest accepted media item, in bytes.
	// Env: MEDIA_BYTE_BUDGET
	ByteBudget int64 `env:"BYTE_BUDGET"`
}

// Verification holds device verification timeouts.
type Verification struct {
	// SASTimeout abandons an interactive verification left unconfirmed.
	// Env: VERIFICATION_SAS_TIMEOUT
	SASTimeout time.Duration `env:"SAS_TIMEOUT"`

	// RetainOutcome is how long a finished verification is kept for the UI.
	// Env: VERIFICATION_RETAIN_OUTCOME
	RetainOutcome time.Duration `env:"RETAIN_OUTCOME"`

	// ReapInterval is the period of the verification reaper worker.
	// Env: VERIFICATION_REAP_INTERVAL
	ReapInterval time.Duration `env:"REAP_INTERVAL"`
}

// Diagnostics holds the local diagnostics server addresses.
type Diagnostics struct {
	// HTTPAddress is the host:port of the diagnostics HTTP API.
	// Env: DIAGNOSTICS_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// GRPCAddress is the host:port of the gRPC health service.
	// Env: DIAGNOSTICS_GRPC_ADDRESS
	GRPCAddress string `env:"GRPC_ADDRESS"`
}

// GetStructuredConfig loads, merges, and validates the application
// configuration from all available sources in the following priority order
// (an earlier source wins for non-zero fields):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON file (path resolved from sources 1 and 2, otherwise
//     multimatrix/config.json in the user config directory when present)
//
// Returns a fully populated *StructuredConfig or an error if any source
// fails to load or the final config fails validation.
func GetStructuredConfig() (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		build()
}
