package config

import "errors"

// Validation errors returned by [StructuredConfig.validate] and
// [ClientConfig.validate] when required configuration groups are incomplete
// or invalid.
var (
	// ErrInvalidAdapterConfigs indicates invalid adapter timeouts.
	ErrInvalidAdapterConfigs = errors.New("invalid adapter configuration")
	// ErrInvalidStorageConfigs indicates invalid client storage settings
	// (for example, empty DSN or unsupported in-memory DSN).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidAppConfigs indicates invalid application-level settings
	// (for example, missing store passphrase).
	ErrInvalidAppConfigs = errors.New("invalid app configuration")
	// ErrInvalidSyncConfigs indicates an unusable retry policy.
	ErrInvalidSyncConfigs = errors.New("invalid sync configuration")
	// ErrInvalidMediaConfigs indicates negative media limits.
	ErrInvalidMediaConfigs = errors.New("invalid media configuration")
	// ErrInvalidDispatcherConfigs indicates a negative buffer size.
	ErrInvalidDispatcherConfigs = errors.New("invalid dispatcher configuration")
)
