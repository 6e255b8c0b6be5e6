// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnvVars(t *testing.T, vars map[string]string) {
	t.Helper()
	for k, v := range vars {
		t.Setenv(k, v)
	}
}

func TestParseEnv_AllFields(t *testing.T) {
	// Arrange
	envVars := map[string]string{
		"CONFIG": "/path/to/config.json",

		"APP_STORE_PASSPHRASE": "correct horse",
		"APP_LOG_FILE":         "/tmp/mm.log",
		"APP_VERSION":          "1.2.3",

		"STORAGE_DB_DSN": "/var/lib/mm.db",

		"ADAPTER_REQUEST_TIMEOUT": "15s",
		"ADAPTER_SYNC_TIMEOUT":    "30s",
		"ADAPTER_DEVICE_NAME":     "laptop",

		"SYNC_BACKOFF_BASE":      "500ms",
		"SYNC_BACKOFF_MAX":       "1m",
		"SYNC_DEGRADED_AFTER":    "5",
		"SYNC_KEY_FETCH_TIMEOUT": "3s",

		"DISPATCHER_BUFFER_PER_ACCOUNT": "64",

		"MEDIA_MAX_CONCURRENT": "4",
		"MEDIA_BYTE_BUDGET":    "1048576",

		"VERIFICATION_SAS_TIMEOUT":    "5m",
		"VERIFICATION_RETAIN_OUTCOME": "10s",
		"VERIFICATION_REAP_INTERVAL":  "1s",

		"DIAGNOSTICS_ADDRESS":      "127.0.0.1:8080",
		"DIAGNOSTICS_GRPC_ADDRESS": "127.0.0.1:9090",
	}
	setEnvVars(t, envVars)

	// Act
	cfg := &StructuredConfig{}
	err := parseEnv(cfg)

	// Assert
	require.NoError(t, err)

	assert.Equal(t, "/path/to/config.json", cfg.JSONFilePath)
	assert.Equal(t, "correct horse", cfg.App.StorePassphrase)
	assert.Equal(t, "/tmp/mm.log", cfg.App.LogFile)
	assert.Equal(t, "1.2.3", cfg.App.Version)
	assert.Equal(t, "/var/lib/mm.db", cfg.Storage.DB.DSN)

	assert.Equal(t, 15*time.Second, cfg.Adapter.RequestTimeout)
	assert.Equal(t, 30*time.Second, cfg.Adapter.SyncTimeout)
	assert.Equal(t, "laptop", cfg.Adapter.DeviceName)

	assert.Equal(t, 500*time.Millisecond, cfg.Sync.BackoffBase)
	assert.Equal(t, time.Minute, cfg.Sync.BackoffMax)
	assert.Equal(t, 5, cfg.Sync.DegradedAfter)
	assert.Equal(t, 3*time.Second, cfg.Sync.KeyFetchTimeout)

	assert.Equal(t, 64, cfg.Dispatcher.BufferPerAccount)
	assert.Equal(t, 4, cfg.Media.MaxConcurrent)
	assert.Equal(t, int64(1048576), cfg.Media.ByteBudget)

	assert.Equal(t, 5*time.Minute, cfg.Verification.SASTimeout)
	assert.Equal(t, 10*time.Second, cfg.Verification.RetainOutcome)
	assert.Equal(t, time.Second, cfg.Verification.ReapInterval)

	assert.Equal(t, "127.0.0.1:8080", cfg.Diagnostics.HTTPAddress)
	assert.Equal(t, "127.0.0.1:9090", cfg.Diagnostics.GRPCAddress)
}

func TestParseEnv_InvalidDuration(t *testing.T) {
	t.Setenv("SYNC_BACKOFF_BASE", "soon")

	err := parseEnv(&StructuredConfig{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "error getting env configs")
}

func TestParseEnv_InvalidInt(t *testing.T) {
	t.Setenv("MEDIA_MAX_CONCURRENT", "four")

	err := parseEnv(&StructuredConfig{})

	require.Error(t, err)
}

func TestParseEnv_PassphraseIsRemovedFromEnvironment(t *testing.T) {
	t.Setenv("APP_STORE_PASSPHRASE", "correct horse")

	cfg := &StructuredConfig{}
	require.NoError(t, parseEnv(cfg))

	assert.Equal(t, "correct horse", cfg.App.StorePassphrase)
	_, present := os.LookupEnv("APP_STORE_PASSPHRASE")
	assert.False(t, present)
}
