package config

import (
	"fmt"
	"time"
)

const (
	defaultDSN              = "multimatrix.db"
	defaultLogFile          = "multimatrix.log"
	defaultRequestTimeout   = 30 * time.Second
	defaultSyncTimeout      = 30 * time.Second
	defaultDeviceName       = "go-multimatrix"
	defaultBackoffBase      = time.Second
	defaultBackoffMax       = 2 * time.Minute
	defaultDegradedAfter    = 5
	defaultKeyFetchTimeout  = 10 * time.Second
	defaultBufferPerAccount = 256
	defaultMediaConcurrent  = 4
	defaultMediaByteBudget  = 32 << 20
	defaultSASTimeout       = 10 * time.Minute
	defaultRetainOutcome    = 30 * time.Second
	defaultReapInterval     = 5 * time.Second
)

// ClientApp holds client-side application settings.
type ClientApp struct {
	StorePassphrase string
	LogFile         string
	Version         string
}

// ClientAdapter holds Matrix adapter settings.
type ClientAdapter struct {
	// RequestTimeout is the default timeout for outbound requests.
	RequestTimeout time.Duration
	// SyncTimeout is the long-poll timeout; the HTTP deadline of a sync
	// request is SyncTimeout + RequestTimeout.
	SyncTimeout time.Duration
	DeviceName  string
}

// ClientDB contains local database connection settings for the client.
type ClientDB struct {
	// DSN is the sqlite file path.
	DSN string
}

// ClientStorage groups client storage backend settings.
type ClientStorage struct {
	DB ClientDB
}

// ClientSync is the retry policy of every account sync loop.
type ClientSync struct {
	BackoffBase     time.Duration
	BackoffMax      time.Duration
	DegradedAfter   int
	KeyFetchTimeout time.Duration
}

// ClientDispatcher configures the event feed.
type ClientDispatcher struct {
	BufferPerAccount int
}

// ClientMedia configures the media pipeline.
type ClientMedia struct {
	MaxConcurrent int
	ByteBudget    int64
}

// ClientVerification configures verification timeouts.
type ClientVerification struct {
	SASTimeout    time.Duration
	RetainOutcome time.Duration
	ReapInterval  time.Duration
}

// ClientDiagnostics configures the optional diagnostics servers.
type ClientDiagnostics struct {
	HTTPAddress string
	GRPCAddress string
}

// ClientConfig is the top-level client configuration assembled from
// [StructuredConfig] with defaults applied.
type ClientConfig struct {
	App          ClientApp
	Adapter      ClientAdapter
	Storage      ClientStorage
	Sync         ClientSync
	Dispatcher   ClientDispatcher
	Media        ClientMedia
	Verification ClientVerification
	Diagnostics  ClientDiagnostics
}

// GetClientConfig builds and validates the client config from the merged
// structured configuration.
func GetClientConfig() (*ClientConfig, error) {
	cfg, err := GetStructuredConfig()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	clientCfg := NewClientConfig(cfg)

	return clientCfg, clientCfg.validate()
}

// NewClientConfig maps cfg onto a [ClientConfig], filling every unset field
// with its default.
func NewClientConfig(cfg *StructuredConfig) *ClientConfig {
	return &ClientConfig{
		App: ClientApp{
			StorePassphrase: cfg.App.StorePassphrase,
			LogFile:         orDefault(cfg.App.LogFile, defaultLogFile),
			Version:         cfg.App.Version,
		},
		Adapter: ClientAdapter{
			RequestTimeout: orDefault(cfg.Adapter.RequestTimeout, defaultRequestTimeout),
			SyncTimeout:    orDefault(cfg.Adapter.SyncTimeout, defaultSyncTimeout),
			DeviceName:     orDefault(cfg.Adapter.DeviceName, defaultDeviceName),
		},
		Storage: ClientStorage{
			DB: ClientDB{
				DSN: orDefault(cfg.Storage.DB.DSN, defaultDSN),
			},
		},
		Sync: ClientSync{
			BackoffBase:     orDefault(cfg.Sync.BackoffBase, defaultBackoffBase),
			BackoffMax:      orDefault(cfg.Sync.BackoffMax, defaultBackoffMax),
			DegradedAfter:   orDefault(cfg.Sync.DegradedAfter, defaultDegradedAfter),
			KeyFetchTimeout: orDefault(cfg.Sync.KeyFetchTimeout, defaultKeyFetchTimeout),
		},
		Dispatcher: ClientDispatcher{
			BufferPerAccount: orDefault(cfg.Dispatcher.BufferPerAccount, defaultBufferPerAccount),
		},
		Media: ClientMedia{
			MaxConcurrent: orDefault(cfg.Media.MaxConcurrent, defaultMediaConcurrent),
			ByteBudget:    orDefault(cfg.Media.ByteBudget, defaultMediaByteBudget),
		},
		Verification: ClientVerification{
			SASTimeout:    orDefault(cfg.Verification.SASTimeout, defaultSASTimeout),
			RetainOutcome: orDefault(cfg.Verification.RetainOutcome, defaultRetainOutcome),
			ReapInterval:  orDefault(cfg.Verification.ReapInterval, defaultReapInterval),
		},
		Diagnostics: ClientDiagnostics{
			HTTPAddress: cfg.Diagnostics.HTTPAddress,
			GRPCAddress: cfg.Diagnostics.GRPCAddress,
		},
	}
}

func orDefault[T comparable](value, fallback T) T {
	var zero T
	if value == zero {
		return fallback
	}
	return value
}
