package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StructuredJSONConfig mirrors [StructuredConfig] with JSON tags and
// string-friendly durations.
type StructuredJSONConfig struct {
	App struct {
		LogFile string `json:"log_file"`
		Version string `json:"version"`
	} `json:"app,omitempty"`

	Storage struct {
		DB struct {
			DSN string `json:"dsn"`
		} `json:"db,omitempty"`
	} `json:"storage,omitempty"`

	Adapter struct {
		RequestTimeout Duration `json:"request_timeout"`
		SyncTimeout    Duration `json:"sync_timeout"`
		DeviceName     string   `json:"device_name"`
	} `json:"adapter,omitempty"`

	Sync struct {
		BackoffBase     Duration `json:"backoff_base"`
		BackoffMax      Duration `json:"backoff_max"`
		DegradedAfter   int      `json:"degraded_after"`
		KeyFetchTimeout Duration `json:"key_fetch_timeout"`
	} `json:"sync,omitempty"`

	Dispatcher struct {
		BufferPerAccount int `json:"buffer_per_account"`
	} `json:"dispatcher,omitempty"`

	Media struct {
		MaxConcurrent int   `json:"max_concurrent"`
		ByteBudget    int64 `json:"byte_budget"`
	} `json:"media,omitempty"`

	Verification struct {
		SASTimeout    Duration `json:"sas_timeout"`
		RetainOutcome Duration `json:"retain_outcome"`
		ReapInterval  Duration `json:"reap_interval"`
	} `json:"verification,omitempty"`

	Diagnostics struct {
		HTTPAddress string `json:"http_address"`
		GRPCAddress string `json:"grpc_address"`
	} `json:"diagnostics,omitempty"`
}

// parseJSON reads the JSON file at jsonFilePath. The store passphrase is
// deliberately not readable from the file.
func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		App: App{
			LogFile: jsonCfg.App.LogFile,
			Version: jsonCfg.App.Version,
		},
		Storage: Storage{
			DB: DB{
				DSN: jsonCfg.Storage.DB.DSN,
			},
		},
		Adapter: Adapter{
			RequestTimeout: time.Duration(jsonCfg.Adapter.RequestTimeout),
			SyncTimeout:    time.Duration(jsonCfg.Adapter.SyncTimeout),
			DeviceName:     jsonCfg.Adapter.DeviceName,
		},
		Sync: Sync{
			BackoffBase:     time.Duration(jsonCfg.Sync.BackoffBase),
			BackoffMax:      time.Duration(jsonCfg.Sync.BackoffMax),
			DegradedAfter:   jsonCfg.Sync.DegradedAfter,
			KeyFetchTimeout: time.Duration(jsonCfg.Sync.KeyFetchTimeout),
		},
		Dispatcher: Dispatcher{
			BufferPerAccount: jsonCfg.Dispatcher.BufferPerAccount,
		},
		Media: Media{
			MaxConcurrent: jsonCfg.Media.MaxConcurrent,
			ByteBudget:    jsonCfg.Media.ByteBudget,
		},
		Verification: Verification{
			SASTimeout:    time.Duration(jsonCfg.Verification.SASTimeout),
			RetainOutcome: time.Duration(jsonCfg.Verification.RetainOutcome),
			ReapInterval:  time.Duration(jsonCfg.Verification.ReapInterval),
		},
		Diagnostics: Diagnostics{
			HTTPAddress: jsonCfg.Diagnostics.HTTPAddress,
			GRPCAddress: jsonCfg.Diagnostics.GRPCAddress,
		},
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
