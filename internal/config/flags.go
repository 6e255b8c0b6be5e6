package config

import (
	"errors"
	"flag"
	"net"
	"strconv"
	"strings"
	"time"
)

// NetAddress holds structured network address data for host and port.
// It implements the flag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// parseFlags parses all configuration flags from args.
//
// Flags:
//
//	-d sqlite database path
//	-c/-config json file path with configs
//	-log-file log file path
//	-request-timeout adapter request timeout (e.g., "30s")
//	-sync-timeout long-poll timeout (e.g., "30s")
//	-device-name device display name used on login
//	-degraded-after consecutive sync failures before an account is Degraded
//	-media-concurrency simultaneous media downloads
//	-dispatcher-buffer pending events kept per account
//	-diag-address diagnostics HTTP address in format [host]:[port]
//	-diag-grpc-address diagnostics gRPC address in format [host]:[port]
func parseFlags(args []string) (*StructuredConfig, error) {
	fs := flag.NewFlagSet("multimatrix", flag.ContinueOnError)

	var diagAddress, diagGRPCAddress NetAddress
	var databaseDSN string
	var jsonConfigPath string
	var logFile string
	var requestTimeout time.Duration
	var syncTimeout time.Duration
	var deviceName string
	var degradedAfter int
	var mediaConcurrency int
	var dispatcherBuffer int

	fs.StringVar(&databaseDSN, "d", "", "Database file path")
	fs.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	fs.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	fs.StringVar(&logFile, "log-file", "", "Log file path")
	fs.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")
	fs.DurationVar(&syncTimeout, "sync-timeout", 0, "Sync long-poll timeout (e.g., 30s)")
	fs.StringVar(&deviceName, "device-name", "", "Device display name")
	fs.IntVar(&degradedAfter, "degraded-after", 0, "Consecutive sync failures before Degraded")
	fs.IntVar(&mediaConcurrency, "media-concurrency", 0, "Simultaneous media downloads")
	fs.IntVar(&dispatcherBuffer, "dispatcher-buffer", 0, "Pending events kept per account")
	fs.Var(&diagAddress, "diag-address", "Diagnostics HTTP address host:port")
	fs.Var(&diagGRPCAddress, "diag-grpc-address", "Diagnostics gRPC address host:port")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return &StructuredConfig{
		App: App{
			LogFile: logFile,
		},
		Storage: Storage{
			DB: DB{
				DSN: databaseDSN,
			},
		},
		Adapter: Adapter{
			RequestTimeout: requestTimeout,
			SyncTimeout:    syncTimeout,
			DeviceName:     deviceName,
		},
		Sync: Sync{
			DegradedAfter: degradedAfter,
		},
		Dispatcher: Dispatcher{
			BufferPerAccount: dispatcherBuffer,
		},
		Media: Media{
			MaxConcurrent: mediaConcurrency,
		},
		Diagnostics: Diagnostics{
			HTTPAddress: diagAddress.String(),
			GRPCAddress: diagGRPCAddress.String(),
		},
		JSONFilePath: jsonConfigPath,
	}, nil
}

// String returns a canonical host:port string for a NetAddress.
// If neither Host nor Port are set, it returns an empty string.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Set parses the input string of form host:port and populates the NetAddress.
// It validates the port range, checks IP correctness unless host is "localhost",
// and returns an error if the format or values are invalid.
func (a *NetAddress) Set(s string) error {
	hostAndPort := strings.Split(s, ":")
	if len(hostAndPort) != 2 {
		return errors.New("need address in a form `host:port`")
	}

	host := hostAndPort[0]
	port, err := strconv.Atoi(hostAndPort[1])
	if err != nil {
		return err
	}

	if port < 1 {
		return errors.New("port number is a positive integer")
	}

	if host != "localhost" {
		ip := net.ParseIP(hostAndPort[0])
		if ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}
