package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MKhiriev/go-multimatrix/internal/adapter"
	"github.com/MKhiriev/go-multimatrix/internal/client"
	"github.com/MKhiriev/go-multimatrix/internal/config"
	"github.com/MKhiriev/go-multimatrix/internal/logger"
	"github.com/MKhiriev/go-multimatrix/internal/service"
	"github.com/MKhiriev/go-multimatrix/internal/store"
	"github.com/MKhiriev/go-multimatrix/internal/tui"
	"github.com/MKhiriev/go-multimatrix/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	cfg, err := config.GetClientConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error getting configs: %v\n", err)
		os.Exit(1)
	}
	if cfg.App.Version == "" {
		cfg.App.Version = buildVersion
	}

	log, logCloser := logger.NewClientLogger("multimatrix-client", cfg.App.LogFile)
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storages, err := store.NewClientStorages(ctx, cfg.Storage, cfg.App.StorePassphrase, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create local storage")
	}

	engine, err := service.NewEngine(cfg, storages, adapter.NewFactory(cfg.Adapter, log), log)
	if err != nil {
		log.Fatal().Err(err).Msg("create engine")
	}

	ui, err := tui.New(engine, models.NewAppBuildInfo(buildVersion, buildDate, buildCommit), log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating ui")
	}

	app, err := client.NewApp(engine, storages, ui, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init client app error")
	}

	if err = app.Run(ctx); err != nil {
		log.Error().Err(err).Msg("client run error")
		fmt.Fprintf(os.Stderr, "multimatrix: %v\n", err)
		stop()
		logCloser.Close()
		os.Exit(1)
	}
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}
	if buildDate == "" {
		buildDate = "N/A"
	}
	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
