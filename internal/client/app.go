package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/MKhiriev/go-multimatrix/internal/config"
	"github.com/MKhiriev/go-multimatrix/internal/handler"
	"github.com/MKhiriev/go-multimatrix/internal/logger"
	"github.com/MKhiriev/go-multimatrix/internal/server"
	"github.com/MKhiriev/go-multimatrix/internal/service"
	"github.com/MKhiriev/go-multimatrix/internal/store"
	"github.com/MKhiriev/go-multimatrix/internal/tui"
	"github.com/MKhiriev/go-multimatrix/internal/workers"
)

const shutdownTimeout = 5 * time.Second

var _ Engine = (*service.Engine)(nil)

type App struct {
	engine   Engine
	storages io.Closer
	ui       UI
	workers  Runner
	// server is nil when no diagnostics address is configured.
	server server.Server
	logger *logger.Logger
}

// NewApp wires the runtime around an engine. Diagnostics servers are created
// only when an address is configured.
func NewApp(engine *service.Engine, storages *store.ClientStorages, ui *tui.TUI, cfg *config.ClientConfig, log *logger.Logger) (*App, error) {
	var diagnostics server.Server
	if cfg.Diagnostics.HTTPAddress != "" || cfg.Diagnostics.GRPCAddress != "" {
		handlers, err := handler.NewHandlers(engine, cfg.Diagnostics, log)
		if err != nil {
			return nil, fmt.Errorf("create diagnostics handlers: %w", err)
		}
		diagnostics, err = server.NewServer(handlers, cfg.Diagnostics, log)
		if err != nil {
			return nil, fmt.Errorf("create diagnostics server: %w", err)
		}
	}

	return newApp(engine, storages, ui, workers.NewWorkers(engine, cfg.Verification, log), diagnostics, log), nil
}

func newApp(engine Engine, storages io.Closer, ui UI, w Runner, srv server.Server, log *logger.Logger) *App {
	return &App{
		engine:   engine,
		storages: storages,
		ui:       ui,
		workers:  w,
		server:   srv,
		logger:   log,
	}
}

// Run restores stored accounts and blocks in the UI. Only
// [service.ErrResourceExhausted] aborts startup; accounts that fail to restore
// stay listed as logged out.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer a.shutdown()
	defer cancel()

	accounts, err := a.engine.RestoreAccounts(ctx)
	if err != nil {
		if errors.Is(err, service.ErrResourceExhausted) {
			return fmt.Errorf("restore accounts: %w", err)
		}
		a.logger.Warn().Err(err).Msg("some accounts could not be restored")
	}
	a.logger.Info().Int("accounts", len(accounts)).Msg("accounts restored")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.workers.Run(ctx)
	}()

	if a.server != nil {
		if err = a.server.RunServer(); err != nil {
			// diagnostics are optional
			a.logger.Err(err).Msg("diagnostics servers did not start")
			a.server = nil
		}
	}

	err = a.ui.Run(ctx)
	cancel()
	wg.Wait()

	if errors.Is(err, tui.ErrUserQuit) {
		a.logger.Info().Msg("quit by user")
		return nil
	}
	return err
}

// shutdown stops diagnostics first so no request observes a closed engine,
// then the engine, then the store it writes to.
func (a *App) shutdown() {
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		a.server.Shutdown(ctx)
		cancel()
	}

	a.engine.Close()

	if err := a.storages.Close(); err != nil {
		a.logger.Err(err).Msg("error closing local store")
	}
	a.logger.Info().Msg("client stopped")
}
