package tui

import (
	"context"
	"time"

	"github.com/MKhiriev/go-multimatrix/internal/logger"
	"github.com/MKhiriev/go-multimatrix/models"
	tea "github.com/charmbracelet/bubbletea"
)

// pollInterval is how often the UI drains the dispatcher.
const pollInterval = 100 * time.Millisecond

// pollBatch bounds the events consumed per tick.
const pollBatch = 256

type TUI struct {
	engine    Engine
	buildInfo models.AppBuildInfo
	logger    *logger.Logger
}

func New(engine Engine, buildInfo models.AppBuildInfo, log *logger.Logger) (*TUI, error) {
	if engine == nil {
		return nil, ErrNoEngine
	}
	return &TUI{engine: engine, buildInfo: buildInfo, logger: log}, nil
}

// Run blocks until the user quits or ctx is cancelled.
func (t *TUI) Run(ctx context.Context) error {
	root := t.newRoot(ctx)

	program := tea.NewProgram(root, tea.WithAltScreen(), tea.WithContext(ctx))
	finalModel, err := program.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(RootModel)
	if !ok {
		return tea.ErrProgramKilled
	}
	if result.quitByUser {
		return ErrUserQuit
	}
	return nil
}

func (t *TUI) newRoot(ctx context.Context) RootModel {
	pages := map[string]tea.Model{
		pageLogin: NewLoginModel(ctx, t.engine),
		pageMain:  NewMainModel(ctx, t.engine, t.logger),
	}

	start := pageMain
	if len(t.engine.Accounts()) == 0 {
		start = pageLogin
	}
	return NewRootModel(pages, start, t.buildInfo)
}
