package http

import (
	"github.com/MKhiriev/go-multimatrix/internal/dispatcher"
	"github.com/MKhiriev/go-multimatrix/internal/logger"
	"github.com/MKhiriev/go-multimatrix/models"
)

// Diagnostics is the part of the engine the API reads from.
type Diagnostics interface {
	Version() string
	Accounts() []models.Account
	DroppedEvents() dispatcher.Stats
}

type Handler struct {
	engine Diagnostics

	logger *logger.Logger
}

func NewHandler(engine Diagnostics, logger *logger.Logger) *Handler {
	logger.Info().Msg("http handler created")
	return &Handler{
		engine: engine,
		logger: logger,
	}
}
