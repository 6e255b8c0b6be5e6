package handler

import (
	"github.com/MKhiriev/go-multimatrix/internal/config"
	"github.com/MKhiriev/go-multimatrix/internal/handler/grpc"
	"github.com/MKhiriev/go-multimatrix/internal/handler/http"
	"github.com/MKhiriev/go-multimatrix/internal/logger"
	"github.com/MKhiriev/go-multimatrix/internal/service"
)

type Handlers struct {
	HTTP *http.Handler
	GRPC *grpc.Handler
}

// NewHandlers creates the handlers of the diagnostics transports enabled in
// cfg.
func NewHandlers(engine *service.Engine, cfg config.ClientDiagnostics, logger *logger.Logger) (*Handlers, error) {
	logger.Info().Msg("creating new handlers...")

	handlers := &Handlers{}

	if cfg.HTTPAddress != "" {
		handlers.HTTP = http.NewHandler(engine, logger)
	}
	if cfg.GRPCAddress != "" {
		handlers.GRPC = grpc.NewHandler(engine, logger)
	}

	if handlers.HTTP == nil && handlers.GRPC == nil {
		return nil, errNoHandlersAreCreated
	}

	return handlers, nil
}
