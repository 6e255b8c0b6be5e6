package server

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-multimatrix/internal/config"
	"github.com/MKhiriev/go-multimatrix/internal/handler"
	"github.com/MKhiriev/go-multimatrix/internal/logger"
)

type server struct {
	httpServer *httpServer
	gRPCServer *grpcServer
	logger     *logger.Logger
}

// NewServer creates the servers enabled in cfg. handlers must carry a
// handler for every configured address.
func NewServer(handlers *handler.Handlers, cfg config.ClientDiagnostics, logger *logger.Logger) (Server, error) {
	logger.Info().Msg("creating diagnostics servers...")
	servers := &server{logger: logger}

	if cfg.HTTPAddress != "" && handlers.HTTP != nil {
		servers.httpServer = newHTTPServer(handlers.HTTP.Init(), cfg.HTTPAddress, logger)
	}
	if cfg.GRPCAddress != "" && handlers.GRPC != nil {
		servers.gRPCServer = newGRPCServer(handlers.GRPC, cfg.GRPCAddress, logger)
	}

	if servers.httpServer == nil && servers.gRPCServer == nil {
		return nil, errNoServersAreCreated
	}

	return servers, nil
}

// RunServer starts every created server. A server that fails to listen
// stops the ones already started.
func (s *server) RunServer() error {
	if s.httpServer != nil {
		s.logger.Info().Msg("Launching HTTP server")
		if err := s.httpServer.RunServer(); err != nil {
			return fmt.Errorf("start diagnostics HTTP server: %w", err)
		}
	}
	if s.gRPCServer != nil {
		s.logger.Info().Msg("Launching GRPC server")
		if err := s.gRPCServer.RunServer(); err != nil {
			if s.httpServer != nil {
				s.httpServer.Shutdown(context.Background())
			}
			return fmt.Errorf("start gRPC health server: %w", err)
		}
	}
	return nil
}

func (s *server) Shutdown(ctx context.Context) {
	if s.httpServer != nil {
		s.httpServer.Shutdown(ctx)
	}
	if s.gRPCServer != nil {
		s.gRPCServer.Shutdown(ctx)
	}
	s.logger.Info().Msg("diagnostics servers stopped")
}
