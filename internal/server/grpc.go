package server

import (
	"context"
	"net"

	"google.golang.org/grpc"

	myGRPC "github.com/MKhiriev/go-multimatrix/internal/handler/grpc"
	"github.com/MKhiriev/go-multimatrix/internal/logger"
)

type grpcServer struct {
	handler *myGRPC.Handler
	address string
	addr    net.Addr

	server *grpc.Server

	logger *logger.Logger
}

func newGRPCServer(handler *myGRPC.Handler, address string, logger *logger.Logger) *grpcServer {
	server := grpc.NewServer()
	handler.Register(server)

	return &grpcServer{
		handler: handler,
		address: address,
		server:  server,
		logger:  logger,
	}
}

func (g *grpcServer) RunServer() error {
	listener, err := net.Listen("tcp", g.address)
	if err != nil {
		return err
	}

	g.addr = listener.Addr()
	g.logger.Info().Str("address", g.addr.String()).Msg("gRPC health server listening")
	go func() {
		if err := g.server.Serve(listener); err != nil {
			g.logger.Error().Err(err).Msg("gRPC server Serve")
		}
	}()
	return nil
}

// Shutdown reports NOT_SERVING first, then drains in-flight checks. Calls
// still pending when ctx ends are cut off.
func (g *grpcServer) Shutdown(ctx context.Context) {
	g.logger.Info().Msg("gRPC server Shutdown")
	g.handler.Shutdown()

	stopped := make(chan struct{})
	go func() {
		g.server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-ctx.Done():
		g.server.Stop()
	}
}
