// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package grpc exposes the standard gRPC health service for the client.
//
// The overall service ("") is SERVING while the client runs. Every account
// is reported under its own service name (see [ServiceName]): SERVING while
// the account is Synced, NOT_SERVING otherwise and SERVICE_UNKNOWN once the
// account is removed.
package grpc

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/MKhiriev/go-multimatrix/internal/dispatcher"
	"github.com/MKhiriev/go-multimatrix/internal/logger"
	"github.com/MKhiriev/go-multimatrix/models"
)

// Engine is the part of the engine the health service follows.
type Engine interface {
	Accounts() []models.Account
	Subscribe(fn dispatcher.Subscriber)
}

// Handler is the root gRPC transport handler.
//
// It keeps the health server in step with account status events. A handler
// instance is created once at startup and registered on the gRPC server.
type Handler struct {
	engine Engine
	health *health.Server

	logger *logger.Logger
}

// NewHandler constructs a [Handler]. Nothing is read from engine until
// [Handler.Register].
func NewHandler(engine Engine, logger *logger.Logger) *Handler {
	logger.Debug().Msg("gRPC handler created")
	return &Handler{
		engine: engine,
		health: health.NewServer(),
		logger: logger,
	}
}

// ServiceName is the health service name of one account.
func ServiceName(accountID string) string {
	return "multimatrix.account/" + accountID
}

// Register adds the health service to s, publishes the current status of
// every account and starts following status changes.
func (h *Handler) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.health)

	h.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	for _, account := range h.engine.Accounts() {
		h.health.SetServingStatus(ServiceName(account.UserID), servingStatus(account.Status))
	}
	h.engine.Subscribe(h.handleEvent)
}

// Shutdown reports NOT_SERVING for every service.
func (h *Handler) Shutdown() {
	h.health.Shutdown()
}

func (h *Handler) handleEvent(ev models.DomainEvent) {
	switch ev.Kind {
	case models.EventAccountStatusChanged:
		status := servingStatus(ev.Status)
		h.health.SetServingStatus(ServiceName(ev.AccountID), status)
		h.logger.Debug().Str("account", ev.AccountID).Str("health", status.String()).Msg("health status updated")
	case models.EventAccountRemoved:
		h.health.SetServingStatus(ServiceName(ev.AccountID), healthpb.HealthCheckResponse_SERVICE_UNKNOWN)
	}
}

func servingStatus(status models.AccountStatus) healthpb.HealthCheckResponse_ServingStatus {
	if status == models.StatusSynced {
		return healthpb.HealthCheckResponse_SERVING
	}
	return healthpb.HealthCheckResponse_NOT_SERVING
}
