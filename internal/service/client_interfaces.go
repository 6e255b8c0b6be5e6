package service

import (
	"context"

	"github.com/MKhiriev/go-multimatrix/models"
)

// Publisher receives domain events. [dispatcher.Dispatcher] implements it.
type Publisher interface {
	Publish(ev models.DomainEvent)
	PublishAll(events []models.DomainEvent)
}

// AppInfoService reports build metadata for diagnostics.
type AppInfoService interface {
	// GetAppVersion returns the configured version string.
	GetAppVersion(ctx context.Context) string
}
