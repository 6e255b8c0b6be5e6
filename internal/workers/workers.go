package workers

import (
	"context"
	"sync"

	"github.com/MKhiriev/go-multimatrix/internal/config"
	"github.com/MKhiriev/go-multimatrix/internal/logger"
)

type Workers struct {
	workers []Worker
}

// NewWorkers builds every worker of the client.
func NewWorkers(reaper Reaper, cfg config.ClientVerification, log *logger.Logger) *Workers {
	return &Workers{workers: []Worker{
		NewVerificationReaper(reaper, cfg.ReapInterval, log),
	}}
}

// Run starts every worker and blocks until all of them returned.
func (w *Workers) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, worker := range w.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker.Run(ctx)
		}()
	}
	wg.Wait()
}
