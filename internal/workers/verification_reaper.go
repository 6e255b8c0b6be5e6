// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"time"

	"github.com/MKhiriev/go-multimatrix/internal/logger"
)

// VerificationReaper periodically abandons emoji verifications left
// unconfirmed past their timeout and drops outcomes the user has seen or
// that outlived their retention.
type VerificationReaper struct {
	reaper   Reaper
	interval time.Duration

	logger *logger.Logger
}

func NewVerificationReaper(reaper Reaper, interval time.Duration, log *logger.Logger) *VerificationReaper {
	return &VerificationReaper{
		reaper:   reaper,
		interval: interval,
		logger:   &logger.Logger{Logger: log.With().Str("worker", "verification-reaper").Logger()},
	}
}

// Run reaps on every tick until ctx ends.
func (v *VerificationReaper) Run(ctx context.Context) {
	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()

	v.logger.Debug().Dur("interval", v.interval).Msg("verification reaper started")
	for {
		select {
		case <-ctx.Done():
			v.logger.Debug().Msg("verification reaper stopped")
			return
		case now := <-ticker.C:
			if dropped := v.reaper.ReapVerifications(now); dropped > 0 {
				v.logger.Info().Int("dropped", dropped).Msg("verifications reaped")
			}
		}
	}
}
