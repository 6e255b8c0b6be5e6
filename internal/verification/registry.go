package verification

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/MKhiriev/go-multimatrix/internal/config"
	"github.com/MKhiriev/go-multimatrix/internal/logger"
	"github.com/MKhiriev/go-multimatrix/internal/utils"
	"github.com/MKhiriev/go-multimatrix/models"
)

// Registry owns every verification of the process.
type Registry struct {
	mu       sync.RWMutex
	machines map[string]*Machine

	timeout time.Duration
	retain  time.Duration
	now     func() time.Time

	ids       *utils.UUIDGenerator
	publisher Publisher
	log       *logger.Logger
}

// NewRegistry creates a registry whose verifications time out after
// cfg.SASTimeout and whose outcomes are kept for cfg.RetainOutcome.
func NewRegistry(cfg config.ClientVerification, publisher Publisher, log *logger.Logger) *Registry {
	return &Registry{
		machines:  make(map[string]*Machine),
		timeout:   cfg.SASTimeout,
		retain:    cfg.RetainOutcome,
		now:       time.Now,
		ids:       utils.NewUUIDGenerator(),
		publisher: publisher,
		log:       log,
	}
}

// Create registers a new verification in Idle.
func (r *Registry) Create(accountID, deviceID string, kind models.VerificationKind, client Client) *Machine {
	m := newMachine(r.ids.Generate(), accountID, deviceID, kind, client, r.publisher, r.now, r.timeout, r.log.ForAccount(accountID))

	r.mu.Lock()
	r.machines[m.id] = m
	r.mu.Unlock()

	return m
}

func (r *Registry) Get(id string) (*Machine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.machines[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVerification, id)
	}
	return m, nil
}

// Acknowledge marks the outcome as shown to the user; the next Reap drops
// the verification.
func (r *Registry) Acknowledge(id string) error {
	m, err := r.Get(id)
	if err != nil {
		return err
	}
	m.acknowledge()
	return nil
}

// List returns snapshots of every retained verification, oldest first.
func (r *Registry) List() []models.VerificationInfo {
	r.mu.RLock()
	infos := make([]models.VerificationInfo, 0, len(r.machines))
	for _, m := range r.machines {
		infos = append(infos, m.Info())
	}
	r.mu.RUnlock()

	slices.SortFunc(infos, func(a, b models.VerificationInfo) int {
		if c := a.StartedAt.Compare(b.StartedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return infos
}

// AbandonAccount force-abandons the pending verifications of a removed
// account and returns how many were affected.
func (r *Registry) AbandonAccount(ctx context.Context, accountID string) int {
	r.mu.RLock()
	var pending []*Machine
	for _, m := range r.machines {
		if m.accountID == accountID {
			pending = append(pending, m)
		}
	}
	r.mu.RUnlock()

	abandoned := 0
	for _, m := range pending {
		if err := m.Cancel(ctx); err == nil {
			abandoned++
		}
	}
	return abandoned
}

// Reap expires overdue verifications and discards outcomes that were
// acknowledged or retained long enough. It returns the number discarded.
func (r *Registry) Reap(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	discarded := 0
	for id, m := range r.machines {
		if m.Expire(now) {
			r.log.Info().Str("verification_id", id).Msg("verification timed out")
		}
		if m.discardable(now, r.retain) {
			delete(r.machines, id)
			discarded++
		}
	}
	return discarded
}

// Len returns the number of retained verifications.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.machines)
}
