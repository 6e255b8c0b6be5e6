// Package verification drives recovery-key and emoji (SAS) verification of
// the local device.
//
// A [Machine] is one verification attempt. It moves through
//
//	Idle → AwaitingSecret | AwaitingConfirmation → Verifying → Verified | Failed
//
// and can be abandoned from any non-terminal state. The [Registry] owns all
// machines of the process, expires stale ones and forgets reported outcomes.
package verification

import (
	"context"

	"github.com/MKhiriev/go-multimatrix/internal/adapter"
	"github.com/MKhiriev/go-multimatrix/models"
)

// Client is the part of [adapter.ProtocolClient] a verification needs.
type Client interface {
	FetchRecoveryBackup(ctx context.Context, secret []byte) error
	StartSASVerification(ctx context.Context, deviceID string) (adapter.SASSession, error)
}

// Publisher receives a VerificationStateChanged event on every transition.
type Publisher interface {
	Publish(ev models.DomainEvent)
}
