package service

import (
	"context"

	"github.com/MKhiriev/go-multimatrix/models"
)

// StartRecovery opens a recovery-key verification for the account and
// returns its id. The secret is submitted later with SubmitRecoveryKey.
func (e *Engine) StartRecovery(accountID string) (string, error) {
	s, err := e.session(accountID)
	if err != nil {
		return "", err
	}
	m := e.verifications.Create(accountID, s.Account().DeviceID, models.VerificationRecoveryKey, s.Client())
	if err = m.Begin(); err != nil {
		return "", err
	}
	return m.ID(), nil
}

// SubmitRecoveryKey hands the secret to the verification. secret is zeroed
// before SubmitRecoveryKey returns.
func (e *Engine) SubmitRecoveryKey(ctx context.Context, id string, secret []byte) error {
	m, err := e.verifications.Get(id)
	if err != nil {
		clear(secret)
		return err
	}
	return m.Submit(ctx, secret)
}

// StartSAS starts an emoji verification with another device of the same
// account and returns its id. The emojis are in the verification info once
// the state is AwaitingConfirmation.
func (e *Engine) StartSAS(ctx context.Context, accountID, deviceID string) (string, error) {
	s, err := e.session(accountID)
	if err != nil {
		return "", err
	}
	m := e.verifications.Create(accountID, deviceID, models.VerificationSAS, s.Client())
	return m.ID(), m.StartSAS(ctx)
}

// AcceptSAS answers an incoming emoji verification request.
func (e *Engine) AcceptSAS(ctx context.Context, id string) error {
	m, err := e.verifications.Get(id)
	if err != nil {
		return err
	}
	return m.StartSAS(ctx)
}

// ConfirmSAS reports whether the emojis shown on both devices matched.
func (e *Engine) ConfirmSAS(ctx context.Context, id string, match bool) error {
	m, err := e.verifications.Get(id)
	if err != nil {
		return err
	}
	return m.Confirm(ctx, match)
}

// CancelVerification abandons a verification.
func (e *Engine) CancelVerification(ctx context.Context, id string) error {
	m, err := e.verifications.Get(id)
	if err != nil {
		return err
	}
	return m.Cancel(ctx)
}

// Verification returns a snapshot of one verification.
func (e *Engine) Verification(id string) (models.VerificationInfo, error) {
	m, err := e.verifications.Get(id)
	if err != nil {
		return models.VerificationInfo{}, err
	}
	return m.Info(), nil
}

// Verifications returns every retained verification, oldest first.
func (e *Engine) Verifications() []models.VerificationInfo {
	return e.verifications.List()
}

// AcknowledgeVerification marks an outcome as seen by the user.
func (e *Engine) AcknowledgeVerification(id string) error {
	return e.verifications.Acknowledge(id)
}

// registerIncomingVerification is called by a session's sync engine for
// every verification request another device sent.
func (e *Engine) registerIncomingVerification(accountID string, req models.IncomingVerification) string {
	s, err := e.session(accountID)
	if err != nil {
		return ""
	}
	m := e.verifications.Create(accountID, req.FromDevice, models.VerificationSAS, s.Client())
	e.log.Info().
		Str("user_id", accountID).
		Str("from_user", req.FromUser).
		Str("from_device", req.FromDevice).
		Str("verification_id", m.ID()).
		Msg("verification requested")
	return m.ID()
}
