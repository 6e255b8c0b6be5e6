package verification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MKhiriev/go-multimatrix/internal/adapter"
	"github.com/MKhiriev/go-multimatrix/internal/logger"
	"github.com/MKhiriev/go-multimatrix/internal/secret"
	"github.com/MKhiriev/go-multimatrix/models"
)

// Machine is one verification attempt. All methods are safe for concurrent
// use; no lock is held while the protocol client is called.
type Machine struct {
	mu sync.Mutex

	id        string
	accountID string
	deviceID  string
	kind      models.VerificationKind
	state     models.VerificationState
	err       error

	// secret lives only between Submit and the end of Verifying.
	secret *secret.Buffer
	sas    adapter.SASSession
	emojis []models.SASEmoji
	// abort cancels the in-flight protocol call when the user cancels.
	abort context.CancelFunc

	startedAt    time.Time
	finishedAt   time.Time
	deadline     time.Time
	acknowledged bool

	client    Client
	publisher Publisher
	now       func() time.Time
	log       *logger.Logger
}

func newMachine(id, accountID, deviceID string, kind models.VerificationKind, client Client,
	publisher Publisher, clock func() time.Time, timeout time.Duration, log *logger.Logger) *Machine {
	now := clock()
	return &Machine{
		id:        id,
		accountID: accountID,
		deviceID:  deviceID,
		kind:      kind,
		state:     models.VerificationIdle,
		startedAt: now,
		deadline:  now.Add(timeout),
		client:    client,
		publisher: publisher,
		now:       clock,
		log:       &logger.Logger{Logger: log.With().Str("verification_id", id).Str("kind", kind.String()).Logger()},
	}
}

func (m *Machine) ID() string        { return m.id }
func (m *Machine) AccountID() string { return m.accountID }

// Info returns a snapshot for the UI.
func (m *Machine) Info() models.VerificationInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	return models.VerificationInfo{
		ID:         m.id,
		AccountID:  m.accountID,
		DeviceID:   m.deviceID,
		Kind:       m.kind,
		State:      m.state,
		Emojis:     append([]models.SASEmoji(nil), m.emojis...),
		Err:        m.err,
		StartedAt:  m.startedAt,
		FinishedAt: m.finishedAt,
	}
}

// State returns the current state.
func (m *Machine) State() models.VerificationState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Begin opens the secret prompt of a recovery-key verification.
func (m *Machine) Begin() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.kind != models.VerificationRecoveryKey {
		return ErrWrongKind
	}
	if m.state != models.VerificationIdle {
		return fmt.Errorf("%w: begin from %s", ErrInvalidTransition, m.state)
	}
	m.transition(models.VerificationAwaitingSecret, nil)
	return nil
}

// Submit hands the recovery secret to the protocol client exactly once. The
// bytes are moved into a locked buffer and value is zeroed before Submit
// returns, whatever the outcome. The buffer is wiped as soon as Verifying
// ends.
func (m *Machine) Submit(ctx context.Context, value []byte) error {
	m.mu.Lock()
	if m.kind != models.VerificationRecoveryKey {
		m.mu.Unlock()
		secret.Zero(value)
		return ErrWrongKind
	}
	if m.state != models.VerificationAwaitingSecret {
		state := m.state
		m.mu.Unlock()
		secret.Zero(value)
		return fmt.Errorf("%w: submit in %s", ErrInvalidTransition, state)
	}

	buf, err := secret.NewFromBytes(value)
	if err != nil {
		m.mu.Unlock()
		return err
	}

	callCtx, cancel := context.WithCancel(ctx)
	m.secret = buf
	m.abort = cancel
	m.transition(models.VerificationVerifying, nil)
	m.mu.Unlock()

	callErr := buf.Use(func(key []byte) error {
		return m.client.FetchRecoveryBackup(callCtx, key)
	})
	cancel()

	m.mu.Lock()
	defer m.mu.Unlock()

	if closeErr := buf.Close(); closeErr != nil {
		m.log.Warn().Err(closeErr).Msg("failed to release secret buffer")
	}
	m.abort = nil

	return m.finishLocked(callErr)
}

// StartSAS asks the other device to start an emoji comparison.
func (m *Machine) StartSAS(ctx context.Context) error {
	m.mu.Lock()
	if m.kind != models.VerificationSAS {
		m.mu.Unlock()
		return ErrWrongKind
	}
	if m.state != models.VerificationIdle {
		state := m.state
		m.mu.Unlock()
		return fmt.Errorf("%w: start sas in %s", ErrInvalidTransition, state)
	}
	callCtx, cancel := context.WithCancel(ctx)
	m.abort = cancel
	m.mu.Unlock()

	session, err := m.client.StartSASVerification(callCtx, m.deviceID)
	cancel()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.abort = nil

	if m.state.Terminal() {
		if session != nil {
			go m.cancelSession(session)
		}
		return fmt.Errorf("%w: verification was %s", ErrInvalidTransition, m.state)
	}
	if err != nil {
		m.transition(models.VerificationFailed, failure(err))
		return m.err
	}

	m.sas = session
	m.emojis = session.Emojis()
	m.transition(models.VerificationAwaitingConfirmation, nil)
	return nil
}

// Confirm reports whether the emojis matched. A mismatch cancels the session
// on the server and fails the verification.
func (m *Machine) Confirm(ctx context.Context, match bool) error {
	m.mu.Lock()
	if m.kind != models.VerificationSAS {
		m.mu.Unlock()
		return ErrWrongKind
	}
	if m.state != models.VerificationAwaitingConfirmation {
		state := m.state
		m.mu.Unlock()
		return fmt.Errorf("%w: confirm in %s", ErrInvalidTransition, state)
	}

	session := m.sas
	if !match {
		m.transition(models.VerificationFailed, ErrEmojiMismatch)
		m.mu.Unlock()
		if err := session.Cancel(ctx); err != nil {
			m.log.Warn().Err(err).Msg("failed to cancel mismatched sas session")
		}
		return ErrEmojiMismatch
	}

	callCtx, cancel := context.WithCancel(ctx)
	m.abort = cancel
	m.transition(models.VerificationVerifying, nil)
	m.mu.Unlock()

	err := session.Confirm(callCtx)
	cancel()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.abort = nil

	return m.finishLocked(err)
}

// Cancel abandons a non-terminal verification. A call in flight is
// cancelled; its result is ignored.
func (m *Machine) Cancel(ctx context.Context) error {
	m.mu.Lock()
	if m.state.Terminal() {
		state := m.state
		m.mu.Unlock()
		return fmt.Errorf("%w: cancel in %s", ErrInvalidTransition, state)
	}
	session := m.abandonLocked(nil)
	m.mu.Unlock()

	if session != nil {
		if err := session.Cancel(ctx); err != nil {
			m.log.Warn().Err(err).Msg("failed to cancel sas session")
		}
	}
	return nil
}

// Expire abandons the verification when its deadline passed. It reports
// whether a transition happened.
func (m *Machine) Expire(now time.Time) bool {
	m.mu.Lock()
	if m.state.Terminal() || now.Before(m.deadline) {
		m.mu.Unlock()
		return false
	}
	session := m.abandonLocked(ErrExpired)
	m.mu.Unlock()

	if session != nil {
		go m.cancelSession(session)
	}
	return true
}

func (m *Machine) acknowledge() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acknowledged = true
}

// discardable reports whether the outcome was reported or retained long
// enough.
func (m *Machine) discardable(now time.Time, retain time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.state.Terminal() {
		return false
	}
	return m.acknowledged || !now.Before(m.finishedAt.Add(retain))
}

// finishLocked ends Verifying with the outcome of the protocol call unless
// the verification was abandoned meanwhile.
func (m *Machine) finishLocked(callErr error) error {
	if m.state != models.VerificationVerifying {
		return fmt.Errorf("%w: verification was %s", ErrInvalidTransition, m.state)
	}
	if callErr != nil {
		m.transition(models.VerificationFailed, failure(callErr))
		return m.err
	}
	m.transition(models.VerificationVerified, nil)
	return nil
}

func (m *Machine) abandonLocked(reason error) adapter.SASSession {
	if m.abort != nil {
		m.abort()
		m.abort = nil
	}
	// While Verifying the buffer is in use; Submit wipes it on return.
	if m.secret != nil && m.state != models.VerificationVerifying {
		if err := m.secret.Close(); err != nil {
			m.log.Warn().Err(err).Msg("failed to release secret buffer")
		}
	}
	m.transition(models.VerificationAbandoned, reason)

	session := m.sas
	m.sas = nil
	return session
}

func (m *Machine) cancelSession(session adapter.SASSession) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := session.Cancel(ctx); err != nil {
		m.log.Debug().Err(err).Msg("failed to cancel sas session")
	}
}

func (m *Machine) transition(state models.VerificationState, err error) {
	from := m.state
	m.state = state
	m.err = err
	if state.Terminal() {
		m.finishedAt = m.now()
	}

	event := m.log.Info()
	if err != nil {
		event = m.log.Warn().Err(err)
	}
	event.Str("from", from.String()).Str("to", state.String()).Msg("verification state changed")

	m.publisher.Publish(models.DomainEvent{
		Kind:              models.EventVerificationStateChanged,
		AccountID:         m.accountID,
		VerificationID:    m.id,
		VerificationState: state,
		Err:               err,
	})
}

func failure(err error) error {
	if errors.Is(err, adapter.ErrVerification) {
		return err
	}
	return fmt.Errorf("%w: %w", adapter.ErrVerification, err)
}
