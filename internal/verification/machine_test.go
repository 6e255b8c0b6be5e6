package verification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MKhiriev/go-multimatrix/internal/adapter"
	"github.com/MKhiriev/go-multimatrix/internal/config"
	"github.com/MKhiriev/go-multimatrix/internal/logger"
	"github.com/MKhiriev/go-multimatrix/internal/mock"
	"github.com/MKhiriev/go-multimatrix/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type recorder struct {
	mu     sync.Mutex
	events []models.DomainEvent
}

func (r *recorder) Publish(ev models.DomainEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) states() []models.VerificationState {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.VerificationState, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.VerificationState)
	}
	return out
}

func newTestRegistry(t *testing.T) (*Registry, *recorder, *mock.MockProtocolClient) {
	t.Helper()
	ctrl := gomock.NewController(t)
	rec := &recorder{}
	cfg := config.ClientVerification{SASTimeout: time.Minute, RetainOutcome: 30 * time.Second}
	return NewRegistry(cfg, rec, logger.Nop()), rec, mock.NewMockProtocolClient(ctrl)
}

// ── Recovery key ────────────────────────────────────────────────────────────

func TestRecovery_ValidSecret(t *testing.T) {
	reg, rec, client := newTestRegistry(t)
	m := reg.Create("@a:x", "", models.VerificationRecoveryKey, client)

	client.EXPECT().FetchRecoveryBackup(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, key []byte) error {
			assert.Equal(t, "EsTc 1234", string(key))
			assert.Equal(t, models.VerificationVerifying, m.state)
			return nil
		}).Times(1)

	require.NoError(t, m.Begin())

	input := []byte("EsTc 1234")
	require.NoError(t, m.Submit(context.Background(), input))

	assert.Equal(t, []models.VerificationState{
		models.VerificationAwaitingSecret,
		models.VerificationVerifying,
		models.VerificationVerified,
	}, rec.states())
	assert.Equal(t, make([]byte, len(input)), input, "caller slice must be zeroed")
	require.NotNil(t, m.secret)
	assert.True(t, m.secret.Closed(), "secret buffer must be wiped after Verifying")
	assert.Zero(t, m.secret.Len())

	for _, ev := range rec.events {
		assert.Equal(t, models.EventVerificationStateChanged, ev.Kind)
		assert.Equal(t, "@a:x", ev.AccountID)
		assert.Equal(t, m.ID(), ev.VerificationID)
	}
}

func TestRecovery_RejectedSecretFails(t *testing.T) {
	reg, rec, client := newTestRegistry(t)
	m := reg.Create("@a:x", "", models.VerificationRecoveryKey, client)

	client.EXPECT().FetchRecoveryBackup(gomock.Any(), gomock.Any()).Return(errors.New("bad mac")).Times(1)

	require.NoError(t, m.Begin())
	err := m.Submit(context.Background(), []byte("wrong"))

	require.ErrorIs(t, err, adapter.ErrVerification)
	assert.Equal(t, models.VerificationFailed, m.State())
	assert.True(t, m.secret.Closed())
	assert.Equal(t, models.VerificationFailed, rec.states()[len(rec.states())-1])
	assert.ErrorIs(t, m.Info().Err, adapter.ErrVerification)

	second := []byte("retry")
	err = m.Submit(context.Background(), second)
	assert.ErrorIs(t, err, ErrInvalidTransition, "a failed verification never retries")
	assert.Equal(t, make([]byte, 5), second)
}

func TestRecovery_SubmitBeforeBegin(t *testing.T) {
	reg, _, client := newTestRegistry(t)
	m := reg.Create("@a:x", "", models.VerificationRecoveryKey, client)

	value := []byte("key")
	err := m.Submit(context.Background(), value)

	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, []byte{0, 0, 0}, value)
}

func TestRecovery_CancelWhileVerifying(t *testing.T) {
	reg, _, client := newTestRegistry(t)
	m := reg.Create("@a:x", "", models.VerificationRecoveryKey, client)

	entered := make(chan struct{})
	client.EXPECT().FetchRecoveryBackup(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ []byte) error {
			close(entered)
			<-ctx.Done()
			return ctx.Err()
		})

	require.NoError(t, m.Begin())

	done := make(chan error, 1)
	go func() { done <- m.Submit(context.Background(), []byte("secret")) }()

	<-entered
	require.NoError(t, m.Cancel(context.Background()))

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrInvalidTransition)
	case <-time.After(2 * time.Second):
		t.Fatal("submit did not return after cancel")
	}

	assert.Equal(t, models.VerificationAbandoned, m.State())
	assert.True(t, m.secret.Closed())
}

// ── SAS ─────────────────────────────────────────────────────────────────────

var testEmojis = []models.SASEmoji{{Symbol: "🐶", Description: "Dog"}, {Symbol: "🔑", Description: "Key"}}

func TestSAS(t *testing.T) {
	tests := []struct {
		name      string
		match     bool
		setup     func(s *mock.MockSASSession)
		wantState models.VerificationState
		wantErr   error
	}{
		{
			name:  "emojis match",
			match: true,
			setup: func(s *mock.MockSASSession) {
				s.EXPECT().Confirm(gomock.Any()).Return(nil)
			},
			wantState: models.VerificationVerified,
		},
		{
			name:  "mismatch cancels and fails",
			match: false,
			setup: func(s *mock.MockSASSession) {
				s.EXPECT().Cancel(gomock.Any()).Return(nil)
			},
			wantState: models.VerificationFailed,
			wantErr:   ErrEmojiMismatch,
		},
		{
			name:  "server rejects confirmation",
			match: true,
			setup: func(s *mock.MockSASSession) {
				s.EXPECT().Confirm(gomock.Any()).Return(errors.New("m.key_mismatch"))
			},
			wantState: models.VerificationFailed,
			wantErr:   adapter.ErrVerification,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, rec, client := newTestRegistry(t)
			session := mock.NewMockSASSession(gomock.NewController(t))
			session.EXPECT().Emojis().Return(testEmojis)
			client.EXPECT().StartSASVerification(gomock.Any(), "PHONE").Return(session, nil)
			tt.setup(session)

			m := reg.Create("@a:x", "PHONE", models.VerificationSAS, client)
			require.NoError(t, m.StartSAS(context.Background()))
			assert.Equal(t, models.VerificationAwaitingConfirmation, m.State())
			assert.Equal(t, testEmojis, m.Info().Emojis)

			err := m.Confirm(context.Background(), tt.match)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantState, m.State())
			states := rec.states()
			assert.Equal(t, tt.wantState, states[len(states)-1])
		})
	}
}

func TestSAS_StartFailure(t *testing.T) {
	reg, _, client := newTestRegistry(t)
	client.EXPECT().StartSASVerification(gomock.Any(), "PHONE").Return(nil, adapter.ErrUnsupported)

	m := reg.Create("@a:x", "PHONE", models.VerificationSAS, client)
	err := m.StartSAS(context.Background())

	assert.ErrorIs(t, err, adapter.ErrVerification)
	assert.ErrorIs(t, err, adapter.ErrUnsupported)
	assert.Equal(t, models.VerificationFailed, m.State())
}

func TestWrongKind(t *testing.T) {
	reg, _, client := newTestRegistry(t)

	sas := reg.Create("@a:x", "PHONE", models.VerificationSAS, client)
	assert.ErrorIs(t, sas.Begin(), ErrWrongKind)

	recovery := reg.Create("@a:x", "", models.VerificationRecoveryKey, client)
	assert.ErrorIs(t, recovery.StartSAS(context.Background()), ErrWrongKind)
	assert.ErrorIs(t, recovery.Confirm(context.Background(), true), ErrWrongKind)
}

// ── Cancel and timeout ──────────────────────────────────────────────────────

func TestCancel(t *testing.T) {
	reg, rec, client := newTestRegistry(t)
	session := mock.NewMockSASSession(gomock.NewController(t))
	session.EXPECT().Emojis().Return(testEmojis)
	session.EXPECT().Cancel(gomock.Any()).Return(nil)
	client.EXPECT().StartSASVerification(gomock.Any(), "PHONE").Return(session, nil)

	m := reg.Create("@a:x", "PHONE", models.VerificationSAS, client)
	require.NoError(t, m.StartSAS(context.Background()))

	require.NoError(t, m.Cancel(context.Background()))

	assert.Equal(t, models.VerificationAbandoned, m.State())
	assert.Equal(t, []models.VerificationState{
		models.VerificationAwaitingConfirmation,
		models.VerificationAbandoned,
	}, rec.states())

	assert.ErrorIs(t, m.Cancel(context.Background()), ErrInvalidTransition, "terminal states stay terminal")
}

func TestExpire(t *testing.T) {
	reg, _, client := newTestRegistry(t)
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return start }

	m := reg.Create("@a:x", "", models.VerificationRecoveryKey, client)
	require.NoError(t, m.Begin())

	assert.False(t, m.Expire(start.Add(30*time.Second)))
	assert.Equal(t, models.VerificationAwaitingSecret, m.State())

	assert.True(t, m.Expire(start.Add(time.Minute)))
	assert.Equal(t, models.VerificationAbandoned, m.State())
	assert.ErrorIs(t, m.Info().Err, ErrExpired)

	assert.False(t, m.Expire(start.Add(time.Hour)), "already terminal")
}
