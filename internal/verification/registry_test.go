package verification

import (
	"context"
	"testing"
	"time"

	"github.com/MKhiriev/go-multimatrix/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_GetUnknown(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	_, err := reg.Get("missing")
	assert.ErrorIs(t, err, ErrUnknownVerification)
	assert.ErrorIs(t, reg.Acknowledge("missing"), ErrUnknownVerification)
}

func TestRegistry_Reap(t *testing.T) {
	reg, _, client := newTestRegistry(t)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return now }

	acknowledged := reg.Create("@a:x", "", models.VerificationRecoveryKey, client)
	require.NoError(t, acknowledged.Cancel(context.Background()))
	require.NoError(t, reg.Acknowledge(acknowledged.ID()))

	unreported := reg.Create("@a:x", "", models.VerificationRecoveryKey, client)
	require.NoError(t, unreported.Cancel(context.Background()))

	pending := reg.Create("@b:y", "", models.VerificationRecoveryKey, client)
	require.NoError(t, pending.Begin())

	assert.Equal(t, 1, reg.Reap(now), "only the acknowledged outcome goes immediately")
	assert.Equal(t, 2, reg.Len())

	assert.Equal(t, 1, reg.Reap(now.Add(30*time.Second)), "unreported outcome goes after retention")
	assert.Equal(t, models.VerificationAwaitingSecret, pending.State())

	// pending passes its deadline: it is abandoned and, since its clock
	// stamps the outcome at creation time, discarded in the same pass.
	assert.Equal(t, 1, reg.Reap(now.Add(time.Minute)))
	assert.Equal(t, models.VerificationAbandoned, pending.State())
	assert.Zero(t, reg.Len())
}

func TestRegistry_AbandonAccount(t *testing.T) {
	reg, _, client := newTestRegistry(t)

	a1 := reg.Create("@a:x", "", models.VerificationRecoveryKey, client)
	a2 := reg.Create("@a:x", "", models.VerificationRecoveryKey, client)
	b := reg.Create("@b:y", "", models.VerificationRecoveryKey, client)
	require.NoError(t, a2.Begin())

	n := reg.AbandonAccount(context.Background(), "@a:x")

	assert.Equal(t, 2, n)
	assert.Equal(t, models.VerificationAbandoned, a1.State())
	assert.Equal(t, models.VerificationAbandoned, a2.State())
	assert.Equal(t, models.VerificationIdle, b.State())
}

func TestRegistry_ListOldestFirst(t *testing.T) {
	reg, _, client := newTestRegistry(t)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	reg.now = func() time.Time { return base.Add(time.Second) }
	second := reg.Create("@a:x", "", models.VerificationRecoveryKey, client)
	reg.now = func() time.Time { return base }
	first := reg.Create("@b:y", "DEV", models.VerificationSAS, client)

	infos := reg.List()

	require.Len(t, infos, 2)
	assert.Equal(t, first.ID(), infos[0].ID)
	assert.Equal(t, models.VerificationSAS, infos[0].Kind)
	assert.Equal(t, second.ID(), infos[1].ID)
}
