package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/go-multimatrix/internal/adapter"
	"github.com/MKhiriev/go-multimatrix/internal/config"
	"github.com/MKhiriev/go-multimatrix/internal/logger"
	"github.com/MKhiriev/go-multimatrix/internal/mock"
	"github.com/MKhiriev/go-multimatrix/internal/store"
	"github.com/MKhiriev/go-multimatrix/models"
)

type engineFixture struct {
	engine   *Engine
	ctrl     *gomock.Controller
	accounts *mock.MockAccountRepository
	cursors  *mock.MockCursorRepository
	prefs    *mock.MockPreferencesRepository
	clients  map[string]*mock.MockProtocolClient
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &engineFixture{
		ctrl:     ctrl,
		accounts: mock.NewMockAccountRepository(ctrl),
		cursors:  mock.NewMockCursorRepository(ctrl),
		prefs:    mock.NewMockPreferencesRepository(ctrl),
		clients:  make(map[string]*mock.MockProtocolClient),
	}

	cfg := config.NewClientConfig(&config.StructuredConfig{})
	cfg.App.Version = "1.2.3"
	cfg.Sync = testSessionConfig().Sync
	cfg.Adapter.SyncTimeout = time.Second
	cfg.Adapter.RequestTimeout = time.Second

	storages := &store.ClientStorages{Accounts: f.accounts, Cursors: f.cursors, Preferences: f.prefs}
	factory := func(homeserver string) (adapter.ProtocolClient, error) {
		client, ok := f.clients[homeserver]
		if !ok {
			return nil, errors.New("no more sessions")
		}
		return client, nil
	}

	engine, err := NewEngine(cfg, storages, factory, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(engine.Close)
	f.engine = engine
	return f
}

// idleClient registers a client for homeserver whose sync loop parks
// until the session stops.
func (f *engineFixture) idleClient(homeserver string) *mock.MockProtocolClient {
	client := mock.NewMockProtocolClient(f.ctrl)
	client.EXPECT().Sync(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(blockSync).AnyTimes()
	client.EXPECT().CloseIdleConnections().AnyTimes()
	f.clients[homeserver] = client
	f.cursors.EXPECT().LoadCursor(gomock.Any(), gomock.Any()).Return("", nil).AnyTimes()
	return client
}

func pollKinds(e *Engine) []models.DomainEventKind {
	var kinds []models.DomainEventKind
	for _, ev := range e.PollEvents(100) {
		kinds = append(kinds, ev.Kind)
	}
	return kinds
}

// ── NewEngine ───────────────────────────────────────────────────────────────

func TestNewEngine_RequiresVersion(t *testing.T) {
	cfg := config.NewClientConfig(&config.StructuredConfig{})

	_, err := NewEngine(cfg, &store.ClientStorages{}, nil, logger.Nop())

	assert.ErrorIs(t, err, ErrVersionIsNotSpecified)
}

// ── Preferences ─────────────────────────────────────────────────────────────

func TestSetSortMode_Persists(t *testing.T) {
	f := newEngineFixture(t)
	f.prefs.EXPECT().SavePreferences(gomock.Any(), models.Preferences{SortMode: models.SortRecent}).Return(nil)

	require.NoError(t, f.engine.SetSortMode(context.Background(), models.SortRecent))
	assert.Equal(t, models.SortRecent, f.engine.SortMode())
}

// ── Unified rooms ───────────────────────────────────────────────────────────

func TestGetUnifiedRooms_AcrossAccounts(t *testing.T) {
	f := newEngineFixture(t)

	for _, hs := range []string{"https://a.org", "https://b.org"} {
		f.clients[hs] = mock.NewMockProtocolClient(f.ctrl)
	}
	a, err := f.engine.register(models.Account{UserID: "@a:a.org"}, f.clients["https://a.org"])
	require.NoError(t, err)
	b, err := f.engine.register(models.Account{UserID: "@b:b.org"}, f.clients["https://b.org"])
	require.NoError(t, err)

	// sessions are not started, so batches are applied by the test
	f.engine.dispatcher.PublishAll(a.applyBatch(models.SyncBatch{Rooms: []models.RoomDelta{
		{RoomID: "!zeta", Name: ptr("Zeta")},
	}}))
	f.engine.dispatcher.PublishAll(b.applyBatch(models.SyncBatch{Rooms: []models.RoomDelta{
		{RoomID: "!alpha", Name: ptr("Alpha")},
	}}))

	rooms := f.engine.GetUnifiedRooms(models.SortAlpha)
	require.Len(t, rooms, 2)
	assert.Equal(t, "Alpha", rooms[0].Room.Name)
	assert.Equal(t, "b@b.org", rooms[0].AccountLabel)
	assert.Equal(t, "Zeta", rooms[1].Room.Name)

	f.prefs.EXPECT().SavePreferences(gomock.Any(), gomock.Any()).Return(nil)
	favorite, err := f.engine.ToggleFavorite(context.Background(), models.RoomRef{AccountID: "@a:a.org", RoomID: "!zeta"})
	require.NoError(t, err)
	assert.True(t, favorite)

	rooms = f.engine.GetUnifiedRooms(models.SortAlpha)
	assert.Equal(t, "Zeta", rooms[0].Room.Name)
	assert.True(t, rooms[0].Room.Favorite)
}

// ── Verification ────────────────────────────────────────────────────────────

func TestSubmitRecoveryKey_ThroughEngine(t *testing.T) {
	f := newEngineFixture(t)
	client := mock.NewMockProtocolClient(f.ctrl)
	_, err := f.engine.register(models.Account{UserID: "@a:a.org", DeviceID: "DEV"}, client)
	require.NoError(t, err)

	client.EXPECT().FetchRecoveryBackup(gomock.Any(), []byte("EsTc 1234")).Return(nil)

	id, err := f.engine.StartRecovery("@a:a.org")
	require.NoError(t, err)

	secret := []byte("EsTc 1234")
	require.NoError(t, f.engine.SubmitRecoveryKey(context.Background(), id, secret))

	info, err := f.engine.Verification(id)
	require.NoError(t, err)
	assert.Equal(t, models.VerificationVerified, info.State)
	assert.Equal(t, make([]byte, len(secret)), secret)

	_, err = f.engine.StartRecovery("@nobody:a.org")
	assert.ErrorIs(t, err, ErrUnknownAccount)
}
