package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/MKhiriev/go-multimatrix/internal/adapter"
	"github.com/MKhiriev/go-multimatrix/internal/config"
	"github.com/MKhiriev/go-multimatrix/internal/logger"
	"github.com/MKhiriev/go-multimatrix/internal/store"
	"github.com/MKhiriev/go-multimatrix/internal/timeline"
	"github.com/MKhiriev/go-multimatrix/internal/utils"
	"github.com/MKhiriev/go-multimatrix/models"
)

// SessionConfig is the per-account part of the client configuration.
type SessionConfig struct {
	Sync        config.ClientSync
	SyncTimeout time.Duration
	// RequestTimeout bounds the calls a session makes outside the sync
	// loop: read receipts, sends and backfill.
	RequestTimeout time.Duration
}

// AccountSession is the lifecycle of one authenticated connection. It owns
// the account's rooms; they are mutated only by the session's sync engine.
type AccountSession struct {
	mu      sync.RWMutex
	account models.Account
	rooms   map[string]*timeline.Room

	// backfilling holds rooms with a history request in flight.
	backfillMu  sync.Mutex
	backfilling map[string]bool

	client    adapter.ProtocolClient
	cursors   store.CursorRepository
	publisher Publisher
	cfg       SessionConfig
	engine    *syncEngine

	// onVerificationRequest registers a verification started by another
	// device and returns its id.
	onVerificationRequest func(accountID string, req models.IncomingVerification) string

	// ctx scopes work started on behalf of the session: sends, receipts,
	// key fetches. It ends with Close.
	ctx    context.Context
	cancel context.CancelFunc
	async  sync.WaitGroup

	log *logger.Logger
}

// NewAccountSession creates a stopped session in Connecting.
func NewAccountSession(account models.Account, client adapter.ProtocolClient, cursors store.CursorRepository,
	publisher Publisher, cfg SessionConfig, log *logger.Logger) *AccountSession {
	ctx, cancel := context.WithCancel(utils.WithAccountID(context.Background(), account.UserID))

	account.Status = models.StatusConnecting
	if account.Label == "" {
		account.Label = models.AccountLabel(account.UserID)
	}

	s := &AccountSession{
		account:     account,
		rooms:       make(map[string]*timeline.Room),
		backfilling: make(map[string]bool),
		client:      client,
		cursors:     cursors,
		publisher:   publisher,
		cfg:         cfg,
		ctx:         ctx,
		cancel:      cancel,
		log:         log.ForAccount(account.UserID),
	}
	s.engine = newSyncEngine(s)
	return s
}

// ID returns the account id.
func (s *AccountSession) ID() string {
	return s.account.UserID
}

// Account returns a snapshot of the account.
func (s *AccountSession) Account() models.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account
}

// Status returns the connectivity status.
func (s *AccountSession) Status() models.AccountStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account.Status
}

// setStatus publishes AccountStatusChanged when the status changes.
func (s *AccountSession) setStatus(status models.AccountStatus, cause error) {
	s.mu.Lock()
	from := s.account.Status
	s.account.Status = status
	s.mu.Unlock()

	s.announceStatus(from, status, cause)
}

func (s *AccountSession) announceStatus(from, to models.AccountStatus, cause error) {
	if from == to {
		return
	}

	event := s.log.Info()
	if cause != nil {
		event = s.log.Warn().Err(cause)
	}
	event.Str("from", from.String()).Str("to", to.String()).Msg("account status changed")

	s.publisher.Publish(models.DomainEvent{
		Kind:      models.EventAccountStatusChanged,
		AccountID: s.account.UserID,
		Status:    to,
		Err:       cause,
	})
}

// Start runs the sync loop until Stop or until ctx ends.
func (s *AccountSession) Start(ctx context.Context) {
	if s.Status() == models.StatusLoggedOut {
		s.log.Warn().Msg("refusing to start a logged out session")
		return
	}
	s.engine.Start(ctx)
}

// StartRestored checks a saved token on the session's own goroutine, then
// runs the sync loop. The account stays Connecting until the server answers,
// so a slow homeserver delays only its own account.
func (s *AccountSession) StartRestored(ctx context.Context, saved models.SavedAccount) {
	s.engine.StartAfter(ctx, func(ctx context.Context) error {
		return s.RestoreFromPersistedToken(ctx, saved)
	})
}

// Reauthenticate installs a fresh login on a LoggedOut session and starts
// syncing again. Rooms seen before the logout are kept. The replaced client
// releases its connections.
func (s *AccountSession) Reauthenticate(ctx context.Context, saved models.SavedAccount, client adapter.ProtocolClient) error {
	s.mu.Lock()
	if s.account.Status != models.StatusLoggedOut {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAccountExists, s.account.UserID)
	}
	previous := s.client
	s.client = client
	s.account.Homeserver = saved.Homeserver
	s.account.DeviceID = saved.DeviceID
	s.account.Status = models.StatusConnecting
	s.mu.Unlock()

	// the old loop exited when the token was rejected; Stop only reaps it
	s.Stop()
	previous.CloseIdleConnections()

	s.announceStatus(models.StatusLoggedOut, models.StatusConnecting, nil)
	s.log.Info().Str("device_id", saved.DeviceID).Msg("session re-authenticated")
	s.Start(ctx)
	return nil
}

// Stop cancels the sync loop and waits until it released its connections.
func (s *AccountSession) Stop() {
	s.engine.Stop()
}

// Running reports whether the sync loop is active.
func (s *AccountSession) Running() bool {
	return s.engine.Running()
}

// RestoreFromPersistedToken installs a saved token. A rejected token moves
// the account to LoggedOut and returns [ErrInvalidSession]. When the server
// cannot be reached the token stays installed and the sync loop retries.
func (s *AccountSession) RestoreFromPersistedToken(ctx context.Context, saved models.SavedAccount) error {
	err := s.Client().Restore(ctx, models.SessionHandle{
		UserID:      saved.UserID,
		DeviceID:    saved.DeviceID,
		AccessToken: saved.AccessToken,
	})
	if err != nil && !errors.Is(err, adapter.ErrAuth) {
		s.log.Warn().Err(err).Msg("could not verify saved token, will retry while syncing")
	}

	if err = mapRestoreError(err); err != nil {
		s.setStatus(models.StatusLoggedOut, err)
		return err
	}
	return nil
}

// Logout stops syncing and revokes the token on the server. The account is
// LoggedOut afterwards even when revocation fails.
func (s *AccountSession) Logout(ctx context.Context) error {
	s.Stop()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	err := s.Client().Logout(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to revoke token on the server")
	}
	s.setStatus(models.StatusLoggedOut, nil)
	return err
}

// Close stops the session and waits for its background work.
func (s *AccountSession) Close() {
	s.Stop()
	s.cancel()
	s.async.Wait()
}

// ── Rooms ───────────────────────────────────────────────────────────────────

func (s *AccountSession) room(roomID string) *timeline.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rooms[roomID]
}

// ensureRoom returns the room, creating it when unknown.
func (s *AccountSession) ensureRoom(roomID string) (*timeline.Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if room, ok := s.rooms[roomID]; ok {
		return room, false
	}
	room := timeline.NewRoom(s.account.UserID, roomID, s.account.UserID)
	s.rooms[roomID] = room
	return room, true
}

func (s *AccountSession) removeRoom(roomID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[roomID]; !ok {
		return false
	}
	delete(s.rooms, roomID)
	return true
}

// Room returns a snapshot of one room.
func (s *AccountSession) Room(roomID string) (models.Room, bool) {
	room := s.room(roomID)
	if room == nil {
		return models.Room{}, false
	}
	return room.Snapshot(), true
}

// Rooms returns snapshots of every room ordered by id.
func (s *AccountSession) Rooms() []models.Room {
	s.mu.RLock()
	rooms := make([]models.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room.Snapshot())
	}
	s.mu.RUnlock()

	slices.SortFunc(rooms, func(a, b models.Room) int { return strings.Compare(a.ID, b.ID) })
	return rooms
}

// Timeline returns copies of the events of one room selected by window.
func (s *AccountSession) Timeline(roomID string, window models.Window) ([]models.TimelineEvent, error) {
	room := s.room(roomID)
	if room == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRoom, roomID)
	}
	return room.Events(window)
}

// Typing returns the users typing in a room.
func (s *AccountSession) Typing(roomID string) []string {
	room := s.room(roomID)
	if room == nil {
		return nil
	}
	return room.Typing()
}

// Client returns the protocol client of the account. It changes only when
// a LoggedOut account signs in again.
func (s *AccountSession) Client() adapter.ProtocolClient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

// goAsync runs fn in the background under the session context.
func (s *AccountSession) goAsync(fn func(ctx context.Context)) {
	s.async.Add(1)
	go func() {
		defer s.async.Done()
		fn(s.ctx)
	}()
}

func (s *AccountSession) event(kind models.DomainEventKind, roomID string) models.DomainEvent {
	return models.DomainEvent{Kind: kind, AccountID: s.account.UserID, RoomID: roomID}
}
