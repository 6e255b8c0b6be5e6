// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/MKhiriev/go-multimatrix/internal/adapter"
	"github.com/MKhiriev/go-multimatrix/internal/config"
	"github.com/MKhiriev/go-multimatrix/internal/dispatcher"
	"github.com/MKhiriev/go-multimatrix/internal/index"
	"github.com/MKhiriev/go-multimatrix/internal/logger"
	"github.com/MKhiriev/go-multimatrix/internal/media"
	"github.com/MKhiriev/go-multimatrix/internal/store"
	"github.com/MKhiriev/go-multimatrix/internal/validators"
	"github.com/MKhiriev/go-multimatrix/internal/verification"
	"github.com/MKhiriev/go-multimatrix/models"
)

// Engine is everything the presentation layer talks to. It owns one
// [AccountSession] per account and the cross-account components: the event
// dispatcher, the unified room index, the verification registry and the
// media pipeline. No Engine method blocks on the network except the account
// lifecycle and verification calls, which the UI runs off its own loop.
type Engine struct {
	mu       sync.RWMutex
	sessions map[string]*AccountSession
	order    []string
	closed   bool

	factory   adapter.Factory
	storages  *store.ClientStorages
	validator validators.Validator
	appInfo   AppInfoService
	cfg       *config.ClientConfig

	dispatcher    *dispatcher.Dispatcher
	index         *index.Index
	verifications *verification.Registry
	media         *media.Pipeline

	ctx    context.Context
	cancel context.CancelFunc
	log    *logger.Logger
}

// NewEngine wires the engine. Sessions are added with AddAccount or
// RestoreAccounts.
func NewEngine(cfg *config.ClientConfig, storages *store.ClientStorages, factory adapter.Factory, log *logger.Logger) (*Engine, error) {
	appInfo, err := NewAppInfoService(cfg.App, log)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		sessions:  make(map[string]*AccountSession),
		factory:   factory,
		storages:  storages,
		validator: validators.NewClientValidator(),
		appInfo:   appInfo,
		cfg:       cfg,
		ctx:       ctx,
		cancel:    cancel,
		log:       log,
	}

	e.dispatcher = dispatcher.New(cfg.Dispatcher.BufferPerAccount, log)
	e.index = index.New(e, log)
	e.dispatcher.Subscribe(e.index.Handle)
	e.verifications = verification.NewRegistry(cfg.Verification, e.dispatcher, log)
	e.media = media.NewPipeline(cfg.Media, e.dispatcher, log)

	return e, nil
}

// Subscribe registers fn to observe every published event before it is
// queued for PollEvents. fn runs on the publishing goroutine.
func (e *Engine) Subscribe(fn dispatcher.Subscriber) {
	e.dispatcher.Subscribe(fn)
}

func (e *Engine) sessionConfig() SessionConfig {
	return SessionConfig{
		Sync:           e.cfg.Sync,
		SyncTimeout:    e.cfg.Adapter.SyncTimeout,
		RequestTimeout: e.cfg.Adapter.RequestTimeout,
	}
}

func (e *Engine) session(accountID string) (*AccountSession, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s, ok := e.sessions[accountID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, accountID)
	}
	return s, nil
}

// ── Reads ───────────────────────────────────────────────────────────────────

// PollEvents returns up to max pending domain events without blocking.
func (e *Engine) PollEvents(max int) []models.DomainEvent {
	return e.dispatcher.Poll(max)
}

// GetUnifiedRooms returns the rooms of every account, favorites first.
func (e *Engine) GetUnifiedRooms(mode models.SortMode) []models.UnifiedRoomEntry {
	return e.index.GetUnifiedRooms(mode)
}

// Search ranks rooms by fuzzy match of name or account label.
func (e *Engine) Search(query string) iter.Seq[models.SearchMatch] {
	return e.index.Search(query)
}

// GetTimeline returns the events of a room selected by window.
func (e *Engine) GetTimeline(ref models.RoomRef, window models.Window) ([]models.TimelineEvent, error) {
	s, err := e.session(ref.AccountID)
	if err != nil {
		return nil, err
	}
	return s.Timeline(ref.RoomID, window)
}

// Typing returns the users typing in a room.
func (e *Engine) Typing(ref models.RoomRef) []string {
	s, err := e.session(ref.AccountID)
	if err != nil {
		return nil
	}
	return s.Typing(ref.RoomID)
}

// Accounts returns every account in the order it was added.
func (e *Engine) Accounts() []models.Account {
	e.mu.RLock()
	defer e.mu.RUnlock()

	accounts := make([]models.Account, 0, len(e.order))
	for _, id := range e.order {
		accounts = append(accounts, e.sessions[id].Account())
	}
	return accounts
}

// Room returns a snapshot of one room.
func (e *Engine) Room(ref models.RoomRef) (models.Room, bool) {
	return e.ResolveRoom(ref)
}

// ResolveRoom implements [index.RoomResolver].
func (e *Engine) ResolveRoom(ref models.RoomRef) (models.Room, bool) {
	s, err := e.session(ref.AccountID)
	if err != nil {
		return models.Room{}, false
	}
	room, ok := s.Room(ref.RoomID)
	if ok {
		room.Favorite = e.index.IsFavorite(ref)
	}
	return room, ok
}

// AccountLabel implements [index.RoomResolver].
func (e *Engine) AccountLabel(accountID string) string {
	s, err := e.session(accountID)
	if err != nil {
		return models.AccountLabel(accountID)
	}
	return s.Account().Label
}

// ── Room commands ───────────────────────────────────────────────────────────

// SendMessage posts a plain text message.
func (e *Engine) SendMessage(ctx context.Context, ref models.RoomRef, body string) error {
	return e.send(ctx, ref, models.Outgoing{Kind: models.OutgoingText, Body: body})
}

// Reply posts a reply to targetID.
func (e *Engine) Reply(ctx context.Context, ref models.RoomRef, targetID, body string) error {
	return e.send(ctx, ref, models.Outgoing{Kind: models.OutgoingReply, Body: body, TargetID: targetID})
}

// Edit replaces the text of one of the account's messages.
func (e *Engine) Edit(ctx context.Context, ref models.RoomRef, targetID, body string) error {
	return e.send(ctx, ref, models.Outgoing{Kind: models.OutgoingEdit, Body: body, TargetID: targetID})
}

// React annotates targetID with key.
func (e *Engine) React(ctx context.Context, ref models.RoomRef, targetID, key string) error {
	return e.send(ctx, ref, models.Outgoing{Kind: models.OutgoingReaction, Key: key, TargetID: targetID})
}

// Redact removes targetID.
func (e *Engine) Redact(ctx context.Context, ref models.RoomRef, targetID string) error {
	return e.send(ctx, ref, models.Outgoing{Kind: models.OutgoingRedaction, TargetID: targetID})
}

func (e *Engine) send(ctx context.Context, ref models.RoomRef, msg models.Outgoing) error {
	if err := e.validator.Validate(ctx, msg); err != nil {
		return err
	}
	s, err := e.session(ref.AccountID)
	if err != nil {
		return err
	}
	return s.Send(ref.RoomID, msg)
}

// MarkRead moves the read marker of a room to its newest event.
func (e *Engine) MarkRead(ctx context.Context, ref models.RoomRef) error {
	s, err := e.session(ref.AccountID)
	if err != nil {
		return err
	}
	return s.MarkRead(ctx, ref.RoomID, "")
}

// LoadMore requests older history of a room.
func (e *Engine) LoadMore(ctx context.Context, ref models.RoomRef, limit int) error {
	s, err := e.session(ref.AccountID)
	if err != nil {
		return err
	}
	return s.Backfill(ctx, ref.RoomID, limit)
}

// ── Preferences ─────────────────────────────────────────────────────────────

// ToggleFavorite flips the favorite flag of a room and persists the change.
func (e *Engine) ToggleFavorite(ctx context.Context, ref models.RoomRef) (bool, error) {
	favorite, err := e.index.ToggleFavorite(ref)
	if err != nil {
		return false, err
	}
	return favorite, e.savePreferences(ctx)
}

// ReorderFavorite moves a favorite one step and persists the change.
func (e *Engine) ReorderFavorite(ctx context.Context, ref models.RoomRef, dir models.Direction) error {
	if err := e.index.ReorderFavorite(ref, dir); err != nil {
		return err
	}
	return e.savePreferences(ctx)
}

// SetSortMode changes the ordering of non-favorite rooms and persists it.
func (e *Engine) SetSortMode(ctx context.Context, mode models.SortMode) error {
	e.index.SetSortMode(mode)
	return e.savePreferences(ctx)
}

// SortMode returns the current ordering of non-favorite rooms.
func (e *Engine) SortMode() models.SortMode {
	return e.index.SortMode()
}

func (e *Engine) savePreferences(ctx context.Context) error {
	if err := e.storages.Preferences.SavePreferences(ctx, e.index.Preferences()); err != nil {
		e.log.Err(err).Str("func", "Engine.savePreferences").Msg("failed to persist preferences")
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}

// ── Diagnostics ─────────────────────────────────────────────────────────────

// DroppedEvents returns the dispatcher backpressure counters.
func (e *Engine) DroppedEvents() dispatcher.Stats {
	return e.dispatcher.Stats()
}

// Version returns the configured application version.
func (e *Engine) Version() string {
	return e.appInfo.GetAppVersion(e.ctx)
}

// Close stops every session and the media pipeline.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	sessions := make([]*AccountSession, 0, len(e.sessions))
	for _, s := range e.sessions {
		sessions = append(sessions, s)
	}
	e.mu.Unlock()

	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Close()
		}()
	}
	wg.Wait()

	e.media.Close()
	e.cancel()
	e.log.Info().Int("accounts", len(sessions)).Msg("engine closed")
}

// ReapVerifications expires stale verifications and forgets reported
// outcomes. It is called periodically by a worker.
func (e *Engine) ReapVerifications(now time.Time) int {
	return e.verifications.Reap(now)
}
