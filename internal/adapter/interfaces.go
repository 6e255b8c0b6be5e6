// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter isolates everything that talks to a Matrix homeserver.
//
// The primary abstraction is [ProtocolClient]: one instance per account,
// owned by that account's session. The package ships an HTTP implementation
// of the client-server API built on resty ([NewMatrixClient]). End-to-end
// encryption is an external collaborator; the HTTP implementation reports
// encrypted events as undecryptable and answers the key and verification
// operations with [ErrUnsupported].
//
// Every error returned by a [ProtocolClient] wraps one of the taxonomy
// sentinels in errors.go so callers branch with [errors.Is] without knowing
// the transport.
package adapter

import (
	"context"
	"time"

	"github.com/MKhiriev/go-multimatrix/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/protocol_client_mock.go -package=mock

// ProtocolClient is the per-account gateway to one homeserver.
type ProtocolClient interface {
	// Login authenticates with a password and stores the issued token for
	// subsequent calls. The password slice is zeroed before returning.
	// Returns [ErrAuth] on rejected credentials.
	Login(ctx context.Context, creds models.Credentials) (models.SessionHandle, error)

	// Restore installs a persisted token and checks it against the server.
	// Returns [ErrAuth] when the server rejects it.
	Restore(ctx context.Context, handle models.SessionHandle) error

	// Logout revokes the current token on the server.
	Logout(ctx context.Context) error

	// Sync long-polls for changes after cursor. An empty cursor requests the
	// initial state. Transient failures wrap [ErrNetwork].
	Sync(ctx context.Context, cursor string, timeout time.Duration) (models.SyncBatch, error)

	// Backfill fetches up to limit events older than the token from.
	Backfill(ctx context.Context, roomID, from string, limit int) (models.BackfillPage, error)

	// Send posts one user action to a room and returns the new event id.
	// Failures wrap [ErrSend].
	Send(ctx context.Context, roomID string, msg models.Outgoing) (string, error)

	// SendReadReceipt publishes the read marker of the account.
	SendReadReceipt(ctx context.Context, roomID, eventID string) error

	// FetchRecoveryBackup unlocks the server-side key backup with a
	// recovery secret. Failures wrap [ErrVerification].
	FetchRecoveryBackup(ctx context.Context, secret []byte) error

	// StartSASVerification begins an emoji verification with deviceID.
	StartSASVerification(ctx context.Context, deviceID string) (SASSession, error)

	// FetchRoomKey retries decryption of one event after downloading its
	// room key. Returns [ErrDecryption] when the key is still unavailable.
	FetchRoomKey(ctx context.Context, roomID, eventID string) (models.RawEvent, error)

	// DownloadMedia fetches a content reference. Content larger than
	// maxBytes is refused with [ErrMedia].
	DownloadMedia(ctx context.Context, ref models.MediaRef, maxBytes int64) ([]byte, string, error)

	// UploadMedia stores content in the media repository and returns its
	// content uri. Failures wrap [ErrMedia].
	UploadMedia(ctx context.Context, upload models.Upload) (string, error)

	// CreateRoom creates a room and returns its id.
	CreateRoom(ctx context.Context, room models.NewRoom) (string, error)
	LeaveRoom(ctx context.Context, roomID string) error
	// ForgetRoom drops a left room from the account's history.
	ForgetRoom(ctx context.Context, roomID string) error
	InviteUser(ctx context.Context, roomID, userID string) error
	SetRoomName(ctx context.Context, roomID, name string) error
	SetRoomTopic(ctx context.Context, roomID, topic string) error

	// GetProfile reads the account's own profile. Unset fields are empty.
	GetProfile(ctx context.Context) (models.Profile, error)
	SetDisplayName(ctx context.Context, name string) error
	// SetAvatarURL points the profile at a content uri.
	SetAvatarURL(ctx context.Context, uri string) error

	// CloseIdleConnections releases pooled connections once the session
	// stops.
	CloseIdleConnections()
}

// SASSession is one running short-authentication-string verification.
type SASSession interface {
	ID() string
	Emojis() []models.SASEmoji
	// Confirm reports that the emojis matched on both devices.
	Confirm(ctx context.Context) error
	Cancel(ctx context.Context) error
}

// Factory builds a client for one homeserver.
type Factory func(homeserver string) (ProtocolClient, error)
