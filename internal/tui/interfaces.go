package tui

import (
	"context"
	"iter"

	"github.com/MKhiriev/go-multimatrix/internal/dispatcher"
	"github.com/MKhiriev/go-multimatrix/internal/service"
	"github.com/MKhiriev/go-multimatrix/models"
)

// Engine is everything the presentation layer may call. The UI never talks
// to a protocol client directly.
type Engine interface {
	AddAccount(ctx context.Context, creds models.Credentials) (models.Account, error)
	Accounts() []models.Account

	PollEvents(max int) []models.DomainEvent
	DroppedEvents() dispatcher.Stats

	GetUnifiedRooms(mode models.SortMode) []models.UnifiedRoomEntry
	Search(query string) iter.Seq[models.SearchMatch]
	GetTimeline(ref models.RoomRef, window models.Window) ([]models.TimelineEvent, error)
	Typing(ref models.RoomRef) []string
	RoomDetails(ref models.RoomRef) (models.RoomDetails, error)

	SendMessage(ctx context.Context, ref models.RoomRef, body string) error
	MarkRead(ctx context.Context, ref models.RoomRef) error
	LoadMore(ctx context.Context, ref models.RoomRef, limit int) error

	ToggleFavorite(ctx context.Context, ref models.RoomRef) (bool, error)
	ReorderFavorite(ctx context.Context, ref models.RoomRef, dir models.Direction) error
	SetSortMode(ctx context.Context, mode models.SortMode) error
	SortMode() models.SortMode

	StartRecovery(accountID string) (string, error)
	SubmitRecoveryKey(ctx context.Context, id string, secret []byte) error
	AcceptSAS(ctx context.Context, id string) error
	ConfirmSAS(ctx context.Context, id string, match bool) error
	CancelVerification(ctx context.Context, id string) error
	Verification(id string) (models.VerificationInfo, error)
	AcknowledgeVerification(id string) error

	RequestMedia(ref models.MediaRef) (models.MediaStatus, error)
	Media(uri string) (models.MediaItem, bool)
}

var _ Engine = (*service.Engine)(nil)
