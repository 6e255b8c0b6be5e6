package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MKhiriev/go-multimatrix/internal/timeline"
	"github.com/MKhiriev/go-multimatrix/internal/validators"
	"github.com/MKhiriev/go-multimatrix/models"
)

// Room and profile administration. Server calls run on the caller's
// goroutine; the local state they change is applied by the sync engine.

// CreateRoom creates a room. It joins the room list with the next sync.
func (s *AccountSession) CreateRoom(ctx context.Context, room models.NewRoom) (string, error) {
	if err := s.requireRunning(); err != nil {
		return "", err
	}

	roomID, err := s.Client().CreateRoom(ctx, room)
	if err != nil {
		s.log.Warn().Err(err).Str("preset", room.Preset()).Msg("create room failed")
		return "", err
	}

	s.log.Info().Str("room_id", roomID).Str("preset", room.Preset()).Int("invited", len(room.Invitees())).Msg("room created")
	return roomID, nil
}

// LeaveRoom leaves a room and drops it from the account. With forget the
// server also discards the account's copy of its history.
func (s *AccountSession) LeaveRoom(ctx context.Context, roomID string, forget bool) error {
	if s.room(roomID) == nil {
		return fmt.Errorf("%w: %s", ErrUnknownRoom, roomID)
	}
	if err := s.requireRunning(); err != nil {
		return err
	}

	client := s.Client()
	if err := client.LeaveRoom(ctx, roomID); err != nil {
		s.log.Warn().Err(err).Str("room_id", roomID).Msg("leave failed")
		return err
	}

	err := s.engine.submit(ctx, func(context.Context) error {
		if s.removeRoom(roomID) {
			s.publisher.Publish(s.event(models.EventRoomRemoved, roomID))
		}
		return nil
	})
	if err != nil {
		return err
	}

	if forget {
		if err = client.ForgetRoom(ctx, roomID); err != nil {
			s.log.Warn().Err(err).Str("room_id", roomID).Msg("forget failed")
			return err
		}
	}

	s.log.Info().Str("room_id", roomID).Bool("forget", forget).Msg("room left")
	return nil
}

// InviteUser invites userID into a room.
func (s *AccountSession) InviteUser(ctx context.Context, roomID, userID string) error {
	if s.room(roomID) == nil {
		return fmt.Errorf("%w: %s", ErrUnknownRoom, roomID)
	}
	if err := s.requireRunning(); err != nil {
		return err
	}
	return s.Client().InviteUser(ctx, roomID, userID)
}

// SetRoomName renames a room. The local snapshot is updated as soon as the
// server accepts the change.
func (s *AccountSession) SetRoomName(ctx context.Context, roomID, name string) error {
	return s.setRoomState(ctx, roomID,
		func(ctx context.Context) error { return s.Client().SetRoomName(ctx, roomID, name) },
		func(room *timeline.Room) bool { return room.SetName(name) },
	)
}

// SetRoomTopic changes the topic of a room. An empty topic clears it.
func (s *AccountSession) SetRoomTopic(ctx context.Context, roomID, topic string) error {
	return s.setRoomState(ctx, roomID,
		func(ctx context.Context) error { return s.Client().SetRoomTopic(ctx, roomID, topic) },
		func(room *timeline.Room) bool { return room.SetTopic(topic) },
	)
}

func (s *AccountSession) setRoomState(ctx context.Context, roomID string, call func(context.Context) error, apply func(*timeline.Room) bool) error {
	room := s.room(roomID)
	if room == nil {
		return fmt.Errorf("%w: %s", ErrUnknownRoom, roomID)
	}
	if err := s.requireRunning(); err != nil {
		return err
	}

	if err := call(ctx); err != nil {
		s.log.Warn().Err(err).Str("room_id", roomID).Msg("room state change failed")
		return err
	}

	return s.engine.submit(ctx, func(context.Context) error {
		if s.room(roomID) != room {
			return nil
		}
		if apply(room) {
			s.publisher.Publish(s.event(models.EventRoomUpdated, roomID))
		}
		return nil
	})
}

// Profile reads the account's public profile from the server.
func (s *AccountSession) Profile(ctx context.Context) (models.Profile, error) {
	if err := s.requireRunning(); err != nil {
		return models.Profile{}, err
	}
	return s.Client().GetProfile(ctx)
}

// SetDisplayName changes the account's public name.
func (s *AccountSession) SetDisplayName(ctx context.Context, name string) error {
	if err := s.requireRunning(); err != nil {
		return err
	}
	return s.Client().SetDisplayName(ctx, name)
}

// SetAvatarURL points the account's avatar at already uploaded content.
func (s *AccountSession) SetAvatarURL(ctx context.Context, uri string) error {
	if err := s.requireRunning(); err != nil {
		return err
	}
	return s.Client().SetAvatarURL(ctx, uri)
}

// UploadAvatar uploads an image and makes it the account's avatar. Returns
// the content uri.
func (s *AccountSession) UploadAvatar(ctx context.Context, upload models.Upload) (string, error) {
	if err := s.requireRunning(); err != nil {
		return "", err
	}

	client := s.Client()
	uri, err := client.UploadMedia(ctx, upload)
	if err != nil {
		s.log.Warn().Err(err).Str("file", upload.FileName).Msg("avatar upload failed")
		return "", err
	}
	if err = client.SetAvatarURL(ctx, uri); err != nil {
		return "", err
	}

	s.log.Info().Str("content_uri", uri).Msg("avatar changed")
	return uri, nil
}

// SendAttachment uploads a file and posts it to a room. The upload blocks;
// the message itself is sent like any other and reports SendFailed.
func (s *AccountSession) SendAttachment(ctx context.Context, roomID string, upload models.Upload) error {
	if s.room(roomID) == nil {
		return fmt.Errorf("%w: %s", ErrUnknownRoom, roomID)
	}
	if err := s.requireRunning(); err != nil {
		return err
	}

	uri, err := s.Client().UploadMedia(ctx, upload)
	if err != nil {
		s.log.Warn().Err(err).Str("room_id", roomID).Str("file", upload.FileName).Msg("attachment upload failed")
		return err
	}

	return s.Send(roomID, attachmentMessage(s.ID(), roomID, uri, upload))
}

func attachmentMessage(accountID, roomID, uri string, upload models.Upload) models.Outgoing {
	return models.Outgoing{
		Kind: models.OutgoingAttachment,
		Body: upload.FileName,
		Media: &models.MediaRef{
			URI:      uri,
			MimeType: upload.MimeType,
			Name:     upload.FileName,
			Size:     int64(len(upload.Data)),
			Room:     models.RoomRef{AccountID: accountID, RoomID: roomID},
		},
	}
}

func (s *AccountSession) requireRunning() error {
	if s.Status() == models.StatusLoggedOut {
		return ErrSessionNotRunning
	}
	return nil
}

// ── Engine ──────────────────────────────────────────────────────────────────

// CreateRoom creates a room on the homeserver of accountID and returns its
// id.
func (e *Engine) CreateRoom(ctx context.Context, accountID string, room models.NewRoom) (string, error) {
	if err := e.validator.Validate(ctx, room); err != nil {
		return "", err
	}
	s, err := e.session(accountID)
	if err != nil {
		return "", err
	}
	return s.CreateRoom(ctx, room)
}

// LeaveRoom leaves a room. It disappears from the unified list at once.
func (e *Engine) LeaveRoom(ctx context.Context, ref models.RoomRef) error {
	s, err := e.session(ref.AccountID)
	if err != nil {
		return err
	}
	return s.LeaveRoom(ctx, ref.RoomID, false)
}

// ForgetRoom leaves a room and forgets its history.
func (e *Engine) ForgetRoom(ctx context.Context, ref models.RoomRef) error {
	s, err := e.session(ref.AccountID)
	if err != nil {
		return err
	}
	return s.LeaveRoom(ctx, ref.RoomID, true)
}

// InviteUser invites userID into a room.
func (e *Engine) InviteUser(ctx context.Context, ref models.RoomRef, userID string) error {
	if err := validators.CheckUserID(userID); err != nil {
		return err
	}
	s, err := e.session(ref.AccountID)
	if err != nil {
		return err
	}
	return s.InviteUser(ctx, ref.RoomID, userID)
}

// SetRoomName renames a room.
func (e *Engine) SetRoomName(ctx context.Context, ref models.RoomRef, name string) error {
	if err := e.validator.Validate(ctx, models.NewRoom{Name: name}, validators.FieldName); err != nil {
		return err
	}
	s, err := e.session(ref.AccountID)
	if err != nil {
		return err
	}
	return s.SetRoomName(ctx, ref.RoomID, name)
}

// SetRoomTopic changes or, when empty, clears the topic of a room.
func (e *Engine) SetRoomTopic(ctx context.Context, ref models.RoomRef, topic string) error {
	if err := e.validator.Validate(ctx, models.NewRoom{Topic: topic}, validators.FieldTopic); err != nil {
		return err
	}
	s, err := e.session(ref.AccountID)
	if err != nil {
		return err
	}
	return s.SetRoomTopic(ctx, ref.RoomID, topic)
}

// RoomDetails summarises a room from the local snapshot.
func (e *Engine) RoomDetails(ref models.RoomRef) (models.RoomDetails, error) {
	room, ok := e.ResolveRoom(ref)
	if !ok {
		return models.RoomDetails{}, fmt.Errorf("%w: %s", ErrUnknownRoom, ref.RoomID)
	}
	return models.RoomDetails{
		RoomID:      room.ID,
		Name:        room.DisplayName(),
		Topic:       room.Topic,
		MemberCount: len(room.Members),
		Encrypted:   room.Encrypted,
	}, nil
}

// Profile reads the public profile of an account.
func (e *Engine) Profile(ctx context.Context, accountID string) (models.Profile, error) {
	s, err := e.session(accountID)
	if err != nil {
		return models.Profile{}, err
	}
	return s.Profile(ctx)
}

// SetDisplayName changes the public name of an account.
func (e *Engine) SetDisplayName(ctx context.Context, accountID, name string) error {
	if err := e.validator.Validate(ctx, models.NewRoom{Name: name}, validators.FieldName); err != nil {
		return err
	}
	s, err := e.session(accountID)
	if err != nil {
		return err
	}
	return s.SetDisplayName(ctx, name)
}

// SetAvatarURL points the avatar of an account at a content uri.
func (e *Engine) SetAvatarURL(ctx context.Context, accountID, uri string) error {
	s, err := e.session(accountID)
	if err != nil {
		return err
	}
	return s.SetAvatarURL(ctx, uri)
}

// UploadAvatar uploads the image at path and makes it the avatar of an
// account. Returns the content uri.
func (e *Engine) UploadAvatar(ctx context.Context, accountID, path string) (string, error) {
	s, err := e.session(accountID)
	if err != nil {
		return "", err
	}
	upload, err := e.readUpload(path)
	if err != nil {
		return "", err
	}
	return s.UploadAvatar(ctx, upload)
}

// SendAttachment uploads the file at path and posts it to a room.
func (e *Engine) SendAttachment(ctx context.Context, ref models.RoomRef, path string) error {
	s, err := e.session(ref.AccountID)
	if err != nil {
		return err
	}
	upload, err := e.readUpload(path)
	if err != nil {
		return err
	}
	return s.SendAttachment(ctx, ref.RoomID, upload)
}

// readUpload loads a local file for upload. Files over the media byte
// budget are refused before they are read.
func (e *Engine) readUpload(path string) (models.Upload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return models.Upload{}, err
	}
	if info.IsDir() {
		return models.Upload{}, fmt.Errorf("%s is a directory", path)
	}
	if limit := e.cfg.Media.ByteBudget; limit > 0 && info.Size() > limit {
		return models.Upload{}, fmt.Errorf("%w: %s is %d bytes", ErrFileTooLarge, filepath.Base(path), info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return models.Upload{}, err
	}
	name := filepath.Base(path)
	return models.Upload{FileName: name, MimeType: models.MimeTypeByName(name), Data: data}, nil
}
