package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/go-multimatrix/internal/adapter"
	"github.com/MKhiriev/go-multimatrix/internal/mock"
	"github.com/MKhiriev/go-multimatrix/internal/validators"
	"github.com/MKhiriev/go-multimatrix/models"
)

// ── Session ─────────────────────────────────────────────────────────────────

func TestCreateRoom_ReturnsServerID(t *testing.T) {
	s, client, _ := newTestSession(t, "@alice:example.org", &recorder{})
	room := models.NewRoom{Name: "Team", Encrypted: true, Invite: []string{"@bob:example.org"}}

	client.EXPECT().CreateRoom(gomock.Any(), room).Return("!new", nil)

	id, err := s.CreateRoom(context.Background(), room)

	require.NoError(t, err)
	assert.Equal(t, "!new", id)
	_, known := s.Room("!new")
	assert.False(t, known, "the room arrives with the next sync")
}

func TestLeaveRoom(t *testing.T) {
	tests := []struct {
		name       string
		forget     bool
		leaveErr   error
		forgetErr  error
		wantErr    error
		wantRemove bool
	}{
		{name: "leave", wantRemove: true},
		{name: "leave and forget", forget: true, wantRemove: true},
		{name: "leave refused", leaveErr: fmt.Errorf("leave: %w", adapter.ErrNetwork), wantErr: adapter.ErrNetwork},
		{name: "forget refused after leaving", forget: true, forgetErr: fmt.Errorf("forget: %w", adapter.ErrNetwork), wantErr: adapter.ErrNetwork, wantRemove: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &recorder{}
			s, client, _ := newTestSession(t, "@alice:example.org", pub)
			seedRoom(s, "!r", message("$1", "@bob", "hi"))

			client.EXPECT().LeaveRoom(gomock.Any(), "!r").Return(tt.leaveErr)
			if tt.forget && tt.leaveErr == nil {
				client.EXPECT().ForgetRoom(gomock.Any(), "!r").Return(tt.forgetErr)
			}

			err := s.LeaveRoom(context.Background(), "!r", tt.forget)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			_, known := s.Room("!r")
			assert.Equal(t, !tt.wantRemove, known)
			assert.Equal(t, boolToInt(tt.wantRemove), pub.count("@alice:example.org", models.EventRoomRemoved))
		})
	}
}

func TestLeaveRoom_LaterSyncDoesNotAnnounceTwice(t *testing.T) {
	pub := &recorder{}
	s, client, _ := newTestSession(t, "@alice:example.org", pub)
	seedRoom(s, "!r")

	client.EXPECT().LeaveRoom(gomock.Any(), "!r").Return(nil)
	require.NoError(t, s.LeaveRoom(context.Background(), "!r", false))

	pub.PublishAll(s.applyBatch(models.SyncBatch{Rooms: []models.RoomDelta{{RoomID: "!r", Left: true}}}))

	assert.Equal(t, 1, pub.count("@alice:example.org", models.EventRoomRemoved))
}

func TestLeaveRoom_RunsOnSyncGoroutine(t *testing.T) {
	pub := &recorder{}
	s, client, cursors := newTestSession(t, "@alice:example.org", pub)
	seedRoom(s, "!r")

	cursors.EXPECT().LoadCursor(gomock.Any(), gomock.Any()).Return("", nil)
	client.EXPECT().CloseIdleConnections()
	client.EXPECT().Sync(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(blockSync)
	client.EXPECT().LeaveRoom(gomock.Any(), "!r").Return(nil)
	client.EXPECT().ForgetRoom(gomock.Any(), "!r").Return(nil)

	s.Start(context.Background())
	require.Eventually(t, s.Running, time.Second, time.Millisecond)

	require.NoError(t, s.LeaveRoom(context.Background(), "!r", true))
	assert.Empty(t, s.Rooms())
}

func TestRoomCommands_Preconditions(t *testing.T) {
	tests := []struct {
		name    string
		room    string
		logout  bool
		wantErr error
	}{
		{name: "unknown room", room: "!nope", wantErr: ErrUnknownRoom},
		{name: "logged out", room: "!r", logout: true, wantErr: ErrSessionNotRunning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, _ := newTestSession(t, "@alice:example.org", &recorder{})
			seedRoom(s, "!r")
			if tt.logout {
				s.setStatus(models.StatusLoggedOut, nil)
			}
			ctx := context.Background()

			assert.ErrorIs(t, s.LeaveRoom(ctx, tt.room, true), tt.wantErr)
			assert.ErrorIs(t, s.InviteUser(ctx, tt.room, "@bob:example.org"), tt.wantErr)
			assert.ErrorIs(t, s.SetRoomName(ctx, tt.room, "x"), tt.wantErr)
			assert.ErrorIs(t, s.SetRoomTopic(ctx, tt.room, "x"), tt.wantErr)
			assert.ErrorIs(t, s.SendAttachment(ctx, tt.room, models.Upload{FileName: "a.png"}), tt.wantErr)
		})
	}
}

func TestSetRoomState_UpdatesSnapshot(t *testing.T) {
	pub := &recorder{}
	s, client, _ := newTestSession(t, "@alice:example.org", pub)
	seedRoom(s, "!r")

	client.EXPECT().SetRoomName(gomock.Any(), "!r", "Team").Return(nil)
	client.EXPECT().SetRoomTopic(gomock.Any(), "!r", "plans").Return(nil)

	require.NoError(t, s.SetRoomName(context.Background(), "!r", "Team"))
	require.NoError(t, s.SetRoomTopic(context.Background(), "!r", "plans"))

	room, _ := s.Room("!r")
	assert.Equal(t, "Team", room.Name)
	assert.Equal(t, "plans", room.Topic)
	assert.Equal(t, 2, pub.count("@alice:example.org", models.EventRoomUpdated))

	// the sync echo of the same name changes nothing
	pub.PublishAll(s.applyBatch(models.SyncBatch{Rooms: []models.RoomDelta{{RoomID: "!r", Name: ptr("Team")}}}))
	assert.Equal(t, 2, pub.count("@alice:example.org", models.EventRoomUpdated))
}

func TestSetRoomName_RefusedLeavesSnapshot(t *testing.T) {
	pub := &recorder{}
	s, client, _ := newTestSession(t, "@alice:example.org", pub)
	seedRoom(s, "!r")

	client.EXPECT().SetRoomName(gomock.Any(), "!r", "Team").Return(&adapter.MatrixError{StatusCode: 403, Code: adapter.ErrCodeForbidden})

	err := s.SetRoomName(context.Background(), "!r", "Team")

	require.Error(t, err)
	room, _ := s.Room("!r")
	assert.Empty(t, room.Name)
	assert.Zero(t, pub.count("@alice:example.org", models.EventRoomUpdated))
}

func TestUploadAvatar(t *testing.T) {
	s, client, _ := newTestSession(t, "@alice:example.org", &recorder{})
	upload := models.Upload{FileName: "me.png", MimeType: "image/png", Data: []byte("png")}

	gomock.InOrder(
		client.EXPECT().UploadMedia(gomock.Any(), upload).Return("mxc://example.org/me", nil),
		client.EXPECT().SetAvatarURL(gomock.Any(), "mxc://example.org/me").Return(nil),
	)

	uri, err := s.UploadAvatar(context.Background(), upload)

	require.NoError(t, err)
	assert.Equal(t, "mxc://example.org/me", uri)
}

func TestUploadAvatar_UploadFailureKeepsAvatar(t *testing.T) {
	s, client, _ := newTestSession(t, "@alice:example.org", &recorder{})

	client.EXPECT().UploadMedia(gomock.Any(), gomock.Any()).Return("", fmt.Errorf("upload: %w", adapter.ErrMedia))

	_, err := s.UploadAvatar(context.Background(), models.Upload{FileName: "me.png"})

	assert.ErrorIs(t, err, adapter.ErrMedia)
}

func TestSendAttachment(t *testing.T) {
	pub := &recorder{}
	s, client, _ := newTestSession(t, "@alice:example.org", pub)
	seedRoom(s, "!r")
	upload := models.Upload{FileName: "cat.gif", MimeType: "image/gif", Data: []byte("gif89a")}

	sent := make(chan models.Outgoing, 1)
	client.EXPECT().UploadMedia(gomock.Any(), upload).Return("mxc://example.org/cat", nil)
	client.EXPECT().Send(gomock.Any(), "!r", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, msg models.Outgoing) (string, error) {
			sent <- msg
			return "$sent", nil
		})

	require.NoError(t, s.SendAttachment(context.Background(), "!r", upload))
	s.Close()

	msg := <-sent
	assert.Equal(t, models.OutgoingAttachment, msg.Kind)
	assert.Equal(t, "cat.gif", msg.Body)
	require.NotNil(t, msg.Media)
	assert.Equal(t, "mxc://example.org/cat", msg.Media.URI)
	assert.Equal(t, "image/gif", msg.Media.MimeType)
	assert.EqualValues(t, 6, msg.Media.Size)
	assert.Equal(t, models.RoomRef{AccountID: "@alice:example.org", RoomID: "!r"}, msg.Media.Room)
	assert.Zero(t, pub.count("@alice:example.org", models.EventSendFailed))
}

func TestSendAttachment_UploadFailureSendsNothing(t *testing.T) {
	s, client, _ := newTestSession(t, "@alice:example.org", &recorder{})
	seedRoom(s, "!r")

	client.EXPECT().UploadMedia(gomock.Any(), gomock.Any()).Return("", fmt.Errorf("upload: %w", adapter.ErrMedia))

	err := s.SendAttachment(context.Background(), "!r", models.Upload{FileName: "a.bin"})

	assert.ErrorIs(t, err, adapter.ErrMedia)
}

// ── Engine ──────────────────────────────────────────────────────────────────

func registerIdle(t *testing.T, f *engineFixture, userID string) *mock.MockProtocolClient {
	t.Helper()
	client := mock.NewMockProtocolClient(f.ctrl)
	_, err := f.engine.register(models.Account{UserID: userID, DeviceID: "DEV"}, client)
	require.NoError(t, err)
	return client
}

func TestEngine_RoomCommandsValidateInput(t *testing.T) {
	f := newEngineFixture(t)
	registerIdle(t, f, "@a:a.org")
	ref := models.RoomRef{AccountID: "@a:a.org", RoomID: "!r"}
	ctx := context.Background()
	long := strings.Repeat("n", validators.MaxNameBytes+1)

	_, err := f.engine.CreateRoom(ctx, "@a:a.org", models.NewRoom{Invite: []string{"bob"}})
	assert.ErrorIs(t, err, validators.ErrInvalidUserID)

	assert.ErrorIs(t, f.engine.InviteUser(ctx, ref, "bob"), validators.ErrInvalidUserID)
	assert.ErrorIs(t, f.engine.SetRoomName(ctx, ref, long), validators.ErrNameTooLong)
	assert.ErrorIs(t, f.engine.SetDisplayName(ctx, "@a:a.org", long), validators.ErrNameTooLong)

	_, err = f.engine.CreateRoom(ctx, "@nobody:a.org", models.NewRoom{})
	assert.ErrorIs(t, err, ErrUnknownAccount)
}

func TestEngine_CreateRoomAndProfile(t *testing.T) {
	f := newEngineFixture(t)
	client := registerIdle(t, f, "@a:a.org")
	ctx := context.Background()

	client.EXPECT().CreateRoom(gomock.Any(), models.NewRoom{Name: "Lobby", Public: true}).Return("!lobby", nil)
	client.EXPECT().GetProfile(gomock.Any()).Return(models.Profile{DisplayName: "A"}, nil)
	client.EXPECT().SetDisplayName(gomock.Any(), "Alice").Return(nil)
	client.EXPECT().SetAvatarURL(gomock.Any(), "mxc://a.org/me").Return(nil)

	id, err := f.engine.CreateRoom(ctx, "@a:a.org", models.NewRoom{Name: "Lobby", Public: true})
	require.NoError(t, err)
	assert.Equal(t, "!lobby", id)

	profile, err := f.engine.Profile(ctx, "@a:a.org")
	require.NoError(t, err)
	assert.Equal(t, "A", profile.DisplayName)

	assert.NoError(t, f.engine.SetDisplayName(ctx, "@a:a.org", "Alice"))
	assert.NoError(t, f.engine.SetAvatarURL(ctx, "@a:a.org", "mxc://a.org/me"))
}

func TestEngine_ForgetRoomLeavesTheUnifiedList(t *testing.T) {
	f := newEngineFixture(t)
	client := registerIdle(t, f, "@a:a.org")
	s, err := f.engine.session("@a:a.org")
	require.NoError(t, err)
	f.engine.dispatcher.PublishAll(s.applyBatch(models.SyncBatch{Rooms: []models.RoomDelta{{RoomID: "!r", Name: ptr("Old")}}}))
	require.Len(t, f.engine.GetUnifiedRooms(models.SortAlpha), 1)

	client.EXPECT().LeaveRoom(gomock.Any(), "!r").Return(nil)
	client.EXPECT().ForgetRoom(gomock.Any(), "!r").Return(nil)

	require.NoError(t, f.engine.ForgetRoom(context.Background(), models.RoomRef{AccountID: "@a:a.org", RoomID: "!r"}))

	assert.Empty(t, f.engine.GetUnifiedRooms(models.SortAlpha))
	assert.Contains(t, pollKinds(f.engine), models.EventRoomRemoved)
}

func TestEngine_RoomDetails(t *testing.T) {
	f := newEngineFixture(t)
	registerIdle(t, f, "@a:a.org")
	s, err := f.engine.session("@a:a.org")
	require.NoError(t, err)
	s.applyBatch(models.SyncBatch{Rooms: []models.RoomDelta{
		{
			RoomID:    "!named",
			Name:      ptr("Team"),
			Topic:     ptr("plans"),
			Encrypted: ptr(true),
			Members:   map[string]string{"@a:a.org": "join", "@b:b.org": "join", "@c:c.org": "invite"},
		},
		{RoomID: "!bare"},
	}})

	tests := []struct {
		name           string
		roomID         string
		want           models.RoomDetails
		wantEncryption string
		wantErr        error
	}{
		{
			name:           "named encrypted",
			roomID:         "!named",
			want:           models.RoomDetails{RoomID: "!named", Name: "Team", Topic: "plans", MemberCount: 2, Encrypted: true},
			wantEncryption: "Encrypted",
		},
		{
			name:           "name falls back to id",
			roomID:         "!bare",
			want:           models.RoomDetails{RoomID: "!bare", Name: "!bare"},
			wantEncryption: "Not encrypted",
		},
		{name: "unknown", roomID: "!nope", wantErr: ErrUnknownRoom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.engine.RoomDetails(models.RoomRef{AccountID: "@a:a.org", RoomID: tt.roomID})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantEncryption, got.Encryption())
		})
	}
}

func TestEngine_SendAttachmentReadsFile(t *testing.T) {
	f := newEngineFixture(t)
	client := registerIdle(t, f, "@a:a.org")
	s, err := f.engine.session("@a:a.org")
	require.NoError(t, err)
	seedRoom(s, "!r")

	path := filepath.Join(t.TempDir(), "Photo.JPG")
	require.NoError(t, os.WriteFile(path, []byte("jpegdata"), 0o600))

	sent := make(chan struct{})
	client.EXPECT().UploadMedia(gomock.Any(), models.Upload{FileName: "Photo.JPG", MimeType: "image/jpeg", Data: []byte("jpegdata")}).
		Return("mxc://a.org/photo", nil)
	client.EXPECT().Send(gomock.Any(), "!r", gomock.Any()).DoAndReturn(
		func(context.Context, string, models.Outgoing) (string, error) {
			close(sent)
			return "$e", nil
		})

	require.NoError(t, f.engine.SendAttachment(context.Background(), models.RoomRef{AccountID: "@a:a.org", RoomID: "!r"}, path))

	select {
	case <-sent:
	case <-time.After(time.Second):
		t.Fatal("attachment message was not sent")
	}
}

func TestEngine_ReadUpload(t *testing.T) {
	f := newEngineFixture(t)
	f.engine.cfg.Media.ByteBudget = 4
	dir := t.TempDir()

	small := filepath.Join(dir, "a.svg")
	require.NoError(t, os.WriteFile(small, []byte("<s/>"), 0o600))
	big := filepath.Join(dir, "b.png")
	require.NoError(t, os.WriteFile(big, []byte("too big"), 0o600))

	upload, err := f.engine.readUpload(small)
	require.NoError(t, err)
	assert.Equal(t, models.Upload{FileName: "a.svg", MimeType: "image/svg+xml", Data: []byte("<s/>")}, upload)

	_, err = f.engine.readUpload(big)
	assert.ErrorIs(t, err, ErrFileTooLarge)

	_, err = f.engine.readUpload(dir)
	assert.Error(t, err)

	_, err = f.engine.readUpload(filepath.Join(dir, "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
