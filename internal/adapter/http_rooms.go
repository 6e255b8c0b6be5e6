package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/MKhiriev/go-multimatrix/models"
)

const (
	mediaUploadAPI = "/_matrix/media/v3"

	visibilityPublic  = "public"
	visibilityPrivate = "private"

	algorithmMegolm = "m.megolm.v1.aes-sha2"
)

// UploadMedia implements [ProtocolClient].
func (m *matrixClient) UploadMedia(ctx context.Context, upload models.Upload) (string, error) {
	mime := upload.MimeType
	if mime == "" {
		mime = models.MimeTypeByName(upload.FileName)
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.RequestTimeout)
	defer cancel()

	var result uploadResponse
	req := m.authedRequest(ctx).
		SetHeader("Content-Type", mime).
		SetBody(upload.Data).
		SetResult(&result)
	if upload.FileName != "" {
		req.SetQueryParam("filename", upload.FileName)
	}

	resp, err := req.Post(mediaUploadAPI + "/upload")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMedia, transportError("upload request", err))
	}
	if err = mapHTTPError(resp); err != nil {
		return "", fmt.Errorf("%w: %w", ErrMedia, err)
	}
	if _, _, err = parseMXC(result.ContentURI); err != nil {
		return "", fmt.Errorf("%w: upload response: %w", ErrMedia, err)
	}

	m.log(ctx).Debug().Str("func", "matrixClient.UploadMedia").Str("content_uri", result.ContentURI).Int("bytes", len(upload.Data)).Msg("media uploaded")
	return result.ContentURI, nil
}

// CreateRoom implements [ProtocolClient]. Encrypted private rooms get the
// encryption state event on creation.
func (m *matrixClient) CreateRoom(ctx context.Context, room models.NewRoom) (string, error) {
	body := createRoomRequest{
		Name:       room.Name,
		Topic:      room.Topic,
		Visibility: visibilityPrivate,
		Preset:     room.Preset(),
		Invite:     room.Invitees(),
	}
	if room.Public {
		body.Visibility = visibilityPublic
	} else if room.Encrypted {
		body.InitialState = append(body.InitialState, stateEvent{
			Type:    eventTypeEncryption,
			Content: encryptionContent{Algorithm: algorithmMegolm},
		})
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.RequestTimeout)
	defer cancel()

	var result createRoomResponse
	resp, err := m.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&result).
		Post(clientAPI + "/createRoom")
	if err != nil {
		return "", transportError("create room request", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return "", err
	}
	if result.RoomID == "" {
		return "", fmt.Errorf("create room response without room id")
	}

	return result.RoomID, nil
}

// LeaveRoom implements [ProtocolClient].
func (m *matrixClient) LeaveRoom(ctx context.Context, roomID string) error {
	return m.roomAction(ctx, roomID, "leave", struct{}{})
}

// ForgetRoom implements [ProtocolClient].
func (m *matrixClient) ForgetRoom(ctx context.Context, roomID string) error {
	return m.roomAction(ctx, roomID, "forget", struct{}{})
}

// InviteUser implements [ProtocolClient].
func (m *matrixClient) InviteUser(ctx context.Context, roomID, userID string) error {
	return m.roomAction(ctx, roomID, "invite", inviteRequest{UserID: userID})
}

// roomAction posts body to /rooms/{roomId}/{action}.
func (m *matrixClient) roomAction(ctx context.Context, roomID, action string, body any) error {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.RequestTimeout)
	defer cancel()

	resp, err := m.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetPathParam("roomId", roomID).
		SetBody(body).
		Post(clientAPI + "/rooms/{roomId}/" + action)
	if err != nil {
		return transportError(action+" request", err)
	}

	return mapHTTPError(resp)
}

// SetRoomName implements [ProtocolClient].
func (m *matrixClient) SetRoomName(ctx context.Context, roomID, name string) error {
	return m.putState(ctx, roomID, eventTypeName, roomNameContent{Name: name})
}

// SetRoomTopic implements [ProtocolClient].
func (m *matrixClient) SetRoomTopic(ctx context.Context, roomID, topic string) error {
	return m.putState(ctx, roomID, eventTypeTopic, roomTopicContent{Topic: topic})
}

// putState replaces the state event of eventType with an empty state key.
func (m *matrixClient) putState(ctx context.Context, roomID, eventType string, content any) error {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.RequestTimeout)
	defer cancel()

	resp, err := m.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetPathParams(map[string]string{"roomId": roomID, "eventType": eventType}).
		SetBody(content).
		Put(clientAPI + "/rooms/{roomId}/state/{eventType}/")
	if err != nil {
		return transportError("state request", err)
	}

	return mapHTTPError(resp)
}

// GetProfile implements [ProtocolClient]. A user who never set a profile
// gets M_NOT_FOUND from some servers; that is an empty profile.
func (m *matrixClient) GetProfile(ctx context.Context) (models.Profile, error) {
	userID := m.currentUser()
	if userID == "" {
		return models.Profile{}, fmt.Errorf("%w: not signed in", ErrAuth)
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.RequestTimeout)
	defer cancel()

	var result profileResponse
	resp, err := m.authedRequest(ctx).
		SetPathParam("userId", userID).
		SetResult(&result).
		Get(clientAPI + "/profile/{userId}")
	if err != nil {
		return models.Profile{}, transportError("profile request", err)
	}
	if err = mapHTTPError(resp); err != nil {
		var matrixErr *MatrixError
		if errors.As(err, &matrixErr) && (matrixErr.Code == ErrCodeNotFound || matrixErr.StatusCode == http.StatusNotFound) {
			return models.Profile{}, nil
		}
		return models.Profile{}, err
	}

	return models.Profile{DisplayName: result.DisplayName, AvatarURL: result.AvatarURL}, nil
}

// SetDisplayName implements [ProtocolClient].
func (m *matrixClient) SetDisplayName(ctx context.Context, name string) error {
	return m.putProfile(ctx, "displayname", displayNameRequest{DisplayName: name})
}

// SetAvatarURL implements [ProtocolClient].
func (m *matrixClient) SetAvatarURL(ctx context.Context, uri string) error {
	if _, _, err := parseMXC(uri); err != nil {
		return fmt.Errorf("%w: %w", ErrMedia, err)
	}
	return m.putProfile(ctx, "avatar_url", avatarURLRequest{AvatarURL: uri})
}

func (m *matrixClient) putProfile(ctx context.Context, field string, body any) error {
	userID := m.currentUser()
	if userID == "" {
		return fmt.Errorf("%w: not signed in", ErrAuth)
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.RequestTimeout)
	defer cancel()

	resp, err := m.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetPathParam("userId", userID).
		SetBody(body).
		Put(clientAPI + "/profile/{userId}/" + field)
	if err != nil {
		return transportError("profile "+field+" request", err)
	}

	return mapHTTPError(resp)
}

// attachmentMsgType picks the message type of an upload from its mime type.
func attachmentMsgType(mime string) string {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return "m.image"
	case strings.HasPrefix(mime, "video/"):
		return "m.video"
	case strings.HasPrefix(mime, "audio/"):
		return "m.audio"
	default:
		return "m.file"
	}
}
