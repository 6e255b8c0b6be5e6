package models

import (
	"path/filepath"
	"strings"
)

// Room creation presets of the client-server API.
const (
	PresetPrivateChat        = "private_chat"
	PresetTrustedPrivateChat = "trusted_private_chat"
	PresetPublicChat         = "public_chat"
)

// NewRoom describes a room to create.
type NewRoom struct {
	Name  string
	Topic string
	// Public rooms are listed in the server directory and joinable by
	// anyone.
	Public bool
	// Encrypted asks for end-to-end encryption. Ignored for public rooms.
	Encrypted bool
	// Invite lists user ids invited on creation. Blank entries are skipped.
	Invite []string
}

// Preset picks the creation preset: public rooms use the public preset,
// encrypted private rooms the trusted one.
func (r NewRoom) Preset() string {
	switch {
	case r.Public:
		return PresetPublicChat
	case r.Encrypted:
		return PresetTrustedPrivateChat
	default:
		return PresetPrivateChat
	}
}

// Invitees returns the trimmed, non-blank invite list.
func (r NewRoom) Invitees() []string {
	out := make([]string, 0, len(r.Invite))
	for _, id := range r.Invite {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

// Profile is the public profile of an account.
type Profile struct {
	DisplayName string
	// AvatarURL is a content uri, "mxc://server/id".
	AvatarURL string
}

// Upload is content stored in the media repository of a homeserver.
type Upload struct {
	FileName string
	MimeType string
	Data     []byte
}

// RoomDetails is the info panel of one room.
type RoomDetails struct {
	RoomID      string
	Name        string
	Topic       string
	MemberCount int
	Encrypted   bool
}

// Encryption is the label shown for the encryption state.
func (d RoomDetails) Encryption() string {
	if d.Encrypted {
		return "Encrypted"
	}
	return "Not encrypted"
}

// MimeTypeByName guesses a content type from the file extension. Unknown
// extensions are sent as opaque bytes.
func MimeTypeByName(name string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")) {
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "svg":
		return "image/svg+xml"
	default:
		return "application/octet-stream"
	}
}
