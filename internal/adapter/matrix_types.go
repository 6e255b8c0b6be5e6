package adapter

import "encoding/json"

// Wire types of the client-server API. Only the fields the client reads are
// declared.

type loginIdentifier struct {
	Type string `json:"type"`
	User string `json:"user"`
}

type loginRequest struct {
	Type                     string          `json:"type"`
	Identifier               loginIdentifier `json:"identifier"`
	Password                 string          `json:"password,omitempty"`
	InitialDeviceDisplayName string          `json:"initial_device_display_name,omitempty"`
}

type loginResponse struct {
	UserID      string `json:"user_id"`
	AccessToken string `json:"access_token"`
	DeviceID    string `json:"device_id"`
}

type whoAmIResponse struct {
	UserID   string `json:"user_id"`
	DeviceID string `json:"device_id,omitempty"`
}

type sendEventResponse struct {
	EventID string `json:"event_id"`
}

type wireEvent struct {
	EventID        string          `json:"event_id"`
	Type           string          `json:"type"`
	Sender         string          `json:"sender"`
	OriginServerTS int64           `json:"origin_server_ts"`
	Content        json.RawMessage `json:"content"`
	StateKey       *string         `json:"state_key,omitempty"`
	// Redacts is the top-level target of redactions in room versions < 11.
	Redacts string `json:"redacts,omitempty"`
}

type eventList struct {
	Events []wireEvent `json:"events"`
}

type timelineSection struct {
	Events    []wireEvent `json:"events"`
	PrevBatch string      `json:"prev_batch"`
	Limited   bool        `json:"limited"`
}

type unreadNotifications struct {
	NotificationCount *int `json:"notification_count"`
}

type joinedRoom struct {
	State               eventList           `json:"state"`
	Timeline            timelineSection     `json:"timeline"`
	Ephemeral           eventList           `json:"ephemeral"`
	UnreadNotifications unreadNotifications `json:"unread_notifications"`
}

type roomsSection struct {
	Join  map[string]joinedRoom      `json:"join"`
	Leave map[string]json.RawMessage `json:"leave"`
}

type syncResponse struct {
	NextBatch   string       `json:"next_batch"`
	Rooms       roomsSection `json:"rooms"`
	AccountData eventList    `json:"account_data"`
	ToDevice    eventList    `json:"to_device"`
}

type messagesResponse struct {
	Start string      `json:"start"`
	End   string      `json:"end"`
	Chunk []wireEvent `json:"chunk"`
}

type inReplyTo struct {
	EventID string `json:"event_id"`
}

type relatesTo struct {
	RelType   string     `json:"rel_type,omitempty"`
	EventID   string     `json:"event_id,omitempty"`
	Key       string     `json:"key,omitempty"`
	InReplyTo *inReplyTo `json:"m.in_reply_to,omitempty"`
}

type mediaInfo struct {
	MimeType string `json:"mimetype,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

type newContent struct {
	MsgType string `json:"msgtype"`
	Body    string `json:"body"`
}

// eventContent is the union of the content fields of every event type the
// client maps.
type eventContent struct {
	MsgType    string      `json:"msgtype,omitempty"`
	Body       string      `json:"body,omitempty"`
	URL        string      `json:"url,omitempty"`
	FileName   string      `json:"filename,omitempty"`
	Info       *mediaInfo  `json:"info,omitempty"`
	RelatesTo  *relatesTo  `json:"m.relates_to,omitempty"`
	NewContent *newContent `json:"m.new_content,omitempty"`

	Name       string `json:"name,omitempty"`
	Topic      string `json:"topic,omitempty"`
	Membership string `json:"membership,omitempty"`
	Algorithm  string `json:"algorithm,omitempty"`
	Redacts    string `json:"redacts,omitempty"`

	UserIDs       []string `json:"user_ids,omitempty"`
	TransactionID string   `json:"transaction_id,omitempty"`
	FromDevice    string   `json:"from_device,omitempty"`
}

// outgoingContent is the body of a sent message, attachment or reaction.
type outgoingContent struct {
	MsgType    string      `json:"msgtype,omitempty"`
	Body       string      `json:"body,omitempty"`
	URL        string      `json:"url,omitempty"`
	FileName   string      `json:"filename,omitempty"`
	Info       *mediaInfo  `json:"info,omitempty"`
	RelatesTo  *relatesTo  `json:"m.relates_to,omitempty"`
	NewContent *newContent `json:"m.new_content,omitempty"`
}

type uploadResponse struct {
	ContentURI string `json:"content_uri"`
}

type stateEvent struct {
	Type     string `json:"type"`
	StateKey string `json:"state_key"`
	Content  any    `json:"content"`
}

type createRoomRequest struct {
	Name         string       `json:"name,omitempty"`
	Topic        string       `json:"topic,omitempty"`
	Visibility   string       `json:"visibility"`
	Preset       string       `json:"preset"`
	Invite       []string     `json:"invite,omitempty"`
	InitialState []stateEvent `json:"initial_state,omitempty"`
}

type createRoomResponse struct {
	RoomID string `json:"room_id"`
}

type encryptionContent struct {
	Algorithm string `json:"algorithm"`
}

type inviteRequest struct {
	UserID string `json:"user_id"`
}

type roomNameContent struct {
	Name string `json:"name"`
}

type roomTopicContent struct {
	Topic string `json:"topic"`
}

type profileResponse struct {
	DisplayName string `json:"displayname,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

type displayNameRequest struct {
	DisplayName string `json:"displayname"`
}

type avatarURLRequest struct {
	AvatarURL string `json:"avatar_url"`
}

// receiptContent maps event id → receipt type → user id → receipt data.
type receiptContent map[string]map[string]map[string]json.RawMessage
