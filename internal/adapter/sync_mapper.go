package adapter

import (
	"encoding/json"
	"slices"
	"strings"
	"time"

	"github.com/MKhiriev/go-multimatrix/models"
)

const (
	eventTypeMessage      = "m.room.message"
	eventTypeEncrypted    = "m.room.encrypted"
	eventTypeReaction     = "m.reaction"
	eventTypeRedaction    = "m.room.redaction"
	eventTypeMember       = "m.room.member"
	eventTypeName         = "m.room.name"
	eventTypeTopic        = "m.room.topic"
	eventTypeEncryption   = "m.room.encryption"
	eventTypeTyping       = "m.typing"
	eventTypeReceipt      = "m.receipt"
	eventTypeDirect       = "m.direct"
	eventTypeVerification = "m.key.verification.request"

	relTypeReplace    = "m.replace"
	relTypeAnnotation = "m.annotation"

	receiptTypeRead        = "m.read"
	receiptTypeReadPrivate = "m.read.private"
)

var mediaMsgTypes = []string{"m.image", "m.file", "m.video", "m.audio"}

// mapSync turns one /sync response into a wire-independent batch. Rooms are
// emitted in a stable order (sorted by id) so batches are reproducible.
func mapSync(accountID string, resp syncResponse) models.SyncBatch {
	batch := models.SyncBatch{NextCursor: resp.NextBatch}

	direct := directRooms(resp.AccountData.Events)

	roomIDs := make([]string, 0, len(resp.Rooms.Join))
	for id := range resp.Rooms.Join {
		roomIDs = append(roomIDs, id)
	}
	slices.Sort(roomIDs)

	for _, roomID := range roomIDs {
		delta := mapJoinedRoom(accountID, roomID, resp.Rooms.Join[roomID])
		if _, ok := direct[roomID]; ok {
			delta.Direct = ptr(true)
		}
		batch.Rooms = append(batch.Rooms, delta)
	}

	left := make([]string, 0, len(resp.Rooms.Leave))
	for id := range resp.Rooms.Leave {
		left = append(left, id)
	}
	slices.Sort(left)
	for _, roomID := range left {
		batch.Rooms = append(batch.Rooms, models.RoomDelta{RoomID: roomID, Left: true})
	}

	for _, ev := range resp.ToDevice.Events {
		if ev.Type != eventTypeVerification {
			continue
		}
		var content eventContent
		if err := json.Unmarshal(ev.Content, &content); err != nil || content.TransactionID == "" {
			continue
		}
		batch.Verifications = append(batch.Verifications, models.IncomingVerification{
			TransactionID: content.TransactionID,
			FromUser:      ev.Sender,
			FromDevice:    content.FromDevice,
		})
	}

	return batch
}

func mapJoinedRoom(accountID, roomID string, room joinedRoom) models.RoomDelta {
	delta := models.RoomDelta{
		RoomID:      roomID,
		PrevBatch:   room.Timeline.PrevBatch,
		UnreadCount: room.UnreadNotifications.NotificationCount,
	}

	for _, ev := range room.State.Events {
		applyState(&delta, ev)
	}

	for _, ev := range room.Timeline.Events {
		if ev.StateKey != nil && ev.Type != eventTypeMember {
			applyState(&delta, ev)
			continue
		}
		if raw, ok := mapTimelineEvent(accountID, roomID, ev); ok {
			delta.Events = append(delta.Events, raw)
		}
	}

	for _, ev := range room.Ephemeral.Events {
		switch ev.Type {
		case eventTypeTyping:
			var content eventContent
			if err := json.Unmarshal(ev.Content, &content); err != nil {
				continue
			}
			delta.HasTyping = true
			delta.Typing = slices.Clone(content.UserIDs)
		case eventTypeReceipt:
			delta.Receipts = append(delta.Receipts, mapReceipts(ev.Content)...)
		}
	}

	return delta
}

// applyState records a state change of the room itself.
func applyState(delta *models.RoomDelta, ev wireEvent) {
	var content eventContent
	if err := json.Unmarshal(ev.Content, &content); err != nil {
		return
	}

	switch ev.Type {
	case eventTypeName:
		delta.Name = ptr(content.Name)
	case eventTypeTopic:
		delta.Topic = ptr(content.Topic)
	case eventTypeEncryption:
		delta.Encrypted = ptr(content.Algorithm != "")
	case eventTypeMember:
		if ev.StateKey == nil {
			return
		}
		if delta.Members == nil {
			delta.Members = make(map[string]string)
		}
		delta.Members[*ev.StateKey] = content.Membership
	}
}

// mapTimelineEvent converts one timeline event. Unknown event types are
// skipped.
func mapTimelineEvent(accountID, roomID string, ev wireEvent) (models.RawEvent, bool) {
	raw := models.RawEvent{
		ID:        ev.EventID,
		Sender:    ev.Sender,
		Timestamp: time.UnixMilli(ev.OriginServerTS),
	}

	if ev.Type == eventTypeEncrypted {
		raw.Kind = models.KindMessage
		raw.Undecryptable = true
		raw.Content = models.MessageContent{MsgType: eventTypeEncrypted}
		return raw, true
	}

	var content eventContent
	if len(ev.Content) > 0 {
		if err := json.Unmarshal(ev.Content, &content); err != nil {
			return raw, false
		}
	}

	switch ev.Type {
	case eventTypeMessage:
		if content.RelatesTo != nil && content.RelatesTo.RelType == relTypeReplace && content.NewContent != nil {
			raw.Kind = models.KindEdit
			raw.TargetID = content.RelatesTo.EventID
			raw.Content = models.MessageContent{MsgType: content.NewContent.MsgType, Body: content.NewContent.Body}
			return raw, true
		}
		if content.MsgType == "" {
			// Redacted in place by the server.
			return raw, false
		}

		raw.Kind = models.KindMessage
		raw.Content = models.MessageContent{MsgType: content.MsgType, Body: content.Body}
		if content.RelatesTo != nil && content.RelatesTo.InReplyTo != nil {
			raw.ReplyTo = content.RelatesTo.InReplyTo.EventID
			raw.Content.Body = stripReplyFallback(content.Body)
		}
		raw.Media = mediaRef(accountID, roomID, ev.EventID, content)
		return raw, true

	case eventTypeReaction:
		if content.RelatesTo == nil || content.RelatesTo.RelType != relTypeAnnotation {
			return raw, false
		}
		raw.Kind = models.KindReaction
		raw.TargetID = content.RelatesTo.EventID
		raw.Key = content.RelatesTo.Key
		return raw, true

	case eventTypeRedaction:
		raw.Kind = models.KindRedaction
		raw.TargetID = ev.Redacts
		if raw.TargetID == "" {
			raw.TargetID = content.Redacts
		}
		return raw, raw.TargetID != ""

	case eventTypeMember:
		if ev.StateKey == nil {
			return raw, false
		}
		raw.Kind = models.KindMembershipChange
		raw.StateKey = *ev.StateKey
		raw.Membership = content.Membership
		return raw, true
	}

	return raw, false
}

func mediaRef(accountID, roomID, eventID string, content eventContent) *models.MediaRef {
	if content.URL == "" || !slices.Contains(mediaMsgTypes, content.MsgType) {
		return nil
	}

	ref := &models.MediaRef{
		URI:     content.URL,
		Name:    content.Body,
		Room:    models.RoomRef{AccountID: accountID, RoomID: roomID},
		EventID: eventID,
	}
	if content.FileName != "" {
		ref.Name = content.FileName
	}
	if content.Info != nil {
		ref.MimeType = content.Info.MimeType
		ref.Size = content.Info.Size
	}
	return ref
}

func mapReceipts(raw json.RawMessage) []models.Receipt {
	var content receiptContent
	if err := json.Unmarshal(raw, &content); err != nil {
		return nil
	}

	eventIDs := make([]string, 0, len(content))
	for id := range content {
		eventIDs = append(eventIDs, id)
	}
	slices.Sort(eventIDs)

	var receipts []models.Receipt
	for _, eventID := range eventIDs {
		for _, receiptType := range []string{receiptTypeRead, receiptTypeReadPrivate} {
			users := content[eventID][receiptType]
			userIDs := make([]string, 0, len(users))
			for userID := range users {
				userIDs = append(userIDs, userID)
			}
			slices.Sort(userIDs)
			for _, userID := range userIDs {
				receipts = append(receipts, models.Receipt{UserID: userID, EventID: eventID})
			}
		}
	}
	return receipts
}

// directRooms collects the room ids listed in an m.direct account data event.
func directRooms(events []wireEvent) map[string]struct{} {
	rooms := make(map[string]struct{})
	for _, ev := range events {
		if ev.Type != eventTypeDirect {
			continue
		}
		var content map[string][]string
		if err := json.Unmarshal(ev.Content, &content); err != nil {
			continue
		}
		for _, ids := range content {
			for _, id := range ids {
				rooms[id] = struct{}{}
			}
		}
	}
	return rooms
}

// stripReplyFallback removes the quoted "> " lines and the blank separator
// that older clients prepend to reply bodies. A body that is nothing but a
// quote is returned unchanged.
func stripReplyFallback(body string) string {
	lines := strings.Split(body, "\n")

	i := 0
	for i < len(lines) && strings.HasPrefix(lines[i], "> ") {
		i++
	}
	if i < len(lines) && lines[i] == "" {
		i++
	}

	rest := strings.Join(lines[i:], "\n")
	if rest == "" {
		return body
	}
	return rest
}

func ptr[T any](v T) *T {
	return &v
}
