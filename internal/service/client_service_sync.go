package service

import (
	"errors"

	"github.com/MKhiriev/go-multimatrix/internal/timeline"
	"github.com/MKhiriev/go-multimatrix/models"
)

// applyBatch merges one sync batch into the account's rooms and returns
// the domain events to publish, in the order the changes happened.
func (s *AccountSession) applyBatch(batch models.SyncBatch) []models.DomainEvent {
	var events []models.DomainEvent

	for _, delta := range batch.Rooms {
		if delta.Left {
			if s.removeRoom(delta.RoomID) {
				events = append(events, s.event(models.EventRoomRemoved, delta.RoomID))
			}
			continue
		}

		room, created := s.ensureRoom(delta.RoomID)
		if created {
			s.log.Debug().Str("room_id", delta.RoomID).Msg("new room")
		}
		events = append(events, s.applyDelta(room, delta, created)...)
	}

	for _, req := range batch.Verifications {
		ev := s.event(models.EventVerificationRequested, "")
		ev.Users = []string{req.FromUser}
		if s.onVerificationRequest != nil {
			ev.VerificationID = s.onVerificationRequest(s.ID(), req)
		}
		events = append(events, ev)
	}

	return events
}

func (s *AccountSession) applyDelta(room *timeline.Room, delta models.RoomDelta, created bool) []models.DomainEvent {
	var events []models.DomainEvent
	roomID := delta.RoomID

	updated := false
	if delta.Name != nil {
		updated = room.SetName(*delta.Name) || updated
	}
	if delta.Topic != nil {
		updated = room.SetTopic(*delta.Topic) || updated
	}
	if delta.Encrypted != nil {
		updated = room.SetEncrypted(*delta.Encrypted) || updated
	}
	if delta.Direct != nil {
		updated = room.SetDirect(*delta.Direct) || updated
	}
	for userID, membership := range delta.Members {
		room.SetMembership(userID, membership)
	}
	if delta.PrevBatch != "" {
		room.InitBackfillCursor(delta.PrevBatch)
	}

	switch {
	case created:
		events = append(events, s.event(models.EventRoomAdded, roomID))
	case updated:
		events = append(events, s.event(models.EventRoomUpdated, roomID))
	}

	for _, raw := range delta.Events {
		if ev, ok := s.applyEvent(room, raw); ok {
			events = append(events, ev)
		}
	}

	if delta.HasTyping && room.SetTyping(delta.Typing) {
		ev := s.event(models.EventTypingChanged, roomID)
		ev.Users = room.Typing()
		events = append(events, ev)
	}

	unreadChanged := false
	for _, receipt := range delta.Receipts {
		if !room.SetReceipt(receipt.UserID, receipt.EventID) {
			continue
		}
		ev := s.event(models.EventReadReceiptUpdated, roomID)
		ev.EventID = receipt.EventID
		ev.Users = []string{receipt.UserID}
		events = append(events, ev)

		if receipt.UserID == s.ID() {
			moved, err := room.MarkRead(receipt.EventID)
			if err != nil {
				s.logInvariant(err, roomID, receipt.EventID)
			}
			unreadChanged = unreadChanged || moved
		}
	}

	if delta.UnreadCount != nil && room.SetUnread(*delta.UnreadCount) {
		unreadChanged = true
	}
	if unreadChanged && !created {
		events = append(events, s.event(models.EventUnreadChanged, roomID))
	}

	return events
}

// applyEvent stores one timeline event and reports the domain event it
// caused. Redelivered events cause none.
func (s *AccountSession) applyEvent(room *timeline.Room, raw models.RawEvent) (models.DomainEvent, bool) {
	roomID := room.ID()
	ev := s.event(models.EventMessageReceived, roomID)
	ev.EventID = raw.ID

	switch raw.Kind {
	case models.KindMessage:
		event := toTimelineEvent(roomID, raw)
		if !room.Append(event) {
			return ev, false
		}
		if raw.Undecryptable {
			s.fetchRoomKey(roomID, raw.ID)
		}
		return ev, true

	case models.KindMembershipChange:
		if !room.Append(toTimelineEvent(roomID, raw)) {
			return ev, false
		}
		room.SetMembership(raw.StateKey, raw.Membership)
		ev.Kind = models.EventMembershipChanged
		ev.Users = []string{raw.StateKey}
		return ev, true
	}

	// Relations mutate their target in place; the relation id guards
	// against applying a redelivered one twice.
	if !room.MarkSeen(raw.ID) {
		return ev, false
	}

	var err error
	switch raw.Kind {
	case models.KindEdit:
		ev.Kind = models.EventMessageEdited
		err = room.ApplyEdit(raw.TargetID, raw.Content)
	case models.KindReaction:
		ev.Kind = models.EventReactionAdded
		err = room.ApplyReaction(raw.TargetID, raw.ID, raw.Key, raw.Sender)
	case models.KindRedaction:
		ev.Kind = models.EventMessageRedacted
		err = room.ApplyRedaction(raw.TargetID)
	default:
		return ev, false
	}

	if err != nil {
		s.logInvariant(err, roomID, raw.TargetID)
		return ev, false
	}
	ev.EventID = raw.TargetID
	return ev, true
}

// logInvariant swallows mutations of state the room does not hold.
func (s *AccountSession) logInvariant(err error, roomID, eventID string) {
	if errors.Is(err, timeline.ErrStateInvariant) {
		s.log.Debug().Err(err).Str("room_id", roomID).Str("event_id", eventID).Msg("ignored mutation of unknown state")
		return
	}
	s.log.Warn().Err(err).Str("room_id", roomID).Str("event_id", eventID).Msg("failed to apply event")
}

func toTimelineEvent(roomID string, raw models.RawEvent) models.TimelineEvent {
	event := models.TimelineEvent{
		ID:         raw.ID,
		RoomID:     roomID,
		Sender:     raw.Sender,
		Kind:       raw.Kind,
		Timestamp:  raw.Timestamp,
		Content:    raw.Content,
		ReplyTo:    raw.ReplyTo,
		Media:      raw.Media,
		Membership: raw.Membership,
	}
	if raw.Undecryptable {
		event.Payload = models.PayloadDecryptionPending
		event.Content = models.MessageContent{}
	}
	return event
}
