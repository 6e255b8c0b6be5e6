package models

import (
	"maps"
	"slices"
	"time"
)

// EventKind classifies timeline entries.
type EventKind int

const (
	KindMessage EventKind = iota
	KindEdit
	KindRedaction
	KindReaction
	KindMembershipChange
	KindTypingNotice
)

func (k EventKind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindEdit:
		return "edit"
	case KindRedaction:
		return "redaction"
	case KindReaction:
		return "reaction"
	case KindMembershipChange:
		return "membership"
	case KindTypingNotice:
		return "typing"
	default:
		return "unknown"
	}
}

// PayloadState tells whether Content holds readable text.
type PayloadState int

const (
	PayloadPlaintext PayloadState = iota
	PayloadDecryptionPending
	PayloadRedacted
)

// MessageContent is the readable part of a message.
type MessageContent struct {
	// MsgType is the Matrix msgtype: m.text, m.emote, m.notice, m.image...
	MsgType string
	Body    string
}

// TimelineEvent is one entry of a room timeline. Values handed out by the
// timeline store are deep copies.
type TimelineEvent struct {
	ID     string
	RoomID string
	Sender string
	Kind   EventKind
	// Timestamp is the origin server timestamp, display only. Ordering never
	// depends on it.
	Timestamp time.Time
	Content   MessageContent
	Payload   PayloadState
	ReplyTo   string
	Media     *MediaRef
	// Reactions maps a reaction key to the senders that used it.
	Reactions map[string][]string
	Edited    bool
	// Membership is set for KindMembershipChange: join, leave, invite, ban.
	Membership string
}

// Clone returns a deep copy.
func (e TimelineEvent) Clone() TimelineEvent {
	out := e
	if e.Media != nil {
		media := *e.Media
		out.Media = &media
	}
	if e.Reactions != nil {
		out.Reactions = make(map[string][]string, len(e.Reactions))
		for key, senders := range e.Reactions {
			out.Reactions[key] = slices.Clone(senders)
		}
	}
	return out
}

// ReactionKeys returns the reaction keys in a stable order.
func (e TimelineEvent) ReactionKeys() []string {
	return slices.Sorted(maps.Keys(e.Reactions))
}

// Window selects a slice of a timeline: up to Limit events strictly before
// the event Before, or the newest Limit events when Before is empty.
// Limit <= 0 means everything.
type Window struct {
	Before string
	Limit  int
}
