package models

// OutgoingKind is the kind of event a user action sends.
type OutgoingKind int

const (
	OutgoingText OutgoingKind = iota
	OutgoingEmote
	OutgoingNotice
	OutgoingReply
	OutgoingEdit
	OutgoingReaction
	OutgoingRedaction
	OutgoingAttachment
)

// Outgoing is a user action that results in one event sent to a room.
type Outgoing struct {
	Kind OutgoingKind
	Body string
	// TargetID is the replied-to, edited, reacted-to or redacted event.
	TargetID string
	// Key is the reaction key.
	Key string
	// Media is the uploaded content of an attachment. Body carries the
	// file name.
	Media *MediaRef
}
