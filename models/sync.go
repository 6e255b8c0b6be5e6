package models

import "time"

// SyncBatch is one normalized response of the server's incremental sync.
type SyncBatch struct {
	NextCursor    string
	Rooms         []RoomDelta
	Verifications []IncomingVerification
}

// RoomDelta carries everything that changed in one room in one batch.
// Pointer fields are nil when the value did not change.
type RoomDelta struct {
	RoomID    string
	Left      bool
	Name      *string
	Topic     *string
	Encrypted *bool
	Direct    *bool
	// Members maps user ids to their membership taken from room state.
	Members map[string]string
	// Events are in server delivery order.
	Events []RawEvent
	// Typing is the complete set of typing users when HasTyping is set.
	Typing      []string
	HasTyping   bool
	Receipts    []Receipt
	UnreadCount *int
	// PrevBatch is the backfill token for history older than Events.
	PrevBatch string
}

// RawEvent is a wire-independent event as delivered by the adapter.
type RawEvent struct {
	ID        string
	Sender    string
	Kind      EventKind
	Timestamp time.Time
	Content   MessageContent
	// TargetID is the event an edit, redaction or reaction applies to.
	TargetID   string
	Key        string
	ReplyTo    string
	Media      *MediaRef
	Membership string
	// StateKey is the user a membership change is about.
	StateKey string
	// Undecryptable marks an encrypted event the adapter could not decrypt.
	Undecryptable bool
}

// Receipt is a read receipt of one user.
type Receipt struct {
	UserID  string
	EventID string
}

// BackfillPage is one page of older history. Events are chronological
// (oldest first) regardless of how the server returned them.
type BackfillPage struct {
	Events     []RawEvent
	NextCursor string
	Exhausted  bool
}

// IncomingVerification is a verification request started by another device.
type IncomingVerification struct {
	TransactionID string
	FromUser      string
	FromDevice    string
}
