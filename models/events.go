package models

import "time"

// DomainEventKind enumerates the normalized notifications published by the
// engine.
type DomainEventKind int

const (
	EventAccountStatusChanged DomainEventKind = iota
	EventAccountRemoved
	EventRoomAdded
	EventRoomUpdated
	EventRoomRemoved
	EventMessageReceived
	EventMessageEdited
	EventMessageRedacted
	EventReactionAdded
	EventMembershipChanged
	EventTypingChanged
	EventReadReceiptUpdated
	EventUnreadChanged
	EventMessageDecrypted
	EventBackfillCompleted
	EventSendFailed
	EventVerificationRequested
	EventVerificationStateChanged
	EventMediaReady
	EventMediaFailed
)

var domainEventNames = map[DomainEventKind]string{
	EventAccountStatusChanged:     "AccountStatusChanged",
	EventAccountRemoved:           "AccountRemoved",
	EventRoomAdded:                "RoomAdded",
	EventRoomUpdated:              "RoomUpdated",
	EventRoomRemoved:              "RoomRemoved",
	EventMessageReceived:          "MessageReceived",
	EventMessageEdited:            "MessageEdited",
	EventMessageRedacted:          "MessageRedacted",
	EventReactionAdded:            "ReactionAdded",
	EventMembershipChanged:        "MembershipChanged",
	EventTypingChanged:            "TypingChanged",
	EventReadReceiptUpdated:       "ReadReceiptUpdated",
	EventUnreadChanged:            "UnreadChanged",
	EventMessageDecrypted:         "MessageDecrypted",
	EventBackfillCompleted:        "BackfillCompleted",
	EventSendFailed:               "SendFailed",
	EventVerificationRequested:    "VerificationRequested",
	EventVerificationStateChanged: "VerificationStateChanged",
	EventMediaReady:               "MediaReady",
	EventMediaFailed:              "MediaFailed",
}

func (k DomainEventKind) String() string {
	if name, ok := domainEventNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Critical reports whether the event must survive dispatcher backpressure
// ahead of others. Typing notices are the only expendable kind.
func (k DomainEventKind) Critical() bool {
	return k != EventTypingChanged
}

// DomainEvent is an account-tagged notification of a state change,
// independent of the server wire format. Only the fields relevant to Kind
// are set.
type DomainEvent struct {
	// Seq is assigned by the dispatcher.
	Seq       uint64
	Kind      DomainEventKind
	AccountID string
	RoomID    string
	EventID   string
	Status    AccountStatus
	// Users carries typing users, a receipt's user or a membership subject.
	Users             []string
	VerificationID    string
	VerificationState VerificationState
	MediaURI          string
	Err               error
	At                time.Time
}

// Ref returns the room the event is about.
func (e DomainEvent) Ref() RoomRef {
	return RoomRef{AccountID: e.AccountID, RoomID: e.RoomID}
}
