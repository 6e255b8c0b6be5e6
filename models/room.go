package models

import "time"

// RoomRef identifies a room as seen by one account. The same Matrix room
// joined by two local accounts yields two distinct refs.
type RoomRef struct {
	AccountID string
	RoomID    string
}

func (r RoomRef) String() string {
	return r.AccountID + "|" + r.RoomID
}

// Room is a read-only snapshot of one room of one account.
type Room struct {
	ID            string
	AccountID     string
	Name          string
	Topic         string
	Members       []string
	Encrypted     bool
	DirectMessage bool
	Unread        int
	Favorite      bool
	LastActivity  time.Time
}

// Ref returns the weak reference of the room.
func (r Room) Ref() RoomRef {
	return RoomRef{AccountID: r.AccountID, RoomID: r.ID}
}

// DisplayName falls back to the room id when the room has no name.
func (r Room) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}
