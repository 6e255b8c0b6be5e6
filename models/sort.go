package models

import (
	"fmt"
	"strings"
)

// SortMode is the non-favorite ordering of the unified room list.
type SortMode int

const (
	SortUnread SortMode = iota
	SortRecent
	SortAlpha
)

// DefaultSortMode is used until the user picks another one.
const DefaultSortMode = SortUnread

// SortModes lists every mode in cycling order.
var SortModes = []SortMode{SortUnread, SortRecent, SortAlpha}

func (m SortMode) String() string {
	switch m {
	case SortRecent:
		return "recent"
	case SortAlpha:
		return "alpha"
	default:
		return "unread"
	}
}

// Label is the human readable name shown in the UI.
func (m SortMode) Label() string {
	switch m {
	case SortRecent:
		return "Recent Activity"
	case SortAlpha:
		return "Alphabetical"
	default:
		return "Unread First"
	}
}

// Next returns the following mode in cycling order.
func (m SortMode) Next() SortMode {
	return SortModes[(int(m)+1)%len(SortModes)]
}

// ParseSortMode parses the persisted form produced by String.
func ParseSortMode(s string) (SortMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unread", "":
		return SortUnread, nil
	case "recent":
		return SortRecent, nil
	case "alpha":
		return SortAlpha, nil
	default:
		return DefaultSortMode, fmt.Errorf("unknown sort mode %q", s)
	}
}

// Direction moves a favorite within the manual order.
type Direction int

const (
	Up Direction = iota
	Down
)

// Preferences are the persisted display choices.
type Preferences struct {
	Favorites []RoomRef
	SortMode  SortMode
}

// UnifiedRoomEntry is a display-only projection of a room plus its account.
type UnifiedRoomEntry struct {
	Ref          RoomRef
	Room         Room
	AccountLabel string
	Favorite     bool
	// FavoriteRank is the position in the manual order, -1 when not a favorite.
	FavoriteRank int
}

// SearchMatch is one ranked search hit.
type SearchMatch struct {
	Entry UnifiedRoomEntry
	Score int
	// Positions are rune offsets of the matched characters in the display
	// name, nil when the account label matched better.
	Positions []int
}
