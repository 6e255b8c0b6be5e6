// Package index keeps the cross-account, display-ready room ordering.
//
// The index never owns rooms. It stores (account id, room id) pairs plus the
// few values it sorts by, and resolves every pair against its owning session
// each time entries are read. Domain events reposition one ref at a time.
package index

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/MKhiriev/go-multimatrix/internal/logger"
	"github.com/MKhiriev/go-multimatrix/models"
)

// RoomResolver looks rooms up in the sessions that own them.
type RoomResolver interface {
	// ResolveRoom returns a fresh snapshot, false when the room or its
	// account no longer exists.
	ResolveRoom(ref models.RoomRef) (models.Room, bool)
	// AccountLabel returns the display label of an account.
	AccountLabel(accountID string) string
}

type sortKey struct {
	name     string
	unread   int
	activity time.Time
}

func keyOf(room models.Room) sortKey {
	return sortKey{
		name:     strings.ToLower(room.DisplayName()),
		unread:   room.Unread,
		activity: room.LastActivity,
	}
}

// Index is safe for concurrent use.
type Index struct {
	mu        sync.RWMutex
	resolver  RoomResolver
	mode      models.SortMode
	keys      map[models.RoomRef]sortKey
	order     []models.RoomRef
	favorites []models.RoomRef

	log *logger.Logger
}

// New creates an empty index.
func New(resolver RoomResolver, log *logger.Logger) *Index {
	return &Index{
		resolver: resolver,
		mode:     models.DefaultSortMode,
		keys:     make(map[models.RoomRef]sortKey),
		log:      log,
	}
}

// Handle updates the index for one domain event. It is registered as a
// dispatcher subscriber.
func (x *Index) Handle(ev models.DomainEvent) {
	switch ev.Kind {
	case models.EventRoomAdded, models.EventRoomUpdated, models.EventMessageReceived,
		models.EventMessageRedacted, models.EventUnreadChanged, models.EventReadReceiptUpdated,
		models.EventMessageDecrypted:
		x.Refresh(ev.Ref())
	case models.EventRoomRemoved:
		x.remove(ev.Ref())
	case models.EventAccountRemoved:
		x.removeAccount(ev.AccountID)
	}
}

// Refresh re-resolves one room and moves it to its new position.
func (x *Index) Refresh(ref models.RoomRef) {
	room, ok := x.resolver.ResolveRoom(ref)
	if !ok {
		x.remove(ref)
		return
	}
	key := keyOf(room)

	x.mu.Lock()
	defer x.mu.Unlock()

	if old, known := x.keys[ref]; known {
		if old == key {
			return
		}
		x.unlink(ref)
	}
	x.keys[ref] = key
	pos, _ := slices.BinarySearchFunc(x.order, ref, x.compareFunc(x.mode))
	x.order = slices.Insert(x.order, pos, ref)
}

func (x *Index) remove(ref models.RoomRef) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if _, known := x.keys[ref]; !known {
		return
	}
	x.unlink(ref)
	delete(x.keys, ref)
}

func (x *Index) removeAccount(accountID string) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.order = slices.DeleteFunc(x.order, func(ref models.RoomRef) bool {
		if ref.AccountID != accountID {
			return false
		}
		delete(x.keys, ref)
		return true
	})
}

// unlink removes ref from order using its current key. Callers hold mu.
func (x *Index) unlink(ref models.RoomRef) {
	pos, found := slices.BinarySearchFunc(x.order, ref, x.compareFunc(x.mode))
	if !found {
		// Never expected; fall back to a scan so the order stays consistent.
		pos = slices.Index(x.order, ref)
		if pos < 0 {
			return
		}
	}
	x.order = slices.Delete(x.order, pos, pos+1)
}

func (x *Index) compareFunc(mode models.SortMode) func(a, b models.RoomRef) int {
	return func(a, b models.RoomRef) int {
		return compare(a, x.keys[a], b, x.keys[b], mode)
	}
}

func compare(a models.RoomRef, ka sortKey, b models.RoomRef, kb sortKey, mode models.SortMode) int {
	switch mode {
	case models.SortUnread:
		if ka.unread != kb.unread {
			if ka.unread > kb.unread {
				return -1
			}
			return 1
		}
	case models.SortRecent:
		if c := kb.activity.Compare(ka.activity); c != 0 {
			return c
		}
	}
	if c := strings.Compare(ka.name, kb.name); c != 0 {
		return c
	}
	if c := strings.Compare(a.AccountID, b.AccountID); c != 0 {
		return c
	}
	return strings.Compare(a.RoomID, b.RoomID)
}

// SortMode returns the current mode.
func (x *Index) SortMode() models.SortMode {
	x.mu.RLock()
	defer x.mu.RUnlock()

	return x.mode
}

// SetSortMode re-sorts the maintained order.
func (x *Index) SetSortMode(mode models.SortMode) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.mode == mode {
		return
	}
	x.mode = mode
	slices.SortFunc(x.order, x.compareFunc(mode))
}

// GetUnifiedRooms returns favorites in manual order followed by every other
// room in the given mode. Rooms that no longer resolve are skipped.
func (x *Index) GetUnifiedRooms(mode models.SortMode) []models.UnifiedRoomEntry {
	x.mu.RLock()
	favorites := slices.Clone(x.favorites)
	order := slices.Clone(x.order)
	if mode != x.mode {
		slices.SortFunc(order, x.compareFunc(mode))
	}
	x.mu.RUnlock()

	isFavorite := make(map[models.RoomRef]int, len(favorites))
	entries := make([]models.UnifiedRoomEntry, 0, len(order))
	labels := make(map[string]string)

	for rank, ref := range favorites {
		isFavorite[ref] = rank
		if entry, ok := x.entry(ref, rank, labels); ok {
			entries = append(entries, entry)
		}
	}
	for _, ref := range order {
		if _, fav := isFavorite[ref]; fav {
			continue
		}
		if entry, ok := x.entry(ref, -1, labels); ok {
			entries = append(entries, entry)
		}
	}

	return entries
}

func (x *Index) entry(ref models.RoomRef, rank int, labels map[string]string) (models.UnifiedRoomEntry, bool) {
	room, ok := x.resolver.ResolveRoom(ref)
	if !ok {
		return models.UnifiedRoomEntry{}, false
	}
	label, ok := labels[ref.AccountID]
	if !ok {
		label = x.resolver.AccountLabel(ref.AccountID)
		labels[ref.AccountID] = label
	}
	room.Favorite = rank >= 0
	return models.UnifiedRoomEntry{
		Ref:          ref,
		Room:         room,
		AccountLabel: label,
		Favorite:     room.Favorite,
		FavoriteRank: rank,
	}, true
}

// Len returns the number of rooms known to the index.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()

	return len(x.order)
}
