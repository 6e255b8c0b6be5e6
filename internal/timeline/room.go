// Package timeline implements the per-room event log.
//
// A Room keeps its events in delivery order. Live events take increasing
// positions at the tail, backfilled pages take decreasing positions at the
// head, so the two never interleave and timestamps never decide ordering.
// A Room has a single writer (its account's sync engine); readers get deep
// copies.
package timeline

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/MKhiriev/go-multimatrix/models"
)

type entry struct {
	pos   int64
	event models.TimelineEvent
}

type reaction struct {
	target string
	key    string
	sender string
}

// Room is the metadata and ordered log of one room of one account.
type Room struct {
	mu sync.RWMutex

	meta models.Room
	self string

	events []*entry
	byID   map[string]*entry
	// seen holds ids of relation events (edits, reactions, redactions)
	// already applied, so redelivery does not apply them twice.
	seen      map[string]struct{}
	reactions map[string]reaction
	nextLive  int64
	nextBack  int64

	readMarker string
	readPos    int64

	typing   []string
	receipts map[string]string

	backfillCursor    string
	backfillExhausted bool
}

// NewRoom creates an empty room owned by accountID. self is the account's
// user id; its own messages never count as unread.
func NewRoom(accountID, roomID, self string) *Room {
	return &Room{
		meta: models.Room{
			ID:        roomID,
			AccountID: accountID,
		},
		self:      self,
		byID:      make(map[string]*entry),
		seen:      make(map[string]struct{}),
		reactions: make(map[string]reaction),
		receipts:  make(map[string]string),
		nextBack:  -1,
		readPos:   -1 << 62,
	}
}

// ID returns the room id.
func (r *Room) ID() string {
	return r.meta.ID
}

// Append stores a live event at the tail. It returns false when an event
// with the same id is already stored.
func (r *Room) Append(event models.TimelineEvent) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[event.ID]; ok || event.ID == "" {
		return false
	}

	e := &entry{pos: r.nextLive, event: event.Clone()}
	r.nextLive++
	r.events = append(r.events, e)
	r.byID[event.ID] = e

	if event.Kind == models.KindMessage && event.Sender != r.self {
		r.meta.Unread++
	}
	r.touch(event.Timestamp)

	return true
}

// Prepend stores a backfilled page, given oldest first, before every known
// event. Ids already stored are skipped. It returns the number of events
// added.
func (r *Room) Prepend(page []models.TimelineEvent) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	added := make([]*entry, 0, len(page))
	for i := len(page) - 1; i >= 0; i-- {
		event := page[i]
		if _, ok := r.byID[event.ID]; ok || event.ID == "" {
			continue
		}
		e := &entry{pos: r.nextBack, event: event.Clone()}
		r.nextBack--
		r.byID[event.ID] = e
		added = append(added, e)
	}
	if len(added) == 0 {
		return 0
	}

	slices.Reverse(added)
	r.events = append(added, r.events...)

	if r.meta.LastActivity.IsZero() {
		r.touch(added[len(added)-1].event.Timestamp)
	}

	return len(added)
}

// Seen reports whether a relation event id was already applied.
func (r *Room) Seen(eventID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.seen[eventID]
	return ok
}

// MarkSeen records a relation event id. It returns false if the id was
// already recorded.
func (r *Room) MarkSeen(eventID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.seen[eventID]; ok {
		return false
	}
	r.seen[eventID] = struct{}{}
	return true
}

// ApplyEdit replaces the content of targetID in place.
func (r *Room) ApplyEdit(targetID string, content models.MessageContent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[targetID]
	if !ok {
		return fmt.Errorf("edit of %s: %w", targetID, ErrUnknownEvent)
	}
	if e.event.Payload == models.PayloadRedacted {
		return nil
	}

	e.event.Content = content
	e.event.Payload = models.PayloadPlaintext
	e.event.Edited = true
	return nil
}

// ApplyRedaction strips targetID in place. Redacting a reaction removes it
// from the event it was attached to.
func (r *Room) ApplyRedaction(targetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rc, ok := r.reactions[targetID]; ok {
		delete(r.reactions, targetID)
		if e, ok := r.byID[rc.target]; ok {
			removeReaction(&e.event, rc.key, rc.sender)
		}
		return nil
	}

	e, ok := r.byID[targetID]
	if !ok {
		return fmt.Errorf("redaction of %s: %w", targetID, ErrUnknownEvent)
	}

	e.event.Content = models.MessageContent{}
	e.event.Payload = models.PayloadRedacted
	e.event.Media = nil
	e.event.Reactions = nil
	e.event.ReplyTo = ""
	return nil
}

// ApplyReaction attaches a reaction to targetID in place. reactionID is the
// id of the reaction event, kept so a later redaction can remove it.
func (r *Room) ApplyReaction(targetID, reactionID, key, sender string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[targetID]
	if !ok {
		return fmt.Errorf("reaction on %s: %w", targetID, ErrUnknownEvent)
	}

	if e.event.Reactions == nil {
		e.event.Reactions = make(map[string][]string)
	}
	if !slices.Contains(e.event.Reactions[key], sender) {
		e.event.Reactions[key] = append(e.event.Reactions[key], sender)
	}
	if reactionID != "" {
		r.reactions[reactionID] = reaction{target: targetID, key: key, sender: sender}
	}
	return nil
}

// ApplyDecrypted fills in a message that was stored as DecryptionPending.
func (r *Room) ApplyDecrypted(targetID string, content models.MessageContent, media *models.MediaRef) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[targetID]
	if !ok {
		return fmt.Errorf("decrypted %s: %w", targetID, ErrUnknownEvent)
	}
	if e.event.Payload != models.PayloadDecryptionPending {
		return fmt.Errorf("decrypted %s: %w", targetID, ErrNotPending)
	}

	e.event.Content = content
	e.event.Payload = models.PayloadPlaintext
	if media != nil {
		m := *media
		e.event.Media = &m
	}
	return nil
}

// MarkRead moves the read marker forward to eventID and recomputes the
// unread count. It returns false without error when the marker is already
// there.
func (r *Room) MarkRead(eventID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[eventID]
	if !ok {
		return false, fmt.Errorf("mark read %s: %w", eventID, ErrUnknownEvent)
	}
	if e.pos < r.readPos {
		return false, fmt.Errorf("mark read %s: %w", eventID, ErrReadMarkerBackward)
	}
	if e.pos == r.readPos {
		return false, nil
	}

	r.readMarker = eventID
	r.readPos = e.pos

	unread := 0
	for _, later := range r.events {
		if later.pos > e.pos && later.event.Kind == models.KindMessage &&
			later.event.Sender != r.self && later.event.Payload != models.PayloadRedacted {
			unread++
		}
	}
	r.meta.Unread = unread

	return true, nil
}

// ReadMarker returns the event id of the read marker, empty if unset.
func (r *Room) ReadMarker() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.readMarker
}

// SetTyping replaces the typing set. It returns true when the set changed.
func (r *Room) SetTyping(users []string) bool {
	sorted := slices.Clone(users)
	slices.Sort(sorted)

	r.mu.Lock()
	defer r.mu.Unlock()

	if slices.Equal(sorted, r.typing) {
		return false
	}
	r.typing = sorted
	return true
}

// Typing returns the users currently typing.
func (r *Room) Typing() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.typing)
}

// SetReceipt records userID's read receipt. It returns true when it changed.
func (r *Room) SetReceipt(userID, eventID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.receipts[userID] == eventID {
		return false
	}
	r.receipts[userID] = eventID
	return true
}

// Receipts returns the users whose read receipt is at eventID.
func (r *Room) Receipts(eventID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var users []string
	for user, id := range r.receipts {
		if id == eventID {
			users = append(users, user)
		}
	}
	slices.Sort(users)
	return users
}

// BackfillCursor returns the token for the next older page and whether the
// start of the room has been reached.
func (r *Room) BackfillCursor() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.backfillCursor, r.backfillExhausted
}

// InitBackfillCursor sets the cursor from the first sync that mentions the
// room. Later calls are ignored; the cursor then only moves through
// SetBackfillCursor.
func (r *Room) InitBackfillCursor(cursor string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.backfillCursor == "" && !r.backfillExhausted {
		r.backfillCursor = cursor
	}
}

// SetBackfillCursor stores the cursor returned with a backfilled page.
func (r *Room) SetBackfillCursor(cursor string, exhausted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.backfillCursor = cursor
	r.backfillExhausted = exhausted || cursor == ""
}

// SetName updates the display name.
func (r *Room) SetName(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.meta.Name == name {
		return false
	}
	r.meta.Name = name
	return true
}

// SetTopic updates the topic.
func (r *Room) SetTopic(topic string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.meta.Topic == topic {
		return false
	}
	r.meta.Topic = topic
	return true
}

// SetEncrypted updates the encryption flag.
func (r *Room) SetEncrypted(encrypted bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.meta.Encrypted == encrypted {
		return false
	}
	r.meta.Encrypted = encrypted
	return true
}

// SetDirect updates the direct-message flag.
func (r *Room) SetDirect(direct bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.meta.DirectMessage == direct {
		return false
	}
	r.meta.DirectMessage = direct
	return true
}

// SetUnread overrides the unread count with the server's value.
func (r *Room) SetUnread(count int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.meta.Unread == count {
		return false
	}
	r.meta.Unread = count
	return true
}

// SetMembership adds or removes userID from the member list.
func (r *Room) SetMembership(userID, membership string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := slices.Index(r.meta.Members, userID)
	joined := membership == "join"
	switch {
	case joined && idx < 0:
		r.meta.Members = append(r.meta.Members, userID)
		return true
	case !joined && idx >= 0:
		r.meta.Members = slices.Delete(r.meta.Members, idx, idx+1)
		return true
	default:
		return false
	}
}

// Snapshot returns a copy of the room metadata.
func (r *Room) Snapshot() models.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room := r.meta
	room.Members = slices.Clone(r.meta.Members)
	return room
}

// Event returns a copy of one stored event.
func (r *Room) Event(eventID string) (models.TimelineEvent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[eventID]
	if !ok {
		return models.TimelineEvent{}, false
	}
	return e.event.Clone(), true
}

// Events returns copies of the events selected by window, oldest first.
func (r *Room) Events(window models.Window) ([]models.TimelineEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	end := len(r.events)
	if window.Before != "" {
		e, ok := r.byID[window.Before]
		if !ok {
			return nil, fmt.Errorf("window before %s: %w", window.Before, ErrUnknownEvent)
		}
		end = r.indexOf(e.pos)
	}

	start := 0
	if window.Limit > 0 && end-window.Limit > start {
		start = end - window.Limit
	}

	out := make([]models.TimelineEvent, 0, end-start)
	for _, e := range r.events[start:end] {
		out = append(out, e.event.Clone())
	}
	return out, nil
}

// Latest returns the id of the newest stored event, empty for an empty room.
func (r *Room) Latest() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.events) == 0 {
		return ""
	}
	return r.events[len(r.events)-1].event.ID
}

// Len returns the number of stored events.
func (r *Room) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.events)
}

func (r *Room) indexOf(pos int64) int {
	idx, _ := slices.BinarySearchFunc(r.events, pos, func(e *entry, target int64) int {
		switch {
		case e.pos < target:
			return -1
		case e.pos > target:
			return 1
		default:
			return 0
		}
	})
	return idx
}

func (r *Room) touch(ts time.Time) {
	if ts.IsZero() {
		ts = time.Now()
	}
	if ts.After(r.meta.LastActivity) {
		r.meta.LastActivity = ts
	}
}

func removeReaction(event *models.TimelineEvent, key, sender string) {
	senders := event.Reactions[key]
	if idx := slices.Index(senders, sender); idx >= 0 {
		senders = slices.Delete(senders, idx, idx+1)
	}
	if len(senders) == 0 {
		delete(event.Reactions, key)
		return
	}
	event.Reactions[key] = senders
}
