package timeline

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/MKhiriev/go-multimatrix/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const self = "@me:example.org"

func msg(id, sender string) models.TimelineEvent {
	return models.TimelineEvent{
		ID:        id,
		RoomID:    "!r:example.org",
		Sender:    sender,
		Kind:      models.KindMessage,
		Timestamp: time.UnixMilli(1_700_000_000_000),
		Content:   models.MessageContent{MsgType: "m.text", Body: "body " + id},
	}
}

func ids(t *testing.T, r *Room) []string {
	t.Helper()
	events, err := r.Events(models.Window{})
	require.NoError(t, err)
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.ID)
	}
	return out
}

// ── Append ──────────────────────────────────────────────────────────────────

func TestAppend_IsIdempotentByID(t *testing.T) {
	r := NewRoom(self, "!r:example.org", self)

	assert.True(t, r.Append(msg("$1", "@bob:example.org")))
	assert.True(t, r.Append(msg("$2", "@bob:example.org")))
	assert.False(t, r.Append(msg("$1", "@bob:example.org")))
	assert.False(t, r.Append(msg("$2", "@carol:example.org")))

	assert.Equal(t, []string{"$1", "$2"}, ids(t, r))
	assert.Equal(t, 2, r.Snapshot().Unread)
}

func TestAppend_RedeliveryOfAnyPrefixIsNoOp(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for round := 0; round < 50; round++ {
		r := NewRoom(self, "!r", self)
		n := 1 + rng.IntN(20)
		for i := 0; i < n; i++ {
			r.Append(msg(fmt.Sprintf("$%d", i), "@bob:x"))
		}
		before := ids(t, r)

		for i := 0; i < n; i++ {
			r.Append(msg(fmt.Sprintf("$%d", rng.IntN(n)), "@bob:x"))
		}

		assert.Equal(t, before, ids(t, r))
	}
}

func TestAppend_OwnMessagesAreNotUnread(t *testing.T) {
	r := NewRoom(self, "!r", self)
	r.Append(msg("$1", self))

	assert.Zero(t, r.Snapshot().Unread)
}

func TestAppend_RejectsEmptyID(t *testing.T) {
	r := NewRoom(self, "!r", self)
	assert.False(t, r.Append(msg("", "@bob:x")))
	assert.Zero(t, r.Len())
}

// ── Prepend ─────────────────────────────────────────────────────────────────

func TestPrepend_PlacesPageBeforeLiveEvents(t *testing.T) {
	r := NewRoom(self, "!r", self)
	r.Append(msg("$l1", "@bob:x"))
	r.Append(msg("$l2", "@bob:x"))

	added := r.Prepend([]models.TimelineEvent{msg("$b1", "@bob:x"), msg("$b2", "@bob:x")})
	require.Equal(t, 2, added)

	added = r.Prepend([]models.TimelineEvent{msg("$a1", "@bob:x"), msg("$b1", "@bob:x")})
	require.Equal(t, 1, added)

	assert.Equal(t, []string{"$a1", "$b1", "$b2", "$l1", "$l2"}, ids(t, r))
	assert.Equal(t, 2, r.Snapshot().Unread, "history does not count as unread")
}

// TestInterleavedLiveAndBackfill applies live events and backfilled pages in
// random interleavings and checks the result is a valid merge.
func TestInterleavedLiveAndBackfill(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	for round := 0; round < 100; round++ {
		r := NewRoom(self, "!r", self)
		var live, history []string
		nextLive, nextPage := 0, 0

		for step := 0; step < 30; step++ {
			if rng.IntN(2) == 0 {
				id := fmt.Sprintf("$live%d", nextLive)
				nextLive++
				r.Append(msg(id, "@bob:x"))
				live = append(live, id)
				continue
			}

			size := 1 + rng.IntN(4)
			page := make([]models.TimelineEvent, size)
			pageIDs := make([]string, size)
			for i := range page {
				id := fmt.Sprintf("$p%d_%d", nextPage, i)
				page[i] = msg(id, "@bob:x")
				pageIDs[i] = id
			}
			nextPage++
			r.Prepend(page)
			history = append(pageIDs, history...)
		}

		assert.Equal(t, append(history, live...), ids(t, r), "round %d", round)
	}
}

// ── In-place mutations ──────────────────────────────────────────────────────

func TestApplyEdit(t *testing.T) {
	r := NewRoom(self, "!r", self)
	r.Append(msg("$1", "@bob:x"))

	require.NoError(t, r.ApplyEdit("$1", models.MessageContent{MsgType: "m.text", Body: "fixed"}))

	e, ok := r.Event("$1")
	require.True(t, ok)
	assert.Equal(t, "fixed", e.Content.Body)
	assert.True(t, e.Edited)
}

func TestApplyEdit_UnknownTarget(t *testing.T) {
	r := NewRoom(self, "!r", self)

	err := r.ApplyEdit("$missing", models.MessageContent{Body: "x"})

	assert.ErrorIs(t, err, ErrStateInvariant)
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

func TestApplyRedaction(t *testing.T) {
	r := NewRoom(self, "!r", self)
	r.Append(msg("$1", "@bob:x"))
	require.NoError(t, r.ApplyReaction("$1", "$react", "👍", "@carol:x"))

	require.NoError(t, r.ApplyRedaction("$1"))

	e, _ := r.Event("$1")
	assert.Equal(t, models.PayloadRedacted, e.Payload)
	assert.Empty(t, e.Content.Body)
	assert.Nil(t, e.Reactions)

	require.NoError(t, r.ApplyEdit("$1", models.MessageContent{Body: "resurrect"}))
	e, _ = r.Event("$1")
	assert.Empty(t, e.Content.Body, "edits never revive a redacted event")
}

func TestApplyRedaction_UnknownTarget(t *testing.T) {
	r := NewRoom(self, "!r", self)
	assert.ErrorIs(t, r.ApplyRedaction("$nope"), ErrUnknownEvent)
}

func TestApplyReaction(t *testing.T) {
	r := NewRoom(self, "!r", self)
	r.Append(msg("$1", "@bob:x"))

	require.NoError(t, r.ApplyReaction("$1", "$r1", "👍", "@carol:x"))
	require.NoError(t, r.ApplyReaction("$1", "$r2", "👍", "@dave:x"))
	require.NoError(t, r.ApplyReaction("$1", "$r1", "👍", "@carol:x"))

	e, _ := r.Event("$1")
	assert.Equal(t, []string{"@carol:x", "@dave:x"}, e.Reactions["👍"])

	require.NoError(t, r.ApplyRedaction("$r1"))
	e, _ = r.Event("$1")
	assert.Equal(t, []string{"@dave:x"}, e.Reactions["👍"])

	require.NoError(t, r.ApplyRedaction("$r2"))
	e, _ = r.Event("$1")
	assert.Empty(t, e.Reactions)
}

func TestApplyReaction_UnknownTarget(t *testing.T) {
	r := NewRoom(self, "!r", self)
	assert.ErrorIs(t, r.ApplyReaction("$nope", "$r", "x", "@bob:x"), ErrUnknownEvent)
}

func TestApplyDecrypted(t *testing.T) {
	r := NewRoom(self, "!r", self)
	pending := msg("$enc", "@bob:x")
	pending.Content = models.MessageContent{}
	pending.Payload = models.PayloadDecryptionPending
	r.Append(pending)

	require.NoError(t, r.ApplyDecrypted("$enc", models.MessageContent{MsgType: "m.text", Body: "hello"}, nil))

	e, _ := r.Event("$enc")
	assert.Equal(t, models.PayloadPlaintext, e.Payload)
	assert.Equal(t, "hello", e.Content.Body)

	assert.ErrorIs(t, r.ApplyDecrypted("$enc", models.MessageContent{}, nil), ErrNotPending)
}

func TestSeen(t *testing.T) {
	r := NewRoom(self, "!r", self)

	assert.False(t, r.Seen("$edit"))
	assert.True(t, r.MarkSeen("$edit"))
	assert.False(t, r.MarkSeen("$edit"))
	assert.True(t, r.Seen("$edit"))
}

// ── Read marker ─────────────────────────────────────────────────────────────

func TestMarkRead_IsMonotonic(t *testing.T) {
	r := NewRoom(self, "!r", self)
	for _, id := range []string{"$1", "$2", "$3", "$4"} {
		r.Append(msg(id, "@bob:x"))
	}

	moved, err := r.MarkRead("$3")
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, 1, r.Snapshot().Unread)

	moved, err = r.MarkRead("$1")
	assert.ErrorIs(t, err, ErrReadMarkerBackward)
	assert.False(t, moved)
	assert.Equal(t, "$3", r.ReadMarker())

	moved, err = r.MarkRead("$3")
	require.NoError(t, err)
	assert.False(t, moved)

	_, err = r.MarkRead("$4")
	require.NoError(t, err)
	assert.Equal(t, "$4", r.ReadMarker())
	assert.Zero(t, r.Snapshot().Unread)
}

func TestMarkRead_BackfilledEventsPrecedeLive(t *testing.T) {
	r := NewRoom(self, "!r", self)
	r.Append(msg("$live", "@bob:x"))
	_, err := r.MarkRead("$live")
	require.NoError(t, err)

	r.Prepend([]models.TimelineEvent{msg("$old", "@bob:x")})

	_, err = r.MarkRead("$old")
	assert.ErrorIs(t, err, ErrReadMarkerBackward)
}

func TestMarkRead_UnknownEvent(t *testing.T) {
	r := NewRoom(self, "!r", self)
	_, err := r.MarkRead("$nope")
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

// ── Ephemeral state and metadata ────────────────────────────────────────────

func TestSetTyping(t *testing.T) {
	r := NewRoom(self, "!r", self)

	assert.True(t, r.SetTyping([]string{"@b:x", "@a:x"}))
	assert.False(t, r.SetTyping([]string{"@a:x", "@b:x"}))
	assert.Equal(t, []string{"@a:x", "@b:x"}, r.Typing())
	assert.True(t, r.SetTyping(nil))
	assert.Empty(t, r.Typing())
}

func TestSetReceipt(t *testing.T) {
	r := NewRoom(self, "!r", self)

	assert.True(t, r.SetReceipt("@bob:x", "$1"))
	assert.False(t, r.SetReceipt("@bob:x", "$1"))
	assert.True(t, r.SetReceipt("@carol:x", "$1"))
	assert.Equal(t, []string{"@bob:x", "@carol:x"}, r.Receipts("$1"))
}

func TestBackfillCursor(t *testing.T) {
	r := NewRoom(self, "!r", self)

	r.InitBackfillCursor("t1")
	r.InitBackfillCursor("t2")
	cursor, exhausted := r.BackfillCursor()
	assert.Equal(t, "t1", cursor)
	assert.False(t, exhausted)

	r.SetBackfillCursor("", false)
	cursor, exhausted = r.BackfillCursor()
	assert.Empty(t, cursor)
	assert.True(t, exhausted)
}

func TestMetadataSetters(t *testing.T) {
	r := NewRoom("@me:x", "!r", "@me:x")

	assert.True(t, r.SetName("General"))
	assert.False(t, r.SetName("General"))
	assert.True(t, r.SetTopic("chat"))
	assert.True(t, r.SetEncrypted(true))
	assert.True(t, r.SetDirect(true))
	assert.True(t, r.SetUnread(4))
	assert.True(t, r.SetMembership("@bob:x", "join"))
	assert.False(t, r.SetMembership("@bob:x", "join"))

	snap := r.Snapshot()
	assert.Equal(t, "General", snap.Name)
	assert.Equal(t, "chat", snap.Topic)
	assert.True(t, snap.Encrypted)
	assert.True(t, snap.DirectMessage)
	assert.Equal(t, 4, snap.Unread)
	assert.Equal(t, []string{"@bob:x"}, snap.Members)
	assert.Equal(t, "@me:x", snap.AccountID)

	assert.True(t, r.SetMembership("@bob:x", "leave"))
	assert.Empty(t, r.Snapshot().Members)
}

// ── Reads ───────────────────────────────────────────────────────────────────

func TestEvents_Window(t *testing.T) {
	r := NewRoom(self, "!r", self)
	for i := 1; i <= 5; i++ {
		r.Append(msg(fmt.Sprintf("$%d", i), "@bob:x"))
	}

	latest, err := r.Events(models.Window{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, "$4", latest[0].ID)
	assert.Equal(t, "$5", latest[1].ID)

	older, err := r.Events(models.Window{Before: "$4", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, "$2", older[0].ID)
	assert.Equal(t, "$3", older[1].ID)

	_, err = r.Events(models.Window{Before: "$nope"})
	assert.ErrorIs(t, err, ErrUnknownEvent)

	assert.Equal(t, "$5", r.Latest())
}

func TestEvents_ReturnsCopies(t *testing.T) {
	r := NewRoom(self, "!r", self)
	r.Append(msg("$1", "@bob:x"))
	require.NoError(t, r.ApplyReaction("$1", "$r", "👍", "@carol:x"))

	events, err := r.Events(models.Window{})
	require.NoError(t, err)
	events[0].Reactions["👍"][0] = "@mallory:x"
	events[0].Content.Body = "changed"

	e, _ := r.Event("$1")
	assert.Equal(t, "@carol:x", e.Reactions["👍"][0])
	assert.Equal(t, "body $1", e.Content.Body)
}
