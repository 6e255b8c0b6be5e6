package index

import (
	"testing"

	"github.com/MKhiriev/go-multimatrix/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(seq func(func(models.SearchMatch) bool)) []models.SearchMatch {
	var out []models.SearchMatch
	for m := range seq {
		out = append(out, m)
	}
	return out
}

func TestSearch_EmptyQueryYieldsBaseOrder(t *testing.T) {
	x, res := newTestIndex(t)
	a := res.put(models.Room{ID: "!a", AccountID: "@a:x", Name: "general", Unread: 1})
	b := res.put(models.Room{ID: "!b", AccountID: "@a:x", Name: "random", Unread: 4})
	x.Handle(added(a))
	x.Handle(added(b))

	got := collect(x.Search("   "))

	require.Len(t, got, 2)
	assert.Equal(t, b, got[0].Entry.Ref)
	assert.Equal(t, a, got[1].Entry.Ref)
}

func TestSearch_FiltersAndRanks(t *testing.T) {
	x, res := newTestIndex(t)
	general := res.put(models.Room{ID: "!1", AccountID: "@a:x", Name: "General"})
	gossip := res.put(models.Room{ID: "!2", AccountID: "@a:x", Name: "go-nerds-and-related-topics"})
	other := res.put(models.Room{ID: "!3", AccountID: "@a:x", Name: "music"})
	for _, ref := range []models.RoomRef{general, gossip, other} {
		x.Handle(added(ref))
	}

	got := collect(x.Search("GEN"))

	require.NotEmpty(t, got)
	assert.Equal(t, general, got[0].Entry.Ref)
	assert.Equal(t, []int{0, 1, 2}, got[0].Positions)
	for _, m := range got {
		assert.NotEqual(t, other, m.Entry.Ref)
		assert.Positive(t, m.Score)
	}
}

func TestSearch_MatchesAccountLabel(t *testing.T) {
	x, res := newTestIndex(t)
	a := res.put(models.Room{ID: "!a", AccountID: "@a:x", Name: "lobby"})
	b := res.put(models.Room{ID: "!b", AccountID: "@b:y", Name: "lobby"})
	x.Handle(added(a))
	x.Handle(added(b))

	got := collect(x.Search("b@y"))

	require.Len(t, got, 1)
	assert.Equal(t, b, got[0].Entry.Ref)
	assert.Nil(t, got[0].Positions)
}

func TestSearch_IsLazyAndRestartable(t *testing.T) {
	x, res := newTestIndex(t)
	seq := x.Search("room")

	// Rooms added after Search was called are still seen on iteration.
	a := res.put(models.Room{ID: "!a", AccountID: "@a:x", Name: "room one"})
	x.Handle(added(a))
	assert.Len(t, collect(seq), 1)

	b := res.put(models.Room{ID: "!b", AccountID: "@a:x", Name: "room two"})
	x.Handle(added(b))
	assert.Len(t, collect(seq), 2)
}

func TestSearch_EarlyStop(t *testing.T) {
	x, res := newTestIndex(t)
	for _, id := range []string{"!a", "!b", "!c"} {
		x.Handle(added(res.put(models.Room{ID: id, AccountID: "@a:x", Name: "chat" + id})))
	}

	n := 0
	for range x.Search("chat") {
		n++
		break
	}
	assert.Equal(t, 1, n)
}
