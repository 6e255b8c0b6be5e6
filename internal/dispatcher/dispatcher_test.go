package dispatcher

import (
	"sync"
	"testing"

	"github.com/MKhiriev/go-multimatrix/internal/logger"
	"github.com/MKhiriev/go-multimatrix/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ev(account string, kind models.DomainEventKind, id string) models.DomainEvent {
	return models.DomainEvent{AccountID: account, Kind: kind, EventID: id}
}

func eventIDs(events []models.DomainEvent) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.EventID)
	}
	return out
}

func TestPoll_EmptyDoesNotBlock(t *testing.T) {
	d := New(4, logger.Nop())

	assert.Empty(t, d.Poll(10))
	assert.Empty(t, d.Poll(0))
}

func TestPoll_PreservesPerAccountOrder(t *testing.T) {
	d := New(16, logger.Nop())
	d.Publish(ev("@a:x", models.EventMessageReceived, "a1"))
	d.Publish(ev("@b:x", models.EventMessageReceived, "b1"))
	d.Publish(ev("@a:x", models.EventReactionAdded, "a2"))
	d.Publish(ev("@a:x", models.EventMessageReceived, "a3"))
	d.Publish(ev("@b:x", models.EventMessageReceived, "b2"))

	got := d.Poll(0)

	var a, b []string
	for _, e := range got {
		if e.AccountID == "@a:x" {
			a = append(a, e.EventID)
		} else {
			b = append(b, e.EventID)
		}
	}
	assert.Equal(t, []string{"a1", "a2", "a3"}, a)
	assert.Equal(t, []string{"b1", "b2"}, b)
	assert.Zero(t, d.Pending())
}

func TestPoll_RoundRobinAcrossAccounts(t *testing.T) {
	d := New(16, logger.Nop())
	for _, id := range []string{"a1", "a2", "a3"} {
		d.Publish(ev("@a:x", models.EventMessageReceived, id))
	}
	d.Publish(ev("@b:x", models.EventMessageReceived, "b1"))

	first := d.Poll(2)

	assert.Equal(t, []string{"a1", "b1"}, eventIDs(first))
	assert.Equal(t, []string{"a2", "a3"}, eventIDs(d.Poll(0)))
}

func TestPublish_AssignsSequenceAndTime(t *testing.T) {
	d := New(4, logger.Nop())
	d.Publish(ev("@a:x", models.EventRoomAdded, "1"))
	d.Publish(ev("@a:x", models.EventRoomAdded, "2"))

	got := d.Poll(0)
	require.Len(t, got, 2)
	assert.Less(t, got[0].Seq, got[1].Seq)
	assert.False(t, got[0].At.IsZero())
}

func TestBackpressure_DropsOldestTypingFirst(t *testing.T) {
	d := New(3, logger.Nop())
	d.Publish(ev("@a:x", models.EventMessageReceived, "m1"))
	d.Publish(ev("@a:x", models.EventTypingChanged, "t1"))
	d.Publish(ev("@a:x", models.EventTypingChanged, "t2"))
	d.Publish(ev("@a:x", models.EventMessageReceived, "m2"))

	assert.Equal(t, uint64(1), d.Dropped())
	assert.Zero(t, d.Lost(), "typing notices are not lost events")
	assert.Equal(t, []string{"m1", "t2", "m2"}, eventIDs(d.Poll(0)))
}

func TestBackpressure_DropsIncomingTypingWhenFullOfCritical(t *testing.T) {
	d := New(2, logger.Nop())
	d.Publish(ev("@a:x", models.EventMessageReceived, "m1"))
	d.Publish(ev("@a:x", models.EventMessageReceived, "m2"))
	d.Publish(ev("@a:x", models.EventTypingChanged, "t1"))

	assert.Equal(t, uint64(1), d.Dropped())
	assert.Equal(t, []string{"m1", "m2"}, eventIDs(d.Poll(0)))
}

func TestBackpressure_DropsOldestCriticalAsLastResort(t *testing.T) {
	d := New(2, logger.Nop())
	d.Publish(ev("@a:x", models.EventMessageReceived, "m1"))
	d.Publish(ev("@a:x", models.EventMessageReceived, "m2"))
	d.Publish(ev("@a:x", models.EventMessageReceived, "m3"))

	assert.Equal(t, []string{"m2", "m3"}, eventIDs(d.Poll(0)))
	stats := d.Stats()
	assert.Equal(t, uint64(1), stats.Dropped)
	assert.Equal(t, uint64(1), stats.DroppedPerAccount["@a:x"])
	assert.Equal(t, uint64(1), stats.Lost)
	assert.Equal(t, uint64(1), stats.LostPerAccount["@a:x"])
}

func TestBackpressure_IsPerAccount(t *testing.T) {
	d := New(1, logger.Nop())
	d.Publish(ev("@a:x", models.EventTypingChanged, "a-typing"))
	d.Publish(ev("@b:x", models.EventMessageReceived, "b1"))

	assert.Zero(t, d.Dropped())
	assert.Equal(t, 2, d.Pending())
}

func TestSubscribe_SeesEveryEventInOrder(t *testing.T) {
	d := New(1, logger.Nop())
	var seen []string
	d.Subscribe(func(e models.DomainEvent) { seen = append(seen, e.EventID) })

	d.Publish(ev("@a:x", models.EventMessageReceived, "m1"))
	d.Publish(ev("@a:x", models.EventMessageReceived, "m2"))

	assert.Equal(t, []string{"m1", "m2"}, seen, "subscribers see events even when the queue drops them")
}

func TestConcurrentPublishers(t *testing.T) {
	d := New(1000, logger.Nop())
	accounts := []string{"@a:x", "@b:x", "@c:x", "@d:x"}

	var wg sync.WaitGroup
	for _, account := range accounts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				d.Publish(models.DomainEvent{AccountID: account, Kind: models.EventMessageReceived, Users: []string{string(rune('0' + i%10))}})
			}
		}()
	}

	var got []models.DomainEvent
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for {
		got = append(got, d.Poll(50)...)
		select {
		case <-done:
			got = append(got, d.Poll(0)...)
			assert.Len(t, got, 800)
			lastSeq := map[string]uint64{}
			for _, e := range got {
				assert.Greater(t, e.Seq, lastSeq[e.AccountID], "per-account order")
				lastSeq[e.AccountID] = e.Seq
			}
			return
		default:
		}
	}
}

func TestConcurrentPublishers_SameAccountQueueFollowsSeq(t *testing.T) {
	d := New(1000, logger.Nop())

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				d.Publish(models.DomainEvent{AccountID: "@a:x", Kind: models.EventMessageReceived})
			}
		}()
	}
	wg.Wait()

	got := d.Poll(0)
	require.Len(t, got, 800)
	for i := 1; i < len(got); i++ {
		require.Greater(t, got[i].Seq, got[i-1].Seq, "queue position %d", i)
	}
}
