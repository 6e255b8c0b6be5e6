// Package dispatcher multiplexes the domain events of every account into
// one non-blocking feed for the presentation layer.
//
// Each account has its own bounded FIFO. Poll drains them round-robin, so
// order is preserved within an account and nothing is promised across
// accounts. When a queue is full the oldest typing notice goes first. A
// queue full of message and state events loses its oldest one; such losses
// are counted apart in [Stats] so the UI can tell the user to resync.
package dispatcher

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MKhiriev/go-multimatrix/internal/logger"
	"github.com/MKhiriev/go-multimatrix/models"
)

const DefaultBufferPerAccount = 256

// Subscriber observes every published event synchronously, before it is
// queued. Subscribers must not block or publish.
type Subscriber func(models.DomainEvent)

// Stats is a diagnostics snapshot. Dropped counts every drop; Lost counts
// the message and state events among them.
type Stats struct {
	Dropped           uint64
	DroppedPerAccount map[string]uint64
	Lost              uint64
	LostPerAccount    map[string]uint64
	Pending           int
}

type queue struct {
	events  []models.DomainEvent
	dropped uint64
	lost    uint64
}

// Dispatcher is safe for concurrent Publish from many sync engines and Poll
// from one consumer.
type Dispatcher struct {
	// publishMu makes Publish atomic, so Seq order is queue order.
	publishMu sync.Mutex

	mu       sync.Mutex
	capacity int
	queues   map[string]*queue
	order    []string
	next     int
	seq      uint64

	subMu       sync.RWMutex
	subscribers []Subscriber

	dropped atomic.Uint64
	lost    atomic.Uint64
	log     *logger.Logger
}

// New creates a dispatcher retaining up to bufferPerAccount pending events
// per account.
func New(bufferPerAccount int, log *logger.Logger) *Dispatcher {
	if bufferPerAccount <= 0 {
		bufferPerAccount = DefaultBufferPerAccount
	}
	return &Dispatcher{
		capacity: bufferPerAccount,
		queues:   make(map[string]*queue),
		log:      log,
	}
}

// Subscribe registers fn for every future event.
func (d *Dispatcher) Subscribe(fn Subscriber) {
	d.subMu.Lock()
	defer d.subMu.Unlock()

	d.subscribers = append(d.subscribers, fn)
}

// Publish notifies subscribers and queues ev for the consumer.
func (d *Dispatcher) Publish(ev models.DomainEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	d.publishMu.Lock()
	defer d.publishMu.Unlock()

	d.mu.Lock()
	d.seq++
	ev.Seq = d.seq
	d.mu.Unlock()

	d.subMu.RLock()
	for _, fn := range d.subscribers {
		fn(ev)
	}
	d.subMu.RUnlock()

	d.mu.Lock()
	defer d.mu.Unlock()

	q, ok := d.queues[ev.AccountID]
	if !ok {
		q = &queue{events: make([]models.DomainEvent, 0, min(d.capacity, 16))}
		d.queues[ev.AccountID] = q
		d.order = append(d.order, ev.AccountID)
	}

	if len(q.events) >= d.capacity && !d.makeRoom(q, ev) {
		return
	}
	q.events = append(q.events, ev)
}

// PublishAll publishes events in order.
func (d *Dispatcher) PublishAll(events []models.DomainEvent) {
	for _, ev := range events {
		d.Publish(ev)
	}
}

// makeRoom frees one slot in a full queue. It returns false when the
// incoming event itself is the one to drop.
func (d *Dispatcher) makeRoom(q *queue, incoming models.DomainEvent) bool {
	victim := slices.IndexFunc(q.events, func(e models.DomainEvent) bool {
		return !e.Kind.Critical()
	})

	switch {
	case victim >= 0:
	case !incoming.Kind.Critical():
		d.countDrop(q)
		return false
	default:
		victim = 0
		q.lost++
		lost := d.lost.Add(1)
		d.log.Warn().
			Str("func", "Dispatcher.makeRoom").
			Str("account", incoming.AccountID).
			Str("dropped_kind", q.events[0].Kind.String()).
			Uint64("lost_total", lost).
			Msg("event queue full of critical events; dropping the oldest")
	}

	d.countDrop(q)
	q.events = slices.Delete(q.events, victim, victim+1)
	return true
}

func (d *Dispatcher) countDrop(q *queue) {
	q.dropped++
	d.dropped.Add(1)
}

// Poll returns up to max pending events without blocking; an empty slice
// means nothing is pending. max <= 0 drains everything.
func (d *Dispatcher) Poll(max int) []models.DomainEvent {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []models.DomainEvent
	for len(d.order) > 0 && (max <= 0 || len(out) < max) {
		progressed := false
		for range len(d.order) {
			if max > 0 && len(out) >= max {
				break
			}
			if d.next >= len(d.order) {
				d.next = 0
			}
			q := d.queues[d.order[d.next]]
			d.next++
			if len(q.events) == 0 {
				continue
			}
			out = append(out, q.events[0])
			q.events[0] = models.DomainEvent{}
			q.events = q.events[1:]
			progressed = true
		}
		if !progressed {
			break
		}
	}

	d.compact()
	return out
}

// compact forgets empty queues of accounts that have no drops to report.
func (d *Dispatcher) compact() {
	kept := d.order[:0]
	for _, id := range d.order {
		q := d.queues[id]
		if len(q.events) == 0 && q.dropped == 0 {
			delete(d.queues, id)
			continue
		}
		kept = append(kept, id)
	}
	d.order = kept
	if d.next >= len(d.order) {
		d.next = 0
	}
}

// Dropped returns the total number of events dropped by backpressure.
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

// Lost returns how many message and state events were dropped.
func (d *Dispatcher) Lost() uint64 {
	return d.lost.Load()
}

// Pending returns the number of queued events.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := 0
	for _, q := range d.queues {
		n += len(q.events)
	}
	return n
}

// Stats returns counters for diagnostics.
func (d *Dispatcher) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()

	stats := Stats{
		Dropped:           d.dropped.Load(),
		DroppedPerAccount: make(map[string]uint64),
		Lost:              d.lost.Load(),
		LostPerAccount:    make(map[string]uint64),
	}
	for id, q := range d.queues {
		stats.Pending += len(q.events)
		if q.dropped > 0 {
			stats.DroppedPerAccount[id] = q.dropped
		}
		if q.lost > 0 {
			stats.LostPerAccount[id] = q.lost
		}
	}
	return stats
}
