// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package media downloads message attachments with bounded concurrency and
// keeps their bytes in memory while a room view holds them.
package media

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/MKhiriev/go-multimatrix/internal/adapter"
	"github.com/MKhiriev/go-multimatrix/internal/config"
	"github.com/MKhiriev/go-multimatrix/internal/logger"
	"github.com/MKhiriev/go-multimatrix/models"
)

var (
	ErrUnknownMedia   = errors.New("media: not requested")
	ErrBudgetExceeded = fmt.Errorf("%w: item exceeds byte budget", adapter.ErrMedia)
	ErrPipelineClosed = errors.New("media: pipeline closed")
)

// Downloader fetches one content reference. [adapter.ProtocolClient]
// satisfies it.
type Downloader interface {
	DownloadMedia(ctx context.Context, ref models.MediaRef, maxBytes int64) ([]byte, string, error)
}

// Publisher receives MediaReady and MediaFailed events.
type Publisher interface {
	Publish(ev models.DomainEvent)
}

// item is one content reference. holders counts, per account, the waiters
// of an in-flight download and the view references of a ready one. refs
// keeps the latest request of each holder account so every account is told
// about the outcome in its own room.
type item struct {
	ref     models.MediaRef
	status  models.MediaStatus
	data    []byte
	mime    string
	err     error
	holders map[string]int
	refs    map[string]models.MediaRef
	cancel  context.CancelFunc
}

func (it *item) hold(ref models.MediaRef) {
	it.holders[ref.Room.AccountID]++
	it.refs[ref.Room.AccountID] = ref
}

func (it *item) unhold(accountID string) {
	if it.holders[accountID] > 1 {
		it.holders[accountID]--
		return
	}
	delete(it.holders, accountID)
	delete(it.refs, accountID)
}

// outcome builds one event per holder account, ordered by account id.
func (it *item) outcome(kind models.DomainEventKind, err error) []models.DomainEvent {
	events := make([]models.DomainEvent, 0, len(it.refs))
	for _, accountID := range slices.Sorted(maps.Keys(it.refs)) {
		ref := it.refs[accountID]
		events = append(events, models.DomainEvent{
			Kind:      kind,
			AccountID: accountID,
			RoomID:    ref.Room.RoomID,
			EventID:   ref.EventID,
			MediaURI:  it.ref.URI,
			Err:       err,
		})
	}
	return events
}

func (it *item) held() int {
	total := 0
	for _, n := range it.holders {
		total += n
	}
	return total
}

func (it *item) inFlight() bool {
	return it.status == models.MediaQueued || it.status == models.MediaDownloading
}

// Pipeline is safe for concurrent use.
type Pipeline struct {
	mu     sync.Mutex
	items  map[string]*item
	used   int64
	budget int64
	closed bool

	sem *semaphore.Weighted
	wg  sync.WaitGroup

	ctx       context.Context
	stop      context.CancelFunc
	publisher Publisher
	log       *logger.Logger
}

// NewPipeline creates a pipeline running at most cfg.MaxConcurrent
// downloads. cfg.ByteBudget caps the size of a single item.
func NewPipeline(cfg config.ClientMedia, publisher Publisher, log *logger.Logger) *Pipeline {
	ctx, stop := context.WithCancel(context.Background())
	return &Pipeline{
		items:     make(map[string]*item),
		budget:    cfg.ByteBudget,
		sem:       semaphore.NewWeighted(int64(max(cfg.MaxConcurrent, 1))),
		ctx:       ctx,
		stop:      stop,
		publisher: publisher,
		log:       log,
	}
}

// Request attaches the account of ref.Room to the content. The first
// request starts a download; later ones for the same URI share it. A failed
// item is retried by the next request.
func (p *Pipeline) Request(ref models.MediaRef, downloader Downloader) (models.MediaStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return models.MediaFailed, ErrPipelineClosed
	}

	if it, ok := p.items[ref.URI]; ok && it.status != models.MediaFailed {
		it.hold(ref)
		return it.status, nil
	}

	ctx, cancel := context.WithCancel(p.ctx)
	it := &item{
		ref:     ref,
		status:  models.MediaQueued,
		holders: make(map[string]int),
		refs:    make(map[string]models.MediaRef),
		cancel:  cancel,
	}
	it.hold(ref)
	p.items[ref.URI] = it

	p.wg.Add(1)
	go p.download(ctx, it, downloader)

	return models.MediaQueued, nil
}

func (p *Pipeline) download(ctx context.Context, it *item, downloader Downloader) {
	defer p.wg.Done()
	defer it.cancel()

	log := p.log.With().Str("uri", it.ref.URI).Str("account", it.ref.Room.AccountID).Logger()

	if err := p.sem.Acquire(ctx, 1); err != nil {
		log.Debug().Msg("media request cancelled while queued")
		return
	}
	defer p.sem.Release(1)

	p.mu.Lock()
	if p.items[it.ref.URI] != it {
		p.mu.Unlock()
		return
	}
	it.status = models.MediaDownloading
	p.mu.Unlock()

	data, mime, err := downloader.DownloadMedia(ctx, it.ref, p.budget)

	p.mu.Lock()
	if p.items[it.ref.URI] != it {
		p.mu.Unlock()
		log.Debug().Msg("media download finished after cancellation")
		return
	}

	if err == nil && p.budget > 0 && int64(len(data)) > p.budget {
		err = ErrBudgetExceeded
	}

	var events []models.DomainEvent
	if err != nil {
		if !errors.Is(err, adapter.ErrMedia) {
			err = fmt.Errorf("%w: %w", adapter.ErrMedia, err)
		}
		it.status, it.err = models.MediaFailed, err
		events = it.outcome(models.EventMediaFailed, err)
		log.Warn().Err(err).Int("holders", len(events)).Msg("media download failed")
	} else {
		it.status, it.data, it.mime = models.MediaReady, data, mime
		p.used += int64(len(data))
		events = it.outcome(models.EventMediaReady, nil)
		log.Debug().Int("bytes", len(data)).Int("holders", len(events)).Msg("media ready")
	}
	p.mu.Unlock()

	for _, ev := range events {
		p.publisher.Publish(ev)
	}
}

// Cancel detaches one waiter of ref.Room's account from an in-flight
// download. The download is cancelled only when no waiter is left; it
// reports whether that happened.
func (p *Pipeline) Cancel(ref models.MediaRef) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	it, ok := p.items[ref.URI]
	if !ok || !it.inFlight() {
		return false
	}

	if it.holders[ref.Room.AccountID] == 0 {
		return false
	}
	it.unhold(ref.Room.AccountID)

	if it.held() > 0 {
		return false
	}
	p.dropLocked(it)
	return true
}

// Release drops one view reference of ref.Room's account. The bytes are
// discarded when the last reference goes.
func (p *Pipeline) Release(ref models.MediaRef) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	it, ok := p.items[ref.URI]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMedia, ref.URI)
	}
	if it.inFlight() {
		return nil
	}

	if it.holders[ref.Room.AccountID] > 0 {
		it.unhold(ref.Room.AccountID)
	}
	if it.held() == 0 {
		p.dropLocked(it)
	}
	return nil
}

// CancelAccount removes every hold of accountID. Downloads and bytes no
// other account holds are cancelled or discarded. It returns the number of
// items dropped.
func (p *Pipeline) CancelAccount(accountID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	dropped := 0
	for _, it := range p.items {
		if _, ok := it.holders[accountID]; !ok {
			continue
		}
		delete(it.holders, accountID)
		delete(it.refs, accountID)
		if it.held() == 0 {
			p.dropLocked(it)
			dropped++
		}
	}
	return dropped
}

// Media returns a snapshot of the content's state. Data is shared; callers
// must not modify it.
func (p *Pipeline) Media(uri string) (models.MediaItem, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	it, ok := p.items[uri]
	if !ok {
		return models.MediaItem{}, false
	}
	return models.MediaItem{
		Ref:      it.ref,
		Status:   it.status,
		Data:     it.data,
		MimeType: it.mime,
		Err:      it.err,
	}, true
}

// Used returns the bytes currently held across all items.
func (p *Pipeline) Used() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.used
}

// Close cancels every download and waits for the workers to exit.
func (p *Pipeline) Close() {
	p.mu.Lock()
	p.closed = true
	for _, it := range p.items {
		p.dropLocked(it)
	}
	p.mu.Unlock()

	p.stop()
	p.wg.Wait()
}

func (p *Pipeline) dropLocked(it *item) {
	it.cancel()
	if it.status == models.MediaReady {
		p.used -= int64(len(it.data))
	}
	it.data = nil
	delete(p.items, it.ref.URI)
}
