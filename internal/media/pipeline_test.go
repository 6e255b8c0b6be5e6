package media

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MKhiriev/go-multimatrix/internal/adapter"
	"github.com/MKhiriev/go-multimatrix/internal/config"
	"github.com/MKhiriev/go-multimatrix/internal/logger"
	"github.com/MKhiriev/go-multimatrix/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDownloader blocks every download until release is closed.
type fakeDownloader struct {
	calls   atomic.Int32
	started chan string
	release chan struct{}
	data    []byte
	err     error
}

func newFakeDownloader(data []byte) *fakeDownloader {
	return &fakeDownloader{
		started: make(chan string, 16),
		release: make(chan struct{}),
		data:    data,
	}
}

func (f *fakeDownloader) DownloadMedia(ctx context.Context, ref models.MediaRef, _ int64) ([]byte, string, error) {
	f.calls.Add(1)
	f.started <- ref.URI
	select {
	case <-f.release:
	case <-ctx.Done():
		return nil, "", ctx.Err()
	}
	if f.err != nil {
		return nil, "", f.err
	}
	return f.data, "image/png", nil
}

type eventSink struct {
	events chan models.DomainEvent
}

func newEventSink() *eventSink {
	return &eventSink{events: make(chan models.DomainEvent, 16)}
}

func (s *eventSink) Publish(ev models.DomainEvent) {
	s.events <- ev
}

func (s *eventSink) next(t *testing.T) models.DomainEvent {
	t.Helper()
	select {
	case ev := <-s.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no media event published")
		return models.DomainEvent{}
	}
}

func waitStarted(t *testing.T, d *fakeDownloader) string {
	t.Helper()
	select {
	case uri := <-d.started:
		return uri
	case <-time.After(2 * time.Second):
		t.Fatal("download did not start")
		return ""
	}
}

func ref(account, uri string) models.MediaRef {
	return models.MediaRef{URI: uri, Room: models.RoomRef{AccountID: account, RoomID: "!r"}, EventID: "$e"}
}

func newTestPipeline(t *testing.T, maxConcurrent int, budget int64) (*Pipeline, *eventSink) {
	t.Helper()
	sink := newEventSink()
	p := NewPipeline(config.ClientMedia{MaxConcurrent: maxConcurrent, ByteBudget: budget}, sink, logger.Nop())
	t.Cleanup(p.Close)
	return p, sink
}

// ── Dedupe ──────────────────────────────────────────────────────────────────

func TestRequest_ConcurrentDuplicatesDownloadOnce(t *testing.T) {
	p, sink := newTestPipeline(t, 4, 1<<20)
	d := newFakeDownloader([]byte("png"))

	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Request(ref("@a:x", "mxc://x/1"), d)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	waitStarted(t, d)
	close(d.release)

	ev := sink.next(t)
	assert.Equal(t, models.EventMediaReady, ev.Kind)
	assert.Equal(t, "mxc://x/1", ev.MediaURI)
	assert.Equal(t, int32(1), d.calls.Load())

	item, ok := p.Media("mxc://x/1")
	require.True(t, ok)
	assert.Equal(t, models.MediaReady, item.Status)
	assert.Equal(t, []byte("png"), item.Data)
	assert.Equal(t, "image/png", item.MimeType)
}

func TestRequest_EveryHolderAccountIsNotified(t *testing.T) {
	p, sink := newTestPipeline(t, 4, 1<<20)
	d := newFakeDownloader([]byte("png"))

	a := ref("@a:x", "mxc://x/1")
	b := models.MediaRef{URI: "mxc://x/1", Room: models.RoomRef{AccountID: "@b:y", RoomID: "!other"}, EventID: "$f"}
	_, err := p.Request(a, d)
	require.NoError(t, err)
	_, err = p.Request(b, d)
	require.NoError(t, err)

	waitStarted(t, d)
	close(d.release)

	first, second := sink.next(t), sink.next(t)
	assert.Equal(t, models.EventMediaReady, first.Kind)
	assert.Equal(t, models.EventMediaReady, second.Kind)
	assert.Equal(t, "@a:x", first.AccountID)
	assert.Equal(t, "!r", first.RoomID)
	assert.Equal(t, "@b:y", second.AccountID)
	assert.Equal(t, "!other", second.RoomID)
	assert.Equal(t, "$f", second.EventID)
	assert.Equal(t, int32(1), d.calls.Load())
}

func TestRequest_FailureReachesEveryHolder(t *testing.T) {
	p, sink := newTestPipeline(t, 4, 1<<20)
	d := newFakeDownloader(nil)
	d.err = errors.New("boom")

	_, _ = p.Request(ref("@a:x", "mxc://x/1"), d)
	_, _ = p.Request(ref("@b:y", "mxc://x/1"), d)
	waitStarted(t, d)
	close(d.release)

	accounts := []string{sink.next(t).AccountID, sink.next(t).AccountID}
	assert.Equal(t, []string{"@a:x", "@b:y"}, accounts)
}

func TestRequest_CancelledHolderIsNotNotified(t *testing.T) {
	p, sink := newTestPipeline(t, 4, 1<<20)
	d := newFakeDownloader([]byte("png"))

	_, _ = p.Request(ref("@a:x", "mxc://x/1"), d)
	_, _ = p.Request(ref("@b:y", "mxc://x/1"), d)
	waitStarted(t, d)
	require.False(t, p.Cancel(ref("@a:x", "mxc://x/1")))

	close(d.release)

	assert.Equal(t, "@b:y", sink.next(t).AccountID)
	select {
	case ev := <-sink.events:
		t.Fatalf("unexpected event for %s", ev.AccountID)
	case <-time.After(50 * time.Millisecond):
	}
}

// ── Cancel ──────────────────────────────────────────────────────────────────

func TestCancel_NoOpWhileAnotherAttachmentWaits(t *testing.T) {
	p, sink := newTestPipeline(t, 4, 1<<20)
	d := newFakeDownloader([]byte("data"))

	_, err := p.Request(ref("@a:x", "mxc://x/1"), d)
	require.NoError(t, err)
	status, err := p.Request(ref("@b:y", "mxc://x/1"), d)
	require.NoError(t, err)
	assert.Contains(t, []models.MediaStatus{models.MediaQueued, models.MediaDownloading}, status)
	waitStarted(t, d)

	assert.False(t, p.Cancel(ref("@a:x", "mxc://x/1")), "b still waits")
	assert.False(t, p.Cancel(ref("@a:x", "mxc://x/1")), "a has no attachment left")

	close(d.release)
	assert.Equal(t, models.EventMediaReady, sink.next(t).Kind)
	assert.Equal(t, int32(1), d.calls.Load())
}

func TestCancel_LastAttachmentCancelsDownload(t *testing.T) {
	p, _ := newTestPipeline(t, 4, 1<<20)
	d := newFakeDownloader([]byte("data"))

	_, err := p.Request(ref("@a:x", "mxc://x/1"), d)
	require.NoError(t, err)
	waitStarted(t, d)

	assert.True(t, p.Cancel(ref("@a:x", "mxc://x/1")))

	_, ok := p.Media("mxc://x/1")
	assert.False(t, ok)
}

func TestCancelAccount(t *testing.T) {
	p, _ := newTestPipeline(t, 4, 1<<20)
	d := newFakeDownloader([]byte("data"))

	_, _ = p.Request(ref("@a:x", "mxc://x/only-a"), d)
	_, _ = p.Request(ref("@a:x", "mxc://x/shared"), d)
	_, _ = p.Request(ref("@b:y", "mxc://x/shared"), d)

	assert.Equal(t, 1, p.CancelAccount("@a:x"))

	_, ok := p.Media("mxc://x/only-a")
	assert.False(t, ok)
	_, ok = p.Media("mxc://x/shared")
	assert.True(t, ok, "b still waits for the shared download")
}

// ── Concurrency bound ───────────────────────────────────────────────────────

func TestRequest_ExcessWaitsQueued(t *testing.T) {
	p, sink := newTestPipeline(t, 1, 1<<20)
	d := newFakeDownloader([]byte("data"))

	_, _ = p.Request(ref("@a:x", "mxc://x/1"), d)
	_, _ = p.Request(ref("@a:x", "mxc://x/2"), d)

	first := waitStarted(t, d)
	second := map[string]string{"mxc://x/1": "mxc://x/2", "mxc://x/2": "mxc://x/1"}[first]

	item, ok := p.Media(second)
	require.True(t, ok)
	assert.Equal(t, models.MediaQueued, item.Status)

	close(d.release)
	sink.next(t)
	sink.next(t)
	assert.Equal(t, int32(2), d.calls.Load())
}

// ── Budget and release ──────────────────────────────────────────────────────

func TestBudgetExceeded(t *testing.T) {
	p, sink := newTestPipeline(t, 4, 4)
	d := newFakeDownloader([]byte("too large"))
	close(d.release)

	_, err := p.Request(ref("@a:x", "mxc://x/big"), d)
	require.NoError(t, err)

	ev := sink.next(t)
	assert.Equal(t, models.EventMediaFailed, ev.Kind)
	assert.ErrorIs(t, ev.Err, adapter.ErrMedia)

	item, _ := p.Media("mxc://x/big")
	assert.Equal(t, models.MediaFailed, item.Status)
	assert.Zero(t, p.Used())
}

func TestBudget_AppliesPerItem(t *testing.T) {
	p, sink := newTestPipeline(t, 4, 5)
	d := newFakeDownloader([]byte("1234"))
	close(d.release)

	_, _ = p.Request(ref("@a:x", "mxc://x/1"), d)
	assert.Equal(t, models.EventMediaReady, sink.next(t).Kind)
	_, _ = p.Request(ref("@a:x", "mxc://x/2"), d)
	assert.Equal(t, models.EventMediaReady, sink.next(t).Kind, "items under the budget are accepted whatever is already held")

	assert.Equal(t, int64(8), p.Used())
}

func TestDownloadError(t *testing.T) {
	p, sink := newTestPipeline(t, 4, 1<<20)
	d := newFakeDownloader(nil)
	d.err = errors.New("404")
	close(d.release)

	_, _ = p.Request(ref("@a:x", "mxc://x/gone"), d)

	ev := sink.next(t)
	assert.Equal(t, models.EventMediaFailed, ev.Kind)
	assert.ErrorIs(t, ev.Err, adapter.ErrMedia)

	d.err = nil
	status, err := p.Request(ref("@a:x", "mxc://x/gone"), d)
	require.NoError(t, err)
	assert.Equal(t, models.MediaQueued, status, "failed items are retried")
	assert.Equal(t, models.EventMediaReady, sink.next(t).Kind)
}

func TestRelease(t *testing.T) {
	p, sink := newTestPipeline(t, 4, 1<<20)
	d := newFakeDownloader([]byte("12345"))
	close(d.release)

	_, _ = p.Request(ref("@a:x", "mxc://x/1"), d)
	sink.next(t)
	status, _ := p.Request(ref("@b:y", "mxc://x/1"), d)
	assert.Equal(t, models.MediaReady, status)
	assert.Equal(t, int64(5), p.Used())

	require.NoError(t, p.Release(ref("@a:x", "mxc://x/1")))
	_, ok := p.Media("mxc://x/1")
	assert.True(t, ok, "b still views it")

	require.NoError(t, p.Release(ref("@b:y", "mxc://x/1")))
	_, ok = p.Media("mxc://x/1")
	assert.False(t, ok)
	assert.Zero(t, p.Used())

	assert.ErrorIs(t, p.Release(ref("@b:y", "mxc://x/1")), ErrUnknownMedia)
}

func TestClosedPipeline(t *testing.T) {
	p := NewPipeline(config.ClientMedia{MaxConcurrent: 1, ByteBudget: 10}, newEventSink(), logger.Nop())
	p.Close()

	_, err := p.Request(ref("@a:x", "mxc://x/1"), newFakeDownloader(nil))
	assert.ErrorIs(t, err, ErrPipelineClosed)
}
