package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-multimatrix/internal/timeline"
	"github.com/MKhiriev/go-multimatrix/models"
)

// MarkRead moves the read marker of a room to eventID, or to the newest
// event when eventID is empty, and sends a read receipt in the background.
// Moving the marker backward is ignored.
func (s *AccountSession) MarkRead(ctx context.Context, roomID, eventID string) error {
	return s.engine.submit(ctx, func(context.Context) error {
		room := s.room(roomID)
		if room == nil {
			return fmt.Errorf("%w: %s", ErrUnknownRoom, roomID)
		}
		if eventID == "" {
			eventID = room.Latest()
			if eventID == "" {
				return nil
			}
		}

		moved, err := room.MarkRead(eventID)
		if err != nil {
			if errors.Is(err, timeline.ErrReadMarkerBackward) {
				return nil
			}
			return err
		}
		if !moved {
			return nil
		}

		s.publisher.Publish(s.event(models.EventUnreadChanged, roomID))
		s.sendReceipt(roomID, eventID)
		return nil
	})
}

func (s *AccountSession) sendReceipt(roomID, eventID string) {
	s.goAsync(func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()

		if err := s.Client().SendReadReceipt(ctx, roomID, eventID); err != nil {
			s.log.Warn().Err(err).Str("room_id", roomID).Str("event_id", eventID).Msg("failed to send read receipt")
		}
	})
}

// Backfill requests up to limit older events of a room. The page is fetched
// in the background, prepended by the engine and announced with
// BackfillCompleted. Returns [ErrNothingToLoad] when the start of the room
// was reached; a request already in flight makes this a no-op.
func (s *AccountSession) Backfill(ctx context.Context, roomID string, limit int) error {
	room := s.room(roomID)
	if room == nil {
		return fmt.Errorf("%w: %s", ErrUnknownRoom, roomID)
	}

	from, exhausted := room.BackfillCursor()
	if exhausted {
		return ErrNothingToLoad
	}

	s.backfillMu.Lock()
	if s.backfilling[roomID] {
		s.backfillMu.Unlock()
		return nil
	}
	s.backfilling[roomID] = true
	s.backfillMu.Unlock()

	s.goAsync(func(ctx context.Context) {
		defer func() {
			s.backfillMu.Lock()
			delete(s.backfilling, roomID)
			s.backfillMu.Unlock()
		}()

		fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
		page, err := s.Client().Backfill(fetchCtx, roomID, from, limit)
		cancel()

		done := s.event(models.EventBackfillCompleted, roomID)
		if err != nil {
			s.log.Warn().Err(err).Str("room_id", roomID).Msg("backfill failed")
			done.Err = err
			s.publisher.Publish(done)
			return
		}

		err = s.engine.submit(ctx, func(context.Context) error {
			if s.room(roomID) != room {
				return nil
			}
			added := s.applyPage(room, page)
			s.log.Debug().Str("room_id", roomID).Int("added", added).Bool("exhausted", page.Exhausted).Msg("backfill applied")
			s.publisher.Publish(done)
			return nil
		})
		if err != nil {
			s.log.Debug().Err(err).Str("room_id", roomID).Msg("backfilled page dropped")
		}
	})

	return nil
}

// applyPage prepends the timeline entries of an older page, then applies
// relations that point into it.
func (s *AccountSession) applyPage(room *timeline.Room, page models.BackfillPage) int {
	entries := make([]models.TimelineEvent, 0, len(page.Events))
	var relations []models.RawEvent
	for _, raw := range page.Events {
		switch raw.Kind {
		case models.KindMessage, models.KindMembershipChange:
			entries = append(entries, toTimelineEvent(room.ID(), raw))
		default:
			relations = append(relations, raw)
		}
	}

	added := room.Prepend(entries)
	for _, raw := range relations {
		s.applyEvent(room, raw)
	}
	for _, raw := range page.Events {
		if raw.Undecryptable {
			s.fetchRoomKey(room.ID(), raw.ID)
		}
	}

	room.SetBackfillCursor(page.NextCursor, page.Exhausted)
	return added
}

// Send posts a user action in the background. A failure is reported with
// SendFailed; the message appears in the timeline once the server echoes it
// through sync.
func (s *AccountSession) Send(roomID string, msg models.Outgoing) error {
	if s.room(roomID) == nil {
		return fmt.Errorf("%w: %s", ErrUnknownRoom, roomID)
	}
	if s.Status() == models.StatusLoggedOut {
		return ErrSessionNotRunning
	}

	s.goAsync(func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()

		eventID, err := s.Client().Send(ctx, roomID, msg)
		if err != nil {
			s.log.Warn().Err(err).Str("room_id", roomID).Msg("send failed")
			ev := s.event(models.EventSendFailed, roomID)
			ev.EventID = msg.TargetID
			ev.Err = err
			s.publisher.Publish(ev)
			return
		}
		s.log.Debug().Str("room_id", roomID).Str("event_id", eventID).Msg("sent")
	})
	return nil
}
