package service

import (
	"context"

	"github.com/MKhiriev/go-multimatrix/models"
)

// fetchRoomKey makes one best-effort attempt to decrypt an event stored as
// DecryptionPending. The fetch runs off the engine goroutine; the result is
// applied through the engine and announced with MessageDecrypted.
func (s *AccountSession) fetchRoomKey(roomID, eventID string) {
	s.goAsync(func(ctx context.Context) {
		log := s.log.With().Str("func", "AccountSession.fetchRoomKey").Str("room_id", roomID).Str("event_id", eventID).Logger()

		fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.Sync.KeyFetchTimeout)
		raw, err := s.Client().FetchRoomKey(fetchCtx, roomID, eventID)
		cancel()
		if err != nil {
			log.Debug().Err(err).Msg("room key unavailable, message stays undecryptable")
			return
		}
		if raw.Undecryptable {
			return
		}

		err = s.engine.submit(ctx, func(context.Context) error {
			room := s.room(roomID)
			if room == nil {
				return nil
			}
			if err := room.ApplyDecrypted(eventID, raw.Content, raw.Media); err != nil {
				s.logInvariant(err, roomID, eventID)
				return nil
			}

			ev := s.event(models.EventMessageDecrypted, roomID)
			ev.EventID = eventID
			s.publisher.Publish(ev)
			return nil
		})
		if err != nil {
			log.Debug().Err(err).Msg("decrypted event not applied")
		}
	})
}
