package service

import (
	"github.com/MKhiriev/go-multimatrix/models"
)

// RequestMedia attaches the content of ref to its account and starts the
// download when nobody else holds it. MediaReady or MediaFailed follows.
func (e *Engine) RequestMedia(ref models.MediaRef) (models.MediaStatus, error) {
	s, err := e.session(ref.Room.AccountID)
	if err != nil {
		return models.MediaFailed, err
	}
	return e.media.Request(ref, s.Client())
}

// CancelMedia detaches the account of ref. The download stops when no other
// account waits for the same content.
func (e *Engine) CancelMedia(ref models.MediaRef) bool {
	return e.media.Cancel(ref)
}

// ReleaseMedia drops one view of downloaded content.
func (e *Engine) ReleaseMedia(ref models.MediaRef) error {
	return e.media.Release(ref)
}

// Media returns the state and, once ready, the bytes of a download.
func (e *Engine) Media(uri string) (models.MediaItem, bool) {
	return e.media.Media(uri)
}
