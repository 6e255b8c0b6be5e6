package models

// MediaRef points at downloadable content of a message.
type MediaRef struct {
	// URI is the content reference, e.g. "mxc://example.org/abc". Requests
	// are deduplicated by it.
	URI      string
	MimeType string
	Name     string
	Size     int64
	Room     RoomRef
	EventID  string
}

// MediaStatus is the lifecycle of one media request.
type MediaStatus int

const (
	MediaQueued MediaStatus = iota
	MediaDownloading
	MediaReady
	MediaFailed
)

func (s MediaStatus) String() string {
	switch s {
	case MediaQueued:
		return "queued"
	case MediaDownloading:
		return "downloading"
	case MediaReady:
		return "ready"
	case MediaFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MediaItem is the state of one content reference as seen by the UI.
type MediaItem struct {
	Ref      MediaRef
	Status   MediaStatus
	Data     []byte
	MimeType string
	Err      error
}
