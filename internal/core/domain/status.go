package domain

// EventOrigin names the channel a status event arrived on.
type EventOrigin string

// Status channels.
const (
	OriginPoll EventOrigin = "poll"
	OriginPush EventOrigin = "push"
)

// StatusEvent is one status observation for a document.
type StatusEvent struct {
	DocumentID int64
	Status     DocumentStatus

	// Message is an optional human-readable note from the backend.
	Message string

	// IndexPath is set by push events once the index is written.
	IndexPath string

	Origin EventOrigin

	// Seq orders reads across channels. It is stamped when the read is
	// issued: before a poll request leaves, or when a push frame arrives.
	Seq uint64
}
