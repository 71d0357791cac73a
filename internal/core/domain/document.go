package domain

import (
	"fmt"
	"time"
)

// DocumentStatus is the indexing lifecycle state of a document.
type DocumentStatus string

// Indexing lifecycle states. Ready and Error are terminal.
const (
	// StatusUploading means the file is being received by the backend.
	StatusUploading DocumentStatus = "uploading"

	// StatusIndexing means the backend pipeline is building the index.
	StatusIndexing DocumentStatus = "indexing"

	// StatusReady means the document can be queried.
	StatusReady DocumentStatus = "ready"

	// StatusError means indexing failed.
	StatusError DocumentStatus = "error"
)

// ParseDocumentStatus converts a wire value into a DocumentStatus.
func ParseDocumentStatus(s string) (DocumentStatus, error) {
	status := DocumentStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("%w: unknown document status %q", ErrInvalidInput, s)
	}
	return status, nil
}

// IsValid returns true if the status is recognised.
func (s DocumentStatus) IsValid() bool {
	switch s {
	case StatusUploading, StatusIndexing, StatusReady, StatusError:
		return true
	default:
		return false
	}
}

// IsTerminal returns true once no further transitions are expected.
func (s DocumentStatus) IsTerminal() bool {
	return s == StatusReady || s == StatusError
}

// Rank orders statuses along uploading -> indexing -> {ready|error}.
// Unknown statuses rank below everything.
func (s DocumentStatus) Rank() int {
	switch s {
	case StatusUploading:
		return 1
	case StatusIndexing:
		return 2
	case StatusReady, StatusError:
		return 3
	default:
		return 0
	}
}

// CanTransitionTo reports whether moving from s to next keeps the
// lifecycle monotonic. Terminal states never transition.
func (s DocumentStatus) CanTransitionTo(next DocumentStatus) bool {
	if !next.IsValid() || s.IsTerminal() {
		return false
	}
	return next.Rank() > s.Rank()
}

// String returns the string representation.
func (s DocumentStatus) String() string {
	return string(s)
}

// Description returns a human-readable label for the status.
func (s DocumentStatus) Description() string {
	switch s {
	case StatusUploading:
		return "Uploading..."
	case StatusIndexing:
		return "Indexing..."
	case StatusReady:
		return "Ready"
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Document represents an uploaded PDF tracked by the backend.
type Document struct {
	// ID is the server-assigned identifier. It never changes.
	ID int64

	// Filename is the original upload name.
	Filename string

	// Status is the indexing lifecycle state.
	Status DocumentStatus

	// CreatedAt is when the backend accepted the upload.
	CreatedAt time.Time

	// IndexPath is where the backend stored the index, once ready.
	IndexPath *string

	// ErrorMessage carries the backend's reason when Status is error.
	ErrorMessage string
}

// IsQueryable returns true if chats about this document can be answered.
func (d *Document) IsQueryable() bool {
	return d.Status == StatusReady
}

// DocumentStatusReport is the payload of the status endpoint.
type DocumentStatusReport struct {
	ID           int64
	Status       DocumentStatus
	ErrorMessage string
}

// UploadReceipt is returned by the backend when an upload is accepted.
type UploadReceipt struct {
	ID       int64
	Filename string
	Status   DocumentStatus
	Message  string
}

// Document builds the cached representation of a freshly uploaded document.
func (r *UploadReceipt) Document(now time.Time) Document {
	status := r.Status
	if !status.IsValid() {
		status = StatusUploading
	}
	return Document{
		ID:        r.ID,
		Filename:  r.Filename,
		Status:    status,
		CreatedAt: now,
	}
}
