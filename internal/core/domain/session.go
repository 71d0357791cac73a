package domain

import "time"

// Session is the client-side view state that survives between runs:
// which document is selected and which chat user turns go to.
type Session struct {
	// SelectedDocumentID is nil when nothing is selected.
	SelectedDocumentID *int64

	// CurrentChatID is the chat bound to the selected document's view.
	// It is nil whenever SelectedDocumentID is nil.
	CurrentChatID *int64

	UpdatedAt time.Time
}

// IsEmpty returns true if no document is selected.
func (s Session) IsEmpty() bool {
	return s.SelectedDocumentID == nil
}
