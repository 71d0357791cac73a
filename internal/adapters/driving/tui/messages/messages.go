// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/pagechat/internal/core/domain"
	"github.com/custodia-labs/pagechat/internal/core/ports/driving"
)

// ViewType identifies which screen is active.
type ViewType int

const (
	// ViewWorkspace is the documents pane beside the chat pane.
	ViewWorkspace ViewType = iota
	// ViewHelp is the help/keybindings screen.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewWorkspace:
		return "workspace"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Pane identifies which half of the workspace has keyboard focus.
type Pane int

const (
	// PaneDocuments is the document list.
	PaneDocuments Pane = iota
	// PaneChat is the chat transcript and question input.
	PaneChat
)

// String returns the string representation of the pane.
func (p Pane) String() string {
	switch p {
	case PaneDocuments:
		return "documents"
	case PaneChat:
		return "chat"
	default:
		return "unknown"
	}
}

// ViewChanged is sent when navigating between screens.
type ViewChanged struct {
	View ViewType
}

// FocusChanged moves keyboard focus to a pane.
type FocusChanged struct {
	Pane Pane
}

// SessionRestored carries the selection saved by a previous run.
type SessionRestored struct {
	Session domain.Session
	Err     error
}

// DocumentsLoaded carries the document list.
type DocumentsLoaded struct {
	Documents []domain.Document
	Err       error
}

// DocumentSelected reports the outcome of selecting a document.
// ChatID is 0 when no chat could be derived.
type DocumentSelected struct {
	DocumentID int64
	ChatID     int64
	Err        error
}

// ChatsLoaded carries the chats of a document.
type ChatsLoaded struct {
	DocumentID int64
	Chats      []domain.Chat
	Err        error
}

// ChatSelected reports that a chat became current.
type ChatSelected struct {
	ChatID int64
	Err    error
}

// MessagesLoaded carries the transcript of a chat.
type MessagesLoaded struct {
	ChatID   int64
	Messages []domain.Message
	Err      error
}

// AnswerReceived carries the assistant reply to a question asked about
// DocumentID.
type AnswerReceived struct {
	DocumentID int64
	Message    *domain.Message
	Err        error
}

// UploadFinished reports the outcome of uploading a file.
type UploadFinished struct {
	Path     string
	Document *domain.Document
	Err      error
}

// DocumentDeleted reports that a document was deleted.
type DocumentDeleted struct {
	DocumentID int64
	Err        error
}

// ChatDeleted reports that a chat was deleted.
type ChatDeleted struct {
	ChatID int64
	Err    error
}

// CacheChanged forwards one change from the entity cache.
type CacheChanged struct {
	Event domain.CacheEvent
}

// HealthChecked carries the backend health probe result.
type HealthChecked struct {
	Report driving.HealthReport
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
