package driving

import (
	"context"

	"github.com/custodia-labs/pagechat/internal/core/domain"
)

// ChatService owns chat sessions and the query cycle.
type ChatService interface {
	// EnsureChat returns the current chat for a document view, creating
	// exactly one if none is bound. Concurrent callers for the same
	// document share one creation request.
	EnsureChat(ctx context.Context, documentID int64) (int64, error)

	// CurrentChat returns the chat bound to a document view.
	CurrentChat(documentID int64) (int64, bool)

	// Bind makes chatID the current chat of a document view.
	Bind(documentID, chatID int64)

	// Release drops the current-chat binding of a document view.
	Release(documentID int64)

	// SendQuery submits a user turn and returns the assistant's answer.
	// Returns domain.ErrEmptyQuery for blank text and
	// domain.ErrQueryInFlight while another query on the chat runs.
	SendQuery(ctx context.Context, chatID int64, documentID *int64, text string) (*domain.Message, error)

	// InFlight reports whether a query is running on the chat.
	InFlight(chatID int64) bool

	// Create creates a chat explicitly. An empty title gets the default.
	Create(ctx context.Context, documentID *int64, title string) (*domain.Chat, error)

	// List returns the chats of a document (0 for all chats).
	List(ctx context.Context, documentID int64) ([]domain.Chat, error)

	// Get retrieves a chat by ID.
	Get(ctx context.Context, id int64) (*domain.Chat, error)

	// Messages returns the messages of a chat.
	Messages(ctx context.Context, chatID int64) ([]domain.Message, error)

	// Delete removes a chat and drops any binding that points at it.
	Delete(ctx context.Context, chatID int64) error
}
