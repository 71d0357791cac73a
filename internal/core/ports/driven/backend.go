package driven

import (
	"context"
	"io"

	"github.com/custodia-labs/pagechat/internal/core/domain"
)

// DocumentBackend is the document half of the backend REST surface.
type DocumentBackend interface {
	// ListDocuments returns every document, newest first.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// GetDocument returns one document.
	// Returns domain.ErrNotFound (via errors.Is) if it does not exist.
	GetDocument(ctx context.Context, id int64) (*domain.Document, error)

	// GetDocumentStatus returns the document's current indexing status.
	GetDocumentStatus(ctx context.Context, id int64) (*domain.DocumentStatusReport, error)

	// UploadDocument sends a PDF as multipart field "file".
	UploadDocument(ctx context.Context, filename string, content io.Reader) (*domain.UploadReceipt, error)

	// DeleteDocument removes a document and its chats on the server.
	DeleteDocument(ctx context.Context, id int64) error
}

// ChatBackend is the chat half of the backend REST surface.
type ChatBackend interface {
	// CreateChat creates a chat, optionally bound to a document.
	CreateChat(ctx context.Context, documentID *int64, title *string) (*domain.Chat, error)

	// ListChats lists chats for one document, or all chats when documentID is nil.
	ListChats(ctx context.Context, documentID *int64) ([]domain.Chat, error)

	// GetChat returns one chat.
	GetChat(ctx context.Context, id int64) (*domain.Chat, error)

	// ListMessages returns a chat's messages in server order.
	ListMessages(ctx context.Context, chatID int64) ([]domain.Message, error)

	// SubmitQuery runs retrieval and generation and returns the assistant turn.
	SubmitQuery(ctx context.Context, chatID int64, query string, documentID *int64) (*domain.Message, error)

	// DeleteChat removes a chat and its messages.
	DeleteChat(ctx context.Context, id int64) error
}

// Backend is the complete REST surface of the pagechat server.
type Backend interface {
	DocumentBackend
	ChatBackend

	// Health returns nil when the server answers its health endpoint.
	Health(ctx context.Context) error
}
