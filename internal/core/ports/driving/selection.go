package driving

import (
	"context"

	"github.com/custodia-labs/pagechat/internal/core/domain"
)

// SelectionService keeps the selected document and its current chat
// consistent as entities are created and deleted.
type SelectionService interface {
	// Restore loads the saved session and rebinds its current chat.
	Restore(ctx context.Context) (domain.Session, error)

	// Current returns the selection.
	Current() domain.Session

	// SelectDocument selects a document and ensures it has a current chat.
	SelectDocument(ctx context.Context, documentID int64) (int64, error)

	// Deselect clears the selection and drops its chat binding.
	Deselect(ctx context.Context) error

	// SelectChat makes an existing chat of the selected document current.
	SelectChat(ctx context.Context, chatID int64) error

	// ActiveChat returns the selected document's current chat, running
	// EnsureChat when the binding was dropped.
	ActiveChat(ctx context.Context) (int64, error)

	// Ask sends a query to the active chat of the selected document.
	Ask(ctx context.Context, text string) (*domain.Message, error)

	// DeleteDocument deletes a document, clearing the selection if it
	// was selected.
	DeleteDocument(ctx context.Context, documentID int64) error

	// DeleteChat deletes a chat, clearing the binding if it was current.
	DeleteChat(ctx context.Context, chatID int64) error
}
