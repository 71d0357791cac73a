package driven

import (
	"context"

	"github.com/custodia-labs/pagechat/internal/core/domain"
)

// EntityCache is the client-side keyed store of documents, chats and
// messages. Collections are filled from the backend on first read and
// refetched on Invalidate.
type EntityCache interface {
	// Documents returns the cached document list, loading it on first use.
	Documents(ctx context.Context) ([]domain.Document, error)

	// Document returns a cached document without touching the network.
	Document(id int64) (domain.Document, bool)

	// Chats returns the cached chats for a document (0 for all chats).
	Chats(ctx context.Context, documentID int64) ([]domain.Chat, error)

	// Messages returns the cached messages of a chat.
	Messages(ctx context.Context, chatID int64) ([]domain.Message, error)

	// Invalidate refetches a collection. Concurrent invalidations of the
	// same key share one request.
	Invalidate(ctx context.Context, key domain.CacheKey) error

	// Evict drops a collection without refetching it.
	Evict(key domain.CacheKey)

	// PutDocument inserts or replaces a document in the list.
	PutDocument(doc domain.Document)

	// UpdateDocument runs fn against the cached document under the cache
	// lock. The change is kept and published only if fn returns true.
	// Returns false if the document is not cached or fn declined.
	UpdateDocument(id int64, fn func(doc *domain.Document) bool) bool

	// RemoveDocument drops a document from the list.
	RemoveDocument(id int64)

	// Subscribe returns a channel of change events, closed when ctx ends.
	Subscribe(ctx context.Context) <-chan domain.CacheEvent
}
