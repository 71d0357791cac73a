package domain

import "fmt"

// CollectionKind names one of the cached collections.
type CollectionKind string

// Cached collections.
const (
	// CollectionDocuments is the document list. Its key ID is always 0.
	CollectionDocuments CollectionKind = "documents"

	// CollectionChats is a chat list. Its key ID is the document ID,
	// or 0 for the list of all chats.
	CollectionChats CollectionKind = "chats"

	// CollectionMessages is a chat's message list, keyed by chat ID.
	CollectionMessages CollectionKind = "messages"
)

// CacheKey addresses one cached collection.
type CacheKey struct {
	Kind CollectionKind
	ID   int64
}

// DocumentsKey addresses the document list.
func DocumentsKey() CacheKey {
	return CacheKey{Kind: CollectionDocuments}
}

// ChatsKey addresses the chats of one document.
func ChatsKey(documentID int64) CacheKey {
	return CacheKey{Kind: CollectionChats, ID: documentID}
}

// MessagesKey addresses the messages of one chat.
func MessagesKey(chatID int64) CacheKey {
	return CacheKey{Kind: CollectionMessages, ID: chatID}
}

// String renders the key as "kind/id", e.g. "messages/12".
func (k CacheKey) String() string {
	if k.Kind == CollectionDocuments {
		return string(k.Kind)
	}
	return fmt.Sprintf("%s/%d", k.Kind, k.ID)
}

// CacheChange describes what happened to a cached collection.
type CacheChange string

// Cache change types.
const (
	CacheUpdated CacheChange = "updated"
	CacheRemoved CacheChange = "removed"
)

// CacheEvent is published whenever a cached collection changes.
type CacheEvent struct {
	Key    CacheKey
	Change CacheChange
}
