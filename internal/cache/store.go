// Package cache implements the client-side entity cache.
//
// The Store keeps three kinds of collection: the document list, chat
// lists per document, and message lists per chat. Collections are filled
// from a Loader on first read and replaced wholesale on Invalidate, so the
// backend stays the source of truth for ordering and IDs.
package cache

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/pagechat/internal/core/domain"
	"github.com/custodia-labs/pagechat/internal/core/ports/driven"
	"github.com/custodia-labs/pagechat/internal/logger"
	"github.com/custodia-labs/pagechat/internal/pubsub"
)

// Verify interface compliance.
var _ driven.EntityCache = (*Store)(nil)

// Loader fetches authoritative collections from the backend.
type Loader interface {
	ListDocuments(ctx context.Context) ([]domain.Document, error)
	ListChats(ctx context.Context, documentID *int64) ([]domain.Chat, error)
	ListMessages(ctx context.Context, chatID int64) ([]domain.Message, error)
}

// Store is an in-memory keyed cache of documents, chats and messages.
type Store struct {
	loader Loader
	group  singleflight.Group
	broker *pubsub.Broker[domain.CacheEvent]

	mu              sync.RWMutex
	documents       []domain.Document
	documentsLoaded bool
	chats           map[int64][]domain.Chat
	messages        map[int64][]domain.Message

	// generations is bumped by local writes; a fetch that started under an
	// older generation is discarded instead of clobbering the write.
	generations map[domain.CacheKey]uint64
}

// New creates an empty Store backed by loader.
func New(loader Loader) *Store {
	return &Store{
		loader:      loader,
		broker:      pubsub.NewBroker[domain.CacheEvent](),
		chats:       make(map[int64][]domain.Chat),
		messages:    make(map[int64][]domain.Message),
		generations: make(map[domain.CacheKey]uint64),
	}
}

// Documents returns the document list, loading it on first use.
func (s *Store) Documents(ctx context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	loaded := s.documentsLoaded
	s.mu.RUnlock()

	if !loaded {
		if err := s.Invalidate(ctx, domain.DocumentsKey()); err != nil {
			return nil, err
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneDocuments(s.documents), nil
}

// Document returns a cached document without loading.
func (s *Store) Document(id int64) (domain.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return cloneDocument(s.documents[i]), true
	}
	return domain.Document{}, false
}

// Chats returns the chats of a document, loading them on first use.
func (s *Store) Chats(ctx context.Context, documentID int64) ([]domain.Chat, error) {
	s.mu.RLock()
	chats, ok := s.chats[documentID]
	s.mu.RUnlock()

	if !ok {
		if err := s.Invalidate(ctx, domain.ChatsKey(documentID)); err != nil {
			return nil, err
		}
		s.mu.RLock()
		chats = s.chats[documentID]
		s.mu.RUnlock()
	}

	return append([]domain.Chat(nil), chats...), nil
}

// Messages returns the messages of a chat, loading them on first use.
func (s *Store) Messages(ctx context.Context, chatID int64) ([]domain.Message, error) {
	s.mu.RLock()
	messages, ok := s.messages[chatID]
	s.mu.RUnlock()

	if !ok {
		if err := s.Invalidate(ctx, domain.MessagesKey(chatID)); err != nil {
			return nil, err
		}
		s.mu.RLock()
		messages = s.messages[chatID]
		s.mu.RUnlock()
	}

	return append([]domain.Message(nil), messages...), nil
}

// Invalidate refetches one collection. A second call for the same key
// while a fetch is outstanding waits for that fetch instead of issuing
// another request.
func (s *Store) Invalidate(ctx context.Context, key domain.CacheKey) error {
	_, err, shared := s.group.Do(key.String(), func() (any, error) {
		return nil, s.fetch(ctx, key)
	})
	if shared {
		logger.Debug("cache: coalesced refetch of %s", key)
	}
	return err
}

func (s *Store) fetch(ctx context.Context, key domain.CacheKey) error {
	s.mu.RLock()
	gen := s.generations[key]
	s.mu.RUnlock()

	logger.Debug("cache: fetching %s", key)

	switch key.Kind {
	case domain.CollectionDocuments:
		docs, err := s.loader.ListDocuments(ctx)
		if err != nil {
			return err
		}
		s.store(key, gen, func() {
			s.documents = mergeDocuments(s.documents, docs)
			s.documentsLoaded = true
		})

	case domain.CollectionChats:
		var filter *int64
		if key.ID != 0 {
			id := key.ID
			filter = &id
		}
		chats, err := s.loader.ListChats(ctx, filter)
		if err != nil {
			return err
		}
		s.store(key, gen, func() { s.chats[key.ID] = chats })

	case domain.CollectionMessages:
		messages, err := s.loader.ListMessages(ctx, key.ID)
		if err != nil {
			return err
		}
		s.store(key, gen, func() { s.messages[key.ID] = messages })

	default:
		return fmt.Errorf("%w: unknown collection %q", domain.ErrInvalidInput, key.Kind)
	}

	return nil
}

// store applies a fetched collection unless a local write bumped the
// key's generation while the fetch was in flight.
func (s *Store) store(key domain.CacheKey, gen uint64, apply func()) {
	s.mu.Lock()
	if s.generations[key] != gen {
		s.mu.Unlock()
		logger.Debug("cache: discarding stale fetch of %s", key)
		return
	}
	apply()
	s.mu.Unlock()

	s.broker.Publish(domain.CacheEvent{Key: key, Change: domain.CacheUpdated})
}

// Evict drops a collection without refetching it.
func (s *Store) Evict(key domain.CacheKey) {
	s.mu.Lock()
	s.generations[key]++
	switch key.Kind {
	case domain.CollectionDocuments:
		s.documents = nil
		s.documentsLoaded = false
	case domain.CollectionChats:
		delete(s.chats, key.ID)
	case domain.CollectionMessages:
		delete(s.messages, key.ID)
	}
	s.mu.Unlock()

	s.broker.Publish(domain.CacheEvent{Key: key, Change: domain.CacheRemoved})
}

// PutDocument inserts a document at the head of the list, or replaces it.
func (s *Store) PutDocument(doc domain.Document) {
	key := domain.DocumentsKey()

	s.mu.Lock()
	s.generations[key]++
	if i := s.indexOf(doc.ID); i >= 0 {
		s.documents[i] = cloneDocument(doc)
	} else {
		s.documents = append([]domain.Document{cloneDocument(doc)}, s.documents...)
	}
	s.mu.Unlock()

	s.broker.Publish(domain.CacheEvent{Key: key, Change: domain.CacheUpdated})
}

// UpdateDocument applies fn to a cached document under the cache lock.
func (s *Store) UpdateDocument(id int64, fn func(doc *domain.Document) bool) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	doc := cloneDocument(s.documents[i])
	if !fn(&doc) {
		s.mu.Unlock()
		return false
	}
	s.documents[i] = doc
	s.mu.Unlock()

	s.broker.Publish(domain.CacheEvent{Key: domain.DocumentsKey(), Change: domain.CacheUpdated})
	return true
}

// RemoveDocument drops a document together with its chat list and the
// message lists of those chats.
func (s *Store) RemoveDocument(id int64) {
	docsKey := domain.DocumentsKey()
	chatsKey := domain.ChatsKey(id)

	s.mu.Lock()
	s.generations[docsKey]++
	s.generations[chatsKey]++
	if i := s.indexOf(id); i >= 0 {
		s.documents = append(s.documents[:i:i], s.documents[i+1:]...)
	}
	removed := []domain.CacheKey{chatsKey}
	for _, c := range s.chats[id] {
		key := domain.MessagesKey(c.ID)
		s.generations[key]++
		delete(s.messages, c.ID)
		removed = append(removed, key)
	}
	delete(s.chats, id)
	s.mu.Unlock()

	s.broker.Publish(domain.CacheEvent{Key: docsKey, Change: domain.CacheUpdated})
	for _, key := range removed {
		s.broker.Publish(domain.CacheEvent{Key: key, Change: domain.CacheRemoved})
	}
}

// Subscribe returns a channel of change events, closed when ctx ends.
func (s *Store) Subscribe(ctx context.Context) <-chan domain.CacheEvent {
	return s.broker.Subscribe(ctx)
}

// Close releases all subscribers.
func (s *Store) Close() {
	s.broker.Close()
}

// indexOf must be called with s.mu held.
func (s *Store) indexOf(id int64) int {
	for i := range s.documents {
		if s.documents[i].ID == id {
			return i
		}
	}
	return -1
}
