package services

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/pagechat/internal/core/domain"
	"github.com/custodia-labs/pagechat/internal/core/ports/driven"
	"github.com/custodia-labs/pagechat/internal/core/ports/driving"
	"github.com/custodia-labs/pagechat/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// ChatService holds the current chat of each document view and runs the
// query cycle against it.
type ChatService struct {
	backend driven.ChatBackend
	cache   driven.EntityCache
	timeout time.Duration
	now     func() time.Time

	creating singleflight.Group

	mu       sync.Mutex
	current  map[int64]int64
	released map[int64]uint64
	inflight map[int64]struct{}
}

// NewChatService creates a chat service. timeout bounds each query.
func NewChatService(backend driven.ChatBackend, cache driven.EntityCache, timeout time.Duration) *ChatService {
	if timeout <= 0 {
		timeout = time.Duration(domain.DefaultTimeoutSeconds) * time.Second
	}
	return &ChatService{
		backend:  backend,
		cache:    cache,
		timeout:  timeout,
		now:      time.Now,
		current:  make(map[int64]int64),
		released: make(map[int64]uint64),
		inflight: make(map[int64]struct{}),
	}
}

// EnsureChat returns the document view's current chat, creating one if
// none is bound. Concurrent callers share one creation, which outlives the
// caller that started it; each caller stops waiting when its own ctx ends.
func (s *ChatService) EnsureChat(ctx context.Context, documentID int64) (int64, error) {
	if id, ok := s.CurrentChat(documentID); ok {
		return id, nil
	}

	createCtx := context.WithoutCancel(ctx)
	results := s.creating.DoChan(strconv.FormatInt(documentID, 10), func() (any, error) {
		// A creation that finished just before this flight started has
		// already bound a chat.
		id, gen, ok := s.binding(documentID)
		if ok {
			return id, nil
		}

		title := domain.DefaultChatTitle(s.now())
		docID := documentID
		chat, err := s.backend.CreateChat(createCtx, &docID, &title)
		if err != nil {
			return int64(0), err
		}

		if s.bindUnlessReleased(documentID, chat.ID, gen) {
			logger.Debug("chat: created chat %d for document %d", chat.ID, documentID)
		} else {
			logger.Debug("chat: document %d released while chat %d was created, not binding", documentID, chat.ID)
		}

		if err := s.cache.Invalidate(createCtx, domain.ChatsKey(documentID)); err != nil {
			logger.Warn("chat: refreshing chats of document %d failed: %v", documentID, err)
		}
		return chat.ID, nil
	})

	select {
	case res := <-results:
		if res.Err != nil {
			return 0, res.Err
		}
		if res.Shared {
			logger.Debug("chat: joined in-flight chat creation for document %d", documentID)
		}
		return res.Val.(int64), nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// binding returns the current chat of a document view together with the
// view's release generation.
func (s *ChatService) binding(documentID int64) (int64, uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.current[documentID]
	return id, s.released[documentID], ok
}

// bindUnlessReleased binds chatID only if the view has not been released
// since gen was read.
func (s *ChatService) bindUnlessReleased(documentID, chatID int64, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released[documentID] != gen {
		return false
	}
	s.current[documentID] = chatID
	return true
}

// CurrentChat returns the chat bound to a document view.
func (s *ChatService) CurrentChat(documentID int64) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.current[documentID]
	return id, ok
}

// Bind makes chatID the current chat of a document view.
func (s *ChatService) Bind(documentID, chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current[documentID] = chatID
}

// Release drops the current-chat binding of a document view. A chat
// creation still in flight for the view will not bind its result.
func (s *ChatService) Release(documentID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.current, documentID)
	s.released[documentID]++
}

// releaseChat drops every binding that points at chatID.
func (s *ChatService) releaseChat(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for doc, id := range s.current {
		if id == chatID {
			delete(s.current, doc)
		}
	}
}

// SendQuery submits text to a chat. On success the chat's messages are
// refetched so the cache holds the server's ordering; on failure nothing
// is recorded and the chat can be queried again.
func (s *ChatService) SendQuery(ctx context.Context, chatID int64, documentID *int64, text string) (*domain.Message, error) {
	query := strings.TrimSpace(text)
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}

	if !s.acquire(chatID) {
		return nil, domain.ErrQueryInFlight
	}
	defer s.release(chatID)

	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	msg, err := s.backend.SubmitQuery(queryCtx, chatID, query, documentID)
	if err != nil {
		logger.Warn("chat: query on chat %d failed: %v", chatID, err)
		return nil, err
	}

	if err := s.cache.Invalidate(ctx, domain.MessagesKey(chatID)); err != nil {
		logger.Warn("chat: refreshing messages of chat %d failed: %v", chatID, err)
	}
	return msg, nil
}

func (s *ChatService) acquire(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[chatID]; busy {
		return false
	}
	s.inflight[chatID] = struct{}{}
	return true
}

func (s *ChatService) release(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, chatID)
}

// InFlight reports whether a query is running on the chat.
func (s *ChatService) InFlight(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, busy := s.inflight[chatID]
	return busy
}

// Create creates a chat explicitly without binding it.
func (s *ChatService) Create(ctx context.Context, documentID *int64, title string) (*domain.Chat, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = domain.DefaultChatTitle(s.now())
	}

	chat, err := s.backend.CreateChat(ctx, documentID, &title)
	if err != nil {
		return nil, err
	}

	s.refreshChatLists(ctx, chat.DocumentID)
	return chat, nil
}

// List returns the chats of a document, or all chats for 0.
func (s *ChatService) List(ctx context.Context, documentID int64) ([]domain.Chat, error) {
	return s.cache.Chats(ctx, documentID)
}

// Get retrieves a chat from the backend.
func (s *ChatService) Get(ctx context.Context, id int64) (*domain.Chat, error) {
	return s.backend.GetChat(ctx, id)
}

// Messages returns a chat's messages from the cache.
func (s *ChatService) Messages(ctx context.Context, chatID int64) ([]domain.Message, error) {
	return s.cache.Messages(ctx, chatID)
}

// Delete removes a chat, its cached messages and any binding to it.
func (s *ChatService) Delete(ctx context.Context, chatID int64) error {
	chat, err := s.backend.GetChat(ctx, chatID)
	if err != nil {
		return err
	}

	if err := s.backend.DeleteChat(ctx, chatID); err != nil {
		return err
	}

	s.releaseChat(chatID)
	s.cache.Evict(domain.MessagesKey(chatID))
	s.refreshChatLists(ctx, chat.DocumentID)
	return nil
}

func (s *ChatService) refreshChatLists(ctx context.Context, documentID *int64) {
	key := domain.ChatsKey(0)
	if documentID != nil {
		key = domain.ChatsKey(*documentID)
		s.cache.Evict(domain.ChatsKey(0))
	}
	if err := s.cache.Invalidate(ctx, key); err != nil {
		logger.Warn("chat: refreshing %s failed: %v", key, err)
	}
}
