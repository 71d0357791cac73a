package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/pagechat/internal/core/domain"
	"github.com/custodia-labs/pagechat/internal/core/ports/driven"
	"github.com/custodia-labs/pagechat/internal/core/ports/driving"
	"github.com/custodia-labs/pagechat/internal/logger"
)

// Ensure SelectionService implements the interface.
var _ driving.SelectionService = (*SelectionService)(nil)

// SelectionService keeps the selected document and its current chat
// consistent with the documents and chats that exist.
type SelectionService struct {
	documents driving.DocumentService
	chats     driving.ChatService
	cache     driven.EntityCache
	sessions  driven.SessionStore

	// reuseLatest makes a document view adopt its newest existing chat
	// before falling back to creating one.
	reuseLatest bool

	mu      sync.Mutex
	session domain.Session
}

// NewSelectionService creates a selection service.
func NewSelectionService(
	documents driving.DocumentService,
	chats driving.ChatService,
	cache driven.EntityCache,
	sessions driven.SessionStore,
	reuseLatest bool,
) *SelectionService {
	return &SelectionService{
		documents:   documents,
		chats:       chats,
		cache:       cache,
		sessions:    sessions,
		reuseLatest: reuseLatest,
	}
}

// Restore loads the saved session and rebinds its chat.
func (s *SelectionService) Restore(ctx context.Context) (domain.Session, error) {
	if s.sessions == nil {
		return s.Current(), nil
	}

	saved, err := s.sessions.Load(ctx)
	if err != nil {
		return domain.Session{}, fmt.Errorf("load session: %w", err)
	}

	s.mu.Lock()
	s.session = copySession(*saved)
	if saved.SelectedDocumentID != nil && saved.CurrentChatID != nil {
		s.chats.Bind(*saved.SelectedDocumentID, *saved.CurrentChatID)
	}
	current := copySession(s.session)
	s.mu.Unlock()

	return current, nil
}

// Current returns the selection.
func (s *SelectionService) Current() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copySession(s.session)
}

// SelectDocument selects a document and derives its current chat.
// If deriving the chat fails the document stays selected without a chat;
// the next ActiveChat call retries.
func (s *SelectionService) SelectDocument(ctx context.Context, documentID int64) (int64, error) {
	if _, err := s.cache.Documents(ctx); err != nil {
		return 0, err
	}
	if _, ok := s.cache.Document(documentID); !ok {
		return 0, fmt.Errorf("document %d: %w", documentID, domain.ErrNotFound)
	}

	s.mu.Lock()
	previous := s.session.SelectedDocumentID
	s.mu.Unlock()

	if previous != nil && *previous != documentID {
		s.chats.Release(*previous)
	}

	chatID, err := s.deriveChat(ctx, documentID)
	if err != nil {
		s.update(ctx, func(sess *domain.Session) {
			sess.SelectedDocumentID = &documentID
			sess.CurrentChatID = nil
		})
		return 0, err
	}

	s.update(ctx, func(sess *domain.Session) {
		sess.SelectedDocumentID = &documentID
		sess.CurrentChatID = &chatID
	})
	return chatID, nil
}

// deriveChat returns the bound chat, the newest existing chat when
// reuseLatest is set, or a newly created chat.
func (s *SelectionService) deriveChat(ctx context.Context, documentID int64) (int64, error) {
	if id, ok := s.chats.CurrentChat(documentID); ok {
		return id, nil
	}

	if s.reuseLatest {
		chats, err := s.chats.List(ctx, documentID)
		if err != nil {
			logger.Warn("selection: listing chats of document %d failed: %v", documentID, err)
		} else if latest := domain.LatestChat(chats); latest != nil {
			s.chats.Bind(documentID, latest.ID)
			return latest.ID, nil
		}
	}

	return s.chats.EnsureChat(ctx, documentID)
}

// Deselect clears the selection and drops its chat binding.
func (s *SelectionService) Deselect(ctx context.Context) error {
	s.mu.Lock()
	previous := s.session.SelectedDocumentID
	s.mu.Unlock()

	if previous != nil {
		s.chats.Release(*previous)
	}

	s.update(ctx, func(sess *domain.Session) {
		sess.SelectedDocumentID = nil
		sess.CurrentChatID = nil
	})
	return nil
}

// SelectChat binds an existing chat of the selected document.
func (s *SelectionService) SelectChat(ctx context.Context, chatID int64) error {
	documentID, err := s.selected()
	if err != nil {
		return err
	}

	chat, err := s.chats.Get(ctx, chatID)
	if err != nil {
		return err
	}
	if !chat.BelongsTo(documentID) {
		return fmt.Errorf("%w: chat %d does not belong to document %d", domain.ErrInvalidInput, chatID, documentID)
	}

	s.chats.Bind(documentID, chatID)
	s.update(ctx, func(sess *domain.Session) {
		sess.CurrentChatID = &chatID
	})
	return nil
}

// ActiveChat returns the current chat of the selected document, creating
// one when the binding was dropped.
func (s *SelectionService) ActiveChat(ctx context.Context) (int64, error) {
	documentID, err := s.selected()
	if err != nil {
		return 0, err
	}

	chatID, err := s.chats.EnsureChat(ctx, documentID)
	if err != nil {
		return 0, err
	}

	s.update(ctx, func(sess *domain.Session) {
		if sess.SelectedDocumentID != nil && *sess.SelectedDocumentID == documentID {
			sess.CurrentChatID = &chatID
		}
	})
	return chatID, nil
}

// Ask sends text to the active chat of the selected document.
func (s *SelectionService) Ask(ctx context.Context, text string) (*domain.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyQuery
	}

	documentID, err := s.selected()
	if err != nil {
		return nil, err
	}
	if doc, ok := s.cache.Document(documentID); ok && !doc.IsQueryable() {
		return nil, fmt.Errorf("%w: %s is %s", domain.ErrDocumentNotReady, doc.Filename, doc.Status)
	}

	chatID, err := s.ActiveChat(ctx)
	if err != nil {
		return nil, err
	}
	return s.chats.SendQuery(ctx, chatID, &documentID, text)
}

// DeleteDocument deletes a document. If it was selected, the selection
// is cleared. A document the backend already lost is cleared as well and
// the not-found error is still returned.
func (s *SelectionService) DeleteDocument(ctx context.Context, documentID int64) error {
	err := s.documents.Delete(ctx, documentID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	s.chats.Release(documentID)
	s.update(ctx, func(sess *domain.Session) {
		if sess.SelectedDocumentID != nil && *sess.SelectedDocumentID == documentID {
			sess.SelectedDocumentID = nil
			sess.CurrentChatID = nil
		}
	})
	return err
}

// DeleteChat deletes a chat. If it was current, the next ActiveChat call
// creates a new one.
func (s *SelectionService) DeleteChat(ctx context.Context, chatID int64) error {
	if err := s.chats.Delete(ctx, chatID); err != nil {
		return err
	}

	s.update(ctx, func(sess *domain.Session) {
		if sess.CurrentChatID != nil && *sess.CurrentChatID == chatID {
			sess.CurrentChatID = nil
		}
	})
	return nil
}

func (s *SelectionService) selected() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session.SelectedDocumentID == nil {
		return 0, domain.ErrNoDocumentSelected
	}
	return *s.session.SelectedDocumentID, nil
}

// update mutates the session and persists it. Persistence failures are
// logged; the in-memory selection stays authoritative.
func (s *SelectionService) update(ctx context.Context, fn func(sess *domain.Session)) {
	s.mu.Lock()
	fn(&s.session)
	s.session.UpdatedAt = time.Now()
	snapshot := copySession(s.session)
	s.mu.Unlock()

	if s.sessions == nil {
		return
	}
	if err := s.sessions.Save(ctx, &snapshot); err != nil {
		logger.Warn("selection: saving session failed: %v", err)
	}
}

func copySession(sess domain.Session) domain.Session {
	if sess.SelectedDocumentID != nil {
		id := *sess.SelectedDocumentID
		sess.SelectedDocumentID = &id
	}
	if sess.CurrentChatID != nil {
		id := *sess.CurrentChatID
		sess.CurrentChatID = &id
	}
	return sess
}
