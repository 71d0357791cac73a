package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/pagechat/internal/core/domain"
	"github.com/custodia-labs/pagechat/internal/core/ports/driven"
)

// Ensure SessionStore implements the interface.
var _ driven.SessionStore = (*SessionStore)(nil)

// SessionStore is an in-memory implementation of driven.SessionStore.
type SessionStore struct {
	mu      sync.RWMutex
	session domain.Session
	saves   int
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

// Load returns the saved session.
func (s *SessionStore) Load(_ context.Context) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess := copySession(s.session)
	return &sess, nil
}

// Save replaces the saved session.
func (s *SessionStore) Save(_ context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = copySession(*session)
	s.saves++
	return nil
}

// Saves returns how many times Save was called.
func (s *SessionStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
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
