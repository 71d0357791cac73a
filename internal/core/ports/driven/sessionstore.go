package driven

import (
	"context"

	"github.com/custodia-labs/pagechat/internal/core/domain"
)

// SessionStore persists view state between runs.
type SessionStore interface {
	// Load returns the saved session, or an empty session if none exists.
	Load(ctx context.Context) (*domain.Session, error)

	// Save replaces the saved session.
	Save(ctx context.Context, session *domain.Session) error
}
