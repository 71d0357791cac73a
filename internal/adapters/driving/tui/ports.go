// Package tui provides an interactive terminal user interface for pagechat.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"context"

	"github.com/custodia-labs/pagechat/internal/core/domain"
	"github.com/custodia-labs/pagechat/internal/core/ports/driving"
)

// ChangeFeed publishes cache changes so panes can redraw without polling.
type ChangeFeed interface {
	Subscribe(ctx context.Context) <-chan domain.CacheEvent
}

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Document lists, uploads and deletes documents.
	Document driving.DocumentService

	// Chat lists chats and loads their messages.
	Chat driving.ChatService

	// Selection owns the selected document and its current chat.
	Selection driving.SelectionService

	// Health reports backend reachability in the status bar. Optional.
	Health driving.HealthService

	// Changes drives live redraws. Optional; without it panes reload
	// after each action only.
	Changes ChangeFeed
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Document == nil {
		return ErrMissingDocumentService
	}
	if p.Chat == nil {
		return ErrMissingChatService
	}
	if p.Selection == nil {
		return ErrMissingSelectionService
	}
	return nil
}
