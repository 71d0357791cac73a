package mcp

import (
	"github.com/custodia-labs/pagechat/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server uses.
type Ports struct {
	// Document lists documents and reports their status.
	Document driving.DocumentService

	// Chat answers questions. Each document gets one chat per server
	// session, shared by all ask_document calls.
	Chat driving.ChatService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Document == nil {
		return ErrMissingDocumentService
	}
	if p.Chat == nil {
		return ErrMissingChatService
	}
	return nil
}
