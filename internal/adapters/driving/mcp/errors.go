// Package mcp provides an MCP (Model Context Protocol) server adapter for pagechat.
// It lets AI assistants list uploaded PDFs, check their indexing and ask them
// questions through the same services the CLI and TUI use.
package mcp

import "errors"

var (
	// ErrMissingDocumentService is returned when the document service is not provided.
	ErrMissingDocumentService = errors.New("mcp: document service is required")

	// ErrMissingChatService is returned when the chat service is not provided.
	ErrMissingChatService = errors.New("mcp: chat service is required")
)
