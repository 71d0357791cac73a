package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/pagechat/internal/core/domain"
)

// DocumentOutput describes one uploaded document.
type DocumentOutput struct {
	ID           int64  `json:"id"`
	Filename     string `json:"filename"`
	Status       string `json:"status"`
	UploadedAt   string `json:"uploaded_at,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// ListDocumentsInput is the input schema for the list_documents tool.
type ListDocumentsInput struct {
	ReadyOnly bool `json:"ready_only,omitempty" jsonschema:"only list documents that can be asked questions"`
}

// ListDocumentsOutput is the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

// DocumentStatusInput is the input schema for the document_status tool.
type DocumentStatusInput struct {
	DocumentID int64 `json:"document_id" jsonschema:"the document to check"`
}

// DocumentStatusOutput is the output schema for the document_status tool.
type DocumentStatusOutput struct {
	DocumentID   int64  `json:"document_id"`
	Status       string `json:"status"`
	Ready        bool   `json:"ready"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// AskDocumentInput is the input schema for the ask_document tool.
type AskDocumentInput struct {
	DocumentID int64  `json:"document_id" jsonschema:"the document to ask"`
	Question   string `json:"question" jsonschema:"the question to answer from the document"`
}

// SourceOutput is one page-level citation.
type SourceOutput struct {
	Title  string `json:"title,omitempty"`
	NodeID string `json:"node_id,omitempty"`
	Pages  string `json:"pages,omitempty"`
}

// AskDocumentOutput is the output schema for the ask_document tool.
type AskDocumentOutput struct {
	ChatID  int64          `json:"chat_id"`
	Answer  string         `json:"answer"`
	Sources []SourceOutput `json:"sources,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List uploaded PDF documents with their indexing status",
	}, s.handleListDocuments)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "document_status",
		Description: "Get the indexing status of a document",
	}, s.handleDocumentStatus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask_document",
		Description: "Ask a question about a ready document; the answer cites pages",
	}, s.handleAskDocument)
}

func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	docs, err := s.ports.Document.Refresh(ctx)
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}

	output := ListDocumentsOutput{Documents: make([]DocumentOutput, 0, len(docs))}
	for i := range docs {
		if input.ReadyOnly && !docs[i].IsQueryable() {
			continue
		}
		output.Documents = append(output.Documents, toDocumentOutput(&docs[i]))
	}
	output.Count = len(output.Documents)

	return nil, output, nil
}

func (s *Server) handleDocumentStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DocumentStatusInput,
) (*mcp.CallToolResult, DocumentStatusOutput, error) {
	report, err := s.ports.Document.Status(ctx, input.DocumentID)
	if err != nil {
		return nil, DocumentStatusOutput{}, err
	}

	return nil, DocumentStatusOutput{
		DocumentID:   report.ID,
		Status:       report.Status.String(),
		Ready:        report.Status == domain.StatusReady,
		ErrorMessage: report.ErrorMessage,
	}, nil
}

func (s *Server) handleAskDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskDocumentInput,
) (*mcp.CallToolResult, AskDocumentOutput, error) {
	report, err := s.ports.Document.Status(ctx, input.DocumentID)
	if err != nil {
		return nil, AskDocumentOutput{}, err
	}
	if report.Status != domain.StatusReady {
		return nil, AskDocumentOutput{}, fmt.Errorf("%w: document %d is %s", domain.ErrDocumentNotReady, input.DocumentID, report.Status)
	}

	chatID, err := s.ports.Chat.EnsureChat(ctx, input.DocumentID)
	if err != nil {
		return nil, AskDocumentOutput{}, err
	}

	documentID := input.DocumentID
	answer, err := s.ports.Chat.SendQuery(ctx, chatID, &documentID, input.Question)
	if err != nil {
		return nil, AskDocumentOutput{}, err
	}

	output := AskDocumentOutput{
		ChatID: chatID,
		Answer: answer.Content,
	}
	for _, src := range answer.Sources {
		output.Sources = append(output.Sources, SourceOutput(src))
	}

	return nil, output, nil
}

func toDocumentOutput(d *domain.Document) DocumentOutput {
	out := DocumentOutput{
		ID:           d.ID,
		Filename:     d.Filename,
		Status:       d.Status.String(),
		ErrorMessage: d.ErrorMessage,
	}
	if !d.CreatedAt.IsZero() {
		out.UploadedAt = d.CreatedAt.UTC().Format(time.RFC3339)
	}
	return out
}
