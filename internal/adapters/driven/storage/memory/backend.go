package memory

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/pagechat/internal/core/domain"
	"github.com/custodia-labs/pagechat/internal/core/ports/driven"
)

// Ensure Backend implements the interface.
var _ driven.Backend = (*Backend)(nil)

// Backend operation names, used for call counting and error injection.
const (
	OpListDocuments     = "list_documents"
	OpGetDocument       = "get_document"
	OpGetDocumentStatus = "get_document_status"
	OpUploadDocument    = "upload_document"
	OpDeleteDocument    = "delete_document"
	OpCreateChat        = "create_chat"
	OpListChats         = "list_chats"
	OpGetChat           = "get_chat"
	OpListMessages      = "list_messages"
	OpSubmitQuery       = "submit_query"
	OpDeleteChat        = "delete_chat"
	OpHealth            = "health"
)

// Backend is an in-memory implementation of driven.Backend for testing.
// It behaves like the real server: IDs are assigned on create, deletes
// cascade, and unknown IDs produce 404 transport errors.
type Backend struct {
	mu        sync.Mutex
	documents map[int64]domain.Document
	chats     map[int64]domain.Chat
	messages  map[int64][]domain.Message
	nextID    int64
	calls     map[string]int
	errs      map[string]error
	gates     map[string]chan struct{}
	now       func() time.Time

	// Answer produces the assistant reply for a query.
	Answer func(query string) (string, []domain.Source)
}

// NewBackend creates an empty in-memory backend.
func NewBackend() *Backend {
	return &Backend{
		documents: make(map[int64]domain.Document),
		chats:     make(map[int64]domain.Chat),
		messages:  make(map[int64][]domain.Message),
		calls:     make(map[string]int),
		errs:      make(map[string]error),
		gates:     make(map[string]chan struct{}),
		now:       time.Now,
		Answer: func(query string) (string, []domain.Source) {
			return "Answer to: " + query, []domain.Source{{Title: "Introduction", NodeID: "0001", Pages: "1-2"}}
		},
	}
}

// AddDocument seeds a document and returns it.
func (b *Backend) AddDocument(filename string, status domain.DocumentStatus) domain.Document {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	doc := domain.Document{ID: b.nextID, Filename: filename, Status: status, CreatedAt: b.now()}
	b.documents[doc.ID] = doc
	return doc
}

// SetStatus changes a document's status as the indexing pipeline would.
func (b *Backend) SetStatus(id int64, status domain.DocumentStatus, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	doc, ok := b.documents[id]
	if !ok {
		return
	}
	doc.Status = status
	doc.ErrorMessage = message
	b.documents[id] = doc
}

// FailOn makes every call to op return err. A nil err clears it.
func (b *Backend) FailOn(op string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.errs, op)
		return
	}
	b.errs[op] = err
}

// Block makes calls to op wait until the returned function is called.
func (b *Backend) Block(op string) (release func()) {
	gate := make(chan struct{})
	b.mu.Lock()
	b.gates[op] = gate
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.gates, op)
			b.mu.Unlock()
			close(gate)
		})
	}
}

// Calls returns how many times op was invoked.
func (b *Backend) Calls(op string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[op]
}

// TotalCalls returns the number of calls across all operations.
func (b *Backend) TotalCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	total := 0
	for _, n := range b.calls {
		total += n
	}
	return total
}

// enter records a call, waits on any gate and returns an injected error.
func (b *Backend) enter(ctx context.Context, op string) error {
	b.mu.Lock()
	b.calls[op]++
	gate := b.gates[op]
	b.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return &domain.TransportError{Kind: domain.TransportTimeout, Op: op, Err: ctx.Err()}
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.errs[op]
}

func notFound(op, what string) error {
	return &domain.TransportError{
		Kind:       domain.TransportServer,
		Op:         op,
		StatusCode: 404,
		Detail:     what + " not found",
	}
}

// ListDocuments returns documents newest first.
func (b *Backend) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	if err := b.enter(ctx, OpListDocuments); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	docs := make([]domain.Document, 0, len(b.documents))
	for _, d := range b.documents {
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID > docs[j].ID })
	return docs, nil
}

// GetDocument returns one document.
func (b *Backend) GetDocument(ctx context.Context, id int64) (*domain.Document, error) {
	if err := b.enter(ctx, OpGetDocument); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	doc, ok := b.documents[id]
	if !ok {
		return nil, notFound(OpGetDocument, "Document")
	}
	return &doc, nil
}

// GetDocumentStatus returns a document's status.
func (b *Backend) GetDocumentStatus(ctx context.Context, id int64) (*domain.DocumentStatusReport, error) {
	if err := b.enter(ctx, OpGetDocumentStatus); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	doc, ok := b.documents[id]
	if !ok {
		return nil, notFound(OpGetDocumentStatus, "Document")
	}
	return &domain.DocumentStatusReport{ID: doc.ID, Status: doc.Status, ErrorMessage: doc.ErrorMessage}, nil
}

// UploadDocument stores a document in the uploading state.
func (b *Backend) UploadDocument(ctx context.Context, filename string, content io.Reader) (*domain.UploadReceipt, error) {
	if err := b.enter(ctx, OpUploadDocument); err != nil {
		return nil, err
	}
	if _, err := io.Copy(io.Discard, content); err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	doc := b.AddDocument(filename, domain.StatusUploading)
	return &domain.UploadReceipt{
		ID:       doc.ID,
		Filename: doc.Filename,
		Status:   doc.Status,
		Message:  "Document uploaded successfully. Indexing in progress...",
	}, nil
}

// DeleteDocument removes a document with its chats and messages.
func (b *Backend) DeleteDocument(ctx context.Context, id int64) error {
	if err := b.enter(ctx, OpDeleteDocument); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.documents[id]; !ok {
		return notFound(OpDeleteDocument, "Document")
	}
	delete(b.documents, id)
	for chatID, c := range b.chats {
		if c.BelongsTo(id) {
			delete(b.chats, chatID)
			delete(b.messages, chatID)
		}
	}
	return nil
}

// CreateChat creates a chat.
func (b *Backend) CreateChat(ctx context.Context, documentID *int64, title *string) (*domain.Chat, error) {
	if err := b.enter(ctx, OpCreateChat); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if documentID != nil {
		if _, ok := b.documents[*documentID]; !ok {
			return nil, notFound(OpCreateChat, "Document")
		}
	}

	b.nextID++
	chat := domain.Chat{ID: b.nextID, CreatedAt: b.now()}
	if documentID != nil {
		id := *documentID
		chat.DocumentID = &id
	}
	if title != nil {
		t := *title
		chat.Title = &t
	}
	b.chats[chat.ID] = chat
	return &chat, nil
}

// ListChats lists chats, newest first.
func (b *Backend) ListChats(ctx context.Context, documentID *int64) ([]domain.Chat, error) {
	if err := b.enter(ctx, OpListChats); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	chats := make([]domain.Chat, 0)
	for _, c := range b.chats {
		if documentID == nil || c.BelongsTo(*documentID) {
			chats = append(chats, c)
		}
	}
	sort.Slice(chats, func(i, j int) bool { return chats[i].ID > chats[j].ID })
	return chats, nil
}

// GetChat returns one chat.
func (b *Backend) GetChat(ctx context.Context, id int64) (*domain.Chat, error) {
	if err := b.enter(ctx, OpGetChat); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	chat, ok := b.chats[id]
	if !ok {
		return nil, notFound(OpGetChat, "Chat")
	}
	return &chat, nil
}

// ListMessages returns a chat's messages in creation order.
func (b *Backend) ListMessages(ctx context.Context, chatID int64) ([]domain.Message, error) {
	if err := b.enter(ctx, OpListMessages); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.chats[chatID]; !ok {
		return nil, notFound(OpListMessages, "Chat")
	}
	return append([]domain.Message(nil), b.messages[chatID]...), nil
}

// SubmitQuery records the user turn and an assistant answer.
func (b *Backend) SubmitQuery(ctx context.Context, chatID int64, query string, _ *int64) (*domain.Message, error) {
	if err := b.enter(ctx, OpSubmitQuery); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.chats[chatID]; !ok {
		return nil, notFound(OpSubmitQuery, "Chat")
	}

	content, sources := b.Answer(query)
	now := b.now()

	b.nextID++
	user := domain.Message{ID: b.nextID, ChatID: chatID, Role: domain.RoleUser, Content: query, CreatedAt: now}
	b.nextID++
	assistant := domain.Message{
		ID:        b.nextID,
		ChatID:    chatID,
		Role:      domain.RoleAssistant,
		Content:   content,
		Sources:   sources,
		CreatedAt: now,
	}
	b.messages[chatID] = append(b.messages[chatID], user, assistant)
	return &assistant, nil
}

// DeleteChat removes a chat and its messages.
func (b *Backend) DeleteChat(ctx context.Context, id int64) error {
	if err := b.enter(ctx, OpDeleteChat); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.chats[id]; !ok {
		return notFound(OpDeleteChat, "Chat")
	}
	delete(b.chats, id)
	delete(b.messages, id)
	return nil
}

// Health answers the health check.
func (b *Backend) Health(ctx context.Context) error {
	return b.enter(ctx, OpHealth)
}
