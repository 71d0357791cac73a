package pageindex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/pagechat/internal/core/domain"
	"github.com/custodia-labs/pagechat/internal/core/ports/driven"
	"github.com/custodia-labs/pagechat/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.Backend = (*Client)(nil)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 60 * time.Second

	// HeaderRequestID carries a per-request correlation ID.
	HeaderRequestID = "X-Request-ID"

	// maxErrorBody bounds how much of an error response is read.
	maxErrorBody = 64 << 10
)

// ErrUnhealthy is returned by Health when the backend answers but does
// not report itself healthy.
var ErrUnhealthy = errors.New("backend reports unhealthy")

// Client is the REST client for the backend API.
type Client struct {
	baseURL     string
	http        *http.Client
	rateLimiter *RateLimiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRequestsPerSecond caps the request rate. Zero disables throttling.
func WithRequestsPerSecond(n int) Option {
	return func(c *Client) { c.rateLimiter = NewRateLimiter(n) }
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		http:        &http.Client{Timeout: timeout},
		rateLimiter: NewRateLimiter(domain.DefaultRequestsPerSec),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListDocuments returns all documents.
func (c *Client) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	const op = "list documents"

	var dtos []documentDTO
	if err := c.getJSON(ctx, op, "/api/documents/", &dtos); err != nil {
		return nil, err
	}
	docs := make([]domain.Document, len(dtos))
	for i, d := range dtos {
		doc, err := d.toDomain()
		if err != nil {
			return nil, malformed(op, err)
		}
		docs[i] = doc
	}
	return docs, nil
}

// GetDocument returns one document.
func (c *Client) GetDocument(ctx context.Context, id int64) (*domain.Document, error) {
	const op = "get document"

	var dto documentDTO
	if err := c.getJSON(ctx, op, "/api/documents/"+pathID(id), &dto); err != nil {
		return nil, err
	}
	doc, err := dto.toDomain()
	if err != nil {
		return nil, malformed(op, err)
	}
	return &doc, nil
}

// GetDocumentStatus returns the indexing status of a document.
func (c *Client) GetDocumentStatus(ctx context.Context, id int64) (*domain.DocumentStatusReport, error) {
	const op = "get document status"

	var dto statusDTO
	if err := c.getJSON(ctx, op, "/api/documents/"+pathID(id)+"/status", &dto); err != nil {
		return nil, err
	}
	report, err := dto.toDomain()
	if err != nil {
		return nil, malformed(op, err)
	}
	return &report, nil
}

// UploadDocument posts a PDF as multipart form data under the field "file".
func (c *Client) UploadDocument(ctx context.Context, filename string, content io.Reader) (*domain.UploadReceipt, error) {
	const op = "upload document"

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", "application/pdf")
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("%s: read %s: %w", op, filename, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var dto uploadDTO
	if err := c.do(ctx, op, http.MethodPost, "/api/documents/upload", &body, mw.FormDataContentType(), &dto); err != nil {
		return nil, err
	}
	status, err := parseStatus(dto.Status)
	if err != nil {
		return nil, malformed(op, err)
	}
	return &domain.UploadReceipt{
		ID:       dto.ID,
		Filename: dto.Filename,
		Status:   status,
		Message:  dto.Message,
	}, nil
}

// DeleteDocument deletes a document and its chats.
func (c *Client) DeleteDocument(ctx context.Context, id int64) error {
	return c.do(ctx, "delete document", http.MethodDelete, "/api/documents/"+pathID(id), nil, "", nil)
}

// CreateChat creates a chat, optionally bound to a document.
func (c *Client) CreateChat(ctx context.Context, documentID *int64, title *string) (*domain.Chat, error) {
	var dto chatDTO
	req := createChatRequest{DocumentID: documentID, Title: title}
	if err := c.postJSON(ctx, "create chat", "/api/chats/", req, &dto); err != nil {
		return nil, err
	}
	chat := dto.toDomain()
	return &chat, nil
}

// ListChats lists chats, filtered to one document when documentID is set.
func (c *Client) ListChats(ctx context.Context, documentID *int64) ([]domain.Chat, error) {
	path := "/api/chats/"
	if documentID != nil {
		path += "?" + url.Values{"document_id": {pathID(*documentID)}}.Encode()
	}

	var dtos []chatDTO
	if err := c.getJSON(ctx, "list chats", path, &dtos); err != nil {
		return nil, err
	}
	chats := make([]domain.Chat, len(dtos))
	for i, d := range dtos {
		chats[i] = d.toDomain()
	}
	return chats, nil
}

// GetChat returns one chat.
func (c *Client) GetChat(ctx context.Context, id int64) (*domain.Chat, error) {
	var dto chatDTO
	if err := c.getJSON(ctx, "get chat", "/api/chats/"+pathID(id), &dto); err != nil {
		return nil, err
	}
	chat := dto.toDomain()
	return &chat, nil
}

// ListMessages returns a chat's messages.
func (c *Client) ListMessages(ctx context.Context, chatID int64) ([]domain.Message, error) {
	const op = "list messages"

	var dtos []messageDTO
	if err := c.getJSON(ctx, op, "/api/chats/"+pathID(chatID)+"/messages", &dtos); err != nil {
		return nil, err
	}
	messages := make([]domain.Message, len(dtos))
	for i, d := range dtos {
		msg, err := d.toDomain()
		if err != nil {
			return nil, malformed(op, err)
		}
		messages[i] = msg
	}
	return messages, nil
}

// SubmitQuery asks a question in a chat and returns the assistant's answer.
func (c *Client) SubmitQuery(ctx context.Context, chatID int64, query string, documentID *int64) (*domain.Message, error) {
	const op = "submit query"

	var dto messageDTO
	req := queryRequest{Query: query, DocumentID: documentID}
	if err := c.postJSON(ctx, op, "/api/chats/"+pathID(chatID)+"/query", req, &dto); err != nil {
		return nil, err
	}
	msg, err := dto.toDomain()
	if err != nil {
		return nil, malformed(op, err)
	}
	return &msg, nil
}

// DeleteChat deletes a chat and its messages.
func (c *Client) DeleteChat(ctx context.Context, id int64) error {
	return c.do(ctx, "delete chat", http.MethodDelete, "/api/chats/"+pathID(id), nil, "", nil)
}

// Health calls the health endpoint.
func (c *Client) Health(ctx context.Context) error {
	var dto healthDTO
	if err := c.getJSON(ctx, "health", "/api/health/", &dto); err != nil {
		return err
	}
	if dto.Status != "" && dto.Status != "healthy" {
		return fmt.Errorf("%w: status %q", ErrUnhealthy, dto.Status)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	return c.do(ctx, op, http.MethodGet, path, nil, "", out)
}

func (c *Client) postJSON(ctx context.Context, op, path string, in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", op, err)
	}
	return c.do(ctx, op, http.MethodPost, path, bytes.NewReader(data), "application/json", out)
}

// do performs one request and decodes a JSON response into out.
func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string, out any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return &domain.TransportError{Kind: domain.TransportTimeout, Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	requestID := uuid.NewString()
	req.Header.Set(HeaderRequestID, requestID)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	logger.Debug("api: %s %s [%s]", method, req.URL.Path, requestID)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Debug("api: %s %s failed after %s: %v", method, req.URL.Path, time.Since(start), err)
		return classify(op, err)
	}
	defer resp.Body.Close()

	logger.Debug("api: %d %s %s in %s", resp.StatusCode, method, req.URL.Path, time.Since(start))
	c.rateLimiter.Observe(resp)

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &domain.TransportError{
			Kind:       domain.TransportServer,
			Op:         op,
			StatusCode: resp.StatusCode,
			Detail:     parseDetail(data),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if isTimeout(err) {
			return classify(op, err)
		}
		return malformed(op, err)
	}
	return nil
}

func classify(op string, err error) error {
	kind := domain.TransportUnreachable
	if isTimeout(err) {
		kind = domain.TransportTimeout
	}
	return &domain.TransportError{Kind: kind, Op: op, Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func malformed(op string, err error) error {
	return &domain.TransportError{Kind: domain.TransportMalformed, Op: op, Err: err}
}
