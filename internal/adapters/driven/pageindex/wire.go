package pageindex

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/pagechat/internal/core/domain"
)

// timestamp accepts the datetime renderings the backend produces, with or
// without a zone offset and with either a T or a space separator.
type timestamp time.Time

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

func (t *timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = timestamp(parsed)
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", s)
}

func (t timestamp) Time() time.Time {
	return time.Time(t)
}

// looseString decodes a JSON string or number as a string.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = looseString(n.String())
	return nil
}

type documentDTO struct {
	ID           int64     `json:"id"`
	Filename     string    `json:"filename"`
	Status       string    `json:"status"`
	CreatedAt    timestamp `json:"created_at"`
	IndexPath    *string   `json:"index_path"`
	ErrorMessage *string   `json:"error_message"`
}

// parseStatus accepts the server's status in any case and rejects values
// outside the known set.
func parseStatus(s string) (domain.DocumentStatus, error) {
	return domain.ParseDocumentStatus(strings.ToLower(strings.TrimSpace(s)))
}

func (d documentDTO) toDomain() (domain.Document, error) {
	status, err := parseStatus(d.Status)
	if err != nil {
		return domain.Document{}, fmt.Errorf("document %d: %w", d.ID, err)
	}
	doc := domain.Document{
		ID:        d.ID,
		Filename:  d.Filename,
		Status:    status,
		CreatedAt: d.CreatedAt.Time(),
		IndexPath: d.IndexPath,
	}
	if d.ErrorMessage != nil {
		doc.ErrorMessage = *d.ErrorMessage
	}
	return doc, nil
}

type statusDTO struct {
	ID           int64   `json:"id"`
	Status       string  `json:"status"`
	ErrorMessage *string `json:"error_message"`
}

func (s statusDTO) toDomain() (domain.DocumentStatusReport, error) {
	status, err := parseStatus(s.Status)
	if err != nil {
		return domain.DocumentStatusReport{}, fmt.Errorf("document %d: %w", s.ID, err)
	}
	report := domain.DocumentStatusReport{
		ID:     s.ID,
		Status: status,
	}
	if s.ErrorMessage != nil {
		report.ErrorMessage = *s.ErrorMessage
	}
	return report, nil
}

type uploadDTO struct {
	ID       int64  `json:"id"`
	Filename string `json:"filename"`
	Status   string `json:"status"`
	Message  string `json:"message"`
}

type chatDTO struct {
	ID         int64     `json:"id"`
	DocumentID *int64    `json:"document_id"`
	Title      *string   `json:"title"`
	CreatedAt  timestamp `json:"created_at"`
}

func (c chatDTO) toDomain() domain.Chat {
	return domain.Chat{
		ID:         c.ID,
		DocumentID: c.DocumentID,
		Title:      c.Title,
		CreatedAt:  c.CreatedAt.Time(),
	}
}

type sourceDTO struct {
	Title  string      `json:"title"`
	NodeID looseString `json:"node_id"`
	Pages  looseString `json:"pages"`
}

type messageDTO struct {
	ID        int64           `json:"id"`
	ChatID    int64           `json:"chat_id"`
	Role      string          `json:"role"`
	Content   string          `json:"content"`
	Sources   json.RawMessage `json:"sources"`
	CreatedAt timestamp       `json:"created_at"`
}

func (m messageDTO) toDomain() (domain.Message, error) {
	sources, err := decodeSources(m.Sources)
	if err != nil {
		return domain.Message{}, fmt.Errorf("message %d: %w", m.ID, err)
	}
	return domain.Message{
		ID:        m.ID,
		ChatID:    m.ChatID,
		Role:      domain.Role(m.Role),
		Content:   m.Content,
		Sources:   sources,
		CreatedAt: m.CreatedAt.Time(),
	}, nil
}

// decodeSources accepts a bare array, an object wrapping the array under
// "sources", or null.
func decodeSources(raw json.RawMessage) ([]domain.Source, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var items []sourceDTO
	switch raw[0] {
	case '[':
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decode sources: %w", err)
		}
	case '{':
		var wrapped struct {
			Sources []sourceDTO `json:"sources"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, fmt.Errorf("decode sources: %w", err)
		}
		items = wrapped.Sources
	default:
		return nil, fmt.Errorf("decode sources: unexpected %q", raw[:1])
	}

	if len(items) == 0 {
		return nil, nil
	}
	sources := make([]domain.Source, len(items))
	for i, it := range items {
		sources[i] = domain.Source{Title: it.Title, NodeID: string(it.NodeID), Pages: string(it.Pages)}
	}
	return sources, nil
}

type createChatRequest struct {
	DocumentID *int64  `json:"document_id,omitempty"`
	Title      *string `json:"title,omitempty"`
}

type queryRequest struct {
	Query      string `json:"query"`
	DocumentID *int64 `json:"document_id,omitempty"`
}

type healthDTO struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// errorBody is the FastAPI error envelope. detail is a string for
// HTTPException and a list of field errors for request validation.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

func parseDetail(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Detail) == 0 {
		return strings.TrimSpace(string(body))
	}

	var s string
	if err := json.Unmarshal(eb.Detail, &s); err == nil {
		return s
	}

	var fields []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(eb.Detail, &fields); err == nil {
		msgs := make([]string, 0, len(fields))
		for _, f := range fields {
			if len(f.Loc) > 0 {
				msgs = append(msgs, fmt.Sprintf("%v: %s", f.Loc[len(f.Loc)-1], f.Msg))
				continue
			}
			msgs = append(msgs, f.Msg)
		}
		return strings.Join(msgs, "; ")
	}

	return string(eb.Detail)
}

// pushFrame is a WebSocket message on the status channel.
type pushFrame struct {
	Type      string `json:"type"`
	Status    string `json:"status,omitempty"`
	Message   string `json:"message,omitempty"`
	IndexPath string `json:"index_path,omitempty"`
}

// Push frame types.
const (
	frameStatusUpdate = "status_update"
	framePing         = "ping"
	framePong         = "pong"
)

func pathID(id int64) string {
	return strconv.FormatInt(id, 10)
}
