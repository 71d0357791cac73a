package pageindex

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// fakeServer mimics the backend's REST routes and status WebSocket.
type fakeServer struct {
	t   *testing.T
	srv *httptest.Server

	mu        sync.Mutex
	nextID    int64
	documents map[int64]map[string]any
	chats     map[int64]map[string]any
	messages  map[int64][]map[string]any
	sockets   map[int64][]*websocket.Conn
	requests  []*http.Request
	uploads   []string
	pings     int

	upgrader websocket.Upgrader

	// writeMu serialises socket writes from tests and handlers.
	writeMu sync.Mutex
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()

	f := &fakeServer{
		t:         t,
		documents: make(map[int64]map[string]any),
		chats:     make(map[int64]map[string]any),
		messages:  make(map[int64][]map[string]any),
		sockets:   make(map[int64][]*websocket.Conn),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health/", f.health)
	mux.HandleFunc("GET /api/documents/", f.listDocuments)
	mux.HandleFunc("POST /api/documents/upload", f.upload)
	mux.HandleFunc("GET /api/documents/{id}", f.getDocument)
	mux.HandleFunc("GET /api/documents/{id}/status", f.getStatus)
	mux.HandleFunc("DELETE /api/documents/{id}", f.deleteDocument)
	mux.HandleFunc("POST /api/chats/", f.createChat)
	mux.HandleFunc("GET /api/chats/", f.listChats)
	mux.HandleFunc("GET /api/chats/{id}", f.getChat)
	mux.HandleFunc("GET /api/chats/{id}/messages", f.listMessages)
	mux.HandleFunc("POST /api/chats/{id}/query", f.query)
	mux.HandleFunc("DELETE /api/chats/{id}", f.deleteChat)
	mux.HandleFunc("/ws/document/{id}", f.websocket)

	f.srv = httptest.NewServer(f.record(mux))
	t.Cleanup(func() {
		f.mu.Lock()
		for _, conns := range f.sockets {
			for _, c := range conns {
				_ = c.Close()
			}
		}
		f.mu.Unlock()
		f.srv.Close()
	})
	return f
}

func (f *fakeServer) URL() string {
	return f.srv.URL
}

func (f *fakeServer) WSURL() string {
	return "ws" + strings.TrimPrefix(f.srv.URL, "http")
}

func (f *fakeServer) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.Clone(r.Context()))
		f.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// Requests returns the paths requested so far, excluding WebSocket upgrades.
func (f *fakeServer) Requests() []*http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*http.Request, 0, len(f.requests))
	for _, r := range f.requests {
		if !strings.HasPrefix(r.URL.Path, "/ws/") {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeServer) count(method, prefix string) int {
	n := 0
	for _, r := range f.Requests() {
		if r.Method == method && strings.HasPrefix(r.URL.Path, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeServer) addDocument(filename, status string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.documents[f.nextID] = map[string]any{
		"id":         f.nextID,
		"filename":   filename,
		"status":     status,
		"created_at": time.Now().UTC().Format("2006-01-02T15:04:05.000000"),
		"index_path": nil,
	}
	return f.nextID
}

// setStatus changes a document's status and broadcasts it to sockets.
func (f *fakeServer) setStatus(id int64, status, message string) {
	f.mu.Lock()
	doc, ok := f.documents[id]
	if ok {
		doc["status"] = status
		if status == "error" {
			doc["error_message"] = message
		}
	}
	conns := append([]*websocket.Conn(nil), f.sockets[id]...)
	f.mu.Unlock()

	frame := map[string]any{"type": "status_update", "status": status, "message": message}
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	for _, c := range conns {
		_ = c.WriteJSON(frame)
	}
}

func (f *fakeServer) socketCount(id int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sockets[id])
}

func (f *fakeServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeServer) notFound(w http.ResponseWriter, what string) {
	f.writeJSON(w, http.StatusNotFound, map[string]string{"detail": what + " not found"})
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func pathInt(r *http.Request) int64 {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id
}

func (f *fakeServer) health(w http.ResponseWriter, _ *http.Request) {
	f.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "PageIndex Chat API"})
}

func (f *fakeServer) listDocuments(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	docs := make([]map[string]any, 0, len(f.documents))
	for _, d := range f.documents {
		docs = append(docs, copyMap(d))
	}
	f.mu.Unlock()
	sort.Slice(docs, func(i, j int) bool { return docs[i]["id"].(int64) > docs[j]["id"].(int64) })
	f.writeJSON(w, http.StatusOK, docs)
}

func (f *fakeServer) upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		f.writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]any{{"loc": []string{"body", "file"}, "msg": "field required"}},
		})
		return
	}
	defer file.Close()
	data, _ := io.ReadAll(file)

	if !strings.HasSuffix(header.Filename, ".pdf") {
		f.writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Only PDF files are allowed"})
		return
	}

	id := f.addDocument(header.Filename, "uploading")
	f.mu.Lock()
	f.uploads = append(f.uploads, string(data))
	f.mu.Unlock()

	f.writeJSON(w, http.StatusOK, map[string]any{
		"id":       id,
		"filename": header.Filename,
		"status":   "uploading",
		"message":  "Document uploaded, indexing started",
	})
}

func (f *fakeServer) getDocument(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	doc, ok := f.documents[pathInt(r)]
	doc = copyMap(doc)
	f.mu.Unlock()
	if !ok {
		f.notFound(w, "Document")
		return
	}
	f.writeJSON(w, http.StatusOK, doc)
}

func (f *fakeServer) getStatus(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	doc, ok := f.documents[pathInt(r)]
	var body map[string]any
	if ok {
		body = map[string]any{"id": doc["id"], "status": doc["status"], "error_message": doc["error_message"]}
	}
	f.mu.Unlock()
	if !ok {
		f.notFound(w, "Document")
		return
	}
	f.writeJSON(w, http.StatusOK, body)
}

func (f *fakeServer) deleteDocument(w http.ResponseWriter, r *http.Request) {
	id := pathInt(r)
	f.mu.Lock()
	_, ok := f.documents[id]
	if ok {
		delete(f.documents, id)
		for chatID, c := range f.chats {
			if docID, _ := c["document_id"].(int64); docID == id {
				delete(f.chats, chatID)
				delete(f.messages, chatID)
			}
		}
	}
	f.mu.Unlock()
	if !ok {
		f.notFound(w, "Document")
		return
	}
	f.writeJSON(w, http.StatusOK, map[string]string{"message": "Document deleted successfully"})
}

func (f *fakeServer) createChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DocumentID *int64  `json:"document_id"`
		Title      *string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		f.writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}

	f.mu.Lock()
	f.nextID++
	chat := map[string]any{
		"id":          f.nextID,
		"document_id": nil,
		"title":       nil,
		"created_at":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	if req.DocumentID != nil {
		chat["document_id"] = *req.DocumentID
	}
	if req.Title != nil {
		chat["title"] = *req.Title
	}
	f.chats[f.nextID] = chat
	f.mu.Unlock()

	f.writeJSON(w, http.StatusOK, chat)
}

func (f *fakeServer) listChats(w http.ResponseWriter, r *http.Request) {
	filter, _ := strconv.ParseInt(r.URL.Query().Get("document_id"), 10, 64)

	f.mu.Lock()
	chats := make([]map[string]any, 0)
	for _, c := range f.chats {
		if docID, _ := c["document_id"].(int64); filter == 0 || docID == filter {
			chats = append(chats, c)
		}
	}
	f.mu.Unlock()
	sort.Slice(chats, func(i, j int) bool { return chats[i]["id"].(int64) > chats[j]["id"].(int64) })
	f.writeJSON(w, http.StatusOK, chats)
}

func (f *fakeServer) getChat(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	chat, ok := f.chats[pathInt(r)]
	f.mu.Unlock()
	if !ok {
		f.notFound(w, "Chat")
		return
	}
	f.writeJSON(w, http.StatusOK, chat)
}

func (f *fakeServer) listMessages(w http.ResponseWriter, r *http.Request) {
	id := pathInt(r)
	f.mu.Lock()
	_, ok := f.chats[id]
	messages := append([]map[string]any{}, f.messages[id]...)
	f.mu.Unlock()
	if !ok {
		f.notFound(w, "Chat")
		return
	}
	f.writeJSON(w, http.StatusOK, messages)
}

func (f *fakeServer) query(w http.ResponseWriter, r *http.Request) {
	id := pathInt(r)
	var req struct {
		Query      string `json:"query"`
		DocumentID *int64 `json:"document_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		f.writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}

	f.mu.Lock()
	if _, ok := f.chats[id]; !ok {
		f.mu.Unlock()
		f.notFound(w, "Chat")
		return
	}
	now := time.Now().UTC().Format("2006-01-02 15:04:05.000000")
	f.nextID++
	user := map[string]any{
		"id": f.nextID, "chat_id": id, "role": "user", "content": req.Query, "sources": nil, "created_at": now,
	}
	f.nextID++
	assistant := map[string]any{
		"id":      f.nextID,
		"chat_id": id,
		"role":    "assistant",
		"content": "**Answer** to: " + req.Query,
		"sources": map[string]any{
			"sources": []map[string]any{{"title": "Introduction", "node_id": "0001", "pages": "1-2"}},
		},
		"created_at": now,
	}
	f.messages[id] = append(f.messages[id], user, assistant)
	f.mu.Unlock()

	f.writeJSON(w, http.StatusOK, assistant)
}

func (f *fakeServer) deleteChat(w http.ResponseWriter, r *http.Request) {
	id := pathInt(r)
	f.mu.Lock()
	_, ok := f.chats[id]
	delete(f.chats, id)
	delete(f.messages, id)
	f.mu.Unlock()
	if !ok {
		f.notFound(w, "Chat")
		return
	}
	f.writeJSON(w, http.StatusOK, map[string]string{"message": "Chat deleted successfully"})
}

func (f *fakeServer) websocket(w http.ResponseWriter, r *http.Request) {
	id := pathInt(r)
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	f.mu.Lock()
	f.sockets[id] = append(f.sockets[id], conn)
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		conns := f.sockets[id]
		for i, c := range conns {
			if c == conn {
				f.sockets[id] = append(conns[:i], conns[i+1:]...)
				break
			}
		}
		f.mu.Unlock()
		_ = conn.Close()
	}()

	for {
		var frame map[string]any
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		if frame["type"] == "ping" {
			f.mu.Lock()
			f.pings++
			f.mu.Unlock()
			f.writeMu.Lock()
			_ = conn.WriteJSON(map[string]string{"type": "pong"})
			f.writeMu.Unlock()
		}
	}
}
