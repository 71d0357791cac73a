package pageindex

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pagechat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/pagechat/internal/cache"
	"github.com/custodia-labs/pagechat/internal/core/domain"
	"github.com/custodia-labs/pagechat/internal/core/services"
)

// TestEndToEnd drives the full client stack against an HTTP backend with
// WebSocket push: upload, index, chat, ask, delete.
func TestEndToEnd(t *testing.T) {
	f := newFakeServer(t)
	ctx := context.Background()

	client := NewClient(f.URL(), 5*time.Second, WithRequestsPerSecond(0))
	push := NewPush(f.WSURL(), 0)
	store := cache.New(client)
	channel := services.NewStatusChannel(client, push, time.Hour)
	lifecycle := services.NewLifecycleController(store, channel)
	documents := services.NewDocumentService(client, store, lifecycle, nil)
	chats := services.NewChatService(client, store, 5*time.Second)
	selection := services.NewSelectionService(documents, chats, store, memory.NewSessionStore(), true)
	t.Cleanup(func() {
		lifecycle.Close()
		store.Close()
	})

	// Rejected locally.
	_, err := documents.Upload(ctx, "notes.txt", []byte("plain text"))
	require.ErrorIs(t, err, domain.ErrNotPDF)
	assert.Empty(t, f.Requests())

	doc, err := documents.Upload(ctx, "paper.pdf", testPDF)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUploading, doc.Status)

	events, err := documents.Watch(ctx, doc.ID)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return f.socketCount(doc.ID) == 1 }, 2*time.Second, 5*time.Millisecond)

	f.setStatus(doc.ID, "indexing", "")
	f.setStatus(doc.ID, "ready", "Document indexed successfully")

	var seen []domain.DocumentStatus
	for ev := range events {
		seen = append(seen, ev.Status)
	}
	require.NotEmpty(t, seen)
	assert.Equal(t, domain.StatusReady, seen[len(seen)-1])

	cached, ok := store.Document(doc.ID)
	require.True(t, ok)
	assert.Equal(t, domain.StatusReady, cached.Status)
	require.Eventually(t, func() bool { return f.socketCount(doc.ID) == 0 }, 2*time.Second, 5*time.Millisecond)

	chatID, err := selection.SelectDocument(ctx, doc.ID)
	require.NoError(t, err)

	answer, err := selection.Ask(ctx, "  What is X?  ")
	require.NoError(t, err)
	assert.Equal(t, "**Answer** to: What is X?", answer.Content)
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, "Introduction (p. 1-2)", answer.Sources[0].Label())

	messages, err := chats.Messages(ctx, chatID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "What is X?", messages[0].Content)

	require.NoError(t, selection.DeleteDocument(ctx, doc.ID))
	assert.Nil(t, selection.Current().SelectedDocumentID)
	assert.False(t, lifecycle.IsTracking(doc.ID))

	docs, err := documents.Refresh(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Equal(t, 1, f.count(http.MethodDelete, "/api/documents/"))
}

// TestEndToEnd_QueryOnDeletedChat leaves the message cache untouched.
func TestEndToEnd_QueryOnDeletedChat(t *testing.T) {
	f := newFakeServer(t)
	ctx := context.Background()

	client := NewClient(f.URL(), 5*time.Second, WithRequestsPerSecond(0))
	store := cache.New(client)
	chats := services.NewChatService(client, store, 5*time.Second)
	t.Cleanup(store.Close)

	docID := f.addDocument("a.pdf", "ready")
	chatID, err := chats.EnsureChat(ctx, docID)
	require.NoError(t, err)

	before, err := chats.Messages(ctx, chatID)
	require.NoError(t, err)

	require.NoError(t, client.DeleteChat(ctx, chatID))

	_, err = chats.SendQuery(ctx, chatID, &docID, "anyone there?")
	require.ErrorIs(t, err, domain.ErrNotFound)

	after, err := chats.Messages(ctx, chatID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
