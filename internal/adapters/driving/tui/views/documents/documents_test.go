package documents

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pagechat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/pagechat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/pagechat/internal/cache"
	"github.com/custodia-labs/pagechat/internal/core/domain"
	"github.com/custodia-labs/pagechat/internal/core/services"
)

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

type fixture struct {
	backend   *memory.Backend
	selection *services.SelectionService
	view      *View
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	backend := memory.NewBackend()
	store := cache.New(backend)
	channel := services.NewStatusChannel(backend, nil, time.Hour)
	lifecycle := services.NewLifecycleController(store, channel)
	t.Cleanup(func() {
		lifecycle.Close()
		store.Close()
	})

	docs := services.NewDocumentService(backend, store, lifecycle, nil)
	chats := services.NewChatService(backend, store, time.Second)
	selection := services.NewSelectionService(docs, chats, store, memory.NewSessionStore(), true)

	view := NewView(nil, docs, selection)
	view.SetDimensions(40, 20)
	return &fixture{backend: backend, selection: selection, view: view}
}

// run executes cmd and feeds its message back into the view.
func (f *fixture) run(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	require.NotNil(t, cmd)
	msg := cmd()
	f.view, cmd = f.view.Update(msg)
	if cmd != nil {
		if next := cmd(); next != nil {
			f.view, _ = f.view.Update(next)
		}
	}
	return msg
}

func (f *fixture) key(t *testing.T, k string) tea.Cmd {
	t.Helper()
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	var cmd tea.Cmd
	f.view, cmd = f.view.Update(msg)
	return cmd
}

func TestNewView_NilStyles(t *testing.T) {
	view := NewView(nil, nil, nil)

	require.NotNil(t, view)
	assert.NotNil(t, view.styles)
	assert.Equal(t, ModeList, view.Mode())
}

func TestView_InitLoadsFromBackend(t *testing.T) {
	f := newFixture(t)
	f.backend.AddDocument("a.pdf", domain.StatusReady)
	f.backend.AddDocument("b.pdf", domain.StatusIndexing)

	cmd := f.view.Init()
	assert.True(t, f.view.Loading())
	msg := f.run(t, cmd)
	assert.False(t, f.view.Loading())

	loaded, ok := msg.(messages.DocumentsLoaded)
	require.True(t, ok)
	require.NoError(t, loaded.Err)
	assert.Len(t, f.view.Documents(), 2)
	assert.Contains(t, f.view.View(), "Documents (2)")
	assert.Equal(t, 1, f.backend.Calls(memory.OpListDocuments))
}

func TestView_ReloadUsesCache(t *testing.T) {
	f := newFixture(t)
	f.backend.AddDocument("a.pdf", domain.StatusReady)
	f.run(t, f.view.Init())

	f.run(t, f.view.Reload())

	assert.Equal(t, 1, f.backend.Calls(memory.OpListDocuments))
}

func TestView_ServiceUnavailable(t *testing.T) {
	view := NewView(nil, nil, nil)

	msg := view.Refresh()()
	view.Update(msg)

	assert.ErrorIs(t, view.Err(), errServiceUnavailable)
	assert.Contains(t, view.View(), "document service not available")
}

func TestView_SelectDocument(t *testing.T) {
	f := newFixture(t)
	doc := f.backend.AddDocument("a.pdf", domain.StatusReady)
	f.run(t, f.view.Init())

	msg := f.run(t, f.key(t, "enter"))

	selected, ok := msg.(messages.DocumentSelected)
	require.True(t, ok)
	require.NoError(t, selected.Err)
	assert.Equal(t, doc.ID, selected.DocumentID)
	assert.NotZero(t, selected.ChatID)
	assert.Equal(t, doc.ID, f.view.Active())
	assert.Equal(t, doc.ID, *f.selection.Current().SelectedDocumentID)
}

func TestView_NavigateThenSelect(t *testing.T) {
	f := newFixture(t)
	f.backend.AddDocument("old.pdf", domain.StatusReady)
	newest := f.backend.AddDocument("new.pdf", domain.StatusReady)
	f.run(t, f.view.Init())

	first := f.view.Cursor()
	require.NotNil(t, first)
	f.key(t, "j")
	second := f.view.Cursor()
	require.NotNil(t, second)
	assert.NotEqual(t, first.ID, second.ID)

	f.view.SetActive(newest.ID)
	assert.Equal(t, newest.ID, f.view.Cursor().ID)
}

func TestView_UploadFlow(t *testing.T) {
	f := newFixture(t)
	f.run(t, f.view.Init())

	path := filepath.Join(t.TempDir(), "paper.pdf")
	require.NoError(t, os.WriteFile(path, pdfBytes, 0o600))

	f.key(t, "u")
	assert.Equal(t, ModeUpload, f.view.Mode())
	assert.True(t, f.view.Capturing())
	assert.Contains(t, f.view.View(), "PDF path:")

	f.view.prompt.SetValue(path)
	cmd := f.key(t, "enter")
	assert.True(t, f.view.Uploading())
	msg := f.run(t, cmd)

	finished, ok := msg.(messages.UploadFinished)
	require.True(t, ok)
	require.NoError(t, finished.Err)
	assert.False(t, f.view.Uploading())
	assert.Equal(t, ModeList, f.view.Mode())
	require.Len(t, f.view.Documents(), 1)
	assert.Equal(t, "paper.pdf", f.view.Cursor().Filename)
	assert.Equal(t, 1, f.backend.Calls(memory.OpUploadDocument))
}

func TestView_UploadRejectsNonPDF(t *testing.T) {
	f := newFixture(t)
	f.run(t, f.view.Init())

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	f.key(t, "u")
	f.view.prompt.SetValue(path)
	f.run(t, f.key(t, "enter"))

	assert.ErrorIs(t, f.view.Err(), domain.ErrNotPDF)
	assert.Contains(t, f.view.View(), "notes.txt")
	assert.Zero(t, f.backend.Calls(memory.OpUploadDocument))
}

func TestView_UploadCancelAndEmpty(t *testing.T) {
	f := newFixture(t)

	f.key(t, "u")
	assert.Nil(t, f.key(t, "esc"))
	assert.Equal(t, ModeList, f.view.Mode())

	f.key(t, "u")
	assert.Nil(t, f.key(t, "enter"), "empty path uploads nothing")
	assert.Equal(t, ModeList, f.view.Mode())
}

func TestView_DeleteConfirmed(t *testing.T) {
	f := newFixture(t)
	doc := f.backend.AddDocument("a.pdf", domain.StatusReady)
	f.run(t, f.view.Init())
	f.run(t, f.key(t, "enter"))

	assert.Nil(t, f.key(t, "d"))
	assert.Equal(t, ModeConfirmDelete, f.view.Mode())
	assert.Contains(t, f.view.View(), "Delete a.pdf?")

	msg := f.run(t, f.key(t, "y"))

	deleted, ok := msg.(messages.DocumentDeleted)
	require.True(t, ok)
	require.NoError(t, deleted.Err)
	assert.Equal(t, doc.ID, deleted.DocumentID)
	assert.Zero(t, f.view.Active())
	assert.Empty(t, f.view.Documents())
	assert.True(t, f.selection.Current().IsEmpty())
}

func TestView_DeleteDenied(t *testing.T) {
	f := newFixture(t)
	f.backend.AddDocument("a.pdf", domain.StatusReady)
	f.run(t, f.view.Init())

	f.key(t, "d")
	assert.Nil(t, f.key(t, "n"))

	assert.Equal(t, ModeList, f.view.Mode())
	assert.Zero(t, f.backend.Calls(memory.OpDeleteDocument))
	assert.Len(t, f.view.Documents(), 1)
}

func TestView_DeleteOnEmptyListDoesNothing(t *testing.T) {
	f := newFixture(t)

	assert.Nil(t, f.key(t, "d"))
	assert.Equal(t, ModeList, f.view.Mode())
}

func TestView_ShowsErrorMessageOfFailedDocument(t *testing.T) {
	f := newFixture(t)
	doc := f.backend.AddDocument("bad.pdf", domain.StatusIndexing)
	f.backend.SetStatus(doc.ID, domain.StatusError, "Failed to parse PDF")
	f.run(t, f.view.Init())

	assert.Contains(t, f.view.View(), "Failed to parse PDF")
}

func TestView_BlurClosesUploadPrompt(t *testing.T) {
	f := newFixture(t)
	f.key(t, "u")

	f.view.SetFocused(false)

	assert.Equal(t, ModeList, f.view.Mode())
	assert.False(t, f.view.prompt.Focused())
}

func TestView_WithContext(t *testing.T) {
	view := NewView(nil, nil, nil)
	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, 1)

	assert.Same(t, view, view.WithContext(ctx))
	assert.Equal(t, ctx, view.ctx)
}

func TestExpandHome(t *testing.T) {
	orig := userHomeDir
	userHomeDir = func() (string, error) { return "/home/test", nil }
	defer func() { userHomeDir = orig }()

	assert.Equal(t, "/home/test/papers/a.pdf", expandHome("~/papers/a.pdf"))
	assert.Equal(t, "/tmp/a.pdf", expandHome("/tmp/a.pdf"))
	assert.Equal(t, "~user/a.pdf", expandHome("~user/a.pdf"))
}
