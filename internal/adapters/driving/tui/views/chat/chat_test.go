package chat

import (
	"context"
	"errors"
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

type fixture struct {
	backend   *memory.Backend
	chats     *services.ChatService
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

	view := NewView(nil, chats, selection, "notty")
	view.SetDimensions(80, 30)
	view.SetFocused(true)
	return &fixture{backend: backend, chats: chats, selection: selection, view: view}
}

// open selects a document the way the documents pane does and shows it.
func (f *fixture) open(t *testing.T, doc domain.Document) int64 {
	t.Helper()
	chatID, err := f.selection.SelectDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	f.drain(f.view.SetDocument(doc, chatID))
	return chatID
}

// drain runs cmd and every follow-up command until none is left.
func (f *fixture) drain(cmd tea.Cmd) tea.Msg {
	var last tea.Msg
	for cmd != nil {
		msg := cmd()
		if msg == nil {
			break
		}
		last = msg
		f.view, cmd = f.view.Update(msg)
	}
	return last
}

func (f *fixture) typeText(text string) {
	for _, r := range text {
		f.view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func (f *fixture) typeKey(r rune) tea.Cmd {
	var cmd tea.Cmd
	f.view, cmd = f.view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	return cmd
}

// moveTo walks the picker cursor onto the chat with the given ID.
func (f *fixture) moveTo(t *testing.T, chatID int64) {
	t.Helper()
	target := -1
	for i, c := range f.view.picker {
		if c.ID == chatID {
			target = i
		}
	}
	require.NotEqual(t, -1, target, "chat %d not in picker", chatID)
	for f.view.pickerCursor < target {
		f.typeKey('j')
	}
	for f.view.pickerCursor > target {
		f.typeKey('k')
	}
}

func (f *fixture) press(k tea.KeyType) tea.Cmd {
	var cmd tea.Cmd
	f.view, cmd = f.view.Update(tea.KeyMsg{Type: k})
	return cmd
}

func TestNewView_NilStyles(t *testing.T) {
	view := NewView(nil, nil, nil, "notty")

	require.NotNil(t, view)
	assert.NotNil(t, view.styles)
	assert.Nil(t, view.Init())
	assert.Zero(t, view.DocumentID())
	assert.Contains(t, view.View(), "Select a document", "placeholder shows before any resize")

	view.SetDimensions(50, 20)
	assert.Contains(t, view.View(), "Select a document")
}

func TestView_EmptyChat(t *testing.T) {
	f := newFixture(t)
	doc := f.backend.AddDocument("a.pdf", domain.StatusReady)

	chatID := f.open(t, doc)

	assert.Equal(t, chatID, f.view.ChatID())
	assert.Equal(t, doc.ID, f.view.DocumentID())
	assert.Contains(t, f.view.View(), "a.pdf")
	assert.Contains(t, f.view.transcript(), "No messages yet")
}

func TestView_AskShowsAnswerWithSources(t *testing.T) {
	f := newFixture(t)
	doc := f.backend.AddDocument("a.pdf", domain.StatusReady)
	f.open(t, doc)

	f.typeText("  What is X?  ")
	cmd := f.press(tea.KeyEnter)
	require.NotNil(t, cmd)

	assert.True(t, f.view.Thinking())
	assert.True(t, f.view.input.IsBlank(), "input clears on send")
	assert.Contains(t, f.view.transcript(), "What is X?")
	assert.Contains(t, f.view.transcript(), "Thinking...")

	f.drain(cmd)

	assert.False(t, f.view.Thinking())
	require.Len(t, f.view.Messages(), 2)
	transcript := f.view.transcript()
	assert.Contains(t, transcript, "Answer to: What is X?")
	assert.Contains(t, transcript, "Introduction (p. 1-2)")
	assert.NotContains(t, transcript, "Thinking...")
}

func TestView_SendIgnoredWhileThinking(t *testing.T) {
	f := newFixture(t)
	f.open(t, f.backend.AddDocument("a.pdf", domain.StatusReady))

	f.typeText("first")
	first := f.press(tea.KeyEnter)
	require.NotNil(t, first)

	f.typeText("second")
	assert.Nil(t, f.press(tea.KeyEnter))
	assert.Equal(t, "second", f.view.input.Value())

	f.drain(first)
	assert.Equal(t, 1, f.backend.Calls(memory.OpSubmitQuery))
}

func TestView_BlankInputIgnored(t *testing.T) {
	f := newFixture(t)
	f.open(t, f.backend.AddDocument("a.pdf", domain.StatusReady))

	f.typeText("   ")

	assert.Nil(t, f.press(tea.KeyEnter))
	assert.False(t, f.view.Thinking())
}

func TestView_NotReadyDocumentRejectsQuestions(t *testing.T) {
	f := newFixture(t)
	f.open(t, f.backend.AddDocument("a.pdf", domain.StatusIndexing))

	assert.Contains(t, f.view.transcript(), "still being indexed")

	f.typeText("What is X?")
	assert.Nil(t, f.press(tea.KeyEnter))

	assert.ErrorIs(t, f.view.Err(), domain.ErrDocumentNotReady)
	assert.Zero(t, f.backend.Calls(memory.OpSubmitQuery))
	assert.Equal(t, "What is X?", f.view.input.Value(), "draft is kept")
}

func TestView_FailedDocumentShowsReason(t *testing.T) {
	f := newFixture(t)
	doc := f.backend.AddDocument("a.pdf", domain.StatusIndexing)
	f.open(t, doc)

	doc.Status = domain.StatusError
	doc.ErrorMessage = "Failed to parse PDF"
	f.view.UpdateDocument(doc)

	assert.Contains(t, f.view.transcript(), "Failed to parse PDF")
}

func TestView_QueryFailureRestoresDraft(t *testing.T) {
	f := newFixture(t)
	f.open(t, f.backend.AddDocument("a.pdf", domain.StatusReady))
	f.backend.FailOn(memory.OpSubmitQuery, errors.New("boom"))

	f.typeText("What is X?")
	f.drain(f.press(tea.KeyEnter))

	assert.Error(t, f.view.Err())
	assert.False(t, f.view.Thinking())
	assert.Equal(t, "What is X?", f.view.input.Value())
	assert.Empty(t, f.view.Messages())
}

func TestView_StaleAnswerIgnoredAfterSwitch(t *testing.T) {
	f := newFixture(t)
	first := f.backend.AddDocument("a.pdf", domain.StatusReady)
	second := f.backend.AddDocument("b.pdf", domain.StatusReady)
	f.open(t, first)

	f.typeText("What is X?")
	cmd := f.press(tea.KeyEnter)
	require.NotNil(t, cmd)
	answer := cmd()

	secondChat := f.open(t, second)
	f.view.Update(answer)

	assert.Equal(t, second.ID, f.view.DocumentID())
	assert.Equal(t, secondChat, f.view.ChatID())
	assert.Empty(t, f.view.Messages())
}

func TestView_NewChat(t *testing.T) {
	f := newFixture(t)
	doc := f.backend.AddDocument("a.pdf", domain.StatusReady)
	original := f.open(t, doc)

	msg := f.drain(f.press(tea.KeyCtrlN))

	require.IsType(t, messages.MessagesLoaded{}, msg)
	assert.NotEqual(t, original, f.view.ChatID())
	assert.Equal(t, f.view.ChatID(), *f.selection.Current().CurrentChatID)
	assert.Equal(t, 2, f.backend.Calls(memory.OpCreateChat))
}

func TestView_PickerSelectsAndDeletesChats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	doc := f.backend.AddDocument("a.pdf", domain.StatusReady)
	current := f.open(t, doc)

	docID := doc.ID
	other, err := f.chats.Create(ctx, &docID, "Older questions")
	require.NoError(t, err)

	f.drain(f.press(tea.KeyCtrlO))
	require.Equal(t, ModePicker, f.view.Mode())
	view := f.view.View()
	assert.Contains(t, view, "Older questions")
	assert.Contains(t, view, "* ")

	// Move to the other chat and open it.
	f.moveTo(t, other.ID)
	f.drain(f.press(tea.KeyEnter))
	assert.Equal(t, ModeTranscript, f.view.Mode())
	assert.Equal(t, other.ID, f.view.ChatID())

	// Reopen and delete the original chat.
	f.drain(f.press(tea.KeyCtrlO))
	f.moveTo(t, current)
	f.drain(f.typeKey('d'))

	assert.Equal(t, ModePicker, f.view.Mode())
	require.Len(t, f.view.picker, 1)
	assert.Equal(t, other.ID, f.view.picker[0].ID)
	assert.Equal(t, other.ID, f.view.ChatID())

	f.press(tea.KeyEsc)
	assert.Equal(t, ModeTranscript, f.view.Mode())
}

func TestView_ChatKeysNeedDocument(t *testing.T) {
	f := newFixture(t)

	assert.Nil(t, f.press(tea.KeyCtrlN))
	assert.Nil(t, f.press(tea.KeyCtrlO))
}

func TestView_SetDocumentSameChatKeepsTranscript(t *testing.T) {
	f := newFixture(t)
	doc := f.backend.AddDocument("a.pdf", domain.StatusReady)
	chatID := f.open(t, doc)
	f.typeText("Q")
	f.drain(f.press(tea.KeyEnter))
	require.Len(t, f.view.Messages(), 2)

	assert.Nil(t, f.view.SetDocument(doc, chatID))
	assert.Len(t, f.view.Messages(), 2)
}

func TestView_Clear(t *testing.T) {
	f := newFixture(t)
	f.open(t, f.backend.AddDocument("a.pdf", domain.StatusReady))

	f.view.Clear()

	assert.Zero(t, f.view.DocumentID())
	assert.Zero(t, f.view.ChatID())
	assert.Contains(t, f.view.transcript(), "Select a document")
}

func TestView_MessagesForOtherChatIgnored(t *testing.T) {
	f := newFixture(t)
	f.open(t, f.backend.AddDocument("a.pdf", domain.StatusReady))

	f.view.Update(messages.MessagesLoaded{
		ChatID:   f.view.ChatID() + 100,
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "elsewhere"}},
	})

	assert.Empty(t, f.view.Messages())
}

func TestView_BlurLeavesPicker(t *testing.T) {
	f := newFixture(t)
	f.open(t, f.backend.AddDocument("a.pdf", domain.StatusReady))
	f.drain(f.press(tea.KeyCtrlO))
	require.Equal(t, ModePicker, f.view.Mode())

	f.view.SetFocused(false)

	assert.Equal(t, ModeTranscript, f.view.Mode())
	assert.False(t, f.view.Capturing())
}

func TestView_SetDimensionsRebuildsRenderer(t *testing.T) {
	f := newFixture(t)

	f.view.SetDimensions(50, 20)

	assert.Equal(t, 50, f.view.renderer.Width())
	assert.Equal(t, 50, f.view.viewport.Width)
	assert.GreaterOrEqual(t, f.view.viewport.Height, 3)
}
