// Package chat provides the chat pane of the TUI: the transcript of the
// current chat, the question input and a picker over the document's chats.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/pagechat/internal/adapters/driving/markdown"
	"github.com/custodia-labs/pagechat/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/pagechat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/pagechat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/pagechat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/pagechat/internal/core/domain"
	"github.com/custodia-labs/pagechat/internal/core/ports/driving"
)

// Mode is what the pane shows.
type Mode int

const (
	ModeTranscript Mode = iota
	ModePicker
)

var errServiceUnavailable = errors.New("chat service not available")

// View is the chat pane.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	chats     driving.ChatService
	selection driving.SelectionService
	ctx       context.Context

	markdownStyle string
	renderer      *markdown.Renderer

	viewport viewport.Model
	input    *input.QuestionInput
	mode     Mode

	document *domain.Document
	chatID   int64
	messages []domain.Message

	// pending is the question shown while its answer is outstanding.
	pending  string
	thinking bool

	picker       []domain.Chat
	pickerCursor int

	focused bool
	err     error
	width   int
	height  int
}

// NewView creates a chat pane. markdownStyle is a glamour style name.
func NewView(
	s *styles.Styles,
	chats driving.ChatService,
	selection driving.SelectionService,
	markdownStyle string,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	v := &View{
		styles:        s,
		keymap:        keymap.DefaultKeyMap(),
		chats:         chats,
		selection:     selection,
		ctx:           context.Background(),
		markdownStyle: markdownStyle,
		viewport:      viewport.New(60, 10),
		input:         input.NewQuestionInput(s),
	}
	v.renderer = markdown.NewRenderer(v.viewport.Width, markdownStyle)
	v.refresh()
	return v
}

// WithContext sets the context used by service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// SetDocument switches the pane to a document and its current chat.
// chatID 0 leaves the pane without a chat until one is created.
func (v *View) SetDocument(doc domain.Document, chatID int64) tea.Cmd {
	sameChat := v.document != nil && v.document.ID == doc.ID && v.chatID == chatID
	v.document = &doc
	if sameChat {
		v.refresh()
		return nil
	}

	v.chatID = chatID
	v.messages = nil
	v.pending = ""
	v.thinking = false
	v.mode = ModeTranscript
	v.err = nil
	v.refresh()

	if chatID == 0 {
		return nil
	}
	return v.LoadMessages()
}

// UpdateDocument refreshes the document shown in the header, e.g. after a
// status change. Other documents are ignored.
func (v *View) UpdateDocument(doc domain.Document) {
	if v.document != nil && v.document.ID == doc.ID {
		v.document = &doc
		v.refresh()
	}
}

// Clear detaches the pane from any document.
func (v *View) Clear() {
	v.document = nil
	v.chatID = 0
	v.messages = nil
	v.pending = ""
	v.thinking = false
	v.picker = nil
	v.mode = ModeTranscript
	v.refresh()
}

// LoadMessages reads the current chat's messages from the cache.
func (v *View) LoadMessages() tea.Cmd {
	chatID := v.chatID
	return func() tea.Msg {
		if v.chats == nil {
			return messages.MessagesLoaded{ChatID: chatID, Err: errServiceUnavailable}
		}
		msgs, err := v.chats.Messages(v.ctx, chatID)
		return messages.MessagesLoaded{ChatID: chatID, Messages: msgs, Err: err}
	}
}

// Update handles messages for the chat pane.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if v.mode == ModePicker {
			return v.handlePickerKey(msg)
		}
		return v.handleTranscriptKey(msg)

	case messages.MessagesLoaded:
		if msg.ChatID != v.chatID {
			return v, nil
		}
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.messages = msg.Messages
		v.refresh()
		return v, nil

	case messages.AnswerReceived:
		// The user moved to another document while waiting.
		if v.document == nil || msg.DocumentID != v.document.ID {
			return v, nil
		}
		v.thinking = false
		question := v.pending
		v.pending = ""
		if msg.Err != nil {
			v.err = msg.Err
			if v.input.IsBlank() {
				v.input.SetValue(question)
			}
			v.refresh()
			return v, nil
		}
		v.err = nil
		if msg.Message != nil && msg.Message.ChatID != 0 {
			v.chatID = msg.Message.ChatID
		}
		v.refresh()
		return v, v.LoadMessages()

	case messages.ChatsLoaded:
		if v.document == nil || msg.DocumentID != v.document.ID {
			return v, nil
		}
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.picker = msg.Chats
		v.pickerCursor = 0
		for i, c := range v.picker {
			if c.ID == v.chatID {
				v.pickerCursor = i
			}
		}
		v.mode = ModePicker
		return v, nil

	case messages.ChatSelected:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.mode = ModeTranscript
		v.chatID = msg.ChatID
		v.messages = nil
		v.refresh()
		return v, v.LoadMessages()

	case messages.ChatDeleted:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		if msg.ChatID == v.chatID {
			v.chatID = 0
			v.messages = nil
			v.refresh()
		}
		if v.mode == ModePicker {
			return v, v.openPicker()
		}
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

func (v *View) handleTranscriptKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case keymap.Matches(msg.String(), v.keymap.Send):
		return v, v.submit()

	case keymap.Matches(msg.String(), v.keymap.NewChat):
		if v.document == nil {
			return v, nil
		}
		return v, v.newChat()

	case keymap.Matches(msg.String(), v.keymap.Chats):
		if v.document == nil {
			return v, nil
		}
		return v, v.openPicker()
	}

	switch msg.Type { //nolint:exhaustive // only scrolling keys go to the viewport
	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		v.viewport, cmd = v.viewport.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handlePickerKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case keymap.Matches(msg.String(), v.keymap.Back):
		v.mode = ModeTranscript
	case keymap.Matches(msg.String(), v.keymap.Up):
		if v.pickerCursor > 0 {
			v.pickerCursor--
		}
	case keymap.Matches(msg.String(), v.keymap.Down):
		if v.pickerCursor < len(v.picker)-1 {
			v.pickerCursor++
		}
	case keymap.Matches(msg.String(), v.keymap.Select):
		if len(v.picker) == 0 {
			return v, nil
		}
		return v, v.selectChat(v.picker[v.pickerCursor].ID)
	case keymap.Matches(msg.String(), v.keymap.Delete):
		if len(v.picker) == 0 {
			return v, nil
		}
		return v, v.deleteChat(v.picker[v.pickerCursor].ID)
	case keymap.Matches(msg.String(), v.keymap.NewChat):
		return v, v.newChat()
	}
	return v, nil
}

// submit sends the input as a question. Blank input, a missing document
// and an outstanding question are ignored; the backend is never asked
// twice at once from this pane.
func (v *View) submit() tea.Cmd {
	if v.thinking || v.input.IsBlank() {
		return nil
	}
	if v.document == nil {
		v.err = domain.ErrNoDocumentSelected
		return nil
	}
	if !v.document.IsQueryable() {
		v.err = fmt.Errorf("%w: %s is %s", domain.ErrDocumentNotReady, v.document.Filename, v.document.Status.Description())
		return nil
	}

	text := strings.TrimSpace(v.input.Value())
	documentID := v.document.ID
	v.input.Reset()
	v.pending = text
	v.thinking = true
	v.err = nil
	v.refresh()

	return func() tea.Msg {
		if v.selection == nil {
			return messages.AnswerReceived{DocumentID: documentID, Err: errServiceUnavailable}
		}
		answer, err := v.selection.Ask(v.ctx, text)
		return messages.AnswerReceived{DocumentID: documentID, Message: answer, Err: err}
	}
}

func (v *View) newChat() tea.Cmd {
	documentID := v.document.ID
	return func() tea.Msg {
		if v.chats == nil || v.selection == nil {
			return messages.ChatSelected{Err: errServiceUnavailable}
		}
		chat, err := v.chats.Create(v.ctx, &documentID, "")
		if err != nil {
			return messages.ChatSelected{Err: err}
		}
		if err := v.selection.SelectChat(v.ctx, chat.ID); err != nil {
			return messages.ChatSelected{Err: err}
		}
		return messages.ChatSelected{ChatID: chat.ID}
	}
}

func (v *View) openPicker() tea.Cmd {
	documentID := v.document.ID
	return func() tea.Msg {
		if v.chats == nil {
			return messages.ChatsLoaded{DocumentID: documentID, Err: errServiceUnavailable}
		}
		chats, err := v.chats.List(v.ctx, documentID)
		return messages.ChatsLoaded{DocumentID: documentID, Chats: chats, Err: err}
	}
}

func (v *View) selectChat(chatID int64) tea.Cmd {
	return func() tea.Msg {
		if v.selection == nil {
			return messages.ChatSelected{Err: errServiceUnavailable}
		}
		return messages.ChatSelected{ChatID: chatID, Err: v.selection.SelectChat(v.ctx, chatID)}
	}
}

func (v *View) deleteChat(chatID int64) tea.Cmd {
	return func() tea.Msg {
		if v.selection == nil {
			return messages.ChatDeleted{ChatID: chatID, Err: errServiceUnavailable}
		}
		return messages.ChatDeleted{ChatID: chatID, Err: v.selection.DeleteChat(v.ctx, chatID)}
	}
}

// refresh re-renders the transcript into the viewport and scrolls to the end.
func (v *View) refresh() {
	v.viewport.SetContent(v.transcript())
	v.viewport.GotoBottom()
}

func (v *View) transcript() string {
	if v.document == nil {
		return v.styles.Muted.Render("Select a document to start chatting.")
	}
	if len(v.messages) == 0 && v.pending == "" {
		if v.document.IsQueryable() {
			return v.styles.Muted.Render("No messages yet. Ask something about " + v.document.Filename + ".")
		}
		if v.document.Status == domain.StatusError {
			note := "Indexing " + v.document.Filename + " failed."
			if v.document.ErrorMessage != "" {
				note += " " + v.document.ErrorMessage
			}
			return v.styles.Error.Render(note)
		}
		return v.styles.Muted.Render(v.document.Filename + " is still being indexed. Questions open once it is ready.")
	}

	var b strings.Builder
	for _, m := range v.messages {
		b.WriteString(v.renderTurn(m))
		b.WriteString("\n")
	}
	if v.pending != "" {
		b.WriteString(v.renderTurn(domain.Message{Role: domain.RoleUser, Content: v.pending}))
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render("Thinking..."))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (v *View) renderTurn(m domain.Message) string {
	label := v.styles.UserTurn.Render("You")
	if m.Role == domain.RoleAssistant {
		label = v.styles.AssistantTurn.Render("Assistant")
	}
	return label + "\n" + strings.TrimRight(v.renderer.RenderMessage(m), "\n") + "\n"
}

// View renders the pane contents without its frame.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.header())
	b.WriteString("\n\n")

	if v.mode == ModePicker {
		b.WriteString(v.renderPicker())
		return b.String()
	}

	b.WriteString(v.viewport.View())
	b.WriteString("\n")
	if v.err != nil {
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(v.input.View())
	return b.String()
}

func (v *View) header() string {
	if v.document == nil {
		return v.styles.Title.Render("Chat")
	}

	title := v.styles.Title.Render(v.document.Filename)
	status := v.styles.Status(v.document.Status).Render(
		styles.StatusIcon(v.document.Status) + " " + v.document.Status.Description())
	chat := ""
	if v.chatID != 0 {
		chat = v.styles.Muted.Render(fmt.Sprintf("  chat %d", v.chatID))
	}
	return title + "  " + status + chat
}

func (v *View) renderPicker() string {
	var b strings.Builder
	b.WriteString(v.styles.Subtitle.Render("Chats"))
	b.WriteString("\n\n")

	if len(v.picker) == 0 {
		b.WriteString(v.styles.Muted.Render("No chats yet."))
	}
	for i := range v.picker {
		c := &v.picker[i]
		marker := "  "
		if c.ID == v.chatID {
			marker = "* "
		}
		line := fmt.Sprintf("%s%s", marker, c.DisplayTitle())
		if !c.CreatedAt.IsZero() {
			line += "  " + c.CreatedAt.Local().Format("2006-01-02 15:04")
		}
		if i == v.pickerCursor {
			b.WriteString(v.styles.Selected.Render(line))
		} else {
			b.WriteString(v.styles.Normal.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[enter] open  [d] delete  [ctrl+n] new  [esc] back"))
	return b.String()
}

// SetDimensions sets the inner pane size and rebuilds the renderer for
// the new wrap width.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height

	v.input.SetWidth(width)
	// Header, blank line, error line and the input.
	vpHeight := height - 3 - v.input.Height()
	if vpHeight < 3 {
		vpHeight = 3
	}
	v.viewport.Width = width
	v.viewport.Height = vpHeight

	if v.renderer.Width() != width {
		v.renderer = markdown.NewRenderer(width, v.markdownStyle)
	}
	v.refresh()
}

// SetFocused moves keyboard focus to or from the question input.
func (v *View) SetFocused(focused bool) tea.Cmd {
	v.focused = focused
	if focused {
		return v.input.Focus()
	}
	v.input.Blur()
	v.mode = ModeTranscript
	return nil
}

// Capturing reports whether typed keys belong to the pane. The question
// input takes every key while focused.
func (v *View) Capturing() bool {
	return v.focused
}

// Mode returns the current mode.
func (v *View) Mode() Mode {
	return v.mode
}

// ChatID returns the current chat, 0 if none.
func (v *View) ChatID() int64 {
	return v.chatID
}

// DocumentID returns the document shown, 0 if none.
func (v *View) DocumentID() int64 {
	if v.document == nil {
		return 0
	}
	return v.document.ID
}

// Messages returns the loaded transcript.
func (v *View) Messages() []domain.Message {
	return v.messages
}

// Thinking reports whether a question is awaiting its answer.
func (v *View) Thinking() bool {
	return v.thinking
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
