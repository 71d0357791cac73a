// Package documents provides the documents pane of the TUI.
package documents

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/pagechat/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/pagechat/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/pagechat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/pagechat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/pagechat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/pagechat/internal/core/domain"
	"github.com/custodia-labs/pagechat/internal/core/ports/driving"
)

// Mode is what the pane is currently asking of the user.
type Mode int

const (
	ModeList Mode = iota
	ModeUpload
	ModeConfirmDelete
)

var errServiceUnavailable = errors.New("document service not available")

var userHomeDir = os.UserHomeDir

// View is the documents pane.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	documents driving.DocumentService
	selection driving.SelectionService
	ctx       context.Context

	list    *list.DocumentList
	prompt  *input.PromptInput
	mode    Mode
	pending *domain.Document

	// focusAfterLoad moves the cursor once the next list arrives.
	focusAfterLoad int64

	loading   bool
	uploading bool
	focused   bool
	err     error
	width   int
	height  int
}

// NewView creates a documents pane.
func NewView(s *styles.Styles, documents driving.DocumentService, selection driving.SelectionService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &View{
		styles:    s,
		keymap:    keymap.DefaultKeyMap(),
		documents: documents,
		selection: selection,
		ctx:       context.Background(),
		list:      list.NewDocumentList(s),
		prompt:    input.NewPromptInput(s, "PDF path:", "~/papers/report.pdf"),
	}
}

// WithContext sets the context used by service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init fetches the document list from the backend.
func (v *View) Init() tea.Cmd {
	return v.Refresh()
}

// Refresh refetches the list from the backend.
func (v *View) Refresh() tea.Cmd {
	v.loading = true
	return func() tea.Msg {
		if v.documents == nil {
			return messages.DocumentsLoaded{Err: errServiceUnavailable}
		}
		docs, err := v.documents.Refresh(v.ctx)
		return messages.DocumentsLoaded{Documents: docs, Err: err}
	}
}

// Reload rereads the cached list without a network round trip.
func (v *View) Reload() tea.Cmd {
	return func() tea.Msg {
		if v.documents == nil {
			return messages.DocumentsLoaded{Err: errServiceUnavailable}
		}
		docs, err := v.documents.List(v.ctx)
		return messages.DocumentsLoaded{Documents: docs, Err: err}
	}
}

// Update handles messages for the documents pane.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch v.mode {
		case ModeUpload:
			return v.handleUploadKey(msg)
		case ModeConfirmDelete:
			return v.handleConfirmKey(msg)
		default:
			return v.handleListKey(msg)
		}

	case messages.DocumentsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.list.SetDocuments(msg.Documents)
		if v.focusAfterLoad != 0 && v.list.MoveTo(v.focusAfterLoad) {
			v.focusAfterLoad = 0
		}
		return v, nil

	case messages.DocumentSelected:
		// The document stays selected when only its chat failed.
		if !errors.Is(msg.Err, domain.ErrNotFound) {
			v.list.SetActive(msg.DocumentID)
		}
		return v, nil

	case messages.UploadFinished:
		v.uploading = false
		if msg.Err != nil {
			v.err = fmt.Errorf("upload %s: %w", filepath.Base(msg.Path), msg.Err)
			return v, nil
		}
		v.err = nil
		v.focusAfterLoad = msg.Document.ID
		return v, v.Reload()

	case messages.DocumentDeleted:
		if msg.Err != nil && !errors.Is(msg.Err, domain.ErrNotFound) {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		if v.list.Active() == msg.DocumentID {
			v.list.SetActive(0)
		}
		return v, v.Reload()

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

func (v *View) handleListKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case keymap.Matches(msg.String(), v.keymap.Select):
		doc := v.list.Cursor()
		if doc == nil {
			return v, nil
		}
		return v, v.selectDocument(doc.ID)

	case keymap.Matches(msg.String(), v.keymap.Upload):
		v.mode = ModeUpload
		v.prompt.Reset()
		return v, v.prompt.Focus()

	case keymap.Matches(msg.String(), v.keymap.Delete):
		doc := v.list.Cursor()
		if doc == nil {
			return v, nil
		}
		d := *doc
		v.pending = &d
		v.mode = ModeConfirmDelete
		return v, nil

	case keymap.Matches(msg.String(), v.keymap.Refresh):
		return v, v.Refresh()
	}

	v.list, _ = v.list.Update(msg)
	return v, nil
}

func (v *View) handleUploadKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.Type { //nolint:exhaustive // only enter and esc leave the prompt
	case tea.KeyEsc:
		v.closePrompt()
		return v, nil
	case tea.KeyEnter:
		path := expandHome(strings.TrimSpace(v.prompt.Value()))
		v.closePrompt()
		if path == "" {
			return v, nil
		}
		return v, v.uploadFile(path)
	}

	var cmd tea.Cmd
	v.prompt, cmd = v.prompt.Update(msg)
	return v, cmd
}

func (v *View) handleConfirmKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	doc := v.pending
	switch {
	case keymap.Matches(msg.String(), v.keymap.Confirm):
		v.mode = ModeList
		v.pending = nil
		return v, v.deleteDocument(doc.ID)
	case keymap.Matches(msg.String(), v.keymap.Deny):
		v.mode = ModeList
		v.pending = nil
	}
	return v, nil
}

func (v *View) closePrompt() {
	v.mode = ModeList
	v.prompt.Blur()
	v.prompt.Reset()
}

func (v *View) selectDocument(id int64) tea.Cmd {
	return func() tea.Msg {
		if v.selection == nil {
			return messages.DocumentSelected{DocumentID: id, Err: errServiceUnavailable}
		}
		chatID, err := v.selection.SelectDocument(v.ctx, id)
		return messages.DocumentSelected{DocumentID: id, ChatID: chatID, Err: err}
	}
}

func (v *View) uploadFile(path string) tea.Cmd {
	v.uploading = true
	return func() tea.Msg {
		if v.documents == nil {
			return messages.UploadFinished{Path: path, Err: errServiceUnavailable}
		}
		doc, err := v.documents.UploadFile(v.ctx, path)
		return messages.UploadFinished{Path: path, Document: doc, Err: err}
	}
}

func (v *View) deleteDocument(id int64) tea.Cmd {
	return func() tea.Msg {
		if v.selection == nil {
			return messages.DocumentDeleted{DocumentID: id, Err: errServiceUnavailable}
		}
		return messages.DocumentDeleted{DocumentID: id, Err: v.selection.DeleteDocument(v.ctx, id)}
	}
}

// View renders the pane contents without its frame.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Documents (%d)", v.list.Count())))
	b.WriteString("\n\n")

	switch v.mode {
	case ModeUpload:
		b.WriteString(v.prompt.View())
		b.WriteString("\n\n")
		b.WriteString(v.styles.Help.Render("[enter] upload  [esc] cancel"))
		return b.String()

	case ModeConfirmDelete:
		b.WriteString(v.styles.Warning.Render(fmt.Sprintf("Delete %s?", v.pending.Filename)))
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render("Its chats are deleted too."))
		b.WriteString("\n\n")
		b.WriteString(v.styles.Help.Render("[y] delete  [n] keep"))
		return b.String()

	case ModeList:
	}

	if v.loading && v.list.Count() == 0 {
		b.WriteString(v.styles.Muted.Render("Loading documents..."))
	} else {
		b.WriteString(v.list.View())
	}

	if v.err != nil {
		b.WriteString("\n\n")
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	}

	if doc := v.list.Cursor(); doc != nil && doc.Status == domain.StatusError && doc.ErrorMessage != "" {
		b.WriteString("\n\n")
		b.WriteString(v.styles.Error.Render(doc.ErrorMessage))
	}

	return b.String()
}

// SetDimensions sets the inner pane size.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	// Title, blank line and a two-line error footer.
	v.list.SetDimensions(width, height-5)
	v.prompt.SetWidth(width)
}

// SetFocused records whether the pane has keyboard focus.
func (v *View) SetFocused(focused bool) {
	v.focused = focused
	if !focused && v.mode == ModeUpload {
		v.closePrompt()
	}
}

// Capturing reports whether the pane is collecting text or a yes/no
// answer, so global keys must not fire.
func (v *View) Capturing() bool {
	return v.mode != ModeList
}

// Loading reports whether a backend refresh is outstanding.
func (v *View) Loading() bool {
	return v.loading
}

// Uploading reports whether an upload is outstanding.
func (v *View) Uploading() bool {
	return v.uploading
}

// Mode returns the current mode.
func (v *View) Mode() Mode {
	return v.mode
}

// Documents returns the listed documents.
func (v *View) Documents() []domain.Document {
	return v.list.Documents()
}

// Document returns the listed document with the given ID.
func (v *View) Document(id int64) (domain.Document, bool) {
	for _, d := range v.list.Documents() {
		if d.ID == id {
			return d, true
		}
	}
	return domain.Document{}, false
}

// Cursor returns the document under the cursor.
func (v *View) Cursor() *domain.Document {
	return v.list.Cursor()
}

// Active returns the selected document ID, 0 if none.
func (v *View) Active() int64 {
	return v.list.Active()
}

// SetActive marks the selected document.
func (v *View) SetActive(id int64) {
	v.list.SetActive(id)
	v.list.MoveTo(id)
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := userHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
