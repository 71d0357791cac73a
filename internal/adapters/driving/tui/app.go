package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/pagechat/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/pagechat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/pagechat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/pagechat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/pagechat/internal/adapters/driving/tui/views/chat"
	"github.com/custodia-labs/pagechat/internal/adapters/driving/tui/views/documents"
	"github.com/custodia-labs/pagechat/internal/core/domain"
)

// healthInterval is how often the status bar re-probes the backend.
const healthInterval = 30 * time.Second

// minDocumentsWidth keeps filenames readable on narrow terminals.
const minDocumentsWidth = 28

// healthDue asks for the next backend probe.
type healthDue struct{}

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
//
// The workspace shows the documents pane beside the chat pane. Selecting a
// document moves focus to its chat; tab moves focus back.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	styles *styles.Styles
	keymap *keymap.KeyMap
	help   help.Model

	documentsView *documents.View
	chatView      *chat.View
	statusBar     *status.Bar

	// changes delivers cache events once Init has subscribed.
	changes <-chan domain.CacheEvent

	// restore is a saved selection waiting for the document list.
	restore *domain.Session

	markdownStyle string
	currentView   messages.ViewType
	focus         messages.Pane

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has received its first window size.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	a := &App{
		ports:         ports,
		ctx:           context.Background(),
		styles:        s,
		keymap:        km,
		help:          help.New(),
		documentsView: documents.NewView(s, ports.Document, ports.Selection),
		statusBar:     status.NewBar(s, km),
		markdownStyle: "dark",
		currentView:   messages.ViewWorkspace,
		focus:         messages.PaneDocuments,
	}
	a.chatView = chat.NewView(s, ports.Chat, ports.Selection, a.markdownStyle)
	a.documentsView.SetFocused(true)
	return a, nil
}

// WithContext sets the context for the app and its panes.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.documentsView.WithContext(ctx)
	a.chatView.WithContext(ctx)
	return a
}

// WithMarkdownStyle sets the glamour style used for answers. It must be
// called before the program starts; the style is resolved up front because
// auto-detection queries the terminal.
func (a *App) WithMarkdownStyle(style string) *App {
	a.markdownStyle = style
	a.chatView = chat.NewView(a.styles, a.ports.Chat, a.ports.Selection, style).WithContext(a.ctx)
	return a
}

// Init implements tea.Model.
// It loads documents, restores the saved selection and starts listening
// for cache changes and backend health.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.SetWindowTitle("pagechat"),
		a.documentsView.Init(),
		a.statusBar.SetState(status.StateLoading),
		a.restoreSession(),
	}
	if a.ports.Health != nil {
		cmds = append(cmds, a.checkHealth())
	}
	if a.ports.Changes != nil {
		a.changes = a.ports.Changes.Subscribe(a.ctx)
		cmds = append(cmds, a.waitForChange())
	}
	return tea.Batch(cmds...)
}

func (a *App) restoreSession() tea.Cmd {
	return func() tea.Msg {
		session, err := a.ports.Selection.Restore(a.ctx)
		return messages.SessionRestored{Session: session, Err: err}
	}
}

func (a *App) checkHealth() tea.Cmd {
	return func() tea.Msg {
		return messages.HealthChecked{Report: a.ports.Health.Check(a.ctx)}
	}
}

// waitForChange blocks for the next cache event. It yields nil once the
// feed closes, which ends the loop.
func (a *App) waitForChange() tea.Cmd {
	ch := a.changes
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return messages.CacheChanged{Event: ev}
	}
}

// Update implements tea.Model.
// It handles messages and updates the model state.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := a.update(msg)
	return a, tea.Batch(cmd, a.syncStatus())
}

//nolint:gocognit,gocyclo,funlen // central message handler requires complexity
func (a *App) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case spinner.TickMsg:
		a.statusBar, cmd = a.statusBar.Update(msg)
		return cmd

	case messages.ViewChanged:
		a.currentView = msg.View
		return nil

	case messages.FocusChanged:
		return a.setFocus(msg.Pane)

	case messages.SessionRestored:
		if msg.Err != nil {
			a.err = fmt.Errorf("restore session: %w", msg.Err)
			return nil
		}
		if msg.Session.IsEmpty() {
			return nil
		}
		session := msg.Session
		a.restore = &session
		return a.applyRestore()

	case messages.DocumentsLoaded:
		a.documentsView, cmd = a.documentsView.Update(msg)
		if msg.Err != nil {
			a.err = msg.Err
			return cmd
		}
		a.err = nil
		if id := a.chatView.DocumentID(); id != 0 {
			if doc, ok := a.documentsView.Document(id); ok {
				a.chatView.UpdateDocument(doc)
			} else {
				a.chatView.Clear()
			}
		}
		return tea.Batch(cmd, a.applyRestore())

	case messages.DocumentSelected:
		a.documentsView, cmd = a.documentsView.Update(msg)
		if errors.Is(msg.Err, domain.ErrNotFound) {
			a.err = msg.Err
			return tea.Batch(cmd, a.documentsView.Reload())
		}
		a.err = msg.Err
		a.restore = nil
		doc, ok := a.documentsView.Document(msg.DocumentID)
		if !ok {
			return cmd
		}
		return tea.Batch(cmd, a.chatView.SetDocument(doc, msg.ChatID), a.setFocus(messages.PaneChat))

	case messages.UploadFinished:
		a.documentsView, cmd = a.documentsView.Update(msg)
		if msg.Err != nil {
			a.err = a.documentsView.Err()
		} else {
			a.err = nil
			a.statusBar.SetMessage("Uploaded " + msg.Document.Filename)
		}
		return cmd

	case messages.DocumentDeleted:
		a.documentsView, cmd = a.documentsView.Update(msg)
		if msg.Err != nil && !errors.Is(msg.Err, domain.ErrNotFound) {
			a.err = msg.Err
			return cmd
		}
		a.err = nil
		if a.chatView.DocumentID() == msg.DocumentID {
			a.chatView.Clear()
		}
		return tea.Batch(cmd, a.setFocus(messages.PaneDocuments))

	case messages.MessagesLoaded, messages.AnswerReceived, messages.ChatsLoaded,
		messages.ChatSelected, messages.ChatDeleted:
		a.chatView, cmd = a.chatView.Update(msg)
		a.err = a.chatView.Err()
		return cmd

	case messages.CacheChanged:
		return tea.Batch(a.handleChange(msg.Event), a.waitForChange())

	case messages.HealthChecked:
		a.statusBar.SetHealth(msg.Report.Healthy, msg.Report.APIURL)
		return tea.Tick(healthInterval, func(time.Time) tea.Msg { return healthDue{} })

	case healthDue:
		if a.ports.Health == nil {
			return nil
		}
		return a.checkHealth()

	case messages.ErrorOccurred:
		a.err = msg.Err
		return a.forwardToFocused(msg)

	case messages.Quit:
		return tea.Quit
	}

	// Cursor blinks and the like belong to whichever pane has focus.
	return a.forwardToFocused(msg)
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()

	if key == "ctrl+c" {
		return tea.Quit
	}

	if a.currentView == messages.ViewHelp {
		if keymap.Matches(key, a.keymap.Back) || keymap.Matches(key, a.keymap.Help) {
			a.currentView = messages.ViewWorkspace
		}
		return nil
	}

	// The upload prompt and the delete confirmation own every key.
	if a.focus == messages.PaneDocuments && a.documentsView.Capturing() {
		return a.forwardToFocused(msg)
	}

	if keymap.Matches(key, a.keymap.SwitchPane) {
		if a.focus == messages.PaneDocuments {
			return a.setFocus(messages.PaneChat)
		}
		return a.setFocus(messages.PaneDocuments)
	}

	if a.focus == messages.PaneDocuments {
		switch {
		case keymap.Matches(key, a.keymap.Quit):
			return tea.Quit
		case keymap.Matches(key, a.keymap.Help):
			a.currentView = messages.ViewHelp
			return nil
		}
	}

	if a.focus == messages.PaneChat && a.chatView.Mode() == chat.ModeTranscript &&
		keymap.Matches(key, a.keymap.Back) {
		return a.setFocus(messages.PaneDocuments)
	}

	return a.forwardToFocused(msg)
}

// handleChange reloads whatever on screen depends on the changed key.
// Reloads read the cache, so they cost no round trip.
func (a *App) handleChange(ev domain.CacheEvent) tea.Cmd {
	switch ev.Key.Kind {
	case domain.CollectionDocuments:
		return a.documentsView.Reload()
	case domain.CollectionMessages:
		// An answer in flight reloads itself when it lands.
		if ev.Key.ID != 0 && ev.Key.ID == a.chatView.ChatID() &&
			ev.Change == domain.CacheUpdated && !a.chatView.Thinking() {
			return a.chatView.LoadMessages()
		}
	case domain.CollectionChats:
	}
	return nil
}

// applyRestore reopens the saved selection once its document is listed.
func (a *App) applyRestore() tea.Cmd {
	if a.restore == nil {
		return nil
	}
	doc, ok := a.documentsView.Document(*a.restore.SelectedDocumentID)
	if !ok {
		return nil
	}

	var chatID int64
	if a.restore.CurrentChatID != nil {
		chatID = *a.restore.CurrentChatID
	}
	a.restore = nil
	a.documentsView.SetActive(doc.ID)
	return a.chatView.SetDocument(doc, chatID)
}

func (a *App) setFocus(pane messages.Pane) tea.Cmd {
	a.focus = pane
	a.statusBar.SetPane(pane)
	a.documentsView.SetFocused(pane == messages.PaneDocuments)
	return a.chatView.SetFocused(pane == messages.PaneChat)
}

func (a *App) forwardToFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if a.focus == messages.PaneChat {
		a.chatView, cmd = a.chatView.Update(msg)
	} else {
		a.documentsView, cmd = a.documentsView.Update(msg)
	}
	return cmd
}

// syncStatus derives the status bar state from the panes.
func (a *App) syncStatus() tea.Cmd {
	switch {
	case a.chatView.Thinking():
		a.statusBar.SetMessage("")
		return a.statusBar.SetState(status.StateThinking)
	case a.documentsView.Uploading():
		a.statusBar.SetMessage("")
		return a.statusBar.SetState(status.StateUploading)
	case a.documentsView.Loading():
		return a.statusBar.SetState(status.StateLoading)
	case a.err != nil:
		a.statusBar.SetMessage(a.err.Error())
		return a.statusBar.SetState(status.StateError)
	}

	if a.statusBar.State() != status.StateReady {
		a.statusBar.Clear()
	}
	return nil
}

// View implements tea.Model.
// It renders the current view as a string.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	if a.currentView == messages.ViewHelp {
		return a.viewHelp()
	}

	docsWidth, chatWidth, paneHeight := a.layout()

	docsFrame, chatFrame := a.styles.FocusedPane, a.styles.Pane
	if a.focus == messages.PaneChat {
		docsFrame, chatFrame = a.styles.Pane, a.styles.FocusedPane
	}

	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		docsFrame.Width(docsWidth-2).Height(paneHeight-2).Render(a.documentsView.View()),
		chatFrame.Width(chatWidth-2).Height(paneHeight-2).Render(a.chatView.View()),
	)
	return lipgloss.JoinVertical(lipgloss.Left, panes, a.statusBar.View())
}

func (a *App) viewHelp() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		a.styles.Title.Render("pagechat help"),
		"",
		a.help.FullHelpView(a.keymap.FullHelp()),
		"",
		a.styles.Help.Render("Answers cite the pages they came from. "+
			"Questions open once a document finishes indexing."),
		"",
		a.styles.Help.Render("[esc] back"),
	)
}

// layout returns the outer widths of both panes and their shared height.
func (a *App) layout() (docsWidth, chatWidth, paneHeight int) {
	docsWidth = a.width / 3
	if docsWidth < minDocumentsWidth {
		docsWidth = minDocumentsWidth
	}
	if docsWidth > a.width {
		docsWidth = a.width
	}
	chatWidth = a.width - docsWidth
	paneHeight = a.height - 1
	return docsWidth, chatWidth, paneHeight
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && a.ctx.Err() != nil {
		return nil
	}
	return err
}

// SetDimensions sets the terminal dimensions and lays out the panes.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true

	docsWidth, chatWidth, paneHeight := a.layout()
	// Rounded border plus one column of padding on each side.
	a.documentsView.SetDimensions(docsWidth-4, paneHeight-2)
	a.chatView.SetDimensions(chatWidth-4, paneHeight-2)
	a.statusBar.SetWidth(width)
	a.help.Width = width
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Focus returns the pane with keyboard focus.
func (a *App) Focus() messages.Pane {
	return a.focus
}

// Documents returns the documents pane.
func (a *App) Documents() *documents.View {
	return a.documentsView
}

// Chat returns the chat pane.
func (a *App) Chat() *chat.View {
	return a.chatView
}

// StatusBar returns the status bar.
func (a *App) StatusBar() *status.Bar {
	return a.statusBar
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}
