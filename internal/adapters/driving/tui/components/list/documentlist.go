// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/pagechat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/pagechat/internal/core/domain"
)

// DocumentList displays documents with their status in a navigable list.
// The cursor is separate from the selected document: the cursor moves
// with j/k, the selection changes only when the user opens a document.
type DocumentList struct {
	documents []domain.Document
	cursor    int
	active    int64
	styles    *styles.Styles
	width     int
	height    int
}

// NewDocumentList creates an empty document list.
func NewDocumentList(s *styles.Styles) *DocumentList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &DocumentList{
		styles: s,
		width:  30,
		height: 10,
	}
}

// Init initialises the list.
func (l *DocumentList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (l *DocumentList) Update(msg tea.Msg) (*DocumentList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		case "home", "g":
			l.cursor = 0
		case "end", "G":
			if len(l.documents) > 0 {
				l.cursor = len(l.documents) - 1
			}
		}
	}
	return l, nil
}

// View renders the list.
func (l *DocumentList) View() string {
	if len(l.documents) == 0 {
		return l.styles.Muted.Render("No documents yet. Press u to upload a PDF.")
	}

	visible := l.height
	if visible < 1 {
		visible = 1
	}

	start := 0
	if l.cursor >= visible {
		start = l.cursor - visible + 1
	}
	end := start + visible
	if end > len(l.documents) {
		end = len(l.documents)
	}

	lines := make([]string, 0, end-start+1)
	for i := start; i < end; i++ {
		lines = append(lines, l.renderDocument(i, &l.documents[i]))
	}
	if len(l.documents) > visible {
		lines = append(lines, l.styles.Muted.Render(fmt.Sprintf("[%d-%d of %d]", start+1, end, len(l.documents))))
	}

	return strings.Join(lines, "\n")
}

func (l *DocumentList) renderDocument(index int, doc *domain.Document) string {
	indicator := "  "
	if doc.ID == l.active {
		indicator = "▸ "
	}

	name := doc.Filename
	if name == "" {
		name = fmt.Sprintf("Document %d", doc.ID)
	}
	label := doc.Status.Description()

	// indicator + name + space + icon + space + label
	maxName := l.width - 2 - 1 - 1 - 1 - len(label)
	if maxName < 8 {
		maxName = 8
	}
	name = truncate(name, maxName)

	icon := styles.StatusIcon(doc.Status)
	if index == l.cursor {
		return l.styles.Selected.Render(fmt.Sprintf("%s%-*s %s %s", indicator, maxName, name, icon, label))
	}

	badge := l.styles.Status(doc.Status)
	return l.styles.Normal.Render(fmt.Sprintf("%s%-*s ", indicator, maxName, name)) +
		badge.Render(icon+" "+label)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

// SetDocuments replaces the list, keeping the cursor on the same
// document when it is still present.
func (l *DocumentList) SetDocuments(docs []domain.Document) {
	var current int64
	if doc := l.Cursor(); doc != nil {
		current = doc.ID
	}

	l.documents = docs
	l.cursor = 0
	for i := range docs {
		if docs[i].ID == current {
			l.cursor = i
			break
		}
	}
}

// Documents returns the listed documents.
func (l *DocumentList) Documents() []domain.Document {
	return l.documents
}

// Cursor returns the document under the cursor, or nil if empty.
func (l *DocumentList) Cursor() *domain.Document {
	if l.cursor < 0 || l.cursor >= len(l.documents) {
		return nil
	}
	return &l.documents[l.cursor]
}

// CursorIndex returns the cursor position.
func (l *DocumentList) CursorIndex() int {
	return l.cursor
}

// MoveTo puts the cursor on the document with the given ID.
func (l *DocumentList) MoveTo(id int64) bool {
	for i := range l.documents {
		if l.documents[i].ID == id {
			l.cursor = i
			return true
		}
	}
	return false
}

// SetActive marks the selected document. 0 clears the mark.
func (l *DocumentList) SetActive(id int64) {
	l.active = id
}

// Active returns the marked document ID.
func (l *DocumentList) Active() int64 {
	return l.active
}

// MoveUp moves the cursor up.
func (l *DocumentList) MoveUp() {
	if l.cursor > 0 {
		l.cursor--
	}
}

// MoveDown moves the cursor down.
func (l *DocumentList) MoveDown() {
	if l.cursor < len(l.documents)-1 {
		l.cursor++
	}
}

// SetDimensions sets the component dimensions. height is in rows.
func (l *DocumentList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of documents.
func (l *DocumentList) Count() int {
	return len(l.documents)
}
