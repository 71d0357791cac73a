package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/pagechat/internal/adapters/driving/tui/styles"
)

// QuestionInput is the multi-line chat input. Enter is left to the
// caller for sending; alt+enter inserts a newline.
type QuestionInput struct {
	textarea textarea.Model
	styles   *styles.Styles
	width    int
}

// NewQuestionInput creates an empty question input.
func NewQuestionInput(s *styles.Styles) *QuestionInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ta := textarea.New()
	ta.Placeholder = "Ask a question about the document..."
	ta.ShowLineNumbers = false
	ta.Prompt = "┃ "
	ta.CharLimit = 4000
	ta.SetHeight(3)
	ta.SetWidth(60)
	ta.KeyMap.InsertNewline.SetKeys("alt+enter", "ctrl+j")

	return &QuestionInput{
		textarea: ta,
		styles:   s,
		width:    60,
	}
}

// Init initialises the input.
func (q *QuestionInput) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles input messages.
func (q *QuestionInput) Update(msg tea.Msg) (*QuestionInput, tea.Cmd) {
	var cmd tea.Cmd
	q.textarea, cmd = q.textarea.Update(msg)
	return q, cmd
}

// View renders the input inside its frame.
func (q *QuestionInput) View() string {
	return q.styles.InputField.Render(q.textarea.View())
}

// Value returns the current text.
func (q *QuestionInput) Value() string {
	return q.textarea.Value()
}

// IsBlank reports whether the text is empty after trimming.
func (q *QuestionInput) IsBlank() bool {
	return strings.TrimSpace(q.textarea.Value()) == ""
}

// SetValue replaces the text.
func (q *QuestionInput) SetValue(value string) {
	q.textarea.SetValue(value)
}

// Focus sets focus on the input.
func (q *QuestionInput) Focus() tea.Cmd {
	return q.textarea.Focus()
}

// Blur removes focus from the input.
func (q *QuestionInput) Blur() {
	q.textarea.Blur()
}

// Focused returns whether the input is focused.
func (q *QuestionInput) Focused() bool {
	return q.textarea.Focused()
}

// SetWidth sets the outer width, frame included.
func (q *QuestionInput) SetWidth(width int) {
	q.width = width
	inner := width - q.styles.InputField.GetHorizontalFrameSize()
	if inner < 20 {
		inner = 20
	}
	q.textarea.SetWidth(inner)
}

// Width returns the current width.
func (q *QuestionInput) Width() int {
	return q.width
}

// Height returns the rendered height, frame included.
func (q *QuestionInput) Height() int {
	return q.textarea.Height() + q.styles.InputField.GetVerticalFrameSize()
}

// Reset clears the input.
func (q *QuestionInput) Reset() {
	q.textarea.Reset()
}
