package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pagechat/internal/adapters/driving/tui/styles"
)

func typeText(t *testing.T, update func(tea.Msg), text string) {
	t.Helper()
	for _, r := range text {
		update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestNewPromptInput(t *testing.T) {
	p := NewPromptInput(styles.DefaultStyles(), "Upload:", "path/to/file.pdf")

	require.NotNil(t, p)
	assert.Equal(t, "", p.Value())
	assert.False(t, p.Focused())
	assert.Equal(t, 40, p.Width())
}

func TestNewPromptInput_NilStyles(t *testing.T) {
	p := NewPromptInput(nil, "Upload:", "")

	require.NotNil(t, p)
	assert.NotNil(t, p.styles)
}

func TestPromptInput_Init(t *testing.T) {
	assert.NotNil(t, NewPromptInput(nil, "x", "").Init())
}

func TestPromptInput_TypingRequiresFocus(t *testing.T) {
	p := NewPromptInput(nil, "Upload:", "")
	update := func(msg tea.Msg) { p.Update(msg) }

	typeText(t, update, "ignored")
	assert.Equal(t, "", p.Value())

	p.Focus()
	typeText(t, update, "a.pdf")
	assert.Equal(t, "a.pdf", p.Value())

	p.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "a.pd", p.Value())
}

func TestPromptInput_View(t *testing.T) {
	p := NewPromptInput(nil, "Upload:", "")

	assert.Contains(t, p.View(), "Upload:")
}

func TestPromptInput_FocusBlur(t *testing.T) {
	p := NewPromptInput(nil, "x", "")

	p.Focus()
	assert.True(t, p.Focused())

	p.Blur()
	assert.False(t, p.Focused())
}

func TestPromptInput_SetWidth(t *testing.T) {
	p := NewPromptInput(nil, "Upload:", "")

	p.SetWidth(100)
	assert.Equal(t, 100, p.Width())

	p.SetWidth(5)
	assert.Equal(t, 5, p.Width())
	assert.Equal(t, 10, p.textinput.Width)
}

func TestPromptInput_Reset(t *testing.T) {
	p := NewPromptInput(nil, "x", "")
	p.SetValue("some text")

	p.Reset()

	assert.Equal(t, "", p.Value())
}
