package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQuestionInput(t *testing.T) {
	q := NewQuestionInput(nil)

	require.NotNil(t, q)
	assert.True(t, q.IsBlank())
	assert.False(t, q.Focused())
	assert.Equal(t, 60, q.Width())
}

func TestQuestionInput_Typing(t *testing.T) {
	q := NewQuestionInput(nil)
	q.Focus()

	typeText(t, func(msg tea.Msg) { q.Update(msg) }, "What is X?")

	assert.Equal(t, "What is X?", q.Value())
	assert.False(t, q.IsBlank())
}

func TestQuestionInput_EnterDoesNotInsertNewline(t *testing.T) {
	q := NewQuestionInput(nil)
	q.Focus()
	q.SetValue("line")

	q.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "line", q.Value())
}

func TestQuestionInput_IsBlank(t *testing.T) {
	q := NewQuestionInput(nil)

	q.SetValue("   ")
	assert.True(t, q.IsBlank())

	q.SetValue(" ok ")
	assert.False(t, q.IsBlank())
}

func TestQuestionInput_Reset(t *testing.T) {
	q := NewQuestionInput(nil)
	q.SetValue("draft")

	q.Reset()

	assert.Equal(t, "", q.Value())
}

func TestQuestionInput_SetWidth(t *testing.T) {
	q := NewQuestionInput(nil)

	q.SetWidth(80)

	assert.Equal(t, 80, q.Width())
	assert.Greater(t, q.Height(), 3)
}

func TestQuestionInput_View(t *testing.T) {
	q := NewQuestionInput(nil)

	assert.Contains(t, q.View(), "Ask a question")
}
