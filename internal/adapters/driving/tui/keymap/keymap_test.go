package keymap

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()

	require.NotNil(t, km)
}

func TestDefaultKeyMap_Bindings(t *testing.T) {
	km := DefaultKeyMap()

	tests := []struct {
		name    string
		binding key.Binding
		keys    []string
	}{
		{"quit", km.Quit, []string{"q", "ctrl+c"}},
		{"help", km.Help, []string{"?"}},
		{"back", km.Back, []string{"esc"}},
		{"switch pane", km.SwitchPane, []string{"tab"}},
		{"up", km.Up, []string{"up", "k"}},
		{"down", km.Down, []string{"down", "j"}},
		{"send", km.Send, []string{"enter"}},
		{"upload", km.Upload, []string{"u"}},
		{"delete", km.Delete, []string{"d"}},
		{"new chat", km.NewChat, []string{"ctrl+n"}},
		{"chats", km.Chats, []string{"ctrl+o"}},
		{"confirm", km.Confirm, []string{"y"}},
		{"deny", km.Deny, []string{"n", "esc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range tt.keys {
				assert.Contains(t, tt.binding.Keys(), k)
			}
			assert.NotEmpty(t, tt.binding.Help().Desc)
		})
	}
}

// Chat pane shortcuts must not collide with plain typing.
func TestDefaultKeyMap_ChatShortcutsUseModifiers(t *testing.T) {
	km := DefaultKeyMap()

	for _, b := range []key.Binding{km.NewChat, km.Chats} {
		for _, k := range b.Keys() {
			assert.Contains(t, k, "ctrl+")
		}
	}
}

func TestKeyMap_PaneHelp(t *testing.T) {
	km := DefaultKeyMap()

	assert.Len(t, km.ShortHelp(), 3)
	assert.Contains(t, helpKeys(km.DocumentsHelp()), "u")
	assert.Contains(t, helpKeys(km.ChatHelp()), "ctrl+n")
	assert.Len(t, km.FullHelp(), 4)
}

func TestMatches(t *testing.T) {
	km := DefaultKeyMap()

	assert.True(t, Matches("k", km.Up))
	assert.True(t, Matches("ctrl+c", km.Quit))
	assert.False(t, Matches("x", km.Up))
	assert.False(t, Matches("", km.Quit))
}

func helpKeys(bindings []key.Binding) []string {
	keys := make([]string, 0, len(bindings))
	for _, b := range bindings {
		keys = append(keys, b.Help().Key)
	}
	return keys
}
