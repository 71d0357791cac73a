package messages

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestViewType_String(t *testing.T) {
	tests := []struct {
		view     ViewType
		expected string
	}{
		{ViewWorkspace, "workspace"},
		{ViewHelp, "help"},
		{ViewType(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.view.String())
		})
	}
}

func TestPane_String(t *testing.T) {
	assert.Equal(t, "documents", PaneDocuments.String())
	assert.Equal(t, "chat", PaneChat.String())
	assert.Equal(t, "unknown", Pane(-1).String())
}

func TestViewType_ZeroValueIsWorkspace(t *testing.T) {
	var v ViewType
	assert.Equal(t, ViewWorkspace, v)
}
