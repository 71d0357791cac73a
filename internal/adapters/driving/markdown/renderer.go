// Package markdown renders chat messages for the terminal.
package markdown

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/custodia-labs/pagechat/internal/core/domain"
)

// Renderer turns assistant markdown into styled terminal text.
type Renderer struct {
	tr    *glamour.TermRenderer
	width int
}

// NewRenderer creates a renderer wrapping at width columns (0 disables
// wrapping). style is a glamour style name such as "dark" or "notty"; an
// empty style picks one from the terminal background.
func NewRenderer(width int, style string) *Renderer {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	// A renderer that fails to build degrades to plain text.
	tr, _ := glamour.NewTermRenderer(opts...)
	return &Renderer{tr: tr, width: width}
}

// Width returns the wrap width the renderer was built with.
func (r *Renderer) Width() int {
	return r.width
}

// Render renders markdown, returning the input unchanged on failure.
func (r *Renderer) Render(text string) string {
	if r == nil || r.tr == nil {
		return text
	}
	out, err := r.tr.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}

// RenderMessage renders one chat turn. User turns stay plain; assistant
// turns are rendered as markdown followed by their citations.
func (r *Renderer) RenderMessage(m domain.Message) string {
	if m.Role != domain.RoleAssistant {
		return m.Content
	}

	var sb strings.Builder
	sb.WriteString(r.Render(m.Content))
	if m.HasSources() {
		sb.WriteString("\n\n")
		sb.WriteString(Sources(m.Sources))
	}
	return sb.String()
}

// Sources lists citations one per line.
func Sources(sources []domain.Source) string {
	lines := make([]string, 0, len(sources)+1)
	lines = append(lines, "Sources:")
	for i, s := range sources {
		lines = append(lines, fmt.Sprintf("  [%d] %s", i+1, s.Label()))
	}
	return strings.Join(lines, "\n")
}
