// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/pagechat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/pagechat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/pagechat/internal/adapters/driving/tui/styles"
)

// State represents the current application state for display.
type State string

const (
	StateReady     State = "ready"
	StateLoading   State = "loading"
	StateThinking  State = "thinking"
	StateUploading State = "uploading"
	StateError     State = "error"
)

// Busy reports whether the state shows the spinner.
func (s State) Busy() bool {
	return s == StateLoading || s == StateThinking || s == StateUploading
}

// Bar displays application status, backend health and keybinding hints.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	spinner spinner.Model
	state   State
	message string
	pane    messages.Pane
	width   int

	// healthKnown is false until the first probe returns.
	healthKnown bool
	healthy     bool
	apiURL      string
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = s.Subtitle

	return &Bar{
		styles:  s,
		keymap:  km,
		spinner: sp,
		state:   StateReady,
		width:   80,
	}
}

// Init initialises the status bar.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// Update advances the spinner while the bar is busy.
func (s *Bar) Update(msg tea.Msg) (*Bar, tea.Cmd) {
	tick, ok := msg.(spinner.TickMsg)
	if !ok || !s.state.Busy() {
		return s, nil
	}

	var cmd tea.Cmd
	s.spinner, cmd = s.spinner.Update(tick)
	return s, cmd
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (s *Bar) renderLeft() string {
	var parts []string

	switch {
	case !s.healthKnown:
		parts = append(parts, s.styles.Muted.Render("○ connecting"))
	case s.healthy:
		parts = append(parts, s.styles.Success.Render("● online"))
	default:
		parts = append(parts, s.styles.Error.Render("● offline"))
	}

	switch s.state {
	case StateLoading, StateThinking, StateUploading:
		text := s.message
		if text == "" {
			text = busyText(s.state)
		}
		parts = append(parts, s.spinner.View()+" "+s.styles.Normal.Render(text))
	case StateError:
		if s.message != "" {
			parts = append(parts, s.styles.Error.Render(fmt.Sprintf("Error: %s", s.message)))
		} else {
			parts = append(parts, s.styles.Error.Render("Error"))
		}
	case StateReady:
		if s.message != "" {
			parts = append(parts, s.styles.Normal.Render(s.message))
		}
	}

	return strings.Join(parts, "  ")
}

func busyText(state State) string {
	switch state {
	case StateThinking:
		return "Thinking..."
	case StateUploading:
		return "Uploading..."
	default:
		return "Loading..."
	}
}

func (s *Bar) renderRight() string {
	var bindings []key.Binding
	switch s.pane {
	case messages.PaneChat:
		bindings = s.keymap.ChatHelp()
	default:
		bindings = s.keymap.DocumentsHelp()
	}
	bindings = append(bindings, s.keymap.Help)

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state. Entering a busy state returns the
// spinner tick that keeps it animated.
func (s *Bar) SetState(state State) tea.Cmd {
	wasBusy := s.state.Busy()
	s.state = state
	if state.Busy() && !wasBusy {
		return s.spinner.Tick
	}
	return nil
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets a custom message.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetHealth records the latest backend probe.
func (s *Bar) SetHealth(healthy bool, apiURL string) {
	s.healthKnown = true
	s.healthy = healthy
	s.apiURL = apiURL
}

// Healthy reports the last probe result and whether one has arrived.
func (s *Bar) Healthy() (healthy, known bool) {
	return s.healthy, s.healthKnown
}

// SetPane selects which pane's hints are shown.
func (s *Bar) SetPane(pane messages.Pane) {
	s.pane = pane
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Clear resets the status bar to its idle state. Health is kept.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
}
