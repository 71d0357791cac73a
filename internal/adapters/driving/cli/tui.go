package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/pagechat/internal/adapters/driving/tui"
)

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for pagechat.

The documents pane lists your PDFs with their indexing status; the chat
pane holds the conversation about the selected document. Status changes
and new answers appear without refreshing.

Controls:
  Tab        - Switch pane
  ↑/k, ↓/j   - Navigate documents
  Enter      - Open document / send question
  u          - Upload a PDF
  d          - Delete document (chat picker: delete chat)
  r          - Refresh documents
  Ctrl+N     - New chat
  Ctrl+O     - Pick a chat
  Alt+Enter  - Newline in a question
  ?          - Toggle help
  q          - Quit`,
	RunE: runTUI,
}

// terminalBackground reports whether stdout is a terminal with a dark
// background. Replaced in tests.
var terminalBackground = func() (isTerminal, dark bool) {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return false, false
	}
	return true, lipgloss.HasDarkBackground()
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

// tuiPorts builds the TUI ports from the configured services.
func tuiPorts() *tui.Ports {
	return &tui.Ports{
		Document:  documentService,
		Chat:      chatService,
		Selection: selectionService,
		Health:    healthService,
		Changes:   changeFeed,
	}
}

// markdownStyle picks the glamour style before the program takes over the
// terminal, since probing the background afterwards races with input.
func markdownStyle() string {
	isTerminal, dark := terminalBackground()
	switch {
	case !isTerminal:
		return "notty"
	case dark:
		return "dark"
	default:
		return "light"
	}
}

func runTUI(cmd *cobra.Command, _ []string) (err error) {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("TUI panic: %v", r)
		}
	}()

	app, err := tui.NewApp(tuiPorts())
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context()).WithMarkdownStyle(markdownStyle())

	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
