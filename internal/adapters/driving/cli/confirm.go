package cli

import (
	"bufio"
	"errors"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// errNeedsConfirmation is returned when a destructive command runs without a
// terminal to ask on and without --yes.
var errNeedsConfirmation = errors.New("confirmation required: re-run with --yes")

// stdinIsTerminal reports whether prompts can be answered. Replaced in tests.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// confirm asks a yes/no question on the terminal. Anything but y/yes is no.
func confirm(cmd *cobra.Command, prompt string) (bool, error) {
	if !stdinIsTerminal() {
		return false, errNeedsConfirmation
	}

	cmd.Printf("%s [y/N]: ", prompt)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return false, nil
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
