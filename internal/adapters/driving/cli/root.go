// Package cli is the cobra command tree of the pagechat binary.
package cli

import (
	"context"
	"errors"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pagechat/internal/adapters/driving/tui"
	"github.com/custodia-labs/pagechat/internal/core/ports/driving"
	"github.com/custodia-labs/pagechat/internal/logger"
)

// version is set at build time.
var version = "dev"

// Root flags.
var (
	verbose bool
	apiURL  string
)

// Services bundles the core services the commands drive.
type Services struct {
	Documents driving.DocumentService
	Chats     driving.ChatService
	Selection driving.SelectionService
	Settings  driving.SettingsService
	Health    driving.HealthService

	// Changes feeds live cache changes to the TUI. May be nil.
	Changes tui.ChangeFeed

	// Close stops background tracking and releases storage. May be nil.
	Close func()
}

// Options carries the parsed root flags to a Factory.
type Options struct {
	// APIURL overrides the configured backend when set.
	APIURL  string
	Verbose bool
}

// Factory builds the services once flags are parsed.
type Factory func(ctx context.Context, opts Options) (*Services, error)

var (
	documentService  driving.DocumentService
	chatService      driving.ChatService
	selectionService driving.SelectionService
	settingsService  driving.SettingsService
	healthService    driving.HealthService
	changeFeed       tui.ChangeFeed
	closeServices    func()

	serviceFactory Factory
)

var rootCmd = &cobra.Command{
	Use:   "pagechat",
	Short: "Chat with your PDF documents",
	Long: `pagechat uploads PDFs to a PageIndex backend, follows their indexing
and answers questions about them with page-level citations.

Run "pagechat tui" for the interactive interface, or use the document and
chat commands from scripts.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupServices,
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		releaseServices()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug logs")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "backend URL (overrides settings)")
}

// SetVersion sets the version reported by "pagechat version".
func SetVersion(v string) {
	version = v
}

// SetServices injects already-built services.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	documentService = s.Documents
	chatService = s.Chats
	selectionService = s.Selection
	settingsService = s.Settings
	healthService = s.Health
	changeFeed = s.Changes
	closeServices = s.Close
}

// SetFactory registers the builder used when no services were injected.
func SetFactory(f Factory) {
	serviceFactory = f
}

// Execute runs the command tree. Services are released even when the
// command fails, since cobra skips post-run hooks on error.
func Execute(ctx context.Context) error {
	defer releaseServices()
	return rootCmd.ExecuteContext(ctx)
}

func releaseServices() {
	if closeServices != nil {
		closeServices()
		closeServices = nil
	}
}

func setupServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if serviceFactory == nil || settingsService != nil {
		return nil
	}

	s, err := serviceFactory(cmd.Context(), Options{APIURL: apiURL, Verbose: verbose})
	if err != nil {
		return err
	}
	SetServices(s)
	return nil
}

// parseID parses a positional document or chat ID.
func parseID(kind, arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid " + kind + " id: " + arg)
	}
	return id, nil
}
