package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change how pagechat reaches the backend.

Settings are stored in ~/.pagechat/config.toml. PAGECHAT_API_URL and
PAGECHAT_WS_URL (also read from a .env file) override the stored endpoints,
and --api-url overrides both for a single run.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change a setting",
	Long: `Change one setting by key. Run "pagechat settings keys" for the list.

Examples:
  pagechat settings set api.url http://localhost:8000
  pagechat settings set status.poll_interval_ms 1000
  pagechat settings set chat.reuse_latest false`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List setting keys",
	RunE:  runSettingsKeys,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[API]")
	cmd.Printf("  URL:           %s\n", settings.APIURL)
	ws := settings.ResolvedWSURL()
	if settings.WSURL == "" {
		ws += " (derived)"
	}
	cmd.Printf("  WebSocket URL: %s\n", ws)
	cmd.Printf("  Timeout:       %s\n", settings.Timeout())
	if settings.RequestsPerSecond > 0 {
		cmd.Printf("  Rate limit:    %d requests/s\n", settings.RequestsPerSecond)
	} else {
		cmd.Printf("  Rate limit:    off\n")
	}
	cmd.Println()

	cmd.Println("[Status]")
	cmd.Printf("  Poll interval: %s\n", settings.PollInterval())
	if settings.KeepAliveSeconds > 0 {
		cmd.Printf("  Keep-alive:    %s\n", settings.KeepAlive())
	} else {
		cmd.Printf("  Keep-alive:    off\n")
	}
	cmd.Println()

	cmd.Println("[Chat]")
	cmd.Printf("  Reuse latest chat: %s\n", yesNo(settings.ReuseLatestChat))
	cmd.Println()

	cmd.Printf("Config file: %s\n", settingsService.Path())
	if err := settings.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	cmd.Printf("Set %s = %s\n", key, strings.TrimSpace(value))
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
