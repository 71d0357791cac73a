package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the backend is reachable",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, _ []string) error {
	if healthService == nil {
		return errors.New("health service not configured")
	}

	report := healthService.Check(cmd.Context())
	if !report.Healthy {
		return fmt.Errorf("backend %s is unavailable: %w", report.APIURL, report.Err)
	}

	cmd.Printf("✓ %s is healthy (%s)\n", report.APIURL, report.Latency.Round(time.Millisecond))
	return nil
}
