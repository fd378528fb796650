package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "workbook",
	Short: "Research literacy workbook backend",
	Long: "Workbook learns a student's presentation preferences from their reactions, " +
		"nudges them toward adopting those preferences, and reports class-level analytics to instructors.",
	SilenceUsage: true,
}

// ExecuteContext runs the root command with ctx.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("config", "workbook.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().String("db", "", "Path to the local settings cache (overrides WORKBOOK_CACHE_DB env var)")
	rootCmd.PersistentFlags().String("user", "", "Act as this user id against the remote store; empty uses the anonymous local cache")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reactCmd)
	rootCmd.AddCommand(nudgeCmd)
	rootCmd.AddCommand(prefsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}
