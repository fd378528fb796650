package cmd

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// version is set via -ldflags at build time.
var version = "(devel)"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version",
	RunE: func(cmd *cobra.Command, args []string) error {
		short, _ := cmd.Flags().GetBool("short")
		out := cmd.OutOrStdout()
		if short {
			fmt.Fprintln(out, version)
			return nil
		}
		fmt.Fprintf(out, "workbook %s\n", version)
		if info, ok := debug.ReadBuildInfo(); ok {
			fmt.Fprintf(out, "  go:     %s\n", info.GoVersion)
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" || s.Key == "vcs.time" {
					fmt.Fprintf(out, "  %s: %s\n", s.Key, s.Value)
				}
			}
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().Bool("short", false, "print only the version string")
}
