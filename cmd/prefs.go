package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/workbook/internal/session"
	"github.com/abhisek/workbook/internal/settings"
)

var reactCmd = &cobra.Command{
	Use:   "react <tag>",
	Short: "Record a reaction to a generated result",
	Long:  "Record a reaction signal such as lens:music or tone:academic, then report whether a nudge is now due.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resultContext, _ := cmd.Flags().GetString("context")
		return withSession(cmd, func(_ context.Context, s *session.Session) error {
			tag := strings.TrimSpace(args[0])
			if tag == "" {
				return fmt.Errorf("tag is required")
			}
			st := s.AddSignal(tag, resultContext)
			fmt.Printf("Recorded %s (%d signals).\n", tag, st.SignalCount(tag))
			if next, ok := s.NextNudge(); ok {
				fmt.Printf("Nudge: make %s your default? (workbook nudge apply %s)\n", next, next)
			}
			return nil
		})
	},
}

var nudgeCmd = &cobra.Command{
	Use:   "nudge",
	Short: "Show nudge eligibility for every candidate tag",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(_ context.Context, s *session.Session) error {
			st := s.Settings()
			fmt.Printf("%-18s  %-8s  %-9s  %-10s  %s\n", "Tag", "Signals", "Dismissed", "Eligible", "Reason")
			fmt.Println(strings.Repeat("─", 72))
			for _, d := range s.Engine().EvaluateAll(&st) {
				mark := "✗"
				if d.Eligible {
					mark = "✓"
				}
				fmt.Printf("%-18s  %-8d  %-9d  %-10s  %s\n", d.Tag, d.Evidence, st.Dismissals(d.Tag), mark, d.Reason)
			}
			if next, ok := s.NextNudge(); ok {
				fmt.Printf("\nNext nudge: %s\n", next)
			}
			return nil
		})
	},
}

var nudgeApplyCmd = &cobra.Command{
	Use:   "apply <tag>",
	Short: "Accept a nudge and make the tag a default",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(_ context.Context, s *session.Session) error {
			s.ApplyNudge(args[0])
			fmt.Printf("%s is now a default.\n", args[0])
			return nil
		})
	},
}

var nudgeDismissCmd = &cobra.Command{
	Use:   "dismiss <tag>",
	Short: "Dismiss a nudge",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(_ context.Context, s *session.Session) error {
			st := s.DismissNudge(args[0])
			fmt.Printf("Dismissed %s (%d times).\n", args[0], st.Dismissals(args[0]))
			return nil
		})
	},
}

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "List the active default preferences",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(_ context.Context, s *session.Session) error {
			printSettings(s.Settings())
			return nil
		})
	},
}

var prefsSetCmd = &cobra.Command{
	Use:   "set <tag>",
	Short: "Make a tag a default",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(_ context.Context, s *session.Session) error {
			printSettings(s.SetPreference(args[0], true))
			return nil
		})
	},
}

var prefsRemoveCmd = &cobra.Command{
	Use:   "remove <tag>",
	Short: "Remove a default preference",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(_ context.Context, s *session.Session) error {
			printSettings(s.SetPreference(args[0], false))
			return nil
		})
	},
}

var prefsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every default preference",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(_ context.Context, s *session.Session) error {
			printSettings(s.ClearPreferences())
			return nil
		})
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset settings, signals, preferences and nudge counters to defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(_ context.Context, s *session.Session) error {
			s.Reset()
			fmt.Println("Settings reset to defaults.")
			return nil
		})
	},
}

func printSettings(s settings.Settings) {
	fmt.Printf("Language:      %s\n", s.Language)
	fmt.Printf("Output style:  %s\n", s.OutputStyle)
	fmt.Printf("Reading level: %s\n", s.DefaultReadingLevel)
	fmt.Printf("Signals:       %d\n", len(s.Signals))

	active := s.ActivePreferences()
	if len(active) == 0 {
		fmt.Println("Defaults:      (none)")
		return
	}
	fmt.Printf("Defaults:      %s\n", strings.Join(active, ", "))
}

func init() {
	reactCmd.Flags().StringP("context", "c", "", "Where the reaction happened (summary, qa, outline)")

	nudgeCmd.AddCommand(nudgeApplyCmd)
	nudgeCmd.AddCommand(nudgeDismissCmd)

	prefsCmd.AddCommand(prefsSetCmd)
	prefsCmd.AddCommand(prefsRemoveCmd)
	prefsCmd.AddCommand(prefsClearCmd)
}
