package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/workbook/internal/classroom"
	"github.com/abhisek/workbook/internal/repos"
)

var statsCmd = &cobra.Command{
	Use:   "stats <classID>",
	Short: "Print the instructor report for a class",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		classID, err := repos.ParseID(args[0])
		if err != nil {
			return fmt.Errorf("invalid class id %q", args[0])
		}
		e, err := openRemote(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		svc := classroom.New(e.repos,
			classroom.WithWindow(e.cfg.ActivityWindow()),
			classroom.WithLogger(e.log),
		)
		report, err := svc.ReportForClass(cmd.Context(), classID)
		if err != nil {
			return fmt.Errorf("build report: %w", err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create a demo instructor, class and five students with activity",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("instructor")
		e, err := openRemote(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		res, err := classroom.New(e.repos, classroom.WithLogger(e.log)).Seed(cmd.Context(), email)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		fmt.Printf("Instructor: %s\n", res.InstructorID)
		fmt.Printf("Class:      %s\n", res.ClassID)
		for _, id := range res.StudentIDs {
			fmt.Printf("Student:    %s\n", id)
		}
		return nil
	},
}

func init() {
	seedCmd.Flags().String("instructor", "instructor@example.com", "Email of the demo instructor")
}
