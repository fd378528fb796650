package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/workbook/internal/auth"
	"github.com/abhisek/workbook/internal/repos"
)

var tokenCmd = &cobra.Command{
	Use:   "token <userID>",
	Short: "Issue a bearer token for local testing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, _ := cmd.Flags().GetString("role")
		if role != auth.RoleStudent && role != auth.RoleInstructor {
			return fmt.Errorf("role must be %q or %q", auth.RoleStudent, auth.RoleInstructor)
		}
		userID, err := repos.ParseID(args[0])
		if err != nil {
			return fmt.Errorf("invalid user id %q", args[0])
		}
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		issuer, err := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.TokenTTL())
		if err != nil {
			return fmt.Errorf("init auth: %w", err)
		}
		token, expires, err := issuer.Issue(userID, role)
		if err != nil {
			return err
		}
		fmt.Println(token)
		fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expires.Local().Format(time.RFC3339))
		return nil
	},
}

func init() {
	tokenCmd.Flags().String("role", auth.RoleStudent, "Token role: student or instructor")
}
