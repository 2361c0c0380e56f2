// ABOUTME: Non-interactive login command for scripted use
// ABOUTME: Authenticates with flag/env credentials and exits 0, 1, or 2

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/schooltrack/schooltrack-cli/internal/enrollment"
	"github.com/schooltrack/schooltrack-cli/internal/gateway"
)

var (
	loginRole     string
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in without the interactive flow",
	Long: `Sign in with credentials from flags and print the session token.

The password may also be supplied via SCHOOLTRACK_PASSWORD to keep it out
of shell history.

Exit codes:
  0 - Signed in
  1 - Credentials rejected
  2 - Error (connectivity, invalid input)`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runLogin(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringVar(&loginRole, "role", "student", "Account role: student, teacher, or admin")
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password (or set SCHOOLTRACK_PASSWORD)")
}

// runLogin executes the login and returns the exit code
func runLogin(ctx context.Context, w io.Writer) int {
	password := loginPassword
	if password == "" {
		password = os.Getenv("SCHOOLTRACK_PASSWORD")
	}

	input := gateway.LoginRequest{
		Role:     enrollment.Role(loginRole),
		Email:    loginEmail,
		Password: password,
	}
	if err := validateLoginInput(input); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	c := gateway.New(GetAPIURL())
	session, err := c.Login(ctx, input)
	if err != nil {
		var authErr *gateway.AuthError
		if errors.As(err, &authErr) {
			fmt.Fprintf(w, "Rejected: %v\n", authErr)
			return 1
		}
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatLoginJSON(session))
	} else {
		fmt.Fprintln(w, formatLoginHuman(session))
	}
	return 0
}

// validateLoginInput ensures required credentials are present
func validateLoginInput(input gateway.LoginRequest) error {
	if !input.Role.Valid() {
		return fmt.Errorf("--role must be student, teacher, or admin")
	}
	if !enrollment.ValidEmail(input.Email) {
		return fmt.Errorf("--email must be a valid email address")
	}
	if input.Password == "" {
		return fmt.Errorf("--password or SCHOOLTRACK_PASSWORD is required")
	}
	return nil
}

// formatLoginHuman formats the session for human readability
func formatLoginHuman(session *gateway.Session) string {
	output := fmt.Sprintf("Token: %s", session.Token)
	if claims, err := gateway.DecodeClaims(session.Token); err == nil {
		output = fmt.Sprintf("Signed in as %s (%s)\n%s", claims.Email, claims.Role, output)
	}
	return output
}

// formatLoginJSON formats the session as JSON
func formatLoginJSON(session *gateway.Session) string {
	output := map[string]interface{}{
		"token": session.Token,
	}
	if claims, err := gateway.DecodeClaims(session.Token); err == nil {
		output["email"] = claims.Email
		output["role"] = claims.Role
		output["subject"] = claims.Subject
	}
	data, _ := json.MarshalIndent(output, "", "  ")
	return string(data)
}
