// ABOUTME: Interactive sign-in and enrollment command
// ABOUTME: Launches the auth TUI and prints the resulting identity

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/schooltrack/schooltrack-cli/internal/capture/httpcam"
	"github.com/schooltrack/schooltrack-cli/internal/config"
	"github.com/schooltrack/schooltrack-cli/internal/gateway"
	"github.com/schooltrack/schooltrack-cli/internal/tui"
	"github.com/schooltrack/schooltrack-cli/internal/tui/debuglog"
	"github.com/schooltrack/schooltrack-cli/internal/tui/remember"
)

var resetToken string

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Sign in or create an account interactively",
	Long: `Open the interactive sign-in flow.

From the sign-in screen you can request a password reset or enroll a new
account, including the enrollment photo. Pass --reset-token to jump straight
to the reset-password screen, as a reset link would.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if cfg.Debug {
			if err := debuglog.Init(remember.DefaultConfigDir()); err == nil {
				defer debuglog.Close()
			}
		}

		client := gateway.New(GetAPIURL())
		device := httpcam.New(GetCameraURL(), cfg.CameraTimeout)

		session, err := tui.Run(client, device, resetToken)
		if err != nil {
			return err
		}
		if session == nil {
			// Quit without signing in.
			return nil
		}

		printIdentity(os.Stdout, session)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.Flags().StringVar(&resetToken, "reset-token", "", "Open the reset-password screen with this token")
}

// printIdentity writes the signed-in identity. The token is decoded for
// display only; the client holds no verification key.
func printIdentity(w io.Writer, session *gateway.Session) {
	claims, err := gateway.DecodeClaims(session.Token)

	if IsJSONOutput() {
		output := map[string]interface{}{
			"token": session.Token,
		}
		if err == nil {
			output["subject"] = claims.Subject
			output["email"] = claims.Email
			output["role"] = claims.Role
			if !claims.ExpiresAt.IsZero() {
				output["expires_at"] = claims.ExpiresAt
			}
		}
		data, _ := json.MarshalIndent(output, "", "  ")
		fmt.Fprintln(w, string(data))
		return
	}

	if err != nil {
		fmt.Fprintln(w, "Signed in.")
		return
	}
	fmt.Fprintf(w, "Signed in as %s (%s)\n", claims.Email, claims.Role)
	if !claims.ExpiresAt.IsZero() {
		fmt.Fprintf(w, "Session expires %s\n", claims.ExpiresAt.Format("2006-01-02 15:04 MST"))
	}
}
