// ABOUTME: Reset-password screen as a bubbletea child model
// ABOUTME: Gates submission on confirmation match and the strength threshold before any network call

package reset

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/schooltrack/schooltrack-cli/internal/strength"
	"github.com/schooltrack/schooltrack-cli/internal/tui/icons"
	"github.com/schooltrack/schooltrack-cli/internal/tui/styles"
	"github.com/schooltrack/schooltrack-cli/internal/tui/widgets"
)

// SubmitMsg is sent when the new password passes the local gates
type SubmitMsg struct {
	Token       string
	NewPassword string
}

// BackMsg is sent when the user abandons the reset
type BackMsg struct{}

// Reset is the reset-password screen model
type Reset struct {
	form        *huh.Form
	token       string
	tokenFixed  bool
	newPassword string
	confirm     string
	errMsg      string
	submitting  bool
}

// New creates the reset screen. token comes from the reset link; when
// empty, the form asks for it.
func New(token string) *Reset {
	r := &Reset{
		token:      token,
		tokenFixed: token != "",
	}
	r.form = r.buildForm()
	return r
}

func (r *Reset) buildForm() *huh.Form {
	fields := []huh.Field{}
	if !r.tokenFixed {
		fields = append(fields, huh.NewInput().
			Title("Reset token").
			Description("From the link in your reset email").
			Value(&r.token).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("reset token is required")
				}
				return nil
			}))
	}
	fields = append(fields,
		// No length rule here: the strength threshold applied at
		// submission is the only local gate on the new password.
		huh.NewInput().
			Title("New password").
			EchoMode(huh.EchoModePassword).
			Value(&r.newPassword),
		huh.NewInput().
			Title("Confirm new password").
			EchoMode(huh.EchoModePassword).
			Value(&r.confirm).
			Validate(func(s string) error {
				if s != r.newPassword {
					return fmt.Errorf("passwords do not match")
				}
				return nil
			}),
	)

	return huh.NewForm(
		huh.NewGroup(fields...).
			Title("Reset Password").
			Description("Choose a new password for your account"),
	).WithTheme(styles.FormTheme())
}

// Init implements tea.Model
func (r *Reset) Init() tea.Cmd {
	return r.form.Init()
}

// Update implements tea.Model
func (r *Reset) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		if r.submitting {
			return r, nil
		}
		if key.String() == "esc" {
			return r, func() tea.Msg { return BackMsg{} }
		}
	}

	form, cmd := r.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		r.form = f
	}

	if r.form.State == huh.StateCompleted && !r.submitting {
		// Strength gate: too-weak passwords never reach the service.
		if !strength.MeetsResetPolicy(r.newPassword) {
			r.errMsg = fmt.Sprintf("password too weak: reach %s or better before submitting", strength.BandGood)
			r.form = r.buildForm()
			return r, r.form.Init()
		}

		r.submitting = true
		r.errMsg = ""
		token, password := r.token, r.newPassword
		return r, func() tea.Msg { return SubmitMsg{Token: token, NewPassword: password} }
	}

	return r, cmd
}

// SetError reports a failed reset confirmation, keeping entered values.
func (r *Reset) SetError(msg string) tea.Cmd {
	r.errMsg = msg
	r.submitting = false
	r.form = r.buildForm()
	return r.form.Init()
}

// Submitting reports whether a confirmation call is in flight
func (r *Reset) Submitting() bool {
	return r.submitting
}

// View implements tea.Model
func (r *Reset) View() string {
	var sb strings.Builder

	if r.errMsg != "" {
		sb.WriteString(styles.ErrorBanner.Render(icons.Critical.String() + " " + r.errMsg))
		sb.WriteString("\n")
	}
	if r.submitting {
		sb.WriteString(styles.Subtitle.Render("Updating password..."))
		sb.WriteString("\n")
	}

	sb.WriteString(r.form.View())
	sb.WriteString("\n")
	sb.WriteString("Strength: " + widgets.MeterForPassword(r.newPassword, widgets.DefaultMeterConfig()))
	sb.WriteString("\n")
	sb.WriteString(styles.Help.Render("esc back to sign in"))

	return sb.String()
}
