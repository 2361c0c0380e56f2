// ABOUTME: Forgot-password screen as a bubbletea child model
// ABOUTME: Collects an email for reset requests and shows an in-view confirmation sub-state

package forgot

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/schooltrack/schooltrack-cli/internal/enrollment"
	"github.com/schooltrack/schooltrack-cli/internal/tui/icons"
	"github.com/schooltrack/schooltrack-cli/internal/tui/styles"
)

// SubmitMsg is sent when a syntactically valid email is submitted
type SubmitMsg struct {
	Email string
}

// BackMsg is sent when the user returns to the login screen
type BackMsg struct{}

// Forgot is the forgot-password screen model
type Forgot struct {
	form       *huh.Form
	email      string
	confirmed  bool
	errMsg     string
	submitting bool
}

// New creates the forgot-password screen
func New() *Forgot {
	f := &Forgot{}
	f.form = f.buildForm()
	return f
}

func (f *Forgot) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Placeholder("you@school.edu").
				Description("We'll send a reset link to this address").
				Value(&f.email).
				Validate(validateEmail),
		).Title("Forgot Password").
			Description("Request a password reset link"),
	).WithTheme(styles.FormTheme())
}

func validateEmail(s string) error {
	if !enrollment.ValidEmail(s) {
		return fmt.Errorf("enter a valid email address")
	}
	return nil
}

// Init implements tea.Model
func (f *Forgot) Init() tea.Cmd {
	return f.form.Init()
}

// Update implements tea.Model
func (f *Forgot) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		if f.submitting {
			return f, nil
		}
		if f.confirmed {
			switch key.String() {
			case "t":
				// Try another email; keep the entered value as a start.
				f.confirmed = false
				f.form = f.buildForm()
				return f, f.form.Init()
			case "enter", "b", "esc":
				return f, func() tea.Msg { return BackMsg{} }
			}
			return f, nil
		}
		if key.String() == "esc" {
			return f, func() tea.Msg { return BackMsg{} }
		}
	}

	if f.confirmed {
		return f, nil
	}

	form, cmd := f.form.Update(msg)
	if frm, ok := form.(*huh.Form); ok {
		f.form = frm
	}

	if f.form.State == huh.StateCompleted && !f.submitting {
		f.submitting = true
		f.errMsg = ""
		email := f.email
		return f, func() tea.Msg { return SubmitMsg{Email: email} }
	}

	return f, cmd
}

// ShowConfirmation switches to the confirmation sub-state after the
// reset request succeeds. The view does not change screens; it shows
// which address the link went to.
func (f *Forgot) ShowConfirmation() {
	f.submitting = false
	f.confirmed = true
	f.errMsg = ""
}

// SetError reports a failed reset request, keeping the entered email.
func (f *Forgot) SetError(msg string) tea.Cmd {
	f.errMsg = msg
	f.submitting = false
	f.form = f.buildForm()
	return f.form.Init()
}

// Email returns the currently entered email
func (f *Forgot) Email() string {
	return f.email
}

// Confirmed reports whether the confirmation sub-state is showing
func (f *Forgot) Confirmed() bool {
	return f.confirmed
}

// View implements tea.Model
func (f *Forgot) View() string {
	if f.confirmed {
		var sb strings.Builder
		sb.WriteString(styles.Title.Render(icons.Mail.String() + " Check your email"))
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("If an account exists for %s, a reset link is on its way.\n", styles.ValueStyle.Render(f.email)))
		sb.WriteString("\n")
		sb.WriteString(styles.Help.Render("t try another email  enter back to sign in"))
		return sb.String()
	}

	var sb strings.Builder
	if f.errMsg != "" {
		sb.WriteString(styles.ErrorBanner.Render(icons.Critical.String() + " " + f.errMsg))
		sb.WriteString("\n")
	}
	if f.submitting {
		sb.WriteString(styles.Subtitle.Render("Sending reset link..."))
		sb.WriteString("\n")
	}
	sb.WriteString(f.form.View())
	sb.WriteString("\n")
	sb.WriteString(styles.Help.Render("esc back to sign in"))
	return sb.String()
}
