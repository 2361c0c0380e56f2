// ABOUTME: Login screen as a bubbletea child model
// ABOUTME: Collects role, email, password, and remember-me, emitting typed msgs upward

package login

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/schooltrack/schooltrack-cli/internal/enrollment"
	"github.com/schooltrack/schooltrack-cli/internal/gateway"
	"github.com/schooltrack/schooltrack-cli/internal/tui/icons"
	"github.com/schooltrack/schooltrack-cli/internal/tui/remember"
	"github.com/schooltrack/schooltrack-cli/internal/tui/styles"
)

// SubmitMsg is sent when the form completes with gated values
type SubmitMsg struct {
	Input gateway.LoginRequest
}

// ForgotMsg is sent when the user asks for password recovery
type ForgotMsg struct{}

// SignUpMsg is sent when the user asks to create an account
type SignUpMsg struct{}

var roleOptions = []huh.Option[string]{
	huh.NewOption("Student", string(enrollment.RoleStudent)),
	huh.NewOption("Teacher", string(enrollment.RoleTeacher)),
	huh.NewOption("Administrator", string(enrollment.RoleAdmin)),
}

// Login is the login screen model
type Login struct {
	form       *huh.Form
	spin       spinner.Model
	role       string
	email      string
	password   string
	remember   bool
	errMsg     string
	banner     string
	submitting bool
	width      int
}

// New creates the login screen, prefilled from the remember-me store
func New(prefill remember.Prefill) *Login {
	l := &Login{
		role:  string(enrollment.RoleStudent),
		email: prefill.Email,
		spin: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(styles.Primary)),
		),
	}
	if enrollment.Role(prefill.Role).Valid() {
		l.role = prefill.Role
		l.remember = true
	}
	l.form = l.buildForm()
	return l
}

func (l *Login) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Role").
				Options(roleOptions...).
				Value(&l.role),
			huh.NewInput().
				Title("Email").
				Placeholder("you@school.edu").
				Value(&l.email).
				Validate(requireValue("email is required")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&l.password).
				Validate(requireValue("password is required")),
			huh.NewConfirm().
				Title("Remember me").
				Affirmative("Yes").
				Negative("No").
				Value(&l.remember),
		).Title("Sign In").
			Description("Enter your SchoolTrack credentials"),
	).WithTheme(styles.FormTheme())
}

func requireValue(msg string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s", msg)
		}
		return nil
	}
}

// Init implements tea.Model
func (l *Login) Init() tea.Cmd {
	return l.form.Init()
}

// Update implements tea.Model
func (l *Login) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		l.width = msg.Width

	case spinner.TickMsg:
		if !l.submitting {
			return l, nil
		}
		var cmd tea.Cmd
		l.spin, cmd = l.spin.Update(msg)
		return l, cmd

	case tea.KeyMsg:
		if l.submitting {
			// One submission in flight at a time; the form is inert.
			return l, nil
		}
		switch msg.String() {
		case "ctrl+f":
			return l, func() tea.Msg { return ForgotMsg{} }
		case "ctrl+n":
			return l, func() tea.Msg { return SignUpMsg{} }
		}
	}

	form, cmd := l.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		l.form = f
	}

	if l.form.State == huh.StateCompleted && !l.submitting {
		l.submitting = true
		l.errMsg = ""
		input := gateway.LoginRequest{
			Role:     enrollment.Role(l.role),
			Email:    l.email,
			Password: l.password,
			Remember: l.remember,
		}
		return l, tea.Batch(
			func() tea.Msg { return SubmitMsg{Input: input} },
			l.spin.Tick,
		)
	}

	return l, cmd
}

// SetError reports a failed submission. The view stays put and every
// entered value survives; only the form machinery is rebuilt so it can
// be submitted again.
func (l *Login) SetError(msg string) tea.Cmd {
	l.errMsg = msg
	l.banner = ""
	l.submitting = false
	l.form = l.buildForm()
	return l.form.Init()
}

// SetBanner shows a success notice above the form, e.g. after
// registration completes.
func (l *Login) SetBanner(msg string) {
	l.banner = msg
}

// Email returns the currently entered email
func (l *Login) Email() string {
	return l.email
}

// Submitting reports whether a login call is in flight
func (l *Login) Submitting() bool {
	return l.submitting
}

// View implements tea.Model
func (l *Login) View() string {
	var sb strings.Builder

	if l.banner != "" {
		sb.WriteString(styles.SuccessBanner.Render(icons.CheckOK.String() + " " + l.banner))
		sb.WriteString("\n")
	}
	if l.errMsg != "" {
		sb.WriteString(styles.ErrorBanner.Render(icons.Critical.String() + " " + l.errMsg))
		sb.WriteString("\n")
	}

	if l.submitting {
		sb.WriteString(l.spin.View())
		sb.WriteString(styles.Subtitle.Render("Signing in..."))
		sb.WriteString("\n")
	}

	sb.WriteString(l.form.View())
	sb.WriteString("\n")
	sb.WriteString(styles.Help.Render("ctrl+f forgot password  ctrl+n create account"))

	return sb.String()
}
