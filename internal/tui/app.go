// ABOUTME: Root bubbletea model for the authentication TUI
// ABOUTME: Owns the view state machine and routes gateway completions back to the live submission

package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/schooltrack/schooltrack-cli/internal/capture"
	"github.com/schooltrack/schooltrack-cli/internal/enrollment"
	"github.com/schooltrack/schooltrack-cli/internal/gateway"
	"github.com/schooltrack/schooltrack-cli/internal/tui/debuglog"
	"github.com/schooltrack/schooltrack-cli/internal/tui/forgot"
	"github.com/schooltrack/schooltrack-cli/internal/tui/icons"
	"github.com/schooltrack/schooltrack-cli/internal/tui/login"
	"github.com/schooltrack/schooltrack-cli/internal/tui/remember"
	"github.com/schooltrack/schooltrack-cli/internal/tui/reset"
	"github.com/schooltrack/schooltrack-cli/internal/tui/signup"
	"github.com/schooltrack/schooltrack-cli/internal/tui/styles"
)

// View identifies the active auth screen
type View int

const (
	ViewLogin View = iota
	ViewForgotPassword
	ViewResetPassword
	ViewResetSuccess
	ViewSignUp
)

func (v View) String() string {
	switch v {
	case ViewLogin:
		return "login"
	case ViewForgotPassword:
		return "forgot_password"
	case ViewResetPassword:
		return "reset_password"
	case ViewResetSuccess:
		return "reset_success"
	case ViewSignUp:
		return "sign_up"
	}
	return "unknown"
}

// Layout constants
const minTerminalWidth = 80

// loginDoneMsg is sent when a login call resolves
type loginDoneMsg struct {
	seq     int
	input   gateway.LoginRequest
	session *gateway.Session
	err     error
}

// resetRequestedMsg is sent when a reset-request call resolves
type resetRequestedMsg struct {
	seq int
	err error
}

// resetConfirmedMsg is sent when a reset-confirmation call resolves
type resetConfirmedMsg struct {
	seq int
	err error
}

// registeredMsg is sent when a registration call resolves
type registeredMsg struct {
	seq     int
	account *gateway.Account
	err     error
}

// App is the root model for the auth TUI
type App struct {
	client *gateway.Client
	device capture.Device
	view   View
	width  int
	height int

	// seq tags the in-flight submission. Completions carrying an older
	// seq resolved after navigation or teardown and are dropped.
	seq        int
	submitting bool

	// Child models
	loginView  *login.Login
	forgotView *forgot.Forgot
	resetView  *reset.Reset
	signupView *signup.SignUp

	rememberStore *remember.Store

	// Set on successful login; read by the caller after Run returns.
	session *gateway.Session
	account *gateway.Account
}

// New creates the auth TUI. A non-empty resetToken opens the
// reset-password view directly, as a reset link would.
func New(client *gateway.Client, device capture.Device, resetToken string) *App {
	a := &App{
		client:        client,
		device:        device,
		view:          ViewLogin,
		rememberStore: remember.New(remember.DefaultConfigDir()),
	}
	a.loginView = login.New(a.rememberStore.Load())
	if resetToken != "" {
		a.view = ViewResetPassword
		a.resetView = reset.New(resetToken)
	}
	return a
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	if a.view == ViewResetPassword {
		return a.resetView.Init()
	}
	return a.loginView.Init()
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a.forwardToChild(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, a.teardown()
		}
		if a.view == ViewResetSuccess {
			switch msg.String() {
			case "enter", "b", "esc":
				return a.showLogin(nil)
			case "q":
				return a, a.teardown()
			}
			return a, nil
		}
		return a.forwardToChild(msg)

	case login.SubmitMsg:
		return a.submitLogin(msg.Input)

	case login.ForgotMsg:
		a.view = ViewForgotPassword
		a.forgotView = forgot.New()
		return a, a.forgotView.Init()

	case login.SignUpMsg:
		a.view = ViewSignUp
		a.signupView = signup.New(capture.NewSession(a.device))
		return a, a.signupView.Init()

	case forgot.SubmitMsg:
		return a.submitResetRequest(msg.Email)

	case forgot.BackMsg:
		return a.showLogin(nil)

	case reset.SubmitMsg:
		return a.submitResetConfirmation(msg.Token, msg.NewPassword)

	case reset.BackMsg:
		return a.showLogin(nil)

	case signup.SubmitMsg:
		return a.submitRegistration(msg.Payload, msg.Photo)

	case signup.CancelMsg:
		a.closeSignup()
		return a.showLogin(nil)

	case loginDoneMsg:
		return a.handleLoginDone(msg)

	case resetRequestedMsg:
		return a.handleResetRequested(msg)

	case resetConfirmedMsg:
		return a.handleResetConfirmed(msg)

	case registeredMsg:
		return a.handleRegistered(msg)

	default:
		// Forward unknown messages to the active child (needed for huh
		// form internals and capture completions).
		return a.forwardToChild(msg)
	}
}

// forwardToChild routes a message to the active screen's model
func (a *App) forwardToChild(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch a.view {
	case ViewLogin:
		if a.loginView == nil {
			return a, nil
		}
		model, cmd := a.loginView.Update(msg)
		a.loginView = model.(*login.Login)
		return a, cmd
	case ViewForgotPassword:
		if a.forgotView == nil {
			return a, nil
		}
		model, cmd := a.forgotView.Update(msg)
		a.forgotView = model.(*forgot.Forgot)
		return a, cmd
	case ViewResetPassword:
		if a.resetView == nil {
			return a, nil
		}
		model, cmd := a.resetView.Update(msg)
		a.resetView = model.(*reset.Reset)
		return a, cmd
	case ViewSignUp:
		if a.signupView == nil {
			return a, nil
		}
		model, cmd := a.signupView.Update(msg)
		a.signupView = model.(*signup.SignUp)
		return a, cmd
	}
	return a, nil
}

// showLogin returns to the login view, creating it if needed. banner is
// optional success text.
func (a *App) showLogin(banner *string) (tea.Model, tea.Cmd) {
	a.view = ViewLogin
	a.submitting = false
	if a.loginView == nil {
		a.loginView = login.New(a.rememberStore.Load())
	}
	if banner != nil {
		a.loginView.SetBanner(*banner)
	}
	return a, a.loginView.Init()
}

// closeSignup releases the capture session and drops the wizard
func (a *App) closeSignup() {
	if a.signupView != nil {
		a.signupView.Close()
		a.signupView = nil
	}
}

// teardown stops any open device handle before quitting
func (a *App) teardown() tea.Cmd {
	a.closeSignup()
	// Bump seq so any in-flight completion resolves against nothing.
	a.seq++
	return tea.Quit
}

func (a *App) submitLogin(input gateway.LoginRequest) (tea.Model, tea.Cmd) {
	if a.submitting {
		return a, nil
	}
	a.seq++
	a.submitting = true
	seq := a.seq
	return a, func() tea.Msg {
		session, err := a.client.Login(context.Background(), input)
		return loginDoneMsg{seq: seq, input: input, session: session, err: err}
	}
}

func (a *App) submitResetRequest(email string) (tea.Model, tea.Cmd) {
	if a.submitting {
		return a, nil
	}
	a.seq++
	a.submitting = true
	seq := a.seq
	return a, func() tea.Msg {
		err := a.client.RequestPasswordReset(context.Background(), email)
		return resetRequestedMsg{seq: seq, err: err}
	}
}

func (a *App) submitResetConfirmation(token, newPassword string) (tea.Model, tea.Cmd) {
	if a.submitting {
		return a, nil
	}
	a.seq++
	a.submitting = true
	seq := a.seq
	return a, func() tea.Msg {
		err := a.client.ConfirmPasswordReset(context.Background(), token, newPassword)
		return resetConfirmedMsg{seq: seq, err: err}
	}
}

func (a *App) submitRegistration(payload enrollment.Payload, photo *capture.Frame) (tea.Model, tea.Cmd) {
	if a.submitting {
		return a, nil
	}
	a.seq++
	a.submitting = true
	seq := a.seq
	input := gateway.NewRegisterRequest(payload, photo)
	return a, func() tea.Msg {
		account, err := a.client.Register(context.Background(), input)
		return registeredMsg{seq: seq, account: account, err: err}
	}
}

func (a *App) handleLoginDone(msg loginDoneMsg) (tea.Model, tea.Cmd) {
	if msg.seq != a.seq {
		debuglog.Log("dropping stale login completion (seq %d, live %d)", msg.seq, a.seq)
		return a, nil
	}
	a.submitting = false

	if msg.err != nil {
		debuglog.Error("login", msg.err)
		if a.view == ViewLogin && a.loginView != nil {
			return a, a.loginView.SetError(msg.err.Error())
		}
		return a, nil
	}

	if msg.input.Remember {
		a.rememberStore.Save(remember.Prefill{Email: msg.input.Email, Role: string(msg.input.Role)})
	} else {
		a.rememberStore.Clear()
	}

	a.session = msg.session
	return a, tea.Quit
}

func (a *App) handleResetRequested(msg resetRequestedMsg) (tea.Model, tea.Cmd) {
	if msg.seq != a.seq {
		debuglog.Log("dropping stale reset-request completion")
		return a, nil
	}
	a.submitting = false

	if a.view != ViewForgotPassword || a.forgotView == nil {
		return a, nil
	}
	if msg.err != nil {
		debuglog.Error("reset-request", msg.err)
		return a, a.forgotView.SetError(msg.err.Error())
	}

	// Success stays on this view; the confirmation names the email.
	a.forgotView.ShowConfirmation()
	return a, nil
}

func (a *App) handleResetConfirmed(msg resetConfirmedMsg) (tea.Model, tea.Cmd) {
	if msg.seq != a.seq {
		debuglog.Log("dropping stale reset-confirm completion")
		return a, nil
	}
	a.submitting = false

	if a.view != ViewResetPassword || a.resetView == nil {
		return a, nil
	}
	if msg.err != nil {
		debuglog.Error("reset-confirm", msg.err)
		return a, a.resetView.SetError(msg.err.Error())
	}

	a.view = ViewResetSuccess
	return a, nil
}

func (a *App) handleRegistered(msg registeredMsg) (tea.Model, tea.Cmd) {
	if msg.seq != a.seq {
		debuglog.Log("dropping stale registration completion")
		return a, nil
	}
	a.submitting = false

	if a.view != ViewSignUp || a.signupView == nil {
		return a, nil
	}
	if msg.err != nil {
		debuglog.Error("register", msg.err)
		a.signupView.SetError(msg.err.Error())
		return a, nil
	}

	a.account = msg.account
	a.closeSignup()
	banner := "Account created. Sign in to continue."
	return a.showLogin(&banner)
}

// View implements tea.Model
func (a *App) View() string {
	var content string

	switch a.view {
	case ViewLogin:
		if a.loginView != nil {
			content = a.loginView.View()
		}
	case ViewForgotPassword:
		if a.forgotView != nil {
			content = a.forgotView.View()
		}
	case ViewResetPassword:
		if a.resetView != nil {
			content = a.resetView.View()
		}
	case ViewResetSuccess:
		content = a.viewResetSuccess()
	case ViewSignUp:
		if a.signupView != nil {
			content = a.signupView.View()
		}
	}

	return a.wrapWithFrame(content)
}

func (a *App) viewResetSuccess() string {
	var sb strings.Builder
	sb.WriteString(styles.Title.Render(icons.CheckOK.String() + " Password updated"))
	sb.WriteString("\n")
	sb.WriteString("Your password has been reset. Sign in with your new password.\n")
	sb.WriteString("\n")
	sb.WriteString(styles.Help.Render("enter back to sign in  q quit"))
	return sb.String()
}

// renderHeader creates the header bar with app branding and view context
func (a *App) renderHeader() string {
	width := a.width
	if width < minTerminalWidth {
		width = minTerminalWidth
	}

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	contextStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	leftText := fmt.Sprintf(" %s %s", icons.App.String(), titleStyle.Render("SchoolTrack"))
	rightText := contextStyle.Render(a.viewLabel()) + " "

	leftWidth := lipgloss.Width(leftText)
	rightWidth := lipgloss.Width(rightText)
	fillWidth := width - 4 - leftWidth - rightWidth
	if fillWidth < 0 {
		fillWidth = 0
	}

	header := "╭─" + leftText + strings.Repeat("─", fillWidth) + rightText + "─╮"
	return borderStyle.Render(header)
}

func (a *App) viewLabel() string {
	switch a.view {
	case ViewLogin:
		return "Sign In"
	case ViewForgotPassword:
		return "Forgot Password"
	case ViewResetPassword:
		return "Reset Password"
	case ViewResetSuccess:
		return "Password Updated"
	case ViewSignUp:
		return "Create Account"
	}
	return ""
}

// renderFooter creates the footer with keyboard shortcuts per view
func (a *App) renderFooter() string {
	width := a.width
	if width < minTerminalWidth {
		width = minTerminalWidth
	}

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	keyStyle := lipgloss.NewStyle().Foreground(styles.Primary)
	labelStyle := lipgloss.NewStyle().Foreground(styles.Muted)

	var shortcuts []string
	switch a.view {
	case ViewLogin:
		shortcuts = []string{"enter Submit", "ctrl+f Forgot", "ctrl+n Sign-up", "ctrl+c Quit"}
	case ViewForgotPassword:
		shortcuts = []string{"enter Submit", "esc Back", "ctrl+c Quit"}
	case ViewResetPassword:
		shortcuts = []string{"enter Submit", "esc Back", "ctrl+c Quit"}
	case ViewResetSuccess:
		shortcuts = []string{"enter Sign-in", "q Quit"}
	case ViewSignUp:
		shortcuts = []string{"enter Next", "c Capture", "r Retake", "x Cancel"}
	}

	var styledShortcuts []string
	for _, s := range shortcuts {
		parts := strings.SplitN(s, " ", 2)
		if len(parts) == 2 {
			styledShortcuts = append(styledShortcuts, keyStyle.Render(parts[0])+" "+labelStyle.Render(parts[1]))
		} else {
			styledShortcuts = append(styledShortcuts, s)
		}
	}

	leftText := " " + strings.Join(styledShortcuts, "  ")
	leftPlainText := " " + strings.Join(shortcuts, "  ")

	leftWidth := lipgloss.Width(leftPlainText)
	fillWidth := width - 4 - leftWidth
	if fillWidth < 0 {
		fillWidth = 0
	}

	footer := "╰─" + leftText + strings.Repeat("─", fillWidth) + "─╯"
	return borderStyle.Render(footer)
}

// wrapWithFrame wraps content with header and footer
func (a *App) wrapWithFrame(content string) string {
	var sb strings.Builder

	sb.WriteString(a.renderHeader())
	sb.WriteString("\n")
	sb.WriteString(content)
	sb.WriteString("\n")
	sb.WriteString(a.renderFooter())

	return sb.String()
}

// Session returns the session from a successful login, if any
func (a *App) Session() *gateway.Session {
	return a.session
}

// Run starts the auth TUI and returns the login session, if the user
// signed in before exiting.
func Run(client *gateway.Client, device capture.Device, resetToken string) (*gateway.Session, error) {
	app := New(client, device, resetToken)

	p := tea.NewProgram(
		app,
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		return nil, err
	}
	return app.session, nil
}
