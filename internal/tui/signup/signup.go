// ABOUTME: Sign-up enrollment wizard as a bubbletea child model
// ABOUTME: Three steps (profile, credentials, photo) with the submit action inert until a photo is captured

package signup

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/schooltrack/schooltrack-cli/internal/capture"
	"github.com/schooltrack/schooltrack-cli/internal/enrollment"
	"github.com/schooltrack/schooltrack-cli/internal/tui/debuglog"
	"github.com/schooltrack/schooltrack-cli/internal/tui/icons"
	"github.com/schooltrack/schooltrack-cli/internal/tui/styles"
	"github.com/schooltrack/schooltrack-cli/internal/tui/widgets"
)

// SubmitMsg is sent when every field validates and a photo is held
type SubmitMsg struct {
	Payload enrollment.Payload
	Photo   *capture.Frame
}

// CancelMsg is sent when the user abandons enrollment
type CancelMsg struct{}

// cameraStartedMsg reports the outcome of a camera acquisition
type cameraStartedMsg struct {
	err error
}

// photoCapturedMsg reports the outcome of a frame capture
type photoCapturedMsg struct {
	frame *capture.Frame
	err   error
}

// Wizard steps
const (
	stepProfile = 1 + iota
	stepCredentials
	stepPhoto
)

// Step names for progress indicator
var stepNames = []string{"Profile", "Credentials", "Photo"}

var roleOptions = []huh.Option[string]{
	huh.NewOption("Student", string(enrollment.RoleStudent)),
	huh.NewOption("Teacher", string(enrollment.RoleTeacher)),
	huh.NewOption("Administrator", string(enrollment.RoleAdmin)),
}

// SignUp manages the enrollment wizard flow as a bubbletea model
type SignUp struct {
	session *capture.Session
	form    *huh.Form
	step    int
	width   int

	// Form field values
	role       string
	firstName  string
	lastName   string
	email      string
	identifier string
	password   string
	confirm    string

	camErr     string
	errMsg     string
	submitting bool
}

// New creates the enrollment wizard over the given capture session
func New(session *capture.Session) *SignUp {
	s := &SignUp{
		session: session,
		step:    stepProfile,
		role:    string(enrollment.RoleStudent),
	}
	s.form = s.createProfileForm()
	return s
}

func (s *SignUp) createProfileForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Role").
				Options(roleOptions...).
				Value(&s.role),
			huh.NewInput().
				Title("First name").
				Value(&s.firstName).
				Validate(validateName("first name")),
			huh.NewInput().
				Title("Last name").
				Value(&s.lastName).
				Validate(validateName("last name")),
			huh.NewInput().
				Title("Email").
				Placeholder("you@school.edu").
				Value(&s.email).
				Validate(func(v string) error {
					if !enrollment.ValidEmail(v) {
						return fmt.Errorf("enter a valid email address")
					}
					return nil
				}),
		).Title("Step 1: Profile").
			Description("Who is enrolling?"),
	).WithTheme(styles.FormTheme())
}

func (s *SignUp) createCredentialsForm() *huh.Form {
	role := enrollment.Role(s.role)
	idTitle := "Student ID"
	idPlaceholder := "e.g., S-2024-118"
	if role != enrollment.RoleStudent {
		idTitle = "Employee ID"
		idPlaceholder = "e.g., E-0042"
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(idTitle).
				Placeholder(idPlaceholder).
				Value(&s.identifier).
				Validate(func(v string) error {
					if strings.TrimSpace(v) == "" {
						return fmt.Errorf("%s is required", role.IdentifierLabel())
					}
					return nil
				}),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&s.password).
				Validate(func(v string) error {
					if len(v) < enrollment.MinPasswordLength {
						return fmt.Errorf("password must be at least 8 characters")
					}
					return nil
				}),
			huh.NewInput().
				Title("Confirm password").
				EchoMode(huh.EchoModePassword).
				Value(&s.confirm).
				Validate(func(v string) error {
					if v != s.password {
						return fmt.Errorf("passwords do not match")
					}
					return nil
				}),
		).Title("Step 2: Credentials").
			Description("Set your institutional identifier and password"),
	).WithTheme(styles.FormTheme())
}

func validateName(label string) func(string) error {
	return func(v string) error {
		if len(strings.TrimSpace(v)) < 2 {
			return fmt.Errorf("%s must be at least 2 characters", label)
		}
		return nil
	}
}

// Payload assembles the enrollment payload from the entered fields
func (s *SignUp) Payload() enrollment.Payload {
	return enrollment.Payload{
		Role:       enrollment.Role(s.role),
		FirstName:  s.firstName,
		LastName:   s.lastName,
		Email:      s.email,
		Identifier: s.identifier,
		Password:   s.password,
		Confirm:    s.confirm,
	}
}

// Init implements tea.Model
func (s *SignUp) Init() tea.Cmd {
	return s.form.Init()
}

// Update implements tea.Model
func (s *SignUp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = msg.Width

	case cameraStartedMsg:
		if msg.err != nil {
			debuglog.Warn("camera acquisition failed: %v", msg.err)
			if errors.Is(msg.err, capture.ErrAccessDenied) {
				s.camErr = "camera access denied; the form is kept, capture a photo once access is granted"
			} else {
				s.camErr = "camera unavailable: " + msg.err.Error()
			}
		} else {
			s.camErr = ""
		}
		return s, nil

	case photoCapturedMsg:
		if msg.err != nil {
			debuglog.Warn("frame capture failed: %v", msg.err)
			s.camErr = "capture failed: " + msg.err.Error()
		} else {
			s.camErr = ""
		}
		return s, nil

	case tea.KeyMsg:
		if s.submitting {
			return s, nil
		}
		if s.step == stepPhoto {
			return s.updatePhoto(msg)
		}
		if msg.String() == "esc" {
			return s, s.cancel()
		}
	}

	if s.step == stepPhoto {
		return s, nil
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		return s.advanceStep()
	}

	return s, cmd
}

func (s *SignUp) advanceStep() (tea.Model, tea.Cmd) {
	switch s.step {
	case stepProfile:
		s.step = stepCredentials
		s.form = s.createCredentialsForm()
		return s, s.form.Init()

	case stepCredentials:
		s.step = stepPhoto
		// The camera starts as soon as the photo step opens.
		return s, s.startCamera()
	}

	return s, nil
}

func (s *SignUp) updatePhoto(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "c":
		switch s.session.State() {
		case capture.StateLive:
			return s, s.capturePhoto()
		case capture.StateIdle, capture.StateError:
			return s, s.startCamera()
		}
		return s, nil

	case "r":
		return s, s.retakePhoto()

	case "x", "esc":
		return s, s.cancel()

	case "enter":
		// Inert without a captured photo: no error, no call, nothing.
		if s.session.Frame() == nil {
			return s, nil
		}
		payload := s.Payload()
		if errs := payload.Validate(); len(errs) > 0 {
			s.errMsg = errs[0].Message
			return s, nil
		}
		s.submitting = true
		s.errMsg = ""
		photo := s.session.Frame()
		return s, func() tea.Msg { return SubmitMsg{Payload: payload, Photo: photo} }
	}

	return s, nil
}

func (s *SignUp) startCamera() tea.Cmd {
	return func() tea.Msg {
		return cameraStartedMsg{err: s.session.Start(context.Background())}
	}
}

func (s *SignUp) capturePhoto() tea.Cmd {
	return func() tea.Msg {
		frame, err := s.session.Capture(context.Background())
		return photoCapturedMsg{frame: frame, err: err}
	}
}

func (s *SignUp) retakePhoto() tea.Cmd {
	return func() tea.Msg {
		return cameraStartedMsg{err: s.session.Retake(context.Background())}
	}
}

func (s *SignUp) cancel() tea.Cmd {
	s.session.Stop()
	return func() tea.Msg { return CancelMsg{} }
}

// SetError reports a failed registration. The wizard stays on the photo
// step with every field and the captured photo intact.
func (s *SignUp) SetError(msg string) {
	s.errMsg = msg
	s.submitting = false
}

// Close releases the capture session; the parent calls this on any
// teardown path.
func (s *SignUp) Close() {
	s.session.Stop()
}

// HasPhoto reports whether an artifact is held
func (s *SignUp) HasPhoto() bool {
	return s.session.Frame() != nil
}

// Submitting reports whether a registration call is in flight
func (s *SignUp) Submitting() bool {
	return s.submitting
}

// Step returns the current wizard step (1-based)
func (s *SignUp) Step() int {
	return s.step
}

// View implements tea.Model
func (s *SignUp) View() string {
	var sb strings.Builder

	sb.WriteString(s.renderProgress())
	sb.WriteString("\n\n")

	if s.errMsg != "" {
		sb.WriteString(styles.ErrorBanner.Render(icons.Critical.String() + " " + s.errMsg))
		sb.WriteString("\n")
	}

	if s.step == stepPhoto {
		sb.WriteString(s.viewPhoto())
	} else {
		sb.WriteString(s.form.View())
		if s.step == stepCredentials {
			sb.WriteString("\n")
			sb.WriteString("Strength: " + widgets.MeterForPassword(s.password, widgets.DefaultMeterConfig()))
		}
		sb.WriteString("\n")
		sb.WriteString(styles.Help.Render("esc cancel enrollment"))
	}

	return sb.String()
}

func (s *SignUp) viewPhoto() string {
	var sb strings.Builder

	sb.WriteString(styles.Title.Render(icons.Camera.String() + " Enrollment Photo"))
	sb.WriteString("\n")
	sb.WriteString(widgets.CaptureBadge(s.session.State(), s.HasPhoto()))
	sb.WriteString("\n\n")

	if frame := s.session.Frame(); frame != nil {
		sb.WriteString(widgets.Preview(frame, widgets.DefaultPreviewConfig()))
		sb.WriteString("\n\n")
	} else if s.session.State() == capture.StateLive {
		sb.WriteString(styles.Subtitle.Render("Camera is live. Face the camera and press c to capture."))
		sb.WriteString("\n")
	}

	if s.camErr != "" {
		sb.WriteString(styles.StatusCritical.Render(icons.Warning.String() + " " + s.camErr))
		sb.WriteString("\n")
	}
	if s.submitting {
		sb.WriteString(styles.Subtitle.Render("Creating account..."))
		sb.WriteString("\n")
	}

	shortcuts := []string{"c capture", "r retake", "x cancel"}
	if s.HasPhoto() && !s.submitting {
		shortcuts = append([]string{"enter create account"}, shortcuts...)
	}
	sb.WriteString(styles.Help.Render(strings.Join(shortcuts, "  ")))

	return sb.String()
}

// renderProgress renders the step progress indicator
func (s *SignUp) renderProgress() string {
	width := s.width - 1
	if width < 60 {
		width = 60
	}

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary)

	var steps []string
	for i, name := range stepNames {
		stepNum := i + 1
		var indicator string
		var nameStyle lipgloss.Style

		if stepNum < s.step {
			indicator = lipgloss.NewStyle().Foreground(styles.Secondary).Render(icons.CheckOK.String())
			nameStyle = lipgloss.NewStyle().Foreground(styles.Muted)
		} else if stepNum == s.step {
			indicator = lipgloss.NewStyle().Foreground(styles.Primary).Bold(true).Render("●")
			nameStyle = lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
		} else {
			indicator = lipgloss.NewStyle().Foreground(styles.Muted).Render("○")
			nameStyle = lipgloss.NewStyle().Foreground(styles.Muted)
		}

		steps = append(steps, fmt.Sprintf("%s %s", indicator, nameStyle.Render(name)))
	}

	stepsLine := strings.Join(steps, "    ")

	barWidth := width - 5
	totalSteps := len(stepNames)
	filledWidth := (s.step * barWidth) / totalSteps
	emptyWidth := barWidth - filledWidth

	filledBar := lipgloss.NewStyle().Foreground(styles.Primary).Render(strings.Repeat("━", filledWidth))
	emptyBar := lipgloss.NewStyle().Foreground(styles.Surface).Render(strings.Repeat("─", emptyWidth))
	progressBar := filledBar + emptyBar

	styledTitle := titleStyle.Render("Enrollment")
	titleWidth := lipgloss.Width("Enrollment")

	topFillWidth := max(0, width-5-titleWidth)
	topBorder := "┌─ " + styledTitle + " " + strings.Repeat("─", topFillWidth) + "┐"

	stepsLineWidth := lipgloss.Width(stepsLine)
	stepsPadding := max(0, width-4-stepsLineWidth)
	stepsLinePadded := "│ " + stepsLine + strings.Repeat(" ", stepsPadding) + " │"

	progressLinePadded := "│  " + progressBar + " │"

	bottomFillWidth := width - 2
	bottomBorder := "└" + strings.Repeat("─", bottomFillWidth) + "┘"

	return borderStyle.Render(strings.Join([]string{
		topBorder,
		stepsLinePadded,
		progressLinePadded,
		bottomBorder,
	}, "\n"))
}
