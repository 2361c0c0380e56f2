// ABOUTME: Tests for the reset-password screen model
// ABOUTME: Drives the form with key events to cover the strength gate and failure handling

package reset

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// runCmd executes a command with a short timeout so re-arming cursor
// blink commands cannot stall the pump.
func runCmd(c tea.Cmd) tea.Msg {
	done := make(chan tea.Msg, 1)
	go func() { done <- c() }()
	select {
	case m := <-done:
		return m
	case <-time.After(50 * time.Millisecond):
		return nil
	}
}

// pump feeds a command's messages back into the model, collecting
// emitted submissions instead of delivering them.
func pump(t *testing.T, r *Reset, cmd tea.Cmd, submits *[]SubmitMsg) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0 && steps < 200; steps++ {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := runCmd(c).(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case SubmitMsg:
			*submits = append(*submits, msg)
		default:
			model, next := r.Update(msg)
			*r = *model.(*Reset)
			queue = append(queue, next)
		}
	}
}

// typeAndEnter types a value into the focused field and advances.
func typeAndEnter(t *testing.T, r *Reset, value string, submits *[]SubmitMsg) {
	t.Helper()
	for _, ch := range value {
		model, cmd := r.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{ch}})
		*r = *model.(*Reset)
		pump(t, r, cmd, submits)
	}
	model, cmd := r.Update(tea.KeyMsg{Type: tea.KeyEnter})
	*r = *model.(*Reset)
	pump(t, r, cmd, submits)
}

func TestBorderlinePasswordAllowedThroughForm(t *testing.T) {
	// "Weak1" scores 62.5: shorter than 8 characters but past the
	// strength threshold, so the form must let it through to submission.
	r := New("tok-1")
	var submits []SubmitMsg
	pump(t, r, r.Init(), &submits)

	typeAndEnter(t, r, "Weak1", &submits)
	typeAndEnter(t, r, "Weak1", &submits)

	if len(submits) != 1 {
		t.Fatalf("submissions = %d, want exactly 1", len(submits))
	}
	if submits[0].Token != "tok-1" || submits[0].NewPassword != "Weak1" {
		t.Errorf("SubmitMsg = %+v", submits[0])
	}
	if !r.Submitting() {
		t.Error("submitting not set after emission")
	}
}

func TestWeakPasswordBlockedLocally(t *testing.T) {
	// "weak" scores 25, below the threshold: the form completes but no
	// submission is emitted and the error must name strength.
	r := New("tok-1")
	var submits []SubmitMsg
	pump(t, r, r.Init(), &submits)

	typeAndEnter(t, r, "weak", &submits)
	typeAndEnter(t, r, "weak", &submits)

	if len(submits) != 0 {
		t.Fatalf("weak password emitted %d submissions", len(submits))
	}
	if r.submitting {
		t.Error("weak password marked as submitting")
	}
	if !strings.Contains(r.errMsg, "weak") {
		t.Errorf("error = %q, want a strength message", r.errMsg)
	}
}

func TestMismatchedConfirmationBlocked(t *testing.T) {
	r := New("tok-1")
	var submits []SubmitMsg
	pump(t, r, r.Init(), &submits)

	typeAndEnter(t, r, "Weak1", &submits)
	typeAndEnter(t, r, "Other1", &submits)

	if len(submits) != 0 {
		t.Fatalf("mismatched confirmation emitted %d submissions", len(submits))
	}
	if r.submitting {
		t.Error("mismatched confirmation marked as submitting")
	}
}

func TestTokenFieldWhenMissing(t *testing.T) {
	withToken := New("tok-1")
	if !withToken.tokenFixed {
		t.Error("token from reset link not marked fixed")
	}

	withoutToken := New("")
	if withoutToken.tokenFixed {
		t.Error("empty token marked fixed")
	}
	var submits []SubmitMsg
	pump(t, withoutToken, withoutToken.Init(), &submits)
	if !strings.Contains(withoutToken.View(), "Reset token") {
		t.Error("token input not offered when the link token is absent")
	}
}

func TestEscEmitsBack(t *testing.T) {
	r := New("tok-1")
	_, cmd := r.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("esc produced no command")
	}
	if _, ok := cmd().(BackMsg); !ok {
		t.Errorf("got %T, want BackMsg", cmd())
	}
}

func TestSetErrorPreservesValues(t *testing.T) {
	r := New("tok-1")
	r.newPassword = "Sunrise9!"
	r.confirm = "Sunrise9!"
	r.submitting = true

	r.SetError("this reset link has expired or already been used")

	if r.newPassword != "Sunrise9!" || r.confirm != "Sunrise9!" {
		t.Error("failure cleared entered values")
	}
	if r.Submitting() {
		t.Error("submitting still set after failure")
	}
	if !strings.Contains(r.View(), "expired") {
		t.Error("error message not rendered")
	}
}

func TestViewShowsStrengthMeter(t *testing.T) {
	r := New("tok-1")
	r.newPassword = "Sunrise9!"
	if !strings.Contains(r.View(), "Strength:") {
		t.Error("strength meter not rendered")
	}
}
