// ABOUTME: Password strength scoring used to gate password resets
// ABOUTME: Additive fixed-weight evaluator with display bands

package strength

import "unicode"

// MinResetScore is the minimum score a new password must reach before a
// reset request is sent to the identity service.
const MinResetScore = 50

// Band labels for display
const (
	BandWeak   = "Weak"
	BandFair   = "Fair"
	BandGood   = "Good"
	BandStrong = "Strong"
)

// Score evaluates a candidate password and returns a value in [0, 100].
// Weights are additive and independent of character order: +25 for
// length >= 8, +25 for an uppercase letter, +25 for a lowercase letter,
// +12.5 for a digit, +12.5 for a symbol (anything outside letters and
// digits). The result is clamped to 100.
func Score(password string) float64 {
	var score float64

	if len(password) >= 8 {
		score += 25
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	if hasUpper {
		score += 25
	}
	if hasLower {
		score += 25
	}
	if hasDigit {
		score += 12.5
	}
	if hasSymbol {
		score += 12.5
	}

	if score > 100 {
		score = 100
	}
	return score
}

// Band returns the display label for a score.
func Band(score float64) string {
	switch {
	case score < 25:
		return BandWeak
	case score < 50:
		return BandFair
	case score < 75:
		return BandGood
	default:
		return BandStrong
	}
}

// MeetsResetPolicy reports whether a password is strong enough to submit
// as a reset. Rejection here is local; no network call is made.
func MeetsResetPolicy(password string) bool {
	return Score(password) >= MinResetScore
}
