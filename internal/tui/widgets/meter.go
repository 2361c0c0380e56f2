// ABOUTME: Password strength meter widget
// ABOUTME: Renders the live strength score as a colored bar with its band label

package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/schooltrack/schooltrack-cli/internal/strength"
)

// MeterConfig holds configuration for the strength meter
type MeterConfig struct {
	Width       int
	WeakColor   lipgloss.Color
	FairColor   lipgloss.Color
	GoodColor   lipgloss.Color
	StrongColor lipgloss.Color
	EmptyColor  lipgloss.Color
}

// DefaultMeterConfig returns sensible defaults
func DefaultMeterConfig() MeterConfig {
	return MeterConfig{
		Width:       24,
		WeakColor:   lipgloss.Color("#EF4444"), // Red
		FairColor:   lipgloss.Color("#F59E0B"), // Amber
		GoodColor:   lipgloss.Color("#06B6D4"), // Cyan
		StrongColor: lipgloss.Color("#10B981"), // Green
		EmptyColor:  lipgloss.Color("#374151"), // Dark gray
	}
}

// bandColor maps a band label to its display color
func bandColor(band string, config MeterConfig) lipgloss.Color {
	switch band {
	case strength.BandWeak:
		return config.WeakColor
	case strength.BandFair:
		return config.FairColor
	case strength.BandGood:
		return config.GoodColor
	default:
		return config.StrongColor
	}
}

// Meter renders a strength bar for the given score
func Meter(score float64, config MeterConfig) string {
	if config.Width <= 0 {
		config.Width = 24
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	filled := int(score / 100.0 * float64(config.Width))
	if filled > config.Width {
		filled = config.Width
	}

	color := bandColor(strength.Band(score), config)

	var bar strings.Builder
	bar.WriteString("[")
	bar.WriteString(lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled)))
	bar.WriteString(lipgloss.NewStyle().Foreground(config.EmptyColor).Render(strings.Repeat("░", config.Width-filled)))
	bar.WriteString("]")
	return bar.String()
}

// MeterWithBand renders the strength bar followed by its band label
func MeterWithBand(score float64, config MeterConfig) string {
	band := strength.Band(score)
	label := lipgloss.NewStyle().Foreground(bandColor(band, config)).Bold(true).Render(band)
	return fmt.Sprintf("%s %s", Meter(score, config), label)
}

// MeterForPassword evaluates a password and renders its meter line.
// Below the reset threshold a hint is appended so the user knows why
// submission will be blocked.
func MeterForPassword(password string, config MeterConfig) string {
	score := strength.Score(password)
	line := MeterWithBand(score, config)
	if score < strength.MinResetScore {
		hint := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).
			Render(fmt.Sprintf("(needs %s or better)", strength.BandGood))
		line += " " + hint
	}
	return line
}
