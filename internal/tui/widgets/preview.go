// ABOUTME: Terminal preview of a captured enrollment photo
// ABOUTME: Downsamples the frame into half-block cells with truecolor foreground/background

package widgets

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/schooltrack/schooltrack-cli/internal/capture"
)

// PreviewConfig controls the rendered preview size in terminal cells.
type PreviewConfig struct {
	Cols int
	Rows int
}

// DefaultPreviewConfig keeps the 4:3 capture aspect in terminal cells.
func DefaultPreviewConfig() PreviewConfig {
	return PreviewConfig{Cols: 40, Rows: 15}
}

// Preview renders the frame as colored half-block characters. Each cell
// shows two vertically stacked samples: the upper pixel as foreground
// on "▀", the lower as background. Returns an error placeholder string
// when the frame bytes cannot be decoded.
func Preview(frame *capture.Frame, config PreviewConfig) string {
	if frame == nil || len(frame.Data) == 0 {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Render("(no photo)")
	}
	if config.Cols <= 0 || config.Rows <= 0 {
		config = DefaultPreviewConfig()
	}

	img, _, err := image.Decode(bytes.NewReader(frame.Data))
	if err != nil {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Render("(photo preview unavailable)")
	}

	bounds := img.Bounds()
	var sb strings.Builder
	for row := 0; row < config.Rows; row++ {
		for col := 0; col < config.Cols; col++ {
			top := sampleAt(img, bounds, col, row*2, config.Cols, config.Rows*2)
			bottom := sampleAt(img, bounds, col, row*2+1, config.Cols, config.Rows*2)
			sb.WriteString(lipgloss.NewStyle().
				Foreground(top).
				Background(bottom).
				Render("▀"))
		}
		if row < config.Rows-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// sampleAt maps a preview grid position onto the source image and
// returns the pixel color there as a lipgloss truecolor value.
func sampleAt(img image.Image, bounds image.Rectangle, x, y, gridW, gridH int) lipgloss.Color {
	srcX := bounds.Min.X + x*bounds.Dx()/gridW
	srcY := bounds.Min.Y + y*bounds.Dy()/gridH
	r, g, b, _ := img.At(srcX, srcY).RGBA()
	return lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", uint8(r>>8), uint8(g>>8), uint8(b>>8)))
}
