package components

import (
	"fmt"
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/coursegen/internal/ui/theme"
)

// Score bands for a graded bar.
const (
	scoreLow  = 0.5
	scoreHigh = 0.8
)

// ProgressBar is a horizontal bar for a ratio in [0,1]. A graded bar
// colors its fill by score band instead of the plain theme color.
type ProgressBar struct {
	Label  string
	Ratio  float64
	Width  int
	Graded bool
}

// NewProgressBar creates a plain progress bar. ratio is clamped to [0,1].
func NewProgressBar(label string, ratio float64, width int) ProgressBar {
	return ProgressBar{Label: label, Ratio: max(0, min(1, ratio)), Width: width}
}

// NewScoreBar creates a graded bar for a 0-100 score.
func NewScoreBar(label string, score, width int) ProgressBar {
	b := NewProgressBar(label, float64(score)/100, width)
	b.Graded = true
	return b
}

func (p ProgressBar) fill() color.Color {
	if !p.Graded {
		return theme.Secondary
	}
	switch {
	case p.Ratio >= scoreHigh:
		return theme.Success
	case p.Ratio >= scoreLow:
		return theme.Accent
	default:
		return theme.Error
	}
}

func (p ProgressBar) View() string {
	var b strings.Builder
	if p.Label != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Render(p.Label))
		b.WriteString("  ")
	}

	const pctWidth = 6
	barWidth := max(p.Width-lipgloss.Width(b.String())-pctWidth, 4)
	filled := max(0, min(barWidth, int(float64(barWidth)*p.Ratio)))

	b.WriteString(lipgloss.NewStyle().Background(p.fill()).Render(strings.Repeat(" ", filled)))
	b.WriteString(lipgloss.NewStyle().Background(theme.Border).Render(strings.Repeat(" ", barWidth-filled)))
	b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).
		Render(fmt.Sprintf("  %d%%", int(p.Ratio*100+0.5))))
	return b.String()
}
