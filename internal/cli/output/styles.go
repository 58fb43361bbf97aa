package output

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette.
var (
	colorAccent  = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7D79F6"}
	colorSuccess = lipgloss.AdaptiveColor{Light: "#02BA84", Dark: "#02BF87"}
	colorWarning = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#F59E0B"}
	colorError   = lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#EF4444"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
)

// Styles are the lipgloss styles used by text output.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Value   lipgloss.Style
	Formula lipgloss.Style
	Info    lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style

	color bool
}

// NewStyles returns colored styles, or plain ones that render text
// unchanged when color is false.
func NewStyles(color bool) *Styles {
	plain := lipgloss.NewStyle()
	if !color {
		return &Styles{
			Header1: plain, Header2: plain, Bold: plain, Value: plain, Formula: plain,
			Info: plain, Success: plain, Warning: plain, Error: plain, Muted: plain,
		}
	}
	return &Styles{
		Header1: plain.Bold(true).Foreground(colorAccent).MarginBottom(1),
		Header2: plain.Bold(true).Underline(true),
		Bold:    plain.Bold(true),
		Value:   plain.Bold(true),
		Formula: plain.Italic(true).Foreground(colorAccent),
		Info:    plain.Foreground(colorAccent),
		Success: plain.Foreground(colorSuccess),
		Warning: plain.Foreground(colorWarning),
		Error:   plain.Foreground(colorError).Bold(true),
		Muted:   plain.Foreground(colorMuted),
		color:   true,
	}
}

// Colored reports whether the styles emit ANSI sequences.
func (s *Styles) Colored() bool { return s.color }
