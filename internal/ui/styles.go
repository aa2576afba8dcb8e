package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ilkoid/poncho-slides/pkg/theme"
)

// styles — стили одного кадра, построенные из токенов темы.
type styles struct {
	header   lipgloss.Style
	label    lipgloss.Style
	heading  lipgloss.Style
	body     lipgloss.Style
	muted    lipgloss.Style
	errorMsg lipgloss.Style
	dotOn    lipgloss.Style
	dotOff   lipgloss.Style
	fallback lipgloss.Style
}

func newStyles(t theme.Tokens) styles {
	return styles{
		header: lipgloss.NewStyle().
			Foreground(t.Heading).
			Background(t.Border).
			Padding(0, 1).
			Bold(true),
		label:   lipgloss.NewStyle().Foreground(t.Accent).Bold(true),
		heading: lipgloss.NewStyle().Foreground(t.Heading).Bold(true),
		body:    lipgloss.NewStyle().Foreground(t.Foreground),
		muted:   lipgloss.NewStyle().Foreground(t.Muted).Italic(true),
		errorMsg: lipgloss.NewStyle().
			Foreground(t.Error).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Error).
			Padding(0, 1),
		dotOn:  lipgloss.NewStyle().Foreground(t.Accent),
		dotOff: lipgloss.NewStyle().Foreground(t.Muted),
		fallback: lipgloss.NewStyle().
			Foreground(t.Muted).
			Bold(true).
			Padding(1, 2),
	}
}
