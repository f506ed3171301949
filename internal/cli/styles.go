package cli

import "github.com/charmbracelet/lipgloss"

var (
	// accent highlights paths and references.
	accent = lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA"))

	// muted is for hints and secondary details.
	muted = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))

	bold = lipgloss.NewStyle().Bold(true)
)
