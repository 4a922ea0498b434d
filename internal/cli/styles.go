package cli

import "github.com/charmbracelet/lipgloss"

// Shared output styles.
var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5FAFD7")) // light blue
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00D787")) // green
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF005F")) // red
	hintStyle    = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#6C6C6C")) // dim gray
)
