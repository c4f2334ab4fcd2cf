// Package tui provides Bubble Tea TUI components for the handseal CLI.
//
// TUI mode is strictly opt-in (--tui) and limited to read-only outbox
// views. Every view renders the same payload the plain renderer gets;
// nothing is shown interactively that the json output would omit.
package tui

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor   = lipgloss.Color("#0EA5E9") // sky blue
	successColor   = lipgloss.Color("#22C55E") // green
	warningColor   = lipgloss.Color("#EAB308") // yellow
	errorColor     = lipgloss.Color("#DC2626") // red
	mutedColor     = lipgloss.Color("#71717A") // gray
	highlightColor = lipgloss.Color("#6366F1") // indigo
	textColor      = lipgloss.Color("#FAFAFA")
)

var (
	// TitleStyle heads each view.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	// LabelStyle and ValueStyle make up the two columns of a detail row.
	LabelStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(16)
	ValueStyle = lipgloss.NewStyle().
			Foreground(textColor)

	SuccessStyle = lipgloss.NewStyle().Foreground(successColor)
	WarningStyle = lipgloss.NewStyle().Foreground(warningColor)
	ErrorStyle   = lipgloss.NewStyle().Foreground(errorColor)

	// BoxStyle frames a whole view.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(1, 2)

	// HelpStyle renders the key hints under a view.
	HelpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			MarginTop(1)

	// StatBoxStyle and its label/value styles build the stat tiles in
	// the outbox stats view.
	StatBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(highlightColor).
			Padding(0, 2).
			Width(20).
			Align(lipgloss.Center)
	StatLabelStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Align(lipgloss.Center)
	StatValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(textColor).
			Align(lipgloss.Center)
)

// ReasonStyle picks a color for a submission's last failure reason.
// Settled outcomes read green, retriable ones yellow, the rest red.
func ReasonStyle(reason string) lipgloss.Style {
	switch reason {
	case "", "accepted", "duplicate":
		return SuccessStyle
	case "network", "token_issue_failed":
		return WarningStyle
	default:
		return ErrorStyle
	}
}
