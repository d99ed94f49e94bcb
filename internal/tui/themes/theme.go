// Package themes holds the lipgloss styles of the review screen.
package themes

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual style for the TUI.
type Theme struct {
	Title         lipgloss.Style
	Subtitle      lipgloss.Style
	Normal        lipgloss.Style
	Faint         lipgloss.Style
	Section       lipgloss.Style
	FieldName     lipgloss.Style
	Selected      lipgloss.Style
	Highlighted   lipgloss.Style
	Input         lipgloss.Style
	StatusInfo    lipgloss.Style
	StatusError   lipgloss.Style
	StatusWarning lipgloss.Style
	StatusSuccess lipgloss.Style
	BorderedBox   lipgloss.Style
	Primary       lipgloss.Color
	Muted         lipgloss.Color
	Border        lipgloss.Color
}

// Default is the default theme.
var Default = Theme{
	Primary: lipgloss.Color("#0ea5e9"),
	Muted:   lipgloss.Color("#737373"),
	Border:  lipgloss.Color("#404040"),

	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#fafafa")),
	Subtitle: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#a3a3a3")),
	Normal: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#fafafa")),
	Faint: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#737373")).
		Italic(true),
	Section: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#0ea5e9")).
		MarginTop(1),
	FieldName: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#a3a3a3")),
	Selected: lipgloss.NewStyle().
		Background(lipgloss.Color("#0ea5e9")).
		Foreground(lipgloss.Color("#0a0a0a")).
		Bold(true),
	Highlighted: lipgloss.NewStyle().
		Background(lipgloss.Color("#262626")).
		Foreground(lipgloss.Color("#fafafa")),
	Input: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#0ea5e9")).
		Padding(0, 1),

	StatusSuccess: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10b981")).
		Bold(true),
	StatusWarning: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#f59e0b")).
		Bold(true),
	StatusError: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#ef4444")).
		Bold(true),
	StatusInfo: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#3b82f6")),

	BorderedBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#404040")).
		Padding(0, 1),
}
