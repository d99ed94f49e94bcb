// Package cli provides styled terminal output and input helpers for the
// scribe commands.
package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/scribe/internal/engine"
	"github.com/Veraticus/scribe/internal/model"
)

var (
	// PrimaryColor is the main theme color.
	PrimaryColor = lipgloss.Color("#5DADE2")
	// SuccessColor indicates successful operations.
	SuccessColor = lipgloss.Color("#58D68D")
	// WarningColor indicates warnings or caution messages.
	WarningColor = lipgloss.Color("#F5B041")
	// ErrorColor indicates errors or failure messages.
	ErrorColor = lipgloss.Color("#EC7063")
	// InfoColor indicates informational messages.
	InfoColor = lipgloss.Color("#AED6F1")
	// SubtleColor indicates less prominent UI elements.
	SubtleColor = lipgloss.Color("#666666")

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	// SuccessStyle formats success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	// WarningStyle formats warning messages.
	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	// ErrorStyle formats error messages.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	// InfoStyle formats informational messages.
	InfoStyle = lipgloss.NewStyle().
			Foreground(InfoColor)

	// SubtleStyle formats less prominent text.
	SubtleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// BoxStyle is used for bordered content boxes.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333")).
			Padding(1, 2)

	// TableHeaderStyle is used for table headers.
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(lipgloss.Color("#333"))

	// TableCellStyle formats table cells with appropriate padding.
	TableCellStyle = lipgloss.NewStyle().
			PaddingRight(2)

	// PromptStyle is used for user prompts.
	PromptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor)
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	ScribeIcon  = "🩺"
)

// FormatSuccess formats a success message with icon.
func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

// FormatError formats an error message with icon.
func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

// FormatWarning formats a warning message with icon.
func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

// FormatInfo formats an info message with icon.
func FormatInfo(message string) string {
	return InfoStyle.Render(InfoIcon + " " + message)
}

// FormatTitle formats a title with the scribe icon.
func FormatTitle(title string) string {
	return TitleStyle.Render(ScribeIcon + " " + title)
}

// FormatPrompt formats a prompt message.
func FormatPrompt(prompt string) string {
	return PromptStyle.Render(prompt + " → ")
}

// RenderBox renders content in a styled box.
func RenderBox(title, content string) string {
	boxTitle := TitleStyle.
		UnsetMargins().
		Render(title)

	return BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, boxTitle, content))
}

// FormatOutcome renders the user-facing line for a commit outcome.
func FormatOutcome(outcome engine.Outcome) string {
	switch {
	case outcome.Stale:
		return FormatWarning("Resultado descartado: o paciente foi alterado durante a gravação.")
	case outcome.Success:
		return FormatSuccess(outcome.Message)
	default:
		return FormatError(outcome.Message)
	}
}

var categoryHeadings = map[model.Category]string{
	model.CategoryDiagnoses:     "Diagnósticos",
	model.CategoryComorbidities: "Comorbidades",
	model.CategoryMedications:   "Medicamentos",
	model.CategoryAllergies:     "Alergias",
	model.CategorySurgeries:     "Cirurgias",
}

// RenderReport renders the created and skipped counts as a table.
func RenderReport(report model.CommitReport) string {
	width := 0
	for _, c := range model.ReportCategories() {
		width = max(width, lipgloss.Width(categoryHeadings[c]))
	}
	cell := TableCellStyle.Width(width + 2)

	var b strings.Builder
	b.WriteString(TableHeaderStyle.Render(cell.Render("Categoria") + cell.Render("Criados") + "Ignorados"))
	for _, c := range model.ReportCategories() {
		b.WriteString("\n")
		b.WriteString(cell.Render(categoryHeadings[c]))
		b.WriteString(cell.Render(fmt.Sprintf("%d", report.Created.Count(c))))
		skipped := report.Skipped.Count(c)
		if skipped > 0 {
			b.WriteString(WarningStyle.Render(fmt.Sprintf("%d", skipped)))
		} else {
			b.WriteString(SubtleStyle.Render("0"))
		}
	}
	return b.String()
}
